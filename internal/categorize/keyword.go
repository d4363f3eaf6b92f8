package categorize

import (
	"context"
	"strings"

	"losslens/internal/core"
)

type rule struct {
	keyword  string
	category string
}

// Keyword is the local categorizer: ordered substring matching against
// a fixed table. It is total: every merchant gets a label, with
// unmatched text landing in Other.
type Keyword struct {
	rules []rule
}

// NewKeyword builds the default keyword table. Rules are ordered so
// matching stays deterministic when a merchant hits more than one.
func NewKeyword() *Keyword {
	return &Keyword{rules: []rule{
		{"whole foods", "Groceries"},
		{"grocery", "Groceries"},
		{"safeway", "Groceries"},
		{"walmart", "Groceries"},
		{"aldi", "Groceries"},
		{"kroger", "Groceries"},
		{"starbucks", "Dining"},
		{"restaurant", "Dining"},
		{"cafe", "Dining"},
		{"diner", "Dining"},
		{"pizza", "Dining"},
		{"burger", "Dining"},
		{"taco", "Dining"},
		{"uber", "Transport"},
		{"lyft", "Transport"},
		{"metra", "Transport"},
		{"train", "Transport"},
		{"bus", "Transport"},
		{"shell", "Transport"},
		{"gas", "Transport"},
		{"exxon", "Transport"},
		{"amazon", "Shopping"},
		{"target", "Shopping"},
		{"best buy", "Shopping"},
		{"shop", "Shopping"},
		{"netflix", "Entertainment"},
		{"hulu", "Entertainment"},
		{"movie", "Entertainment"},
		{"cinema", "Entertainment"},
		{"spotify", "Entertainment"},
		{"pharmacy", "Health"},
		{"walgreens", "Health"},
		{"cvs", "Health"},
		{"doctor", "Health"},
		{"clinic", "Health"},
		{"airlines", "Travel"},
		{"delta", "Travel"},
		{"hotel", "Travel"},
		{"hilton", "Travel"},
		{"electric", "Utilities"},
		{"water", "Utilities"},
		{"comcast", "Utilities"},
		{"verizon", "Utilities"},
		{"att", "Utilities"},
	}}
}

// Label returns the category for a merchant. Never fails.
func (k *Keyword) Label(merchant string) string {
	m := strings.ToLower(merchant)
	for _, r := range k.rules {
		if strings.Contains(m, r.keyword) {
			return r.category
		}
	}
	return core.CategoryOther
}

// LabelAll implements Labeler so the keyword table can stand in
// wherever a remote classifier would.
func (k *Keyword) LabelAll(_ context.Context, merchants []string) (map[string]string, error) {
	out := make(map[string]string, len(merchants))
	for _, m := range merchants {
		out[m] = k.Label(m)
	}
	return out, nil
}
