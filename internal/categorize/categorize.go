// Package categorize assigns a spending category to every transaction.
//
// Two variants sit behind one contract: a remote Claude classifier and
// a deterministic keyword table. The fallback rule lives in Service and
// nowhere else. Remote failure of any kind degrades to the keyword
// table, never to an error the pipeline can see.
package categorize

import (
	"context"
	"log/slog"
	"strings"

	"losslens/internal/core"
)

// Categories the classifier may assign. The keyword table and the
// remote prompt both stick to this set.
var Categories = []string{
	"Groceries",
	"Dining",
	"Transport",
	"Shopping",
	"Entertainment",
	"Health",
	"Travel",
	"Utilities",
	core.CategoryOther,
}

// Labeler maps merchant names to category labels in one shot. A
// returned map may be partial; callers fill gaps locally.
type Labeler interface {
	LabelAll(ctx context.Context, merchants []string) (map[string]string, error)
}

// Service applies categories to a transaction set, preferring the
// remote labeler when one is configured and falling back to the local
// keyword table for every failure or gap.
type Service struct {
	remote Labeler
	local  *Keyword
}

func NewService(remote Labeler, local *Keyword) *Service {
	if local == nil {
		local = NewKeyword()
	}
	return &Service{remote: remote, local: local}
}

// Apply fills in Category for every transaction that lacks one. It
// mutates the given slice and is total: after it returns, every
// transaction has a non-empty category.
func (s *Service) Apply(ctx context.Context, txns []core.Transaction) {
	var merchants []string
	seen := make(map[string]struct{})
	for _, t := range txns {
		if t.Category != "" {
			continue
		}
		m := strings.TrimSpace(t.Merchant)
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		merchants = append(merchants, m)
	}
	if len(merchants) == 0 {
		return
	}

	labels := map[string]string{}
	if s.remote != nil {
		remoteLabels, err := s.remote.LabelAll(ctx, merchants)
		if err != nil {
			slog.WarnContext(ctx, "Remote categorization failed, using keyword fallback",
				"error", err, "merchants", len(merchants))
		} else {
			labels = remoteLabels
		}
	}

	for i := range txns {
		t := &txns[i]
		if t.Category != "" {
			continue
		}
		label := strings.TrimSpace(labels[strings.TrimSpace(t.Merchant)])
		if label == "" {
			label = s.local.Label(t.Merchant)
		}
		t.Category = label
	}
}
