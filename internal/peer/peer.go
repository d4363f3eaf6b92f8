// Package peer compares a session's per-category spending and regret
// rates against fixed synthetic peer baselines. The baselines are
// placeholder numbers, not real cohort data.
package peer

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"losslens/internal/core"
)

var ErrUnknownProfile = errors.New("unknown peer profile")

// DefaultProfile is used when no profile is requested.
const DefaultProfile = "student"

// Benchmark is one category's peer baseline: average monthly spend and
// the share of that spend peers typically regret.
type Benchmark struct {
	MonthlySpend core.Money
	RegretRatio  float64
}

// Profile is a named synthetic peer group.
type Profile struct {
	Key        string
	Label      string
	Benchmarks map[string]Benchmark
}

var profiles = []Profile{
	{
		Key:   "student",
		Label: "student",
		Benchmarks: map[string]Benchmark{
			"Groceries":     {MonthlySpend: core.Money{Cents: 15000}, RegretRatio: 0.12},
			"Dining":        {MonthlySpend: core.Money{Cents: 12000}, RegretRatio: 0.18},
			"Transport":     {MonthlySpend: core.Money{Cents: 6000}, RegretRatio: 0.10},
			"Shopping":      {MonthlySpend: core.Money{Cents: 8000}, RegretRatio: 0.22},
			"Entertainment": {MonthlySpend: core.Money{Cents: 5000}, RegretRatio: 0.15},
			"Other":         {MonthlySpend: core.Money{Cents: 4000}, RegretRatio: 0.10},
		},
	},
	{
		Key:   "young_professional",
		Label: "young professional",
		Benchmarks: map[string]Benchmark{
			"Groceries":     {MonthlySpend: core.Money{Cents: 30000}, RegretRatio: 0.10},
			"Dining":        {MonthlySpend: core.Money{Cents: 25000}, RegretRatio: 0.16},
			"Transport":     {MonthlySpend: core.Money{Cents: 12000}, RegretRatio: 0.08},
			"Shopping":      {MonthlySpend: core.Money{Cents: 20000}, RegretRatio: 0.18},
			"Entertainment": {MonthlySpend: core.Money{Cents: 10000}, RegretRatio: 0.12},
			"Other":         {MonthlySpend: core.Money{Cents: 8000}, RegretRatio: 0.09},
		},
	},
	{
		Key:   "family",
		Label: "family",
		Benchmarks: map[string]Benchmark{
			"Groceries":     {MonthlySpend: core.Money{Cents: 70000}, RegretRatio: 0.07},
			"Dining":        {MonthlySpend: core.Money{Cents: 40000}, RegretRatio: 0.14},
			"Transport":     {MonthlySpend: core.Money{Cents: 25000}, RegretRatio: 0.09},
			"Shopping":      {MonthlySpend: core.Money{Cents: 35000}, RegretRatio: 0.15},
			"Entertainment": {MonthlySpend: core.Money{Cents: 20000}, RegretRatio: 0.11},
			"Other":         {MonthlySpend: core.Money{Cents: 15000}, RegretRatio: 0.09},
		},
	},
}

// Profiles lists the available peer groups in display order.
func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

func profileByKey(key string) (Profile, bool) {
	for _, p := range profiles {
		if p.Key == key {
			return p, true
		}
	}
	return Profile{}, false
}

// Row compares one category between the user and the peer baseline.
// The Has flags mark which derived numbers could be computed: a diff
// needs a nonzero peer baseline, a regret ratio needs user spend.
type Row struct {
	Category string

	UserMonthlySpend core.Money
	PeerMonthlySpend core.Money
	SpendDiffPercent float64
	HasSpendDiff     bool

	UserRegretRatio   float64
	HasUserRatio      bool
	PeerRegretRatio   float64
	RegretDiffPercent float64
	HasRegretDiff     bool
}

// Comparison is the full result: one row per category plus short
// human-readable sentences for the notable differences.
type Comparison struct {
	Profile   Profile
	Rows      []Row
	Sentences []string
}

type monthKey struct {
	year     int
	month    time.Month
	category string
}

// Compare aggregates the transactions into average monthly spend and
// regret per category and measures them against the named profile.
// Unrated transactions count toward spend but not regret.
func Compare(txns []core.Transaction, profileKey string) (Comparison, error) {
	prof, ok := profileByKey(profileKey)
	if !ok {
		return Comparison{}, fmt.Errorf("%w: %q", ErrUnknownProfile, profileKey)
	}

	type monthAgg struct{ spend, regret int64 }
	months := make(map[monthKey]*monthAgg)
	for _, tx := range txns {
		cat := tx.Category
		if cat == "" {
			cat = core.CategoryOther
		}
		k := monthKey{year: tx.Date.Year(), month: tx.Date.Month(), category: cat}
		agg := months[k]
		if agg == nil {
			agg = &monthAgg{}
			months[k] = agg
		}
		agg.spend += tx.Amount.Cents
		if tx.Rated() {
			agg.regret += tx.Regret.Cents
		}
	}

	type catAgg struct {
		spend, regret int64
		monthCount    int
	}
	byCategory := make(map[string]*catAgg)
	for k, m := range months {
		c := byCategory[k.category]
		if c == nil {
			c = &catAgg{}
			byCategory[k.category] = c
		}
		c.spend += m.spend
		c.regret += m.regret
		c.monthCount++
	}

	// Union of the user's categories and the profile's.
	seen := make(map[string]bool)
	var categories []string
	for cat := range byCategory {
		seen[cat] = true
		categories = append(categories, cat)
	}
	for cat := range prof.Benchmarks {
		if !seen[cat] {
			categories = append(categories, cat)
		}
	}
	sort.Strings(categories)

	rows := make([]Row, 0, len(categories))
	for _, cat := range categories {
		var userSpend, userRegret float64
		if c := byCategory[cat]; c != nil && c.monthCount > 0 {
			userSpend = float64(c.spend) / float64(c.monthCount)
			userRegret = float64(c.regret) / float64(c.monthCount)
		}

		row := Row{
			Category:         cat,
			UserMonthlySpend: core.Money{Cents: int64(userSpend + 0.5)},
		}
		if userSpend > 0 {
			row.UserRegretRatio = userRegret / userSpend
			row.HasUserRatio = true
		}
		if b, ok := prof.Benchmarks[cat]; ok {
			row.PeerMonthlySpend = b.MonthlySpend
			row.PeerRegretRatio = b.RegretRatio
			if b.MonthlySpend.Cents > 0 {
				row.SpendDiffPercent = (userSpend - float64(b.MonthlySpend.Cents)) /
					float64(b.MonthlySpend.Cents) * 100
				row.HasSpendDiff = true
			}
			if b.RegretRatio > 0 && row.HasUserRatio {
				row.RegretDiffPercent = (row.UserRegretRatio - b.RegretRatio) / b.RegretRatio * 100
				row.HasRegretDiff = true
			}
		}
		rows = append(rows, row)
	}

	// Heaviest user categories first; name order breaks ties.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].UserMonthlySpend.Cents != rows[j].UserMonthlySpend.Cents {
			return rows[i].UserMonthlySpend.Cents > rows[j].UserMonthlySpend.Cents
		}
		return rows[i].Category < rows[j].Category
	})

	return Comparison{Profile: prof, Rows: rows, Sentences: sentences(prof, rows)}, nil
}

// sentences turns the notable diffs into short prose. Spend differences
// under 20% and regret-rate differences under 30% stay quiet.
func sentences(prof Profile, rows []Row) []string {
	var out []string
	for _, r := range rows {
		if r.HasSpendDiff && r.UserMonthlySpend.Cents > 0 {
			switch {
			case r.SpendDiffPercent > 20:
				out = append(out, fmt.Sprintf("You spend %.0f%% more than a typical %s on %s.",
					r.SpendDiffPercent, prof.Label, r.Category))
			case r.SpendDiffPercent < -20:
				out = append(out, fmt.Sprintf("You spend %.0f%% less than a typical %s on %s.",
					-r.SpendDiffPercent, prof.Label, r.Category))
			}
		}
		if r.HasRegretDiff {
			switch {
			case r.RegretDiffPercent > 30:
				out = append(out, fmt.Sprintf("You regret %s purchases about %.0f%% more than peers.",
					r.Category, r.RegretDiffPercent))
			case r.RegretDiffPercent < -30:
				out = append(out, fmt.Sprintf("You regret %s purchases about %.0f%% less than peers.",
					r.Category, -r.RegretDiffPercent))
			}
		}
	}
	if len(out) == 0 {
		out = append(out, fmt.Sprintf("Your spending looks similar to a typical %s in the categories tracked.",
			prof.Label))
	}
	return out
}
