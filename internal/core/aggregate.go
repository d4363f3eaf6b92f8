package core

import (
	"sort"
	"time"
)

type (
	// CategoryRegret is the regret and spend accumulated by one category.
	CategoryRegret struct {
		Category string
		Regret   Money
		Spend    Money
		Count    int
	}

	// MonthBucket totals regret and spend for one calendar month.
	MonthBucket struct {
		Year   int
		Month  time.Month
		Regret Money
		Spend  Money
	}

	// AggregateView is a read-only summary of the rated transactions in
	// a session. It is always rebuilt from the full transaction set,
	// never patched in place.
	AggregateView struct {
		RatedCount  int
		TotalSpend  Money
		TotalRegret Money

		// ByCategory is sorted by regret descending, then name.
		ByCategory []CategoryRegret

		// Top holds the N most regretted purchases, regret descending;
		// ties break on earlier date, then ingestion order.
		Top []Transaction

		// ByMonth is in chronological order.
		ByMonth []MonthBucket
	}
)

// BuildAggregate summarizes the rated transactions. Unrated ones are
// excluded entirely: "not yet rated" must not read as "no regret".
func BuildAggregate(txns []Transaction, topN int) AggregateView {
	view := AggregateView{}

	byCat := make(map[string]*CategoryRegret)
	type monthKey struct {
		year  int
		month time.Month
	}
	byMonth := make(map[monthKey]*MonthBucket)

	type indexed struct {
		Transaction
		pos int
	}
	var rated []indexed

	for i, t := range txns {
		if !t.Rated() {
			continue
		}
		rated = append(rated, indexed{Transaction: t, pos: i})

		view.RatedCount++
		view.TotalSpend.Cents += t.Amount.Cents
		view.TotalRegret.Cents += t.Regret.Cents

		cat := t.Category
		if cat == "" {
			cat = CategoryOther
		}
		c, ok := byCat[cat]
		if !ok {
			c = &CategoryRegret{Category: cat}
			byCat[cat] = c
		}
		c.Regret.Cents += t.Regret.Cents
		c.Spend.Cents += t.Amount.Cents
		c.Count++

		mk := monthKey{year: t.Date.Year(), month: t.Date.Month()}
		m, ok := byMonth[mk]
		if !ok {
			m = &MonthBucket{Year: mk.year, Month: mk.month}
			byMonth[mk] = m
		}
		m.Regret.Cents += t.Regret.Cents
		m.Spend.Cents += t.Amount.Cents
	}

	for _, c := range byCat {
		view.ByCategory = append(view.ByCategory, *c)
	}
	sort.Slice(view.ByCategory, func(i, j int) bool {
		a, b := view.ByCategory[i], view.ByCategory[j]
		if a.Regret.Cents != b.Regret.Cents {
			return a.Regret.Cents > b.Regret.Cents
		}
		return a.Category < b.Category
	})

	sort.Slice(rated, func(i, j int) bool {
		a, b := rated[i], rated[j]
		if a.Regret.Cents != b.Regret.Cents {
			return a.Regret.Cents > b.Regret.Cents
		}
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		return a.pos < b.pos
	})
	if topN > 0 && len(rated) > topN {
		rated = rated[:topN]
	}
	for _, r := range rated {
		view.Top = append(view.Top, r.Transaction)
	}

	for _, m := range byMonth {
		view.ByMonth = append(view.ByMonth, *m)
	}
	sort.Slice(view.ByMonth, func(i, j int) bool {
		a, b := view.ByMonth[i], view.ByMonth[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})

	return view
}

// TopCategory returns the category with the highest regret sum, or ok
// false when nothing has been rated.
func (v AggregateView) TopCategory() (CategoryRegret, bool) {
	if len(v.ByCategory) == 0 {
		return CategoryRegret{}, false
	}
	return v.ByCategory[0], true
}

// TopPurchase returns the single most regretted transaction, or ok
// false when nothing has been rated.
func (v AggregateView) TopPurchase() (Transaction, bool) {
	if len(v.Top) == 0 {
		return Transaction{}, false
	}
	return v.Top[0], true
}
