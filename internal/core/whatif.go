package core

// WhatIf projects the aggregate view under hypothetical happiness
// adjustments per category. Each rated transaction in a listed category
// has the delta applied with the result clamped to [1,5], its regret
// rescored, and the whole set re-aggregated. The input slice is never
// mutated; identical inputs always produce identical output.
func WhatIf(txns []Transaction, deltaByCategory map[string]int, topN int) AggregateView {
	projected := make([]Transaction, len(txns))
	copy(projected, txns)

	for i := range projected {
		t := &projected[i]
		if !t.Rated() {
			continue
		}
		cat := t.Category
		if cat == "" {
			cat = CategoryOther
		}
		delta, ok := deltaByCategory[cat]
		if !ok || delta == 0 {
			continue
		}
		h := clampHappiness(t.Happiness + delta)
		// Clamped input keeps RegretScore in its defined domain, so the
		// error cannot fire here.
		r, err := RegretScore(t.Amount, h)
		if err != nil {
			continue
		}
		t.Happiness = h
		t.Regret = r
	}

	return BuildAggregate(projected, topN)
}

func clampHappiness(h int) int {
	if h < HappinessMin {
		return HappinessMin
	}
	if h > HappinessMax {
		return HappinessMax
	}
	return h
}
