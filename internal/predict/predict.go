// Package predict estimates the regret of a prospective purchase from
// session history. Pure functions of their inputs: no model state, no
// randomness, identical calls give identical answers.
package predict

import (
	"sort"
	"strings"

	"losslens/internal/core"
)

// Method names how an estimate was derived, most specific first.
type Method string

const (
	MethodMerchantHistory Method = "merchant_history"
	MethodCategoryHistory Method = "category_history"
	MethodOverallHistory  Method = "overall_history"
	MethodHappinessProxy  Method = "happiness_proxy"
)

// Estimate is a predicted regret with its derivation and the share of
// the purchase it represents.
type Estimate struct {
	Regret  core.Money
	Method  Method
	Percent float64
}

// EstimateRegret predicts regret for a hypothetical purchase. It walks
// a fallback chain of historical regret ratios (this merchant, then
// this category, then everything rated) and finally falls back to the
// pure happiness formula when there is no history at all.
func EstimateRegret(txns []core.Transaction, merchant, category string, amount core.Money, happiness int) Estimate {
	ratio, method := historicalRatio(txns, merchant, category)
	if method == MethodHappinessProxy {
		// No usable history: 1 - happiness/5, clamped like the scorer.
		h := happiness
		if h < core.HappinessMin {
			h = core.HappinessMin
		}
		if h > core.HappinessMax {
			h = core.HappinessMax
		}
		ratio = 1 - float64(h)/float64(core.HappinessMax)
	}
	if ratio < 0 {
		ratio = 0
	}
	cents := int64(float64(amount.Cents)*ratio + 0.5)
	est := Estimate{Regret: core.Money{Cents: cents}, Method: method}
	if amount.Cents > 0 {
		est.Percent = float64(cents) / float64(amount.Cents) * 100
	}
	return est
}

func historicalRatio(txns []core.Transaction, merchant, category string) (float64, Method) {
	var (
		merchantSpend, merchantRegret int64
		categorySpend, categoryRegret int64
		overallSpend, overallRegret   int64
	)
	for _, t := range txns {
		if !t.Rated() || t.Amount.Cents <= 0 {
			continue
		}
		overallSpend += t.Amount.Cents
		overallRegret += t.Regret.Cents
		if merchant != "" && strings.EqualFold(t.Merchant, merchant) {
			merchantSpend += t.Amount.Cents
			merchantRegret += t.Regret.Cents
		}
		if category != "" && t.Category == category {
			categorySpend += t.Amount.Cents
			categoryRegret += t.Regret.Cents
		}
	}
	switch {
	case merchantSpend > 0:
		return float64(merchantRegret) / float64(merchantSpend), MethodMerchantHistory
	case categorySpend > 0:
		return float64(categoryRegret) / float64(categorySpend), MethodCategoryHistory
	case overallSpend > 0:
		return float64(overallRegret) / float64(overallSpend), MethodOverallHistory
	default:
		return 0, MethodHappinessProxy
	}
}

// Hotspot is a merchant or category where regret concentrates: its
// typical (median) purchase predicted at its typical happiness.
type Hotspot struct {
	Name            string
	TypicalAmount   core.Money
	PredictedRegret core.Money
	Count           int
}

// Hotspots returns the top-N merchants and categories ranked by
// predicted regret on their typical purchase. Only rated transactions
// participate.
func Hotspots(txns []core.Transaction, topN int) (merchants, categories []Hotspot) {
	merchants = hotspotsBy(txns, topN, true, func(t core.Transaction) string { return t.Merchant })
	categories = hotspotsBy(txns, topN, false, func(t core.Transaction) string {
		if t.Category == "" {
			return core.CategoryOther
		}
		return t.Category
	})
	return merchants, categories
}

func hotspotsBy(txns []core.Transaction, topN int, byMerchant bool, keyOf func(core.Transaction) string) []Hotspot {
	groups := make(map[string][]core.Transaction)
	for _, t := range txns {
		if !t.Rated() {
			continue
		}
		k := keyOf(t)
		groups[k] = append(groups[k], t)
	}

	out := make([]Hotspot, 0, len(groups))
	for name, group := range groups {
		amount := medianAmount(group)
		happiness := medianHappiness(group)
		merchant, category := "", name
		if byMerchant {
			merchant, category = name, group[0].Category
		}
		est := EstimateRegret(txns, merchant, category, amount, happiness)
		out = append(out, Hotspot{
			Name:            name,
			TypicalAmount:   amount,
			PredictedRegret: est.Regret,
			Count:           len(group),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PredictedRegret.Cents != out[j].PredictedRegret.Cents {
			return out[i].PredictedRegret.Cents > out[j].PredictedRegret.Cents
		}
		return out[i].Name < out[j].Name
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

func medianAmount(txns []core.Transaction) core.Money {
	cents := make([]int64, len(txns))
	for i, t := range txns {
		cents[i] = t.Amount.Cents
	}
	sort.Slice(cents, func(i, j int) bool { return cents[i] < cents[j] })
	mid := len(cents) / 2
	if len(cents)%2 == 1 {
		return core.Money{Cents: cents[mid]}
	}
	return core.Money{Cents: (cents[mid-1] + cents[mid]) / 2}
}

func medianHappiness(txns []core.Transaction) int {
	hs := make([]int, len(txns))
	for i, t := range txns {
		hs[i] = t.Happiness
	}
	sort.Ints(hs)
	return hs[len(hs)/2]
}
