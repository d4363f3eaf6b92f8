package insight

import (
	"context"
	"fmt"
	"strings"

	"losslens/internal/core"
)

// Local renders fixed-template sentences from the aggregate view. It is
// deterministic, makes no external calls, and always succeeds.
type Local struct{}

var _ Generator = Local{}

func (Local) Generate(_ context.Context, view core.AggregateView, mode Mode) (string, error) {
	if view.RatedCount == 0 {
		return "No rated purchases yet. Rate a few transactions to see where your regret concentrates.", nil
	}
	if mode == ModeAdvice {
		return advice(view), nil
	}
	return summary(view), nil
}

func summary(view core.AggregateView) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You rated %d purchases totaling $%s, with $%s of regretted spend overall.",
		view.RatedCount, view.TotalSpend.String(), view.TotalRegret.String())

	if top, ok := view.TopCategory(); ok && top.Regret.Cents > 0 {
		fmt.Fprintf(&b, " %s is your highest-regret category at $%s across %d purchases.",
			top.Category, top.Regret.String(), top.Count)
	}
	if tx, ok := view.TopPurchase(); ok && tx.Regret.Cents > 0 {
		fmt.Fprintf(&b, " Your single most regretted purchase was %s on %s ($%s spent, $%s regretted).",
			tx.Merchant, tx.Date.Format("2006-01-02"), tx.Amount.String(), tx.Regret.String())
	}
	if view.TotalRegret.Cents == 0 {
		b.WriteString(" Nothing you rated carries any regret: spending and happiness are aligned.")
	}
	return b.String()
}

func advice(view core.AggregateView) string {
	lines := []string{"A few ways to lower spending regret:"}
	if top, ok := view.TopCategory(); ok && top.Regret.Cents > 0 {
		lines = append(lines, fmt.Sprintf("- Focus on reducing large purchases in %s, your top regret category.", top.Category))
	}
	lines = append(lines,
		"- Set a budget limit for impulse buys.",
		"- Reflect on happiness before spending: if it would rate below 3/5, reconsider the purchase.")
	return strings.Join(lines, "\n")
}
