package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"losslens/internal/core"
	"losslens/internal/ingest"
	"losslens/internal/peer"
	"losslens/internal/predict"
)

// txRow is one rendered transaction table row.
type txRow struct {
	Index     int
	Date      string
	Merchant  string
	Category  string
	Amount    string
	Happiness int
	Rated     bool
	Regret    string
}

func transactionRow(index int, tx core.Transaction) txRow {
	row := txRow{
		Index:     index,
		Date:      tx.Date.Format("2006-01-02"),
		Merchant:  tx.Merchant,
		Category:  tx.Category,
		Amount:    formatDollars(tx.Amount.Cents),
		Happiness: tx.Happiness,
		Rated:     tx.Rated(),
	}
	if row.Rated {
		row.Regret = formatDollars(tx.Regret.Cents)
	}
	return row
}

func (s *Server) renderTransactions(w io.Writer, r *http.Request, sessionID string, txns []core.Transaction, skipped []ingest.RowError) {
	rows := make([]txRow, len(txns))
	for i, tx := range txns {
		rows[i] = transactionRow(i, tx)
	}

	skippedNotes := make([]string, len(skipped))
	for i, sk := range skipped {
		skippedNotes[i] = sk.String()
	}

	s.render(w, r, "transactions.html", struct {
		SessionID string
		Rows      []txRow
		Skipped   []string
	}{SessionID: sessionID, Rows: rows, Skipped: skippedNotes})
}

type overviewRow struct {
	Name   string
	Regret string
	Spend  string
	Count  int
	Width  int
}

type overviewData struct {
	HasData     bool
	RatedCount  int
	TotalSpend  string
	TotalRegret string
	Categories  []overviewRow
	Top         []txRow
	Months      []overviewRow
	Hotspots    []overviewRow
}

func buildOverviewData(view core.AggregateView, hotspots []predict.Hotspot) overviewData {
	data := overviewData{
		HasData:     view.RatedCount > 0,
		RatedCount:  view.RatedCount,
		TotalSpend:  formatDollars(view.TotalSpend.Cents),
		TotalRegret: formatDollars(view.TotalRegret.Cents),
	}

	// Bar widths scale against the worst category, rounded percent.
	var maxCents int64
	for _, c := range view.ByCategory {
		if c.Regret.Cents > maxCents {
			maxCents = c.Regret.Cents
		}
	}
	for _, c := range view.ByCategory {
		data.Categories = append(data.Categories, overviewRow{
			Name:   c.Category,
			Regret: formatDollars(c.Regret.Cents),
			Spend:  formatDollars(c.Spend.Cents),
			Count:  c.Count,
			Width:  barWidth(c.Regret.Cents, maxCents),
		})
	}

	for i, t := range view.Top {
		data.Top = append(data.Top, transactionRow(i, t))
	}

	for _, m := range view.ByMonth {
		data.Months = append(data.Months, overviewRow{
			Name:   m.Month.String()[:3] + " " + strconv.Itoa(m.Year),
			Regret: formatDollars(m.Regret.Cents),
			Spend:  formatDollars(m.Spend.Cents),
		})
	}

	for _, h := range hotspots {
		data.Hotspots = append(data.Hotspots, overviewRow{
			Name:   h.Name,
			Regret: formatDollars(h.PredictedRegret.Cents),
			Spend:  formatDollars(h.TypicalAmount.Cents),
			Count:  h.Count,
		})
	}

	return data
}

type peerRow struct {
	Category  string
	UserSpend string
	PeerSpend string
	SpendDiff string
	UserRatio string
	PeerRatio string
}

type peerData struct {
	Label     string
	Sentences []string
	Rows      []peerRow
}

func buildPeerData(cmp peer.Comparison) peerData {
	data := peerData{Label: cmp.Profile.Label, Sentences: cmp.Sentences}
	for _, r := range cmp.Rows {
		row := peerRow{
			Category:  r.Category,
			UserSpend: formatDollars(r.UserMonthlySpend.Cents),
			PeerSpend: formatDollars(r.PeerMonthlySpend.Cents),
			SpendDiff: "n/a",
			UserRatio: "n/a",
			PeerRatio: "n/a",
		}
		if r.HasSpendDiff {
			row.SpendDiff = fmt.Sprintf("%+.1f%%", r.SpendDiffPercent)
		}
		if r.HasUserRatio {
			row.UserRatio = fmt.Sprintf("%.0f%%", r.UserRegretRatio*100)
		}
		if r.PeerRegretRatio > 0 {
			row.PeerRatio = fmt.Sprintf("%.0f%%", r.PeerRegretRatio*100)
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

func barWidth(cents, maxCents int64) int {
	if maxCents <= 0 || cents <= 0 {
		return 0
	}
	width := int((cents*100 + maxCents/2) / maxCents)
	if width < 2 { // ensure visibility for very small values
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

// render executes one template, writing a placeholder on failure so a
// broken partial never blanks the page.
func (s *Server) render(w io.Writer, r *http.Request, name string, data any) {
	if s.templates == nil {
		_, _ = io.WriteString(w, `<div class="placeholder">templates not loaded</div>`)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", name)
		_, _ = io.WriteString(w, `<div class="placeholder">rendering failed</div>`)
	}
}
