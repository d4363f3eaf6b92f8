package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"losslens/internal/amqp"
	"losslens/internal/categorize"
	"losslens/internal/core"
	"losslens/internal/export"
	"losslens/internal/ingest"
	"losslens/internal/insight"
	applog "losslens/internal/log"
	"losslens/internal/peer"
	"losslens/internal/predict"
	"losslens/internal/session"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Page not found").Write(w)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		HasSession    bool
		Categories    []string
		PeerProfiles  []peer.Profile
		MailEnabled   bool
		SheetsEnabled bool
	}{
		Categories:    categorize.Categories,
		PeerProfiles:  peer.Profiles(),
		MailEnabled:   s.publisher != nil,
		SheetsEnabled: s.sheets != nil,
	}
	if id := sessionID(r); id != "" {
		if _, err := s.sessions.Snapshot(id); err == nil {
			data.HasSession = true
		}
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleUpload ingests a CSV file, categorizes the rows, and starts a
// fresh session.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		slog.WarnContext(r.Context(), "Upload parse error", "error", err)
		BadRequestError("Upload too large or malformed").Write(w)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		BadRequestError("Missing CSV file").Write(w)
		return
	}
	defer file.Close()

	result, err := ingest.ReadCSV(file)
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			UnprocessableEntityError(verr.Error()).Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "CSV read error", "error", err)
		UnprocessableEntityError("Could not read CSV").Write(w)
		return
	}

	s.categorizer.Apply(r.Context(), result.Transactions)

	sess := s.sessions.Create(result.Transactions)
	setSessionCookie(w, sess.ID)

	slog.InfoContext(r.Context(), "Session created",
		"session_id", sess.ID,
		"row_count", len(result.Transactions),
		"skipped", len(result.Skipped))

	var body bytes.Buffer
	s.renderTransactions(&body, r, sess.ID, result.Transactions, result.Skipped)
	NewHTMXResponse().
		TriggerSessionCreated(len(result.Transactions), len(result.Skipped)).
		TriggerOverviewRefresh().
		BodyHTML(body.String()).
		Write(w)
}

// handleTransactions re-renders the transaction table for the session.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	txns, err := s.sessions.Snapshot(id)
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.renderTransactions(w, r, id, txns, nil)
}

// handleRate applies a happiness score to one transaction and returns
// the updated row.
func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Malformed form").Write(w)
		return
	}

	index := parseIntField(r, "index", -1)
	happiness := parseIntField(r, "happiness", 0)

	tx, err := s.sessions.Rate(sessionID(r), index, happiness)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			s.sessionError(w, r, err)
		case errors.Is(err, session.ErrIndexRange):
			UnprocessableEntityError("Unknown transaction").Write(w)
		case errors.Is(err, core.ErrHappinessRange):
			UnprocessableEntityError("Happiness must be between 1 and 5").Write(w)
		default:
			slog.ErrorContext(r.Context(), "Rate error", "error", err, "index", index)
			InternalServerError("Could not save rating").Write(w)
		}
		return
	}

	var body bytes.Buffer
	s.render(&body, r, "txrow.html", transactionRow(index, tx))
	NewHTMXResponse().
		TriggerRatingUpdated(index).
		TriggerOverviewRefresh().
		BodyHTML(body.String()).
		Write(w)
}

// handleOverview renders the aggregate partial: totals, categories,
// top purchases, months, and regret hotspots.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	txns, err := s.sessions.Snapshot(sessionID(r))
	if err != nil {
		s.sessionError(w, r, err)
		return
	}

	view := core.BuildAggregate(txns, s.topN)
	merchants, _ := predict.Hotspots(txns, s.topN)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.render(w, r, "overview.html", buildOverviewData(view, merchants))
}

// handleInsight renders remote or local prose for the current view.
func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	txns, err := s.sessions.Snapshot(sessionID(r))
	if err != nil {
		s.sessionError(w, r, err)
		return
	}

	mode := insight.ModeSummary
	if r.URL.Query().Get("mode") == "advice" {
		mode = insight.ModeAdvice
	}

	view := core.BuildAggregate(txns, s.topN)
	text := s.insights.Generate(r.Context(), view, mode)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.render(w, r, "insight.html", struct {
		Mode string
		Text string
	}{Mode: string(mode), Text: text})
}

// handleWhatIf rescores the session under hypothetical happiness
// shifts and renders the baseline next to the scenario.
func (s *Server) handleWhatIf(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Malformed form").Write(w)
		return
	}

	txns, err := s.sessions.Snapshot(sessionID(r))
	if err != nil {
		s.sessionError(w, r, err)
		return
	}

	deltas := make(map[string]int)
	for _, cat := range categorize.Categories {
		if d := parseIntField(r, "delta_"+cat, 0); d != 0 {
			deltas[cat] = d
		}
	}

	baseline := core.BuildAggregate(txns, s.topN)
	scenario := core.WhatIf(txns, deltas, s.topN)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.render(w, r, "whatif.html", struct {
		BaselineRegret string
		ScenarioRegret string
		SavedRegret    string
		Improved       bool
	}{
		BaselineRegret: formatDollars(baseline.TotalRegret.Cents),
		ScenarioRegret: formatDollars(scenario.TotalRegret.Cents),
		SavedRegret:    formatDollars(baseline.TotalRegret.Cents - scenario.TotalRegret.Cents),
		Improved:       scenario.TotalRegret.Cents < baseline.TotalRegret.Cents,
	})
}

// handlePredict estimates regret for a prospective purchase.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Malformed form").Write(w)
		return
	}

	merchant := sanitizeInput(r.FormValue("merchant"))
	category := sanitizeInput(r.FormValue("category"))
	happiness := parseIntField(r, "happiness", 3)

	cents, err := core.ParseAmountToCents(r.FormValue("amount"))
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	// Prediction works without a session; history just sharpens it.
	txns, serr := s.sessions.Snapshot(sessionID(r))
	if serr != nil {
		txns = nil
	}

	est := predict.EstimateRegret(txns, merchant, category, core.Money{Cents: cents}, happiness)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.render(w, r, "predict.html", struct {
		Merchant string
		Amount   string
		Regret   string
		Percent  string
		Method   string
	}{
		Merchant: merchant,
		Amount:   formatDollars(cents),
		Regret:   formatDollars(est.Regret.Cents),
		Percent:  fmt.Sprintf("%.0f%%", est.Percent),
		Method:   methodLabel(est.Method),
	})
}

// handlePeers compares the session's categories against a synthetic
// peer profile.
func (s *Server) handlePeers(w http.ResponseWriter, r *http.Request) {
	txns, err := s.sessions.Snapshot(sessionID(r))
	if err != nil {
		s.sessionError(w, r, err)
		return
	}

	profile := sanitizeInput(r.URL.Query().Get("profile"))
	if profile == "" {
		profile = peer.DefaultProfile
	}

	cmp, err := peer.Compare(txns, profile)
	if err != nil {
		UnprocessableEntityError("Unknown peer profile").Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.render(w, r, "peers.html", buildPeerData(cmp))
}

// handleExportCSV streams the session as a CSV download.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	txns, err := s.sessions.Snapshot(sessionID(r))
	if err != nil {
		s.sessionError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="losslens-export.csv"`)
	if err := export.WriteCSV(w, txns); err != nil {
		slog.ErrorContext(r.Context(), "CSV export error", "error", err)
	}
}

// handleExportSheets pushes the export table to the configured
// spreadsheet.
func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if s.sheets == nil {
		ServiceUnavailableError("Sheets export is not configured").Write(w)
		return
	}

	txns, err := s.sessions.Snapshot(sessionID(r))
	if err != nil {
		s.sessionError(w, r, err)
		return
	}

	if err := s.sheets.Write(r.Context(), txns); err != nil {
		slog.ErrorContext(r.Context(), "Sheets export error", "error", err)
		InternalServerError("Could not write to the spreadsheet").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerSuccessNotification("Exported to Google Sheets").
		BodyHTML(`<div class="success">Exported to Google Sheets</div>`).
		Write(w)
}

// handleEmail queues a report email with the CSV attached.
func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if s.publisher == nil {
		ServiceUnavailableError("Email delivery is not configured").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Malformed form").Write(w)
		return
	}

	recipient := strings.TrimSpace(r.FormValue("recipient"))
	if _, err := mail.ParseAddress(recipient); err != nil {
		UnprocessableEntityError("Invalid email address").Write(w)
		return
	}

	txns, err := s.sessions.Snapshot(sessionID(r))
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	if len(txns) == 0 {
		UnprocessableEntityError("Nothing to report yet").Write(w)
		return
	}

	view := core.BuildAggregate(txns, s.topN)
	body := s.insights.Generate(r.Context(), view, insight.ModeSummary)

	var csvBuf bytes.Buffer
	if err := export.WriteCSV(&csvBuf, txns); err != nil {
		slog.ErrorContext(r.Context(), "CSV render error", "error", err)
		InternalServerError("Could not build the report").Write(w)
		return
	}

	msg := amqp.NewReportMessage(recipient, "Your spending regret report", body, csvBuf.Bytes())
	if err := s.publisher.PublishReport(r.Context(), msg); err != nil {
		slog.ErrorContext(r.Context(), "Report publish error", "error", err, "recipient", recipient)
		InternalServerError("Could not queue the report").Write(w)
		return
	}

	NewHTMXResponse().
		Status(http.StatusAccepted).
		TriggerReportQueued().
		BodyHTML(`<div class="success">Report queued for ` + template.HTMLEscapeString(recipient) + `</div>`).
		Write(w)
}

func (s *Server) sessionError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, session.ErrNotFound) {
		NotFoundError("No active session. Upload a CSV to get started.").Write(w)
		return
	}
	applog.FromContext(r.Context()).ErrorContext(r.Context(), "Session error",
		applog.NewFields().WithError(err).ToSlice()...)
	InternalServerError("Session unavailable").Write(w)
}

func methodLabel(m predict.Method) string {
	switch m {
	case predict.MethodMerchantHistory:
		return "based on your history with this merchant"
	case predict.MethodCategoryHistory:
		return "based on your history in this category"
	case predict.MethodOverallHistory:
		return "based on your overall rated history"
	default:
		return "based on the happiness you expect"
	}
}
