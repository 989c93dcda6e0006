package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/woudc-registry/internal/core"
	"github.com/JonMunkholm/woudc-registry/internal/web/templates"
)

// maxReportLimit caps ?limit on report listings.
const maxReportLimit = 500

// ReportSummary is one row of a report listing.
type ReportSummary struct {
	ID         string       `json:"id"`
	Source     string       `json:"source,omitempty"`
	Dataset    string       `json:"dataset"`
	Version    string       `json:"version"`
	Outcome    core.Outcome `json:"outcome"`
	Violations int          `json:"violations"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// ReportsResponse is a page of stored reports.
type ReportsResponse struct {
	Reports []ReportSummary `json:"reports"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// handleListReports lists stored reports, newest first.
// Query: dataset, outcome, limit, offset.
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	filter, err := reportFilter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	recs, err := s.service.Reports(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := ReportsResponse{Reports: make([]ReportSummary, 0, len(recs)), Limit: filter.Limit, Offset: filter.Offset}
	if resp.Limit <= 0 {
		resp.Limit = core.DefaultReportLimit
	}
	for _, rec := range recs {
		declared := rec.Report.Declared()
		resp.Reports = append(resp.Reports, ReportSummary{
			ID:         rec.ID,
			Source:     rec.Report.Source(),
			Dataset:    declared.Dataset,
			Version:    declared.Version,
			Outcome:    rec.Report.Outcome(),
			Violations: len(rec.Report.Violations()),
			CreatedAt:  rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func reportFilter(r *http.Request) (core.ReportFilter, error) {
	q := r.URL.Query()
	filter := core.ReportFilter{Dataset: q.Get("dataset")}

	switch o := core.Outcome(q.Get("outcome")); o {
	case "", core.Accepted, core.Rejected, core.Unresolved:
		filter.Outcome = o
	default:
		return filter, invalidRequest("outcome %q is not one of accepted, rejected, unresolved", o)
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit"), maxReportLimit); err != nil {
		return filter, invalidRequest("limit: %v", err)
	}
	if filter.Offset, err = intParam(q.Get("offset"), -1); err != nil {
		return filter, invalidRequest("offset: %v", err)
	}
	return filter, nil
}

// intParam parses a non-negative integer, clamping it to ceiling when
// ceiling is positive. Empty is zero.
func intParam(raw string, ceiling int) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	if ceiling > 0 && n > ceiling {
		n = ceiling
	}
	return n, nil
}

// handleGetReport returns one stored report as JSON.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleReportStats counts stored reports by outcome.
func (s *Server) handleReportStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleReportPage renders one stored report as HTML.
func (s *Server) handleReportPage(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	view := templates.ReportView{ID: rec.ID, CreatedAt: rec.CreatedAt, Report: rec.Report}
	if err := templates.ReportPage(view).Render(r.Context(), w); err != nil {
		slog.Error("render report page", "id", rec.ID, "error", err)
	}
}
