package http

import (
	"fmt"
	"net/http"

	"splitsmart/internal/report"
)

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.trips.Balances(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	transfers, err := s.trips.Settlements(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transfers)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.trips.Analytics(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleReport renders a trip report as a markdown or HTML download, or as
// JSON sections with format=json.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, err := report.ParseKind(q.Get("kind"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown report kind", Field: "kind"})
		return
	}

	rep, err := s.trips.Report(r.PathValue("id"), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body, contentType, ext string
	switch q.Get("format") {
	case "", "md", "markdown":
		body, err = report.Markdown(rep)
		contentType, ext = "text/markdown; charset=utf-8", ".md"
	case "html":
		body, err = report.HTML(rep)
		contentType, ext = "text/html; charset=utf-8", ".html"
	case "json":
		writeJSON(w, http.StatusOK, rep)
		return
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown report format", Field: "format"})
		return
	}
	if err != nil {
		writeError(w, r, fmt.Errorf("render report: %w", err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.FileName+ext))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
