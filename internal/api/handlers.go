package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/drugwatch/approvals-hunter/internal/core"
	"github.com/drugwatch/approvals-hunter/internal/export"
	"github.com/drugwatch/approvals-hunter/internal/observability"
	"github.com/drugwatch/approvals-hunter/internal/store"
)

func (s *Server) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 20)
	year := parseYear(r)

	approvals, err := s.store.GetApprovals(r.Context(), limit, offset, year)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch approvals: "+err.Error())
		return
	}
	// Return empty list if nil to be JSON friendly
	if approvals == nil {
		approvals = []store.Approval{}
	}

	total, err := s.store.CountApprovals(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to count approvals: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":  approvals,
		"limit":  limit,
		"offset": offset,
		"year":   year,
		"total":  total,
	})
}

func (s *Server) handleExportApprovals(w http.ResponseWriter, r *http.Request) {
	year := parseYear(r)

	approvals, err := s.store.AllApprovals(r.Context(), year)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch approvals: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="drug_approvals.csv"`)
	if err := export.WriteCSV(w, approvals); err != nil {
		// Headers are gone already; all we can do is log.
		log.Printf("API: CSV export failed: %v", err)
	}
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	limit, _ := parsePagination(r, 50)

	companies, err := s.store.CountByCompany(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch companies: "+err.Error())
		return
	}
	if companies == nil {
		companies = []store.CompanyCount{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": companies,
		"limit": limit,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	total, err := s.store.CountApprovals(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to count approvals: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"approvals_stored": total,
		"runtime":          observability.Snapshot(),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	count, err := s.ingestion.RefreshOnce(r.Context())
	if err != nil {
		if errors.Is(err, core.ErrRefreshRunning) {
			respondError(w, http.StatusConflict, "Refresh already running")
			return
		}
		respondError(w, http.StatusInternalServerError, "Refresh failed: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ingested": count,
	})
}

func parsePagination(r *http.Request, defaultLimit int) (int, int) {
	q := r.URL.Query()
	limit := defaultLimit
	offset := 0

	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	if v := q.Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// parseYear returns the year filter, zero meaning all years.
func parseYear(r *http.Request) int {
	v := r.URL.Query().Get("year")
	if v == "" {
		return 0
	}
	year, err := strconv.Atoi(v)
	if err != nil || year < 0 {
		return 0
	}
	return year
}
