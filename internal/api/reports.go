package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// ReportsHandler handles reporting endpoints.
type ReportsHandler struct {
	DB *sql.DB
}

// Usage handles GET /api/reports/usage.
func (h *ReportsHandler) Usage(w http.ResponseWriter, r *http.Request) {
	stats, err := store.GetUsageStats(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get usage stats")
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

// History handles GET /api/reports/history. An optional limit query
// parameter requests fewer entries; the store clamps everything else to its
// default cap.
func (h *ReportsHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	logs, err := store.RecentActivity(r.Context(), h.DB, limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get activity history")
		return
	}
	if logs == nil {
		logs = []model.ActivityLog{}
	}
	jsonResponse(w, http.StatusOK, logs)
}
