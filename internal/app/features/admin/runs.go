package admin

import (
	"context"
	"net/http"
	"strconv"

	"github.com/EVE-University/unistudent/internal/app/system/timeouts"
	"github.com/EVE-University/unistudent/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

// ServeRuns handles GET /admin/runs?limit=N: the most recent sweeps first.
func (h *Handler) ServeRuns(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultRunLimit)
	if raw := query.Get(r, "limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	runs, err := h.Runs.Latest(ctx, limit)
	if err != nil {
		h.Log.Error("admin: list runs failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load runs")
		return
	}
	if runs == nil {
		runs = []models.SyncRun{}
	}
	h.writeJSON(w, http.StatusOK, runs)
}
