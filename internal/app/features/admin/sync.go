package admin

import (
	"errors"
	"net/http"

	titlesync "github.com/EVE-University/unistudent/internal/app/titlesync"
	"github.com/EVE-University/unistudent/internal/domain/models"
	"go.uber.org/zap"
)

type syncResponse struct {
	models.SyncRun
	Canceled int `json:"canceled"`
}

// ServeSync handles POST /admin/sync: run one sweep and return its report.
func (h *Handler) ServeSync(w http.ResponseWriter, r *http.Request) {
	report, err := h.Sweeper.Sweep(r.Context())
	switch {
	case errors.Is(err, titlesync.ErrSweepInProgress):
		h.writeError(w, http.StatusConflict, "a sweep is already running")
		return
	case err != nil:
		h.Log.Error("admin: sweep failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "sweep failed")
		return
	}

	h.Log.Info("admin: sweep finished",
		zap.String("run_id", report.RunID),
		zap.Int("corporations", len(report.Outcomes)),
		zap.Int("canceled", report.Canceled))
	h.writeJSON(w, http.StatusOK, syncResponse{SyncRun: report.Run(), Canceled: report.Canceled})
}
