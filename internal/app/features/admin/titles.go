package admin

import (
	"context"
	"net/http"

	"github.com/EVE-University/unistudent/internal/app/system/timeouts"
	"github.com/EVE-University/unistudent/internal/domain/models"
	"go.uber.org/zap"
)

// ServeTitles handles GET /admin/titles/{corporationID}.
func (h *Handler) ServeTitles(w http.ResponseWriter, r *http.Request) {
	corpID, err := corporationParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	titles, err := h.Titles.ListByCorporation(ctx, corpID)
	if err != nil {
		h.Log.Error("admin: list titles failed", zap.Int64("corporation_id", corpID), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load titles")
		return
	}
	if titles == nil {
		titles = []models.Title{}
	}
	h.writeJSON(w, http.StatusOK, titles)
}
