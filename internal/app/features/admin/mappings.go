package admin

import (
	"context"
	"errors"
	"net/http"

	selectedtitlestore "github.com/EVE-University/unistudent/internal/app/store/selectedtitles"
	"github.com/EVE-University/unistudent/internal/app/system/timeouts"
	"github.com/EVE-University/unistudent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type setMappingRequest struct {
	TitleID int64  `json:"title_id"`
	GroupID string `json:"group_id"`
}

// ServeMappings handles GET /admin/mappings.
func (h *Handler) ServeMappings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	mappings, err := h.Mappings.List(ctx)
	if err != nil {
		h.Log.Error("admin: list mappings failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load mappings")
		return
	}
	if mappings == nil {
		mappings = []models.SelectedTitle{}
	}
	h.writeJSON(w, http.StatusOK, mappings)
}

// HandleSetMapping handles PUT /admin/mappings/{corporationID} with
// {"title_id": 4, "group_id": "<hex>"}. The title must already be stored for
// the corporation; the next sweep reconciles the group.
func (h *Handler) HandleSetMapping(w http.ResponseWriter, r *http.Request) {
	corpID, err := corporationParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req setMappingRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TitleID <= 0 {
		h.writeError(w, http.StatusBadRequest, "title_id is required")
		return
	}
	groupID, err := primitive.ObjectIDFromHex(req.GroupID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "group_id must be a valid id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	st, err := h.Mappings.Set(ctx, corpID, req.TitleID, groupID)
	switch {
	case errors.Is(err, selectedtitlestore.ErrTitleNotFound), errors.Is(err, selectedtitlestore.ErrGroupNotFound):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, selectedtitlestore.ErrGroupAlreadyMapped):
		h.writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.Log.Error("admin: set mapping failed", zap.Int64("corporation_id", corpID), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to save mapping")
		return
	}

	h.Sweeper.MappingChanged(corpID)
	h.Audit.MappingSet(ctx, corpID, req.TitleID, groupID)
	h.writeJSON(w, http.StatusOK, st)
}

// HandleDeleteMapping handles DELETE /admin/mappings/{corporationID}.
// Group membership is left as it is.
func (h *Handler) HandleDeleteMapping(w http.ResponseWriter, r *http.Request) {
	corpID, err := corporationParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Mappings.Delete(ctx, corpID)
	if err != nil {
		h.Log.Error("admin: delete mapping failed", zap.Int64("corporation_id", corpID), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to delete mapping")
		return
	}
	if n == 0 {
		h.writeError(w, http.StatusNotFound, "no mapping for this corporation")
		return
	}

	h.Sweeper.MappingChanged(corpID)
	h.Audit.MappingDeleted(ctx, corpID)
	w.WriteHeader(http.StatusNoContent)
}
