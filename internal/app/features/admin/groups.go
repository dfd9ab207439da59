package admin

import (
	"context"
	"errors"
	"net/http"

	groupstore "github.com/EVE-University/unistudent/internal/app/store/groups"
	"github.com/EVE-University/unistudent/internal/app/system/htmlsanitize"
	"github.com/EVE-University/unistudent/internal/app/system/timeouts"
	"github.com/EVE-University/unistudent/internal/domain/models"
	"go.uber.org/zap"
)

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ServeGroups handles GET /admin/groups.
func (h *Handler) ServeGroups(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	groups, err := h.Groups.List(ctx)
	if err != nil {
		h.Log.Error("admin: list groups failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load groups")
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	h.writeJSON(w, http.StatusOK, groups)
}

// HandleCreateGroup handles POST /admin/groups with {"name": "..."}.
func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := htmlsanitize.StripTags(req.Name)
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.Groups.Create(ctx, models.Group{
		Name:        name,
		Description: htmlsanitize.StripTags(req.Description),
	})
	switch {
	case errors.Is(err, groupstore.ErrDuplicateGroupName):
		h.writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.Log.Error("admin: create group failed", zap.String("name", name), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to create group")
		return
	}

	h.writeJSON(w, http.StatusCreated, g)
}
