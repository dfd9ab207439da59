package admin

import (
	"context"
	"errors"
	"net/http"

	"github.com/EVE-University/unistudent/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type enrollOwnerRequest struct {
	UserID string `json:"user_id"`
}

// HandleEnrollOwner handles POST /admin/owners with {"user_id": "<hex>"}.
// Enrolling an existing owner returns the stored record unchanged.
func (h *Handler) HandleEnrollOwner(w http.ResponseWriter, r *http.Request) {
	var req enrollOwnerRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "user_id must be a valid id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("admin: load user failed", zap.String("user_id", userID.Hex()), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	owner, err := h.Owners.Ensure(ctx, userID)
	if err != nil {
		h.Log.Error("admin: enroll owner failed", zap.String("user_id", userID.Hex()), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to enroll owner")
		return
	}

	h.Audit.OwnerEnrolled(ctx, userID)
	h.writeJSON(w, http.StatusOK, owner)
}
