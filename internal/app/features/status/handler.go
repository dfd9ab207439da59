package status

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/EVE-University/unistudent/internal/app/system/timeouts"
	"github.com/EVE-University/unistudent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// OwnerLister lists credential owners in registration order.
type OwnerLister interface {
	List(ctx context.Context) ([]models.Owner, error)
}

// UserLookup loads users by ID.
type UserLookup interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
}

// CharacterLookup loads characters by remote ID.
type CharacterLookup interface {
	GetByCharacterIDs(ctx context.Context, ids []int64) ([]models.Character, error)
}

// Handler serves the owner listing.
type Handler struct {
	Owners     OwnerLister
	Users      UserLookup
	Characters CharacterLookup
	Log        *zap.Logger

	now func() time.Time
}

// NewHandler constructs a status Handler.
func NewHandler(owners OwnerLister, users UserLookup, characters CharacterLookup, logger *zap.Logger) *Handler {
	return &Handler{
		Owners:     owners,
		Users:      users,
		Characters: characters,
		Log:        logger,
		now:        time.Now,
	}
}

// ownerRow is one credential owner as shown on the status listing.
type ownerRow struct {
	UserID        string     `json:"user_id"`
	MainCharacter string     `json:"main_character"`
	AgeDays       int        `json:"age_days"`
	LastPull      *time.Time `json:"last_pull"`
	ValidToken    bool       `json:"valid_token"`
}

type statusResponse struct {
	Owners []ownerRow `json:"owners"`
}

// Serve handles GET /status.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.rows(ctx)
	if err != nil {
		h.Log.Error("status: load owners failed", zap.Error(err))
		http.Error(w, "failed to load owners", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(statusResponse{Owners: rows}); err != nil {
		h.Log.Error("status: JSON encode failed", zap.Error(err))
	}
}

func (h *Handler) rows(ctx context.Context) ([]ownerRow, error) {
	owners, err := h.Owners.List(ctx)
	if err != nil {
		return nil, err
	}

	userIDs := make([]primitive.ObjectID, 0, len(owners))
	for _, o := range owners {
		userIDs = append(userIDs, o.UserID)
	}
	users, err := h.Users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	var charIDs []int64
	for _, u := range users {
		if u.MainCharacterID != nil {
			charIDs = append(charIDs, *u.MainCharacterID)
		}
	}
	names := make(map[int64]string, len(charIDs))
	if len(charIDs) > 0 {
		chars, err := h.Characters.GetByCharacterIDs(ctx, charIDs)
		if err != nil {
			return nil, err
		}
		for _, c := range chars {
			names[c.CharacterID] = c.CharacterName
		}
	}

	now := h.now()
	out := make([]ownerRow, 0, len(owners))
	for _, o := range owners {
		row := ownerRow{
			UserID:     o.UserID.Hex(),
			AgeDays:    int(now.Sub(o.CreatedAt) / (24 * time.Hour)),
			LastPull:   o.LastPull,
			ValidToken: o.ValidToken,
		}
		// Main character name, falling back to the username.
		if u, ok := users[o.UserID]; ok {
			row.MainCharacter = u.Username
			if u.MainCharacterID != nil {
				if name, ok := names[*u.MainCharacterID]; ok {
					row.MainCharacter = name
				}
			}
		}
		out = append(out, row)
	}
	return out, nil
}
