// Package admin serves the operator API: run a sweep on demand, inspect
// stored titles, sweep history and audit events, manage title-to-group mappings, groups
// and credential owners.
package admin

import (
	"context"

	"github.com/EVE-University/unistudent/internal/app/store/audit"
	titlesync "github.com/EVE-University/unistudent/internal/app/titlesync"
	"github.com/EVE-University/unistudent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Sweeper runs one sweep synchronously and is told when a corporation's
// mapping changes so its next member sync starts from a full payload.
type Sweeper interface {
	Sweep(ctx context.Context) (titlesync.Report, error)
	MappingChanged(corporationID int64)
}

// TitleLister reads a corporation's stored titles.
type TitleLister interface {
	ListByCorporation(ctx context.Context, corporationID int64) ([]models.Title, error)
}

// MappingStore manages title-to-group mappings.
type MappingStore interface {
	List(ctx context.Context) ([]models.SelectedTitle, error)
	Set(ctx context.Context, corporationID, titleID int64, groupID primitive.ObjectID) (models.SelectedTitle, error)
	Delete(ctx context.Context, corporationID int64) (int64, error)
}

// GroupStore creates and lists local groups.
type GroupStore interface {
	Create(ctx context.Context, g models.Group) (models.Group, error)
	List(ctx context.Context) ([]models.Group, error)
}

// RunLister reads recent sweep summaries.
type RunLister interface {
	Latest(ctx context.Context, limit int64) ([]models.SyncRun, error)
}

// OwnerStore enrolls credential owners.
type OwnerStore interface {
	Ensure(ctx context.Context, userID primitive.ObjectID) (models.Owner, error)
}

// UserGetter loads a user; mongo.ErrNoDocuments when missing.
type UserGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Auditor records admin actions. *auditlog.Logger satisfies it.
type Auditor interface {
	MappingSet(ctx context.Context, corporationID, titleID int64, groupID primitive.ObjectID)
	MappingDeleted(ctx context.Context, corporationID int64)
	OwnerEnrolled(ctx context.Context, userID primitive.ObjectID)
}

// EventReader queries stored audit events.
type EventReader interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
}

// Deps bundles the collaborators of the admin Handler.
type Deps struct {
	Sweeper  Sweeper
	Titles   TitleLister
	Mappings MappingStore
	Groups   GroupStore
	Runs     RunLister
	Owners   OwnerStore
	Users    UserGetter
	Audit    Auditor
	Events   EventReader
}

// Handler serves /admin.
type Handler struct {
	Deps
	Log *zap.Logger
}

// NewHandler constructs an admin Handler.
func NewHandler(deps Deps, logger *zap.Logger) *Handler {
	return &Handler{Deps: deps, Log: logger}
}
