package titlesync

import (
	"context"
	"time"

	titlestore "github.com/EVE-University/unistudent/internal/app/store/titles"
	"github.com/EVE-University/unistudent/internal/app/system/esi"
	"github.com/EVE-University/unistudent/internal/app/system/ssotoken"
	"github.com/EVE-University/unistudent/internal/app/system/timeouts"
	"github.com/EVE-University/unistudent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TokenResolver returns a token of the user covering scopes, or an error
// wrapping ssotoken.ErrNoValidToken.
type TokenResolver interface {
	Resolve(ctx context.Context, userID primitive.ObjectID, scopes []string) (ssotoken.Result, error)
}

// Identity resolves users to corporations and characters to users. A false
// ok, or a character missing from the returned map, means unresolved.
type Identity interface {
	PrimaryCorporation(ctx context.Context, userID primitive.ObjectID) (int64, bool, error)
	OwningUsers(ctx context.Context, characterIDs []int64) (map[int64]primitive.ObjectID, error)
}

// OwnerStore holds credential owner records.
type OwnerStore interface {
	List(ctx context.Context) ([]models.Owner, error)
	MarkValid(ctx context.Context, userID primitive.ObjectID, at time.Time) error
	MarkInvalid(ctx context.Context, userID primitive.ObjectID) error
}

// TitleStore replaces a corporation's title set atomically.
type TitleStore interface {
	ReplaceForCorporation(ctx context.Context, corporationID int64, titles []models.Title) (titlestore.ReplaceResult, error)
}

// MappingStore returns the corporation's title mapping, nil when absent.
type MappingStore interface {
	GetByCorporation(ctx context.Context, corporationID int64) (*models.SelectedTitle, error)
}

// GroupMembers reads and changes group membership with set semantics.
type GroupMembers interface {
	MemberIDs(ctx context.Context, groupID primitive.ObjectID) ([]primitive.ObjectID, error)
	AddUsers(ctx context.Context, groupID primitive.ObjectID, userIDs []primitive.ObjectID) (int, error)
	RemoveUsers(ctx context.Context, groupID primitive.ObjectID, userIDs []primitive.ObjectID) (int, error)
}

// RunStore persists sweep summaries.
type RunStore interface {
	Insert(ctx context.Context, run models.SyncRun) error
}

// Auditor records sync events. *auditlog.Logger satisfies it.
type Auditor interface {
	MembershipChanged(ctx context.Context, corporationID int64, groupID primitive.ObjectID, titleID int64, added, removed []primitive.ObjectID)
	CredentialInvalidated(ctx context.Context, corporationID int64, userID primitive.ObjectID, reason string)
	TitlesReplaced(ctx context.Context, corporationID int64, userID primitive.ObjectID, deleted int64, inserted int)
}

// Deps are the collaborators every Engine needs.
type Deps struct {
	Remote   RemoteClient
	Tokens   TokenResolver
	Identity Identity
	Owners   OwnerStore
	Titles   TitleStore
	Mappings MappingStore
	Members  GroupMembers
}

// Engine runs title and membership syncs.
type Engine struct {
	Deps

	runs    RunStore
	audit   Auditor
	metrics *Metrics
	log     *zap.Logger
	workers int
	now     func() time.Time

	// storeTimeout overrides the per-call deadlines taken from the
	// timeouts package when positive.
	storeTimeout time.Duration

	etags    *etagCache
	sweeping chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithRunStore persists a summary of every sweep.
func WithRunStore(runs RunStore) Option {
	return func(e *Engine) {
		e.runs = runs
	}
}

// WithAuditor records membership and credential events.
func WithAuditor(a Auditor) Option {
	return func(e *Engine) {
		e.audit = a
	}
}

// WithMetrics sets the sweep metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithWorkers bounds how many corporations a sweep processes at once.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithClock overrides the time source used for owner timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithStoreTimeout bounds every store and resolver call by d instead of the
// timeouts package values.
func WithStoreTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.storeTimeout = d
	}
}

// New builds an Engine.
func New(deps Deps, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		Deps:     deps,
		log:      logger,
		workers:  1,
		now:      time.Now,
		etags:    newETagCache(),
		sweeping: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var requiredScopes = []string{esi.ScopeReadTitles}

// MappingChanged drops the remembered member titles of the corporation so the
// next member sync reconciles the newly mapped group from a full payload.
func (e *Engine) MappingChanged(corporationID int64) {
	e.etags.forget(resourceMembers, corporationID)
}

// bound derives the context for one store or resolver call. A pass runs
// without its caller's cancellation, so every call carries its own deadline.
func (e *Engine) bound(ctx context.Context, limit func() time.Duration, op string) (context.Context, context.CancelFunc) {
	d := e.storeTimeout
	if d <= 0 {
		d = limit()
	}
	return timeouts.WithTimeout(ctx, d, e.log, op)
}
