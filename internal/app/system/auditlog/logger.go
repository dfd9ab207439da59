// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"strconv"

	"github.com/EVE-University/unistudent/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Sync controls logging for events produced by the sweep (membership
	// changes, credential invalidation, title replacement).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Sync string
	// Admin controls logging for mapping and owner administration.
	Admin string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) setting(category string) string {
	switch category {
	case audit.CategorySync:
		return l.config.Sync
	case audit.CategoryAdmin:
		return l.config.Admin
	}
	return "all"
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.CorporationID != 0 {
		fields = append(fields, zap.Int64("corporation_id", event.CorporationID))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.GroupID != nil {
		fields = append(fields, zap.String("group_id", event.GroupID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records audit events based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, events ...audit.Event) {
	if l == nil || len(events) == 0 {
		return
	}

	var toStore []audit.Event
	for _, event := range events {
		setting := l.setting(event.Category)
		if setting == "off" {
			continue
		}
		if setting == "all" || setting == "log" {
			l.logToZap(event)
		}
		if setting == "all" || setting == "db" {
			toStore = append(toStore, event)
		}
	}

	if err := l.store.LogMany(ctx, toStore); err != nil {
		l.zapLog.Error("failed to store audit events",
			zap.Error(err),
			zap.Int("count", len(toStore)),
		)
	}
}

// --- Sync Events ---

// MembershipChanged logs one event per user added to or removed from a
// group by the sweep.
func (l *Logger) MembershipChanged(ctx context.Context, corporationID int64, groupID primitive.ObjectID, titleID int64, added, removed []primitive.ObjectID) {
	if l == nil {
		return
	}
	details := map[string]string{"title_id": strconv.FormatInt(titleID, 10)}
	events := make([]audit.Event, 0, len(added)+len(removed))
	for i := range added {
		events = append(events, audit.Event{
			Category:      audit.CategorySync,
			EventType:     audit.EventMemberAddedBySync,
			CorporationID: corporationID,
			UserID:        &added[i],
			GroupID:       &groupID,
			Success:       true,
			Details:       details,
		})
	}
	for i := range removed {
		events = append(events, audit.Event{
			Category:      audit.CategorySync,
			EventType:     audit.EventMemberRemovedBySync,
			CorporationID: corporationID,
			UserID:        &removed[i],
			GroupID:       &groupID,
			Success:       true,
			Details:       details,
		})
	}
	l.Log(ctx, events...)
}

// CredentialInvalidated logs that a user's credential was marked unusable.
func (l *Logger) CredentialInvalidated(ctx context.Context, corporationID int64, userID primitive.ObjectID, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategorySync,
		EventType:     audit.EventCredentialInvalidated,
		CorporationID: corporationID,
		UserID:        &userID,
		Success:       false,
		FailureReason: reason,
	})
}

// TitlesReplaced logs a successful title replacement for a corporation.
func (l *Logger) TitlesReplaced(ctx context.Context, corporationID int64, userID primitive.ObjectID, deleted int64, inserted int) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategorySync,
		EventType:     audit.EventTitlesReplaced,
		CorporationID: corporationID,
		UserID:        &userID,
		Success:       true,
		Details: map[string]string{
			"deleted":  strconv.FormatInt(deleted, 10),
			"inserted": strconv.Itoa(inserted),
		},
	})
}

// --- Admin Events ---

// MappingSet logs that a corporation's title was mapped to a group.
func (l *Logger) MappingSet(ctx context.Context, corporationID, titleID int64, groupID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventMappingSet,
		CorporationID: corporationID,
		GroupID:       &groupID,
		Success:       true,
		Details:       map[string]string{"title_id": strconv.FormatInt(titleID, 10)},
	})
}

// MappingDeleted logs that a corporation's mapping was removed.
func (l *Logger) MappingDeleted(ctx context.Context, corporationID int64) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventMappingDeleted,
		CorporationID: corporationID,
		Success:       true,
	})
}

// OwnerEnrolled logs that a user was registered as a credential owner.
func (l *Logger) OwnerEnrolled(ctx context.Context, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventOwnerEnrolled,
		UserID:    &userID,
		Success:   true,
	})
}
