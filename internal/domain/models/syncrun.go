// internal/domain/models/syncrun.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SyncRun is the persisted summary of one sweep.
type SyncRun struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	RunID        string               `bson:"run_id" json:"run_id"`
	StartedAt    time.Time            `bson:"started_at" json:"started_at"`
	FinishedAt   time.Time            `bson:"finished_at" json:"finished_at"`
	Owners       int                  `bson:"owners" json:"owners"`
	Unresolved   int                  `bson:"unresolved" json:"unresolved"`
	Corporations []CorporationOutcome `bson:"corporations" json:"corporations"`
}

// CorporationOutcome records what one corporation pass achieved.
// MembersSynced is only meaningful when MappingConfigured is true.
type CorporationOutcome struct {
	CorporationID     int64  `bson:"corporation_id" json:"corporation_id"`
	Candidates        int    `bson:"candidates" json:"candidates"`
	TitlesSynced      bool   `bson:"titles_synced" json:"titles_synced"`
	MappingConfigured bool   `bson:"mapping_configured" json:"mapping_configured"`
	MembersSynced     bool   `bson:"members_synced" json:"members_synced"`
	Added             int    `bson:"added" json:"added"`
	Removed           int    `bson:"removed" json:"removed"`
	Error             string `bson:"error,omitempty" json:"error,omitempty"`
}
