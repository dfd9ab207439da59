package admin

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/EVE-University/unistudent/internal/app/store/audit"
	"github.com/EVE-University/unistudent/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// ServeAudit handles GET /admin/audit, newest events first.
//
// Filters: corporation_id, user_id, category, event_type,
// since (YYYY-MM-DD, UTC) and limit.
func (h *Handler) ServeAudit(w http.ResponseWriter, r *http.Request) {
	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(query.Get(r, "category")),
		EventType: strings.TrimSpace(query.Get(r, "event_type")),
		Limit:     defaultAuditLimit,
	}

	if raw := query.Get(r, "corporation_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.writeError(w, http.StatusBadRequest, "corporation_id must be a positive integer")
			return
		}
		filter.CorporationID = id
	}
	if raw := query.Get(r, "user_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "user_id must be a valid id")
			return
		}
		filter.UserID = &id
	}
	if raw := query.Get(r, "since"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "since must be a date (YYYY-MM-DD)")
			return
		}
		filter.StartTime = &t
	}
	if raw := query.Get(r, "limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = min(n, maxAuditLimit)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit event list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.Log.Error("admin: query audit events failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load audit events")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	h.writeJSON(w, http.StatusOK, events)
}
