package status

import "time"

// SetClock replaces the handler clock. Tests only.
func (h *Handler) SetClock(now func() time.Time) {
	h.now = now
}
