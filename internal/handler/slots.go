package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coach-scheduler/internal/model"
	"github.com/iliyamo/coach-scheduler/internal/scheduling"
)

const (
	defaultSlotWindow = 14 * 24 * time.Hour
	maxSlotWindow     = 90 * 24 * time.Hour
)

// SlotFinder lists a coach's open slots.
type SlotFinder interface {
	FindAvailable(ctx context.Context, coachID uint64, from, to time.Time) ([]model.TimeSlot, error)
}

// SlotHandler serves coach availability.
type SlotHandler struct {
	Slots SlotFinder
	Now   func() time.Time
}

// NewSlotHandler returns a SlotHandler backed by slots.
func NewSlotHandler(slots SlotFinder) *SlotHandler {
	if slots == nil {
		panic("nil slot finder passed to NewSlotHandler")
	}
	return &SlotHandler{Slots: slots, Now: time.Now}
}

// parseWhen accepts RFC3339 timestamps or plain YYYY-MM-DD dates (UTC).
// Fractional seconds are dropped to match the DATETIME columns.
func parseWhen(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Truncate(time.Second), true
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ListAvailable handles GET /v1/coaches/:coach_id/slots.  The optional
// from and to query parameters bound the start time; the default window is
// the next two weeks.
func (h *SlotHandler) ListAvailable(c echo.Context) error {
	coachID, valid := paramID(c, "coach_id")
	if !valid {
		return bad(c, "invalid coach id")
	}
	from := h.Now().UTC()
	if v := c.QueryParam("from"); v != "" {
		t, valid := parseWhen(v)
		if !valid {
			return bad(c, "from must be RFC3339 or YYYY-MM-DD")
		}
		from = t
	}
	to := from.Add(defaultSlotWindow)
	if v := c.QueryParam("to"); v != "" {
		t, valid := parseWhen(v)
		if !valid {
			return bad(c, "to must be RFC3339 or YYYY-MM-DD")
		}
		to = t
	}
	if !to.After(from) || to.Sub(from) > maxSlotWindow {
		return bad(c, "to must be after from and within 90 days")
	}

	slots, err := h.Slots.FindAvailable(c.Request().Context(), coachID, from, to)
	if err != nil {
		return fail(c, scheduling.ErrStorageFailure)
	}
	return ok(c, http.StatusOK, "ok", echo.Map{
		"coach_id": coachID,
		"from":     from.Format(time.RFC3339),
		"to":       to.Format(time.RFC3339),
		"slots":    slots,
	})
}
