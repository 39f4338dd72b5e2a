package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/iliyamo/coach-scheduler/internal/model"
)

type stubFinder struct {
	coachID  uint64
	from, to time.Time
	err      error
}

func (s *stubFinder) FindAvailable(_ context.Context, coachID uint64, from, to time.Time) ([]model.TimeSlot, error) {
	s.coachID, s.from, s.to = coachID, from, to
	return []model.TimeSlot{{ID: 1, CoachID: coachID, StartTime: from, Status: model.SlotAvailable}}, s.err
}

func TestListAvailableDefaultsWindow(t *testing.T) {
	f := &stubFinder{}
	h := NewSlotHandler(f)
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	h.Now = func() time.Time { return now }

	rec, env := call(t, h.ListAvailable, http.MethodGet, "/v1/coaches/7/slots", "", nil, map[string]string{"coach_id": "7"})
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	if f.coachID != 7 || !f.from.Equal(now) || !f.to.Equal(now.Add(14*24*time.Hour)) {
		t.Fatalf("unexpected window %d %s %s", f.coachID, f.from, f.to)
	}
}

func TestListAvailableParsesRange(t *testing.T) {
	f := &stubFinder{}
	h := NewSlotHandler(f)
	rec, _ := call(t, h.ListAvailable, http.MethodGet, "/v1/coaches/7/slots?from=2024-06-01&to=2024-06-02T00:00:00Z", "", nil, map[string]string{"coach_id": "7"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !f.from.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) || !f.to.Equal(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window %s %s", f.from, f.to)
	}
}

func TestListAvailableRejectsBadInput(t *testing.T) {
	h := NewSlotHandler(&stubFinder{})
	for _, path := range []string{
		"/v1/coaches/7/slots?from=yesterday",
		"/v1/coaches/7/slots?from=2024-06-02&to=2024-06-01",
		"/v1/coaches/7/slots?from=2024-01-01&to=2024-12-31",
	} {
		rec, _ := call(t, h.ListAvailable, http.MethodGet, path, "", nil, map[string]string{"coach_id": "7"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, rec.Code)
		}
	}
	rec, _ := call(t, h.ListAvailable, http.MethodGet, "/v1/coaches/x/slots", "", nil, map[string]string{"coach_id": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad coach id, got %d", rec.Code)
	}
}

func TestListAvailableHidesStorageErrors(t *testing.T) {
	h := NewSlotHandler(&stubFinder{err: errors.New("Error 2006: MySQL server has gone away")})
	rec, env := call(t, h.ListAvailable, http.MethodGet, "/v1/coaches/7/slots", "", nil, map[string]string{"coach_id": "7"})
	if rec.Code != http.StatusInternalServerError || env.Success {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
