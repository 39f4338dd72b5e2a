package scheduling

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/coach-scheduler/internal/model"
	"github.com/iliyamo/coach-scheduler/internal/repository"
)

// memDB is an in-memory stand-in for MySQL.  InTx holds a single mutex for
// the whole unit of work, which gives the same serialization a row lock
// would, and restores a snapshot when the unit of work fails.
type memDB struct {
	mu       sync.Mutex
	nextID   uint64
	coaches  map[uint64]uint64 // coach id -> owning user id
	tiers    map[uint64]model.Tier
	slots    map[uint64]model.TimeSlot
	sessions map[uint64]model.Session
	requests map[uint64]model.RescheduleRequest
	reviews  map[[2]uint64]model.Review
	fail     map[string]error
	commits  int
}

func newMemDB() *memDB {
	return &memDB{
		nextID:   100,
		coaches:  map[uint64]uint64{},
		tiers:    map[uint64]model.Tier{},
		slots:    map[uint64]model.TimeSlot{},
		sessions: map[uint64]model.Session{},
		requests: map[uint64]model.RescheduleRequest{},
		reviews:  map[[2]uint64]model.Review{},
		fail:     map[string]error{},
	}
}

type memSnapshot struct {
	nextID   uint64
	slots    map[uint64]model.TimeSlot
	sessions map[uint64]model.Session
	requests map[uint64]model.RescheduleRequest
	reviews  map[[2]uint64]model.Review
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m *memDB) snapshot() memSnapshot {
	return memSnapshot{
		nextID:   m.nextID,
		slots:    copyMap(m.slots),
		sessions: copyMap(m.sessions),
		requests: copyMap(m.requests),
		reviews:  copyMap(m.reviews),
	}
}

func (m *memDB) restore(s memSnapshot) {
	m.nextID = s.nextID
	m.slots = s.slots
	m.sessions = s.sessions
	m.requests = s.requests
	m.reviews = s.reviews
}

func (m *memDB) id() uint64 {
	m.nextID++
	return m.nextID
}

func (m *memDB) check(op string) error {
	return m.fail[op]
}

// InTx implements TxRunner.
func (m *memDB) InTx(_ context.Context, fn func(tx repository.DBTX) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshot()
	if err := fn(nil); err != nil {
		m.restore(snap)
		return err
	}
	m.commits++
	return nil
}

// seeding helpers, called before the services run.

func (m *memDB) addCoach(coachID, userID uint64) {
	m.coaches[coachID] = userID
}

func (m *memDB) addTier(t model.Tier) {
	m.tiers[t.ID] = t
}

func (m *memDB) addSlot(coachID uint64, start time.Time, status model.SlotStatus) model.TimeSlot {
	s := model.TimeSlot{ID: m.id(), CoachID: coachID, StartTime: start.UTC(), EndTime: start.UTC().Add(time.Hour), Status: status}
	m.slots[s.ID] = s
	return s
}

func (m *memDB) slotAt(coachID uint64, start time.Time) []model.TimeSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.TimeSlot
	for _, s := range m.slots {
		if s.CoachID == coachID && s.StartTime.Equal(start) {
			out = append(out, s)
		}
	}
	return out
}

func (m *memDB) session(id uint64) model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

func (m *memDB) request(id uint64) model.RescheduleRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[id]
}

func (m *memDB) slot(id uint64) model.TimeSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[id]
}

func (m *memDB) pendingFor(sessionID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.requests {
		if r.SessionID == sessionID && r.Status == model.ReschedulePending {
			n++
		}
	}
	return n
}

// memSlots implements SlotStore.
type memSlots struct{ *memDB }

func (m memSlots) FindAvailable(_ context.Context, coachID uint64, from, to time.Time) ([]model.TimeSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.TimeSlot{}
	for _, s := range m.slots {
		if s.CoachID == coachID && s.Available() && !s.StartTime.Before(from) && s.StartTime.Before(to) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m memSlots) AvailableAt(_ context.Context, coachID uint64, start time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findAt(coachID, start, model.SlotAvailable) != nil, nil
}

func (m memSlots) findAt(coachID uint64, start time.Time, status model.SlotStatus) *model.TimeSlot {
	var best *model.TimeSlot
	for _, s := range m.slots {
		if s.CoachID == coachID && s.StartTime.Equal(start) && s.Status == status {
			if best == nil || s.ID < best.ID {
				c := s
				best = &c
			}
		}
	}
	return best
}

func (m memSlots) LockAndFetchTx(_ context.Context, _ repository.DBTX, coachID, slotID uint64) (*model.TimeSlot, error) {
	if err := m.check("LockAndFetchTx"); err != nil {
		return nil, err
	}
	s, ok := m.slots[slotID]
	if !ok || s.CoachID != coachID {
		return nil, sql.ErrNoRows
	}
	if !s.Available() {
		return nil, repository.ErrSlotNotAvailable
	}
	return &s, nil
}

func (m memSlots) MarkBookedTx(_ context.Context, _ repository.DBTX, slotID uint64) error {
	if err := m.check("MarkBookedTx"); err != nil {
		return err
	}
	s, ok := m.slots[slotID]
	if !ok || !s.Available() {
		return repository.ErrSlotNotAvailable
	}
	s.Status = model.SlotBooked
	m.slots[slotID] = s
	return nil
}

func (m memSlots) MarkAvailableTx(_ context.Context, _ repository.DBTX, coachID uint64, start time.Time) error {
	if err := m.check("MarkAvailableTx"); err != nil {
		return err
	}
	if s := m.findAt(coachID, start, model.SlotBooked); s != nil {
		s.Status = model.SlotAvailable
		m.slots[s.ID] = *s
	}
	return nil
}

func (m memSlots) EnsureBookedSlotAtTx(_ context.Context, _ repository.DBTX, coachID uint64, start time.Time, d time.Duration) (*model.TimeSlot, error) {
	if err := m.check("EnsureBookedSlotAtTx"); err != nil {
		return nil, err
	}
	if s := m.findAt(coachID, start, model.SlotAvailable); s != nil {
		s.Status = model.SlotBooked
		m.slots[s.ID] = *s
		return s, nil
	}
	if m.findAt(coachID, start, model.SlotBooked) != nil {
		return nil, repository.ErrSlotNotAvailable
	}
	s := model.TimeSlot{ID: m.id(), CoachID: coachID, StartTime: start.UTC(), EndTime: start.UTC().Add(d), Status: model.SlotBooked}
	m.slots[s.ID] = s
	return &s, nil
}

// memSessions implements SessionStore.
type memSessions struct{ *memDB }

func (m memSessions) CreateTx(_ context.Context, _ repository.DBTX, learnerID, coachID, tierID uint64, start time.Time, price uint32) (uint64, error) {
	if err := m.check("CreateTx"); err != nil {
		return 0, err
	}
	s := model.Session{
		ID: m.id(), LearnerID: learnerID, CoachID: coachID, CoachUserID: m.coaches[coachID],
		TierID: tierID, ScheduledTime: start.UTC(), PriceCents: price, Status: model.SessionScheduled,
	}
	m.sessions[s.ID] = s
	return s.ID, nil
}

func (m memSessions) GetTx(_ context.Context, _ repository.DBTX, id uint64, _ bool) (*model.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (m memSessions) Get(ctx context.Context, id uint64) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GetTx(ctx, nil, id, false)
}

func (m memSessions) UpdateStatusTx(_ context.Context, _ repository.DBTX, id uint64, from, to model.SessionStatus) error {
	if err := m.check("UpdateStatusTx"); err != nil {
		return err
	}
	s, ok := m.sessions[id]
	if !ok || s.Status != from {
		return repository.ErrStale
	}
	s.Status = to
	m.sessions[id] = s
	return nil
}

func (m memSessions) RescheduleTx(_ context.Context, _ repository.DBTX, id uint64, t time.Time) error {
	if err := m.check("RescheduleTx"); err != nil {
		return err
	}
	s, ok := m.sessions[id]
	if !ok {
		return repository.ErrStale
	}
	s.ScheduledTime = t.UTC()
	m.sessions[id] = s
	return nil
}

func (m memSessions) ListForUser(_ context.Context, userID uint64, status model.SessionStatus) ([]model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Session{}
	for _, s := range m.sessions {
		if s.IsParty(userID) && (status == "" || s.Status == status) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledTime.Before(out[j].ScheduledTime) })
	return out, nil
}

// memRequests implements RescheduleStore.
type memRequests struct{ *memDB }

func (m memRequests) CreateTx(_ context.Context, _ repository.DBTX, r *model.RescheduleRequest) error {
	if err := m.check("RescheduleCreateTx"); err != nil {
		return err
	}
	for _, existing := range m.requests {
		if existing.SessionID == r.SessionID && existing.Status == model.ReschedulePending {
			return repository.ErrConflict
		}
	}
	r.ID = m.id()
	r.Status = model.ReschedulePending
	m.requests[r.ID] = *r
	return nil
}

func (m memRequests) GetTx(_ context.Context, _ repository.DBTX, id uint64, _ bool) (*model.RescheduleRequest, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (m memRequests) HasPendingTx(_ context.Context, _ repository.DBTX, sessionID uint64) (bool, error) {
	for _, r := range m.requests {
		if r.SessionID == sessionID && r.Status == model.ReschedulePending {
			return true, nil
		}
	}
	return false, nil
}

func (m memRequests) ResolveTx(_ context.Context, _ repository.DBTX, id uint64, status model.RescheduleStatus, at time.Time) error {
	r, ok := m.requests[id]
	if !ok || r.Status != model.ReschedulePending {
		return repository.ErrStale
	}
	r.Status = status
	r.RespondedAt = &at
	m.requests[id] = r
	return nil
}

func (m memRequests) ListBySession(_ context.Context, sessionID uint64) ([]model.RescheduleRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.RescheduleRequest{}
	for _, r := range m.requests {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// memReviews implements ReviewStore.
type memReviews struct{ *memDB }

func (m memReviews) UpsertTx(_ context.Context, _ repository.DBTX, rv *model.Review) error {
	if err := m.check("UpsertTx"); err != nil {
		return err
	}
	key := [2]uint64{rv.SessionID, rv.RaterID}
	if existing, ok := m.reviews[key]; ok {
		rv.ID = existing.ID
	} else {
		rv.ID = m.id()
	}
	m.reviews[key] = *rv
	return nil
}

// memTiers implements TierStore.
type memTiers struct{ *memDB }

func (m memTiers) GetForCoachTx(_ context.Context, _ repository.DBTX, tierID, coachID uint64) (*model.Tier, error) {
	t, ok := m.tiers[tierID]
	if !ok || t.CoachID != coachID || !t.IsActive {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (m memTiers) CoachOwnerTx(_ context.Context, _ repository.DBTX, coachID uint64) (uint64, error) {
	u, ok := m.coaches[coachID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	return u, nil
}

// recorder captures notifications and invalidations.
type recorder struct {
	mu            sync.Mutex
	sent          []Notification
	invalidated   []uint64
	notifyErr     error
	invalidateErr error
}

func (r *recorder) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.notifyErr != nil {
		return r.notifyErr
	}
	r.sent = append(r.sent, n)
	return nil
}

func (r *recorder) InvalidateCoach(_ context.Context, coachID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, coachID)
	return r.invalidateErr
}

func (r *recorder) to(userID uint64, c Category) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.sent {
		if n.UserID == userID && n.Category == c {
			out = append(out, n)
		}
	}
	return out
}

var errBoom = errors.New("boom")

// fixture wires all three services to one memDB.
type fixture struct {
	db         *memDB
	rec        *recorder
	now        time.Time
	booking    *BookingService
	sessions   *SessionService
	reschedule *RescheduleCoordinator
}

const (
	learnerID   = uint64(1)
	learner2ID  = uint64(3)
	coachUserID = uint64(2)
	strangerID  = uint64(9)
	coachID     = uint64(7)
	tierID      = uint64(11)
)

func newFixture(now time.Time) *fixture {
	db := newMemDB()
	db.addCoach(coachID, coachUserID)
	db.addTier(model.Tier{ID: tierID, CoachID: coachID, Name: "Intro", DurationMinutes: 60, PriceCents: 4500, IsActive: true})
	rec := &recorder{}
	f := &fixture{db: db, rec: rec, now: now}
	d := Deps{
		Tx:          db,
		Slots:       memSlots{db},
		Sessions:    memSessions{db},
		Reschedules: memRequests{db},
		Reviews:     memReviews{db},
		Tiers:       memTiers{db},
		Notifier:    rec,
		Invalidator: rec,
		Now:         func() time.Time { return f.now },
	}
	f.booking = NewBookingService(d)
	f.sessions = NewSessionService(d)
	f.reschedule = NewRescheduleCoordinator(d)
	return f
}

// bookAt seeds an available slot at start and books it for learnerID.
func (f *fixture) bookAt(t interface {
	Helper()
	Fatalf(string, ...any)
}, start time.Time) (*model.Session, model.TimeSlot) {
	t.Helper()
	slot := f.db.addSlot(coachID, start, model.SlotAvailable)
	sess, err := f.booking.Book(context.Background(), BookInput{LearnerID: learnerID, CoachID: coachID, TierID: tierID, SlotID: slot.ID})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	return sess, slot
}
