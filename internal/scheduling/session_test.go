package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/coach-scheduler/internal/model"
)

func TestGetForPartyAccessControl(t *testing.T) {
	f := newFixture(baseNow)
	sess, _ := f.bookAt(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for _, actor := range []uint64{learnerID, coachUserID} {
		if _, err := f.sessions.GetForParty(ctx, sess.ID, actor); err != nil {
			t.Fatalf("party %d must see the session: %v", actor, err)
		}
	}
	for _, actor := range []uint64{strangerID, learner2ID, coachID, 0} {
		if _, err := f.sessions.GetForParty(ctx, sess.ID, actor); !errors.Is(err, ErrForbidden) {
			t.Fatalf("actor %d: expected ErrForbidden, got %v", actor, err)
		}
	}
	if _, err := f.sessions.GetForParty(ctx, 12345, learnerID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetStatusRejectsEarlyCompletion(t *testing.T) {
	f := newFixture(baseNow)
	sess, _ := f.bookAt(t, baseNow.Add(2*time.Hour))

	_, err := f.sessions.SetStatus(context.Background(), sess.ID, coachUserID, model.SessionCompleted)
	if !errors.Is(err, ErrSessionNotYetElapsed) {
		t.Fatalf("expected ErrSessionNotYetElapsed, got %v", err)
	}
	if got := f.db.session(sess.ID).Status; got != model.SessionScheduled {
		t.Fatalf("session must remain scheduled, got %s", got)
	}

	f.now = baseNow.Add(2 * time.Hour)
	got, err := f.sessions.SetStatus(context.Background(), sess.ID, coachUserID, model.SessionCompleted)
	if err != nil {
		t.Fatalf("completion at scheduled time: %v", err)
	}
	if got.Status != model.SessionCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if len(f.rec.to(learnerID, CategorySessionCompleted)) != 1 {
		t.Fatalf("expected the learner to be told about completion")
	}
}

func TestTerminalStatusesAreFinal(t *testing.T) {
	ctx := context.Background()
	for _, terminal := range []model.SessionStatus{model.SessionCompleted, model.SessionCancelled} {
		f := newFixture(baseNow)
		sess, _ := f.bookAt(t, baseNow.Add(time.Hour))
		f.now = baseNow.Add(3 * time.Hour)

		if _, err := f.sessions.SetStatus(ctx, sess.ID, learnerID, terminal); err != nil {
			t.Fatalf("first %s: %v", terminal, err)
		}
		for _, next := range []model.SessionStatus{model.SessionCompleted, model.SessionCancelled, model.SessionScheduled} {
			if _, err := f.sessions.SetStatus(ctx, sess.ID, learnerID, next); !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("%s -> %s: expected ErrInvalidTransition, got %v", terminal, next, err)
			}
		}
		if got := f.db.session(sess.ID).Status; got != terminal {
			t.Fatalf("status changed after terminal: %s", got)
		}
	}
}

func TestSetStatusByStrangerIsForbidden(t *testing.T) {
	f := newFixture(baseNow)
	sess, _ := f.bookAt(t, baseNow.Add(time.Hour))

	_, err := f.sessions.SetStatus(context.Background(), sess.ID, strangerID, model.SessionCancelled)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture(baseNow)
	sess, slot := f.bookAt(t, baseNow.Add(24*time.Hour))
	f.rec.invalidated = nil

	if _, err := f.sessions.SetStatus(context.Background(), sess.ID, learnerID, model.SessionCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := f.db.slot(slot.ID).Status; got != model.SlotAvailable {
		t.Fatalf("expected slot freed on cancel, got %s", got)
	}
	if len(f.rec.to(coachUserID, CategorySessionCancelled)) != 1 {
		t.Fatalf("expected the coach to be told about the cancellation")
	}
	if len(f.rec.invalidated) != 1 {
		t.Fatalf("expected availability invalidated after cancel")
	}
}

func TestSetStatusUnknownStatus(t *testing.T) {
	f := newFixture(baseNow)
	if _, err := f.sessions.SetStatus(context.Background(), 1, learnerID, "archived"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCompleteWithRatingUpsertsSingleReview(t *testing.T) {
	f := newFixture(baseNow)
	sess, _ := f.bookAt(t, baseNow.Add(time.Hour))
	f.now = baseNow.Add(2 * time.Hour)
	ctx := context.Background()

	res, err := f.sessions.CompleteWithRating(ctx, CompleteInput{SessionID: sess.ID, ActorID: learnerID, Rating: 5, Comment: "Great session"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res.Session.Status != model.SessionCompleted || res.Review == nil || res.Review.Rating != 5 {
		t.Fatalf("unexpected result %+v", res)
	}
	firstID := res.Review.ID

	res, err = f.sessions.CompleteWithRating(ctx, CompleteInput{SessionID: sess.ID, ActorID: learnerID, Rating: 4, Comment: "Good"})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if res.Review.ID != firstID {
		t.Fatalf("resubmitting must update the existing review")
	}
	if len(f.db.reviews) != 1 {
		t.Fatalf("expected one review, got %d", len(f.db.reviews))
	}
	rv := f.db.reviews[[2]uint64{sess.ID, learnerID}]
	if rv.Rating != 4 || rv.Comment != "Good" || rv.CoachID != coachID {
		t.Fatalf("unexpected stored review %+v", rv)
	}
	if len(f.rec.to(coachUserID, CategorySessionCompleted)) != 1 {
		t.Fatalf("completion must be announced once")
	}
}

func TestCompleteWithRatingByCoachWritesNoReview(t *testing.T) {
	f := newFixture(baseNow)
	sess, _ := f.bookAt(t, baseNow.Add(time.Hour))
	f.now = baseNow.Add(2 * time.Hour)

	res, err := f.sessions.CompleteWithRating(context.Background(), CompleteInput{SessionID: sess.ID, ActorID: coachUserID, Rating: 3})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res.Review != nil || len(f.db.reviews) != 0 {
		t.Fatalf("coach completion must not write a review")
	}
}

func TestCompleteWithRatingValidation(t *testing.T) {
	f := newFixture(baseNow)
	sess, _ := f.bookAt(t, baseNow.Add(time.Hour))
	ctx := context.Background()

	for _, r := range []int{-1, 6} {
		if _, err := f.sessions.CompleteWithRating(ctx, CompleteInput{SessionID: sess.ID, ActorID: learnerID, Rating: r}); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("rating %d: expected ErrInvalidInput, got %v", r, err)
		}
	}
	if _, err := f.sessions.CompleteWithRating(ctx, CompleteInput{SessionID: sess.ID, ActorID: learnerID, Rating: 5}); !errors.Is(err, ErrSessionNotYetElapsed) {
		t.Fatalf("expected ErrSessionNotYetElapsed, got %v", err)
	}
	if len(f.db.reviews) != 0 {
		t.Fatalf("a rejected completion must not leave a review")
	}
}

func TestCompleteRollsBackWhenReviewFails(t *testing.T) {
	f := newFixture(baseNow)
	sess, _ := f.bookAt(t, baseNow.Add(time.Hour))
	f.now = baseNow.Add(2 * time.Hour)
	f.db.fail["UpsertTx"] = errBoom

	_, err := f.sessions.CompleteWithRating(context.Background(), CompleteInput{SessionID: sess.ID, ActorID: learnerID, Rating: 5})
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
	if got := f.db.session(sess.ID).Status; got != model.SessionScheduled {
		t.Fatalf("status must roll back with the review, got %s", got)
	}
}

func TestListForUser(t *testing.T) {
	f := newFixture(baseNow)
	a, _ := f.bookAt(t, baseNow.Add(48*time.Hour))
	b, _ := f.bookAt(t, baseNow.Add(24*time.Hour))
	ctx := context.Background()

	got, err := f.sessions.ListForUser(ctx, coachUserID, "")
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 2 || got[0].ID != b.ID || got[1].ID != a.ID {
		t.Fatalf("expected sessions soonest first, got %+v", got)
	}
	if got, _ := f.sessions.ListForUser(ctx, strangerID, ""); len(got) != 0 {
		t.Fatalf("stranger must see no sessions")
	}
	if _, err := f.sessions.ListForUser(ctx, learnerID, "bogus"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
