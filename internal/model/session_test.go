package model

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to SessionStatus
		want     bool
	}{
		{SessionScheduled, SessionCompleted, true},
		{SessionScheduled, SessionCancelled, true},
		{SessionScheduled, SessionScheduled, false},
		{SessionCompleted, SessionCompleted, false},
		{SessionCompleted, SessionCancelled, false},
		{SessionCancelled, SessionScheduled, false},
		{SessionCancelled, SessionCompleted, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	if SessionScheduled.Terminal() || !SessionCompleted.Terminal() || !SessionCancelled.Terminal() {
		t.Fatal("only completed and cancelled are terminal")
	}
}

func TestCanResolve(t *testing.T) {
	if !CanResolve(ReschedulePending, RescheduleApproved) || !CanResolve(ReschedulePending, RescheduleRejected) {
		t.Fatal("pending requests must be resolvable")
	}
	if CanResolve(RescheduleApproved, RescheduleRejected) || CanResolve(ReschedulePending, ReschedulePending) {
		t.Fatal("resolved requests must stay resolved")
	}
}

func TestSessionParties(t *testing.T) {
	s := Session{LearnerID: 1, CoachUserID: 2}
	if !s.IsParty(1) || !s.IsParty(2) || s.IsParty(3) || s.IsParty(0) {
		t.Fatal("unexpected party membership")
	}
	if s.Counterparty(1) != 2 || s.Counterparty(2) != 1 || s.Counterparty(9) != 0 {
		t.Fatal("unexpected counterparty")
	}
}
