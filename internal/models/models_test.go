package models

import "testing"

func TestSubmissionStatusCodes(t *testing.T) {
	if SubmissionPending != 0 {
		t.Fatalf("SubmissionPending = %d", SubmissionPending)
	}
	if SubmissionApproved != 1 {
		t.Fatalf("SubmissionApproved = %d", SubmissionApproved)
	}
	if SubmissionRejected != 2 {
		t.Fatalf("SubmissionRejected = %d", SubmissionRejected)
	}
	if SubmissionNeedsRedo != 3 {
		t.Fatalf("SubmissionNeedsRedo = %d", SubmissionNeedsRedo)
	}
}

func TestSubmissionStatusTerminal(t *testing.T) {
	if SubmissionPending.Terminal() {
		t.Fatalf("pending must not be terminal")
	}
	for _, s := range []SubmissionStatus{SubmissionApproved, SubmissionRejected, SubmissionNeedsRedo} {
		if !s.Terminal() {
			t.Fatalf("%s must be terminal", s)
		}
	}
	if SubmissionStatus(7).Valid() {
		t.Fatalf("7 must not be a valid status")
	}
}

func TestDecisionStatus(t *testing.T) {
	cases := map[Decision]SubmissionStatus{
		DecisionApprove: SubmissionApproved,
		DecisionReject:  SubmissionRejected,
		DecisionRedo:    SubmissionNeedsRedo,
	}
	for d, want := range cases {
		got, ok := d.Status()
		if !ok || got != want {
			t.Fatalf("%s.Status() = %s, %v", d, got, ok)
		}
	}
	if _, ok := Decision("maybe").Status(); ok {
		t.Fatalf("unknown decision must not map")
	}
}

func TestUserZeroValues(t *testing.T) {
	var u User
	if u.Approved || u.Finished || u.CurrentTask != 0 {
		t.Fatalf("expected unapproved user without a task by default")
	}
}
