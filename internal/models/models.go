package models

import (
	"fmt"
	"time"
)

// SubmissionStatus is the review state of a single submission row.
// The integral values are stored and exchanged across the boundary; never renumber them.
type SubmissionStatus int

const (
	SubmissionPending   SubmissionStatus = 0
	SubmissionApproved  SubmissionStatus = 1
	SubmissionRejected  SubmissionStatus = 2
	SubmissionNeedsRedo SubmissionStatus = 3
)

// Valid reports whether s is one of the known codes.
func (s SubmissionStatus) Valid() bool {
	return s >= SubmissionPending && s <= SubmissionNeedsRedo
}

// Terminal reports whether no further review transition is allowed for the row.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionApproved || s == SubmissionRejected || s == SubmissionNeedsRedo
}

func (s SubmissionStatus) String() string {
	switch s {
	case SubmissionPending:
		return "pending"
	case SubmissionApproved:
		return "approved"
	case SubmissionRejected:
		return "rejected"
	case SubmissionNeedsRedo:
		return "needs_redo"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Decision is an administrator's review verdict.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
	DecisionRedo    Decision = "redo"
)

// Status maps a decision to the terminal status it produces.
func (d Decision) Status() (SubmissionStatus, bool) {
	switch d {
	case DecisionApprove:
		return SubmissionApproved, true
	case DecisionReject:
		return SubmissionRejected, true
	case DecisionRedo:
		return SubmissionNeedsRedo, true
	default:
		return SubmissionPending, false
	}
}

// User is a marathon participant.
type User struct {
	ID          int64
	Handle      string // transport contact handle, opaque to the core
	Username    string
	Approved    bool
	CurrentTask int // day number; 0 means no task assigned
	Finished    bool
	JoinedAt    time.Time
}

// Task is one day of the catalog.
type Task struct {
	ID        int64
	DayNumber int
	Text      string
}

// Submission is one attempt at a task.
type Submission struct {
	ID            int64
	UserID        int64
	TaskID        int64
	VoiceFilePath string
	FeedbackText  string
	Status        SubmissionStatus
	CreatedAt     time.Time
}

// Progress summarizes a user's completion.
type Progress struct {
	Completed  int
	Total      int
	Percentage float64
}

// Dashboard aggregates catalog-wide counts for administrators.
type Dashboard struct {
	Users         int
	ApprovedUsers int
	PendingUsers  int
	Tasks         int
	Submissions   int
	ByStatus      map[SubmissionStatus]int
}
