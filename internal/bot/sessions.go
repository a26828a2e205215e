package bot

import (
	"sync"

	"github.com/akyairhashvil/marathon/internal/models"
)

// pendingReview is a review button press waiting for the admin's feedback text.
type pendingReview struct {
	submissionID int64
	decision     models.Decision
}

type reviewSessions struct {
	mu      sync.Mutex
	pending map[string]pendingReview
}

func newReviewSessions() *reviewSessions {
	return &reviewSessions{pending: make(map[string]pendingReview)}
}

func (s *reviewSessions) start(handle string, p pendingReview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[handle] = p
}

// take returns and clears the admin's pending review.
func (s *reviewSessions) take(handle string) (pendingReview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[handle]
	delete(s.pending, handle)
	return p, ok
}

func (s *reviewSessions) cancel(handle string) bool {
	_, ok := s.take(handle)
	return ok
}
