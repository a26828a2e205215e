// Package certificate decides who qualifies for a completion certificate
// and renders the default PDF artifact.
package certificate

import (
	"context"

	"github.com/akyairhashvil/marathon/internal/models"
)

// ProgressSource reports a user's completion.
type ProgressSource interface {
	Progress(ctx context.Context, userID int64) (models.Progress, error)
}

// Gate is the eligibility predicate. It has no side effects and ignores the
// user's finished flag.
type Gate struct {
	progress ProgressSource
}

func NewGate(progress ProgressSource) *Gate {
	return &Gate{progress: progress}
}

// IsEligible reports completedCount >= totalTaskCount along with the progress it was computed from.
func (g *Gate) IsEligible(ctx context.Context, userID int64) (bool, models.Progress, error) {
	p, err := g.progress.Progress(ctx, userID)
	if err != nil {
		return false, models.Progress{}, err
	}
	return Eligible(p), p, nil
}

// Eligible applies the predicate to already computed progress.
func Eligible(p models.Progress) bool {
	return p.Completed >= p.Total
}
