package driving

import (
	"context"

	"github.com/custodia-labs/cassation/internal/core/domain"
)

// QueryService serves the normalised corpus.
type QueryService interface {
	// Query runs one retrieval mode. No match is an empty slice, not an error.
	Query(ctx context.Context, q domain.DecisionQuery) ([]domain.DecisionResult, error)

	// Get returns a single decision or domain.ErrNotFound.
	Get(ctx context.Context, textID string) (*domain.Decision, error)

	// Count returns the number of stored decisions.
	Count(ctx context.Context) (int, error)
}
