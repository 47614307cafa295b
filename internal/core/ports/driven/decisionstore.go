package driven

import (
	"context"

	"github.com/custodia-labs/cassation/internal/core/domain"
)

// DecisionStore persists decisions and serves filtered and ranked reads.
// Implementations enforce text_id uniqueness themselves so that concurrent
// writers of the same identifier converge on a single row.
type DecisionStore interface {
	// Ping checks the store can be reached.
	Ping(ctx context.Context) error

	// Upsert writes a decision according to domain.ResolveVersion.
	// A duplicate is an outcome, not an error. Failures are returned as
	// *domain.StoreWriteError.
	Upsert(ctx context.Context, decision *domain.Decision) (domain.UpsertOutcome, error)

	// Get returns a decision by text_id, or domain.ErrNotFound.
	Get(ctx context.Context, textID string) (*domain.Decision, error)

	// List returns decisions ordered by text_id ascending.
	List(ctx context.Context, filter domain.DecisionFilter, page domain.Page) ([]domain.Decision, error)

	// Search returns decisions matching every term, ordered by descending
	// score and then text_id ascending.
	Search(ctx context.Context, terms []string, filter domain.DecisionFilter, page domain.Page) ([]domain.DecisionResult, error)

	// Count returns the number of stored decisions.
	Count(ctx context.Context) (int, error)

	// Close releases the store.
	Close() error
}

// ArchiveLedger remembers archives that were fully ingested.
type ArchiveLedger interface {
	// LookupArchive returns the run recorded for a digest, or domain.ErrNotFound.
	LookupArchive(ctx context.Context, digest string) (*domain.ArchiveRun, error)

	// RecordArchive stores or replaces the entry for run.Digest.
	RecordArchive(ctx context.Context, run domain.ArchiveRun) error
}
