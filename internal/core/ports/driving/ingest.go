package driving

import (
	"context"

	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/core/ports/driven"
)

// IngestOptions tunes one ingestion run.
type IngestOptions struct {
	// Workers overrides the configured worker count when positive.
	Workers int

	// SkipProcessed skips an archive the ledger already records as
	// fully ingested. Without it every run reads the archive again.
	SkipProcessed bool

	// Progress, when set, receives a snapshot after each document.
	// It is called from a single goroutine.
	Progress func(domain.IngestSummary)
}

// IngestService runs the archive → parse → normalise → upsert pipeline.
type IngestService interface {
	// Ingest processes one archive and returns its summary.
	// Document-level failures never abort the run; the error is non-nil
	// only when the store cannot be reached or the run was cancelled, and
	// the summary is still returned in the latter case.
	Ingest(ctx context.Context, source driven.ArchiveSource, opts IngestOptions) (*domain.IngestSummary, error)
}
