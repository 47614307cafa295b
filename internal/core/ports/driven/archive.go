package driven

import (
	"context"

	"github.com/custodia-labs/cassation/internal/core/domain"
)

// ArchiveSource yields the document buckets of one archive.
// Opening the archive happens in the adapter constructor; a source that
// exists has already passed the run-fatal checks.
type ArchiveSource interface {
	// Info describes the archive.
	Info() domain.ArchiveInfo

	// Buckets walks the archive once, lazily.
	// The bucket channel is closed when the walk ends. Entry-level failures
	// are sent as *domain.ArchiveReadError on the error channel, which is
	// closed after the bucket channel. The sequence is not restartable.
	Buckets(ctx context.Context) (<-chan domain.Bucket, <-chan error)

	// Skipped returns the number of non-document entries passed over so far.
	Skipped() int

	// Close releases the underlying file, if any.
	Close() error
}
