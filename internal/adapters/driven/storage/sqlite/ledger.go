package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/cassation/internal/core/domain"
)

// LookupArchive returns the ledger entry for digest.
func (s *Store) LookupArchive(ctx context.Context, digest string) (*domain.ArchiveRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT digest, name, run_id, discovered, inserted, updated, duplicate, superseded, rejected, failed,
			processed_at
		FROM archive_runs WHERE digest = ?
	`, digest)

	var run domain.ArchiveRun
	err := row.Scan(&run.Digest, &run.Name, &run.RunID, &run.Discovered, &run.Inserted,
		&run.Updated, &run.Duplicate, &run.Superseded, &run.Rejected, &run.Failed, &run.ProcessedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning archive run: %w", err)
	}
	return &run, nil
}

// RecordArchive stores or replaces the ledger entry for run.Digest.
func (s *Store) RecordArchive(ctx context.Context, run domain.ArchiveRun) error {
	if run.Digest == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO archive_runs (digest, name, run_id, discovered, inserted, updated, duplicate,
			superseded, rejected, failed, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(digest) DO UPDATE SET
			name = excluded.name,
			run_id = excluded.run_id,
			discovered = excluded.discovered,
			inserted = excluded.inserted,
			updated = excluded.updated,
			duplicate = excluded.duplicate,
			superseded = excluded.superseded,
			rejected = excluded.rejected,
			failed = excluded.failed,
			processed_at = excluded.processed_at
	`, run.Digest, run.Name, run.RunID, run.Discovered, run.Inserted, run.Updated, run.Duplicate,
		run.Superseded, run.Rejected, run.Failed, run.ProcessedAt.UTC())
	if err != nil {
		return fmt.Errorf("recording archive: %w", err)
	}
	return nil
}
