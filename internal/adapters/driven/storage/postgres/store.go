package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/core/ports/driven"
	"github.com/custodia-labs/cassation/internal/logger"
)

// searchConfig is the text search configuration used for indexing and queries.
const searchConfig = "french"

// decisionColumns excludes search_vector.
const decisionColumns = "text_id, chambre, titre, date_decision, contenu, metadata, " +
	"revision, content_hash, ingested_at, updated_at"

// Ensure Store implements the interfaces.
var (
	_ driven.DecisionStore = (*Store)(nil)
	_ driven.ArchiveLedger = (*Store)(nil)
)

// Store is the PostgreSQL-backed decision store and archive ledger.
type Store struct {
	db *gorm.DB
}

// DSNFromEnv builds a connection string from POSTGRES_HOST, POSTGRES_PORT,
// POSTGRES_USER, POSTGRES_PASSWORD and POSTGRES_DB.
func DSNFromEnv() string {
	get := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(get("POSTGRES_USER", "postgres"), get("POSTGRES_PASSWORD", "")),
		Host:     get("POSTGRES_HOST", "localhost") + ":" + get("POSTGRES_PORT", "5432"),
		Path:     "/" + get("POSTGRES_DB", "cassation"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// NewStore connects to dsn and migrates the schema.
func NewStore(dsn string) (*Store, error) {
	level := gormLogger.Silent
	if logger.IsVerbose() {
		level = gormLogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to postgres: %w", domain.ErrStoreUnavailable, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// NewStoreFromDB wraps an open gorm handle and migrates the schema.
func NewStoreFromDB(db *gorm.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(&decisionRow{}, &archiveRunRow{}); err != nil {
		return err
	}

	stmts := []string{
		fmt.Sprintf(`ALTER TABLE decisions ADD COLUMN IF NOT EXISTS search_vector tsvector
			GENERATED ALWAYS AS (
				setweight(to_tsvector('%[1]s', coalesce(titre, '')), 'A') ||
				setweight(to_tsvector('%[1]s', coalesce(contenu, '')), 'B')
			) STORED`, searchConfig),
		`CREATE INDEX IF NOT EXISTS idx_decisions_search ON decisions USING GIN (search_vector)`,
	}
	for _, stmt := range stmts {
		if err := s.db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Count returns the number of stored decisions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&decisionRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting decisions: %w", err)
	}
	return int(n), nil
}

// upsertSQL inserts a decision or replaces the stored version when the
// incoming (revision, content_hash) pair is greater. Comparisons use the C
// collation so ordering matches byte order. RETURNING yields no row when
// the update was skipped.
const upsertSQL = `
INSERT INTO decisions (text_id, chambre, titre, date_decision, contenu, metadata,
	revision, content_hash, ingested_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (text_id) DO UPDATE SET
	chambre = EXCLUDED.chambre,
	titre = EXCLUDED.titre,
	date_decision = EXCLUDED.date_decision,
	contenu = EXCLUDED.contenu,
	metadata = EXCLUDED.metadata,
	revision = EXCLUDED.revision,
	content_hash = EXCLUDED.content_hash,
	updated_at = EXCLUDED.updated_at
WHERE decisions.content_hash <> EXCLUDED.content_hash
	AND (EXCLUDED.revision COLLATE "C", EXCLUDED.content_hash COLLATE "C")
		> (decisions.revision COLLATE "C", decisions.content_hash COLLATE "C")
RETURNING (xmax = 0) AS inserted`

// Upsert writes d according to domain.ResolveVersion in one statement.
func (s *Store) Upsert(ctx context.Context, d *domain.Decision) (domain.UpsertOutcome, error) {
	fail := func(err error) (domain.UpsertOutcome, error) {
		return "", &domain.StoreWriteError{TextID: d.TextID, Transient: isTransient(err), Err: err}
	}

	row, err := toRow(d)
	if err != nil {
		return fail(fmt.Errorf("marshalling metadata: %w", err))
	}
	now := time.Now().UTC()

	var written []struct{ Inserted bool }
	err = s.db.WithContext(ctx).Raw(upsertSQL,
		row.TextID, row.Chambre, row.Titre, row.DateDecision, row.Contenu, row.Metadata,
		row.Revision, row.ContentHash, now, now,
	).Scan(&written).Error
	if err != nil {
		return fail(err)
	}

	if len(written) == 1 {
		if written[0].Inserted {
			return domain.OutcomeInserted, nil
		}
		return domain.OutcomeUpdated, nil
	}

	var stored decisionRow
	err = s.db.WithContext(ctx).Select("content_hash").
		Where("text_id = ?", d.TextID).Take(&stored).Error
	if err != nil {
		return fail(fmt.Errorf("reading stored version: %w", err))
	}
	if stored.ContentHash == d.ContentHash {
		return domain.OutcomeUnchanged, nil
	}
	return domain.OutcomeSuperseded, nil
}

// Get retrieves a decision by text_id.
func (s *Store) Get(ctx context.Context, textID string) (*domain.Decision, error) {
	var row decisionRow
	err := s.db.WithContext(ctx).Select(decisionColumns).
		Where("text_id = ?", textID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting decision: %w", err)
	}

	d, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("decoding decision: %w", err)
	}
	return &d, nil
}

// List returns decisions matching filter ordered by text_id.
func (s *Store) List(ctx context.Context, filter domain.DecisionFilter, page domain.Page) ([]domain.Decision, error) {
	q := s.db.WithContext(ctx).Model(&decisionRow{}).Select(decisionColumns)
	q = applyFilter(q, filter)

	var rows []decisionRow
	err := q.Order(`text_id COLLATE "C" ASC`).
		Limit(limitArg(page.Limit)).Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing decisions: %w", err)
	}

	out := make([]domain.Decision, 0, len(rows))
	for _, r := range rows {
		d, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("decoding decision: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Search ranks decisions whose search_vector matches every term.
func (s *Store) Search(ctx context.Context, terms []string, filter domain.DecisionFilter, page domain.Page) ([]domain.DecisionResult, error) {
	text := strings.Join(nonBlank(terms), " ")
	if text == "" {
		return nil, nil
	}

	tsquery := clause.Expr{SQL: "plainto_tsquery(?, ?)", Vars: []any{searchConfig, text}}
	q := s.db.WithContext(ctx).Model(&decisionRow{}).
		Select(decisionColumns+", ts_rank(search_vector, ?) AS score", tsquery).
		Where("search_vector @@ ?", tsquery)
	q = applyFilter(q, filter)

	var rows []scoredRow
	err := q.Order(`score DESC, text_id COLLATE "C" ASC`).
		Limit(limitArg(page.Limit)).Offset(page.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("searching decisions: %w", err)
	}

	out := make([]domain.DecisionResult, 0, len(rows))
	for _, r := range rows {
		d, err := r.decisionRow.toDomain()
		if err != nil {
			return nil, fmt.Errorf("decoding decision: %w", err)
		}
		out = append(out, domain.DecisionResult{Decision: d, Score: r.Score})
	}
	return out, nil
}

// LookupArchive returns the ledger entry for digest.
func (s *Store) LookupArchive(ctx context.Context, digest string) (*domain.ArchiveRun, error) {
	var row archiveRunRow
	err := s.db.WithContext(ctx).Where("digest = ?", digest).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting archive run: %w", err)
	}
	run := row.toDomain()
	return &run, nil
}

// RecordArchive stores or replaces the ledger entry for run.Digest.
func (s *Store) RecordArchive(ctx context.Context, run domain.ArchiveRun) error {
	if run.Digest == "" {
		return domain.ErrInvalidInput
	}

	row := archiveRunRow{
		Digest:      run.Digest,
		Name:        run.Name,
		RunID:       run.RunID,
		Discovered:  run.Discovered,
		Inserted:    run.Inserted,
		Updated:     run.Updated,
		Duplicate:   run.Duplicate,
		Superseded:  run.Superseded,
		Rejected:    run.Rejected,
		Failed:      run.Failed,
		ProcessedAt: run.ProcessedAt.UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "digest"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("recording archive: %w", err)
	}
	return nil
}

func applyFilter(q *gorm.DB, filter domain.DecisionFilter) *gorm.DB {
	if filter.Chambre != nil {
		q = q.Where("chambre = ?", *filter.Chambre)
	}
	return q
}

// limitArg maps "no limit" to gorm's -1.
func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func nonBlank(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// isTransient reports connection loss, timeouts and SQLSTATEs worth
// retrying: class 08 (connection exception), 40001 (serialization failure)
// and 40P01 (deadlock detected).
func isTransient(err error) bool {
	if pgconn.Timeout(err) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
