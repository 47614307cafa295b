package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/cassation/internal/core/domain"
)

// decisionColumns is the select list scanned by scanDecision.
const decisionColumns = `d.text_id, d.chambre, d.titre, d.date_decision, d.contenu, d.metadata,
	d.revision, d.content_hash, d.ingested_at, d.updated_at`

// rankExpression scores FTS5 rows; title matches weigh twice as much as
// body matches.
const rankExpression = "-bm25(decisions_fts, 2.0, 1.0)"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Upsert writes d according to domain.ResolveVersion.
func (s *Store) Upsert(ctx context.Context, d *domain.Decision) (domain.UpsertOutcome, error) {
	fail := func(err error) (domain.UpsertOutcome, error) {
		return "", &domain.StoreWriteError{TextID: d.TextID, Transient: isTransient(err), Err: err}
	}

	metadataJSON, err := json.Marshal(d.Metadata)
	if err != nil {
		return fail(fmt.Errorf("marshalling metadata: %w", err))
	}
	if d.Metadata == nil {
		metadataJSON = []byte("{}")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fail(fmt.Errorf("starting transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var existing *domain.Decision
	var rev, hash string
	err = tx.QueryRowContext(ctx,
		"SELECT revision, content_hash FROM decisions WHERE text_id = ?", d.TextID,
	).Scan(&rev, &hash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fail(fmt.Errorf("reading stored version: %w", err))
	default:
		existing = &domain.Decision{TextID: d.TextID, Revision: rev, ContentHash: hash}
	}

	outcome := domain.ResolveVersion(existing, d)
	now := time.Now().UTC()

	switch outcome {
	case domain.OutcomeInserted:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO decisions (text_id, chambre, titre, date_decision, contenu, metadata,
				revision, content_hash, ingested_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, d.TextID, d.Chambre, d.Titre, nullDate(d.DateDecision), d.Contenu, string(metadataJSON),
			d.Revision, d.ContentHash, now, now)
	case domain.OutcomeUpdated:
		_, err = tx.ExecContext(ctx, `
			UPDATE decisions SET
				chambre = ?, titre = ?, date_decision = ?, contenu = ?, metadata = ?,
				revision = ?, content_hash = ?, updated_at = ?
			WHERE text_id = ?
		`, d.Chambre, d.Titre, nullDate(d.DateDecision), d.Contenu, string(metadataJSON),
			d.Revision, d.ContentHash, now, d.TextID)
	default:
		return outcome, nil
	}
	if err != nil {
		return fail(fmt.Errorf("writing decision: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return fail(fmt.Errorf("committing: %w", err))
	}
	return outcome, nil
}

// Get retrieves a decision by text_id.
func (s *Store) Get(ctx context.Context, textID string) (*domain.Decision, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+decisionColumns+" FROM decisions d WHERE d.text_id = ?", textID)

	d, err := scanDecision(row, nil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// List returns decisions matching filter ordered by text_id.
func (s *Store) List(ctx context.Context, filter domain.DecisionFilter, page domain.Page) ([]domain.Decision, error) {
	query := "SELECT " + decisionColumns + " FROM decisions d"
	var args []any
	if filter.Chambre != nil {
		query += " WHERE d.chambre = ?"
		args = append(args, *filter.Chambre)
	}
	query += " ORDER BY d.text_id ASC LIMIT ? OFFSET ?"
	args = append(args, limitArg(page.Limit), page.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing decisions: %w", err)
	}
	defer rows.Close()

	var out []domain.Decision
	for rows.Next() {
		d, err := scanDecision(rows, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Search runs an FTS5 query requiring every term. Scores are negated bm25
// values, so higher is better.
func (s *Store) Search(ctx context.Context, terms []string, filter domain.DecisionFilter, page domain.Page) ([]domain.DecisionResult, error) {
	match := matchExpression(terms)
	if match == "" {
		return nil, nil
	}

	query := "SELECT " + decisionColumns + ", " + rankExpression + ` AS score
		FROM decisions_fts
		JOIN decisions d ON d.rowid = decisions_fts.rowid
		WHERE decisions_fts MATCH ?`
	args := []any{match}
	if filter.Chambre != nil {
		query += " AND d.chambre = ?"
		args = append(args, *filter.Chambre)
	}
	query += " ORDER BY score DESC, d.text_id ASC LIMIT ? OFFSET ?"
	args = append(args, limitArg(page.Limit), page.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching decisions: %w", err)
	}
	defer rows.Close()

	var out []domain.DecisionResult
	for rows.Next() {
		var score float64
		d, err := scanDecision(rows, &score)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.DecisionResult{Decision: *d, Score: score})
	}
	return out, rows.Err()
}

// matchExpression quotes each term so FTS5 operators in user input are
// taken literally. Adjacent quoted strings are ANDed.
func matchExpression(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

// limitArg maps "no limit" to SQLite's -1.
func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(domain.DateLayout), Valid: true}
}

// scanDecision reads decisionColumns, plus a trailing score when score is
// non-nil.
func scanDecision(row rowScanner, score *float64) (*domain.Decision, error) {
	var (
		d            domain.Decision
		date         sql.NullString
		metadataJSON string
	)
	dest := []any{&d.TextID, &d.Chambre, &d.Titre, &date, &d.Contenu, &metadataJSON,
		&d.Revision, &d.ContentHash, &d.IngestedAt, &d.UpdatedAt}
	if score != nil {
		dest = append(dest, score)
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning decision: %w", err)
	}

	if date.Valid {
		t, err := time.Parse(domain.DateLayout, date.String)
		if err == nil {
			d.DateDecision = &t
		}
	}
	if metadataJSON != "" && metadataJSON != jsonNull {
		if err := json.Unmarshal([]byte(metadataJSON), &d.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}
	return &d, nil
}

// jsonNull is the JSON representation of null.
const jsonNull = "null"
