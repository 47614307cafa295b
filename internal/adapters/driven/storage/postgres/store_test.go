package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cassation/internal/core/domain"
)

var errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")

var (
	storeOnce sync.Once
	shared    *Store
	storeErr  error
)

// testStore returns a migrated store with empty tables, or skips when no
// database is configured.
func testStore(tb testing.TB) *Store {
	tb.Helper()

	storeOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			storeErr = errMissingDSN
			return
		}
		shared, storeErr = NewStore(dsn)
	})

	if errors.Is(storeErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run postgres integration tests")
	}
	if storeErr != nil {
		tb.Fatalf("failed to init test db: %v", storeErr)
	}

	require.NoError(tb, shared.db.Exec("TRUNCATE decisions, archive_runs").Error)
	return shared
}

func newDecision(id, chambre, contenu, revision string) *domain.Decision {
	d := &domain.Decision{
		TextID:   id,
		Chambre:  chambre,
		Titre:    "Cour de cassation",
		Contenu:  contenu,
		Metadata: map[string]any{"solution": "Rejet"},
		Revision: revision,
	}
	d.ContentHash = d.ComputeHash()
	return d
}

func ptr(s string) *string { return &s }

func TestStore_UpsertOutcomes(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	steps := []struct {
		decision *domain.Decision
		want     domain.UpsertOutcome
		contenu  string
	}{
		{newDecision("J1", "", "first", "r1"), domain.OutcomeInserted, "first"},
		{newDecision("J1", "", "first", "r2"), domain.OutcomeUnchanged, "first"},
		{newDecision("J1", "", "second", "r2"), domain.OutcomeUpdated, "second"},
		{newDecision("J1", "", "stale", "r0"), domain.OutcomeSuperseded, "second"},
	}
	for _, step := range steps {
		out, err := store.Upsert(ctx, step.decision)
		require.NoError(t, err)
		assert.Equal(t, step.want, out)

		got, err := store.Get(ctx, "J1")
		require.NoError(t, err)
		assert.Equal(t, step.contenu, got.Contenu)
	}

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_RoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	date := time.Date(2023, 10, 19, 0, 0, 0, 0, time.UTC)
	d := newDecision("JURITEXT000048283805", "chambre_civile", "Derichebourg loses appeal.", "r1")
	d.DateDecision = &date
	d.ContentHash = d.ComputeHash()

	_, err := store.Upsert(ctx, d)
	require.NoError(t, err)

	got, err := store.Get(ctx, d.TextID)
	require.NoError(t, err)
	require.NotNil(t, got.DateDecision)
	assert.True(t, date.Equal(*got.DateDecision))
	assert.Equal(t, "Rejet", got.Metadata["solution"])
	assert.Equal(t, d.ContentHash, got.ComputeHash())

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ListAndSearch(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for _, d := range []*domain.Decision{
		newDecision("J3", "chambre_sociale", "Le pourvoi est rejeté. Licenciement abusif.", "r"),
		newDecision("J2", "chambre_civile", "Derichebourg perd son pourvoi.", "r"),
		newDecision("J1", "", "Aucune mention utile", "r"),
	} {
		_, err := store.Upsert(ctx, d)
		require.NoError(t, err)
	}

	all, err := store.List(ctx, domain.DecisionFilter{}, domain.Page{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "J1", all[0].TextID)

	none, err := store.List(ctx, domain.DecisionFilter{Chambre: ptr("")}, domain.Page{})
	require.NoError(t, err)
	require.Len(t, none, 1)
	assert.Equal(t, "J1", none[0].TextID)

	res, err := store.Search(ctx, []string{"pourvoi"}, domain.DecisionFilter{}, domain.Page{})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.GreaterOrEqual(t, res[0].Score, res[1].Score)

	res, err = store.Search(ctx, []string{"pourvoi"}, domain.DecisionFilter{Chambre: ptr("chambre_civile")}, domain.Page{})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "J2", res[0].Decision.TextID)

	res, err = store.Search(ctx, []string{"absent"}, domain.DecisionFilter{}, domain.Page{})
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestStore_Ledger(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	_, err := store.LookupArchive(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	run := domain.ArchiveRun{Digest: "abc", Name: "a.tar.gz", RunID: "r1", Inserted: 2, ProcessedAt: time.Now()}
	require.NoError(t, store.RecordArchive(ctx, run))
	run.RunID = "r2"
	require.NoError(t, store.RecordArchive(ctx, run))

	got, err := store.LookupArchive(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "r2", got.RunID)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"check violation", &pgconn.PgError{Code: "23514"}, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}

func TestDSNFromEnv(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("POSTGRES_USER", "juri")
	t.Setenv("POSTGRES_PASSWORD", "s3cret")
	t.Setenv("POSTGRES_DB", "decisions")

	assert.Equal(t, "postgres://juri:s3cret@db:6543/decisions?sslmode=disable", DSNFromEnv())
}
