package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cassation/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

func newDecision(id, chambre, contenu, revision string) *domain.Decision {
	date := time.Date(2023, 10, 19, 0, 0, 0, 0, time.UTC)
	d := &domain.Decision{
		TextID:       id,
		Chambre:      chambre,
		Titre:        "Cour de cassation",
		DateDecision: &date,
		Contenu:      contenu,
		Metadata:     map[string]any{"solution": "Rejet", "kind": "judicial"},
		Revision:     revision,
	}
	d.ContentHash = d.ComputeHash()
	return d
}

func ptr(s string) *string { return &s }

// ==================== Store Creation ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "cassation.db"), store.Path())
	assert.FileExists(t, store.Path())
	assert.NoError(t, store.Ping(context.Background()))
}

func TestNewStore_MigrationsRecordedOnce(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	var versions int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 2, versions)
}

func TestStore_PingAfterClose(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Ping(context.Background()), domain.ErrStoreUnavailable)
}

// ==================== Upsert ====================

func TestStore_Upsert_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	d := newDecision("JURITEXT000048283805", "chambre_civile", "Derichebourg loses appeal.", "20231020")
	out, err := store.Upsert(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInserted, out)

	got, err := store.Get(ctx, "JURITEXT000048283805")
	require.NoError(t, err)
	assert.Equal(t, d.TextID, got.TextID)
	assert.Equal(t, "chambre_civile", got.Chambre)
	assert.Equal(t, "Cour de cassation", got.Titre)
	assert.Equal(t, d.Contenu, got.Contenu)
	assert.Equal(t, d.ContentHash, got.ContentHash)
	assert.Equal(t, "20231020", got.Revision)
	assert.Equal(t, "Rejet", got.Metadata["solution"])
	require.NotNil(t, got.DateDecision)
	assert.True(t, d.DateDecision.Equal(*got.DateDecision))
	assert.False(t, got.IngestedAt.IsZero())

	// A decision read back hashes to the same value.
	assert.Equal(t, d.ContentHash, got.ComputeHash())
}

func TestStore_Upsert_NilDate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	d := newDecision("J1", "", "body", "r1")
	d.DateDecision = nil
	d.Metadata = nil
	d.ContentHash = d.ComputeHash()

	_, err := store.Upsert(ctx, d)
	require.NoError(t, err)

	got, err := store.Get(ctx, "J1")
	require.NoError(t, err)
	assert.Nil(t, got.DateDecision)
	assert.Empty(t, got.Metadata)
}

func TestStore_Upsert_Outcomes(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		decision *domain.Decision
		want     domain.UpsertOutcome
		contenu  string
	}{
		{"insert", newDecision("J1", "", "first", "r1"), domain.OutcomeInserted, "first"},
		{"same content other archive", newDecision("J1", "", "first", "r2"), domain.OutcomeUnchanged, "first"},
		{"newer revision", newDecision("J1", "", "second", "r2"), domain.OutcomeUpdated, "second"},
		{"older revision", newDecision("J1", "", "stale", "r0"), domain.OutcomeSuperseded, "second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := store.Upsert(ctx, tt.decision)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)

			got, err := store.Get(ctx, "J1")
			require.NoError(t, err)
			assert.Equal(t, tt.contenu, got.Contenu)
		})
	}

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_Upsert_ConcurrentSameID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	versions := []*domain.Decision{
		newDecision("J1", "", "alpha", "r1"),
		newDecision("J1", "", "beta", "r1"),
		newDecision("J1", "", "gamma", "r1"),
	}
	want := versions[0]
	for _, v := range versions[1:] {
		if domain.Outranks(v.Revision, v.ContentHash, want.Revision, want.ContentHash) {
			want = v
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Upsert(ctx, versions[i%len(versions)])
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.Get(ctx, "J1")
	require.NoError(t, err)
	assert.Equal(t, want.Contenu, got.Contenu)
}

func TestStore_Upsert_EmptyContenuViolatesConstraint(t *testing.T) {
	store := setupTestStore(t)

	d := newDecision("J1", "", "", "r1")
	_, err := store.Upsert(context.Background(), d)

	var swe *domain.StoreWriteError
	require.ErrorAs(t, err, &swe)
	assert.Equal(t, "J1", swe.TextID)
	assert.False(t, swe.Transient)
}

func TestStore_Get_NotFound(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ==================== Reads ====================

func seed(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	for _, d := range []*domain.Decision{
		newDecision("J4", "chambre_civile", "Derichebourg loses appeal.", "r"),
		newDecision("J3", "chambre_sociale", "Appel rejeté. Appel irrecevable. Licenciement.", "r"),
		newDecision("J2", "chambre_civile", "Procédure d'appel", "r"),
		newDecision("J1", "", "Nothing relevant here", "r"),
	} {
		_, err := store.Upsert(ctx, d)
		require.NoError(t, err)
	}
}

func TestStore_List(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)
	ctx := context.Background()

	all, err := store.List(ctx, domain.DecisionFilter{}, domain.Page{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, id := range []string{"J1", "J2", "J3", "J4"} {
		assert.Equal(t, id, all[i].TextID)
	}

	civ, err := store.List(ctx, domain.DecisionFilter{Chambre: ptr("chambre_civile")}, domain.Page{})
	require.NoError(t, err)
	require.Len(t, civ, 2)
	assert.Equal(t, "J2", civ[0].TextID)
	assert.Equal(t, "J4", civ[1].TextID)

	none, err := store.List(ctx, domain.DecisionFilter{Chambre: ptr("")}, domain.Page{})
	require.NoError(t, err)
	require.Len(t, none, 1)
	assert.Equal(t, "J1", none[0].TextID)

	penal, err := store.List(ctx, domain.DecisionFilter{Chambre: ptr("chambre_penale")}, domain.Page{})
	require.NoError(t, err)
	assert.Empty(t, penal)

	page, err := store.List(ctx, domain.DecisionFilter{}, domain.Page{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "J2", page[0].TextID)
	assert.Equal(t, "J3", page[1].TextID)
}

func TestStore_Search(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)
	ctx := context.Background()

	t.Run("single match", func(t *testing.T) {
		res, err := store.Search(ctx, []string{"Derichebourg"}, domain.DecisionFilter{}, domain.Page{})
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "J4", res[0].Decision.TextID)
		assert.Positive(t, res[0].Score)
	})

	t.Run("diacritics folded", func(t *testing.T) {
		res, err := store.Search(ctx, []string{"procedure"}, domain.DecisionFilter{}, domain.Page{})
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "J2", res[0].Decision.TextID)
	})

	t.Run("ranked and deterministic", func(t *testing.T) {
		first, err := store.Search(ctx, []string{"appel"}, domain.DecisionFilter{}, domain.Page{})
		require.NoError(t, err)
		require.Len(t, first, 2)
		assert.GreaterOrEqual(t, first[0].Score, first[1].Score)

		again, err := store.Search(ctx, []string{"appel"}, domain.DecisionFilter{}, domain.Page{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	})

	t.Run("intersected with chambre", func(t *testing.T) {
		res, err := store.Search(ctx, []string{"appel"}, domain.DecisionFilter{Chambre: ptr("chambre_civile")}, domain.Page{})
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "J2", res[0].Decision.TextID)
	})

	t.Run("all terms required", func(t *testing.T) {
		res, err := store.Search(ctx, []string{"appel", "licenciement"}, domain.DecisionFilter{}, domain.Page{})
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "J3", res[0].Decision.TextID)
	})

	t.Run("operators taken literally", func(t *testing.T) {
		res, err := store.Search(ctx, []string{`appel"`, "OR", "NEAR"}, domain.DecisionFilter{}, domain.Page{})
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("no match", func(t *testing.T) {
		res, err := store.Search(ctx, []string{"absent"}, domain.DecisionFilter{}, domain.Page{})
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("no terms", func(t *testing.T) {
		res, err := store.Search(ctx, nil, domain.DecisionFilter{}, domain.Page{})
		require.NoError(t, err)
		assert.Empty(t, res)
	})
}

func TestStore_Search_FollowsUpdates(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, newDecision("J1", "", "ancienne rédaction", "r1"))
	require.NoError(t, err)
	_, err = store.Upsert(ctx, newDecision("J1", "", "nouvelle rédaction", "r2"))
	require.NoError(t, err)

	old, err := store.Search(ctx, []string{"ancienne"}, domain.DecisionFilter{}, domain.Page{})
	require.NoError(t, err)
	assert.Empty(t, old)

	cur, err := store.Search(ctx, []string{"nouvelle"}, domain.DecisionFilter{}, domain.Page{})
	require.NoError(t, err)
	require.Len(t, cur, 1)
}

// ==================== Ledger ====================

func TestStore_Ledger(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.LookupArchive(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	run := domain.ArchiveRun{Digest: "abc", Name: "CASS_20240102.tar.gz", RunID: "run-1", Discovered: 7, Inserted: 4, Superseded: 2, Rejected: 1, ProcessedAt: at}
	require.NoError(t, store.RecordArchive(ctx, run))

	got, err := store.LookupArchive(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 4, got.Inserted)
	assert.Equal(t, 2, got.Superseded)
	assert.True(t, at.Equal(got.ProcessedAt))

	run.RunID = "run-2"
	require.NoError(t, store.RecordArchive(ctx, run))
	got, err = store.LookupArchive(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.RunID)

	assert.ErrorIs(t, store.RecordArchive(ctx, domain.ArchiveRun{}), domain.ErrInvalidInput)
}

func TestMatchExpression(t *testing.T) {
	assert.Equal(t, `"appel" "rejet"`, matchExpression([]string{"appel", " rejet ", ""}))
	assert.Equal(t, `"a""b"`, matchExpression([]string{`a"b`}))
	assert.Equal(t, "", matchExpression(nil))
	assert.Equal(t, -1, limitArg(0))
	assert.Equal(t, 5, limitArg(5))
}
