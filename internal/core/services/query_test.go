package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cassation/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/normalisers/juritext"
)

func seedStore(t *testing.T, decisions ...domain.Decision) *memory.DecisionStore {
	t.Helper()
	store := memory.NewDecisionStore()
	for i := range decisions {
		d := decisions[i]
		d.ContentHash = d.ComputeHash()
		_, err := store.Upsert(context.Background(), &d)
		require.NoError(t, err)
	}
	return store
}

func strPtr(s string) *string { return &s }

func fixtureDecisions() []domain.Decision {
	return []domain.Decision{
		{TextID: "JURITEXT000003", Chambre: juritext.ChambreSociale, Titre: "Licenciement", Contenu: "Licenciement pour faute grave du salarié."},
		{TextID: "JURITEXT000001", Chambre: juritext.ChambreCivile1, Titre: "Bail", Contenu: "Résiliation du bail commercial. Le bail est résilié."},
		{TextID: "JURITEXT000002", Chambre: juritext.ChambreCivile1, Titre: "Vente", Contenu: "Vente immobilière et bail."},
		{TextID: "JURITEXT000004", Chambre: "", Contenu: "Décision sans chambre relative au bail."},
	}
}

func ids(results []domain.DecisionResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Decision.TextID)
	}
	return out
}

func TestQueryEngine_ListOrderedByTextID(t *testing.T) {
	e := NewQueryEngine(seedStore(t, fixtureDecisions()...), juritext.New(), domain.QuerySettings{})

	results, err := e.Query(context.Background(), domain.DecisionQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"JURITEXT000001", "JURITEXT000002", "JURITEXT000003", "JURITEXT000004"}, ids(results))
}

func TestQueryEngine_Pagination(t *testing.T) {
	e := NewQueryEngine(seedStore(t, fixtureDecisions()...), juritext.New(), domain.QuerySettings{})

	first, err := e.Query(context.Background(), domain.DecisionQuery{Limit: 2})
	require.NoError(t, err)
	second, err := e.Query(context.Background(), domain.DecisionQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"JURITEXT000001", "JURITEXT000002"}, ids(first))
	assert.Equal(t, []string{"JURITEXT000003", "JURITEXT000004"}, ids(second))
}

func TestQueryEngine_LimitCappedAndDefaulted(t *testing.T) {
	store := seedStore(t, fixtureDecisions()...)
	e := NewQueryEngine(store, nil, domain.QuerySettings{DefaultLimit: 1, MaxLimit: 3})

	results, err := e.Query(context.Background(), domain.DecisionQuery{})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = e.Query(context.Background(), domain.DecisionQuery{Limit: 100})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestQueryEngine_ChambreFilter(t *testing.T) {
	e := NewQueryEngine(seedStore(t, fixtureDecisions()...), juritext.New(), domain.QuerySettings{})

	tests := []struct {
		name    string
		chambre string
		want    []string
	}{
		{"canonical", juritext.ChambreCivile1, []string{"JURITEXT000001", "JURITEXT000002"}},
		{"alias", "civ1", []string{"JURITEXT000001", "JURITEXT000002"}},
		{"accented label", "Chambre Sociale", []string{"JURITEXT000003"}},
		{"empty keyword", "empty", []string{"JURITEXT000004"}},
		{"null keyword", "NULL", []string{"JURITEXT000004"}},
		{"unknown", "chambre_inexistante", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := e.Query(context.Background(), domain.DecisionQuery{Chambre: strPtr(tt.chambre)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(results))
		})
	}
}

func TestQueryEngine_TextIDLookup(t *testing.T) {
	e := NewQueryEngine(seedStore(t, fixtureDecisions()...), juritext.New(), domain.QuerySettings{})

	results, err := e.Query(context.Background(), domain.DecisionQuery{TextID: "JURITEXT000002"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Vente", results[0].Decision.Titre)

	results, err = e.Query(context.Background(), domain.DecisionQuery{TextID: "JURITEXT999999"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryEngine_SearchRanked(t *testing.T) {
	e := NewQueryEngine(seedStore(t, fixtureDecisions()...), juritext.New(), domain.QuerySettings{})

	results, err := e.Query(context.Background(), domain.DecisionQuery{Search: "bail"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "JURITEXT000001", results[0].Decision.TextID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	// Equal scores fall back to text_id order.
	assert.Equal(t, []string{"JURITEXT000002", "JURITEXT000004"}, ids(results[1:]))
}

func TestQueryEngine_SearchIgnoresAccents(t *testing.T) {
	e := NewQueryEngine(seedStore(t, fixtureDecisions()...), juritext.New(), domain.QuerySettings{})

	results, err := e.Query(context.Background(), domain.DecisionQuery{Search: "resiliation"})
	require.NoError(t, err)
	assert.Equal(t, []string{"JURITEXT000001"}, ids(results))
}

func TestQueryEngine_SearchWithinChambre(t *testing.T) {
	e := NewQueryEngine(seedStore(t, fixtureDecisions()...), juritext.New(), domain.QuerySettings{})

	results, err := e.Query(context.Background(), domain.DecisionQuery{Search: "bail", Chambre: strPtr("empty")})
	require.NoError(t, err)
	assert.Equal(t, []string{"JURITEXT000004"}, ids(results))
}

func TestQueryEngine_SearchWithoutTermsIsEmpty(t *testing.T) {
	e := NewQueryEngine(seedStore(t, fixtureDecisions()...), juritext.New(), domain.QuerySettings{})

	results, err := e.Query(context.Background(), domain.DecisionQuery{Search: " ,;! "})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = e.Query(context.Background(), domain.DecisionQuery{Search: "introuvable"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryEngine_InvalidQueries(t *testing.T) {
	e := NewQueryEngine(seedStore(t), juritext.New(), domain.QuerySettings{})

	tests := []struct {
		name string
		q    domain.DecisionQuery
	}{
		{"text_id with search", domain.DecisionQuery{TextID: "J1", Search: "bail"}},
		{"text_id with chambre", domain.DecisionQuery{TextID: "J1", Chambre: strPtr("civ1")}},
		{"negative offset", domain.DecisionQuery{Offset: -1}},
		{"negative limit", domain.DecisionQuery{Limit: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Query(context.Background(), tt.q)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestQueryEngine_Get(t *testing.T) {
	e := NewQueryEngine(seedStore(t, fixtureDecisions()...), juritext.New(), domain.QuerySettings{})

	d, err := e.Get(context.Background(), "JURITEXT000001")
	require.NoError(t, err)
	assert.Equal(t, juritext.ChambreCivile1, d.Chambre)

	_, err = e.Get(context.Background(), "JURITEXT999999")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = e.Get(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	n, err := e.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

// failingStore fails every read.
type failingStore struct {
	*memory.DecisionStore
}

func (failingStore) List(context.Context, domain.DecisionFilter, domain.Page) ([]domain.Decision, error) {
	return nil, domain.ErrStoreUnavailable
}

func (failingStore) Search(context.Context, []string, domain.DecisionFilter, domain.Page) ([]domain.DecisionResult, error) {
	return nil, domain.ErrStoreUnavailable
}

func TestQueryEngine_StoreErrorsPropagate(t *testing.T) {
	e := NewQueryEngine(failingStore{memory.NewDecisionStore()}, nil, domain.QuerySettings{})

	_, err := e.Query(context.Background(), domain.DecisionQuery{})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = e.Query(context.Background(), domain.DecisionQuery{Search: "bail"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
