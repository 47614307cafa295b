package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/core/ports/driven"
	"github.com/custodia-labs/cassation/internal/core/ports/driving"
	"github.com/custodia-labs/cassation/internal/fold"
	"github.com/custodia-labs/cassation/internal/logger"
)

// Ensure QueryEngine implements the interface.
var _ driving.QueryService = (*QueryEngine)(nil)

// Chamber filter values that select decisions without a chamber.
const (
	ChambreEmpty = "empty"
	ChambreNull  = "null"
)

// ChambreCanonicaliser maps a user-supplied chamber label onto the stored
// vocabulary.
type ChambreCanonicaliser interface {
	CanonicalChambre(label string) string
}

// QueryEngine answers lookups, listings and ranked searches.
type QueryEngine struct {
	store        driven.DecisionStore
	chambres     ChambreCanonicaliser
	defaultLimit int
	maxLimit     int
}

// NewQueryEngine creates a query engine. chambres may be nil, in which case
// chamber filters are matched verbatim.
func NewQueryEngine(store driven.DecisionStore, chambres ChambreCanonicaliser, cfg domain.QuerySettings) *QueryEngine {
	defaults := domain.DefaultAppSettings().Query
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaults.DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = defaults.MaxLimit
	}
	if cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = cfg.MaxLimit
	}
	return &QueryEngine{
		store:        store,
		chambres:     chambres,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
	}
}

// Query runs exactly one retrieval mode: lookup by text_id, ranked search
// (optionally within a chamber) or a listing ordered by text_id.
//
// A lookup of an absent text_id yields an empty result.
func (e *QueryEngine) Query(ctx context.Context, q domain.DecisionQuery) ([]domain.DecisionResult, error) {
	q.TextID = strings.TrimSpace(q.TextID)
	q.Search = strings.TrimSpace(q.Search)

	if q.TextID != "" && (q.Chambre != nil || q.Search != "") {
		return nil, fmt.Errorf("%w: text_id cannot be combined with other filters", domain.ErrInvalidInput)
	}
	if q.Offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", domain.ErrInvalidInput)
	}
	if q.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidInput)
	}

	if q.TextID != "" {
		d, err := e.Get(ctx, q.TextID)
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.DecisionResult{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []domain.DecisionResult{{Decision: *d}}, nil
	}

	filter := domain.DecisionFilter{Chambre: e.chambreFilter(q.Chambre)}
	page := domain.Page{Limit: e.limit(q.Limit), Offset: q.Offset}

	if q.Search != "" {
		terms := fold.Tokens(q.Search)
		logger.Debug("Search %q → terms %v", q.Search, terms)
		if len(terms) == 0 {
			return []domain.DecisionResult{}, nil
		}
		results, err := e.store.Search(ctx, terms, filter, page)
		if err != nil {
			return nil, fmt.Errorf("search decisions: %w", err)
		}
		return results, nil
	}

	decisions, err := e.store.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	results := make([]domain.DecisionResult, len(decisions))
	for i := range decisions {
		results[i] = domain.DecisionResult{Decision: decisions[i]}
	}
	return results, nil
}

// Get returns one decision or domain.ErrNotFound.
func (e *QueryEngine) Get(ctx context.Context, textID string) (*domain.Decision, error) {
	textID = strings.TrimSpace(textID)
	if textID == "" {
		return nil, fmt.Errorf("%w: text_id is required", domain.ErrInvalidInput)
	}
	return e.store.Get(ctx, textID)
}

// Count returns the number of stored decisions.
func (e *QueryEngine) Count(ctx context.Context) (int, error) {
	return e.store.Count(ctx)
}

func (e *QueryEngine) limit(requested int) int {
	switch {
	case requested == 0:
		return e.defaultLimit
	case requested > e.maxLimit:
		return e.maxLimit
	default:
		return requested
	}
}

func (e *QueryEngine) chambreFilter(c *string) *string {
	if c == nil {
		return nil
	}
	label := strings.TrimSpace(*c)
	switch strings.ToLower(label) {
	case ChambreEmpty, ChambreNull:
		empty := ""
		return &empty
	}
	if e.chambres != nil {
		label = e.chambres.CanonicalChambre(label)
	}
	return &label
}
