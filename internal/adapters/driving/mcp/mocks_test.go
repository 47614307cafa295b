package mcp

import (
	"context"

	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	results   []domain.DecisionResult
	decisions map[string]domain.Decision
	err       error

	lastQuery domain.DecisionQuery
}

func (m *mockQueryService) Query(_ context.Context, q domain.DecisionQuery) ([]domain.DecisionResult, error) {
	m.lastQuery = q
	return m.results, m.err
}

func (m *mockQueryService) Get(_ context.Context, textID string) (*domain.Decision, error) {
	if m.err != nil {
		return nil, m.err
	}
	d, ok := m.decisions[textID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (m *mockQueryService) Count(_ context.Context) (int, error) {
	return len(m.decisions), m.err
}

var _ driving.QueryService = (*mockQueryService)(nil)
