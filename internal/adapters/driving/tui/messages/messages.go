// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/cassation/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewSearch is the query input and result list.
	ViewSearch ViewType = iota
	// ViewDecision shows one decision.
	ViewDecision
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewSearch:
		return "search"
	case ViewDecision:
		return "decision"
	default:
		return "unknown"
	}
}

// SearchCompleted carries query results back to the model.
type SearchCompleted struct {
	Query   domain.DecisionQuery
	Results []domain.DecisionResult
	Err     error
}

// DecisionOpened asks the app to show a decision.
type DecisionOpened struct {
	TextID string
}

// DecisionLoaded carries a fetched decision back to the model.
type DecisionLoaded struct {
	Decision *domain.Decision
	Err      error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// CountLoaded carries the number of stored decisions.
type CountLoaded struct {
	Total int
	Err   error
}
