package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/cassation/internal/core/domain"
)

const defaultToolLimit = 10

// SearchInput is the input schema for the search_decisions tool.
type SearchInput struct {
	Query   string `json:"query" jsonschema:"free-text query, accents optional"`
	Chambre string `json:"chambre,omitempty" jsonschema:"restrict to a chamber, e.g. chambre_sociale or civ1; use empty for decisions without one"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Offset  int    `json:"offset,omitempty" jsonschema:"number of results to skip"`
}

// ListInput is the input schema for the list_decisions tool.
type ListInput struct {
	Chambre string `json:"chambre,omitempty" jsonschema:"restrict to a chamber; use empty for decisions without one"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Offset  int    `json:"offset,omitempty" jsonschema:"number of results to skip"`
}

// GetInput is the input schema for the get_decision tool.
type GetInput struct {
	TextID string `json:"text_id" jsonschema:"the decision identifier, e.g. JURITEXT000048227010"`
}

// DecisionsOutput is the output schema for search and list tools.
type DecisionsOutput struct {
	Results []DecisionSummary `json:"results"`
	Count   int               `json:"count"`
}

// DecisionSummary is one search or listing row.
type DecisionSummary struct {
	TextID       string  `json:"text_id"`
	Titre        string  `json:"titre,omitempty"`
	Chambre      string  `json:"chambre,omitempty"`
	DateDecision string  `json:"date_decision,omitempty"`
	Score        float64 `json:"score,omitempty"`
}

// DecisionOutput is the output schema for the get_decision tool.
type DecisionOutput struct {
	Found    bool             `json:"found"`
	Decision *domain.Decision `json:"decision,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_decisions",
		Description: "Ranked full-text search over court decisions",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_decisions",
		Description: "List court decisions ordered by identifier, optionally within one chamber",
	}, s.handleList)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_decision",
		Description: "Fetch one court decision with its full text",
	}, s.handleGet)
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, DecisionsOutput, error) {
	if input.Query == "" {
		return nil, DecisionsOutput{}, errors.New("query is required")
	}
	q := domain.DecisionQuery{
		Search:  input.Query,
		Chambre: optional(input.Chambre),
		Limit:   toolLimit(input.Limit),
		Offset:  input.Offset,
	}
	return s.runQuery(ctx, q)
}

func (s *Server) handleList(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListInput,
) (*mcp.CallToolResult, DecisionsOutput, error) {
	q := domain.DecisionQuery{
		Chambre: optional(input.Chambre),
		Limit:   toolLimit(input.Limit),
		Offset:  input.Offset,
	}
	return s.runQuery(ctx, q)
}

func (s *Server) handleGet(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetInput,
) (*mcp.CallToolResult, DecisionOutput, error) {
	d, err := s.ports.Query.Get(ctx, input.TextID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, DecisionOutput{}, nil
	}
	if err != nil {
		return nil, DecisionOutput{}, err
	}
	return nil, DecisionOutput{Found: true, Decision: d}, nil
}

func (s *Server) runQuery(ctx context.Context, q domain.DecisionQuery) (*mcp.CallToolResult, DecisionsOutput, error) {
	results, err := s.ports.Query.Query(ctx, q)
	if err != nil {
		return nil, DecisionsOutput{}, err
	}

	output := DecisionsOutput{
		Results: make([]DecisionSummary, len(results)),
		Count:   len(results),
	}
	for i := range results {
		d := results[i].Decision
		output.Results[i] = DecisionSummary{
			TextID:  d.TextID,
			Titre:   d.Titre,
			Chambre: d.Chambre,
			Score:   results[i].Score,
		}
		if d.DateDecision != nil {
			output.Results[i].DateDecision = d.DateDecision.Format(time.DateOnly)
		}
	}
	return nil, output, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toolLimit(n int) int {
	if n <= 0 {
		return defaultToolLimit
	}
	return n
}
