package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/cassation/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for cassation resources.
	uriScheme = "cassation://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "decisions/{textId}",
		Name:        "decision-content",
		Description: "Full text of a court decision",
		MIMEType:    "text/plain",
	}, s.handleDecisionResource)
}

// handleDecisionResource returns the text of one decision.
func (s *Server) handleDecisionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	textID := extractTextID(req.Params.URI)
	if textID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	d, err := s.ports.Query.Get(ctx, textID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting decision: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     renderDecision(d),
		}},
	}, nil
}

// renderDecision formats a decision as a short header followed by its body.
func renderDecision(d *domain.Decision) string {
	var b strings.Builder
	if d.Titre != "" {
		b.WriteString(d.Titre)
		b.WriteString("\n")
	}
	if d.Chambre != "" {
		fmt.Fprintf(&b, "Chambre: %s\n", d.Chambre)
	}
	if d.DateDecision != nil {
		fmt.Fprintf(&b, "Date: %s\n", d.DateDecision.Format(time.DateOnly))
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(d.Contenu)
	return b.String()
}

// extractTextID extracts the id from a URI like cassation://decisions/{textId}.
func extractTextID(uri string) string {
	const prefix = uriScheme + "decisions/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
