// Package tui provides an interactive terminal browser for stored decisions.
package tui

import (
	"github.com/custodia-labs/cassation/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI needs.
type Ports struct {
	// Query answers lookups, listings and searches.
	Query driving.QueryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
