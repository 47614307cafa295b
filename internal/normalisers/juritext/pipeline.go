package juritext

import "github.com/custodia-labs/cassation/internal/core/ports/driven"

// Ensure Pipeline implements the interface.
var _ driven.DocumentPipeline = Pipeline{}

// Pipeline hands each ingestion worker its own parser and normaliser.
type Pipeline struct{}

// NewParser returns a fresh parser.
func (Pipeline) NewParser() driven.Parser { return NewParser() }

// NewNormaliser returns a fresh normaliser.
func (Pipeline) NewNormaliser() driven.Normaliser { return New() }
