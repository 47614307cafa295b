package driven

import "github.com/custodia-labs/cassation/internal/core/domain"

// Parser converts one XML payload into a raw record.
// Every failure is returned as a *domain.ParseError; Parse never panics on
// malformed input. Implementations are not required to be safe for
// concurrent use.
type Parser interface {
	Parse(payload domain.Payload) (*domain.RawRecord, error)
}

// Normaliser turns a raw record into a canonical Decision.
// Failures are returned as *domain.NormalisationRejection.
type Normaliser interface {
	Normalise(raw *domain.RawRecord) (*domain.Decision, error)

	// CanonicalChambre maps a chamber label onto the fixed vocabulary.
	CanonicalChambre(label string) string
}

// DocumentPipeline builds the per-worker parser and normaliser pair.
// Each ingestion worker owns its own instances.
type DocumentPipeline interface {
	NewParser() Parser
	NewNormaliser() Normaliser
}
