package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// DateLayout is the canonical textual form of a decision date.
const DateLayout = "2006-01-02"

// Decision is a canonical court ruling.
// It is the only persisted entity and is keyed by TextID.
type Decision struct {
	// TextID is the source document identifier (e.g. JURITEXT000048283805).
	TextID string `json:"text_id" yaml:"text_id"`

	// Chambre is the canonical chamber label; empty when the source has none.
	Chambre string `json:"chambre" yaml:"chambre"`

	// Titre is the human-readable title given by the publisher.
	Titre string `json:"titre,omitempty" yaml:"titre,omitempty"`

	// DateDecision is the date of the ruling, nil when unknown.
	DateDecision *time.Time `json:"date_decision,omitempty" yaml:"date_decision,omitempty"`

	// Contenu is the decision body. Never empty once normalised.
	Contenu string `json:"contenu" yaml:"contenu"`

	// Metadata holds auxiliary source fields that are not modelled individually.
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Revision labels the archive this version was read from.
	Revision string `json:"revision,omitempty" yaml:"revision,omitempty"`

	// ContentHash fingerprints the canonical fields, see ComputeHash.
	ContentHash string `json:"content_hash,omitempty" yaml:"content_hash,omitempty"`

	// IngestedAt is when the decision was first stored.
	IngestedAt time.Time `json:"ingested_at" yaml:"ingested_at"`

	// UpdatedAt is when the stored version last changed.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// ComputeHash returns a SHA-256 over the canonical fields.
// Revision and timestamps are excluded so the same document read from two
// archives hashes identically.
func (d *Decision) ComputeHash() string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(d.TextID)
	write(d.Chambre)
	write(d.Titre)
	if d.DateDecision != nil {
		write(d.DateDecision.UTC().Format(DateLayout))
	} else {
		write("")
	}
	write(d.Contenu)
	// encoding/json sorts map keys, which keeps the digest stable.
	meta, _ := json.Marshal(d.Metadata) //nolint:errcheck // metadata holds only JSON-safe values
	h.Write(meta)
	return hex.EncodeToString(h.Sum(nil))
}

// UpsertOutcome is the effect an upsert had on the store.
type UpsertOutcome string

// Upsert outcomes.
const (
	// OutcomeInserted means the text_id was absent and a row was created.
	OutcomeInserted UpsertOutcome = "inserted"

	// OutcomeUpdated means a stored version was replaced by the incoming one.
	OutcomeUpdated UpsertOutcome = "updated"

	// OutcomeUnchanged means the stored version has identical content.
	OutcomeUnchanged UpsertOutcome = "unchanged"

	// OutcomeSuperseded means the stored version outranks the incoming one.
	OutcomeSuperseded UpsertOutcome = "superseded"
)

// ResolveVersion decides what an upsert of incoming does given the stored
// version (nil when absent).
//
// Identical hashes are unchanged. Otherwise the greater (Revision,
// ContentHash) pair wins. The rule does not depend on arrival order, so
// concurrent writers of the same text_id converge on one row.
func ResolveVersion(existing, incoming *Decision) UpsertOutcome {
	if existing == nil {
		return OutcomeInserted
	}
	if existing.ContentHash == incoming.ContentHash {
		return OutcomeUnchanged
	}
	if Outranks(incoming.Revision, incoming.ContentHash, existing.Revision, existing.ContentHash) {
		return OutcomeUpdated
	}
	return OutcomeSuperseded
}

// Outranks compares two version keys lexicographically.
func Outranks(revA, hashA, revB, hashB string) bool {
	if revA != revB {
		return revA > revB
	}
	return hashA > hashB
}

// DecisionResult is one row returned by the query engine.
type DecisionResult struct {
	// Decision is the matched record.
	Decision Decision `json:"decision" yaml:"decision"`

	// Score is the relevance score for text search; zero for listings.
	Score float64 `json:"score" yaml:"score"`
}
