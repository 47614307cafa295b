package juritext

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MetaKind is the metadata key recording the source schema.
const MetaKind = "kind"

// undatedPlaceholder is the date DILA uses for "no date".
const undatedPlaceholder = "2999-01-01"

// dateLayouts are tried in order by ParseDecisionDate.
var dateLayouts = []string{
	domain.DateLayout,
	time.RFC3339,
	"02/01/2006",
	"20060102",
	"2006/01/02",
}

// Text identifier validation errors.
var (
	errMissingTextID = errors.New("is missing")
	errTextIDSpace   = errors.New("contains whitespace")
)

// Normaliser turns raw records into canonical decisions.
type Normaliser struct{}

// New creates a new normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// CanonicalChambre maps a chamber label onto the fixed vocabulary.
func (n *Normaliser) CanonicalChambre(label string) string {
	return CanonicalChambre(label)
}

// Normalise cleans raw into a Decision or returns a
// *domain.NormalisationRejection.
func (n *Normaliser) Normalise(raw *domain.RawRecord) (*domain.Decision, error) {
	if raw == nil {
		return nil, &domain.NormalisationRejection{Field: "record", Reason: "is nil"}
	}

	reject := func(field, reason string) error {
		return &domain.NormalisationRejection{
			Path:   raw.Path,
			TextID: strings.TrimSpace(raw.ID),
			Field:  field,
			Reason: reason,
		}
	}

	contenu := CleanContenu(raw.Contenu)
	if contenu == "" {
		return nil, reject("contenu", "is empty")
	}

	chambre := CanonicalChambre(raw.Chambre)
	date := ParseDecisionDate(raw.Date)

	textID, err := ValidateTextID(raw.ID)
	if err != nil {
		return nil, reject("text_id", err.Error())
	}

	metadata := make(map[string]any, len(raw.Metadata)+1)
	for k, v := range raw.Metadata {
		if v = strings.TrimSpace(v); v != "" {
			metadata[k] = v
		}
	}
	if raw.Kind != "" {
		metadata[MetaKind] = string(raw.Kind)
	}

	d := &domain.Decision{
		TextID:       textID,
		Chambre:      chambre,
		Titre:        collapseSpaces(raw.Titre),
		DateDecision: date,
		Contenu:      contenu,
		Metadata:     metadata,
		Revision:     raw.Revision,
	}
	d.ContentHash = d.ComputeHash()
	return d, nil
}

// CleanContenu trims every line, collapses runs of whitespace inside a line
// and drops blank lines. The result is empty when the body has no text.
func CleanContenu(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = collapseSpaces(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// ParseDecisionDate tries the known layouts and returns nil when none
// matches or when the value is the "undated" placeholder.
func ParseDecisionDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || s == undatedPlaceholder {
		return nil
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &t
	}
	return nil
}

// ValidateTextID trims id and checks it can serve as a primary key.
func ValidateTextID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errMissingTextID
	}
	if strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return "", errTextIDSpace
	}
	return id, nil
}

// collapseSpaces trims s and replaces inner whitespace runs with one space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
