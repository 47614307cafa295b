package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/core/ports/driven"
	"github.com/custodia-labs/cassation/internal/fold"
)

// Ensure DecisionStore implements the interfaces.
var (
	_ driven.DecisionStore = (*DecisionStore)(nil)
	_ driven.ArchiveLedger = (*DecisionStore)(nil)
)

// DecisionStore is an in-memory implementation of driven.DecisionStore
// and driven.ArchiveLedger. Search scores are raw term frequencies over
// the folded title and body.
type DecisionStore struct {
	mu        sync.RWMutex
	decisions map[string]domain.Decision
	words     map[string][]string
	archives  map[string]domain.ArchiveRun
	closed    bool
	now       func() time.Time
}

// NewDecisionStore creates a new in-memory decision store.
func NewDecisionStore() *DecisionStore {
	return &DecisionStore{
		decisions: make(map[string]domain.Decision),
		words:     make(map[string][]string),
		archives:  make(map[string]domain.ArchiveRun),
		now:       time.Now,
	}
}

// Ping fails once the store is closed.
func (s *DecisionStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreUnavailable
	}
	return nil
}

// Upsert writes d according to domain.ResolveVersion.
func (s *DecisionStore) Upsert(_ context.Context, d *domain.Decision) (domain.UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", &domain.StoreWriteError{TextID: d.TextID, Err: domain.ErrStoreUnavailable}
	}

	var existing *domain.Decision
	if cur, ok := s.decisions[d.TextID]; ok {
		existing = &cur
	}

	outcome := domain.ResolveVersion(existing, d)
	now := s.now().UTC()

	switch outcome {
	case domain.OutcomeInserted:
		stored := *d
		stored.IngestedAt = now
		stored.UpdatedAt = now
		s.put(stored)
	case domain.OutcomeUpdated:
		stored := *d
		stored.IngestedAt = existing.IngestedAt
		stored.UpdatedAt = now
		s.put(stored)
	}
	return outcome, nil
}

func (s *DecisionStore) put(d domain.Decision) {
	s.decisions[d.TextID] = d
	s.words[d.TextID] = fold.Words(d.Titre + " " + d.Contenu)
}

// Get retrieves a decision by text_id.
func (s *DecisionStore) Get(_ context.Context, textID string) (*domain.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.decisions[textID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

// List returns decisions matching filter ordered by text_id.
func (s *DecisionStore) List(_ context.Context, filter domain.DecisionFilter, page domain.Page) ([]domain.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Decision
	for _, d := range s.decisions {
		if matches(d, filter) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TextID < out[j].TextID })
	return paginate(out, page), nil
}

// Search returns decisions containing every term, best first.
func (s *DecisionStore) Search(_ context.Context, terms []string, filter domain.DecisionFilter, page domain.Page) ([]domain.DecisionResult, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	folded := make([]string, 0, len(terms))
	for _, t := range terms {
		folded = append(folded, fold.Words(t)...)
	}
	if len(folded) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.DecisionResult
	for id, d := range s.decisions {
		if !matches(d, filter) {
			continue
		}
		if score := termScore(s.words[id], folded); score > 0 {
			out = append(out, domain.DecisionResult{Decision: d, Score: score})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Decision.TextID < out[j].Decision.TextID
	})
	return paginate(out, page), nil
}

// Count returns the number of stored decisions.
func (s *DecisionStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.decisions), nil
}

// Close marks the store unavailable.
func (s *DecisionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// LookupArchive returns the ledger entry for digest.
func (s *DecisionStore) LookupArchive(_ context.Context, digest string) (*domain.ArchiveRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.archives[digest]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

// RecordArchive stores or replaces the ledger entry for run.Digest.
func (s *DecisionStore) RecordArchive(_ context.Context, run domain.ArchiveRun) error {
	if run.Digest == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archives[run.Digest] = run
	return nil
}

func matches(d domain.Decision, filter domain.DecisionFilter) bool {
	return filter.Chambre == nil || d.Chambre == *filter.Chambre
}

// termScore counts occurrences of each term; zero unless all terms occur.
func termScore(words, terms []string) float64 {
	var total float64
	for _, term := range terms {
		n := 0
		for _, w := range words {
			if w == term {
				n++
			}
		}
		if n == 0 {
			return 0
		}
		total += float64(n)
	}
	return total
}

func paginate[T any](items []T, page domain.Page) []T {
	if page.Offset >= len(items) {
		return nil
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}
