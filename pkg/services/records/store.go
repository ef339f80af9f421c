package records

import (
	"slices"
	"sync"

	"github.com/de-tools/book-atlas/pkg/models/domain"
)

// Store holds the loaded dataset (raw) and the currently filtered subset.
// Writes come from the dashboard controller only; the lock keeps HTTP readers consistent.
type Store struct {
	mu         sync.RWMutex
	columns    []string
	raw        []domain.Record
	filtered   []domain.Record
	generation uint64
	committed  uint64
}

func NewStore() *Store {
	return &Store{}
}

// Load replaces raw wholesale and resets filtered to a copy of it.
func (s *Store) Load(ds domain.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ds)
}

func (s *Store) load(ds domain.Dataset) {
	s.columns = slices.Clone(ds.Columns)
	s.raw = slices.Clone(ds.Records)
	s.filtered = slices.Clone(s.raw)
}

// BeginLoad reserves a generation token for a load about to start.
func (s *Store) BeginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// Commit installs ds only if token belongs to the most recently started load.
// It reports whether the dataset was installed.
func (s *Store) Commit(token uint64, ds domain.Dataset) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.generation {
		return false
	}
	s.load(ds)
	s.committed = token
	return true
}

// IsLatest reports whether token is still the newest load generation.
func (s *Store) IsLatest(token uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return token == s.generation
}

// SetFiltered replaces the filtered subset. The caller computes it from Raw.
func (s *Store) SetFiltered(records []domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filtered = slices.Clone(records)
}

// Reset makes the filtered subset a copy of raw again.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filtered = slices.Clone(s.raw)
}

func (s *Store) Raw() []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.raw)
}

func (s *Store) Filtered() []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.filtered)
}

func (s *Store) Columns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.columns)
}

// CurrentView returns filtered when it is non-empty, raw otherwise.
// An empty filter result is therefore indistinguishable from no filtering here;
// callers that need the difference use Filtered.
func (s *Store) CurrentView() []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.filtered) > 0 {
		return slices.Clone(s.filtered)
	}
	return slices.Clone(s.raw)
}

// Len returns the raw and filtered sizes.
func (s *Store) Len() (raw, filtered int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.raw), len(s.filtered)
}

// Loaded reports whether any load has committed through Commit.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed > 0
}
