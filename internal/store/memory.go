package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AngelCh415/mediaplan-go/internal/models"
)

// Dataset is an immutable snapshot of one uploaded media plan. Callers must
// not modify Records.
type Dataset struct {
	ID       string
	Source   string
	LoadedAt time.Time
	Records  []models.Record
}

// MemoryStore holds the current dataset. Uploads replace it wholesale;
// readers keep whatever snapshot they already took.
type MemoryStore struct {
	mu  sync.RWMutex
	cur *Dataset
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Replace installs a new dataset built from a private copy of recs.
func (s *MemoryStore) Replace(source string, recs []models.Record) Dataset {
	ds := &Dataset{
		ID:       uuid.NewString(),
		Source:   source,
		LoadedAt: s.now().UTC(),
		Records:  append([]models.Record(nil), recs...),
	}
	s.mu.Lock()
	s.cur = ds
	s.mu.Unlock()
	return *ds
}

func (s *MemoryStore) Current() (Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return Dataset{}, false
	}
	return *s.cur, true
}

// Reset drops the dataset; it reports whether there was one.
func (s *MemoryStore) Reset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.cur != nil
	s.cur = nil
	return had
}
