package progress

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps progress in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records map[string][]Record
}

// NewMemoryStore creates a new in-memory progress store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]Record)}
}

func (m *MemoryStore) Append(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	rec.ID = m.nextID
	m.records[rec.JobID] = append(m.records[rec.JobID], *rec)
	return nil
}

func (m *MemoryStore) Latest(ctx context.Context, jobID string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := m.records[jobID]
	if len(recs) == 0 {
		return nil, ErrNoProgress
	}
	latest := recs[len(recs)-1]
	return &latest, nil
}

func (m *MemoryStore) List(ctx context.Context, jobID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]Record(nil), m.records[jobID]...), nil
}

func (m *MemoryStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for jobID, recs := range m.records {
		kept := recs[:0]
		for _, r := range recs {
			if r.CreatedAt.Before(cutoff) {
				deleted++
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(m.records, jobID)
		} else {
			m.records[jobID] = kept
		}
	}
	return deleted, nil
}
