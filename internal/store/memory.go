package store

import (
	"context"
	"sync"

	"github.com/fleetops/statushub/internal/status"
)

// MemoryStore keeps records in process memory. It backs the --memory serve
// mode and the tests; semantics match SQLiteStore, including insertion-order
// listing and never-reused ids.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	records []status.Record
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (m *MemoryStore) Insert(ctx context.Context, rec status.Record) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = m.nextID
	m.nextID++
	m.records = append(m.records, rec)
	return rec.ID, nil
}

func (m *MemoryStore) Get(ctx context.Context, id int64) (status.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return status.Record{}, status.ErrNotFound
}

func (m *MemoryStore) Replace(ctx context.Context, rec status.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == rec.ID {
			// Replacement keeps the record's slot: insertion order is id
			// order, not last-write order.
			m.records[i] = rec
			return nil
		}
	}
	return status.ErrNotFound
}

func (m *MemoryStore) DeleteDevice(ctx context.Context, deviceID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.records[:0]
	var removed int64
	for _, rec := range m.records {
		if rec.DeviceID == deviceID {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	m.records = kept
	if removed == 0 {
		return 0, status.ErrNotFound
	}
	return removed, nil
}

func (m *MemoryStore) ListByDevice(ctx context.Context, deviceID string) ([]status.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]status.Record, 0)
	for _, rec := range m.records {
		if rec.DeviceID == deviceID {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (m *MemoryStore) ListAll(ctx context.Context) ([]status.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]status.Record, len(m.records))
	copy(result, m.records)
	return result, nil
}

func (m *MemoryStore) Close() error { return nil }
