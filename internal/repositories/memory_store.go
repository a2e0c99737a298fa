package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"transportdesk/internal/domain/models"
)

// MemoryStore keeps transport requests in process memory. Used for local runs
// (DB_DRIVER=memory) and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]models.TransportRequest
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[int64]models.TransportRequest{}}
}

func (s *MemoryStore) Create(_ context.Context, r models.TransportRequest) (models.TransportRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	r.ID = s.nextID
	s.rows[r.ID] = r
	return r, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (models.TransportRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rows[id]
	if !ok {
		return models.TransportRequest{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) List(_ context.Context) ([]models.TransportRequest, error) {
	s.mu.RLock()
	out := make([]models.TransportRequest, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id int64, allowed []models.Status, to models.Status, at time.Time) (models.TransportRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[id]
	if !ok {
		return models.TransportRequest{}, ErrNotFound
	}
	if !statusIn(r.Status, allowed) {
		return r, StatusMismatchError{ID: id, Current: r.Status}
	}
	r.Status = to
	r.UpdatedAt = at
	s.rows[id] = r
	return r, nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64, allowed []models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[id]
	if !ok {
		return ErrNotFound
	}
	if allowed != nil && !statusIn(r.Status, allowed) {
		return StatusMismatchError{ID: id, Current: r.Status}
	}
	delete(s.rows, id)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
