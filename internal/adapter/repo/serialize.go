package repo

import (
	"context"
	"sync"

	"videoads/internal/domain"
)

// SerializedStore admits one write at a time to the wrapped store. Every
// Insert and Update holds the lock for its whole read-modify-write cycle.
type SerializedStore struct {
	mu    sync.Mutex
	inner domain.JobLogStore
}

// Serialize wraps store so concurrent workflow runs never interleave writes.
func Serialize(store domain.JobLogStore) *SerializedStore {
	return &SerializedStore{inner: store}
}

func (s *SerializedStore) Insert(ctx context.Context, fields domain.Fields) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Insert(ctx, fields)
}

func (s *SerializedStore) Update(ctx context.Context, id int64, fields domain.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Update(ctx, id, fields)
}

func (s *SerializedStore) Get(ctx context.Context, id int64) (*domain.Job, error) {
	return s.inner.Get(ctx, id)
}

func (s *SerializedStore) List(ctx context.Context, filter domain.ListFilter) ([]domain.Job, error) {
	return s.inner.List(ctx, filter)
}

var _ domain.JobLogStore = (*SerializedStore)(nil)
