package marker

import (
	"context"
	"sync"
	"time"

	"storefront-bridge/internal/ports"
)

// sweepInterval bounds how often Acquire scans for expired markers
const sweepInterval = time.Minute

// MemoryStore implements MarkerStore in process memory for single-instance deployments
type MemoryStore struct {
	mu        sync.Mutex
	markers   map[string]time.Time
	now       func() time.Time
	nextSweep time.Time
}

var _ ports.MarkerStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		markers: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !now.Before(s.nextSweep) {
		s.sweep(now)
	}
	if expires, ok := s.markers[key]; ok && now.Before(expires) {
		return false, nil
	}
	s.markers[key] = now.Add(ttl)
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.markers, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Held(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.markers[key]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expires) {
		delete(s.markers, key)
		return false, nil
	}
	return true, nil
}

// sweep drops expired markers; callers hold mu
func (s *MemoryStore) sweep(now time.Time) {
	for key, expires := range s.markers {
		if !now.Before(expires) {
			delete(s.markers, key)
		}
	}
	s.nextSweep = now.Add(sweepInterval)
}
