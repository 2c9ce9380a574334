package store

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store
type MemoryStore struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger

	// OnExpire is called with the number of datasets each cleanup removed.
	OnExpire func(n int)

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewMemoryStore creates a new in-memory store. A non-positive ttl keeps
// datasets until deleted.
func NewMemoryStore(ttl time.Duration, logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{
		datasets: make(map[string]*Dataset),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "memory_store")),
		stop:     make(chan struct{}),
	}
}

// Put stores d, replacing any dataset with the same ID.
func (s *MemoryStore) Put(_ context.Context, d *Dataset) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.ExpiresAt = time.Time{}
	if s.ttl > 0 && !d.Pinned {
		d.ExpiresAt = s.now().Add(s.ttl)
	}
	_, exists := s.datasets[d.ID]
	s.datasets[d.ID] = d
	return !exists, nil
}

// Get retrieves a dataset by ID. The table is shared, not copied.
func (s *MemoryStore) Get(_ context.Context, id string) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.datasets[id]
	if !exists || s.expired(d) {
		return nil, ErrNotFound
	}
	return d, nil
}

// Delete removes a dataset from the store
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.datasets[id]; !exists {
		return ErrNotFound
	}
	delete(s.datasets, id)
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) expired(d *Dataset) bool {
	return !d.ExpiresAt.IsZero() && !s.now().Before(d.ExpiresAt)
}

// CleanupExpired removes datasets past their expiry and returns how many.
func (s *MemoryStore) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, d := range s.datasets {
		if s.expired(d) {
			delete(s.datasets, id)
			deleted++
		}
	}
	return deleted
}

// Len returns the number of stored datasets, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}

// StartJanitor runs CleanupExpired every interval until Close or ctx ends.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.done != nil {
		return
	}
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				if n := s.CleanupExpired(); n > 0 {
					s.logger.Info("expired datasets removed", slog.Int("count", n))
					if s.OnExpire != nil {
						s.OnExpire(n)
					}
				}
			}
		}
	}()
}

// Close stops the janitor and waits for it to exit.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.done != nil {
		<-s.done
	}
	return nil
}
