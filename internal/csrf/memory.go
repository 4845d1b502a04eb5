package csrf

import (
	"context"
	"sync"
	"time"

	"github.com/duchm/foliogate/params"
)

type entry struct {
	token     string
	expiresAt time.Time
}

// MemoryStore is the default single-process backing: a mutex-guarded map
// swept periodically so expired entries never accumulate.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[uint]entry
	done    chan struct{}
	once    sync.Once
}

func (s *MemoryStore) Issue(ctx context.Context, adminID uint) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.entries[adminID] = entry{
		token:     token,
		expiresAt: time.Now().Add(params.CSRFTokenExpiration),
	}
	s.mu.Unlock()
	return token, nil
}

func (s *MemoryStore) Validate(ctx context.Context, adminID uint, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.entries[adminID]
	if !ok {
		return false
	}
	if time.Now().After(stored.expiresAt) {
		delete(s.entries, adminID)
		return false
	}
	return stored.token == token
}

func (s *MemoryStore) Revoke(ctx context.Context, adminID uint) error {
	s.mu.Lock()
	delete(s.entries, adminID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	now := time.Now()
	for adminID, stored := range s.entries {
		if now.After(stored.expiresAt) {
			delete(s.entries, adminID)
		}
	}
	s.mu.Unlock()
}

func (s *MemoryStore) runSweeper(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[uint]entry),
		done:    make(chan struct{}),
	}
	go s.runSweeper(params.CSRFSweepInterval)
	return s
}
