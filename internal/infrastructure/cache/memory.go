package cache

import (
	"context"
	"sync"
	"time"

	"github.com/layoutverifier/backend/internal/domain"
)

// DefaultCleanupInterval is how often expired sessions are swept
const DefaultCleanupInterval = 10 * time.Minute

// sessionItem represents a single session in the store with expiration
type sessionItem struct {
	Session    domain.Session
	Expiration time.Time
}

// EvictFunc is called with every session removed by expiry or Delete
type EvictFunc func(session *domain.Session)

// MemorySessionStore is a thread-safe in-memory session store with TTL support
type MemorySessionStore struct {
	data    map[string]sessionItem
	mutex   sync.RWMutex
	onEvict EvictFunc
	stop    chan struct{}
	once    sync.Once
}

// NewMemorySessionStore creates a new in-memory session store. onEvict may be nil.
func NewMemorySessionStore(cleanupInterval time.Duration, onEvict EvictFunc) *MemorySessionStore {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}

	store := &MemorySessionStore{
		data:    make(map[string]sessionItem),
		onEvict: onEvict,
		stop:    make(chan struct{}),
	}

	go store.cleanupExpired(cleanupInterval)

	return store
}

// Get retrieves a copy of a session from the store
func (c *MemorySessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[id]
	if !exists {
		return nil, domain.ErrSessionNotFound
	}

	// Check if expired
	if time.Now().After(item.Expiration) {
		return nil, domain.ErrSessionNotFound
	}

	session := cloneSession(item.Session)
	return &session, nil
}

// Set stores a copy of the session with TTL, replacing any previous version
func (c *MemorySessionStore) Set(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidRequest
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Copy so callers cannot mutate stored state without another Set
	c.data[session.ID] = sessionItem{
		Session:    cloneSession(*session),
		Expiration: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a session from the store
func (c *MemorySessionStore) Delete(ctx context.Context, id string) error {
	c.mutex.Lock()
	item, exists := c.data[id]
	delete(c.data, id)
	c.mutex.Unlock()

	if exists && c.onEvict != nil {
		c.onEvict(&item.Session)
	}
	return nil
}

// Exists checks if a session exists in the store and is not expired
func (c *MemorySessionStore) Exists(ctx context.Context, id string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[id]
	if !exists {
		return false, nil
	}

	// Check if expired
	if time.Now().After(item.Expiration) {
		return false, nil
	}

	return true, nil
}

// Close stops the cleanup goroutine
func (c *MemorySessionStore) Close() {
	c.once.Do(func() { close(c.stop) })
}

// cleanupExpired removes expired sessions from the store periodically
func (c *MemorySessionStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep(time.Now())
		}
	}
}

// sweep drops sessions expired at now and runs the evict hook outside the lock
func (c *MemorySessionStore) sweep(now time.Time) {
	var evicted []domain.Session

	c.mutex.Lock()
	for id, item := range c.data {
		if now.After(item.Expiration) {
			evicted = append(evicted, item.Session)
			delete(c.data, id)
		}
	}
	c.mutex.Unlock()

	if c.onEvict == nil {
		return
	}
	for i := range evicted {
		c.onEvict(&evicted[i])
	}
}

// Size returns the current number of sessions in the store (for debugging/monitoring)
func (c *MemorySessionStore) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

func cloneSession(s domain.Session) domain.Session {
	s.LayoutPaths = append([]string(nil), s.LayoutPaths...)
	s.LayoutNames = append([]string(nil), s.LayoutNames...)
	return s
}
