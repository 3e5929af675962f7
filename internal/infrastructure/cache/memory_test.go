package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/layoutverifier/backend/internal/domain"
)

func newTestStore(t *testing.T, onEvict EvictFunc) *MemorySessionStore {
	t.Helper()
	store := NewMemorySessionStore(time.Hour, onEvict)
	t.Cleanup(store.Close)
	return store
}

func TestMemorySessionStore_SetAndGet(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		session *domain.Session
		ttl     time.Duration
		wantErr bool
	}{
		{
			name:    "store and retrieve session",
			session: &domain.Session{ID: "s-1", Status: domain.SessionIdle, LayoutNames: []string{"1 a.ai"}},
			ttl:     1 * time.Minute,
		},
		{
			name:    "store with short TTL",
			session: &domain.Session{ID: "s-2", Status: domain.SessionIdle},
			ttl:     1 * time.Millisecond,
		},
		{
			name:    "reject session without id",
			session: &domain.Session{},
			ttl:     1 * time.Minute,
			wantErr: true,
		},
		{
			name:    "reject nil session",
			session: nil,
			ttl:     1 * time.Minute,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Set(ctx, tt.session, tt.ttl)
			if (err != nil) != tt.wantErr {
				t.Errorf("Set() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			// For short TTL test, wait for expiration
			if tt.ttl < 10*time.Millisecond {
				time.Sleep(10 * time.Millisecond)
				_, err := store.Get(ctx, tt.session.ID)
				if err != domain.ErrSessionNotFound {
					t.Errorf("Expected not found after expiration, got error = %v", err)
				}
				return
			}

			got, err := store.Get(ctx, tt.session.ID)
			if err != nil {
				t.Errorf("Get() error = %v", err)
				return
			}
			if got.ID != tt.session.ID || got.Status != tt.session.Status {
				t.Errorf("Get() = %+v, want %+v", got, tt.session)
			}
		})
	}
}

func TestMemorySessionStore_StoresCopies(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	session := &domain.Session{ID: "copy", LayoutNames: []string{"1 a.ai"}}
	if err := store.Set(ctx, session, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	session.LayoutNames[0] = "changed"
	session.Status = domain.SessionError

	got, err := store.Get(ctx, "copy")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.LayoutNames[0] != "1 a.ai" || got.Status != "" {
		t.Errorf("stored session mutated through caller pointer: %+v", got)
	}

	got.LayoutNames[0] = "changed again"
	again, _ := store.Get(ctx, "copy")
	if again.LayoutNames[0] != "1 a.ai" {
		t.Errorf("stored session mutated through Get result: %+v", again)
	}
}

func TestMemorySessionStore_Get_NotFound(t *testing.T) {
	store := newTestStore(t, nil)

	_, err := store.Get(context.Background(), "non-existent")
	if err != domain.ErrSessionNotFound {
		t.Errorf("Get() error = %v, want %v", err, domain.ErrSessionNotFound)
	}
}

func TestMemorySessionStore_Delete(t *testing.T) {
	var evicted []string
	store := newTestStore(t, func(s *domain.Session) { evicted = append(evicted, s.ID) })
	ctx := context.Background()

	if err := store.Set(ctx, &domain.Session{ID: "delete-test"}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := store.Delete(ctx, "delete-test"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}

	if _, err := store.Get(ctx, "delete-test"); err != domain.ErrSessionNotFound {
		t.Errorf("Get() after delete error = %v, want %v", err, domain.ErrSessionNotFound)
	}

	// Deleting an unknown id is a no-op
	if err := store.Delete(ctx, "delete-test"); err != nil {
		t.Errorf("Delete() second call error = %v", err)
	}

	if len(evicted) != 1 || evicted[0] != "delete-test" {
		t.Errorf("evicted = %v, want [delete-test]", evicted)
	}
}

func TestMemorySessionStore_Exists(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "exists-test")
	if err != nil {
		t.Errorf("Exists() error = %v", err)
	}
	if exists {
		t.Errorf("Exists() = true, want false for unknown session")
	}

	if err := store.Set(ctx, &domain.Session{ID: "exists-test"}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	exists, _ = store.Exists(ctx, "exists-test")
	if !exists {
		t.Errorf("Exists() = false, want true after Set")
	}

	if err := store.Set(ctx, &domain.Session{ID: "short-ttl"}, time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	exists, _ = store.Exists(ctx, "short-ttl")
	if exists {
		t.Errorf("Exists() = true, want false after expiration")
	}
}

func TestMemorySessionStore_Sweep(t *testing.T) {
	var mu sync.Mutex
	var evicted []string
	store := newTestStore(t, func(s *domain.Session) {
		mu.Lock()
		evicted = append(evicted, s.ID)
		mu.Unlock()
	})
	ctx := context.Background()

	_ = store.Set(ctx, &domain.Session{ID: "old"}, time.Minute)
	_ = store.Set(ctx, &domain.Session{ID: "fresh"}, time.Hour)

	store.sweep(time.Now().Add(30 * time.Minute))

	if size := store.Size(); size != 1 {
		t.Errorf("Size() = %d, want 1 after sweep", size)
	}
	if len(evicted) != 1 || evicted[0] != "old" {
		t.Errorf("evicted = %v, want [old]", evicted)
	}
}

func TestMemorySessionStore_Concurrent(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			session := &domain.Session{ID: fmt.Sprintf("s-%d", id)}
			if err := store.Set(ctx, session, time.Minute); err != nil {
				t.Errorf("Concurrent Set() error = %v", err)
			}
			if _, err := store.Get(ctx, session.ID); err != nil {
				t.Errorf("Concurrent Get() error = %v", err)
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	if size := store.Size(); size != 10 {
		t.Errorf("Size() = %d, want 10", size)
	}
}
