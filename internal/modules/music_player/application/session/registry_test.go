package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/disgoorg/snowflake/v2"
)

func newRegistrySession(t *testing.T, guildID snowflake.ID) *Session {
	t.Helper()
	s := New(guildID, newFakeSink(), &fakeNotifier{}, nil, Config{}, nil)
	t.Cleanup(func() {
		_ = s.Close(context.Background())
	})
	return s
}

func TestRegistryGetOrCreate(t *testing.T) {
	registry := NewRegistry()
	guildID := snowflake.ID(1)

	first, created, err := registry.GetOrCreate(guildID, func() (*Session, error) {
		return newRegistrySession(t, guildID), nil
	})
	if err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	if !created {
		t.Error("first GetOrCreate did not report creation")
	}

	second, created, err := registry.GetOrCreate(guildID, func() (*Session, error) {
		t.Fatal("factory called for an existing session")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	if created {
		t.Error("second GetOrCreate reported creation")
	}
	if first != second {
		t.Error("GetOrCreate returned different sessions for the same guild")
	}
}

func TestRegistryGetOrCreatePropagatesFactoryError(t *testing.T) {
	registry := NewRegistry()
	wantErr := errors.New("voice join failed")

	s, created, err := registry.GetOrCreate(snowflake.ID(1), func() (*Session, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("GetOrCreate error = %v, want %v", err, wantErr)
	}
	if s != nil || created {
		t.Errorf("GetOrCreate = (%v, %v), want (nil, false)", s, created)
	}
	if registry.Len() != 0 {
		t.Errorf("registry holds %d sessions after factory failure, want 0", registry.Len())
	}
}

func TestRegistryConcurrentGetOrCreate(t *testing.T) {
	const goroutines = 16

	registry := NewRegistry()
	guildID := snowflake.ID(1)

	var mu sync.Mutex
	var creations int
	results := make([]*Session, goroutines)

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, _, err := registry.GetOrCreate(guildID, func() (*Session, error) {
				mu.Lock()
				creations++
				mu.Unlock()
				return newRegistrySession(t, guildID), nil
			})
			if err != nil {
				t.Errorf("GetOrCreate returned error: %v", err)
				return
			}
			results[i] = s
		}(i)
	}
	wg.Wait()

	if creations != 1 {
		t.Errorf("factory ran %d times, want 1", creations)
	}
	for i, s := range results {
		if s != results[0] {
			t.Errorf("goroutine %d received a different session instance", i)
		}
	}
}

func TestRegistryRemove(t *testing.T) {
	registry := NewRegistry()
	guildID := snowflake.ID(1)

	if _, _, err := registry.GetOrCreate(guildID, func() (*Session, error) {
		return newRegistrySession(t, guildID), nil
	}); err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}

	registry.Remove(guildID)
	if registry.Get(guildID) != nil {
		t.Error("Get returned a session after Remove")
	}
	if registry.Len() != 0 {
		t.Errorf("Len = %d after Remove, want 0", registry.Len())
	}

	// Removing an absent guild is a no-op.
	registry.Remove(guildID)
}

func TestRegistrySnapshot(t *testing.T) {
	registry := NewRegistry()

	for _, id := range []snowflake.ID{1, 2, 3} {
		if _, _, err := registry.GetOrCreate(id, func() (*Session, error) {
			return newRegistrySession(t, id), nil
		}); err != nil {
			t.Fatalf("GetOrCreate returned error: %v", err)
		}
	}

	sessions := registry.Snapshot()
	if len(sessions) != 3 {
		t.Fatalf("Snapshot returned %d sessions, want 3", len(sessions))
	}
	seen := make(map[snowflake.ID]bool)
	for _, s := range sessions {
		seen[s.GuildID()] = true
	}
	for _, id := range []snowflake.ID{1, 2, 3} {
		if !seen[id] {
			t.Errorf("Snapshot missing session for guild %s", id)
		}
	}
}

func TestRegistryForEach(t *testing.T) {
	registry := NewRegistry()

	for _, id := range []snowflake.ID{1, 2} {
		if _, _, err := registry.GetOrCreate(id, func() (*Session, error) {
			return newRegistrySession(t, id), nil
		}); err != nil {
			t.Fatalf("GetOrCreate returned error: %v", err)
		}
	}

	var visited int
	registry.ForEach(func(s *Session) {
		visited++
		// Calling into the session must not deadlock against the registry.
		_ = s.State()
	})
	if visited != 2 {
		t.Errorf("ForEach visited %d sessions, want 2", visited)
	}
}
