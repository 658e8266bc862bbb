package session

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// Registry tracks the live session for each guild. At most one session
// exists per guild at any time.
type Registry struct {
	mu       sync.RWMutex
	sessions map[snowflake.ID]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[snowflake.ID]*Session),
	}
}

// GetOrCreate returns the guild's session, creating one via factory if
// none exists. The lookup and insert are atomic, so concurrent callers for
// the same guild all receive the same instance. The second return reports
// whether a new session was created.
func (r *Registry) GetOrCreate(guildID snowflake.ID, factory func() (*Session, error)) (*Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[guildID]; ok {
		return s, false, nil
	}

	s, err := factory()
	if err != nil {
		return nil, false, err
	}
	r.sessions[guildID] = s
	return s, true, nil
}

// Get returns the guild's session, or nil if none exists.
func (r *Registry) Get(guildID snowflake.ID) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sessions[guildID]
}

// Remove drops the guild's session from the registry. It does not close
// the session; terminating sessions remove themselves through their
// termination callback.
func (r *Registry) Remove(guildID snowflake.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, guildID)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// Snapshot returns the current sessions. The slice is a copy; callers may
// close the sessions without holding the registry lock.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// ForEach visits every live session. The visitor runs outside the registry
// lock, so it may call into the session's loop.
func (r *Registry) ForEach(visit func(*Session)) {
	for _, s := range r.Snapshot() {
		visit(s)
	}
}
