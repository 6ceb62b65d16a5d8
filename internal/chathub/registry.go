package chathub

import "sync"

// Registry maps a user identity to its single live connection. It is the
// source of truth for "is this user online". Registration is
// last-connection-wins: a new connection replaces the entry and the
// replaced handle is returned to the caller for invalidation, so a stale
// handle can never be written to after a reconnect race.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Client
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Client)}
}

// Register stores the client as the user's current connection and
// returns the handle it replaced, if any.
func (r *Registry) Register(userID string, c Client) (replaced Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.conns[userID]
	r.conns[userID] = c
	if prev == c {
		return nil
	}
	return prev
}

// Unregister removes the user's entry only if it still points at the
// given client. It reports whether the entry was removed, which makes
// disconnect teardown idempotent: the second code path to report the
// same closure, and the teardown of a handle already replaced by a
// reconnect, both come back false.
func (r *Registry) Unregister(userID string, c Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[userID]; ok && cur == c {
		delete(r.conns, userID)
		return true
	}
	return false
}

// Get returns the user's live connection.
func (r *Registry) Get(userID string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[userID]
	return c, ok
}

// IsOnline reports whether the user has a live connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}

// Snapshot returns all live connections, for global fan-out.
func (r *Registry) Snapshot() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Client, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}
