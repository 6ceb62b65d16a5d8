package chathub

import (
	"sync"

	"chatrelay/backend/internal/models"
)

// RoomTracker holds the live set of every room: the users currently
// subscribed to that room's real-time events. It is independent of
// persisted membership, which governs authorization only.
type RoomTracker struct {
	mu    sync.RWMutex
	rooms map[models.RoomRef]map[string]struct{}
}

func NewRoomTracker() *RoomTracker {
	return &RoomTracker{rooms: make(map[models.RoomRef]map[string]struct{})}
}

// Add puts the user into the room's live set. It reports whether the
// user was newly added; re-joining is a no-op for set contents.
func (t *RoomTracker) Add(userID string, room models.RoomRef) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.rooms[room]
	if !ok {
		set = make(map[string]struct{})
		t.rooms[room] = set
	}
	if _, present := set[userID]; present {
		return false
	}
	set[userID] = struct{}{}
	return true
}

// Remove takes the user out of the room's live set. Removing a user who
// is not tracked is a silent no-op.
func (t *RoomTracker) Remove(userID string, room models.RoomRef) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.rooms[room]
	if !ok {
		return false
	}
	if _, present := set[userID]; !present {
		return false
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(t.rooms, room)
	}
	return true
}

// RemoveAll drops the user from every live set and returns the rooms
// they were removed from. Used by disconnect teardown.
func (t *RoomTracker) RemoveAll(userID string) []models.RoomRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	var affected []models.RoomRef
	for room, set := range t.rooms {
		if _, present := set[userID]; !present {
			continue
		}
		delete(set, userID)
		if len(set) == 0 {
			delete(t.rooms, room)
		}
		affected = append(affected, room)
	}
	return affected
}

// Members returns a snapshot of the room's live set.
func (t *RoomTracker) Members(room models.RoomRef) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	set := t.rooms[room]
	out := make([]string, 0, len(set))
	for userID := range set {
		out = append(out, userID)
	}
	return out
}

// Contains reports whether the user is in the room's live set.
func (t *RoomTracker) Contains(userID string, room models.RoomRef) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, present := t.rooms[room][userID]
	return present
}
