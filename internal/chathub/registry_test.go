package chathub_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chatrelay/backend/internal/chathub"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := chathub.NewRegistry()
	a := newMockClient("user_A")

	replaced := r.Register("user_A", a)
	assert.Nil(t, replaced)
	assert.True(t, r.IsOnline("user_A"))

	got, ok := r.Get("user_A")
	assert.True(t, ok)
	assert.Same(t, a, got.(*mockClient))
}

func TestRegistry_LastConnectionWins(t *testing.T) {
	r := chathub.NewRegistry()
	old := newMockClient("user_A")
	fresh := newMockClient("user_A")

	r.Register("user_A", old)
	replaced := r.Register("user_A", fresh)
	assert.Same(t, old, replaced.(*mockClient))

	got, _ := r.Get("user_A")
	assert.Same(t, fresh, got.(*mockClient))
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	r := chathub.NewRegistry()
	a := newMockClient("user_A")
	r.Register("user_A", a)

	assert.True(t, r.Unregister("user_A", a))
	assert.False(t, r.Unregister("user_A", a), "second unregister must be a no-op")
	assert.False(t, r.IsOnline("user_A"))
}

func TestRegistry_StaleHandleCannotEvictReplacement(t *testing.T) {
	r := chathub.NewRegistry()
	old := newMockClient("user_A")
	fresh := newMockClient("user_A")

	r.Register("user_A", old)
	r.Register("user_A", fresh)

	// the stale handle's teardown races the reconnect and must lose
	assert.False(t, r.Unregister("user_A", old))
	assert.True(t, r.IsOnline("user_A"))

	got, _ := r.Get("user_A")
	assert.Same(t, fresh, got.(*mockClient))
}

func TestRegistry_Snapshot(t *testing.T) {
	r := chathub.NewRegistry()
	r.Register("user_A", newMockClient("user_A"))
	r.Register("user_B", newMockClient("user_B"))

	assert.Len(t, r.Snapshot(), 2)
}
