package chathub_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/backend/internal/chathub"
)

func TestCallManager_CreateGeneratesUniqueIDs(t *testing.T) {
	m := chathub.NewCallManager()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		sess := m.Create("user_A", "user_B", "audio", "")
		assert.False(t, seen[sess.ID], "call ids must never collide")
		seen[sess.ID] = true
		assert.Equal(t, chathub.CallRinging, sess.State)
	}
	assert.Equal(t, 100, m.Len())
}

func TestCallManager_AcceptOnlyByReceiverWhileRinging(t *testing.T) {
	m := chathub.NewCallManager()
	sess := m.Create("user_A", "user_B", "video", "")

	_, ok := m.Accept(sess.ID, "user_A")
	assert.False(t, ok, "caller cannot accept their own call")

	accepted, ok := m.Accept(sess.ID, "user_B")
	require.True(t, ok)
	assert.Equal(t, chathub.CallAccepted, accepted.State)

	_, ok = m.Accept(sess.ID, "user_B")
	assert.False(t, ok, "accept is not repeatable")
}

func TestCallManager_RemoveIsExactlyOnce(t *testing.T) {
	m := chathub.NewCallManager()
	sess := m.Create("user_A", "user_B", "audio", "")

	_, ok := m.Remove(sess.ID, "user_C")
	assert.False(t, ok, "strangers cannot tear down a call")

	_, ok = m.Remove(sess.ID, "user_B")
	assert.True(t, ok)

	_, ok = m.Remove(sess.ID, "user_A")
	assert.False(t, ok, "second removal must find the session gone")

	_, ok = m.Accept(sess.ID, "user_B")
	assert.False(t, ok, "accept after end is a no-op")
}

func TestCallManager_RemoveAllForConcurrentDisconnects(t *testing.T) {
	m := chathub.NewCallManager()
	sess := m.Create("user_A", "user_B", "audio", "")

	var wg sync.WaitGroup
	results := make([][]chathub.CallSession, 2)
	for i, user := range []string{"user_A", "user_B"} {
		wg.Add(1)
		go func(i int, user string) {
			defer wg.Done()
			results[i] = m.RemoveAllFor(user)
		}(i, user)
	}
	wg.Wait()

	total := len(results[0]) + len(results[1])
	assert.Equal(t, 1, total, "exactly one disconnect wins the teardown")
	assert.Equal(t, 0, m.Len())
	_ = sess
}

func TestCallSession_PeerOf(t *testing.T) {
	sess := chathub.CallSession{CallerID: "user_A", ReceiverID: "user_B"}

	peer, ok := sess.PeerOf("user_A")
	assert.True(t, ok)
	assert.Equal(t, "user_B", peer)

	peer, ok = sess.PeerOf("user_B")
	assert.True(t, ok)
	assert.Equal(t, "user_A", peer)

	_, ok = sess.PeerOf("user_C")
	assert.False(t, ok)
}
