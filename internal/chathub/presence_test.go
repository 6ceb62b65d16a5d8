package chathub_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/storage"
)

func TestPresenceListener_FansOutPeerEventsAndSkipsOwnEcho(t *testing.T) {
	ch := make(chan *redis.Message, 3)
	store := newQuietStorage()
	store.On("SubscribePresence").Return((<-chan *redis.Message)(ch)).Once()
	h := newTestHub(store)
	a := connect(h, "user_A")

	done := make(chan struct{})
	go func() {
		h.RunPresenceListener()
		close(done)
	}()

	peer := chathub.PresencePayload{UserID: "user_Z", Status: "online", Timestamp: time.Now(), Origin: "peer-instance"}
	peerBody, err := json.Marshal(peer)
	require.NoError(t, err)

	echo := peer
	echo.UserID = "user_Y"
	echo.Origin = h.InstanceID()
	echoBody, err := json.Marshal(echo)
	require.NoError(t, err)

	ch <- &redis.Message{Channel: storage.PresenceChannel, Payload: "not-json"}
	ch <- &redis.Message{Channel: storage.PresenceChannel, Payload: string(peerBody)}
	ch <- &redis.Message{Channel: storage.PresenceChannel, Payload: string(echoBody)}
	close(ch)
	<-done

	var seen []string
	for _, evt := range a.eventsNamed(chathub.EvtUserPresence) {
		var p chathub.PresencePayload
		decodePayload(t, evt, &p)
		seen = append(seen, p.UserID)
	}
	assert.Contains(t, seen, "user_Z", "peer transition reaches local connections")
	assert.NotContains(t, seen, "user_Y", "own event echoed back over pub/sub is skipped")
}

func TestPresenceListener_NoSubscriptionReturns(t *testing.T) {
	store := newQuietStorage()
	store.On("SubscribePresence").Return(nil).Once()
	h := newTestHub(store)

	h.RunPresenceListener()

	store.AssertExpectations(t)
}
