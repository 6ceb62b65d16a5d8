package chathub_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/models"
)

var (
	general = models.RoomRef{Kind: models.RoomChannel, ID: "general"}
	dmAB    = models.RoomRef{Kind: models.RoomDM, ID: "dm-ab"}
)

func TestRoomTracker_JoinIsIdempotent(t *testing.T) {
	tr := chathub.NewRoomTracker()

	assert.True(t, tr.Add("user_A", general))
	assert.False(t, tr.Add("user_A", general), "re-join must be a no-op")
	assert.Equal(t, []string{"user_A"}, tr.Members(general))
}

func TestRoomTracker_RemoveUnknownIsSilent(t *testing.T) {
	tr := chathub.NewRoomTracker()

	assert.False(t, tr.Remove("user_A", general))

	tr.Add("user_A", general)
	assert.True(t, tr.Remove("user_A", general))
	assert.Empty(t, tr.Members(general))
}

func TestRoomTracker_RemoveAll(t *testing.T) {
	tr := chathub.NewRoomTracker()
	tr.Add("user_A", general)
	tr.Add("user_A", dmAB)
	tr.Add("user_B", general)

	affected := tr.RemoveAll("user_A")
	assert.Len(t, affected, 2)
	assert.False(t, tr.Contains("user_A", general))
	assert.False(t, tr.Contains("user_A", dmAB))
	assert.True(t, tr.Contains("user_B", general), "other members stay")

	assert.Empty(t, tr.RemoveAll("user_A"), "second teardown finds nothing")
}

func TestRoomTracker_ChannelAndDMAreDistinct(t *testing.T) {
	tr := chathub.NewRoomTracker()
	sameID := "42"
	tr.Add("user_A", models.RoomRef{Kind: models.RoomChannel, ID: sameID})

	assert.False(t, tr.Contains("user_A", models.RoomRef{Kind: models.RoomDM, ID: sameID}))
}
