package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// RoomKind distinguishes the two room flavours carried over the socket.
type RoomKind string

const (
	RoomChannel RoomKind = "channel"
	RoomDM      RoomKind = "dm"
)

// RoomRef identifies one room (a channel or a DM conversation). It is the
// key type for the in-memory live sets and for persisted read markers.
type RoomRef struct {
	Kind RoomKind `json:"kind"`
	ID   string   `json:"id"`
}

// String renders the ref as "kind:id", usable as a map key.
func (r RoomRef) String() string { return string(r.Kind) + ":" + r.ID }

// Channel is a persisted multi-member room. Members governs authorization
// for joining the live set; the live set itself is in-memory only.
type Channel struct {
	ID      string         `gorm:"primaryKey" json:"id"`
	Name    string         `gorm:"not null" json:"name"`
	Members pq.StringArray `gorm:"type:text[]" json:"members"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Channel) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// DirectChannel is a persisted 1:1 conversation between two users.
type DirectChannel struct {
	ID      string `gorm:"primaryKey" json:"id"`
	UserAID string `gorm:"not null;index" json:"userAId"`
	UserBID string `gorm:"not null;index" json:"userBId"`

	CreatedAt time.Time `json:"createdAt"`
}

func (d *DirectChannel) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return
}

// Has reports whether the given user is one of the two participants.
func (d *DirectChannel) Has(userID string) bool {
	return d.UserAID == userID || d.UserBID == userID
}
