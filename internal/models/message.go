package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageStatus is the delivery state of one message. Transitions are
// monotonic: sent → delivered → read, never backwards.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// Rank orders statuses for the monotonic guard. Unknown values rank
// below "sent" so they never suppress a legitimate transition.
func (s MessageStatus) Rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	}
	return 0
}

// Message is a persisted chat message in a channel or a DM. The REST layer
// creates it; the socket core only advances Status and the matching
// timestamp columns.
type Message struct {
	ID string `gorm:"primaryKey" json:"id"`
	// RoomKind and RoomID locate the message's room ("channel" or "dm").
	RoomKind RoomKind `gorm:"not null;index:idx_room_messages" json:"roomKind"`
	RoomID   string   `gorm:"not null;index:idx_room_messages" json:"roomId"`
	SenderID string   `gorm:"not null;index" json:"senderId"`
	// Kind is the payload type ("text", "file", ...); opaque to the core.
	Kind    string `gorm:"not null;default:text" json:"kind"`
	Content string `gorm:"type:text" json:"content"`

	Status      MessageStatus `gorm:"not null;default:sent;index" json:"status"`
	DeliveredAt *time.Time    `json:"deliveredAt,omitempty"`
	ReadAt      *time.Time    `json:"readAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Status == "" {
		m.Status = StatusSent
	}
	return
}

// Room returns the message's room as a RoomRef.
func (m *Message) Room() RoomRef { return RoomRef{Kind: m.RoomKind, ID: m.RoomID} }

// ReadMarker records how far a user has read in a room. One row per
// (user, room); upserted whenever a bulk read acknowledgement arrives.
type ReadMarker struct {
	UserID     string    `gorm:"primaryKey" json:"userId"`
	RoomKind   RoomKind  `gorm:"primaryKey" json:"roomKind"`
	RoomID     string    `gorm:"primaryKey" json:"roomId"`
	LastReadAt time.Time `gorm:"not null" json:"lastReadAt"`
}
