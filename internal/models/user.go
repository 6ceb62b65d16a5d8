package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account known to the identity layer. The socket core
// only reads it during the handshake and flips the online fields; profile
// management belongs to the REST layer.
type User struct {
	// ID is the user's UUID, also the subject of their JWT.
	ID string `gorm:"primaryKey" json:"id"`
	// Username is the display handle, unique across the system.
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	// Online mirrors the connection registry for consumers that only
	// read the database. The registry stays authoritative.
	Online bool `gorm:"not null;default:false" json:"online"`
	// LastSeenAt is updated on every connect and disconnect.
	LastSeenAt time.Time `json:"lastSeenAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate generates a UUID for the user if the ID is not yet set.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
