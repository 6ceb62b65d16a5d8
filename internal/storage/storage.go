package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chatrelay/backend/internal/models"
)

// PresenceChannel is the redis pub/sub channel used to fan presence
// events out to peer instances.
const PresenceChannel = "presence:broadcast"

// ErrUnknownRoomKind is returned for a RoomRef whose Kind is neither
// "channel" nor "dm".
var ErrUnknownRoomKind = errors.New("storage: unknown room kind")

// Storage is the persistence collaborator consumed by the socket core.
// It covers only what the core needs: membership checks, message status
// transitions, read markers, and the online flag.
type Storage interface {
	GetUserByID(id string) (*models.User, error)
	FindMembership(userID string, room models.RoomRef) (bool, error)

	ListUndelivered(userID string) ([]models.Message, error)
	UpdateMessageStatus(ids []string, status models.MessageStatus, ts time.Time) ([]models.Message, error)
	UpdateLastRead(userID string, room models.RoomRef, ts time.Time) error

	SetUserOnline(userID string, online bool, ts time.Time) error

	PublishPresence(payload []byte) error
	SubscribePresence() <-chan *redis.Message
}

// Service implements Storage on PostgreSQL (via gorm) plus Redis for
// ephemeral state and pub/sub.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewService constructs the storage service.
func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// GetUserByID loads one user row.
func (s *Service) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindMembership reports whether the user holds persisted membership in
// the given room. Channels carry an explicit member array; a DM has
// exactly two implicit members.
func (s *Service) FindMembership(userID string, room models.RoomRef) (bool, error) {
	switch room.Kind {
	case models.RoomChannel:
		var count int64
		err := s.DB.Model(&models.Channel{}).
			Where("id = ? AND ? = ANY(members)", room.ID, userID).
			Count(&count).Error
		if err != nil {
			return false, err
		}
		return count > 0, nil
	case models.RoomDM:
		var dm models.DirectChannel
		err := s.DB.First(&dm, "id = ?", room.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return dm.Has(userID), nil
	}
	return false, ErrUnknownRoomKind
}

// ListUndelivered returns messages addressed to the user that are still
// in "sent" status: messages in any of the user's rooms, written by
// someone else, not yet delivered.
func (s *Service) ListUndelivered(userID string) ([]models.Message, error) {
	var msgs []models.Message
	err := s.DB.
		Where("status = ? AND sender_id <> ?", models.StatusSent, userID).
		Where(`(room_kind = ? AND room_id IN (SELECT id FROM channels WHERE ? = ANY(members)))
			OR (room_kind = ? AND room_id IN (SELECT id FROM direct_channels WHERE user_a_id = ? OR user_b_id = ?))`,
			models.RoomChannel, userID,
			models.RoomDM, userID, userID).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// UpdateMessageStatus advances matching messages to the target status and
// returns the rows that actually moved. The monotonic guard rides on the
// UPDATE's own WHERE clause: "delivered" only applies to "sent" rows,
// "read" applies to "sent" or "delivered" rows and backfills
// delivered_at. A row a concurrent caller already advanced past the
// guard is left untouched and not returned.
func (s *Service) UpdateMessageStatus(ids []string, status models.MessageStatus, ts time.Time) ([]models.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var moved []models.Message
	q := s.DB.Model(&moved).Clauses(clause.Returning{}).Where("id IN ?", ids)
	var updates map[string]interface{}
	switch status {
	case models.StatusDelivered:
		q = q.Where("status = ?", models.StatusSent)
		updates = map[string]interface{}{
			"status":       models.StatusDelivered,
			"delivered_at": ts,
		}
	case models.StatusRead:
		q = q.Where("status IN ?", []models.MessageStatus{models.StatusSent, models.StatusDelivered})
		updates = map[string]interface{}{
			"status":       models.StatusRead,
			"read_at":      ts,
			"delivered_at": gorm.Expr("COALESCE(delivered_at, ?)", ts),
		}
	default:
		return nil, errors.New("storage: status must be delivered or read")
	}

	if err := q.Updates(updates).Error; err != nil {
		return nil, err
	}
	return moved, nil
}

// UpdateLastRead upserts the user's read marker for a room.
func (s *Service) UpdateLastRead(userID string, room models.RoomRef, ts time.Time) error {
	marker := models.ReadMarker{
		UserID:     userID,
		RoomKind:   room.Kind,
		RoomID:     room.ID,
		LastReadAt: ts,
	}
	return s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "room_kind"}, {Name: "room_id"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_read_at": ts}),
	}).Create(&marker).Error
}

// SetUserOnline flips the user's online flag and last-seen timestamp, and
// mirrors the flag into a redis key for cheap cross-service lookups.
func (s *Service) SetUserOnline(userID string, online bool, ts time.Time) error {
	err := s.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"online":       online,
			"last_seen_at": ts,
		}).Error
	if err != nil {
		return err
	}

	key := "online:" + userID
	if online {
		return s.Redis.Set(s.Ctx, key, ts.UTC().Format(time.RFC3339), 0).Err()
	}
	return s.Redis.Del(s.Ctx, key).Err()
}

// PublishPresence broadcasts a presence payload to peer instances.
func (s *Service) PublishPresence(payload []byte) error {
	return s.Redis.Publish(s.Ctx, PresenceChannel, payload).Err()
}

// SubscribePresence subscribes to the presence channel and returns its
// message stream. The subscription lives for the process lifetime.
func (s *Service) SubscribePresence() <-chan *redis.Message {
	return s.Redis.Subscribe(s.Ctx, PresenceChannel).Channel()
}
