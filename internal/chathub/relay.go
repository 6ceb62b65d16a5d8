package chathub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"chatrelay/backend/internal/models"
)

// handleJoin admits the user into a room's live set after a persisted
// membership check. Existing members are notified; the joiner gets an
// acknowledgement with the current live member list.
func (h *Hub) handleJoin(c Client, data json.RawMessage, kind models.RoomKind) error {
	var p RoomPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	room, err := p.room(kind)
	if err != nil {
		return err
	}
	userID := c.UserID()

	member, err := h.store.FindMembership(userID, room)
	if err != nil {
		return fmt.Errorf("membership check for %s: %w", room, err)
	}
	if !member {
		return ErrNotAMember
	}

	if h.Rooms.Add(userID, room) {
		h.broadcastRoom(room, userID, EvtUserJoined, roomMemberPayload(room, userID))
	}

	ack := JoinedPayload{Members: h.Rooms.Members(room)}
	ack.ChannelID, ack.DMID = splitRoom(room)
	h.sendTo(c, joinedEventName(kind), ack)
	return nil
}

// handleLeave removes the user from a room's live set. Leaving a room
// you are not tracked in is a silent no-op; leave never errors.
func (h *Hub) handleLeave(c Client, data json.RawMessage, kind models.RoomKind) error {
	var p RoomPayload
	if err := decode(data, &p); err != nil {
		return nil
	}
	room, err := p.room(kind)
	if err != nil {
		return nil
	}
	userID := c.UserID()
	if h.Rooms.Remove(userID, room) {
		h.broadcastRoom(room, userID, EvtUserLeft, roomMemberPayload(room, userID))
	}
	return nil
}

// handleRelay forwards a pure relay event (typing, edit, delete,
// reaction) to every other live member of the room, with the sender
// identity stamped from the authenticated connection. The sender must
// themselves be in the room's live set.
func (h *Hub) handleRelay(c Client, name string, data json.RawMessage, kind models.RoomKind) error {
	var p RoomPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	room, err := p.room(kind)
	if err != nil {
		return err
	}
	if !h.Rooms.Contains(c.UserID(), room) {
		return ErrNotAMember
	}
	stamped, err := stampSender(data, c.UserID())
	if err != nil {
		return errBadPayload
	}
	h.broadcastRoomEvent(room, c.UserID(), Event{Name: name, Data: stamped})
	return nil
}

// handleNewMessage relays a freshly persisted message to the room and
// emits an optimistic delivered signal to the sender for every other
// member currently online. "Delivered" here means connected to the room,
// not a receipt from the recipient's client.
func (h *Hub) handleNewMessage(c Client, data json.RawMessage, kind models.RoomKind) error {
	var p NewMessagePayload
	if err := decode(data, &p); err != nil {
		return err
	}
	rp := RoomPayload{ChannelID: p.ChannelID, DMID: p.DMID}
	room, err := rp.room(kind)
	if err != nil {
		return err
	}
	userID := c.UserID()
	if !h.Rooms.Contains(userID, room) {
		return ErrNotAMember
	}

	p.Message.SenderID = userID
	p.Message.Status = string(models.StatusSent)
	if p.Message.CreatedAt.IsZero() {
		p.Message.CreatedAt = time.Now()
	}
	h.broadcastRoom(room, userID, newMessageEventName(kind), p)

	var online []string
	for _, member := range h.Rooms.Members(room) {
		if member != userID && h.Registry.IsOnline(member) {
			online = append(online, member)
		}
	}
	if len(online) == 0 || p.Message.ID == "" {
		return nil
	}

	ts := time.Now()
	if _, err := h.store.UpdateMessageStatus([]string{p.Message.ID}, models.StatusDelivered, ts); err != nil {
		log.Error().Err(err).Str("module", "chathub").Str("message", p.Message.ID).Msg("optimistic delivery update failed")
		return nil
	}
	for _, member := range online {
		h.sendTo(c, statusEventName(kind), statusUpdatePayload(room, p.Message.ID, models.StatusDelivered, member, ts))
	}
	return nil
}

// handleBulkStatus advances a batch of messages to delivered or read on
// behalf of the requester, notifies each affected message's sender, and
// on read advances the requester's own read marker. The requester must
// be in the room's live set.
func (h *Hub) handleBulkStatus(c Client, data json.RawMessage, kind models.RoomKind, status models.MessageStatus) error {
	var p StatusAckPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	rp := RoomPayload{ChannelID: p.ChannelID, DMID: p.DMID}
	room, err := rp.room(kind)
	if err != nil {
		return err
	}
	if len(p.MessageIDs) == 0 {
		return nil
	}
	userID := c.UserID()
	if !h.Rooms.Contains(userID, room) {
		return ErrNotAMember
	}
	ts := time.Now()

	updated, err := h.store.UpdateMessageStatus(p.MessageIDs, status, ts)
	if err != nil {
		return fmt.Errorf("bulk %s update: %w", status, err)
	}
	for _, m := range updated {
		notice := statusUpdatePayload(m.Room(), m.ID, status, userID, ts)
		if err := h.sendToUser(m.SenderID, statusEventName(m.RoomKind), notice); err != nil {
			continue // sender offline; they will catch up from persistence
		}
	}

	if status == models.StatusRead {
		if err := h.store.UpdateLastRead(userID, room, ts); err != nil {
			log.Error().Err(err).Str("module", "chathub").Str("user", userID).Str("room", room.String()).Msg("last-read update failed")
			return nil
		}
		ack := UnreadUpdatePayload{LastReadAt: ts}
		ack.ChannelID, ack.DMID = splitRoom(room)
		h.sendTo(c, EvtUnreadUpdate, ack)
	}
	return nil
}
