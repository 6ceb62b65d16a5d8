package chathub

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"

	"chatrelay/backend/internal/auth"
	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"
)

var (
	errBadPayload  = errors.New("malformed event payload")
	errUserOffline = errors.New("user is not connected")
)

// Hub is the connection lifecycle controller. It authenticates incoming
// connections, owns the shared registries, dispatches inbound events and
// performs full teardown on disconnect. Registry mutations are short
// critical sections; storage calls happen outside any lock.
type Hub struct {
	Registry *Registry
	Rooms    *RoomTracker
	Calls    *CallManager

	store      storage.Storage
	jwtCfg     config.JWTConfig
	instanceID string
}

// NewHub constructs the hub with its three registries.
func NewHub(jwtCfg config.JWTConfig, store storage.Storage) *Hub {
	return &Hub{
		Registry:   NewRegistry(),
		Rooms:      NewRoomTracker(),
		Calls:      NewCallManager(),
		store:      store,
		jwtCfg:     jwtCfg,
		instanceID: ksuid.New().String(),
	}
}

// InstanceID identifies this hub instance in cross-instance presence
// traffic.
func (h *Hub) InstanceID() string { return h.instanceID }

// Authenticate verifies a handshake bearer token and resolves it to a
// user. A failure here rejects the connection before any room or
// presence state is touched.
func (h *Hub) Authenticate(token string) (*models.User, error) {
	if token == "" {
		return nil, &AuthError{Reason: AuthMissingToken}
	}
	claims, err := auth.ParseToken(h.jwtCfg, token)
	if err != nil {
		return nil, &AuthError{Reason: AuthInvalidToken}
	}
	user, err := h.store.GetUserByID(claims.UserID)
	if err != nil {
		return nil, &AuthError{Reason: AuthUserNotFound}
	}
	return user, nil
}

// OnConnect registers the connection (last-connection-wins), marks the
// user online, publishes presence and flips this user's pending messages
// to delivered.
func (h *Hub) OnConnect(c Client) {
	userID := c.UserID()
	now := time.Now()

	if replaced := h.Registry.Register(userID, c); replaced != nil {
		// invalidate the stale handle; its teardown will see it is no
		// longer the current registration and skip
		replaced.Close()
		log.Info().Str("module", "chathub").Str("user", userID).Msg("connection replaced")
	}

	if err := h.store.SetUserOnline(userID, true, now); err != nil {
		log.Error().Err(err).Str("module", "chathub").Str("user", userID).Msg("set online failed")
	}
	h.publishPresence(userID, "online", now)
	h.deliverPending(c, now)

	log.Info().Str("module", "chathub").Str("user", userID).Msg("connected")
}

// OnDisconnect tears the connection down: unregister, leave every room,
// end every call involving the user, mark offline, publish presence.
// Idempotent: only the handle that is still the current registration
// performs teardown, so duplicate closure reports and stale replaced
// handles are no-ops.
func (h *Hub) OnDisconnect(c Client) {
	userID := c.UserID()
	if !h.Registry.Unregister(userID, c) {
		return
	}
	now := time.Now()

	for _, room := range h.Rooms.RemoveAll(userID) {
		h.broadcastRoom(room, userID, EvtUserLeft, roomMemberPayload(room, userID))
	}

	for _, sess := range h.Calls.RemoveAllFor(userID) {
		peer, ok := sess.PeerOf(userID)
		if !ok {
			continue
		}
		if err := h.sendToUser(peer, EvtCallEnded, CallEndedPayload{
			CallID:  sess.ID,
			EndedBy: userID,
			Reason:  "disconnected",
		}); err != nil && !errors.Is(err, errUserOffline) {
			log.Warn().Err(err).Str("module", "chathub").Str("call", sess.ID).Msg("call teardown notify failed")
		}
	}

	if err := h.store.SetUserOnline(userID, false, now); err != nil {
		log.Error().Err(err).Str("module", "chathub").Str("user", userID).Msg("set offline failed")
	}
	h.publishPresence(userID, "offline", now)
	c.Close()

	log.Info().Str("module", "chathub").Str("user", userID).Msg("disconnected")
}

// Dispatch routes one inbound event to its handler and converts handler
// errors at this boundary: user-actionable failures become an error
// event to the originating connection, everything else is logged and
// dropped. No error here may affect another connection.
func (h *Hub) Dispatch(c Client, evt Event) {
	var err error
	switch evt.Name {
	case EvtJoinChannel:
		err = h.handleJoin(c, evt.Data, models.RoomChannel)
	case EvtJoinDM:
		err = h.handleJoin(c, evt.Data, models.RoomDM)
	case EvtLeaveChannel:
		err = h.handleLeave(c, evt.Data, models.RoomChannel)
	case EvtLeaveDM:
		err = h.handleLeave(c, evt.Data, models.RoomDM)

	case EvtTyping, EvtMessageEdited, EvtMessageDeleted, EvtReactionUpdate:
		err = h.handleRelay(c, evt.Name, evt.Data, models.RoomChannel)
	case EvtDMTyping, EvtDMMessageEdited, EvtDMMessageDeleted, EvtDMReactionUpdate:
		err = h.handleRelay(c, evt.Name, evt.Data, models.RoomDM)

	case EvtNewMessage:
		err = h.handleNewMessage(c, evt.Data, models.RoomChannel)
	case EvtNewDMMessage:
		err = h.handleNewMessage(c, evt.Data, models.RoomDM)

	case EvtMessagesDelivered:
		err = h.handleBulkStatus(c, evt.Data, models.RoomChannel, models.StatusDelivered)
	case EvtMessagesRead:
		err = h.handleBulkStatus(c, evt.Data, models.RoomChannel, models.StatusRead)
	case EvtDMMessagesDelivered:
		err = h.handleBulkStatus(c, evt.Data, models.RoomDM, models.StatusDelivered)
	case EvtDMMessagesRead:
		err = h.handleBulkStatus(c, evt.Data, models.RoomDM, models.StatusRead)

	case EvtCallInitiate:
		err = h.handleCallInitiate(c, evt.Data)
	case EvtCallAccept:
		err = h.handleCallAccept(c, evt.Data)
	case EvtCallReject:
		err = h.handleCallReject(c, evt.Data)
	case EvtCallEnd:
		err = h.handleCallEnd(c, evt.Data)
	case EvtCallOffer, EvtCallAnswer, EvtICECandidate:
		err = h.handleCallSignal(c, evt.Name, evt.Data)
	case EvtCallToggleMedia:
		err = h.handleCallSignal(c, EvtCallMediaToggled, evt.Data)

	default:
		h.sendError(c, "unknown event: "+evt.Name)
		return
	}

	if err == nil {
		return
	}
	switch {
	case errors.Is(err, ErrNotAMember), errors.Is(err, ErrMissingRoom), errors.Is(err, errBadPayload):
		h.sendError(c, err.Error())
	default:
		log.Error().Err(err).Str("module", "chathub").
			Str("user", c.UserID()).Str("event", evt.Name).Msg("event dropped")
	}
}

// deliverPending flips messages addressed to the freshly connected user
// from sent to delivered and notifies each original sender.
func (h *Hub) deliverPending(c Client, now time.Time) {
	userID := c.UserID()
	pending, err := h.store.ListUndelivered(userID)
	if err != nil {
		log.Error().Err(err).Str("module", "chathub").Str("user", userID).Msg("list undelivered failed")
		return
	}
	if len(pending) == 0 {
		return
	}
	ids := make([]string, 0, len(pending))
	for _, m := range pending {
		ids = append(ids, m.ID)
	}
	updated, err := h.store.UpdateMessageStatus(ids, models.StatusDelivered, now)
	if err != nil {
		log.Error().Err(err).Str("module", "chathub").Str("user", userID).Msg("pending delivery update failed")
		return
	}
	for _, m := range updated {
		p := statusUpdatePayload(m.Room(), m.ID, models.StatusDelivered, userID, now)
		if err := h.sendToUser(m.SenderID, statusEventName(m.RoomKind), p); err != nil && !errors.Is(err, errUserOffline) {
			log.Warn().Err(err).Str("module", "chathub").Str("message", m.ID).Msg("delivery notify failed")
		}
	}
}

// --- outbound helpers ---

func (h *Hub) sendTo(c Client, name string, payload interface{}) {
	evt, err := NewEvent(name, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "chathub").Str("event", name).Msg("encode failed")
		return
	}
	if err := c.TrySend(evt); err != nil {
		log.Debug().Err(err).Str("module", "chathub").Str("user", c.UserID()).Str("event", name).Msg("send dropped")
	}
}

func (h *Hub) sendToUser(userID, name string, payload interface{}) error {
	c, ok := h.Registry.Get(userID)
	if !ok {
		return errUserOffline
	}
	evt, err := NewEvent(name, payload)
	if err != nil {
		return err
	}
	return c.TrySend(evt)
}

// broadcastRoom fans an event out to every live member of the room
// except the excluded user.
func (h *Hub) broadcastRoom(room models.RoomRef, excludeUserID, name string, payload interface{}) {
	evt, err := NewEvent(name, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "chathub").Str("event", name).Msg("encode failed")
		return
	}
	h.broadcastRoomEvent(room, excludeUserID, evt)
}

func (h *Hub) broadcastRoomEvent(room models.RoomRef, excludeUserID string, evt Event) {
	for _, member := range h.Rooms.Members(room) {
		if member == excludeUserID {
			continue
		}
		c, ok := h.Registry.Get(member)
		if !ok {
			continue
		}
		if err := c.TrySend(evt); err != nil {
			log.Debug().Err(err).Str("module", "chathub").Str("user", member).Str("event", evt.Name).Msg("room send dropped")
		}
	}
}

func (h *Hub) broadcastAll(evt Event) {
	for _, c := range h.Registry.Snapshot() {
		if err := c.TrySend(evt); err != nil {
			log.Debug().Err(err).Str("module", "chathub").Str("user", c.UserID()).Str("event", evt.Name).Msg("broadcast send dropped")
		}
	}
}

func (h *Hub) sendError(c Client, msg string) {
	h.sendTo(c, EvtError, ErrorPayload{Message: msg})
}

// --- payload helpers ---

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return errBadPayload
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errBadPayload
	}
	return nil
}

// room resolves the payload's room reference for the event's kind.
func (p RoomPayload) room(kind models.RoomKind) (models.RoomRef, error) {
	id := p.ChannelID
	if kind == models.RoomDM {
		id = p.DMID
	}
	if id == "" {
		return models.RoomRef{}, ErrMissingRoom
	}
	return models.RoomRef{Kind: kind, ID: id}, nil
}

func splitRoom(room models.RoomRef) (channelID, dmID string) {
	if room.Kind == models.RoomDM {
		return "", room.ID
	}
	return room.ID, ""
}

func roomMemberPayload(room models.RoomRef, userID string) RoomMemberPayload {
	p := RoomMemberPayload{UserID: userID}
	p.ChannelID, p.DMID = splitRoom(room)
	return p
}

func statusUpdatePayload(room models.RoomRef, messageID string, status models.MessageStatus, userID string, ts time.Time) StatusUpdatePayload {
	p := StatusUpdatePayload{
		MessageID: messageID,
		Status:    string(status),
		UserID:    userID,
		Timestamp: ts,
	}
	p.ChannelID, p.DMID = splitRoom(room)
	return p
}

func statusEventName(kind models.RoomKind) string {
	if kind == models.RoomDM {
		return EvtDMMessageStatusUpdate
	}
	return EvtMessageStatusUpdate
}

func joinedEventName(kind models.RoomKind) string {
	if kind == models.RoomDM {
		return EvtJoinedDM
	}
	return EvtJoinedChannel
}

func newMessageEventName(kind models.RoomKind) string {
	if kind == models.RoomDM {
		return EvtNewDMMessage
	}
	return EvtNewMessage
}
