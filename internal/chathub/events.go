package chathub

import (
	"encoding/json"
	"time"
)

// Inbound event names (client → server).
const (
	EvtJoinChannel  = "join_channel"
	EvtLeaveChannel = "leave_channel"
	EvtJoinDM       = "join_dm"
	EvtLeaveDM      = "leave_dm"

	EvtTyping   = "typing"
	EvtDMTyping = "dm_typing"

	EvtNewMessage       = "new_message"
	EvtMessageEdited    = "message_edited"
	EvtMessageDeleted   = "message_deleted"
	EvtNewDMMessage     = "new_dm_message"
	EvtDMMessageEdited  = "dm_message_edited"
	EvtDMMessageDeleted = "dm_message_deleted"

	EvtReactionUpdate   = "reaction_update"
	EvtDMReactionUpdate = "dm_reaction_update"

	EvtMessagesDelivered   = "messages_delivered"
	EvtMessagesRead        = "messages_read"
	EvtDMMessagesDelivered = "dm_messages_delivered"
	EvtDMMessagesRead      = "dm_messages_read"

	EvtCallInitiate    = "call_initiate"
	EvtCallAccept      = "call_accept"
	EvtCallReject      = "call_reject"
	EvtCallEnd         = "call_end"
	EvtCallOffer       = "call_offer"
	EvtCallAnswer      = "call_answer"
	EvtICECandidate    = "ice_candidate"
	EvtCallToggleMedia = "call_toggle_media"
)

// Outbound event names (server → client). Relay events reuse the inbound
// name; only server-originated events are listed here.
const (
	EvtUserPresence = "user_presence"

	EvtJoinedChannel = "joined_channel"
	EvtJoinedDM      = "joined_dm"
	EvtUserJoined    = "user_joined"
	EvtUserLeft      = "user_left"

	EvtMessageStatusUpdate   = "message_status_update"
	EvtDMMessageStatusUpdate = "dm_message_status_update"
	EvtUnreadUpdate          = "unread_update"

	EvtCallIncoming     = "call_incoming"
	EvtCallInitiated    = "call_initiated"
	EvtCallFailed       = "call_failed"
	EvtCallAccepted     = "call_accepted"
	EvtCallRejected     = "call_rejected"
	EvtCallEnded        = "call_ended"
	EvtCallMediaToggled = "call_media_toggled"

	EvtError = "error"
)

// Event is the wire envelope: every frame in either direction is one
// Event with a name and a JSON payload.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals the payload into an envelope. A payload that cannot
// be marshalled is a programming error, so the error is returned rather
// than swallowed.
func NewEvent(name string, payload interface{}) (Event, error) {
	if payload == nil {
		return Event{Name: name}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Name: name, Data: data}, nil
}

// RoomPayload carries the room reference of a room-scoped event. Channel
// events fill channelId, DM events fill dmId; the event name decides
// which field is read.
type RoomPayload struct {
	ChannelID string `json:"channelId,omitempty"`
	DMID      string `json:"dmId,omitempty"`
}

// MessageEvent is the wire form of one chat message.
type MessageEvent struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"senderId,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	Content   string    `json:"content"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// NewMessagePayload is the payload of new_message / new_dm_message in
// both directions.
type NewMessagePayload struct {
	ChannelID string       `json:"channelId,omitempty"`
	DMID      string       `json:"dmId,omitempty"`
	Message   MessageEvent `json:"message"`
}

// StatusAckPayload is the payload of the bulk delivered/read
// acknowledgement events.
type StatusAckPayload struct {
	ChannelID  string   `json:"channelId,omitempty"`
	DMID       string   `json:"dmId,omitempty"`
	MessageIDs []string `json:"messageIds"`
}

// StatusUpdatePayload notifies a sender that one of their messages moved
// to a new status. UserID is the user the transition was observed for.
type StatusUpdatePayload struct {
	ChannelID string    `json:"channelId,omitempty"`
	DMID      string    `json:"dmId,omitempty"`
	MessageID string    `json:"messageId"`
	Status    string    `json:"status"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// UnreadUpdatePayload confirms an advanced read marker to the reader.
type UnreadUpdatePayload struct {
	ChannelID  string    `json:"channelId,omitempty"`
	DMID       string    `json:"dmId,omitempty"`
	LastReadAt time.Time `json:"lastReadAt"`
}

// PresencePayload is broadcast to every connection on any online/offline
// transition. Origin tags the publishing instance so the pub/sub
// listener can skip its own broadcasts.
type PresencePayload struct {
	UserID    string    `json:"userId"`
	Status    string    `json:"status"` // online | offline
	Timestamp time.Time `json:"timestamp"`
	Origin    string    `json:"origin,omitempty"`
}

// RoomMemberPayload announces a user entering or leaving a room's live set.
type RoomMemberPayload struct {
	ChannelID string `json:"channelId,omitempty"`
	DMID      string `json:"dmId,omitempty"`
	UserID    string `json:"userId"`
}

// JoinedPayload acknowledges a successful join to the joining user.
type JoinedPayload struct {
	ChannelID string   `json:"channelId,omitempty"`
	DMID      string   `json:"dmId,omitempty"`
	Members   []string `json:"members"`
}

// CallInitiatePayload starts a call attempt.
type CallInitiatePayload struct {
	ReceiverID string `json:"receiverId"`
	Type       string `json:"type"` // audio | video
	ChannelID  string `json:"channelId,omitempty"`
}

// CallRefPayload references an existing call session. Reason is used by
// reject and end.
type CallRefPayload struct {
	CallID string `json:"callId"`
	Reason string `json:"reason,omitempty"`
}

// CallIncomingPayload rings the receiver.
type CallIncomingPayload struct {
	CallID    string `json:"callId"`
	CallerID  string `json:"callerId"`
	Type      string `json:"type"`
	ChannelID string `json:"channelId,omitempty"`
}

// CallInitiatedPayload acknowledges session creation to the caller.
type CallInitiatedPayload struct {
	CallID     string `json:"callId"`
	ReceiverID string `json:"receiverId"`
}

// CallFailedPayload tells the caller the attempt never rang.
type CallFailedPayload struct {
	CallID string `json:"callId,omitempty"`
	Reason string `json:"reason"`
}

// CallAnsweredPayload reports accept/reject back to the caller.
type CallAnsweredPayload struct {
	CallID string `json:"callId"`
	UserID string `json:"userId"`
	Reason string `json:"reason,omitempty"`
}

// CallEndedPayload reports teardown to the surviving party.
type CallEndedPayload struct {
	CallID  string `json:"callId"`
	EndedBy string `json:"endedBy"`
	Reason  string `json:"reason"` // ended | disconnected
}

// ErrorPayload is the structured error event. Clients never see raw
// internal errors.
type ErrorPayload struct {
	Message string `json:"message"`
}

// stampSender re-encodes a relayed payload with the authenticated sender
// identity, so clients cannot spoof senderId on pure relay events.
func stampSender(data json.RawMessage, senderID string) (json.RawMessage, error) {
	m := make(map[string]interface{})
	if len(data) > 0 {
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
	}
	m["senderId"] = senderID
	return json.Marshal(m)
}
