package chathub

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
)

// handleCallInitiate creates a ringing session and notifies the
// receiver. An offline receiver fails the attempt immediately and leaves
// no session behind.
func (h *Hub) handleCallInitiate(c Client, data json.RawMessage) error {
	var p CallInitiatePayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if p.ReceiverID == "" {
		h.sendError(c, "call_initiate requires receiverId")
		return nil
	}
	if p.Type != "audio" && p.Type != "video" {
		h.sendError(c, "call type must be audio or video")
		return nil
	}
	callerID := c.UserID()

	if _, err := h.store.GetUserByID(p.ReceiverID); err != nil {
		h.sendTo(c, EvtCallFailed, CallFailedPayload{Reason: "User not found"})
		return nil
	}
	if !h.Registry.IsOnline(p.ReceiverID) {
		h.sendTo(c, EvtCallFailed, CallFailedPayload{Reason: "User is offline"})
		return nil
	}

	sess := h.Calls.Create(callerID, p.ReceiverID, p.Type, p.ChannelID)
	incoming := CallIncomingPayload{
		CallID:    sess.ID,
		CallerID:  callerID,
		Type:      sess.Type,
		ChannelID: sess.ChannelID,
	}
	if err := h.sendToUser(p.ReceiverID, EvtCallIncoming, incoming); err != nil {
		// receiver vanished between the online check and the send
		h.Calls.Remove(sess.ID, callerID)
		h.sendTo(c, EvtCallFailed, CallFailedPayload{CallID: sess.ID, Reason: "User is offline"})
		return nil
	}
	h.sendTo(c, EvtCallInitiated, CallInitiatedPayload{CallID: sess.ID, ReceiverID: p.ReceiverID})

	log.Info().Str("module", "chathub").Str("call", sess.ID).
		Str("caller", callerID).Str("receiver", p.ReceiverID).Str("type", sess.Type).Msg("call ringing")
	return nil
}

// handleCallAccept moves a ringing session to accepted and notifies the
// caller. Accept racing with end finds the session gone and is a no-op.
func (h *Hub) handleCallAccept(c Client, data json.RawMessage) error {
	var p CallRefPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	sess, ok := h.Calls.Accept(p.CallID, c.UserID())
	if !ok {
		return nil
	}
	if err := h.sendToUser(sess.CallerID, EvtCallAccepted, CallAnsweredPayload{
		CallID: sess.ID,
		UserID: c.UserID(),
	}); err != nil && !errors.Is(err, errUserOffline) {
		log.Warn().Err(err).Str("module", "chathub").Str("call", sess.ID).Msg("accept notify failed")
	}
	return nil
}

// handleCallReject destroys the session and notifies the caller.
func (h *Hub) handleCallReject(c Client, data json.RawMessage) error {
	var p CallRefPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	sess, ok := h.Calls.Remove(p.CallID, c.UserID())
	if !ok {
		return nil
	}
	reason := p.Reason
	if reason == "" {
		reason = "rejected"
	}
	if err := h.sendToUser(sess.CallerID, EvtCallRejected, CallAnsweredPayload{
		CallID: sess.ID,
		UserID: c.UserID(),
		Reason: reason,
	}); err != nil && !errors.Is(err, errUserOffline) {
		log.Warn().Err(err).Str("module", "chathub").Str("call", sess.ID).Msg("reject notify failed")
	}
	return nil
}

// handleCallEnd destroys the session and notifies the other party.
func (h *Hub) handleCallEnd(c Client, data json.RawMessage) error {
	var p CallRefPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	userID := c.UserID()
	sess, ok := h.Calls.Remove(p.CallID, userID)
	if !ok {
		return nil
	}
	peer, ok := sess.PeerOf(userID)
	if !ok {
		return nil
	}
	if err := h.sendToUser(peer, EvtCallEnded, CallEndedPayload{
		CallID:  sess.ID,
		EndedBy: userID,
		Reason:  "ended",
	}); err != nil && !errors.Is(err, errUserOffline) {
		log.Warn().Err(err).Str("module", "chathub").Str("call", sess.ID).Msg("end notify failed")
	}
	return nil
}

// handleCallSignal forwards offer/answer/ICE/media-toggle payloads
// verbatim to the other party. The payload contents (SDP, candidates)
// are never validated here; the manager is a pure relay. Unknown call
// ids are silently dropped: the call may have ended while the message
// was in flight.
func (h *Hub) handleCallSignal(c Client, outName string, data json.RawMessage) error {
	var p CallRefPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	userID := c.UserID()
	sess, ok := h.Calls.Get(p.CallID)
	if !ok || !sess.Involves(userID) {
		return nil
	}
	peer, ok := sess.PeerOf(userID)
	if !ok {
		return nil
	}
	stamped, err := stampSender(data, userID)
	if err != nil {
		return errBadPayload
	}
	peerConn, ok := h.Registry.Get(peer)
	if !ok {
		return nil // peer already gone; their disconnect will end the call
	}
	if err := peerConn.TrySend(Event{Name: outName, Data: stamped}); err != nil {
		log.Debug().Err(err).Str("module", "chathub").Str("call", sess.ID).Str("event", outName).Msg("signal dropped")
	}
	return nil
}
