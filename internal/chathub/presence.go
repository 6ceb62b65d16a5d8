package chathub

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// publishPresence broadcasts an online/offline transition to every local
// connection and, best effort, to peer instances over redis pub/sub.
// Presence is global by design; room live-set membership is local.
func (h *Hub) publishPresence(userID, status string, ts time.Time) {
	p := PresencePayload{
		UserID:    userID,
		Status:    status,
		Timestamp: ts,
		Origin:    h.instanceID,
	}
	evt, err := NewEvent(EvtUserPresence, p)
	if err != nil {
		log.Error().Err(err).Str("module", "chathub").Msg("presence encode failed")
		return
	}
	h.broadcastAll(evt)

	payload, _ := json.Marshal(p)
	if err := h.store.PublishPresence(payload); err != nil {
		log.Debug().Err(err).Str("module", "chathub").Msg("peer presence publish skipped")
	}
}

// RunPresenceListener consumes presence events published by peer
// instances and fans them out to local connections. Run it in its own
// goroutine; it returns when the subscription channel closes.
func (h *Hub) RunPresenceListener() {
	ch := h.store.SubscribePresence()
	if ch == nil {
		return
	}

	for msg := range ch {
		var p PresencePayload
		if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
			log.Warn().Err(err).Str("module", "chathub").Msg("bad presence payload from peer")
			continue
		}
		if p.Origin == h.instanceID {
			continue
		}
		evt, err := NewEvent(EvtUserPresence, p)
		if err != nil {
			continue
		}
		h.broadcastAll(evt)
	}
}
