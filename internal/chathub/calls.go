package chathub

import (
	"sync"
	"time"

	"github.com/segmentio/ksuid"
)

// CallState is the lifecycle state of a call session.
type CallState string

const (
	CallRinging  CallState = "ringing"
	CallAccepted CallState = "accepted"
)

// CallSession is the signaling state of one call attempt between exactly
// two users. There is no auto-expiry: a ringing session is cleared only
// by reject, end, or a party's disconnect.
type CallSession struct {
	ID         string
	CallerID   string
	ReceiverID string
	Type       string // audio | video
	ChannelID  string
	State      CallState
	CreatedAt  time.Time
}

// PeerOf returns the other party of the session.
func (s CallSession) PeerOf(userID string) (string, bool) {
	switch userID {
	case s.CallerID:
		return s.ReceiverID, true
	case s.ReceiverID:
		return s.CallerID, true
	}
	return "", false
}

// Involves reports whether the user is one of the two parties.
func (s CallSession) Involves(userID string) bool {
	return s.CallerID == userID || s.ReceiverID == userID
}

// CallManager owns the table of active call sessions. All mutation goes
// through its methods; removal decides the single winner when teardown
// races (accept vs end, concurrent disconnects).
type CallManager struct {
	mu       sync.Mutex
	sessions map[string]*CallSession
}

func NewCallManager() *CallManager {
	return &CallManager{sessions: make(map[string]*CallSession)}
}

// Create registers a new ringing session. KSUIDs are time-ordered and
// collision-free, so rapid repeated initiates by the same pair cannot
// produce a duplicate identifier.
func (m *CallManager) Create(callerID, receiverID, callType, channelID string) CallSession {
	sess := &CallSession{
		ID:         ksuid.New().String(),
		CallerID:   callerID,
		ReceiverID: receiverID,
		Type:       callType,
		ChannelID:  channelID,
		State:      CallRinging,
		CreatedAt:  time.Now(),
	}
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return *sess
}

// Get returns a snapshot of the session. Unknown ids come back false;
// callers treat that as a silent no-op because the call may have ended
// while the message was in flight.
func (m *CallManager) Get(callID string) (CallSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[callID]
	if !ok {
		return CallSession{}, false
	}
	return *sess, true
}

// Accept moves the session from ringing to accepted. Only the receiver
// may accept, and only while the session is still ringing.
func (m *CallManager) Accept(callID, userID string) (CallSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[callID]
	if !ok || sess.State != CallRinging || sess.ReceiverID != userID {
		return CallSession{}, false
	}
	sess.State = CallAccepted
	return *sess, true
}

// Remove destroys the session. Exactly one caller wins; everyone else
// gets false. A party check keeps strangers from tearing down calls
// they are not in.
func (m *CallManager) Remove(callID, userID string) (CallSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[callID]
	if !ok || !sess.Involves(userID) {
		return CallSession{}, false
	}
	delete(m.sessions, callID)
	return *sess, true
}

// RemoveAllFor destroys every session involving the user and returns
// them. Each session is returned to exactly one caller even under
// concurrent disconnects of both parties.
func (m *CallManager) RemoveAllFor(userID string) []CallSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []CallSession
	for id, sess := range m.sessions {
		if !sess.Involves(userID) {
			continue
		}
		delete(m.sessions, id)
		out = append(out, *sess)
	}
	return out
}

// Len reports the number of active sessions.
func (m *CallManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
