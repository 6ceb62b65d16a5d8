package chathub

import "errors"

// AuthFailure reasons.
const (
	AuthMissingToken = "missing_token"
	AuthInvalidToken = "invalid_token"
	AuthUserNotFound = "user_not_found"
)

// AuthError rejects a handshake before any room or presence state is
// touched.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return "authentication failed: " + e.Reason }

// ErrNotAMember denies a room action for a user without persisted
// membership. It is user-actionable and surfaces as an error event.
var ErrNotAMember = errors.New("not a member of this room")

// ErrMissingRoom marks a room-scoped event that carried no room id.
var ErrMissingRoom = errors.New("missing room identifier")
