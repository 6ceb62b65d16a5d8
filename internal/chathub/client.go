package chathub

import "errors"

// ErrBackpressure is returned by TrySend when the client's outbound
// buffer is full. The event is dropped rather than blocking the hub.
var ErrBackpressure = errors.New("chathub: client send buffer full")

// ErrClientClosed is returned by TrySend after the client was closed.
var ErrClientClosed = errors.New("chathub: client closed")

// Client is one live connection. It abstracts the underlying transport
// so the hub can manage connections uniformly and tests can substitute
// in-memory clients.
type Client interface {
	// UserID returns the authenticated owner of the connection.
	UserID() string

	// TrySend queues an event for delivery without blocking. It fails
	// with ErrBackpressure when the buffer is full and ErrClientClosed
	// after Close.
	TrySend(evt Event) error

	// Run starts the transport pumps.
	Run()

	// Close shuts the connection down. Safe to call more than once.
	Close()
}
