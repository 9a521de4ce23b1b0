package transport

import "errors"

// ErrNotConnected is returned by Emit when no connection is established.
var ErrNotConnected = errors.New("transport: not connected")

// RawHandler consumes a raw socket event. For payload-bearing events the
// first argument is the decoded payload (typically map[string]any); for
// disconnect it is the reason string.
type RawHandler func(args ...any)

// Transport wraps a single bidirectional, message-based connection. It is a
// capability, not a specific library: the production implementation is
// socket.io, tests use a fake, and the disabled adapter turns the whole
// collaboration layer into an inert no-op.
type Transport interface {
	// Connect opens the connection, carrying the token in the handshake
	// authentication payload (never a header or query string).
	Connect(token string) error
	// Reconnect tears down any existing connection and dials again with the
	// retained token.
	Reconnect() error
	// On registers a raw inbound event handler. Multiple handlers per event
	// are allowed; registration may happen before or after Connect.
	On(event string, handler RawHandler)
	// Emit sends a message. It fails with ErrNotConnected when no socket is
	// established; it never buffers.
	Emit(event string, payload map[string]any) error
	// Disconnect tears the connection down. It is idempotent.
	Disconnect()
	// Connected reports whether the connection is currently established.
	Connected() bool
	// ID returns the server-assigned socket id, or "" when disconnected.
	ID() string
	// Name identifies the underlying transport ("websocket", "polling", ""),
	// best effort.
	Name() string
}
