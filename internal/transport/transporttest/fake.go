package transporttest

import (
	"sync"

	"github.com/shahin-grc/collab/internal/transport"
)

// Emitted records one outbound message sent through the fake.
type Emitted struct {
	Event   string
	Payload map[string]any
}

// Fake is an in-memory transport.Transport for protocol tests. Tests drive
// inbound traffic with Fire and inspect outbound traffic with Emits.
type Fake struct {
	mu        sync.Mutex
	connected bool
	token     string
	socketID  string
	handlers  map[string][]transport.RawHandler
	emits     []Emitted

	// ConnectErr, when set, is returned by Connect.
	ConnectErr error
	// AutoConnect makes Connect fire the raw connect event, mirroring the
	// socket.io client. Defaults to true via New.
	AutoConnect bool
}

var _ transport.Transport = (*Fake)(nil)

// New returns a disconnected Fake with AutoConnect enabled.
func New() *Fake {
	return &Fake{
		handlers:    make(map[string][]transport.RawHandler),
		socketID:    "fake-socket",
		AutoConnect: true,
	}
}

// Connect implements transport.Transport.
func (f *Fake) Connect(token string) error {
	if f.ConnectErr != nil {
		return f.ConnectErr
	}
	f.mu.Lock()
	f.token = token
	f.connected = true
	auto := f.AutoConnect
	f.mu.Unlock()

	if auto {
		f.Fire("connect")
	}
	return nil
}

// Reconnect implements transport.Transport.
func (f *Fake) Reconnect() error {
	f.Disconnect()
	f.mu.Lock()
	token := f.token
	f.mu.Unlock()
	return f.Connect(token)
}

// On implements transport.Transport.
func (f *Fake) On(event string, handler transport.RawHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[event] = append(f.handlers[event], handler)
}

// Emit implements transport.Transport.
func (f *Fake) Emit(event string, payload map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return transport.ErrNotConnected
	}
	f.emits = append(f.emits, Emitted{Event: event, Payload: payload})
	return nil
}

// Disconnect implements transport.Transport.
func (f *Fake) Disconnect() {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
}

// Connected implements transport.Transport.
func (f *Fake) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// ID implements transport.Transport.
func (f *Fake) ID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return ""
	}
	return f.socketID
}

// Name implements transport.Transport.
func (f *Fake) Name() string {
	if f.Connected() {
		return "fake"
	}
	return ""
}

// Fire invokes every registered handler for a raw inbound event.
func (f *Fake) Fire(event string, args ...any) {
	f.mu.Lock()
	handlers := make([]transport.RawHandler, len(f.handlers[event]))
	copy(handlers, f.handlers[event])
	f.mu.Unlock()

	for _, h := range handlers {
		h(args...)
	}
}

// SetConnected toggles the connected flag without firing lifecycle events.
func (f *Fake) SetConnected(connected bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = connected
}

// Emits returns a copy of all outbound messages recorded so far.
func (f *Fake) Emits() []Emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Emitted, len(f.emits))
	copy(out, f.emits)
	return out
}

// EmitsOf returns the outbound messages for a single event name.
func (f *Fake) EmitsOf(event string) []Emitted {
	var out []Emitted
	for _, e := range f.Emits() {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears recorded outbound messages.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emits = nil
}
