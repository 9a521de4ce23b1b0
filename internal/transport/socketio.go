package transport

import (
	"fmt"
	"sync"
	"time"

	socket "github.com/zishang520/socket.io/clients/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/shahin-grc/collab/pkg/logger"
)

const (
	// reconnectDelay is the fixed pause between automatic reconnection
	// attempts. Randomization is disabled so the delay stays exact.
	reconnectDelay = 2000 * time.Millisecond
)

// SocketIO is the production Transport backed by a socket.io client
// connection. The auth token travels in the handshake auth payload.
type SocketIO struct {
	serverURL     string
	maxReconnects int

	mu        sync.RWMutex
	sock      *socket.Socket
	token     string
	connected bool
	handlers  map[string][]RawHandler
	attached  map[string]bool
}

var _ Transport = (*SocketIO)(nil)

// NewSocketIO returns a disconnected adapter for the given endpoint.
// maxReconnects caps automatic reconnection attempts; after the cap the
// client stops retrying and the failure stays visible to the session.
func NewSocketIO(serverURL string, maxReconnects int) *SocketIO {
	return &SocketIO{
		serverURL:     serverURL,
		maxReconnects: maxReconnects,
		handlers:      make(map[string][]RawHandler),
		attached:      make(map[string]bool),
	}
}

// Connect implements Transport.
func (s *SocketIO) Connect(token string) error {
	s.mu.Lock()
	if s.sock != nil {
		s.mu.Unlock()
		logger.Debugf("socketio: already connected, ignoring connect")
		return nil
	}
	s.token = token
	s.mu.Unlock()

	opts := socket.DefaultOptions()
	opts.SetTransports(types.NewSet(socket.WebSocket, socket.Polling))
	opts.SetAuth(map[string]interface{}{
		"token": token,
	})
	opts.SetReconnection(true)
	opts.SetReconnectionAttempts(float64(s.maxReconnects))
	opts.SetReconnectionDelay(float64(reconnectDelay.Milliseconds()))
	opts.SetReconnectionDelayMax(float64(reconnectDelay.Milliseconds()))
	opts.SetRandomizationFactor(0)

	logger.Debugf("socketio: connecting to %s", s.serverURL)
	sock, err := socket.Connect(s.serverURL, opts)
	if err != nil {
		return fmt.Errorf("socketio: connect failed: %w", err)
	}

	s.mu.Lock()
	s.sock = sock
	s.mu.Unlock()

	sock.On(types.EventName("connect"), func(args ...any) {
		s.mu.Lock()
		s.connected = true
		s.mu.Unlock()
		logger.Debugf("socketio: connected, id=%s", sock.Id())
		s.dispatch("connect", args...)
	})

	sock.On(types.EventName("disconnect"), func(args ...any) {
		s.mu.Lock()
		s.connected = false
		s.mu.Unlock()
		s.dispatch("disconnect", args...)
	})

	sock.On(types.EventName("connect_error"), func(args ...any) {
		s.dispatch("connect_error", args...)
	})

	sock.On(types.EventName("error"), func(args ...any) {
		s.dispatch("error", args...)
	})

	s.mu.Lock()
	s.attached["connect"] = true
	s.attached["disconnect"] = true
	s.attached["connect_error"] = true
	s.attached["error"] = true
	pending := make([]string, 0, len(s.handlers))
	for event := range s.handlers {
		if !s.attached[event] {
			pending = append(pending, event)
		}
	}
	s.mu.Unlock()

	for _, event := range pending {
		s.attach(sock, event)
	}
	return nil
}

// Reconnect implements Transport. The previous socket is discarded and a new
// handshake is performed with the retained token.
func (s *SocketIO) Reconnect() error {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	s.Disconnect()
	return s.Connect(token)
}

// On implements Transport.
func (s *SocketIO) On(event string, handler RawHandler) {
	s.mu.Lock()
	s.handlers[event] = append(s.handlers[event], handler)
	sock := s.sock
	needAttach := sock != nil && !s.attached[event]
	s.mu.Unlock()

	if needAttach {
		s.attach(sock, event)
	}
}

// attach bridges a raw socket event into the handler registry exactly once.
func (s *SocketIO) attach(sock *socket.Socket, event string) {
	s.mu.Lock()
	if s.attached[event] {
		s.mu.Unlock()
		return
	}
	s.attached[event] = true
	s.mu.Unlock()

	sock.On(types.EventName(event), func(args ...any) {
		s.dispatch(event, args...)
	})
}

func (s *SocketIO) dispatch(event string, args ...any) {
	s.mu.RLock()
	handlers := make([]RawHandler, len(s.handlers[event]))
	copy(handlers, s.handlers[event])
	s.mu.RUnlock()

	logger.Tracef("socketio: event %s (%d handlers)", event, len(handlers))
	for _, h := range handlers {
		h(args...)
	}
}

// Emit implements Transport.
func (s *SocketIO) Emit(event string, payload map[string]any) error {
	s.mu.RLock()
	sock := s.sock
	s.mu.RUnlock()

	if sock == nil {
		return ErrNotConnected
	}
	logger.Tracef("socketio: emit %s", event)
	sock.Emit(event, payload)
	return nil
}

// Disconnect implements Transport.
func (s *SocketIO) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sock != nil {
		s.sock.Disconnect()
		s.sock = nil
	}
	s.connected = false
	s.attached = make(map[string]bool)
}

// Connected implements Transport.
func (s *SocketIO) Connected() bool {
	s.mu.RLock()
	sock := s.sock
	connected := s.connected
	s.mu.RUnlock()

	if connected {
		return true
	}
	if sock != nil && sock.Connected() {
		s.mu.Lock()
		s.connected = true
		s.mu.Unlock()
		return true
	}
	return false
}

// ID implements Transport.
func (s *SocketIO) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sock == nil {
		return ""
	}
	return string(s.sock.Id())
}

// Name implements Transport. The Go client does not expose the negotiated
// engine transport, so this reports the preferred transport once connected.
func (s *SocketIO) Name() string {
	if s.Connected() {
		return "websocket"
	}
	return ""
}
