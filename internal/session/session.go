package session

import (
	"fmt"
	"sync"

	"github.com/shahin-grc/collab/internal/hub"
	"github.com/shahin-grc/collab/internal/identity"
	"github.com/shahin-grc/collab/internal/protocol/wire"
	"github.com/shahin-grc/collab/internal/rooms"
	"github.com/shahin-grc/collab/internal/transport"
	"github.com/shahin-grc/collab/pkg/logger"
)

// Status is the normalized connection state. It is owned and mutated
// exclusively by the Session; everyone else sees copies.
type Status struct {
	Connected         bool
	SocketID          string
	Transport         string
	ReconnectAttempts int
	LastError         string
	Reason            string
}

// ConnectionError is the connection_error hub payload: the transport failed
// an attempt and will retry until the configured ceiling.
type ConnectionError struct {
	Error    string
	Attempts int
}

// Session owns the transport and translates its raw lifecycle events into
// connection_status, connection_error and socket_error publications on the
// hub, and republishes the domain events verbatim.
//
// A Session is constructed and injected explicitly; its lifetime follows
// login/logout. There is no package-level instance: hidden singletons leak
// state across tenants and tests.
type Session struct {
	tr            transport.Transport
	hub           *hub.Hub
	rooms         *rooms.Membership
	maxReconnects int

	mu     sync.Mutex
	status Status
	claims identity.Claims
	closed bool
}

// New wires a Session to its transport. Raw handlers are registered once,
// up front; they stay in place across reconnects of the same session.
func New(tr transport.Transport, h *hub.Hub, membership *rooms.Membership, maxReconnects int) *Session {
	s := &Session{
		tr:            tr,
		hub:           h,
		rooms:         membership,
		maxReconnects: maxReconnects,
	}

	tr.On(wire.EventConnect, s.onConnect)
	tr.On(wire.EventDisconnect, s.onDisconnect)
	tr.On(wire.EventConnectError, s.onConnectError)
	tr.On(wire.EventError, s.onSocketError)

	for _, event := range wire.DomainEvents {
		event := event
		tr.On(event, func(args ...any) {
			if s.isClosed() {
				return
			}
			var payload any
			if len(args) > 0 {
				payload = args[0]
			}
			s.hub.Publish(event, payload)
		})
	}
	return s
}

// Connect opens the transport with the auth token in the handshake payload.
// Claims are peeked (unverified) for logging and local scoping.
func (s *Session) Connect(token string) error {
	s.mu.Lock()
	s.closed = false
	s.mu.Unlock()

	claims, err := identity.FromToken(token)
	if err != nil {
		logger.Debugf("session: token claims unavailable: %v", err)
	} else {
		s.mu.Lock()
		s.claims = claims
		s.mu.Unlock()
		logger.Infof("session: connecting as user=%s tenant=%s", claims.UserID, claims.TenantID)
	}
	return s.tr.Connect(token)
}

// Reconnect forces a fresh connection with the retained token. Room
// membership is NOT replayed: the caller reads Rooms() and rejoins
// explicitly if it wants its rooms back.
func (s *Session) Reconnect() error {
	return s.tr.Reconnect()
}

// Disconnect tears the session down: transport closed, room membership and
// every hub registration cleared synchronously so nothing leaks into a
// next session for a different user. Transport events arriving after
// teardown are ignored until the next Connect.
func (s *Session) Disconnect() {
	s.tr.Disconnect()

	s.mu.Lock()
	s.status = Status{}
	s.claims = identity.Claims{}
	s.closed = true
	s.mu.Unlock()

	s.rooms.Clear()
	s.hub.Clear()
	logger.Infof("session: disconnected and cleared")
}

// Status returns a copy of the current connection state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Connected reports whether the transport is currently established.
func (s *Session) Connected() bool {
	return s.tr.Connected()
}

// Identity returns the unverified claims from the last Connect token.
func (s *Session) Identity() identity.Claims {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claims
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) onConnect(...any) {
	if s.isClosed() {
		return
	}
	s.mu.Lock()
	s.status.Connected = true
	s.status.SocketID = s.tr.ID()
	s.status.Transport = s.tr.Name()
	s.status.ReconnectAttempts = 0
	s.status.LastError = ""
	s.status.Reason = ""
	snapshot := s.status
	s.mu.Unlock()

	logger.Infof("session: connected, socket=%s", snapshot.SocketID)
	s.hub.Publish(wire.EventConnectionStatus, snapshot)
}

func (s *Session) onDisconnect(args ...any) {
	if s.isClosed() {
		return
	}
	reason := ""
	if len(args) > 0 {
		if r, ok := args[0].(string); ok {
			reason = r
		}
	}

	s.mu.Lock()
	s.status.Connected = false
	s.status.SocketID = ""
	s.status.Transport = ""
	s.status.Reason = reason
	snapshot := s.status
	s.mu.Unlock()

	logger.Infof("session: disconnected: %s", reason)
	s.hub.Publish(wire.EventConnectionStatus, snapshot)
}

func (s *Session) onConnectError(args ...any) {
	if s.isClosed() {
		return
	}
	errText := "connection error"
	if len(args) > 0 && args[0] != nil {
		errText = fmt.Sprintf("%v", args[0])
	}

	s.mu.Lock()
	s.status.ReconnectAttempts++
	s.status.LastError = errText
	attempts := s.status.ReconnectAttempts
	s.mu.Unlock()

	if attempts >= s.maxReconnects {
		logger.Warnf("session: reconnect ceiling reached (%d/%d): %s", attempts, s.maxReconnects, errText)
	} else {
		logger.Debugf("session: connect error (attempt %d/%d): %s", attempts, s.maxReconnects, errText)
	}
	s.hub.Publish(wire.EventConnectionError, ConnectionError{Error: errText, Attempts: attempts})
}

func (s *Session) onSocketError(args ...any) {
	if s.isClosed() {
		return
	}
	var payload any
	if len(args) > 0 {
		payload = args[0]
	}
	logger.Warnf("session: socket error: %v", payload)
	s.hub.Publish(wire.EventSocketError, payload)
}
