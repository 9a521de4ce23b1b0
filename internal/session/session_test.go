package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shahin-grc/collab/internal/clock/clocktest"
	"github.com/shahin-grc/collab/internal/hub"
	"github.com/shahin-grc/collab/internal/protocol/wire"
	"github.com/shahin-grc/collab/internal/rooms"
	"github.com/shahin-grc/collab/internal/transport/transporttest"
)

func newSession(t *testing.T) (*Session, *transporttest.Fake, *hub.Hub, *rooms.Membership) {
	t.Helper()
	tr := transporttest.New()
	h := hub.New()
	clk := clocktest.New(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	membership := rooms.New(tr, clk)
	return New(tr, h, membership, 5), tr, h, membership
}

func TestConnectPublishesConnectedStatus(t *testing.T) {
	s, _, h, _ := newSession(t)

	var statuses []Status
	h.Subscribe(wire.EventConnectionStatus, func(p any) {
		statuses = append(statuses, p.(Status))
	})

	require.NoError(t, s.Connect("abc123"))

	require.Len(t, statuses, 1)
	require.True(t, statuses[0].Connected)
	require.Zero(t, statuses[0].ReconnectAttempts)
	require.Equal(t, "fake-socket", statuses[0].SocketID)
	require.True(t, s.Connected())
}

func TestConnectResetsReconnectAttempts(t *testing.T) {
	s, tr, _, _ := newSession(t)
	tr.AutoConnect = false
	require.NoError(t, s.Connect("abc123"))

	tr.Fire(wire.EventConnectError, "dial tcp: refused")
	tr.Fire(wire.EventConnectError, "dial tcp: refused")
	tr.Fire(wire.EventConnectError, "dial tcp: refused")
	require.Equal(t, 3, s.Status().ReconnectAttempts)
	require.NotEmpty(t, s.Status().LastError)

	tr.Fire(wire.EventConnect)
	st := s.Status()
	require.True(t, st.Connected)
	require.Zero(t, st.ReconnectAttempts)
	require.Empty(t, st.LastError)
}

func TestConnectErrorPublishesAttemptCount(t *testing.T) {
	s, tr, h, _ := newSession(t)
	tr.AutoConnect = false
	require.NoError(t, s.Connect("abc123"))

	var errs []ConnectionError
	h.Subscribe(wire.EventConnectionError, func(p any) {
		errs = append(errs, p.(ConnectionError))
	})

	tr.Fire(wire.EventConnectError, "boom")
	tr.Fire(wire.EventConnectError, "boom")

	require.Len(t, errs, 2)
	require.Equal(t, 1, errs[0].Attempts)
	require.Equal(t, 2, errs[1].Attempts)
	require.Equal(t, "boom", errs[1].Error)
}

func TestDisconnectEventPreservesReason(t *testing.T) {
	s, tr, h, _ := newSession(t)
	require.NoError(t, s.Connect("abc123"))

	var last Status
	h.Subscribe(wire.EventConnectionStatus, func(p any) { last = p.(Status) })

	tr.SetConnected(false)
	tr.Fire(wire.EventDisconnect, "transport close")

	require.False(t, last.Connected)
	require.Equal(t, "transport close", last.Reason)
	require.Equal(t, "transport close", s.Status().Reason)
}

func TestSocketErrorIsPublishedNotThrown(t *testing.T) {
	s, tr, h, _ := newSession(t)
	require.NoError(t, s.Connect("abc123"))

	var got any
	h.Subscribe(wire.EventSocketError, func(p any) { got = p })

	tr.Fire(wire.EventError, map[string]any{"message": "Not authorized for this assessment"})
	require.Equal(t, map[string]any{"message": "Not authorized for this assessment"}, got)
}

func TestDomainEventsAreRepublishedVerbatim(t *testing.T) {
	s, tr, h, _ := newSession(t)
	require.NoError(t, s.Connect("abc123"))

	var got any
	h.Subscribe(wire.EventAssessmentUpdated, func(p any) { got = p })

	payload := map[string]any{"assessmentId": "A1", "field": "status", "value": "blocked"}
	tr.Fire(wire.EventAssessmentUpdated, payload)
	require.Equal(t, payload, got)
}

func TestDisconnectClearsRoomsAndHubRegistrations(t *testing.T) {
	s, tr, h, membership := newSession(t)
	require.NoError(t, s.Connect("abc123"))

	membership.JoinAssessment("A1")
	require.NotEmpty(t, membership.Rooms())

	called := false
	h.Subscribe(wire.EventConnectionStatus, func(any) { called = true })

	s.Disconnect()

	require.Empty(t, membership.Rooms())
	require.Zero(t, h.HandlerCount(wire.EventConnectionStatus))
	require.False(t, s.Connected())
	require.Equal(t, Status{}, s.Status())

	// A handler registered before teardown must never fire again.
	tr.Fire(wire.EventConnect)
	require.False(t, called)
}

func TestTransportEventsIgnoredAfterTeardown(t *testing.T) {
	s, tr, h, _ := newSession(t)
	require.NoError(t, s.Connect("abc123"))

	s.Disconnect()

	// A stray connect after teardown must not resurrect the status.
	tr.Fire(wire.EventConnect)
	require.Equal(t, Status{}, s.Status())

	tr.Fire(wire.EventConnectError, "late error")
	require.Zero(t, s.Status().ReconnectAttempts)

	var republished bool
	h.Subscribe(wire.EventAssessmentUpdated, func(any) { republished = true })
	tr.Fire(wire.EventAssessmentUpdated, map[string]any{"assessmentId": "A1"})
	require.False(t, republished)

	// The next Connect re-arms the session.
	require.NoError(t, s.Connect("abc123"))
	require.True(t, s.Status().Connected)
	tr.Fire(wire.EventAssessmentUpdated, map[string]any{"assessmentId": "A1"})
	require.True(t, republished)
}

func TestRoomMembershipNotReplayedOnReconnect(t *testing.T) {
	s, tr, _, membership := newSession(t)
	require.NoError(t, s.Connect("abc123"))
	membership.JoinAssessment("A1")
	tr.Reset()

	require.NoError(t, s.Reconnect())

	// No join_assessment is re-emitted; the caller decides whether to rejoin.
	require.Empty(t, tr.EmitsOf(wire.EventJoinAssessment))
	require.Equal(t, []string{"assessment_A1"}, membership.Rooms())
}

func TestIdentityClaimsExposedBestEffort(t *testing.T) {
	s, _, _, _ := newSession(t)

	// Opaque tokens still connect; claims stay empty.
	require.NoError(t, s.Connect("opaque-token"))
	require.Empty(t, s.Identity().UserID)
}
