package sdk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shahin-grc/collab/internal/clock/clocktest"
	"github.com/shahin-grc/collab/internal/config"
	"github.com/shahin-grc/collab/internal/protocol/wire"
	"github.com/shahin-grc/collab/internal/transport/transporttest"
)

func newTestClient(t *testing.T) (*Client, *transporttest.Fake, *clocktest.FakeClock) {
	t.Helper()
	tr := transporttest.New()
	clk := clocktest.New(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	cfg := &config.Config{WSURL: "http://localhost:3006", MaxReconnects: 5}
	c := New(cfg, WithTransport(tr), WithClock(clk))
	require.NoError(t, c.Connect("test-token"))
	return c, tr, clk
}

func TestWorkflowNotificationFoldsIntoInbox(t *testing.T) {
	c, tr, _ := newTestClient(t)

	tr.Fire(wire.EventWorkflowNotification, map[string]any{
		"workflowId": "wf-1",
		"action":     "approval_requested",
		"fromUser":   "u2",
		"metadata":   map[string]any{"step": "review"},
		"timestamp":  "2026-03-01T10:00:00Z",
	})

	entries := c.Inbox().Notifications()
	require.Len(t, entries, 1)
	require.Equal(t, "wf-1", entries[0].WorkflowID)
	require.Equal(t, "approval_requested", entries[0].Action)
	require.Equal(t, "u2", entries[0].FromUser)
	require.False(t, entries[0].Read)
	require.Equal(t, 1, c.Inbox().UnreadCount())
}

func TestMalformedNotificationIsDropped(t *testing.T) {
	c, tr, _ := newTestClient(t)

	tr.Fire(wire.EventWorkflowNotification, "not an object")
	require.Zero(t, c.Inbox().Len())
}

func TestDisconnectClearsInbox(t *testing.T) {
	c, tr, _ := newTestClient(t)

	tr.Fire(wire.EventWorkflowNotification, map[string]any{"workflowId": "wf-1", "action": "x"})
	require.Equal(t, 1, c.Inbox().Len())

	c.Disconnect()
	require.Zero(t, c.Inbox().Len())
	require.False(t, c.Connected())
}

func TestRepeatedConnectKeepsSingleInboxFold(t *testing.T) {
	c, tr, _ := newTestClient(t)

	// A second Connect without an intervening Disconnect must not stack a
	// second subscription; each notification folds into the inbox once.
	require.NoError(t, c.Connect("test-token"))

	tr.Fire(wire.EventWorkflowNotification, map[string]any{"workflowId": "wf-1", "action": "x"})
	require.Equal(t, 1, c.Inbox().Len())
	require.Equal(t, 1, c.Inbox().UnreadCount())
}

func TestInboxSubscriptionSurvivesReconnectCycle(t *testing.T) {
	c, tr, _ := newTestClient(t)

	c.Disconnect()
	require.NoError(t, c.Connect("test-token"))

	tr.Fire(wire.EventWorkflowNotification, map[string]any{"workflowId": "wf-2", "action": "x"})
	require.Equal(t, 1, c.Inbox().Len())
}

func TestTriggerWorkflowActionEmits(t *testing.T) {
	c, tr, _ := newTestClient(t)

	c.TriggerWorkflowAction("wf-1", "approve", "u3", nil)

	emits := tr.EmitsOf(wire.EventWorkflowAction)
	require.Len(t, emits, 1)
	require.Equal(t, "wf-1", emits[0].Payload["workflowId"])
	require.Equal(t, "approve", emits[0].Payload["action"])
	require.Equal(t, "u3", emits[0].Payload["targetUserId"])
	require.Equal(t, map[string]any{}, emits[0].Payload["metadata"])
}

func TestDisabledModeIsInert(t *testing.T) {
	cfg := &config.Config{WSDisabled: true, MaxReconnects: 5}
	c := New(cfg, WithClock(clocktest.New(time.Now())))

	require.NoError(t, c.Connect("test-token"))
	require.False(t, c.Connected())

	// Collaboration commands are dropped silently; local state still works.
	view := c.Assessment("A1")
	defer view.Close()
	view.UpdateField("status", "completed")

	val, ok := view.Field("status")
	require.True(t, ok)
	require.Equal(t, "completed", val)
	require.Empty(t, c.Rooms())

	c.TriggerWorkflowAction("wf-1", "approve", "u3", nil)
	c.Disconnect()
}
