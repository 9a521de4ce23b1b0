package sdk

import (
	"sync"

	"github.com/shahin-grc/collab/internal/clock"
	"github.com/shahin-grc/collab/internal/config"
	"github.com/shahin-grc/collab/internal/hub"
	"github.com/shahin-grc/collab/internal/identity"
	"github.com/shahin-grc/collab/internal/inbox"
	"github.com/shahin-grc/collab/internal/protocol/wire"
	"github.com/shahin-grc/collab/internal/rooms"
	"github.com/shahin-grc/collab/internal/session"
	"github.com/shahin-grc/collab/internal/transport"
	"github.com/shahin-grc/collab/pkg/logger"
)

// Client is the top-level entry point to the collaboration layer. It
// composes the transport, event hub, connection session, room membership
// and notification inbox, and hands out per-resource views.
//
// A Client is constructed per login and torn down at logout. When the
// configuration disables the websocket layer the Client still works, with
// every collaboration feature inert.
type Client struct {
	cfg     *config.Config
	clk     clock.Clock
	tr      transport.Transport
	hub     *hub.Hub
	session *session.Session
	rooms   *rooms.Membership
	inbox   *inbox.Inbox

	mu         sync.Mutex
	subscribed bool
}

// Option customizes Client construction.
type Option func(*Client)

// WithTransport replaces the transport, primarily for tests.
func WithTransport(tr transport.Transport) Option {
	return func(c *Client) { c.tr = tr }
}

// WithClock replaces the time source, primarily for tests.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clk = clk }
}

// New builds a Client from configuration.
func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		cfg: cfg,
		clk: clock.Real{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.tr == nil {
		if cfg.WSDisabled {
			c.tr = transport.Disabled{}
		} else {
			c.tr = transport.NewSocketIO(cfg.WSURL, cfg.MaxReconnects)
		}
	}

	c.hub = hub.New()
	c.rooms = rooms.New(c.tr, c.clk)
	c.session = session.New(c.tr, c.hub, c.rooms, cfg.MaxReconnects)
	c.inbox = inbox.New()
	return c
}

// Connect opens the connection with the given auth token and installs the
// client-level subscriptions (the notification inbox fold). Installation is
// idempotent: repeated Connect calls keep a single live subscription, and
// Disconnect clears the hub so the next Connect installs afresh.
func (c *Client) Connect(token string) error {
	c.mu.Lock()
	if !c.subscribed {
		c.hub.Subscribe(wire.EventWorkflowNotification, c.onWorkflowNotification)
		c.hub.Subscribe(wire.EventWorkflowUpdated, c.onWorkflowUpdated)
		c.subscribed = true
	}
	c.mu.Unlock()
	return c.session.Connect(token)
}

// Disconnect tears the session down, clearing room membership, hub
// registrations and the inbox.
func (c *Client) Disconnect() {
	c.session.Disconnect()
	c.mu.Lock()
	c.subscribed = false
	c.mu.Unlock()
	c.inbox.Clear()
}

// Reconnect forces a fresh connection with the retained token. Previously
// joined rooms are not rejoined automatically; see Rooms.
func (c *Client) Reconnect() error {
	return c.session.Reconnect()
}

// Status returns the current normalized connection state.
func (c *Client) Status() session.Status {
	return c.session.Status()
}

// Connected reports whether the transport is established.
func (c *Client) Connected() bool {
	return c.session.Connected()
}

// Identity returns the unverified claims from the Connect token.
func (c *Client) Identity() identity.Claims {
	return c.session.Identity()
}

// Rooms lists the rooms joined in this session, for explicit rejoin after a
// reconnect.
func (c *Client) Rooms() []string {
	return c.rooms.Rooms()
}

// Subscribe registers a handler on the event hub and returns its disposer.
func (c *Client) Subscribe(event string, handler hub.Handler) func() {
	return c.hub.Subscribe(event, handler)
}

// Inbox returns the workflow notification inbox.
func (c *Client) Inbox() *inbox.Inbox {
	return c.inbox
}

// TriggerWorkflowAction sends a workflow command to another user. Purely
// outbound; any resulting notification arrives asynchronously.
func (c *Client) TriggerWorkflowAction(workflowID, action, targetUserID string, metadata map[string]any) {
	c.rooms.TriggerWorkflowAction(workflowID, action, targetUserID, metadata)
}

func (c *Client) onWorkflowNotification(payload any) {
	var n wire.WorkflowNotification
	if err := wire.Decode(payload, &n); err != nil {
		logger.Warnf("sdk: bad workflow_notification payload: %v", err)
		return
	}
	id := c.inbox.Add(n, c.clk.Now())
	logger.Debugf("sdk: notification %s from %s (%s)", id, n.FromUser, n.Action)
}

func (c *Client) onWorkflowUpdated(payload any) {
	var u wire.WorkflowUpdated
	if err := wire.Decode(payload, &u); err != nil {
		logger.Warnf("sdk: bad workflow_updated payload: %v", err)
		return
	}
	logger.Infof("sdk: workflow %s updated: %s by %s", u.WorkflowID, u.Action, u.Actor)
}
