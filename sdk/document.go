package sdk

import (
	"sync"

	"github.com/shahin-grc/collab/internal/presence"
	"github.com/shahin-grc/collab/internal/protocol/wire"
	"github.com/shahin-grc/collab/internal/session"
	"github.com/shahin-grc/collab/pkg/logger"
)

// DocumentView binds one document to the live collaboration state: the room
// roster, peers' typing indicators and cursors, and the last content seen.
//
// Typing is driven from both sides. Locally, every Edit and StartTyping call
// feeds the debouncer, which emits typing_start immediately and infers
// typing_stop after the quiet period. Remotely, user_typing events arm a
// staleness timer per peer so a lost stop cannot pin an indicator forever.
type DocumentView struct {
	client    *Client
	id        string
	room      string
	tracker   *presence.Tracker
	debouncer *presence.Debouncer

	mu        sync.Mutex
	content   string
	lastEdit  *wire.DocumentEdited
	connected bool

	unsubs    []func()
	closeOnce sync.Once
}

// Document joins the document room and returns a live view of it. The caller
// owns the view and must Close it when the editor leaves scope.
func (c *Client) Document(documentID string) *DocumentView {
	room := wire.RoomKey(wire.ResourceDocument, documentID)
	v := &DocumentView{
		client:    c,
		id:        documentID,
		room:      room,
		tracker:   presence.NewTracker(room, c.clk),
		connected: c.Connected(),
	}
	v.debouncer = presence.NewDebouncer(c.clk,
		func() { c.rooms.StartTyping(wire.ResourceDocument, documentID) },
		func() { c.rooms.StopTyping(wire.ResourceDocument, documentID) },
	)

	v.unsubs = append(v.unsubs,
		c.hub.Subscribe(wire.EventConnectionStatus, v.onConnectionStatus),
		c.hub.Subscribe(wire.EventRoomStatus, v.onRoomStatus),
		c.hub.Subscribe(wire.EventDocumentEdited, v.onDocumentEdited),
		c.hub.Subscribe(wire.EventUserTyping, v.onUserTyping),
		c.hub.Subscribe(wire.EventCursorUpdated, v.onCursorUpdated),
	)

	c.rooms.JoinDocument(documentID)
	return v
}

// Edit broadcasts a full-content edit. It also feeds the typing debouncer
// and reports the new cursor position, mirroring what an editor keystroke
// produces.
func (v *DocumentView) Edit(operation string, cursor int, content string) {
	v.mu.Lock()
	v.content = content
	v.mu.Unlock()

	v.debouncer.Input()
	v.client.rooms.UpdateCursor(wire.ResourceDocument, v.id, cursor, nil)
	v.client.rooms.EditDocument(v.id, operation, cursor, content)
}

// StartTyping registers local typing activity without an edit, for UI
// events that precede content changes.
func (v *DocumentView) StartTyping() {
	v.debouncer.Input()
}

// StopTyping reports an explicit stop, skipping the quiet period.
func (v *DocumentView) StopTyping() {
	v.debouncer.Stop()
}

// UpdateCursor broadcasts the local cursor without an edit.
func (v *DocumentView) UpdateCursor(position int, selection *wire.Selection) {
	v.client.rooms.UpdateCursor(wire.ResourceDocument, v.id, position, selection)
}

// Content returns the last content seen, local or remote, whichever was
// applied last.
func (v *DocumentView) Content() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.content
}

// LastEdit returns the most recent inbound edit, or nil if none arrived.
func (v *DocumentView) LastEdit() *wire.DocumentEdited {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.lastEdit == nil {
		return nil
	}
	e := *v.lastEdit
	return &e
}

// Collaborators returns the active users in the document room.
func (v *DocumentView) Collaborators() []string {
	return v.tracker.Collaborators()
}

// TypingUsers returns the peers currently showing a typing indicator.
func (v *DocumentView) TypingUsers() []string {
	return v.tracker.TypingUsers()
}

// Cursors returns the last known cursor per peer.
func (v *DocumentView) Cursors() map[string]presence.Cursor {
	return v.tracker.Cursors()
}

// Connected reports the connection state as last seen by this view.
func (v *DocumentView) Connected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connected
}

// Close disposes the subscriptions, the debouncer and every pending
// staleness timer. No typing_stop is emitted on Close.
func (v *DocumentView) Close() {
	v.closeOnce.Do(func() {
		for _, unsub := range v.unsubs {
			unsub()
		}
		v.debouncer.Close()
		v.tracker.Close()
	})
}

func (v *DocumentView) onConnectionStatus(payload any) {
	st, ok := payload.(session.Status)
	if !ok {
		return
	}
	v.mu.Lock()
	v.connected = st.Connected
	v.mu.Unlock()
}

func (v *DocumentView) onRoomStatus(payload any) {
	var rs wire.RoomStatus
	if err := wire.Decode(payload, &rs); err != nil {
		logger.Warnf("sdk: bad room_status payload: %v", err)
		return
	}
	if rs.RoomID != "" && rs.RoomID != v.room {
		return
	}
	v.tracker.ApplyRoomStatus(rs.ActiveUsers)
}

func (v *DocumentView) onDocumentEdited(payload any) {
	var e wire.DocumentEdited
	if err := wire.Decode(payload, &e); err != nil {
		logger.Warnf("sdk: bad document_edited payload: %v", err)
		return
	}
	if e.DocumentID != v.id {
		return
	}

	v.mu.Lock()
	v.content = e.Content
	v.lastEdit = &e
	v.mu.Unlock()
}

func (v *DocumentView) onUserTyping(payload any) {
	var u wire.UserTyping
	if err := wire.Decode(payload, &u); err != nil {
		return
	}
	if u.ResourceType != "" && (u.ResourceType != wire.ResourceDocument || u.ResourceID != v.id) {
		return
	}
	v.tracker.ApplyTyping(u.UserID, u.Action)
}

func (v *DocumentView) onCursorUpdated(payload any) {
	var u wire.CursorUpdated
	if err := wire.Decode(payload, &u); err != nil {
		return
	}
	// cursor_updated carries no resource scope on the wire; apply it to this
	// view unconditionally.
	v.tracker.ApplyCursor(u.UserID, u.Position, u.Selection, v.client.clk.Now())
}
