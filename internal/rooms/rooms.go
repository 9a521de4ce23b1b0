package rooms

import (
	"sort"
	"sync"
	"time"

	"github.com/shahin-grc/collab/internal/clock"
	"github.com/shahin-grc/collab/internal/protocol/wire"
	"github.com/shahin-grc/collab/pkg/logger"
)

// Emitter is the slice of the transport that room commands need.
type Emitter interface {
	Connected() bool
	Emit(event string, payload map[string]any) error
}

// Membership tracks the rooms this session has joined and translates
// UI-facing commands into wire messages.
//
// Membership is additive: there is no leave operation, and it is not
// replayed after a reconnect. Callers that want to rejoin after a reconnect
// read Rooms() and join again explicitly.
//
// Commands sent while disconnected are dropped, not queued. This layer
// favors liveness over delivery guarantees; callers needing certainty check
// the connection state first.
type Membership struct {
	em  Emitter
	clk clock.Clock

	mu     sync.Mutex
	joined map[string]bool
}

// New returns an empty Membership bound to an emitter.
func New(em Emitter, clk clock.Clock) *Membership {
	return &Membership{
		em:     em,
		clk:    clk,
		joined: make(map[string]bool),
	}
}

// JoinAssessment joins the assessment room, announcing the join to the
// server. Repeat joins of the same room are idempotent.
func (m *Membership) JoinAssessment(assessmentID string) {
	if !m.em.Connected() {
		logger.Warnf("rooms: not connected, cannot join assessment %s", assessmentID)
		return
	}
	key := wire.RoomKey(wire.ResourceAssessment, assessmentID)

	m.mu.Lock()
	if m.joined[key] {
		m.mu.Unlock()
		return
	}
	m.joined[key] = true
	m.mu.Unlock()

	m.emit(wire.EventJoinAssessment, wire.JoinAssessment{AssessmentID: assessmentID})
	logger.Debugf("rooms: joined %s", key)
}

// JoinDocument records membership in a document room. No join message
// exists on the wire for documents; the server adds the connection to the
// room on its first document_edit.
func (m *Membership) JoinDocument(documentID string) {
	if !m.em.Connected() {
		logger.Warnf("rooms: not connected, cannot join document %s", documentID)
		return
	}
	key := wire.RoomKey(wire.ResourceDocument, documentID)

	m.mu.Lock()
	m.joined[key] = true
	m.mu.Unlock()
	logger.Debugf("rooms: joined %s", key)
}

// UpdateAssessmentField broadcasts a single-field assessment change.
func (m *Membership) UpdateAssessmentField(assessmentID, field string, value any) {
	if !m.em.Connected() {
		logger.Warnf("rooms: not connected, dropping assessment update for %s", assessmentID)
		return
	}
	m.emit(wire.EventAssessmentUpdate, wire.AssessmentUpdate{
		AssessmentID: assessmentID,
		Field:        field,
		Value:        value,
		Timestamp:    m.clk.Now().UTC().Format(time.RFC3339),
	})
}

// EditDocument broadcasts a full-content document edit.
func (m *Membership) EditDocument(documentID, operation string, cursor int, content string) {
	if !m.em.Connected() {
		logger.Warnf("rooms: not connected, dropping document edit for %s", documentID)
		return
	}
	m.emit(wire.EventDocumentEdit, wire.DocumentEdit{
		DocumentID: documentID,
		Operation:  operation,
		Cursor:     cursor,
		Content:    content,
	})
}

// TriggerWorkflowAction sends a workflow command addressed to another user.
// It mutates no local state; the counterpart notification arrives
// asynchronously as a workflow_notification, never as a response.
func (m *Membership) TriggerWorkflowAction(workflowID, action, targetUserID string, metadata map[string]any) {
	if !m.em.Connected() {
		logger.Warnf("rooms: not connected, dropping workflow action %s", action)
		return
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	m.emit(wire.EventWorkflowAction, wire.WorkflowAction{
		WorkflowID:   workflowID,
		Action:       action,
		TargetUserID: targetUserID,
		Metadata:     metadata,
	})
}

// StartTyping announces that the local user started typing in a resource.
func (m *Membership) StartTyping(resourceType, resourceID string) {
	if !m.em.Connected() {
		return
	}
	m.emit(wire.EventTypingStart, wire.TypingIndicator{
		ResourceType: resourceType,
		ResourceID:   resourceID,
	})
}

// StopTyping announces that the local user stopped typing.
func (m *Membership) StopTyping(resourceType, resourceID string) {
	if !m.em.Connected() {
		return
	}
	m.emit(wire.EventTypingStop, wire.TypingIndicator{
		ResourceType: resourceType,
		ResourceID:   resourceID,
	})
}

// UpdateCursor broadcasts the local cursor position.
func (m *Membership) UpdateCursor(resourceType, resourceID string, position int, selection *wire.Selection) {
	if !m.em.Connected() {
		return
	}
	m.emit(wire.EventCursorPosition, wire.CursorPosition{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Position:     position,
		Selection:    selection,
	})
}

// Has reports whether a room has been joined this session.
func (m *Membership) Has(roomKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.joined[roomKey]
}

// Rooms returns the sorted set of rooms joined this session. Membership is
// lost on reconnect; this list lets a caller rejoin explicitly.
func (m *Membership) Rooms() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.joined))
	for key := range m.joined {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Clear forgets all joined rooms. Called at session teardown.
func (m *Membership) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joined = make(map[string]bool)
}

func (m *Membership) emit(event string, payload any) {
	data, err := wire.Encode(payload)
	if err != nil {
		logger.Errorf("rooms: encode %s: %v", event, err)
		return
	}
	if err := m.em.Emit(event, data); err != nil {
		logger.Warnf("rooms: emit %s: %v", event, err)
	}
}
