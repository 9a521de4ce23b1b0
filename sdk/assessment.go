package sdk

import (
	"sync"

	"github.com/shahin-grc/collab/internal/presence"
	"github.com/shahin-grc/collab/internal/protocol/wire"
	"github.com/shahin-grc/collab/internal/session"
	"github.com/shahin-grc/collab/pkg/logger"
)

// AssessmentView binds one assessment to the live collaboration state: the
// collaborator roster for its room and a locally folded copy of the fields
// edited in this session.
//
// Field updates are optimistic: UpdateField applies locally first, then
// broadcasts. Inbound assessment_updated events overwrite unconditionally,
// so whichever update a peer sees last is what it renders.
type AssessmentView struct {
	client  *Client
	id      string
	room    string
	tracker *presence.Tracker

	mu        sync.Mutex
	fields    map[string]any
	last      *wire.AssessmentUpdated
	connected bool

	unsubs    []func()
	closeOnce sync.Once
}

// Assessment joins the assessment room and returns a live view of it. The
// caller owns the view and must Close it when the resource leaves scope.
func (c *Client) Assessment(assessmentID string) *AssessmentView {
	v := &AssessmentView{
		client:    c,
		id:        assessmentID,
		room:      wire.RoomKey(wire.ResourceAssessment, assessmentID),
		tracker:   presence.NewTracker(wire.RoomKey(wire.ResourceAssessment, assessmentID), c.clk),
		fields:    make(map[string]any),
		connected: c.Connected(),
	}

	v.unsubs = append(v.unsubs,
		c.hub.Subscribe(wire.EventConnectionStatus, v.onConnectionStatus),
		c.hub.Subscribe(wire.EventRoomStatus, v.onRoomStatus),
		c.hub.Subscribe(wire.EventUserJoined, v.onUserJoined),
		c.hub.Subscribe(wire.EventUserLeft, v.onUserLeft),
		c.hub.Subscribe(wire.EventAssessmentUpdated, v.onAssessmentUpdated),
	)

	c.rooms.JoinAssessment(assessmentID)
	return v
}

// UpdateField applies a field change locally, then broadcasts it. The local
// write is synchronous: a read issued immediately after sees the new value,
// connected or not.
func (v *AssessmentView) UpdateField(field string, value any) {
	v.mu.Lock()
	v.fields[field] = value
	v.mu.Unlock()

	v.client.rooms.UpdateAssessmentField(v.id, field, value)
}

// Field returns the locally known value of a field.
func (v *AssessmentView) Field(name string) (any, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	val, ok := v.fields[name]
	return val, ok
}

// Fields returns a copy of all locally known field values.
func (v *AssessmentView) Fields() map[string]any {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]any, len(v.fields))
	for k, val := range v.fields {
		out[k] = val
	}
	return out
}

// LastUpdate returns the most recent inbound update, or nil if none arrived.
func (v *AssessmentView) LastUpdate() *wire.AssessmentUpdated {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.last == nil {
		return nil
	}
	u := *v.last
	return &u
}

// Collaborators returns the active users in the assessment room.
func (v *AssessmentView) Collaborators() []string {
	return v.tracker.Collaborators()
}

// Connected reports the connection state as last seen by this view.
func (v *AssessmentView) Connected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connected
}

// Close disposes every subscription held by this view. Room membership is
// kept; rooms are additive for the session.
func (v *AssessmentView) Close() {
	v.closeOnce.Do(func() {
		for _, unsub := range v.unsubs {
			unsub()
		}
		v.tracker.Close()
	})
}

func (v *AssessmentView) onConnectionStatus(payload any) {
	st, ok := payload.(session.Status)
	if !ok {
		return
	}
	v.mu.Lock()
	v.connected = st.Connected
	v.mu.Unlock()
}

func (v *AssessmentView) onRoomStatus(payload any) {
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

func (v *AssessmentView) onUserJoined(payload any) {
	var u wire.UserJoined
	if err := wire.Decode(payload, &u); err != nil {
		return
	}
	v.tracker.ApplyUserJoined(u.UserID)
}

func (v *AssessmentView) onUserLeft(payload any) {
	var u wire.UserLeft
	if err := wire.Decode(payload, &u); err != nil {
		return
	}
	v.tracker.ApplyUserLeft(u.UserID)
}

func (v *AssessmentView) onAssessmentUpdated(payload any) {
	var u wire.AssessmentUpdated
	if err := wire.Decode(payload, &u); err != nil {
		logger.Warnf("sdk: bad assessment_updated payload: %v", err)
		return
	}
	if u.AssessmentID != v.id {
		return
	}

	v.mu.Lock()
	v.fields[u.Field] = u.Value
	v.last = &u
	v.mu.Unlock()
}
