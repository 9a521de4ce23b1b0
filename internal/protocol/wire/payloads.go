package wire

import (
	"encoding/json"
	"fmt"
)

// Selection is a text selection range attached to a cursor.
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// JoinAssessment asks the server to add this connection to an assessment room.
type JoinAssessment struct {
	AssessmentID string `json:"assessmentId"`
}

// AssessmentUpdate broadcasts a single-field change to an assessment.
type AssessmentUpdate struct {
	AssessmentID string `json:"assessmentId"`
	Field        string `json:"field"`
	Value        any    `json:"value"`
	Timestamp    string `json:"timestamp"`
}

// AssessmentUpdated is the server-side echo of a field change made by a peer.
type AssessmentUpdated struct {
	AssessmentID string `json:"assessmentId"`
	Field        string `json:"field"`
	Value        any    `json:"value"`
	UpdatedBy    string `json:"updatedBy"`
	Timestamp    string `json:"timestamp"`
}

// DocumentEdit carries a full-content document edit. There is no operational
// transform; whichever edit a peer receives last is what it renders.
type DocumentEdit struct {
	DocumentID string `json:"documentId"`
	Operation  string `json:"operation"`
	Cursor     int    `json:"cursor"`
	Content    string `json:"content"`
}

// DocumentEdited is a peer's edit as relayed by the server.
type DocumentEdited struct {
	DocumentID string `json:"documentId"`
	Operation  string `json:"operation"`
	Cursor     int    `json:"cursor"`
	Content    string `json:"content"`
	EditedBy   string `json:"editedBy"`
	Timestamp  string `json:"timestamp"`
}

// WorkflowAction is a purely outbound command; the counterpart notification
// reaches the target user asynchronously, never as a direct response.
type WorkflowAction struct {
	WorkflowID   string         `json:"workflowId"`
	Action       string         `json:"action"`
	TargetUserID string         `json:"targetUserId"`
	Metadata     map[string]any `json:"metadata"`
}

// WorkflowNotification is an asynchronous workflow event addressed to this user.
type WorkflowNotification struct {
	WorkflowID string         `json:"workflowId"`
	Action     string         `json:"action"`
	FromUser   string         `json:"fromUser"`
	Metadata   map[string]any `json:"metadata"`
	Timestamp  string         `json:"timestamp"`
}

// WorkflowUpdated is a room-scoped workflow change broadcast.
type WorkflowUpdated struct {
	WorkflowID string         `json:"workflowId"`
	Action     string         `json:"action"`
	Actor      string         `json:"actor"`
	Metadata   map[string]any `json:"metadata"`
	Timestamp  string         `json:"timestamp"`
}

// TypingIndicator is the outbound typing_start/typing_stop payload.
type TypingIndicator struct {
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId"`
}

// UserTyping is the inbound typing indicator for a peer.
type UserTyping struct {
	UserID       string `json:"userId"`
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId"`
	Action       string `json:"action"`
}

// CursorPosition is the outbound cursor broadcast.
type CursorPosition struct {
	ResourceType string     `json:"resourceType"`
	ResourceID   string     `json:"resourceId"`
	Position     int        `json:"position"`
	Selection    *Selection `json:"selection"`
}

// CursorUpdated is a peer's cursor as relayed by the server. It carries no
// resource scope on the wire.
type CursorUpdated struct {
	UserID    string     `json:"userId"`
	Position  int        `json:"position"`
	Selection *Selection `json:"selection"`
	Timestamp string     `json:"timestamp"`
}

// UserJoined announces a peer entering the room this session shares.
type UserJoined struct {
	UserID    string `json:"userId"`
	UserRole  string `json:"userRole"`
	Timestamp string `json:"timestamp"`
}

// UserLeft announces a peer leaving.
type UserLeft struct {
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}

// RoomStatus is the authoritative room roster, replacing any delta-derived state.
type RoomStatus struct {
	RoomID      string   `json:"roomId"`
	ActiveUsers []string `json:"activeUsers"`
	UserCount   int      `json:"userCount"`
}

// RoomKey derives the room identifier for a resource.
func RoomKey(resourceType, resourceID string) string {
	return fmt.Sprintf("%s_%s", resourceType, resourceID)
}

// Encode converts a payload struct into the map shape the socket layer emits.
func Encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Decode converts an arbitrary inbound payload (typically map[string]any from
// the socket layer) into a typed struct.
func Decode(v any, dst any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
