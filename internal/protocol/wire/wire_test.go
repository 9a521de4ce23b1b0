package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomKey(t *testing.T) {
	require.Equal(t, "assessment_A1", RoomKey(ResourceAssessment, "A1"))
	require.Equal(t, "document_doc1", RoomKey(ResourceDocument, "doc1"))
}

func TestEncodeUsesWireFieldNames(t *testing.T) {
	m, err := Encode(AssessmentUpdate{
		AssessmentID: "A1",
		Field:        "status",
		Value:        "completed",
		Timestamp:    "2026-03-01T10:00:00Z",
	})
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"assessmentId": "A1",
		"field":        "status",
		"value":        "completed",
		"timestamp":    "2026-03-01T10:00:00Z",
	}, m)
}

func TestDecodeSocketPayload(t *testing.T) {
	// Inbound payloads arrive as map[string]any from the socket layer.
	payload := map[string]any{
		"userId":       "u2",
		"resourceType": "document",
		"resourceId":   "doc1",
		"action":       "start",
	}

	var u UserTyping
	require.NoError(t, Decode(payload, &u))
	require.Equal(t, UserTyping{
		UserID:       "u2",
		ResourceType: ResourceDocument,
		ResourceID:   "doc1",
		Action:       TypingActionStart,
	}, u)
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	payload := map[string]any{
		"roomId":      "assessment_A1",
		"activeUsers": []any{"u1", "u2"},
		"userCount":   float64(2),
		"serverOnly":  true,
	}

	var rs RoomStatus
	require.NoError(t, Decode(payload, &rs))
	require.Equal(t, "assessment_A1", rs.RoomID)
	require.Equal(t, []string{"u1", "u2"}, rs.ActiveUsers)
	require.Equal(t, 2, rs.UserCount)
}

func TestCursorSelectionOptional(t *testing.T) {
	var u CursorUpdated
	require.NoError(t, Decode(map[string]any{"userId": "u2", "position": float64(10)}, &u))
	require.Nil(t, u.Selection)

	require.NoError(t, Decode(map[string]any{
		"userId":    "u2",
		"position":  float64(10),
		"selection": map[string]any{"start": float64(3), "end": float64(7)},
	}, &u))
	require.Equal(t, &Selection{Start: 3, End: 7}, u.Selection)
}
