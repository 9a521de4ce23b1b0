package wire

// Resource types used to derive room keys.
const (
	ResourceAssessment = "assessment"
	ResourceDocument   = "document"
	ResourceWorkflow   = "workflow"
)

// Outbound (client -> server) event names.
const (
	EventJoinAssessment   = "join_assessment"
	EventAssessmentUpdate = "assessment_update"
	EventDocumentEdit     = "document_edit"
	EventWorkflowAction   = "workflow_action"
	EventTypingStart      = "typing_start"
	EventTypingStop       = "typing_stop"
	EventCursorPosition   = "cursor_position"
)

// Inbound (server -> client) event names.
const (
	EventConnect              = "connect"
	EventDisconnect           = "disconnect"
	EventConnectError         = "connect_error"
	EventError                = "error"
	EventAssessmentUpdated    = "assessment_updated"
	EventUserJoined           = "user_joined"
	EventUserLeft             = "user_left"
	EventRoomStatus           = "room_status"
	EventDocumentEdited       = "document_edited"
	EventWorkflowNotification = "workflow_notification"
	EventWorkflowUpdated      = "workflow_updated"
	EventUserTyping           = "user_typing"
	EventCursorUpdated        = "cursor_updated"
)

// Hub event names published by the connection session, distinct from the
// raw transport vocabulary above.
const (
	EventConnectionStatus = "connection_status"
	EventConnectionError  = "connection_error"
	EventSocketError      = "socket_error"
)

// DomainEvents lists the inbound server events that are republished on the
// event hub verbatim.
var DomainEvents = []string{
	EventAssessmentUpdated,
	EventUserJoined,
	EventUserLeft,
	EventRoomStatus,
	EventDocumentEdited,
	EventWorkflowNotification,
	EventWorkflowUpdated,
	EventUserTyping,
	EventCursorUpdated,
}

// Typing indicator actions carried by user_typing.
const (
	TypingActionStart = "start"
	TypingActionStop  = "stop"
)
