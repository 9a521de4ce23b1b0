package inbox

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shahin-grc/collab/internal/protocol/wire"
)

// Capacity is the maximum number of retained notifications. When exceeded,
// the oldest entries fall off the tail.
const Capacity = 50

// Notification is one workflow notification with local read state. Index 0
// of the inbox is always the newest entry.
type Notification struct {
	ID         string
	WorkflowID string
	Action     string
	FromUser   string
	Metadata   map[string]any
	Timestamp  string
	ReceivedAt time.Time
	Read       bool
}

// Inbox is a bounded, ordered queue of workflow notifications. It is the
// one piece of state with multiple concurrent writers (every
// workflow_notification delivery), so all mutation happens under the lock.
type Inbox struct {
	mu      sync.Mutex
	entries []Notification
	unread  int
}

// New returns an empty Inbox.
func New() *Inbox {
	return &Inbox{}
}

// Add prepends a notification built from an inbound payload and returns its
// assigned id. The list is truncated to Capacity, oldest first.
func (in *Inbox) Add(n wire.WorkflowNotification, receivedAt time.Time) string {
	id := uuid.NewString()

	in.mu.Lock()
	defer in.mu.Unlock()

	entry := Notification{
		ID:         id,
		WorkflowID: n.WorkflowID,
		Action:     n.Action,
		FromUser:   n.FromUser,
		Metadata:   n.Metadata,
		Timestamp:  n.Timestamp,
		ReceivedAt: receivedAt,
	}
	in.entries = append([]Notification{entry}, in.entries...)
	if len(in.entries) > Capacity {
		for _, evicted := range in.entries[Capacity:] {
			if !evicted.Read {
				in.unread--
			}
		}
		in.entries = in.entries[:Capacity]
	}
	in.unread++
	return id
}

// MarkRead marks one notification read. The unread count decrements by at
// most one and never goes below zero. Unknown ids and re-reads are no-ops.
func (in *Inbox) MarkRead(id string) {
	in.mu.Lock()
	defer in.mu.Unlock()

	for i := range in.entries {
		if in.entries[i].ID != id {
			continue
		}
		if !in.entries[i].Read {
			in.entries[i].Read = true
			if in.unread > 0 {
				in.unread--
			}
		}
		return
	}
}

// MarkAllRead marks every notification read and zeroes the unread count.
// Idempotent.
func (in *Inbox) MarkAllRead() {
	in.mu.Lock()
	defer in.mu.Unlock()

	for i := range in.entries {
		in.entries[i].Read = true
	}
	in.unread = 0
}

// Notifications returns a copy of the list, newest first.
func (in *Inbox) Notifications() []Notification {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]Notification, len(in.entries))
	copy(out, in.entries)
	return out
}

// UnreadCount returns the number of unread notifications.
func (in *Inbox) UnreadCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.unread
}

// Len returns the number of retained notifications.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.entries)
}

// Clear drops all notifications. Called at session teardown.
func (in *Inbox) Clear() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.entries = nil
	in.unread = 0
}
