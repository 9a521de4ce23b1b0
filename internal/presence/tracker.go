package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/shahin-grc/collab/internal/clock"
	"github.com/shahin-grc/collab/internal/protocol/wire"
	"github.com/shahin-grc/collab/pkg/logger"
)

// TypingStaleAfter is the remote staleness window: a peer's typing indicator
// is cleared when no renewed start arrives within it. It is a safety net
// against a lost typing_stop and is deliberately longer than the local
// debounce quiet period.
const TypingStaleAfter = 3000 * time.Millisecond

// Cursor is a peer's last reported cursor state. Last write wins per user.
type Cursor struct {
	Position  int
	Selection *wire.Selection
	Timestamp time.Time
}

type typingEntry struct {
	timer clock.Timer
	gen   uint64
}

// Tracker holds the live collaboration state for one room: the collaborator
// roster, the set of peers currently typing, and their cursors.
//
// room_status is authoritative and replaces the roster wholesale;
// user_joined/user_left are deltas applied between refreshes. Each typing
// peer owns one staleness timer in an explicit per-user map so Close can
// dispose of every pending callback.
type Tracker struct {
	room string
	clk  clock.Clock

	mu            sync.Mutex
	closed        bool
	collaborators []string
	typing        map[string]*typingEntry
	typingGen     uint64
	cursors       map[string]Cursor
}

// NewTracker returns an empty tracker for a room.
func NewTracker(room string, clk clock.Clock) *Tracker {
	return &Tracker{
		room:    room,
		clk:     clk,
		typing:  make(map[string]*typingEntry),
		cursors: make(map[string]Cursor),
	}
}

// Room returns the room key this tracker serves.
func (t *Tracker) Room() string { return t.room }

// ApplyRoomStatus replaces the collaborator roster wholesale.
func (t *Tracker) ApplyRoomStatus(activeUsers []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.collaborators = append([]string(nil), activeUsers...)
}

// ApplyUserJoined adds a collaborator if not already present.
func (t *Tracker) ApplyUserJoined(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	for _, id := range t.collaborators {
		if id == userID {
			return
		}
	}
	t.collaborators = append(t.collaborators, userID)
}

// ApplyUserLeft removes a collaborator.
func (t *Tracker) ApplyUserLeft(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	for i, id := range t.collaborators {
		if id == userID {
			t.collaborators = append(t.collaborators[:i], t.collaborators[i+1:]...)
			break
		}
	}
}

// ApplyTyping folds a user_typing event into the typing set. A start arms
// (or re-arms) the user's staleness timer; a stop, or the timer firing,
// clears the indicator.
func (t *Tracker) ApplyTyping(userID, action string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	if entry, ok := t.typing[userID]; ok {
		entry.timer.Stop()
		delete(t.typing, userID)
	}
	if action != wire.TypingActionStart {
		return
	}

	t.typingGen++
	gen := t.typingGen
	entry := &typingEntry{gen: gen}
	entry.timer = t.clk.AfterFunc(TypingStaleAfter, func() {
		t.expireTyping(userID, gen)
	})
	t.typing[userID] = entry
	logger.Tracef("presence: %s typing in %s (staleness armed)", userID, t.room)
}

// expireTyping clears a typing indicator whose staleness timer fired. The
// generation check keeps a late callback from clearing a re-armed entry.
func (t *Tracker) expireTyping(userID string, gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.typing[userID]
	if !ok || entry.gen != gen {
		return
	}
	delete(t.typing, userID)
	logger.Tracef("presence: %s typing indicator expired in %s", userID, t.room)
}

// ApplyCursor stores a peer's cursor, unconditionally overwriting the
// previous value. Transport order is assumed preserved per room.
func (t *Tracker) ApplyCursor(userID string, position int, selection *wire.Selection, ts time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.cursors[userID] = Cursor{Position: position, Selection: selection, Timestamp: ts}
}

// Collaborators returns the current roster in arrival order.
func (t *Tracker) Collaborators() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.collaborators...)
}

// TypingUsers returns the users currently typing, sorted for stable output.
func (t *Tracker) TypingUsers() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.typing))
	for id := range t.typing {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Cursors returns a copy of the cursor map.
func (t *Tracker) Cursors() map[string]Cursor {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Cursor, len(t.cursors))
	for id, c := range t.cursors {
		out[id] = c
	}
	return out
}

// Close cancels every pending staleness timer and clears all state. The
// tracker ignores events after Close; no callback fires past it.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for id, entry := range t.typing {
		entry.timer.Stop()
		delete(t.typing, id)
	}
	t.collaborators = nil
	t.cursors = make(map[string]Cursor)
}
