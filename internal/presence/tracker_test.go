package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shahin-grc/collab/internal/clock/clocktest"
	"github.com/shahin-grc/collab/internal/protocol/wire"
)

func newTracker() (*Tracker, *clocktest.FakeClock) {
	clk := clocktest.New(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	return NewTracker("document_doc1", clk), clk
}

func TestRoomStatusReplacesRosterWholesale(t *testing.T) {
	tr, _ := newTracker()

	tr.ApplyUserJoined("u1")
	tr.ApplyUserJoined("u2")
	tr.ApplyRoomStatus([]string{"u3", "u4"})

	require.Equal(t, []string{"u3", "u4"}, tr.Collaborators())
}

func TestJoinedAndLeftDeltas(t *testing.T) {
	tr, _ := newTracker()

	tr.ApplyRoomStatus([]string{"u1"})
	tr.ApplyUserJoined("u2")
	tr.ApplyUserJoined("u2") // duplicate join is a no-op
	tr.ApplyUserLeft("u1")

	require.Equal(t, []string{"u2"}, tr.Collaborators())

	tr.ApplyUserLeft("ghost") // unknown user is a no-op
	require.Equal(t, []string{"u2"}, tr.Collaborators())
}

func TestTypingStartThenSilenceExpiresAfterStaleness(t *testing.T) {
	tr, clk := newTracker()

	tr.ApplyTyping("u1", wire.TypingActionStart)
	require.Equal(t, []string{"u1"}, tr.TypingUsers())

	clk.Advance(2999 * time.Millisecond)
	require.Equal(t, []string{"u1"}, tr.TypingUsers())

	clk.Advance(1 * time.Millisecond)
	require.Empty(t, tr.TypingUsers())
}

func TestTypingRenewalRearmsStalenessTimer(t *testing.T) {
	tr, clk := newTracker()

	tr.ApplyTyping("u1", wire.TypingActionStart)
	clk.Advance(2 * time.Second)
	tr.ApplyTyping("u1", wire.TypingActionStart)

	// 2s after the renewal the original deadline has passed; the renewed
	// timer keeps the indicator alive.
	clk.Advance(2 * time.Second)
	require.Equal(t, []string{"u1"}, tr.TypingUsers())

	clk.Advance(time.Second)
	require.Empty(t, tr.TypingUsers())
}

func TestTypingStopClearsImmediatelyAndCancelsTimer(t *testing.T) {
	tr, clk := newTracker()

	tr.ApplyTyping("u1", wire.TypingActionStart)
	tr.ApplyTyping("u1", wire.TypingActionStop)

	require.Empty(t, tr.TypingUsers())
	require.Zero(t, clk.Pending())
}

func TestTypingTracksMultipleUsersIndependently(t *testing.T) {
	tr, clk := newTracker()

	tr.ApplyTyping("u1", wire.TypingActionStart)
	clk.Advance(2 * time.Second)
	tr.ApplyTyping("u2", wire.TypingActionStart)

	require.Equal(t, []string{"u1", "u2"}, tr.TypingUsers())

	clk.Advance(time.Second) // u1's window expires, u2's survives
	require.Equal(t, []string{"u2"}, tr.TypingUsers())
}

func TestCursorLastWriteWins(t *testing.T) {
	tr, clk := newTracker()

	tr.ApplyCursor("u1", 4, nil, clk.Now())
	tr.ApplyCursor("u1", 9, &wire.Selection{Start: 1, End: 9}, clk.Now())

	cursors := tr.Cursors()
	require.Len(t, cursors, 1)
	require.Equal(t, 9, cursors["u1"].Position)
	require.NotNil(t, cursors["u1"].Selection)
	require.Equal(t, 1, cursors["u1"].Selection.Start)
}

func TestCloseCancelsTimersAndIgnoresLaterEvents(t *testing.T) {
	tr, clk := newTracker()

	tr.ApplyTyping("u1", wire.TypingActionStart)
	tr.ApplyTyping("u2", wire.TypingActionStart)
	tr.Close()

	require.Zero(t, clk.Pending())
	require.Empty(t, tr.TypingUsers())

	tr.ApplyTyping("u3", wire.TypingActionStart)
	tr.ApplyUserJoined("u3")
	tr.ApplyCursor("u3", 1, nil, clk.Now())

	require.Empty(t, tr.TypingUsers())
	require.Empty(t, tr.Collaborators())
	require.Empty(t, tr.Cursors())
	require.Zero(t, clk.Pending())
}
