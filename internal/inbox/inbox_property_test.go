package inbox

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/shahin-grc/collab/internal/protocol/wire"
)

// For any insertion count n, the inbox holds min(n, Capacity) entries, the
// newest at index 0, in strict reverse insertion order, and the unread count
// never exceeds the number of retained entries.
func TestInboxBoundedOrderingProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("bounded, newest-first, unread within bounds", prop.ForAll(
		func(n int) bool {
			in := New()
			now := time.Now()
			for i := 1; i <= n; i++ {
				in.Add(wire.WorkflowNotification{
					WorkflowID: fmt.Sprintf("wf-%d", i),
					Action:     "step_completed",
				}, now)
			}

			entries := in.Notifications()
			want := n
			if want > Capacity {
				want = Capacity
			}
			if len(entries) != want {
				return false
			}
			for i, e := range entries {
				if e.WorkflowID != fmt.Sprintf("wf-%d", n-i) {
					return false
				}
			}
			return in.UnreadCount() <= len(entries)
		},
		gen.IntRange(0, 200),
	))

	properties.Property("mark-all-read always zeroes unread", prop.ForAll(
		func(n int) bool {
			in := New()
			for i := 0; i < n; i++ {
				in.Add(wire.WorkflowNotification{Action: "x"}, time.Now())
			}
			in.MarkAllRead()
			in.MarkAllRead()
			if in.UnreadCount() != 0 {
				return false
			}
			for _, e := range in.Notifications() {
				if !e.Read {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 120),
	))

	properties.TestingRun(t)
}
