package sanction

import (
	"fmt"
	"sort"
	"strings"
)

// Origin says who triggered a sanction; it selects the notice wording.
type Origin string

const (
	OriginAutomatic Origin = "automatic"
	OriginAdmin     Origin = "admin"
	OriginExpiry    Origin = "expiry"
)

// Outcome is the per-group result of a sanction fan-out. A group is in
// exactly one of Succeeded, Skipped (user not a member) or Failed.
type Outcome struct {
	Action    string
	Succeeded []int64
	Skipped   []int64
	Failed    map[int64]error
}

func newOutcome(action string) *Outcome {
	return &Outcome{Action: action, Failed: make(map[int64]error)}
}

// Any reports whether at least one group succeeded.
func (o Outcome) Any() bool {
	return len(o.Succeeded) > 0
}

// AllFailed reports whether nothing succeeded and at least one group failed
// at the gateway. Skipped groups do not count as progress.
func (o Outcome) AllFailed() bool {
	return len(o.Failed) > 0 && len(o.Succeeded) == 0
}

func (o *Outcome) sort() {
	sort.Slice(o.Succeeded, func(i, j int) bool { return o.Succeeded[i] < o.Succeeded[j] })
	sort.Slice(o.Skipped, func(i, j int) bool { return o.Skipped[i] < o.Skipped[j] })
}

func (o Outcome) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d ok, %d skipped, %d failed", o.Action, len(o.Succeeded), len(o.Skipped), len(o.Failed))
	if len(o.Failed) > 0 {
		ids := make([]int64, 0, len(o.Failed))
		for id := range o.Failed {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			fmt.Fprintf(&b, "; %d: %v", id, o.Failed[id])
		}
	}
	return b.String()
}
