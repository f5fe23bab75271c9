package decode

import (
	"sort"

	"github.com/tensility357/XRT/pkg/types"
)

// Timeline is the output sequence of the decoder. Completed kernel
// intervals are inserted at the front, everything else is appended at
// the back, so the sequence is NOT globally time-ordered: consumers
// that need chronological order must sort by Start (see Sorted).
type Timeline struct {
	events []types.TraceEvent
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

func (t *Timeline) PushBack(ev types.TraceEvent) {
	t.events = append(t.events, ev)
}

func (t *Timeline) PushFront(ev types.TraceEvent) {
	t.events = append([]types.TraceEvent{ev}, t.events...)
}

func (t *Timeline) Len() int { return len(t.events) }

// Events returns the sequence in insertion order. The slice is owned
// by the timeline; callers must not mutate it.
func (t *Timeline) Events() []types.TraceEvent {
	return t.events
}

// Sorted returns a copy ordered by host start time.
func (t *Timeline) Sorted() []types.TraceEvent {
	out := make([]types.TraceEvent, len(t.events))
	copy(out, t.events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}
