package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tensility357/XRT/pkg/types"
)

func TestTimelineInsertionOrder(t *testing.T) {
	tl := NewTimeline()
	tl.PushBack(types.TraceEvent{Kind: types.KindRead, Start: 1})
	tl.PushBack(types.TraceEvent{Kind: types.KindWrite, Start: 2})
	tl.PushFront(types.TraceEvent{Kind: types.KindKernel, Start: 3})

	events := tl.Events()
	assert.Equal(t, 3, tl.Len())
	assert.Equal(t, types.KindKernel, events[0].Kind)
	assert.Equal(t, types.KindRead, events[1].Kind)
	assert.Equal(t, types.KindWrite, events[2].Kind)
}

func TestTimelineSortedByStart(t *testing.T) {
	tl := NewTimeline()
	tl.PushBack(types.TraceEvent{Kind: types.KindRead, Start: 1})
	tl.PushFront(types.TraceEvent{Kind: types.KindKernel, Start: 3})

	sorted := tl.Sorted()
	assert.InDelta(t, 1.0, sorted[0].Start, 1e-12)
	assert.InDelta(t, 3.0, sorted[1].Start, 1e-12)

	// Sorting returns a copy; insertion order is untouched.
	assert.Equal(t, types.KindKernel, tl.Events()[0].Kind)
}
