package publication

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name          string
		before, after bool
		want          Transition
	}{
		{"draft stays draft", false, false, None},
		{"draft gets published", false, true, Publish},
		{"published gets unpublished", true, false, Unpublish},
		{"published re-saved", true, true, None},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Detect(tc.before, tc.after))
		})
	}
}

func TestDetectCreate(t *testing.T) {
	assert.Equal(t, Publish, DetectCreate(true))
	assert.Equal(t, None, DetectCreate(false))
}

func TestTransition_Event(t *testing.T) {
	ev, ok := Publish.Event(EntityPost, 7)
	assert.True(t, ok)
	assert.Equal(t, PublishedEvent{EntityType: EntityPost, EntityID: 7}, ev)

	for _, tr := range []Transition{None, Unpublish} {
		_, ok := tr.Event(EntityComment, 1)
		assert.False(t, ok, tr.String())
	}
}

func TestClock_StampIsMonotonic(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := Clock(func() time.Time { return fixed })

	assert.Equal(t, fixed, clock.Stamp(time.Time{}))

	later := fixed.Add(time.Hour)
	assert.Equal(t, later, clock.Stamp(later), "pub_date must not go backwards")

	var zero Clock
	assert.False(t, zero.Stamp(time.Time{}).IsZero())
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, Published, StateOf(true))
	assert.Equal(t, "draft", StateOf(false).String())
}
