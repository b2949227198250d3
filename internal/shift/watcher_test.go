package shift

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/bakery/internal/domain/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func TestWatcher_RecheckDetectsShiftChange(t *testing.T) {
	r := mustResolver(t, DashboardPolicy(testZone))
	clock := &fakeClock{now: local(10, 13, 0, 0)}

	var changes [][2]models.ShiftWindow
	w := NewWatcher(r, func(prev, next models.ShiftWindow) {
		changes = append(changes, [2]models.ShiftWindow{prev, next})
	}, nil)
	w.now = clock.Now
	t.Cleanup(w.Stop)

	first := w.Start()
	assert.Equal(t, models.ShiftMorning, first.Shift)

	assert.False(t, w.Recheck(), "nothing moved yet")

	clock.Set(local(10, 14, 0, 1))
	assert.True(t, w.Recheck())
	require.Len(t, changes, 1)
	assert.Equal(t, models.ShiftMorning, changes[0][0].Shift)
	assert.Equal(t, models.ShiftNight, changes[0][1].Shift)
	assert.Equal(t, models.ShiftNight, w.Current().Shift)

	assert.False(t, w.Recheck())
	assert.Len(t, changes, 1)
}

func TestWatcher_DetectsSkippedShifts(t *testing.T) {
	r := mustResolver(t, DashboardPolicy(testZone))
	clock := &fakeClock{now: local(10, 13, 0, 0)}

	calls := 0
	w := NewWatcher(r, func(prev, next models.ShiftWindow) { calls++ }, nil)
	w.now = clock.Now
	t.Cleanup(w.Stop)
	w.Start()

	// Suspended for a full day: same shift kind, different instance.
	clock.Set(local(11, 13, 0, 0))
	assert.True(t, w.Recheck())
	assert.Equal(t, 1, calls)
}

func TestWatcher_StopDisablesRecheck(t *testing.T) {
	r := mustResolver(t, DashboardPolicy(testZone))
	clock := &fakeClock{now: local(10, 13, 0, 0)}

	calls := 0
	w := NewWatcher(r, func(prev, next models.ShiftWindow) { calls++ }, nil)
	w.now = clock.Now
	w.Start()
	w.Stop()

	clock.Set(local(10, 15, 0, 0))
	assert.False(t, w.Recheck())
	assert.Zero(t, calls)
}

func TestWatcher_RecheckBeforeStartIsNoop(t *testing.T) {
	r := mustResolver(t, DashboardPolicy(testZone))
	w := NewWatcher(r, nil, nil)
	assert.False(t, w.Recheck())
}
