package loop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_AdvanceFiresInDeadlineOrder(t *testing.T) {
	m := NewManual()
	var order []string

	m.After(30*time.Millisecond, func() { order = append(order, "c") })
	m.After(10*time.Millisecond, func() { order = append(order, "a") })
	m.After(20*time.Millisecond, func() { order = append(order, "b") })

	m.Advance(25 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, order)

	m.Advance(10 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, m.PendingTimers())
}

func TestManual_EveryAndCancel(t *testing.T) {
	m := NewManual()
	ticks := 0
	cancel := m.Every(16*time.Millisecond, func() { ticks++ })

	m.Advance(160 * time.Millisecond)
	assert.Equal(t, 10, ticks)

	cancel()
	m.Advance(160 * time.Millisecond)
	assert.Equal(t, 10, ticks)
}

func TestManual_TasksPostedFromTimersRun(t *testing.T) {
	m := NewManual()
	ran := false
	m.After(time.Millisecond, func() {
		m.Post(func() { ran = true })
	})

	m.Advance(time.Millisecond)
	assert.True(t, ran)
}

func TestManual_WaitPostedFromAnotherGoroutine(t *testing.T) {
	m := NewManual()
	var ran atomic.Bool

	go m.Post(func() { ran.Store(true) })

	require.True(t, m.WaitPosted(time.Second))
	assert.True(t, ran.Load())
}

func TestLoop_RunsTasksInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(nil)
	go l.Run(ctx)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}

	var snapshot []int
	require.NoError(t, l.Call(ctx, func() { snapshot = append(snapshot, got...) }))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, snapshot)
}

func TestLoop_AfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(nil)
	go l.Run(ctx)

	var fired atomic.Bool
	stop := l.After(20*time.Millisecond, func() { fired.Store(true) })
	stop()

	time.Sleep(60 * time.Millisecond)
	require.NoError(t, l.Call(ctx, func() {}))
	assert.False(t, fired.Load())
}

func TestLoop_PanicDoesNotStopLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(nil)
	go l.Run(ctx)

	l.Post(func() { panic("boom") })

	var after atomic.Bool
	require.NoError(t, l.Call(ctx, func() { after.Store(true) }))
	assert.True(t, after.Load())
}
