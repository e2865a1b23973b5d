package uiloop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPost_Order(t *testing.T) {
	l := New()

	var got []int
	for i := 1; i <= 3; i++ {
		l.Post(func() { got = append(got, i) })
	}
	l.Drain()

	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestDrain_RunsTasksPostedByTasks(t *testing.T) {
	l := New()

	var got []string
	l.Post(func() {
		got = append(got, "outer")
		l.Post(func() { got = append(got, "inner") })
	})
	l.Drain()

	assert.Equal(t, []string{"outer", "inner"}, got)
}

func TestRun_ConsumesFromOtherGoroutines(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Run(ctx)
	}()

	ran := make(chan struct{})
	l.Post(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestDo_BlocksUntilTaskRan(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	ran := false
	l.Do(func() { ran = true })
	assert.True(t, ran)
}

func TestDo_ReturnsAfterStop(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		l.Run(ctx)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	assert.False(t, l.Post(func() {}))

	returned := make(chan struct{})
	go func() {
		defer close(returned)
		l.Do(func() {})
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Do blocked on a stopped loop")
	}
}

func TestPostDelayed(t *testing.T) {
	l := New()

	fired := false
	l.PostDelayed(10*time.Millisecond, func() { fired = true })

	require.Eventually(t, func() bool { return l.Pending() == 1 }, time.Second, time.Millisecond)
	l.Drain()
	assert.True(t, fired)
}

func TestPostDelayed_Stop(t *testing.T) {
	l := New()

	stop := l.PostDelayed(50*time.Millisecond, func() {})
	assert.True(t, stop())

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, l.Pending())
}
