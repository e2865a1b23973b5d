// Package uiloop provides the single-threaded task queue the shell treats as
// its UI thread. The DOM and session state are only ever touched from tasks
// running on the loop, so no locking is needed around them; the only ordering
// guarantee is that a task runs after it was posted.
package uiloop

import (
	"context"
	"sync"
	"time"
)

// Loop is a FIFO task queue consumed by a single goroutine.
type Loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
}

// New creates an idle loop. Tasks can be posted immediately; they run once
// Run is called (or when a test drains the queue directly).
func New() *Loop {
	l := &Loop{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Post enqueues a task from any goroutine and reports whether it was
// accepted. A stopped loop drops the task and returns false; completions
// arriving during shutdown are discarded.
func (l *Loop) Post(task func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.tasks = append(l.tasks, task)
	l.cond.Signal()
	return true
}

// PostDelayed schedules a task to be enqueued after d elapses. The returned
// stop function cancels the timer if it has not fired.
func (l *Loop) PostDelayed(d time.Duration, task func()) (stop func() bool) {
	t := time.AfterFunc(d, func() {
		l.Post(task)
	})
	return t.Stop
}

// Do posts a task and blocks until it has run, returning immediately if the
// loop has stopped. Used by drivers feeding the loop from another goroutine.
// Must not be called from a loop task, which would deadlock waiting on
// itself.
func (l *Loop) Do(task func()) {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		task()
	}) {
		return
	}
	<-done
}

// Run consumes tasks until ctx is canceled. It is the loop goroutine; all
// posted tasks execute here, one at a time, in post order.
func (l *Loop) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		l.mu.Lock()
		l.closed = true
		l.cond.Signal()
		l.mu.Unlock()
	}()

	for {
		task, ok := l.next()
		if !ok {
			return
		}
		task()
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.tasks) == 0 && !l.closed {
		l.cond.Wait()
	}
	if len(l.tasks) == 0 {
		return nil, false
	}
	task := l.tasks[0]
	l.tasks = l.tasks[1:]
	return task, true
}

// Step runs the next pending task, if any. Test helper for driving the loop
// deterministically without a Run goroutine.
func (l *Loop) Step() bool {
	l.mu.Lock()
	if len(l.tasks) == 0 {
		l.mu.Unlock()
		return false
	}
	task := l.tasks[0]
	l.tasks = l.tasks[1:]
	l.mu.Unlock()
	task()
	return true
}

// Drain runs pending tasks until the queue is empty, including tasks posted
// by the tasks themselves.
func (l *Loop) Drain() {
	for l.Step() {
	}
}

// Pending reports the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}
