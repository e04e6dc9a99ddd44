// Package mainthread runs closures one at a time on a single goroutine
// locked to its OS thread. It is the agent's UI thread: every accessibility,
// clipboard and keystroke call is posted here so that they never overlap.
package mainthread

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"inplace/internal/logging"
)

// ErrStopped is returned when posting to a loop that has finished.
var ErrStopped = errors.New("mainthread: loop stopped")

// Loop is a serial task queue.
type Loop struct {
	tasks   chan func()
	done    chan struct{}
	crash   *logging.CrashHandler
	mu      sync.Mutex
	timers  map[*time.Timer]struct{}
	stopped bool
}

// New creates a loop with room for buffer pending tasks. Panics inside tasks
// are recovered by crash, or by the default crash handler when nil.
func New(buffer int, crash *logging.CrashHandler) *Loop {
	if crash == nil {
		crash = logging.DefaultCrashHandler()
	}
	return &Loop{
		tasks:  make(chan func(), buffer),
		done:   make(chan struct{}),
		crash:  crash,
		timers: make(map[*time.Timer]struct{}),
	}
}

// Run executes posted tasks until ctx is done. Pending tasks are dropped and
// scheduled continuations cancelled on return.
func (l *Loop) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer l.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			l.crash.RecoverWithContext(map[string]any{"thread": "ui"}, fn)
		}
	}
}

func (l *Loop) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	for t := range l.timers {
		t.Stop()
	}
	l.timers = nil
	close(l.done)
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post queues fn. It blocks while the queue is full and fails once the loop
// has stopped.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// After posts fn once d has elapsed. The returned function cancels it if it
// has not been queued yet.
func (l *Loop) After(d time.Duration, fn func()) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return func() {}
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		l.mu.Lock()
		_, live := l.timers[t]
		delete(l.timers, t)
		l.mu.Unlock()
		if live {
			_ = l.Post(fn)
		}
	})
	l.timers[t] = struct{}{}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, live := l.timers[t]; live {
			t.Stop()
			delete(l.timers, t)
		}
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}
