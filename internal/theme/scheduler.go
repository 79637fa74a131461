package theme

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler runs deferred work. Implementations decide on which goroutine
// tasks run; Loop serializes everything onto one.
type Scheduler interface {
	Post(task func())
	// AfterFunc runs task after d unless the returned cancel is called first.
	AfterFunc(d time.Duration, task func()) (cancel func())
}

// Loop is a single-goroutine event loop. Tasks posted before Run starts are
// queued and executed in order once it does.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post implements Scheduler. Safe from any goroutine, including loop tasks.
func (l *Loop) Post(task func()) {
	l.mu.Lock()
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc implements Scheduler. The task is posted to the loop when the
// timer fires; cancel also suppresses a task already posted but not yet run.
func (l *Loop) AfterFunc(d time.Duration, task func()) func() {
	var cancelled atomic.Bool
	t := time.AfterFunc(d, func() {
		l.Post(func() {
			if !cancelled.Load() {
				task()
			}
		})
	})
	return func() {
		cancelled.Store(true)
		t.Stop()
	}
}

// Run executes tasks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for {
			task, ok := l.next()
			if !ok {
				break
			}
			task()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, true
}

// Inline runs posted tasks immediately on the caller's goroutine. It suits
// request-scoped controllers that have no first paint to wait for.
type Inline struct{}

// Post implements Scheduler.
func (Inline) Post(task func()) { task() }

// AfterFunc implements Scheduler.
func (Inline) AfterFunc(d time.Duration, task func()) func() {
	t := time.AfterFunc(d, task)
	return func() { t.Stop() }
}
