// Package themetest provides deterministic fakes for theme tests.
package themetest

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrStorage is returned by FailingKV.
var ErrStorage = errors.New("quota exceeded")

// ManualScheduler queues tasks until RunPending and fires timers on Advance.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []func()
	timers  []*manualTimer
	now     time.Duration
	nextID  int
}

type manualTimer struct {
	id        int
	due       time.Duration
	task      func()
	cancelled bool
}

// Post queues task.
func (s *ManualScheduler) Post(task func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, task)
}

// AfterFunc schedules task relative to the fake clock.
func (s *ManualScheduler) AfterFunc(d time.Duration, task func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := &manualTimer{id: s.nextID, due: s.now + d, task: task}
	s.timers = append(s.timers, t)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		t.cancelled = true
	}
}

// Pending returns the number of queued tasks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// ActiveTimers returns the number of timers neither fired nor cancelled.
func (s *ManualScheduler) ActiveTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// RunPending runs queued tasks, including ones they post, until idle.
func (s *ManualScheduler) RunPending() {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		task := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()
		task()
	}
}

// Advance moves the clock by d, firing due timers in order.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*manualTimer
	remaining := s.timers[:0]
	for _, t := range s.timers {
		switch {
		case t.cancelled:
		case t.due <= s.now:
			due = append(due, t)
		default:
			remaining = append(remaining, t)
		}
	}
	s.timers = remaining
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].due < due[j].due })
	for _, t := range due {
		s.mu.Lock()
		cancelled := t.cancelled
		s.mu.Unlock()
		if !cancelled {
			t.task()
		}
	}
	s.RunPending()
}

// FailingKV fails every read and write.
type FailingKV struct{}

func (FailingKV) Get(string) (string, bool, error) { return "", false, ErrStorage }
func (FailingKV) Set(string, string) error         { return ErrStorage }

// WriteFailingKV reads from Values but refuses writes.
type WriteFailingKV struct {
	Values map[string]string
}

func (k WriteFailingKV) Get(key string) (string, bool, error) {
	v, ok := k.Values[key]
	return v, ok, nil
}

func (WriteFailingKV) Set(string, string) error { return ErrStorage }

// BrokenRoot fails every paint.
type BrokenRoot struct {
	Err error
}

func (b BrokenRoot) err() error {
	if b.Err != nil {
		return b.Err
	}
	return errors.New("document root unavailable")
}

func (b BrokenRoot) SetClass(string, bool) error { return b.err() }
func (b BrokenRoot) SetColorScheme(string) error { return b.err() }
