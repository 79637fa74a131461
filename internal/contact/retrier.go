package contact

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Retry defaults.
const (
	DefaultRetrySchedule = "@every 10m"
	DefaultMaxAttempts   = 5
	DefaultStaleAfter    = 5 * time.Minute
	retryBatch           = 20
)

// Retrier periodically redelivers failed outbox messages on a cron schedule.
type Retrier struct {
	cron     *cron.Cron
	relay    *Relay
	outbox   *Outbox
	schedule string
	logger   *slog.Logger

	MaxAttempts int
	StaleAfter  time.Duration
	now         func() time.Time

	running sync.Mutex
}

// NewRetrier returns a retrier for relay's outbox. An empty schedule selects
// DefaultRetrySchedule.
func NewRetrier(relay *Relay, schedule string, logger *slog.Logger) *Retrier {
	if schedule == "" {
		schedule = DefaultRetrySchedule
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Retrier{
		cron:        cron.New(),
		relay:       relay,
		outbox:      relay.Outbox(),
		schedule:    schedule,
		logger:      logger.With("component", "contact-retrier"),
		MaxAttempts: DefaultMaxAttempts,
		StaleAfter:  DefaultStaleAfter,
		now:         time.Now,
	}
}

// Start registers the schedule and starts the cron runner.
func (r *Retrier) Start() error {
	if r.outbox == nil {
		return fmt.Errorf("contact retrier: relay has no outbox")
	}
	_, err := r.cron.AddFunc(r.schedule, func() {
		if _, err := r.RunOnce(context.Background()); err != nil {
			r.logger.Warn("contact retry run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid retry schedule %q: %w", r.schedule, err)
	}
	r.cron.Start()
	r.logger.Info("contact retrier started", "schedule", r.schedule)
	return nil
}

// Stop stops the cron runner and waits for a running batch to finish.
func (r *Retrier) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("contact retrier stopped")
}

// Run starts the retrier and stops it when ctx is done.
func (r *Retrier) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	r.Stop()
	return nil
}

// RunOnce redelivers one batch of retryable messages and returns how many
// were delivered. A run that overlaps another returns immediately.
func (r *Retrier) RunOnce(ctx context.Context) (int, error) {
	if r.outbox == nil {
		return 0, nil
	}
	if !r.running.TryLock() {
		return 0, nil
	}
	defer r.running.Unlock()

	msgs, err := r.outbox.Retryable(ctx, r.MaxAttempts, r.now().Add(-r.StaleAfter), retryBatch)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := r.relay.Redeliver(ctx, m); err != nil {
			r.logger.Warn("contact redelivery failed", "id", m.ID, "attempt", m.Attempts+1, "error", err)
			continue
		}
		sent++
	}
	if len(msgs) > 0 {
		r.logger.Info("contact retry run", "candidates", len(msgs), "delivered", sent)
	}
	return sent, nil
}
