package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"portfolio/internal/db"
)

// Status is the delivery state of an outbox message.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// timeLayout matches the strftime format the schema uses for timestamps, so
// timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000Z"

// Message is a recorded submission.
type Message struct {
	ID         string
	Submission Submission
	Status     Status
	Attempts   int
	LastError  string
	CreatedAt  time.Time
}

// Outbox records every submission and tracks its delivery.
type Outbox struct {
	pool *db.Pool
}

// NewOutbox returns an outbox over a migrated pool.
func NewOutbox(pool *db.Pool) *Outbox {
	return &Outbox{pool: pool}
}

// Record stores sub as pending and returns its ID.
func (o *Outbox) Record(ctx context.Context, sub Submission) (string, error) {
	id := uuid.NewString()
	_, err := o.pool.Write.ExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, subject, message, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, sub.Name, sub.Email, sub.Subject, sub.Message, string(StatusPending))
	if err != nil {
		return "", fmt.Errorf("record contact message: %w", err)
	}
	return id, nil
}

// MarkSent counts a successful attempt.
func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	return o.update(ctx, `
		UPDATE contact_messages
		SET status = ?, attempts = attempts + 1, last_error = '',
		    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now'),
		    sent_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?`, string(StatusSent), id)
}

// MarkFailed counts a failed attempt and keeps cause for inspection.
func (o *Outbox) MarkFailed(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return o.update(ctx, `
		UPDATE contact_messages
		SET status = ?, attempts = attempts + 1, last_error = ?,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?`, string(StatusFailed), msg, id)
}

func (o *Outbox) update(ctx context.Context, query string, args ...any) error {
	res, err := o.pool.Write.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update contact message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update contact message: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update contact message: %w", sql.ErrNoRows)
	}
	return nil
}

// Retryable lists messages due for another attempt, oldest first: failed
// messages below maxAttempts, plus pending messages untouched since
// staleBefore, which were abandoned mid-delivery.
func (o *Outbox) Retryable(ctx context.Context, maxAttempts int, staleBefore time.Time, limit int) ([]Message, error) {
	rows, err := o.pool.Read.QueryContext(ctx, `
		SELECT id, name, email, subject, message, status, attempts, last_error, created_at
		FROM contact_messages
		WHERE attempts < ?
		  AND (status = ? OR (status = ? AND updated_at < ?))
		ORDER BY created_at, id
		LIMIT ?`,
		maxAttempts, string(StatusFailed), string(StatusPending), staleBefore.UTC().Format(timeLayout), limit)
	if err != nil {
		return nil, fmt.Errorf("list retryable contact messages: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Message
	for rows.Next() {
		var m Message
		var created string
		if err := rows.Scan(&m.ID, &m.Submission.Name, &m.Submission.Email, &m.Submission.Subject,
			&m.Submission.Message, &m.Status, &m.Attempts, &m.LastError, &created); err != nil {
			return nil, fmt.Errorf("scan contact message: %w", err)
		}
		if m.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get loads one message.
func (o *Outbox) Get(ctx context.Context, id string) (Message, error) {
	var m Message
	var created string
	err := o.pool.Read.QueryRowContext(ctx, `
		SELECT id, name, email, subject, message, status, attempts, last_error, created_at
		FROM contact_messages WHERE id = ?`, id).
		Scan(&m.ID, &m.Submission.Name, &m.Submission.Email, &m.Submission.Subject,
			&m.Submission.Message, &m.Status, &m.Attempts, &m.LastError, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, fmt.Errorf("contact message %s: %w", id, err)
	}
	if err != nil {
		return Message{}, fmt.Errorf("get contact message: %w", err)
	}
	if m.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return Message{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	return m, nil
}

// Stats counts messages per status.
func (o *Outbox) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := o.pool.Read.QueryContext(ctx,
		`SELECT status, count(*) FROM contact_messages GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("contact outbox stats: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	stats := map[Status]int{StatusPending: 0, StatusSent: 0, StatusFailed: 0}
	for rows.Next() {
		var s Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, fmt.Errorf("scan contact outbox stats: %w", err)
		}
		stats[s] = n
	}
	return stats, rows.Err()
}
