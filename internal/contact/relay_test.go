package contact

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/db"
)

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []Email
}

func (f *fakeSender) Send(_ context.Context, e Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, e)
	return nil
}

func (f *fakeSender) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

var testConfig = Config{To: "owner@example.com", From: "Site <site@example.com>"}

func TestRelay_Send(t *testing.T) {
	sender := &fakeSender{}
	relay := NewRelay(sender, testConfig, nil, nil)

	sub := validSubmission()
	sub.Message = "First paragraph.\n\n<b>bold</b> line\nnext"
	require.NoError(t, relay.Send(context.Background(), sub))

	require.Len(t, sender.sent, 1)
	e := sender.sent[0]
	assert.Equal(t, testConfig.From, e.From)
	assert.Equal(t, []string{testConfig.To}, e.To)
	assert.Equal(t, "ada@example.com", e.ReplyTo)
	assert.Equal(t, "Portfolio contact: Hello", e.Subject)
	assert.Contains(t, e.Text, "Name: Ada\n")
	assert.Contains(t, e.Text, "<b>bold</b> line")
	assert.Contains(t, e.HTML, "&lt;b&gt;bold&lt;/b&gt; line<br>next")
	assert.NotContains(t, e.HTML, "<b>")
}

func TestRelay_RejectsMissingSubject(t *testing.T) {
	sender := &fakeSender{}
	relay := NewRelay(sender, testConfig, nil, nil)

	sub := validSubmission()
	sub.Subject = " "
	err := relay.Send(context.Background(), sub)
	require.ErrorIs(t, err, ErrMissingFields)
	assert.Equal(t, "missing fields", err.Error())
	assert.Empty(t, sender.sent)
}

func TestRelay_ValidationBeforeConfiguration(t *testing.T) {
	relay := NewRelay(nil, Config{}, nil, nil)
	assert.False(t, relay.Configured())

	err := relay.Send(context.Background(), Submission{})
	require.ErrorIs(t, err, ErrMissingFields)

	err = relay.Send(context.Background(), validSubmission())
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestRelay_DeliveryFailure(t *testing.T) {
	cause := errors.New("resend: status 500")
	relay := NewRelay(&fakeSender{err: cause}, testConfig, nil, nil)

	err := relay.Send(context.Background(), validSubmission())
	require.ErrorIs(t, err, ErrDeliveryFailed)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, ErrDeliveryFailed.Error(), PublicMessage(err))
}

func TestRelay_RecordsInOutbox(t *testing.T) {
	outbox := NewOutbox(db.OpenTestPool(t))
	sender := &fakeSender{}
	relay := NewRelay(sender, testConfig, outbox, nil)
	ctx := context.Background()

	require.NoError(t, relay.Send(ctx, validSubmission()))

	sender.setErr(errors.New("boom"))
	require.Error(t, relay.Send(ctx, validSubmission()))

	stats, err := outbox.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[Status]int{StatusPending: 0, StatusSent: 1, StatusFailed: 1}, stats)
}

func TestRelay_InvalidSubmissionNotRecorded(t *testing.T) {
	outbox := NewOutbox(db.OpenTestPool(t))
	relay := NewRelay(&fakeSender{}, testConfig, outbox, nil)
	ctx := context.Background()

	require.Error(t, relay.Send(ctx, Submission{Name: "x"}))

	stats, err := outbox.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats[StatusPending]+stats[StatusSent]+stats[StatusFailed])
}
