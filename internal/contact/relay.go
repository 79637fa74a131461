package contact

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

// Config addresses outgoing mail.
type Config struct {
	To   string
	From string
}

// Relay validates submissions and forwards them to the site owner. With an
// outbox every submission is recorded before the first attempt so failed
// deliveries can be retried.
type Relay struct {
	sender Sender
	cfg    Config
	outbox *Outbox
	logger *slog.Logger
}

// NewRelay returns a relay. A nil sender or an empty recipient leaves the
// relay unconfigured: Send validates and then fails with ErrNotConfigured.
// outbox may be nil.
func NewRelay(sender Sender, cfg Config, outbox *Outbox, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Relay{sender: sender, cfg: cfg, outbox: outbox, logger: logger.With("component", "contact")}
}

// Configured reports whether Send can deliver.
func (r *Relay) Configured() bool {
	return r.sender != nil && r.cfg.To != "" && r.cfg.From != ""
}

// Outbox returns the outbox, or nil when submissions are not recorded.
func (r *Relay) Outbox() *Outbox { return r.outbox }

// Send validates sub and delivers it. Errors match ErrMissingFields,
// ErrInvalidEmail, ErrTooLong, ErrNotConfigured or ErrDeliveryFailed under
// errors.Is.
func (r *Relay) Send(ctx context.Context, sub Submission) error {
	sub, err := Validate(sub)
	if err != nil {
		return err
	}
	if !r.Configured() {
		return ErrNotConfigured
	}

	id := ""
	if r.outbox != nil {
		if id, err = r.outbox.Record(ctx, sub); err != nil {
			r.logger.Warn("contact outbox record failed, sending without it", "error", err)
		}
	}

	if err := r.sender.Send(ctx, r.email(sub)); err != nil {
		r.logger.Error("contact delivery failed", "id", id, "error", err)
		r.mark(ctx, id, err)
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	r.mark(ctx, id, nil)
	r.logger.Info("contact message delivered", "id", id)
	return nil
}

// Redeliver makes another attempt at a recorded message.
func (r *Relay) Redeliver(ctx context.Context, m Message) error {
	if !r.Configured() {
		return ErrNotConfigured
	}
	err := r.sender.Send(ctx, r.email(m.Submission))
	r.mark(ctx, m.ID, err)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return nil
}

func (r *Relay) mark(ctx context.Context, id string, cause error) {
	if r.outbox == nil || id == "" {
		return
	}
	var err error
	if cause != nil {
		err = r.outbox.MarkFailed(ctx, id, cause)
	} else {
		err = r.outbox.MarkSent(ctx, id)
	}
	if err != nil {
		r.logger.Warn("contact outbox update failed", "id", id, "error", err)
	}
}

func (r *Relay) email(sub Submission) Email {
	return Email{
		From:    r.cfg.From,
		To:      []string{r.cfg.To},
		ReplyTo: sub.Email,
		Subject: "Portfolio contact: " + sub.Subject,
		Text:    plainBody(sub),
		HTML:    htmlBody(sub),
	}
}

func plainBody(sub Submission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\nEmail: %s\nSubject: %s\n\n", sub.Name, sub.Email, sub.Subject)
	b.WriteString(sub.Message)
	b.WriteString("\n")
	return b.String()
}

func htmlBody(sub Submission) string {
	var paragraphs []gomponents.Node
	for _, p := range strings.Split(sub.Message, "\n\n") {
		var lines []gomponents.Node
		for i, line := range strings.Split(p, "\n") {
			if i > 0 {
				lines = append(lines, html.Br())
			}
			lines = append(lines, gomponents.Text(line))
		}
		paragraphs = append(paragraphs, html.P(lines...))
	}

	doc := html.Div(
		html.H2(gomponents.Text("New portfolio message")),
		html.Table(
			row("Name", sub.Name),
			row("Email", sub.Email),
			row("Subject", sub.Subject),
		),
		html.Hr(),
		gomponents.Group(paragraphs),
	)

	var b strings.Builder
	_ = doc.Render(&b)
	return b.String()
}

func row(label, value string) gomponents.Node {
	return html.Tr(
		html.Th(html.Style("text-align:left;padding-right:1em"), gomponents.Text(label)),
		html.Td(gomponents.Text(value)),
	)
}
