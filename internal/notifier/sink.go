package notifier

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"golang.org/x/net/html"
)

// Sink delivers reminder and status messages to the user.
type Sink interface {
	Notify(ctx context.Context, text string) error
	// Permitted reports whether the sink may deliver at all.
	Permitted() bool
	Name() string
}

// StatusWriter is the always-available fallback: it writes the message as a
// plain status line.
type StatusWriter struct {
	W io.Writer
}

func (s *StatusWriter) Permitted() bool { return s.W != nil }
func (s *StatusWriter) Name() string    { return "status" }

func (s *StatusWriter) Notify(_ context.Context, text string) error {
	_, err := fmt.Fprintf(s.W, "%s %s\n", time.Now().UTC().Format(time.RFC3339), PlainText(text))
	return err
}

// Dispatcher sends through the primary sink when permitted, else through the
// fallback. A failed primary delivery also falls back.
type Dispatcher struct {
	Primary  Sink
	Fallback Sink
}

// Deliver returns the name of the channel that took the message.
func (d *Dispatcher) Deliver(ctx context.Context, text string) (string, error) {
	if d.Primary != nil && d.Primary.Permitted() {
		err := d.Primary.Notify(ctx, text)
		if err == nil {
			return d.Primary.Name(), nil
		}
		log.Printf("[ERROR] %s delivery failed, falling back: %v", d.Primary.Name(), err)
	}
	if d.Fallback == nil || !d.Fallback.Permitted() {
		return "none", fmt.Errorf("no notification channel available")
	}
	if err := d.Fallback.Notify(ctx, text); err != nil {
		return "none", fmt.Errorf("%s delivery: %w", d.Fallback.Name(), err)
	}
	return d.Fallback.Name(), nil
}

// PlainText drops the HTML tags used for Telegram formatting.
func PlainText(s string) string {
	out := make([]rune, 0, len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>' && inTag:
			inTag = false
		case !inTag:
			out = append(out, r)
		}
	}
	return html.UnescapeString(string(out))
}
