// Package notify tells someone when a live check finds a service down.
package notify

import (
	"context"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/livestatus/internal/livesystem"
)

type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi fans a message out to every notifier and returns all their errors combined.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var errs error
	for _, n := range m {
		if n == nil {
			continue
		}
		errs = multierr.Append(errs, n.Send(ctx, title, text))
	}
	return errs
}

// DownReport describes the failed cards. ok is true when there is nothing to report.
// Cards still loading count as down: they did not answer within the render wait.
func DownReport(cards livesystem.Cards) (title, text string, ok bool) {
	var lines []string
	for _, c := range []livesystem.Card{cards.Profile, cards.BFF} {
		switch {
		case c.OK:
		case c.Loading:
			lines = append(lines, "• "+c.Title+": no answer yet")
		default:
			lines = append(lines, "• "+c.Title+": "+c.Error)
		}
	}
	if len(lines) == 0 {
		return "", "", true
	}
	return "Live status: service down", strings.Join(lines, "\n"), false
}
