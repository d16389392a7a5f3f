package tui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/goliatone/go-formdraft/pkg/notify"
)

// Notifier prints notifications as single terminal lines.
type Notifier struct {
	mu    sync.Mutex
	out   io.Writer
	theme Theme
}

var _ notify.Notifier = (*Notifier)(nil)

// NewNotifier writes to out using the prefixes of th.
func NewNotifier(out io.Writer, th Theme) *Notifier {
	if th == (Theme{}) {
		th = ThemeFromConfig(nil)
	}
	return &Notifier{out: out, theme: th}
}

func (n *Notifier) Notify(_ context.Context, note notify.Notification) {
	prefix := n.theme.SuccessPrefix
	if note.Severity == notify.SeverityDestructive {
		prefix = n.theme.ErrorPrefix
	}
	msg := note.Message
	if note.Title != "" {
		msg = note.Title + ": " + msg
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, prefixed(prefix, msg))
}
