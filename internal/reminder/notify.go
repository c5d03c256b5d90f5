// Package reminder turns task reminders and the daily digest into
// notifications.
package reminder

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/sandeepkv93/taskcal/internal/model"
)

type Notifier interface {
	Send(ctx context.Context, n model.Notice) error
}

type NoopNotifier struct{}

func (NoopNotifier) Send(context.Context, model.Notice) error { return nil }

// DesktopNotifier shells out to notify-send on Linux and osascript on macOS.
// Other platforms are silently skipped.
type DesktopNotifier struct{}

func (DesktopNotifier) Send(ctx context.Context, n model.Notice) error {
	switch runtime.GOOS {
	case "linux":
		return exec.CommandContext(ctx, "notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.CommandContext(ctx, "osascript", "-e", script).Run()
	default:
		return nil
	}
}

// WriterNotifier prints one line per notice.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Send(_ context.Context, notice model.Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.w, "[%s] %s: %s\n", notice.Kind, notice.Title, notice.Body)
	return err
}

// Multi sends to every notifier and returns the first error.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, n model.Notice) error {
	var first error
	for _, item := range m {
		if err := item.Send(ctx, n); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
