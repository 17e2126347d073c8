package notify

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

const execTimeout = 5 * time.Second

type Notification struct {
	Title string
	Body  string
}

// Completion builds the message shown when an assignment's time is up.
func Completion(taskName string) Notification {
	return Notification{
		Title: "Task Complete!",
		Body:  fmt.Sprintf("%s is done! Time to move on to the next task.", taskName),
	}
}

type DesktopNotifier interface {
	Send(ctx context.Context, n Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(context.Context, Notification) error { return nil }

// ExecDesktopNotifier shells out to notify-send on Linux and osascript on
// macOS. Other platforms are silently ignored.
type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(ctx context.Context, n Notification) error {
	ctx, cancel := context.WithTimeout(ctx, execTimeout)
	defer cancel()
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

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// Sound plays the in-app completion cue.
type Sound interface {
	Play() error
}

type NoopSound struct{}

func (NoopSound) Play() error { return nil }

// Bell rings the terminal bell on w.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := io.WriteString(b.w, "\a")
	return err
}
