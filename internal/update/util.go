package update

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/focusloop/internal/alarm"
	"github.com/sandeepkv93/focusloop/internal/notify"
	"github.com/sandeepkv93/focusloop/internal/timer"
)

// Announcements queues engine completions until the update loop drains
// them. The engine and the update loop share one goroutine, so no locking.
type Announcements struct {
	pending []timer.Completion
}

func (a *Announcements) Announce(_ context.Context, c timer.Completion) {
	a.pending = append(a.pending, c)
}

func (a *Announcements) Drain() []timer.Completion {
	out := a.pending
	a.pending = nil
	return out
}

func (m *Model) drainCompletions() {
	for _, c := range m.announce.Drain() {
		n := notify.Completion(c.TaskName)
		m.notify(n.Title, n.Body, "info")
		m.Status = StatusBar{Text: n.Body, IsError: false}
		if err := m.sound.Play(); err != nil {
			m.logger.DebugContext(m.ctx, "completion sound failed", "err", err)
		}
	}
}

func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	m.Notifications = append(m.Notifications, Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    time.Now().UTC(),
	})
	if len(m.Notifications) > maxNotifications {
		m.Notifications = m.Notifications[len(m.Notifications)-maxNotifications:]
	}
}

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}

func waitForAlarmCmd(ch <-chan alarm.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return AlarmFiredMsg{Event: ev}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
