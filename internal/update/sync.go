package update

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/focusloop/internal/cloudsync"
	"github.com/sandeepkv93/focusloop/internal/model"
)

// Network calls run as commands; the engine is only touched back on the
// update goroutine when their results arrive.

func pullCmd(ctx context.Context, remote cloudsync.Remote, resolve bool) tea.Cmd {
	return func() tea.Msg {
		st, err := remote.Pull(ctx)
		return PulledMsg{Remote: st, Err: err, Resolve: resolve}
	}
}

func pushCmd(ctx context.Context, remote cloudsync.Remote, snapshot *model.State) tea.Cmd {
	return func() tea.Msg {
		return PushedMsg{Err: remote.Push(ctx, snapshot)}
	}
}

func (m Model) onPulled(msg PulledMsg) (Model, tea.Cmd) {
	m.Syncing = false
	if msg.Err != nil {
		if msg.Resolve && errors.Is(msg.Err, cloudsync.ErrRemoteEmpty) {
			m.Syncing = true
			return m, pushCmd(m.ctx, m.remote, m.Engine.State().Clone())
		}
		m.LastError = msg.Err
		m.Status = StatusBar{Text: fmt.Sprintf("pull failed: %v", msg.Err), IsError: true}
		m.notify("Sync", m.Status.Text, "error")
		return m, nil
	}

	decision := cloudsync.TakeRemote
	if msg.Resolve {
		decision = cloudsync.Resolve(m.Engine.State(), msg.Remote)
	}
	switch decision {
	case cloudsync.TakeRemote:
		before := m.running()
		m.Engine.Replace(m.ctx, msg.Remote)
		m.manageCursor = 0
		m.Status = StatusBar{Text: fmt.Sprintf("pulled %d tasks from gist", len(msg.Remote.Tasks)), IsError: false}
		m.notify("Sync", m.Status.Text, "info")
		cmd := m.afterEngine(before)
		return m, cmd
	case cloudsync.KeepLocal:
		m.Syncing = true
		return m, pushCmd(m.ctx, m.remote, m.Engine.State().Clone())
	default:
		m.Status = StatusBar{Text: "already in sync", IsError: false}
		return m, nil
	}
}

func (m Model) onPushed(msg PushedMsg) (Model, tea.Cmd) {
	m.Syncing = false
	if msg.Err != nil {
		m.LastError = msg.Err
		m.Status = StatusBar{Text: fmt.Sprintf("push failed: %v", msg.Err), IsError: true}
		m.notify("Sync", m.Status.Text, "error")
		return m, nil
	}
	m.Status = StatusBar{Text: "pushed to gist", IsError: false}
	m.notify("Sync", m.Status.Text, "info")
	return m, nil
}
