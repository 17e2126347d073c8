package update

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/focusloop/internal/model"
	"github.com/sandeepkv93/focusloop/internal/timer"
)

func (m Model) handleTimerKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	loop := m.Engine.ActiveLoop()
	before := m.running()

	switch msg.String() {
	case m.Keys.Toggle, "space":
		if err := m.Engine.Toggle(m.ctx, loop); err != nil {
			if errors.Is(err, timer.ErrNothingToRun) {
				m.Status = StatusBar{Text: "all tasks in this loop are complete", IsError: false}
				return m, nil
			}
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		if _, ok := m.Engine.Running(); ok {
			m.Status = StatusBar{Text: "timer running", IsError: false}
		} else {
			m.Status = StatusBar{Text: "timer paused", IsError: false}
		}
	case m.Keys.Next:
		m.Engine.Advance(m.ctx, loop)
		if a, ok := m.Engine.Current(loop); ok {
			m.Status = StatusBar{Text: fmt.Sprintf("next: %s", m.Engine.State().TaskName(a.TaskID)), IsError: false}
		}
	case m.Keys.Reset:
		a, ok := m.Engine.Current(loop)
		if !ok {
			return m, nil
		}
		if err := m.Engine.ResetAssignment(m.ctx, loop, a.ID); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: fmt.Sprintf("reset %s", m.Engine.State().TaskName(a.TaskID)), IsError: false}
	}
	cmd := m.afterEngine(before)
	return m, cmd
}

// runningRef identifies the running loop, if any, before an engine call.
type runningRef struct {
	loop model.LoopID
	ok   bool
}

func (m Model) running() runningRef {
	loop, ok := m.Engine.Running()
	return runningRef{loop: loop, ok: ok}
}

// afterEngine surfaces completions and keeps exactly one tick chain alive
// while a loop runs and the terminal has focus.
func (m *Model) afterEngine(before runningRef) tea.Cmd {
	m.drainCompletions()
	loop, ok := m.Engine.Running()
	switch {
	case ok && (!before.ok || before.loop != loop):
		return m.restartTicks()
	case !ok && before.ok:
		m.tickGen++
	}
	return nil
}

func (m *Model) restartTicks() tea.Cmd {
	m.tickGen++
	if !m.Focused {
		return nil
	}
	if _, ok := m.Engine.Running(); !ok {
		return nil
	}
	return tickCmd(m.tickInterval, m.tickGen)
}

func (m Model) onTick(msg TickMsg) (Model, tea.Cmd) {
	if msg.Gen != m.tickGen || !m.Focused {
		return m, nil
	}
	loop, ok := m.Engine.Running()
	if !ok {
		return m, nil
	}
	m.Engine.Tick(m.ctx, loop)
	m.drainCompletions()
	if _, ok := m.Engine.Running(); !ok {
		m.tickGen++
		return m, nil
	}
	return m, tickCmd(m.tickInterval, m.tickGen)
}

// onFocusGained folds in time that passed while ticks were suspended.
func (m Model) onFocusGained() (Model, tea.Cmd) {
	m.Focused = true
	report := m.Engine.Reconcile(m.ctx)
	m.drainCompletions()
	if n := report.Completed(); n > 0 {
		m.logger.InfoContext(m.ctx, "reconciled on focus", "completed", n)
	}
	cmd := m.restartTicks()
	return m, cmd
}

func (m Model) onBlur() (Model, tea.Cmd) {
	m.Focused = false
	m.tickGen++
	return m, nil
}

func (m Model) onAlarm(msg AlarmFiredMsg) (Model, tea.Cmd) {
	before := m.running()
	if !m.Engine.HandleAlarmEvent(m.ctx, msg.Event) {
		m.logger.DebugContext(m.ctx, "alarm ignored", "token", msg.Event.Token)
	}
	cmd := m.afterEngine(before)
	return m, tea.Batch(cmd, waitForAlarmCmd(m.alarmEvents))
}

func tickCmd(interval time.Duration, gen int) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg { return TickMsg{Gen: gen} })
}
