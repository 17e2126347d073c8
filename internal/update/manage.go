package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/focusloop/internal/loops"
	"github.com/sandeepkv93/focusloop/internal/model"
)

const allocStep = 5

func (m Model) handleManageKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	loop := m.Engine.ActiveLoop()
	n := len(m.Engine.State().Loop(loop).Assignments)
	m.manageCursor = clamp(m.manageCursor, 0, max(n-1, 0))
	before := m.running()

	switch msg.String() {
	case "esc", m.Keys.Manage:
		m.Screen = ScreenTimer
		return m, nil
	case "j", "down":
		m.manageCursor = clamp(m.manageCursor+1, 0, max(n-1, 0))
		return m, nil
	case "k", "up":
		m.manageCursor = clamp(m.manageCursor-1, 0, max(n-1, 0))
		return m, nil
	}
	if n == 0 {
		return m, nil
	}

	a, err := loops.At(m.Engine.State(), loop, m.manageCursor)
	if err != nil {
		return m, nil
	}
	id, allocated := a.ID, a.Allocated
	name := m.Engine.State().TaskName(a.TaskID)

	switch msg.String() {
	case "enter":
		if r, ok := m.Engine.Running(); ok && r == loop {
			m.Engine.Stop(m.ctx, loop)
		}
		err = m.Engine.Mutate(m.ctx, func(st *model.State) error {
			st.Loop(loop).Cursor = id
			return nil
		})
		if err == nil {
			m.Status = StatusBar{Text: fmt.Sprintf("up next: %s", name), IsError: false}
		}
	case "+", "=":
		err = m.Engine.UpdateAllocated(m.ctx, loop, id, allocated+allocStep)
	case "-":
		err = m.Engine.UpdateAllocated(m.ctx, loop, id, allocated-allocStep)
	case "J", "shift+down":
		err = m.move(loop, m.manageCursor, m.manageCursor+1)
	case "K", "shift+up":
		err = m.move(loop, m.manageCursor, m.manageCursor-1)
	case "x", "delete":
		err = m.Engine.RemoveAssignment(m.ctx, loop, id)
		if err == nil {
			m.Status = StatusBar{Text: fmt.Sprintf("removed %s from %s", name, loop.Title()), IsError: false}
			m.manageCursor = clamp(m.manageCursor, 0, max(n-2, 0))
		}
	default:
		return m, nil
	}
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
	}
	cmd := m.afterEngine(before)
	return m, cmd
}

func (m *Model) move(loop model.LoopID, from, to int) error {
	err := m.Engine.Mutate(m.ctx, func(st *model.State) error {
		return loops.MoveAssignment(st, loop, from, to)
	})
	if err == nil {
		m.manageCursor = to
	}
	return err
}
