package update

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/focusloop/internal/loops"
	"github.com/sandeepkv93/focusloop/internal/model"
	"github.com/sandeepkv93/focusloop/internal/views"
)

func (m Model) renderTimerView() string {
	st := m.Engine.State()
	loop := m.Engine.ActiveLoop()
	l := st.Loop(loop)
	data := views.TimerPanelData{
		LoopTitle: loop.Title(),
		DayLabel:  m.dayLabel(),
		Total:     len(l.Assignments),
		LoopNote:  l.Note,
	}
	if len(l.Assignments) == 0 {
		data.Empty = true
		return views.RenderTimerPanel(data)
	}
	a, ok := m.Engine.Current(loop)
	if !ok {
		data.AllComplete = true
		return views.RenderTimerPanel(data)
	}

	elapsed := m.Engine.Elapsed(loop)
	data.Position = a.Order + 1
	data.TaskName = st.TaskName(a.TaskID)
	data.Completed = elapsed
	data.Allocated = a.Allocated
	data.Running = st.Timer(loop).IsRunning
	data.ProgressView = m.timerProgress.ViewAs(views.ProgressRatio(elapsed, a.Allocated))
	if task, ok := st.FindTask(a.TaskID); ok {
		data.NoteView = views.RenderMarkdown(task.Note, 52)
	}
	return views.RenderTimerPanel(data)
}

func (m Model) renderManageView() string {
	st := m.Engine.State()
	loop := m.Engine.ActiveLoop()
	l := st.Loop(loop)
	t := st.Timer(loop)
	current, _ := m.Engine.Current(loop)
	completed, allocated := loops.Progress(l)

	data := views.ManagePanelData{
		LoopTitle: loop.Title(),
		LoopNote:  l.Note,
		Completed: completed,
		Allocated: allocated,
	}
	for i, a := range l.Assignments {
		data.Entries = append(data.Entries, views.EntryData{
			Position:  i + 1,
			TaskName:  st.TaskName(a.TaskID),
			Completed: a.Completed,
			Allocated: a.Allocated,
			Running:   t.IsRunning && t.ActiveAssignmentID == a.ID,
			Current:   current.ID == a.ID,
			Selected:  i == m.manageCursor,
		})
	}
	for _, task := range st.Tasks {
		data.Tasks = append(data.Tasks, views.LibraryTaskData{
			Name:    task.Name,
			Note:    task.Note,
			Minutes: task.DefaultDuration,
			InUse:   loops.InUse(st, task.ID),
		})
	}
	return views.RenderManagePanel(data)
}

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.commandInput.View())
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(n.Level, n.Body)
}

func (m Model) header() string {
	st := m.Engine.State()
	parts := []string{"focusloop", fmt.Sprintf("mode: %s", st.Mode), fmt.Sprintf("day: %s", st.DayOverride)}
	if loop, ok := m.Engine.Running(); ok {
		parts = append(parts, fmt.Sprintf("running: %s", loop.Title()))
	}
	if m.Syncing {
		parts = append(parts, "syncing…")
	}
	return strings.Join(parts, " | ")
}

func (m Model) dayLabel() string {
	st := m.Engine.State()
	if st.Mode == model.ModeOut {
		return "out of the house"
	}
	switch st.DayOverride {
	case model.DayWeekday:
		return "weekday (forced)"
	case model.DayWeekend:
		return "weekend (forced)"
	}
	if m.Engine.ActiveLoop() == model.LoopInWeekend {
		return "weekend loop active"
	}
	return "weekday loop active"
}
