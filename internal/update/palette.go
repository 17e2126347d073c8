package update

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/focusloop/internal/commands"
	"github.com/sandeepkv93/focusloop/internal/loops"
	"github.com/sandeepkv93/focusloop/internal/model"
	"github.com/sandeepkv93/focusloop/internal/state"
	"github.com/sandeepkv93/focusloop/internal/views"
)

var errSyncNotConfigured = errors.New("cloud sync is not configured: set gist_id and gist_token")

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed", IsError: false}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			typed := string(msg.Runes)
			if msg.Type == tea.KeySpace {
				typed = " "
			}
			m.commandInput.SetValue(m.commandInput.Value() + typed)
			m.commandInput.CursorEnd()
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
}

func (m *Model) openPalette() {
	m.Palette = CommandPaletteState{Active: true}
	m.commandInput.SetValue("")
	m.commandInput.Focus()
	m.Status = StatusBar{Text: "command palette active", IsError: false}
}

func (m *Model) closePalette() {
	m.Palette = CommandPaletteState{}
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	before := m.running()
	res, err := commands.Execute(cmd, m.paletteHandlers())
	if err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command Failed", err.Error(), "error")
	} else {
		m.applyResult(res)
	}

	tick := m.afterEngine(before)
	pending := m.pendingCmd
	m.pendingCmd = nil
	return m, tea.Batch(tick, pending)
}

// applyResult shows a result or, when it needs confirmation, parks it.
func (m *Model) applyResult(res commands.Result) {
	if res.Confirm != "" && res.Then != nil {
		m.Confirm = &Confirmation{Prompt: res.Confirm, Run: res.Then}
		m.Status = StatusBar{}
		return
	}
	if res.Message != "" {
		m.Status = StatusBar{Text: res.Message, IsError: false}
		m.notify("Command", res.Message, "info")
	}
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	c := m.Confirm
	switch strings.ToLower(msg.String()) {
	case "y":
		m.Confirm = nil
		before := m.running()
		res, err := c.Run()
		if err != nil {
			m.LastError = err
			m.Status = StatusBar{Text: err.Error(), IsError: true}
		} else {
			m.applyResult(res)
		}
		cmd := m.afterEngine(before)
		return m, cmd
	case "n", "esc":
		m.Confirm = nil
		m.Status = StatusBar{Text: "cancelled", IsError: false}
	}
	return m, nil
}

func (m *Model) confirmResetAll() {
	m.applyResult(m.resetAllResult())
}

func (m *Model) resetAllResult() commands.Result {
	e, ctx := m.Engine, m.ctx
	return commands.Result{
		Confirm: "Reset progress in every loop? (y/n)",
		Then: func() (commands.Result, error) {
			e.ResetAll(ctx)
			return commands.Result{Message: "all progress reset"}, nil
		},
	}
}

func (m *Model) paletteHandlers() commands.Handlers {
	e, ctx := m.Engine, m.ctx
	loop := e.ActiveLoop()

	at := func(pos int) (*model.Assignment, error) {
		return loops.At(e.State(), loop, pos-1)
	}

	return commands.Handlers{
		Add: func(a commands.TaskArgs) (commands.Result, error) {
			var task model.Task
			err := e.Mutate(ctx, func(st *model.State) error {
				var err error
				task, err = loops.AddTask(st, a.Name, "", a.Minutes)
				return err
			})
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("added task %s (%s)", task.Name, views.FormatMinutes(task.DefaultDuration))}, nil
		},
		Assign: func(a commands.TaskArgs) (commands.Result, error) {
			task, err := loops.ResolveTask(e.State(), a.Name)
			if err != nil {
				return commands.Result{}, err
			}
			var added model.Assignment
			err = e.Mutate(ctx, func(st *model.State) error {
				var err error
				added, err = loops.AddAssignment(st, loop, task.ID, a.Minutes)
				return err
			})
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("assigned %s to %s for %s", task.Name, loop.Title(), views.FormatMinutes(added.Allocated))}, nil
		},
		Alloc: func(p commands.PositionArgs) (commands.Result, error) {
			a, err := at(p.Pos)
			if err != nil {
				return commands.Result{}, err
			}
			id := a.ID
			if err := e.UpdateAllocated(ctx, loop, id, p.Minutes); err != nil {
				return commands.Result{}, err
			}
			allocated := p.Minutes
			if updated, ok := e.State().Loop(loop).Find(id); ok {
				allocated = updated.Allocated
			}
			return commands.Result{Message: fmt.Sprintf("entry %d now %s", p.Pos, formatAllocation(allocated))}, nil
		},
		Remove: func(p commands.PositionArgs) (commands.Result, error) {
			a, err := at(p.Pos)
			if err != nil {
				return commands.Result{}, err
			}
			name := e.State().TaskName(a.TaskID)
			if err := e.RemoveAssignment(ctx, loop, a.ID); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("removed %s from %s", name, loop.Title())}, nil
		},
		Move: func(p commands.PositionArgs) (commands.Result, error) {
			err := e.Mutate(ctx, func(st *model.State) error {
				return loops.MoveAssignment(st, loop, p.Pos-1, p.To-1)
			})
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("moved entry %d to %d", p.Pos, p.To)}, nil
		},
		Reset: func(p commands.PositionArgs) (commands.Result, error) {
			if p.All {
				return m.resetAllResult(), nil
			}
			a, err := at(p.Pos)
			if err != nil {
				return commands.Result{}, err
			}
			if err := e.ResetAssignment(ctx, loop, a.ID); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("reset entry %d", p.Pos)}, nil
		},
		Delete: func(a commands.EditArgs) (commands.Result, error) {
			task, err := loops.ResolveTask(e.State(), a.Task)
			if err != nil {
				return commands.Result{}, err
			}
			id, name := task.ID, task.Name
			prompt := fmt.Sprintf("Delete %s? (y/n)", name)
			if n := loops.InUse(e.State(), id); n > 0 {
				prompt = fmt.Sprintf("Delete %s? It is used in %d loop entries, which will be removed. (y/n)", name, n)
			}
			return commands.Result{
				Confirm: prompt,
				Then: func() (commands.Result, error) {
					if err := e.DeleteTask(ctx, id); err != nil {
						return commands.Result{}, err
					}
					return commands.Result{Message: fmt.Sprintf("deleted %s", name)}, nil
				},
			}, nil
		},
		Rename: func(a commands.EditArgs) (commands.Result, error) {
			task, err := loops.ResolveTask(e.State(), a.Task)
			if err != nil {
				return commands.Result{}, err
			}
			id, note, old := task.ID, task.Note, task.Name
			err = e.Mutate(ctx, func(st *model.State) error {
				return loops.UpdateTask(st, id, a.Text, note, 0)
			})
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("renamed %s to %s", old, strings.TrimSpace(a.Text))}, nil
		},
		Note: func(a commands.EditArgs) (commands.Result, error) {
			task, err := loops.ResolveTask(e.State(), a.Task)
			if err != nil {
				return commands.Result{}, err
			}
			id, name := task.ID, task.Name
			err = e.Mutate(ctx, func(st *model.State) error {
				return loops.UpdateTask(st, id, name, a.Text, 0)
			})
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("updated note for %s", name)}, nil
		},
		LoopNote: func(a commands.EditArgs) (commands.Result, error) {
			err := e.Mutate(ctx, func(st *model.State) error {
				return loops.SetLoopNote(st, loop, a.Text)
			})
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("updated %s note", loop.Title())}, nil
		},
		Mode: func(c commands.ChoiceArgs) (commands.Result, error) {
			if err := e.SetMode(ctx, model.Mode(c.Value)); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("mode %s: %s", c.Value, e.ActiveLoop().Title())}, nil
		},
		Day: func(c commands.ChoiceArgs) (commands.Result, error) {
			if err := e.SetDayOverride(ctx, model.DayOverride(c.Value)); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("day %s: %s", c.Value, e.ActiveLoop().Title())}, nil
		},
		Export: func(p commands.PathArgs) (commands.Result, error) {
			now := e.Now()
			path := p.Path
			if path == "" {
				path = filepath.Join(m.exportDir, state.ExportFileName(now))
			}
			if err := state.ExportFile(m.fs, path, e.State(), now); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("exported to %s", path)}, nil
		},
		Import: func(p commands.PathArgs) (commands.Result, error) {
			next, err := state.ImportFile(m.fs, p.Path)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{
				Confirm: fmt.Sprintf("Replace all local data with %s (%d tasks)? (y/n)", filepath.Base(p.Path), len(next.Tasks)),
				Then: func() (commands.Result, error) {
					e.Replace(ctx, next)
					return commands.Result{Message: fmt.Sprintf("imported %d tasks", len(next.Tasks))}, nil
				},
			}, nil
		},
		Push: func() (commands.Result, error) {
			if m.remote == nil {
				return commands.Result{}, errSyncNotConfigured
			}
			m.Syncing = true
			m.pendingCmd = pushCmd(ctx, m.remote, e.State().Clone())
			return commands.Result{Message: "pushing to gist…"}, nil
		},
		Pull: func() (commands.Result, error) {
			if m.remote == nil {
				return commands.Result{}, errSyncNotConfigured
			}
			m.Syncing = true
			m.pendingCmd = pullCmd(ctx, m.remote, false)
			return commands.Result{Message: "pulling from gist…"}, nil
		},
		Sync: func() (commands.Result, error) {
			if m.remote == nil {
				return commands.Result{}, errSyncNotConfigured
			}
			m.Syncing = true
			m.pendingCmd = pullCmd(ctx, m.remote, true)
			return commands.Result{Message: "syncing with gist…"}, nil
		},
	}
}

// formatAllocation is FormatMinutes keeping the half minute that user
// input rounds to.
func formatAllocation(minutes float64) string {
	if minutes == math.Floor(minutes) {
		return views.FormatMinutes(minutes)
	}
	hrs := int(minutes) / 60
	rest := strconv.FormatFloat(minutes-float64(hrs*60), 'f', 1, 64) + "m"
	if hrs > 0 {
		return fmt.Sprintf("%dh %s", hrs, rest)
	}
	return rest
}
