package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/focusloop/internal/model"
	"github.com/sandeepkv93/focusloop/internal/views"
)

// Init starts listening for alarms and, when a loop was already running at
// startup, the tick chain. Reconciliation happens before the program starts.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForAlarmCmd(m.alarmEvents)}
	if _, ok := m.Engine.Running(); ok && m.Focused {
		cmds = append(cmds, tickCmd(m.tickInterval, m.tickGen))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case TickMsg:
		return m.onTick(typed)
	case tea.FocusMsg:
		return m.onFocusGained()
	case tea.ResumeMsg:
		return m.onFocusGained()
	case tea.BlurMsg:
		return m.onBlur()
	case AlarmFiredMsg:
		return m.onAlarm(typed)
	case PulledMsg:
		return m.onPulled(typed)
	case PushedMsg:
		return m.onPushed(typed)
	case tea.WindowSizeMsg:
		width := typed.Width/2 - 8
		m.timerProgress.Width = clamp(width, 20, 60)
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.Quitting = true
		return m, tea.Quit
	}
	if m.Confirm != nil {
		return m.handleConfirmKey(msg)
	}
	if m.Palette.Active {
		return m.handlePaletteKey(msg)
	}

	before := m.running()
	switch msg.String() {
	case m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	case m.Keys.Palette:
		m.openPalette()
		return m, nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		if m.HelpVisible {
			m.Status = StatusBar{Text: "help shown", IsError: false}
		} else {
			m.Status = StatusBar{Text: "help hidden", IsError: false}
		}
		return m, nil
	case m.Keys.ModeOut, m.Keys.ModeIn:
		mode := model.ModeIn
		if msg.String() == m.Keys.ModeOut {
			mode = model.ModeOut
		}
		if err := m.Engine.SetMode(m.ctx, mode); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		m.manageCursor = 0
		m.Status = StatusBar{Text: fmt.Sprintf("now on %s", m.Engine.ActiveLoop().Title()), IsError: false}
		cmd := m.afterEngine(before)
		return m, cmd
	case m.Keys.Day:
		next := m.Engine.State().DayOverride.Next()
		if err := m.Engine.SetDayOverride(m.ctx, next); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		m.manageCursor = 0
		m.Status = StatusBar{Text: fmt.Sprintf("day %s: %s", next, m.Engine.ActiveLoop().Title()), IsError: false}
		cmd := m.afterEngine(before)
		return m, cmd
	case m.Keys.ResetAll:
		m.confirmResetAll()
		return m, nil
	}

	if m.Screen == ScreenManage {
		return m.handleManageKey(msg)
	}
	if msg.String() == m.Keys.Manage {
		m.Screen = ScreenManage
		m.manageCursor = 0
		return m, nil
	}
	return m.handleTimerKey(msg)
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	body := m.renderTimerView()
	if m.Screen == ScreenManage {
		body = m.renderManageView()
	}
	side := strings.TrimSpace(strings.Join([]string{m.renderCommandPalette(), m.renderHelpIfVisible()}, "\n"))

	prompt := ""
	if m.Confirm != nil {
		prompt = m.Confirm.Prompt
	}
	status := ""
	if m.Status.Text != "" {
		status = "status: " + m.Status.Text
	}

	return views.RenderApp(views.AppData{
		Header:       m.header(),
		Body:         body,
		Side:         side,
		Prompt:       prompt,
		StatusLine:   status,
		StatusError:  m.Status.IsError,
		Notification: m.renderNotificationsView(),
		Footer: fmt.Sprintf("keys: space start/pause | %s next | %s/%s out/in | %s day | %s manage | / cmd | %s help | %s quit",
			m.Keys.Next, m.Keys.ModeOut, m.Keys.ModeIn, m.Keys.Day, m.Keys.Manage, m.Keys.Help, m.Keys.Quit),
	})
}
