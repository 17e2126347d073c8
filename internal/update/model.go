package update

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/focusloop/internal/alarm"
	"github.com/sandeepkv93/focusloop/internal/cloudsync"
	"github.com/sandeepkv93/focusloop/internal/commands"
	"github.com/sandeepkv93/focusloop/internal/model"
	"github.com/sandeepkv93/focusloop/internal/notify"
	"github.com/sandeepkv93/focusloop/internal/timer"
	"github.com/spf13/afero"
)

type Screen string

const (
	ScreenTimer  Screen = "Timer"
	ScreenManage Screen = "Manage"
)

const maxNotifications = 40

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Toggle   string
	Next     string
	ModeOut  string
	ModeIn   string
	Day      string
	Manage   string
	Reset    string
	ResetAll string
	Palette  string
	Help     string
	Quit     string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// Confirmation is a pending y/n prompt. Run executes on "y" and must not
// capture the Model, which is copied between updates.
type Confirmation struct {
	Prompt string
	Run    func() (commands.Result, error)
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

// Runtime carries the collaborators the TUI needs beyond the engine.
type Runtime struct {
	Announcements *Announcements
	AlarmEvents   <-chan alarm.Event
	Sound         notify.Sound
	Fs            afero.Fs
	ExportDir     string
	Remote        cloudsync.Remote
	TickInterval  time.Duration
	Logger        *slog.Logger
}

type Model struct {
	Engine        *timer.Engine
	Screen        Screen
	Palette       CommandPaletteState
	HelpVisible   bool
	Confirm       *Confirmation
	Notifications []Notification
	Status        StatusBar
	Keys          GlobalKeyMap
	Focused       bool
	Syncing       bool
	Quitting      bool
	LastError     error

	ctx          context.Context
	announce     *Announcements
	alarmEvents  <-chan alarm.Event
	sound        notify.Sound
	fs           afero.Fs
	exportDir    string
	remote       cloudsync.Remote
	logger       *slog.Logger
	tickInterval time.Duration
	tickGen      int
	manageCursor int
	pendingCmd   tea.Cmd

	commandInput  textinput.Model
	timerProgress progress.Model
	helpModel     help.Model
}

type TickMsg struct {
	Gen int
}

type AlarmFiredMsg struct {
	Event alarm.Event
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// PulledMsg carries a remote snapshot fetched off the update goroutine.
type PulledMsg struct {
	Remote *model.State
	Err    error
	// Resolve applies last-writer-wins instead of taking the remote
	// unconditionally.
	Resolve bool
}

type PushedMsg struct {
	Err error
}

func NewModel(engine *timer.Engine, rt Runtime) Model {
	m := Model{
		Engine:  engine,
		Screen:  ScreenTimer,
		Focused: true,
		Keys: GlobalKeyMap{
			Toggle:   " ",
			Next:     "n",
			ModeOut:  "o",
			ModeIn:   "i",
			Day:      "d",
			Manage:   "m",
			Reset:    "r",
			ResetAll: "R",
			Palette:  "/",
			Help:     "?",
			Quit:     "q",
		},
		ctx:          context.Background(),
		announce:     rt.Announcements,
		alarmEvents:  rt.AlarmEvents,
		sound:        rt.Sound,
		fs:           rt.Fs,
		exportDir:    rt.ExportDir,
		remote:       rt.Remote,
		logger:       rt.Logger,
		tickInterval: rt.TickInterval,
	}
	if m.announce == nil {
		m.announce = &Announcements{}
	}
	if m.sound == nil {
		m.sound = notify.NoopSound{}
	}
	if m.fs == nil {
		m.fs = afero.NewOsFs()
	}
	if m.exportDir == "" {
		m.exportDir = "."
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.tickInterval <= 0 {
		m.tickInterval = time.Second
	}
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.timerProgress = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	m.timerProgress.Width = 48

	m.helpModel = help.New()
}
