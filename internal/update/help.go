package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/sandeepkv93/focusloop/internal/commands"
	"github.com/sandeepkv93/focusloop/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	var plain []string
	for _, kb := range append(m.globalBindings(), m.screenBindings()...) {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	usage := make([]string, 0, len(commands.Types))
	for _, t := range commands.Types {
		usage = append(usage, "/"+commands.Usage(t))
	}
	bindings := m.helpBindings()
	return views.RenderHelpPanel(views.HelpPanelData{
		Screen:   string(m.Screen),
		Bindings: plain,
		Commands: usage,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.ModeOut + "/" + m.Keys.ModeIn, Action: "out of / in the house"},
		{Key: m.Keys.Day, Action: "cycle day: auto, weekday, weekend"},
		{Key: m.Keys.Manage, Action: "toggle manage screen"},
		{Key: m.Keys.ResetAll, Action: "reset all progress"},
		{Key: m.Keys.Palette, Action: "open command palette"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit"},
	}
}

func (m Model) screenBindings() []KeyBinding {
	switch m.Screen {
	case ScreenManage:
		return []KeyBinding{
			{Key: "j/k", Action: "move selection"},
			{Key: "enter", Action: "run selected next"},
			{Key: "+/-", Action: "allocation ±5m"},
			{Key: "J/K", Action: "move entry down/up"},
			{Key: "x", Action: "remove entry"},
			{Key: "esc", Action: "back to timer"},
		}
	default:
		return []KeyBinding{
			{Key: "space", Action: "start/pause timer"},
			{Key: m.Keys.Next, Action: "next task"},
			{Key: m.Keys.Reset, Action: "reset current task"},
		}
	}
}

func (m Model) helpBindings() []key.Binding {
	all := append(m.globalBindings(), m.screenBindings()...)
	out := make([]key.Binding, 0, len(all))
	for _, kb := range all {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
