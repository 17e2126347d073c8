package views

import (
	"fmt"
	"math"
	"strings"
)

type TimerPanelData struct {
	LoopTitle    string
	DayLabel     string
	Position     int
	Total        int
	TaskName     string
	Completed    float64
	Allocated    float64
	Running      bool
	ProgressView string
	NoteView     string
	LoopNote     string
	AllComplete  bool
	Empty        bool
}

type EntryData struct {
	Position  int
	TaskName  string
	Completed float64
	Allocated float64
	Running   bool
	Current   bool
	Selected  bool
}

type LibraryTaskData struct {
	Name    string
	Note    string
	Minutes float64
	InUse   int
}

type ManagePanelData struct {
	LoopTitle string
	LoopNote  string
	Entries   []EntryData
	Completed float64
	Allocated float64
	Tasks     []LibraryTaskData
}

type HelpPanelData struct {
	Screen   string
	Bindings []string
	Commands []string
	HelpView string
}

// FormatMinutes renders whole minutes as "1h 5m" or "45m". Fractions are
// dropped.
func FormatMinutes(minutes float64) string {
	if math.IsNaN(minutes) || minutes < 0 {
		minutes = 0
	}
	total := int(math.Floor(minutes))
	hrs, mins := total/60, total%60
	if hrs > 0 {
		return fmt.Sprintf("%dh %dm", hrs, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// ProgressPercent is completed/allocated as a whole percentage in [0, 100].
func ProgressPercent(completed, allocated float64) int {
	return int(math.Floor(ProgressRatio(completed, allocated) * 100))
}

func ProgressRatio(completed, allocated float64) float64 {
	if allocated <= 0 {
		return 0
	}
	return math.Max(0, math.Min(completed/allocated, 1))
}

func RenderTimerPanel(data TimerPanelData) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(data.LoopTitle) + "  " + mutedStyle.Render(data.DayLabel) + "\n\n")

	switch {
	case data.Empty:
		b.WriteString("This loop has no tasks yet.\n")
		b.WriteString(mutedStyle.Render("press m to manage, or /assign <task>"))
		return b.String()
	case data.AllComplete:
		b.WriteString(doneStyle.Render("All Tasks Complete!") + "\n")
		b.WriteString("You've finished every task in this loop. Great work!\n")
		b.WriteString(mutedStyle.Render("press R to start a new cycle"))
		return b.String()
	}

	b.WriteString(mutedStyle.Render(fmt.Sprintf("Task %d of %d", data.Position, data.Total)) + "\n")
	b.WriteString(titleStyle.Render(data.TaskName) + "\n")
	b.WriteString(fmt.Sprintf("%s / %s  (%d%%)\n", FormatMinutes(data.Completed), FormatMinutes(data.Allocated), ProgressPercent(data.Completed, data.Allocated)))
	b.WriteString(data.ProgressView + "\n")
	if data.Running {
		b.WriteString(runningStyle.Render("● running") + "  [space] pause  [n] next\n")
	} else {
		b.WriteString("○ paused  [space] start  [n] next\n")
	}
	if data.NoteView != "" {
		b.WriteString("\n" + data.NoteView + "\n")
	}
	if data.LoopNote != "" {
		b.WriteString("\n" + mutedStyle.Render("loop: "+data.LoopNote))
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderManagePanel(data ManagePanelData) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Manage "+data.LoopTitle) + "\n")
	b.WriteString(fmt.Sprintf("total: %s / %s\n", FormatMinutes(data.Completed), FormatMinutes(data.Allocated)))
	if data.LoopNote != "" {
		b.WriteString(mutedStyle.Render("note: "+data.LoopNote) + "\n")
	}
	b.WriteString("\n")
	if len(data.Entries) == 0 {
		b.WriteString("  (no entries)\n")
	}
	for _, e := range data.Entries {
		cursor := " "
		if e.Selected {
			cursor = ">"
		}
		marker := " "
		switch {
		case e.Running:
			marker = runningStyle.Render("●")
		case e.Completed >= e.Allocated:
			marker = doneStyle.Render("✓")
		case e.Current:
			marker = "·"
		}
		b.WriteString(fmt.Sprintf("%s %d. %s %-20s %s / %s\n", cursor, e.Position, marker, e.TaskName, FormatMinutes(e.Completed), FormatMinutes(e.Allocated)))
	}

	b.WriteString("\nlibrary:\n")
	if len(data.Tasks) == 0 {
		b.WriteString("  (empty)\n")
	}
	for _, t := range data.Tasks {
		line := fmt.Sprintf("- %s [%s]", t.Name, FormatMinutes(t.Minutes))
		if t.InUse > 0 {
			line += fmt.Sprintf(" in %d loop entr%s", t.InUse, plural(t.InUse, "y", "ies"))
		}
		b.WriteString(line + "\n")
		if note := firstLine(t.Note); note != "" {
			b.WriteString("    " + mutedStyle.Render(note) + "\n")
		}
	}
	b.WriteString("\n" + mutedStyle.Render("[j/k] select [enter] run next [+/-] 5m [J/K] move [x] remove"))
	return b.String()
}

func RenderCommandPalette(active bool, inputView string) string {
	if !active {
		return ""
	}
	return "command: " + inputView
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("[%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("help (%s):\n", strings.ToLower(data.Screen)))
	b.WriteString(strings.Join(data.Bindings, "\n"))
	if len(data.Commands) > 0 {
		b.WriteString("\n\ncommands:\n")
		b.WriteString(strings.Join(data.Commands, "\n"))
	}
	if data.HelpView != "" {
		b.WriteString("\n\n" + data.HelpView)
	}
	return b.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i]) + " …"
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
