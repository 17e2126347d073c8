package model

import "time"

type LoopID string

const (
	LoopOut       LoopID = "out"
	LoopInWeekday LoopID = "in_weekday"
	LoopInWeekend LoopID = "in_weekend"
)

// LoopIDs is the fixed iteration order used wherever loops are walked.
var LoopIDs = []LoopID{LoopOut, LoopInWeekday, LoopInWeekend}

func (l LoopID) IsValid() bool {
	switch l {
	case LoopOut, LoopInWeekday, LoopInWeekend:
		return true
	default:
		return false
	}
}

func (l LoopID) Title() string {
	switch l {
	case LoopOut:
		return "Out"
	case LoopInWeekday:
		return "In · Weekday"
	case LoopInWeekend:
		return "In · Weekend"
	default:
		return string(l)
	}
}

type Mode string

const (
	ModeIn  Mode = "in"
	ModeOut Mode = "out"
)

func (m Mode) IsValid() bool {
	return m == ModeIn || m == ModeOut
}

type DayOverride string

const (
	DayAuto    DayOverride = "auto"
	DayWeekday DayOverride = "weekday"
	DayWeekend DayOverride = "weekend"
)

func (d DayOverride) IsValid() bool {
	switch d {
	case DayAuto, DayWeekday, DayWeekend:
		return true
	default:
		return false
	}
}

// Next cycles auto -> weekday -> weekend -> auto.
func (d DayOverride) Next() DayOverride {
	switch d {
	case DayAuto:
		return DayWeekday
	case DayWeekday:
		return DayWeekend
	default:
		return DayAuto
	}
}

// ActiveLoop resolves which loop the user is looking at. It is recomputed on
// every use and never stored.
func ActiveLoop(mode Mode, override DayOverride, now time.Time) LoopID {
	if mode == ModeOut {
		return LoopOut
	}
	switch override {
	case DayWeekday:
		return LoopInWeekday
	case DayWeekend:
		return LoopInWeekend
	}
	switch now.Local().Weekday() {
	case time.Saturday, time.Sunday:
		return LoopInWeekend
	default:
		return LoopInWeekday
	}
}

// Assignment places a task into a loop with its own allocation and progress.
type Assignment struct {
	ID        string  `json:"id"`
	TaskID    string  `json:"taskId"`
	Allocated float64 `json:"allocated"`
	Completed float64 `json:"completed"`
	Order     int     `json:"order"`
}

func (a Assignment) IsComplete() bool {
	return a.Completed >= a.Allocated
}

func (a Assignment) Remaining() float64 {
	r := a.Allocated - a.Completed
	if r < 0 {
		return 0
	}
	return r
}

type Loop struct {
	Note        string       `json:"note"`
	Assignments []Assignment `json:"assignments"`
	// Cursor is the assignment the next Start picks when nothing is active.
	Cursor string `json:"cursor,omitempty"`
}

// TimerState is the per-loop countdown. ActiveAssignmentID and SegmentStart
// are either both set or both zero.
type TimerState struct {
	ActiveAssignmentID string `json:"activeAssignmentId,omitempty"`
	SegmentStart       int64  `json:"segmentStart,omitempty"`
	IsRunning          bool   `json:"isRunning"`
}

func (t TimerState) IsActive() bool {
	return t.ActiveAssignmentID != ""
}

func (t *TimerState) Clear() {
	t.ActiveAssignmentID = ""
	t.SegmentStart = 0
	t.IsRunning = false
}
