package model

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StateVersion is written into exports and persisted snapshots.
const StateVersion = 1

// State is the whole persisted snapshot.
type State struct {
	Tasks               []Task                 `json:"tasks"`
	Loops               map[LoopID]*Loop       `json:"loops"`
	Mode                Mode                   `json:"mode"`
	DayOverride         DayOverride            `json:"dayOverride"`
	Timers              map[LoopID]*TimerState `json:"timers"`
	LastCompletionToken string                 `json:"lastCompletionToken,omitempty"`
	UpdatedAt           time.Time              `json:"updatedAt"`
}

func NewID() string {
	return uuid.NewString()
}

// NewState returns an empty state with every loop and timer present.
func NewState() *State {
	st := &State{
		Loops:       make(map[LoopID]*Loop, len(LoopIDs)),
		Timers:      make(map[LoopID]*TimerState, len(LoopIDs)),
		Mode:        ModeIn,
		DayOverride: DayAuto,
	}
	for _, id := range LoopIDs {
		st.Loops[id] = &Loop{}
		st.Timers[id] = &TimerState{}
	}
	return st
}

type seedTask struct {
	name    string
	note    string
	minutes float64
}

var seedLibrary = []seedTask{
	{name: "Coding", note: "Deep work block", minutes: 90},
	{name: "Exercise", note: "Quick workout / stretch", minutes: 30},
	{name: "Reading", note: "Reading / learning", minutes: 45},
}

// DefaultState seeds a first-run library: the out loop holds a short workout,
// weekdays hold every task at its default and weekends run at two thirds.
func DefaultState() *State {
	st := NewState()
	for i, s := range seedLibrary {
		task := Task{ID: NewID(), Name: s.name, Note: s.note, DefaultDuration: s.minutes}
		st.Tasks = append(st.Tasks, task)
		st.Loops[LoopInWeekday].Assignments = append(st.Loops[LoopInWeekday].Assignments, Assignment{
			ID: NewID(), TaskID: task.ID, Allocated: s.minutes, Order: i,
		})
		st.Loops[LoopInWeekend].Assignments = append(st.Loops[LoopInWeekend].Assignments, Assignment{
			ID: NewID(), TaskID: task.ID, Allocated: math.Max(0.5, math.Round(s.minutes*0.66)), Order: i,
		})
		if s.name == "Exercise" {
			st.Loops[LoopOut].Assignments = append(st.Loops[LoopOut].Assignments, Assignment{
				ID: NewID(), TaskID: task.ID, Allocated: s.minutes, Order: 0,
			})
		}
	}
	return st
}

func (s *State) Loop(id LoopID) *Loop {
	if s.Loops == nil {
		s.Loops = make(map[LoopID]*Loop, len(LoopIDs))
	}
	l, ok := s.Loops[id]
	if !ok || l == nil {
		l = &Loop{}
		s.Loops[id] = l
	}
	return l
}

func (s *State) Timer(id LoopID) *TimerState {
	if s.Timers == nil {
		s.Timers = make(map[LoopID]*TimerState, len(LoopIDs))
	}
	t, ok := s.Timers[id]
	if !ok || t == nil {
		t = &TimerState{}
		s.Timers[id] = t
	}
	return t
}

func (s *State) FindTask(id string) (*Task, bool) {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return &s.Tasks[i], true
		}
	}
	return nil, false
}

// TaskName resolves an assignment's weak task reference.
func (s *State) TaskName(taskID string) string {
	if t, ok := s.FindTask(taskID); ok {
		return t.Name
	}
	return UnknownTask
}

func (l *Loop) Find(assignmentID string) (*Assignment, bool) {
	if assignmentID == "" {
		return nil, false
	}
	for i := range l.Assignments {
		if l.Assignments[i].ID == assignmentID {
			return &l.Assignments[i], true
		}
	}
	return nil, false
}

// SortByOrder sorts assignments in place by Order and renumbers them densely.
func (l *Loop) SortByOrder() {
	slices.SortStableFunc(l.Assignments, func(a, b Assignment) int {
		return a.Order - b.Order
	})
	for i := range l.Assignments {
		l.Assignments[i].Order = i
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	out := &State{
		Tasks:               slices.Clone(s.Tasks),
		Loops:               make(map[LoopID]*Loop, len(s.Loops)),
		Mode:                s.Mode,
		DayOverride:         s.DayOverride,
		Timers:              make(map[LoopID]*TimerState, len(s.Timers)),
		LastCompletionToken: s.LastCompletionToken,
		UpdatedAt:           s.UpdatedAt,
	}
	for id, l := range s.Loops {
		if l == nil {
			continue
		}
		cp := *l
		cp.Assignments = slices.Clone(l.Assignments)
		out.Loops[id] = &cp
	}
	for id, t := range s.Timers {
		if t == nil {
			continue
		}
		cp := *t
		out.Timers[id] = &cp
	}
	return out
}

// Normalize repairs a snapshot read from storage or an import so that every
// structural invariant holds. Timer progress is left to reconciliation.
func (s *State) Normalize() {
	if !s.Mode.IsValid() {
		s.Mode = ModeIn
	}
	if !s.DayOverride.IsValid() {
		s.DayOverride = DayAuto
	}

	tasks := s.Tasks[:0]
	seen := make(map[string]bool, len(s.Tasks))
	for _, t := range s.Tasks {
		t.Name = strings.TrimSpace(t.Name)
		if t.ID == "" || t.Name == "" || seen[t.ID] {
			continue
		}
		if !(t.DefaultDuration > 0) {
			t.DefaultDuration = 0.5
		}
		t.Note = TrimNote(t.Note)
		seen[t.ID] = true
		tasks = append(tasks, t)
	}
	s.Tasks = tasks

	for id := range s.Loops {
		if !id.IsValid() {
			delete(s.Loops, id)
		}
	}
	for id := range s.Timers {
		if !id.IsValid() {
			delete(s.Timers, id)
		}
	}

	running := false
	for _, id := range LoopIDs {
		l := s.Loop(id)
		kept := l.Assignments[:0]
		for _, a := range l.Assignments {
			if a.ID == "" || !(a.Allocated > 0) {
				continue
			}
			a.Completed = math.Min(math.Max(a.Completed, 0), a.Allocated)
			kept = append(kept, a)
		}
		l.Assignments = kept
		l.SortByOrder()
		if _, ok := l.Find(l.Cursor); !ok {
			l.Cursor = ""
		}

		t := s.Timer(id)
		if t.ActiveAssignmentID == "" || t.SegmentStart <= 0 {
			t.Clear()
			continue
		}
		if t.IsRunning {
			if running {
				t.IsRunning = false
			}
			running = true
		}
	}
}

// RunningLoop reports the loop whose timer is running, if any.
func (s *State) RunningLoop() (LoopID, bool) {
	for _, id := range LoopIDs {
		if t := s.Timers[id]; t != nil && t.IsRunning {
			return id, true
		}
	}
	return "", false
}

func (s *State) AllComplete(id LoopID) bool {
	l := s.Loop(id)
	for _, a := range l.Assignments {
		if !a.IsComplete() {
			return false
		}
	}
	return true
}
