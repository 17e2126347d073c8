package loops

import (
	"fmt"
	"math"

	"github.com/sandeepkv93/focusloop/internal/model"
)

func loopFor(st *model.State, id model.LoopID) (*model.Loop, error) {
	if !id.IsValid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidLoop, id)
	}
	return st.Loop(id), nil
}

// AddAssignment appends taskID to the end of loop. Zero minutes takes the
// task's default duration.
func AddAssignment(st *model.State, loop model.LoopID, taskID string, minutes float64) (model.Assignment, error) {
	l, err := loopFor(st, loop)
	if err != nil {
		return model.Assignment{}, err
	}
	task, ok := st.FindTask(taskID)
	if !ok {
		return model.Assignment{}, ErrTaskNotFound
	}
	allocated := task.DefaultDuration
	if minutes != 0 {
		if allocated, err = model.RoundMinutes(minutes); err != nil {
			return model.Assignment{}, err
		}
	}
	a := model.Assignment{
		ID:        model.NewID(),
		TaskID:    task.ID,
		Allocated: allocated,
		Order:     len(l.Assignments),
	}
	l.Assignments = append(l.Assignments, a)
	return a, nil
}

func RemoveAssignment(st *model.State, loop model.LoopID, assignmentID string) error {
	l, err := loopFor(st, loop)
	if err != nil {
		return err
	}
	for i := range l.Assignments {
		if l.Assignments[i].ID != assignmentID {
			continue
		}
		l.Assignments = append(l.Assignments[:i], l.Assignments[i+1:]...)
		if l.Cursor == assignmentID {
			l.Cursor = ""
		}
		renumber(l)
		return nil
	}
	return ErrAssignmentNotFound
}

// UpdateAllocated changes an assignment's allocation, clamping progress.
func UpdateAllocated(st *model.State, loop model.LoopID, assignmentID string, minutes float64) (*model.Assignment, error) {
	l, err := loopFor(st, loop)
	if err != nil {
		return nil, err
	}
	a, ok := l.Find(assignmentID)
	if !ok {
		return nil, ErrAssignmentNotFound
	}
	allocated, err := model.RoundMinutes(minutes)
	if err != nil {
		return nil, err
	}
	a.Allocated = allocated
	a.Completed = math.Min(a.Completed, a.Allocated)
	return a, nil
}

func ResetAssignment(st *model.State, loop model.LoopID, assignmentID string) error {
	l, err := loopFor(st, loop)
	if err != nil {
		return err
	}
	a, ok := l.Find(assignmentID)
	if !ok {
		return ErrAssignmentNotFound
	}
	a.Completed = 0
	return nil
}

// ResetAll zeroes progress in every loop.
func ResetAll(st *model.State) {
	for _, loopID := range model.LoopIDs {
		l := st.Loop(loopID)
		for i := range l.Assignments {
			l.Assignments[i].Completed = 0
		}
	}
}

// MoveAssignment moves the entry at position from to position to, both
// zero-based, and renumbers the loop.
func MoveAssignment(st *model.State, loop model.LoopID, from, to int) error {
	l, err := loopFor(st, loop)
	if err != nil {
		return err
	}
	n := len(l.Assignments)
	if from < 0 || to < 0 || from >= n || to >= n {
		return ErrInvalidPosition
	}
	if from == to {
		return nil
	}
	item := l.Assignments[from]
	l.Assignments = append(l.Assignments[:from], l.Assignments[from+1:]...)
	l.Assignments = append(l.Assignments[:to], append([]model.Assignment{item}, l.Assignments[to:]...)...)
	renumber(l)
	return nil
}

func SetLoopNote(st *model.State, loop model.LoopID, note string) error {
	l, err := loopFor(st, loop)
	if err != nil {
		return err
	}
	l.Note = model.TrimNote(note)
	return nil
}

// At returns the assignment at zero-based position pos.
func At(st *model.State, loop model.LoopID, pos int) (*model.Assignment, error) {
	l, err := loopFor(st, loop)
	if err != nil {
		return nil, err
	}
	if pos < 0 || pos >= len(l.Assignments) {
		return nil, ErrInvalidPosition
	}
	return &l.Assignments[pos], nil
}

// FirstIncomplete returns the lowest-ordered assignment with time left.
func FirstIncomplete(l *model.Loop) (*model.Assignment, bool) {
	for i := range l.Assignments {
		if !l.Assignments[i].IsComplete() {
			return &l.Assignments[i], true
		}
	}
	return nil, false
}

// NextIncomplete returns the first incomplete assignment after afterID,
// wrapping to the start. An unknown afterID scans from the beginning.
func NextIncomplete(l *model.Loop, afterID string) (*model.Assignment, bool) {
	start := 0
	for i := range l.Assignments {
		if l.Assignments[i].ID == afterID {
			start = i + 1
			break
		}
	}
	n := len(l.Assignments)
	for k := 0; k < n; k++ {
		i := (start + k) % n
		if !l.Assignments[i].IsComplete() {
			return &l.Assignments[i], true
		}
	}
	return nil, false
}

// Progress sums allocated and completed minutes for a loop.
func Progress(l *model.Loop) (completed, allocated float64) {
	for _, a := range l.Assignments {
		completed += a.Completed
		allocated += a.Allocated
	}
	return completed, allocated
}

func renumber(l *model.Loop) {
	for i := range l.Assignments {
		l.Assignments[i].Order = i
	}
}
