package loops

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/focusloop/internal/model"
)

const DefaultTaskMinutes = 30

var (
	ErrTaskNotFound       = errors.New("loops: task not found")
	ErrAmbiguousTask      = errors.New("loops: task reference is ambiguous")
	ErrAssignmentNotFound = errors.New("loops: assignment not found")
	ErrInvalidPosition    = errors.New("loops: position out of range")
)

// Removed identifies an assignment that a cascade dropped.
type Removed struct {
	Loop         model.LoopID
	AssignmentID string
}

// AddTask appends a library task. Zero minutes selects the default duration.
func AddTask(st *model.State, name, note string, minutes float64) (model.Task, error) {
	if minutes == 0 {
		minutes = DefaultTaskMinutes
	}
	rounded, err := model.RoundMinutes(minutes)
	if err != nil {
		return model.Task{}, err
	}
	task := model.Task{
		ID:              model.NewID(),
		Name:            strings.TrimSpace(name),
		Note:            model.TrimNote(note),
		DefaultDuration: rounded,
	}
	if err := task.Validate(); err != nil {
		return model.Task{}, err
	}
	st.Tasks = append(st.Tasks, task)
	return task, nil
}

// UpdateTask edits name and note. Zero minutes keeps the current default.
func UpdateTask(st *model.State, id, name, note string, minutes float64) error {
	task, ok := st.FindTask(id)
	if !ok {
		return ErrTaskNotFound
	}
	next := *task
	next.Name = strings.TrimSpace(name)
	next.Note = model.TrimNote(note)
	if minutes != 0 {
		rounded, err := model.RoundMinutes(minutes)
		if err != nil {
			return err
		}
		next.DefaultDuration = rounded
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*task = next
	return nil
}

// DeleteTask removes the task and cascades to every assignment that
// references it. Timers are not touched here.
func DeleteTask(st *model.State, id string) ([]Removed, error) {
	idx := -1
	for i := range st.Tasks {
		if st.Tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrTaskNotFound
	}
	st.Tasks = append(st.Tasks[:idx], st.Tasks[idx+1:]...)

	var removed []Removed
	for _, loopID := range model.LoopIDs {
		l := st.Loop(loopID)
		kept := l.Assignments[:0]
		for _, a := range l.Assignments {
			if a.TaskID == id {
				removed = append(removed, Removed{Loop: loopID, AssignmentID: a.ID})
				if l.Cursor == a.ID {
					l.Cursor = ""
				}
				continue
			}
			kept = append(kept, a)
		}
		l.Assignments = kept
		renumber(l)
	}
	return removed, nil
}

// ResolveTask finds a task by ID, then by case-insensitive name, then by
// unique name prefix.
func ResolveTask(st *model.State, ref string) (*model.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrTaskNotFound
	}
	if t, ok := st.FindTask(ref); ok {
		return t, nil
	}
	for i := range st.Tasks {
		if strings.EqualFold(st.Tasks[i].Name, ref) {
			return &st.Tasks[i], nil
		}
	}
	var match *model.Task
	lower := strings.ToLower(ref)
	for i := range st.Tasks {
		if strings.HasPrefix(strings.ToLower(st.Tasks[i].Name), lower) {
			if match != nil {
				return nil, fmt.Errorf("%w: %q", ErrAmbiguousTask, ref)
			}
			match = &st.Tasks[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, ref)
	}
	return match, nil
}

// InUse reports how many assignments reference the task.
func InUse(st *model.State, taskID string) int {
	n := 0
	for _, loopID := range model.LoopIDs {
		for _, a := range st.Loop(loopID).Assignments {
			if a.TaskID == taskID {
				n++
			}
		}
	}
	return n
}
