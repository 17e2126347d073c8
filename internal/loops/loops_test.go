package loops

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/focusloop/internal/model"
)

func newState(t *testing.T) (*model.State, model.Task, model.Task) {
	t.Helper()
	st := model.NewState()
	coding, err := AddTask(st, "  Coding ", "Deep work", 90)
	require.NoError(t, err)
	reading, err := AddTask(st, "Reading", "", 0)
	require.NoError(t, err)
	return st, coding, reading
}

func orders(l *model.Loop) []int {
	out := make([]int, 0, len(l.Assignments))
	for _, a := range l.Assignments {
		out = append(out, a.Order)
	}
	return out
}

func TestAddTask(t *testing.T) {
	st, coding, reading := newState(t)
	assert.Equal(t, "Coding", coding.Name)
	assert.Equal(t, 90.0, coding.DefaultDuration)
	assert.Equal(t, float64(DefaultTaskMinutes), reading.DefaultDuration)
	assert.Len(t, st.Tasks, 2)

	_, err := AddTask(st, "   ", "", 10)
	assert.ErrorIs(t, err, model.ErrInvalidTask)
	_, err = AddTask(st, "Bad", "", -3)
	assert.ErrorIs(t, err, model.ErrInvalidDuration)
	assert.Len(t, st.Tasks, 2, "rejected input leaves state unchanged")

	long, err := AddTask(st, "Notes", strings.Repeat("x", 900), 10)
	require.NoError(t, err)
	assert.Len(t, long.Note, model.MaxNoteLength)
}

func TestUpdateTask(t *testing.T) {
	st, coding, _ := newState(t)
	require.NoError(t, UpdateTask(st, coding.ID, " Hacking ", "new note", 0))
	got, _ := st.FindTask(coding.ID)
	assert.Equal(t, "Hacking", got.Name)
	assert.Equal(t, 90.0, got.DefaultDuration)

	assert.ErrorIs(t, UpdateTask(st, coding.ID, "", "", 0), model.ErrInvalidTask)
	got, _ = st.FindTask(coding.ID)
	assert.Equal(t, "Hacking", got.Name, "failed update must not partially apply")

	assert.ErrorIs(t, UpdateTask(st, "missing", "x", "", 0), ErrTaskNotFound)
}

func TestAddAssignmentDefaultsAndValidation(t *testing.T) {
	st, coding, _ := newState(t)

	a, err := AddAssignment(st, model.LoopInWeekday, coding.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 90.0, a.Allocated)

	b, err := AddAssignment(st, model.LoopInWeekday, coding.ID, 12.3)
	require.NoError(t, err)
	assert.Equal(t, 12.5, b.Allocated)
	assert.Equal(t, 1, b.Order)

	_, err = AddAssignment(st, model.LoopID("nope"), coding.ID, 10)
	assert.ErrorIs(t, err, model.ErrInvalidLoop)
	_, err = AddAssignment(st, model.LoopOut, "missing", 10)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDeleteTaskCascades(t *testing.T) {
	st, coding, reading := newState(t)
	for _, loop := range model.LoopIDs {
		_, err := AddAssignment(st, loop, coding.ID, 10)
		require.NoError(t, err)
		_, err = AddAssignment(st, loop, reading.ID, 10)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, InUse(st, coding.ID))
	cursor := st.Loop(model.LoopOut).Assignments[0].ID
	st.Loop(model.LoopOut).Cursor = cursor

	removed, err := DeleteTask(st, coding.ID)
	require.NoError(t, err)
	assert.Len(t, removed, 3)
	assert.Contains(t, removed, Removed{Loop: model.LoopOut, AssignmentID: cursor})

	for _, loop := range model.LoopIDs {
		l := st.Loop(loop)
		require.Len(t, l.Assignments, 1, "loop %s", loop)
		assert.Equal(t, reading.ID, l.Assignments[0].TaskID)
		assert.Equal(t, []int{0}, orders(l))
	}
	assert.Empty(t, st.Loop(model.LoopOut).Cursor)

	_, err = DeleteTask(st, coding.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestUpdateAllocatedClampsProgress(t *testing.T) {
	st, coding, _ := newState(t)
	a, err := AddAssignment(st, model.LoopOut, coding.ID, 30)
	require.NoError(t, err)
	st.Loop(model.LoopOut).Assignments[0].Completed = 20

	got, err := UpdateAllocated(st, model.LoopOut, a.ID, 15)
	require.NoError(t, err)
	assert.Equal(t, 15.0, got.Allocated)
	assert.Equal(t, 15.0, got.Completed)

	_, err = UpdateAllocated(st, model.LoopOut, a.ID, 0)
	assert.ErrorIs(t, err, model.ErrInvalidDuration)
	_, err = UpdateAllocated(st, model.LoopOut, "missing", 10)
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestMoveAndRemoveKeepOrderDense(t *testing.T) {
	st, coding, reading := newState(t)
	var ids []string
	for i := 0; i < 4; i++ {
		task := coding
		if i%2 == 1 {
			task = reading
		}
		a, err := AddAssignment(st, model.LoopInWeekend, task.ID, 10)
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}
	l := st.Loop(model.LoopInWeekend)

	require.NoError(t, MoveAssignment(st, model.LoopInWeekend, 0, 3))
	assert.Equal(t, []string{ids[1], ids[2], ids[3], ids[0]}, assignmentIDs(l))
	assert.Equal(t, []int{0, 1, 2, 3}, orders(l))

	require.NoError(t, MoveAssignment(st, model.LoopInWeekend, 2, 0))
	assert.Equal(t, []string{ids[3], ids[1], ids[2], ids[0]}, assignmentIDs(l))

	assert.ErrorIs(t, MoveAssignment(st, model.LoopInWeekend, 0, 4), ErrInvalidPosition)
	assert.ErrorIs(t, MoveAssignment(st, model.LoopInWeekend, -1, 0), ErrInvalidPosition)

	require.NoError(t, RemoveAssignment(st, model.LoopInWeekend, ids[1]))
	assert.Equal(t, []string{ids[3], ids[2], ids[0]}, assignmentIDs(l))
	assert.Equal(t, []int{0, 1, 2}, orders(l))
	assert.ErrorIs(t, RemoveAssignment(st, model.LoopInWeekend, ids[1]), ErrAssignmentNotFound)
}

func assignmentIDs(l *model.Loop) []string {
	out := make([]string, 0, len(l.Assignments))
	for _, a := range l.Assignments {
		out = append(out, a.ID)
	}
	return out
}

func TestIncompleteSelection(t *testing.T) {
	st, coding, _ := newState(t)
	var ids []string
	for i := 0; i < 3; i++ {
		a, err := AddAssignment(st, model.LoopOut, coding.ID, 10)
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}
	l := st.Loop(model.LoopOut)
	l.Assignments[0].Completed = 10

	first, ok := FirstIncomplete(l)
	require.True(t, ok)
	assert.Equal(t, ids[1], first.ID)

	next, ok := NextIncomplete(l, ids[2])
	require.True(t, ok)
	assert.Equal(t, ids[1], next.ID, "wraps past the end")

	next, ok = NextIncomplete(l, ids[1])
	require.True(t, ok)
	assert.Equal(t, ids[2], next.ID)

	ResetAll(st)
	assert.Equal(t, 0.0, l.Assignments[0].Completed)

	for i := range l.Assignments {
		l.Assignments[i].Completed = l.Assignments[i].Allocated
	}
	_, ok = NextIncomplete(l, ids[0])
	assert.False(t, ok)
	assert.True(t, st.AllComplete(model.LoopOut))

	done, total := Progress(l)
	assert.Equal(t, 30.0, done)
	assert.Equal(t, 30.0, total)
}

func TestResolveTask(t *testing.T) {
	st, coding, reading := newState(t)
	_, err := AddTask(st, "Reading list", "", 10)
	require.NoError(t, err)

	got, err := ResolveTask(st, coding.ID)
	require.NoError(t, err)
	assert.Equal(t, coding.ID, got.ID)

	got, err = ResolveTask(st, "reading")
	require.NoError(t, err)
	assert.Equal(t, reading.ID, got.ID, "exact name beats prefix")

	got, err = ResolveTask(st, "cod")
	require.NoError(t, err)
	assert.Equal(t, coding.ID, got.ID)

	_, err = ResolveTask(st, "read")
	assert.ErrorIs(t, err, ErrAmbiguousTask)
	_, err = ResolveTask(st, "swim")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSetLoopNoteAndReset(t *testing.T) {
	st, coding, _ := newState(t)
	require.NoError(t, SetLoopNote(st, model.LoopOut, "stretch first"))
	assert.Equal(t, "stretch first", st.Loop(model.LoopOut).Note)

	a, err := AddAssignment(st, model.LoopOut, coding.ID, 10)
	require.NoError(t, err)
	st.Loop(model.LoopOut).Assignments[0].Completed = 4
	require.NoError(t, ResetAssignment(st, model.LoopOut, a.ID))
	assert.Equal(t, 0.0, st.Loop(model.LoopOut).Assignments[0].Completed)

	p, err := At(st, model.LoopOut, 0)
	require.NoError(t, err)
	assert.Equal(t, a.ID, p.ID)
	_, err = At(st, model.LoopOut, 1)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}
