package timer

import (
	"context"
	"time"

	"github.com/sandeepkv93/focusloop/internal/alarm"
	"github.com/sandeepkv93/focusloop/internal/loops"
	"github.com/sandeepkv93/focusloop/internal/model"
)

type Source string

const (
	SourceTick      Source = "tick"
	SourceReconcile Source = "reconcile"
	SourceAlarm     Source = "alarm"
)

// Completion describes one accepted completion.
type Completion struct {
	Loop         model.LoopID
	AssignmentID string
	TaskName     string
	Source       Source
	At           time.Time
}

type Announcer interface {
	Announce(ctx context.Context, c Completion)
}

type AnnouncerFunc func(ctx context.Context, c Completion)

func (f AnnouncerFunc) Announce(ctx context.Context, c Completion) { f(ctx, c) }

// HandleAlarmEvent applies a TASK_COMPLETE from the alarm worker. It is
// accepted only when its token matches the stored one; anything else is a
// stale or already-consumed alarm and is ignored.
func (e *Engine) HandleAlarmEvent(ctx context.Context, ev alarm.Event) bool {
	if ev.Type != alarm.EventTaskComplete || ev.Token == "" || ev.Token != e.st.LastCompletionToken {
		e.logger.DebugContext(ctx, "ignoring stale alarm", "token", ev.Token)
		return false
	}
	loop, ok := e.st.RunningLoop()
	if !ok {
		e.st.LastCompletionToken = ""
		e.persist(ctx)
		return false
	}
	return e.accept(ctx, loop, SourceAlarm)
}

// completeLocal handles completion detected in-process by a tick, an
// allocation change or reconciliation.
func (e *Engine) completeLocal(ctx context.Context, loop model.LoopID, source Source) bool {
	return e.accept(ctx, loop, source)
}

// accept consumes the token, pins progress to the allocation, stops the loop
// and announces exactly once. The cursor moves to the next incomplete entry.
func (e *Engine) accept(ctx context.Context, loop model.LoopID, source Source) bool {
	t := e.st.Timer(loop)
	if !t.IsActive() {
		return false
	}
	l := e.st.Loop(loop)
	a, ok := l.Find(t.ActiveAssignmentID)
	if !ok {
		e.stopLoop(ctx, loop)
		e.persist(ctx)
		return false
	}

	a.Completed = a.Allocated
	wasRunning := t.IsRunning
	t.Clear()
	e.st.LastCompletionToken = ""
	if wasRunning && source != SourceAlarm {
		e.alarm.Cancel(ctx)
	}
	if next, ok := loops.NextIncomplete(l, a.ID); ok {
		l.Cursor = next.ID
	} else {
		l.Cursor = ""
	}
	e.persist(ctx)

	c := Completion{
		Loop:         loop,
		AssignmentID: a.ID,
		TaskName:     e.st.TaskName(a.TaskID),
		Source:       source,
		At:           e.now(),
	}
	e.logger.InfoContext(ctx, "assignment complete", "loop", loop, "task", c.TaskName, "source", source)
	e.announcer.Announce(ctx, c)
	return true
}
