package timer

import (
	"context"
	"math"

	"github.com/sandeepkv93/focusloop/internal/model"
)

type Outcome string

const (
	OutcomeIdle            Outcome = "idle"
	OutcomeResumed         Outcome = "resumed"
	OutcomeCompleted       Outcome = "completed"
	OutcomeAlreadyComplete Outcome = "already_complete"
	OutcomeDiscarded       Outcome = "discarded"
	OutcomeCleared         Outcome = "cleared"
)

type Report struct {
	Outcomes map[model.LoopID]Outcome
}

func (r Report) Completed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o == OutcomeCompleted {
			n++
		}
	}
	return n
}

// Reconcile brings persisted timers up to date with the wall clock. It runs
// before the first render and whenever the app regains focus, and folds in
// any time that passed while ticks were not being delivered. Every active
// loop is credited first; if more than one is still running afterwards, the
// last in LoopIDs order resumes and the rest are stopped.
func (e *Engine) Reconcile(ctx context.Context) Report {
	report := Report{Outcomes: make(map[model.LoopID]Outcome, len(model.LoopIDs))}
	now := e.now()
	var runners []model.LoopID
	for _, loop := range model.LoopIDs {
		t := e.st.Timer(loop)
		if !t.IsActive() {
			report.Outcomes[loop] = OutcomeIdle
			continue
		}
		a, ok := e.st.Loop(loop).Find(t.ActiveAssignmentID)
		if !ok {
			e.stopLoop(ctx, loop)
			report.Outcomes[loop] = OutcomeDiscarded
			e.persist(ctx)
			continue
		}

		wasComplete := a.IsComplete()
		a.Completed = math.Min(a.Completed+minutesSince(t.SegmentStart, now), a.Allocated)

		switch {
		case a.IsComplete() && !wasComplete:
			e.accept(ctx, loop, SourceReconcile)
			report.Outcomes[loop] = OutcomeCompleted
		case a.IsComplete():
			e.stopLoop(ctx, loop)
			report.Outcomes[loop] = OutcomeAlreadyComplete
		case t.IsRunning:
			t.SegmentStart = now.UnixMilli()
			runners = append(runners, loop)
		default:
			t.Clear()
			report.Outcomes[loop] = OutcomeCleared
		}
		e.persist(ctx)
	}

	if len(runners) > 0 {
		winner := runners[len(runners)-1]
		for _, loop := range runners[:len(runners)-1] {
			e.stopLoop(ctx, loop)
			report.Outcomes[loop] = OutcomeCleared
		}
		if a, ok := e.resolve(winner); ok {
			e.reschedule(ctx, a)
		}
		report.Outcomes[winner] = OutcomeResumed
		e.persist(ctx)
	}

	if n := report.Completed(); n > 0 {
		e.logger.InfoContext(ctx, "reconcile completed assignments", "count", n)
	}
	return report
}
