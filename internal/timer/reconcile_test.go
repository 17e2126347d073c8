package timer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/focusloop/internal/alarm"
	"github.com/sandeepkv93/focusloop/internal/model"
)

func TestReconcileAfterRestartCompletesOnce(t *testing.T) {
	h := newHarness(t, map[model.LoopID][]float64{model.LoopOut: {30}})
	ctx := t.Context()
	h.state.Loop(model.LoopOut).Assignments[0].Completed = 5
	require.NoError(t, h.engine.Start(ctx, model.LoopOut))

	// Process dies; 45 minutes pass; a new engine loads the same snapshot.
	persisted := h.state.Clone()
	h.clock.Advance(45 * time.Minute)
	var announced []Completion
	restarted := NewEngine(persisted,
		WithClock(h.clock.Now),
		WithAlarm(h.alarm),
		WithAnnouncer(AnnouncerFunc(func(_ context.Context, c Completion) {
			announced = append(announced, c)
		})),
	)

	report := restarted.Reconcile(ctx)
	assert.Equal(t, OutcomeCompleted, report.Outcomes[model.LoopOut])
	assert.Equal(t, 1, report.Completed())
	assert.Equal(t, 30.0, persisted.Loop(model.LoopOut).Assignments[0].Completed)
	assert.False(t, persisted.Timer(model.LoopOut).IsActive())
	require.Len(t, announced, 1)
	assert.Equal(t, SourceReconcile, announced[0].Source)

	late := alarm.Event{Type: alarm.EventTaskComplete, Token: "tok-1"}
	assert.False(t, restarted.HandleAlarmEvent(ctx, late))
	restarted.Reconcile(ctx)
	assert.Len(t, announced, 1)
}

func TestReconcileResumesRunningTimer(t *testing.T) {
	h := newHarness(t, map[model.LoopID][]float64{model.LoopInWeekday: {60}})
	ctx := t.Context()
	require.NoError(t, h.engine.Start(ctx, model.LoopInWeekday))

	h.clock.Advance(20 * time.Minute)
	report := h.engine.Reconcile(ctx)

	assert.Equal(t, OutcomeResumed, report.Outcomes[model.LoopInWeekday])
	assert.Equal(t, OutcomeIdle, report.Outcomes[model.LoopOut])
	timer := h.state.Timer(model.LoopInWeekday)
	assert.True(t, timer.IsRunning)
	assert.Equal(t, h.clock.Now().UnixMilli(), timer.SegmentStart)
	assert.InDelta(t, 20.0, h.assignment(model.LoopInWeekday, 0).Completed, 1e-9)
	assert.Equal(t, alarmCall{Label: "T0", Remaining: 40 * time.Minute, Token: "tok-1"}, h.alarm.last())
	assert.Empty(t, h.announced)
}

func TestReconcileThenTickMatchesContinuousTicking(t *testing.T) {
	continuous := newHarness(t, map[model.LoopID][]float64{model.LoopOut: {50}})
	interrupted := newHarness(t, map[model.LoopID][]float64{model.LoopOut: {50}})
	ctx := t.Context()
	require.NoError(t, continuous.engine.Start(ctx, model.LoopOut))
	require.NoError(t, interrupted.engine.Start(ctx, model.LoopOut))

	for i := 0; i < 17; i++ {
		continuous.clock.Advance(time.Minute)
		continuous.engine.Tick(ctx, model.LoopOut)
	}
	interrupted.clock.Advance(12 * time.Minute)
	interrupted.engine.Reconcile(ctx)
	for i := 0; i < 5; i++ {
		interrupted.clock.Advance(time.Minute)
		interrupted.engine.Tick(ctx, model.LoopOut)
	}

	assert.InDelta(t,
		continuous.assignment(model.LoopOut, 0).Completed,
		interrupted.assignment(model.LoopOut, 0).Completed,
		1e-9)
}

func TestReconcileDiscardsDanglingTimer(t *testing.T) {
	h := newHarness(t, map[model.LoopID][]float64{model.LoopOut: {30}})
	ctx := t.Context()
	require.NoError(t, h.engine.Start(ctx, model.LoopOut))
	h.state.Loop(model.LoopOut).Assignments = nil

	report := h.engine.Reconcile(ctx)
	assert.Equal(t, OutcomeDiscarded, report.Outcomes[model.LoopOut])
	assert.False(t, h.state.Timer(model.LoopOut).IsActive())
	assert.Empty(t, h.state.LastCompletionToken)
	assert.Empty(t, h.announced)
}

func TestReconcileAlreadyCompleteClearsSilently(t *testing.T) {
	h := newHarness(t, map[model.LoopID][]float64{model.LoopOut: {30}})
	a := h.assignment(model.LoopOut, 0)
	h.state.Loop(model.LoopOut).Assignments[0].Completed = 30
	*h.state.Timer(model.LoopOut) = model.TimerState{
		ActiveAssignmentID: a.ID,
		SegmentStart:       h.clock.Now().Add(-time.Minute).UnixMilli(),
		IsRunning:          true,
	}

	report := h.engine.Reconcile(t.Context())
	assert.Equal(t, OutcomeAlreadyComplete, report.Outcomes[model.LoopOut])
	assert.False(t, h.state.Timer(model.LoopOut).IsActive())
	assert.Empty(t, h.announced)
}

func TestReconcileClearsPausedTimer(t *testing.T) {
	h := newHarness(t, map[model.LoopID][]float64{model.LoopOut: {30}})
	a := h.assignment(model.LoopOut, 0)
	*h.state.Timer(model.LoopOut) = model.TimerState{
		ActiveAssignmentID: a.ID,
		SegmentStart:       h.clock.Now().Add(-5 * time.Minute).UnixMilli(),
	}

	report := h.engine.Reconcile(t.Context())
	assert.Equal(t, OutcomeCleared, report.Outcomes[model.LoopOut])
	assert.InDelta(t, 5.0, h.assignment(model.LoopOut, 0).Completed, 1e-9)
	assert.False(t, h.state.Timer(model.LoopOut).IsActive())
}

func TestReconcileLaterLoopWinsSingleRunner(t *testing.T) {
	h := newHarness(t, map[model.LoopID][]float64{
		model.LoopOut:       {30},
		model.LoopInWeekend: {30},
	})
	start := h.clock.Now().Add(-time.Minute).UnixMilli()
	for _, loop := range []model.LoopID{model.LoopOut, model.LoopInWeekend} {
		*h.state.Timer(loop) = model.TimerState{
			ActiveAssignmentID: h.assignment(loop, 0).ID,
			SegmentStart:       start,
			IsRunning:          true,
		}
	}
	h.state.LastCompletionToken = "tok-persisted"

	report := h.engine.Reconcile(t.Context())
	assert.Equal(t, OutcomeCleared, report.Outcomes[model.LoopOut])
	assert.Equal(t, OutcomeResumed, report.Outcomes[model.LoopInWeekend])
	assert.Equal(t, 1, h.runningCount())
	assert.NotEmpty(t, h.state.LastCompletionToken)
	assert.Equal(t, h.state.LastCompletionToken, h.alarm.last().Token)
}

func TestReconcileCreditsEveryRunningLoopBeforeStopping(t *testing.T) {
	h := newHarness(t, map[model.LoopID][]float64{
		model.LoopOut:       {30},
		model.LoopInWeekend: {30},
	})
	start := h.clock.Now().Add(-10 * time.Minute).UnixMilli()
	for _, loop := range []model.LoopID{model.LoopOut, model.LoopInWeekend} {
		*h.state.Timer(loop) = model.TimerState{
			ActiveAssignmentID: h.assignment(loop, 0).ID,
			SegmentStart:       start,
			IsRunning:          true,
		}
	}

	report := h.engine.Reconcile(t.Context())
	assert.Equal(t, OutcomeCleared, report.Outcomes[model.LoopOut])
	assert.Equal(t, OutcomeResumed, report.Outcomes[model.LoopInWeekend])
	assert.Equal(t, OutcomeIdle, report.Outcomes[model.LoopInWeekday])
	assert.InDelta(t, 10.0, h.assignment(model.LoopOut, 0).Completed, 1e-9)
	assert.InDelta(t, 10.0, h.assignment(model.LoopInWeekend, 0).Completed, 1e-9)
	assert.False(t, h.state.Timer(model.LoopOut).IsActive())
	assert.True(t, h.state.Timer(model.LoopInWeekend).IsRunning)
	assert.Equal(t, h.clock.Now().UnixMilli(), h.state.Timer(model.LoopInWeekend).SegmentStart)
	assert.Equal(t, 20*time.Minute, h.alarm.last().Remaining)
}
