package timer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sandeepkv93/focusloop/internal/loops"
	"github.com/sandeepkv93/focusloop/internal/model"
)

// ErrNothingToRun is returned by Start when every assignment in the loop is
// complete.
var ErrNothingToRun = errors.New("timer: no incomplete assignment")

// minRemaining keeps a just-finishing alarm from being scheduled at zero.
const minRemaining = 0.001

type Alarm interface {
	Schedule(ctx context.Context, label string, remaining time.Duration, token string)
	Cancel(ctx context.Context)
}

type Saver interface {
	Save(ctx context.Context, st *model.State) bool
}

// Engine is the single-active-timer state machine. It is not safe for
// concurrent use; drive it from one goroutine.
type Engine struct {
	st        *model.State
	saver     Saver
	alarm     Alarm
	announcer Announcer
	now       func() time.Time
	newToken  func() string
	logger    *slog.Logger
}

type Option func(*Engine)

func WithSaver(s Saver) Option {
	return func(e *Engine) {
		if s != nil {
			e.saver = s
		}
	}
}

func WithAlarm(a Alarm) Option {
	return func(e *Engine) {
		if a != nil {
			e.alarm = a
		}
	}
}

func WithAnnouncer(a Announcer) Option {
	return func(e *Engine) {
		if a != nil {
			e.announcer = a
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithTokenSource(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newToken = fn
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

type nopSaver struct{}

func (nopSaver) Save(context.Context, *model.State) bool { return true }

type nopAlarm struct{}

func (nopAlarm) Schedule(context.Context, string, time.Duration, string) {}
func (nopAlarm) Cancel(context.Context)                                  {}

func NewEngine(st *model.State, opts ...Option) *Engine {
	if st == nil {
		st = model.NewState()
	}
	e := &Engine{
		st:        st,
		saver:     nopSaver{},
		alarm:     nopAlarm{},
		announcer: AnnouncerFunc(func(context.Context, Completion) {}),
		now:       time.Now,
		newToken:  model.NewID,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) State() *model.State {
	return e.st
}

func (e *Engine) Now() time.Time {
	return e.now()
}

// ActiveLoop is the loop the user is currently looking at.
func (e *Engine) ActiveLoop() model.LoopID {
	return model.ActiveLoop(e.st.Mode, e.st.DayOverride, e.now())
}

func (e *Engine) Running() (model.LoopID, bool) {
	return e.st.RunningLoop()
}

// Current is the assignment Start would pick: the active one, then the
// cursor if it still has time left, then the first incomplete.
func (e *Engine) Current(loop model.LoopID) (model.Assignment, bool) {
	a, ok := e.resolve(loop)
	if !ok {
		return model.Assignment{}, false
	}
	return *a, true
}

func (e *Engine) resolve(loop model.LoopID) (*model.Assignment, bool) {
	l := e.st.Loop(loop)
	t := e.st.Timer(loop)
	if a, ok := l.Find(t.ActiveAssignmentID); ok && !a.IsComplete() {
		return a, true
	}
	if a, ok := l.Find(l.Cursor); ok && !a.IsComplete() {
		return a, true
	}
	return loops.FirstIncomplete(l)
}

// Elapsed is the live progress of the active assignment including the open
// segment. It does not mutate state.
func (e *Engine) Elapsed(loop model.LoopID) float64 {
	a, ok := e.Current(loop)
	if !ok {
		return 0
	}
	t := e.st.Timer(loop)
	if !t.IsRunning || t.ActiveAssignmentID != a.ID {
		return a.Completed
	}
	return math.Min(a.Completed+minutesSince(t.SegmentStart, e.now()), a.Allocated)
}

// Start begins or resumes the loop's current assignment. Every other loop
// is stopped first.
func (e *Engine) Start(ctx context.Context, loop model.LoopID) error {
	if !loop.IsValid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidLoop, loop)
	}
	t := e.st.Timer(loop)
	if t.IsRunning {
		return nil
	}
	a, ok := e.resolve(loop)
	if !ok {
		return ErrNothingToRun
	}
	for _, other := range model.LoopIDs {
		if other != loop {
			e.stopLoop(ctx, other)
		}
	}

	now := e.now()
	t.ActiveAssignmentID = a.ID
	t.SegmentStart = now.UnixMilli()
	t.IsRunning = true
	e.st.Loop(loop).Cursor = a.ID
	token := e.newToken()
	e.st.LastCompletionToken = token
	e.persist(ctx)

	name := e.st.TaskName(a.TaskID)
	e.alarm.Schedule(ctx, name, remaining(a), token)
	e.logger.InfoContext(ctx, "timer started", "loop", loop, "assignment", a.ID, "task", name)
	return nil
}

// Stop pauses the loop without crediting the open segment. It is
// idempotent.
func (e *Engine) Stop(ctx context.Context, loop model.LoopID) {
	if e.stopLoop(ctx, loop) {
		e.logger.InfoContext(ctx, "timer stopped", "loop", loop)
	}
	e.persist(ctx)
}

// Toggle starts a stopped loop or stops a running one.
func (e *Engine) Toggle(ctx context.Context, loop model.LoopID) error {
	if e.st.Timer(loop).IsRunning {
		e.Stop(ctx, loop)
		return nil
	}
	return e.Start(ctx, loop)
}

// Tick credits wall-clock time since the last segment start. Reaching the
// allocation completes the assignment.
func (e *Engine) Tick(ctx context.Context, loop model.LoopID) {
	t := e.st.Timer(loop)
	if !t.IsRunning || !t.IsActive() {
		return
	}
	a, ok := e.st.Loop(loop).Find(t.ActiveAssignmentID)
	if !ok {
		e.logger.WarnContext(ctx, "active assignment vanished, stopping", "loop", loop)
		e.stopLoop(ctx, loop)
		e.persist(ctx)
		return
	}
	now := e.now()
	a.Completed = math.Min(a.Completed+minutesSince(t.SegmentStart, now), a.Allocated)
	t.SegmentStart = now.UnixMilli()
	if a.IsComplete() {
		e.completeLocal(ctx, loop, SourceTick)
		return
	}
	e.persist(ctx)
}

// Advance stops the loop and moves its cursor to the next incomplete
// assignment, wrapping around. It never starts the timer.
func (e *Engine) Advance(ctx context.Context, loop model.LoopID) {
	l := e.st.Loop(loop)
	current := e.st.Timer(loop).ActiveAssignmentID
	if current == "" {
		current = l.Cursor
	}
	e.stopLoop(ctx, loop)
	if next, ok := loops.NextIncomplete(l, current); ok {
		l.Cursor = next.ID
	} else {
		l.Cursor = ""
	}
	e.persist(ctx)
}

func (e *Engine) SetMode(ctx context.Context, mode model.Mode) error {
	if !mode.IsValid() {
		return fmt.Errorf("timer: invalid mode %q", mode)
	}
	e.switchView(ctx, func() { e.st.Mode = mode })
	return nil
}

func (e *Engine) SetDayOverride(ctx context.Context, d model.DayOverride) error {
	if !d.IsValid() {
		return fmt.Errorf("timer: invalid day override %q", d)
	}
	e.switchView(ctx, func() { e.st.DayOverride = d })
	return nil
}

func (e *Engine) switchView(ctx context.Context, change func()) {
	prev := e.ActiveLoop()
	change()
	if next := e.ActiveLoop(); next != prev {
		e.stopLoop(ctx, prev)
	}
	e.persist(ctx)
}

// DeleteTask removes a library task and every assignment of it. Timers on
// removed assignments are cleared without a completion.
func (e *Engine) DeleteTask(ctx context.Context, taskID string) error {
	removed, err := loops.DeleteTask(e.st, taskID)
	if err != nil {
		return err
	}
	for _, r := range removed {
		if e.st.Timer(r.Loop).ActiveAssignmentID == r.AssignmentID {
			e.stopLoop(ctx, r.Loop)
		}
	}
	e.persist(ctx)
	return nil
}

func (e *Engine) RemoveAssignment(ctx context.Context, loop model.LoopID, assignmentID string) error {
	if err := loops.RemoveAssignment(e.st, loop, assignmentID); err != nil {
		return err
	}
	if e.st.Timer(loop).ActiveAssignmentID == assignmentID {
		e.stopLoop(ctx, loop)
	}
	e.persist(ctx)
	return nil
}

// UpdateAllocated changes an allocation. A running assignment is credited up
// to now first, then either rescheduled or completed.
func (e *Engine) UpdateAllocated(ctx context.Context, loop model.LoopID, assignmentID string, minutes float64) error {
	if _, err := model.RoundMinutes(minutes); err != nil {
		return err
	}
	t := e.st.Timer(loop)
	live := t.IsRunning && t.ActiveAssignmentID == assignmentID
	if live {
		e.credit(loop)
	}
	a, err := loops.UpdateAllocated(e.st, loop, assignmentID, minutes)
	if err != nil {
		return err
	}
	if live {
		if a.IsComplete() {
			e.completeLocal(ctx, loop, SourceTick)
			return nil
		}
		e.reschedule(ctx, a)
	}
	e.persist(ctx)
	return nil
}

// ResetAssignment zeroes progress. A running assignment keeps running from
// zero with a fresh alarm.
func (e *Engine) ResetAssignment(ctx context.Context, loop model.LoopID, assignmentID string) error {
	if err := loops.ResetAssignment(e.st, loop, assignmentID); err != nil {
		return err
	}
	t := e.st.Timer(loop)
	if t.IsRunning && t.ActiveAssignmentID == assignmentID {
		t.SegmentStart = e.now().UnixMilli()
		a, _ := e.st.Loop(loop).Find(assignmentID)
		e.reschedule(ctx, a)
	}
	e.persist(ctx)
	return nil
}

// ResetAll stops every timer and zeroes all progress.
func (e *Engine) ResetAll(ctx context.Context) {
	for _, loop := range model.LoopIDs {
		e.stopLoop(ctx, loop)
		e.st.Loop(loop).Cursor = ""
	}
	loops.ResetAll(e.st)
	e.persist(ctx)
	e.logger.InfoContext(ctx, "all progress reset")
}

// Replace swaps in a whole snapshot, as after an import or a remote pull.
// Every timer is stopped before and after the swap.
func (e *Engine) Replace(ctx context.Context, next *model.State) {
	for _, loop := range model.LoopIDs {
		e.stopLoop(ctx, loop)
	}
	next.Normalize()
	for _, loop := range model.LoopIDs {
		next.Timer(loop).Clear()
	}
	next.LastCompletionToken = ""
	e.st = next
	e.persist(ctx)
	e.logger.InfoContext(ctx, "state replaced", "tasks", len(next.Tasks))
}

// Mutate applies fn to the state and persists when it succeeds. Use it for
// edits that cannot affect a timer: adding tasks or assignments, renaming,
// reordering and notes.
func (e *Engine) Mutate(ctx context.Context, fn func(*model.State) error) error {
	if err := fn(e.st); err != nil {
		return err
	}
	e.persist(ctx)
	return nil
}

// stopLoop clears the loop's timer and reports whether it was running. A
// running loop holds the alarm and the token, so both are retired.
func (e *Engine) stopLoop(ctx context.Context, loop model.LoopID) bool {
	t := e.st.Timer(loop)
	wasRunning := t.IsRunning
	t.Clear()
	if wasRunning {
		e.alarm.Cancel(ctx)
		e.st.LastCompletionToken = ""
	}
	return wasRunning
}

func (e *Engine) credit(loop model.LoopID) {
	t := e.st.Timer(loop)
	a, ok := e.st.Loop(loop).Find(t.ActiveAssignmentID)
	if !ok {
		return
	}
	now := e.now()
	a.Completed = math.Min(a.Completed+minutesSince(t.SegmentStart, now), a.Allocated)
	t.SegmentStart = now.UnixMilli()
}

func (e *Engine) reschedule(ctx context.Context, a *model.Assignment) {
	if e.st.LastCompletionToken == "" {
		e.st.LastCompletionToken = e.newToken()
	}
	e.alarm.Schedule(ctx, e.st.TaskName(a.TaskID), remaining(a), e.st.LastCompletionToken)
}

func (e *Engine) persist(ctx context.Context) {
	e.saver.Save(ctx, e.st)
}

func minutesSince(segmentStart int64, now time.Time) float64 {
	if segmentStart <= 0 {
		return 0
	}
	d := now.UnixMilli() - segmentStart
	if d < 0 {
		return 0
	}
	return float64(d) / 60000
}

func remaining(a *model.Assignment) time.Duration {
	left := math.Max(minRemaining, a.Allocated-a.Completed)
	return time.Duration(left * float64(time.Minute))
}
