package alarm

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/focusloop/internal/notify"
)

// Worker owns at most one armed alarm and runs independently of the UI.
// It is reachable only through Post and answers through subscriber
// channels. A new schedule replaces the armed one; cancel is idempotent.
type Worker struct {
	mu       sync.Mutex
	pending  []Request
	subs     []chan Event
	buffer   int
	wakeup   chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	stopped  bool
	dropped  uint64
	fired    uint64
	notifier notify.DesktopNotifier
	logger   *slog.Logger
	now      func() time.Time
}

type armed struct {
	token    string
	label    string
	deadline time.Time
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithNotifier(n notify.DesktopNotifier) Option {
	return func(w *Worker) {
		if n != nil {
			w.notifier = n
		}
	}
}

func NewWorker(bufferSize int, opts ...Option) *Worker {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	w := &Worker{
		buffer:   bufferSize,
		wakeup:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		notifier: notify.NoopDesktopNotifier{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true
	go w.loop()
}

func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	if !w.started {
		w.stopped = true
		w.mu.Unlock()
		w.closeSubscribers()
		return
	}
	w.stopped = true
	close(w.stopCh)
	w.mu.Unlock()
	<-w.doneCh
	w.logger.Info("alarm worker stopped", "fired", w.Fired(), "dropped", w.Dropped())
}

// Subscribe registers a new listener. The channel is closed when the worker
// stops.
func (w *Worker) Subscribe() <-chan Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch := make(chan Event, w.buffer)
	if w.stopped {
		close(ch)
		return ch
	}
	w.subs = append(w.subs, ch)
	return ch
}

// Post enqueues a request without waiting for it to be applied.
func (w *Worker) Post(req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrWorkerStopped
	}
	w.pending = append(w.pending, req)
	w.signalWakeup()
	return nil
}

// Dropped counts events that a slow subscriber missed.
func (w *Worker) Dropped() uint64 {
	return atomic.LoadUint64(&w.dropped)
}

// Fired counts alarms that reached their deadline.
func (w *Worker) Fired() uint64 {
	return atomic.LoadUint64(&w.fired)
}

func (w *Worker) loop() {
	defer close(w.doneCh)
	defer w.closeSubscribers()

	var (
		timer   *time.Timer
		current *armed
	)
	for {
		var fire <-chan time.Time
		if current != nil {
			wait := current.deadline.Sub(w.now())
			if wait < 0 {
				wait = 0
			}
			timer = resetTimer(timer, wait)
			fire = timer.C
		}

		select {
		case <-fire:
			w.fire(*current)
			current = nil
		case <-w.wakeup:
			for _, req := range w.drain() {
				current = w.apply(current, req)
			}
			if current == nil {
				stopTimer(timer)
			}
		case <-w.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (w *Worker) apply(current *armed, req Request) *armed {
	switch req.Type {
	case RequestSchedule:
		next := &armed{
			token:    req.Token,
			label:    req.Label,
			deadline: w.now().Add(time.Duration(req.DelayMs) * time.Millisecond),
		}
		w.logger.Debug("alarm armed", "token", req.Token, "task", req.Label, "delay_ms", req.DelayMs)
		return next
	case RequestCancel:
		if current != nil {
			w.logger.Debug("alarm cancelled", "token", current.token)
		}
		return nil
	default:
		return current
	}
}

func (w *Worker) fire(a armed) {
	atomic.AddUint64(&w.fired, 1)
	w.logger.Info("alarm fired", "token", a.token, "task", a.label)

	if err := w.notifier.Send(context.Background(), notify.Completion(a.label)); err != nil {
		w.logger.Warn("desktop notification failed", "error", err)
	}

	ev := Event{Type: EventTaskComplete, Token: a.token, Label: a.label, FiredAt: w.now().UTC()}
	w.mu.Lock()
	subs := append([]chan Event(nil), w.subs...)
	w.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			atomic.AddUint64(&w.dropped, 1)
		}
	}
}

func (w *Worker) drain() []Request {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.pending
	w.pending = nil
	return out
}

func (w *Worker) closeSubscribers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subs {
		close(ch)
	}
	w.subs = nil
}

func (w *Worker) signalWakeup() {
	select {
	case w.wakeup <- struct{}{}:
	default:
	}
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
