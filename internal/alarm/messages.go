package alarm

import (
	"errors"
	"fmt"
	"time"
)

// MinDelay is the shortest delay the worker will arm.
const MinDelay = time.Second

var (
	ErrWorkerStopped  = errors.New("alarm: worker stopped")
	ErrUnknownRequest = errors.New("alarm: unknown request type")
	ErrInvalidDelay   = errors.New("alarm: delay must be at least one second")
)

type RequestType string

const (
	RequestSchedule RequestType = "SCHEDULE_ALARM"
	RequestCancel   RequestType = "CANCEL_ALARM"
)

// Request travels from the app to the worker.
type Request struct {
	Type    RequestType `json:"type"`
	Label   string      `json:"label,omitempty"`
	DelayMs int64       `json:"delayMs,omitempty"`
	Token   string      `json:"token,omitempty"`
}

func (r Request) Validate() error {
	switch r.Type {
	case RequestSchedule:
		if r.DelayMs < MinDelay.Milliseconds() {
			return fmt.Errorf("%w: %dms", ErrInvalidDelay, r.DelayMs)
		}
		return nil
	case RequestCancel:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRequest, r.Type)
	}
}

type EventType string

const EventTaskComplete EventType = "TASK_COMPLETE"

// Event travels from the worker back to every subscriber.
type Event struct {
	Type    EventType `json:"type"`
	Token   string    `json:"token"`
	Label   string    `json:"label,omitempty"`
	FiredAt time.Time `json:"firedAt"`
}

// Schedule builds a SCHEDULE_ALARM request for remaining time. The delay is
// rounded to whole milliseconds and floored at MinDelay.
func Schedule(label string, remaining time.Duration, token string) Request {
	ms := remaining.Round(time.Millisecond).Milliseconds()
	if ms < MinDelay.Milliseconds() {
		ms = MinDelay.Milliseconds()
	}
	return Request{Type: RequestSchedule, Label: label, DelayMs: ms, Token: token}
}

func Cancel() Request {
	return Request{Type: RequestCancel}
}
