package model

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MaxNoteLength = 800
	UnknownTask   = "Unknown"
)

var (
	ErrInvalidTask     = errors.New("model: invalid task")
	ErrInvalidDuration = errors.New("model: duration must be a positive number of minutes")
	ErrInvalidLoop     = errors.New("model: unknown loop")
)

var validate = validator.New()

// Task is a library entry. Assignments reference it by ID.
type Task struct {
	ID              string  `json:"id" validate:"required"`
	Name            string  `json:"name" validate:"required"`
	Note            string  `json:"note"`
	DefaultDuration float64 `json:"defaultDuration" validate:"gt=0"`
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTask)
	}
	if err := validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %q", ErrInvalidTask, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidTask, err)
	}
	return nil
}

// RoundMinutes normalizes user-entered minutes to 0.5 granularity with a
// floor of 0.5. Accumulated progress is never passed through here.
func RoundMinutes(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, ErrInvalidDuration
	}
	return math.Max(0.5, math.Round(v*2)/2), nil
}

// TrimNote caps a note at MaxNoteLength runes.
func TrimNote(note string) string {
	r := []rune(note)
	if len(r) > MaxNoteLength {
		return string(r[:MaxNoteLength])
	}
	return note
}
