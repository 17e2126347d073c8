package state

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/sandeepkv93/focusloop/internal/model"
	"github.com/sandeepkv93/focusloop/internal/storage"
)

const DefaultKey = "focus_loops_v1"

// Store is the persistence gateway for the whole snapshot. Failures are
// logged and swallowed: the in-memory state stays authoritative.
type Store struct {
	gw     storage.Gateway
	key    string
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(gw storage.Gateway, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{gw: gw, key: DefaultKey, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the persisted snapshot, or the seeded defaults when nothing
// usable is stored. The returned state is always normalized.
func (s *Store) Load(ctx context.Context) *model.State {
	raw, err := s.gw.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.WarnContext(ctx, "state load failed, using defaults", "key", s.key, "error", err)
		}
		st := model.DefaultState()
		s.Save(ctx, st)
		return st
	}
	var st model.State
	if err := json.Unmarshal(raw, &st); err != nil {
		s.logger.WarnContext(ctx, "state snapshot unreadable, using defaults", "key", s.key, "error", err)
		return model.DefaultState()
	}
	st.Normalize()
	return &st
}

// Save persists st and reports whether the write landed.
func (s *Store) Save(ctx context.Context, st *model.State) bool {
	if st == nil {
		return false
	}
	st.UpdatedAt = s.now().UTC()
	raw, err := json.Marshal(st)
	if err != nil {
		s.logger.ErrorContext(ctx, "state encode failed", "error", err)
		return false
	}
	if err := s.gw.Save(ctx, s.key, raw); err != nil {
		s.logger.WarnContext(ctx, "state save failed", "key", s.key, "error", err)
		return false
	}
	return true
}

// Wipe drops the stored snapshot and seeds the defaults again. Gateways that
// cannot delete are overwritten with the seed instead.
func (s *Store) Wipe(ctx context.Context) *model.State {
	if d, ok := s.gw.(storage.Deleter); ok {
		if err := d.Delete(ctx, s.key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.WarnContext(ctx, "state delete failed", "key", s.key, "error", err)
		}
	}
	st := model.DefaultState()
	s.Save(ctx, st)
	s.logger.InfoContext(ctx, "state wiped", "key", s.key)
	return st
}

// LastSaved reports when the snapshot was last written, when the gateway
// tracks it.
func (s *Store) LastSaved(ctx context.Context) (time.Time, bool) {
	stamped, ok := s.gw.(storage.Stamped)
	if !ok {
		return time.Time{}, false
	}
	at, err := stamped.UpdatedAt(ctx, s.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.DebugContext(ctx, "state timestamp unavailable", "key", s.key, "error", err)
		}
		return time.Time{}, false
	}
	return at, true
}
