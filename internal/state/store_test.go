package state

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/focusloop/internal/model"
	"github.com/sandeepkv93/focusloop/internal/storage"
)

type mockGateway struct {
	LoadFunc func(ctx context.Context, key string) ([]byte, error)
	SaveFunc func(ctx context.Context, key string, value []byte) error
}

func (m *mockGateway) Load(ctx context.Context, key string) ([]byte, error) {
	return m.LoadFunc(ctx, key)
}

func (m *mockGateway) Save(ctx context.Context, key string, value []byte) error {
	return m.SaveFunc(ctx, key, value)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStoreLoadSeedsDefaultsWhenMissing(t *testing.T) {
	gw := storage.NewFileStore(afero.NewMemMapFs(), "/state")
	store := NewStore(gw, quietLogger())

	st := store.Load(t.Context())
	require.Len(t, st.Tasks, 3)

	raw, err := gw.Load(t.Context(), DefaultKey)
	require.NoError(t, err, "defaults should be persisted on first run")
	assert.Contains(t, string(raw), "Coding")
}

func TestStoreRoundTrip(t *testing.T) {
	gw := storage.NewFileStore(afero.NewMemMapFs(), "/state")
	fixed := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	store := NewStore(gw, quietLogger(), WithClock(func() time.Time { return fixed }))

	st := model.DefaultState()
	st.Mode = model.ModeOut
	st.LastCompletionToken = "tok-1"
	timer := st.Timer(model.LoopOut)
	timer.ActiveAssignmentID = st.Loop(model.LoopOut).Assignments[0].ID
	timer.SegmentStart = fixed.UnixMilli()
	timer.IsRunning = true
	require.True(t, store.Save(t.Context(), st))

	got := store.Load(t.Context())
	assert.Equal(t, model.ModeOut, got.Mode)
	assert.Equal(t, "tok-1", got.LastCompletionToken)
	assert.Equal(t, fixed, got.UpdatedAt)
	assert.Equal(t, *timer, *got.Timer(model.LoopOut))
}

func TestStoreLoadCorruptSnapshotFallsBack(t *testing.T) {
	gw := &mockGateway{
		LoadFunc: func(context.Context, string) ([]byte, error) { return []byte("{not json"), nil },
		SaveFunc: func(context.Context, string, []byte) error { return nil },
	}
	st := NewStore(gw, quietLogger()).Load(t.Context())
	assert.Len(t, st.Tasks, 3)
}

func TestStoreSaveSwallowsErrors(t *testing.T) {
	var calls int
	gw := &mockGateway{
		LoadFunc: func(context.Context, string) ([]byte, error) { return nil, errors.New("disk gone") },
		SaveFunc: func(context.Context, string, []byte) error {
			calls++
			return errors.New("quota exceeded")
		},
	}
	store := NewStore(gw, quietLogger(), WithKey("custom"))

	st := store.Load(t.Context())
	require.NotNil(t, st)
	assert.False(t, store.Save(t.Context(), st))
	assert.Equal(t, 2, calls)
}

func TestStoreWipeReseedsAndReportsLastSaved(t *testing.T) {
	db, err := storage.OpenSQLite(t.TempDir() + "/focusloop.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := t.Context()

	store := NewStore(db, quietLogger())
	_, ok := store.LastSaved(ctx)
	assert.False(t, ok, "nothing saved yet")

	st := model.NewState()
	st.Tasks = append(st.Tasks, model.Task{ID: "t1", Name: "Piano", DefaultDuration: 20})
	require.True(t, store.Save(ctx, st))
	at, ok := store.LastSaved(ctx)
	require.True(t, ok)
	assert.False(t, at.IsZero())

	wiped := store.Wipe(ctx)
	assert.Len(t, wiped.Tasks, 3, "seeded library")
	reloaded := store.Load(ctx)
	names := make([]string, 0, len(reloaded.Tasks))
	for _, task := range reloaded.Tasks {
		names = append(names, task.Name)
	}
	assert.NotContains(t, names, "Piano")
}

func TestStoreLastSavedWithoutTimestamps(t *testing.T) {
	store := NewStore(storage.NewFileStore(afero.NewMemMapFs(), "/data"), quietLogger())
	require.True(t, store.Save(t.Context(), model.NewState()))
	_, ok := store.LastSaved(t.Context())
	assert.False(t, ok)
}
