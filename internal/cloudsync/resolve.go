package cloudsync

import (
	"context"
	"errors"

	"github.com/sandeepkv93/focusloop/internal/model"
)

type Decision string

const (
	KeepLocal  Decision = "keep_local"
	TakeRemote Decision = "take_remote"
	InSync     Decision = "in_sync"
)

// Resolve picks a winner by UpdatedAt. Ties keep the local copy.
func Resolve(local, remote *model.State) Decision {
	switch {
	case remote == nil:
		return KeepLocal
	case local == nil:
		return TakeRemote
	case remote.UpdatedAt.After(local.UpdatedAt):
		return TakeRemote
	case remote.UpdatedAt.Equal(local.UpdatedAt):
		return InSync
	default:
		return KeepLocal
	}
}

type Remote interface {
	Pull(ctx context.Context) (*model.State, error)
	Push(ctx context.Context, st *model.State) error
}

// Replacer swaps the local snapshot, stopping every timer.
type Replacer interface {
	State() *model.State
	Replace(ctx context.Context, next *model.State)
}

// Sync pulls the remote snapshot and applies last-writer-wins: a newer
// remote replaces local state, an older one is overwritten by a push.
func Sync(ctx context.Context, remote Remote, local Replacer) (Decision, error) {
	theirs, err := remote.Pull(ctx)
	if err != nil && !errors.Is(err, ErrRemoteEmpty) {
		return "", err
	}
	decision := Resolve(local.State(), theirs)
	switch decision {
	case TakeRemote:
		local.Replace(ctx, theirs)
	case KeepLocal:
		if err := remote.Push(ctx, local.State()); err != nil {
			return "", err
		}
	}
	return decision, nil
}
