package commands

import "fmt"

type Result struct {
	Message string
	// Confirm, when set, asks the caller to confirm before running Then.
	Confirm string
	Then    func() (Result, error)
}

type Handlers struct {
	Add      func(TaskArgs) (Result, error)
	Assign   func(TaskArgs) (Result, error)
	Alloc    func(PositionArgs) (Result, error)
	Remove   func(PositionArgs) (Result, error)
	Move     func(PositionArgs) (Result, error)
	Reset    func(PositionArgs) (Result, error)
	Delete   func(EditArgs) (Result, error)
	Rename   func(EditArgs) (Result, error)
	Note     func(EditArgs) (Result, error)
	LoopNote func(EditArgs) (Result, error)
	Mode     func(ChoiceArgs) (Result, error)
	Day      func(ChoiceArgs) (Result, error)
	Export   func(PathArgs) (Result, error)
	Import   func(PathArgs) (Result, error)
	Push     func() (Result, error)
	Pull     func() (Result, error)
	Sync     func() (Result, error)
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}

func Execute(cmd Command, h Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		return call(cmd.Type, h.Add, cmd.Task)
	case TypeAssign:
		return call(cmd.Type, h.Assign, cmd.Task)
	case TypeAlloc:
		return call(cmd.Type, h.Alloc, cmd.Position)
	case TypeRemove:
		return call(cmd.Type, h.Remove, cmd.Position)
	case TypeMove:
		return call(cmd.Type, h.Move, cmd.Position)
	case TypeReset:
		return call(cmd.Type, h.Reset, cmd.Position)
	case TypeDelete:
		return call(cmd.Type, h.Delete, cmd.Edit)
	case TypeRename:
		return call(cmd.Type, h.Rename, cmd.Edit)
	case TypeNote:
		return call(cmd.Type, h.Note, cmd.Edit)
	case TypeLoopNote:
		return call(cmd.Type, h.LoopNote, cmd.Edit)
	case TypeMode:
		return call(cmd.Type, h.Mode, cmd.Choice)
	case TypeDay:
		return call(cmd.Type, h.Day, cmd.Choice)
	case TypeExport:
		return call(cmd.Type, h.Export, cmd.Path)
	case TypeImport:
		return call(cmd.Type, h.Import, cmd.Path)
	case TypePush:
		return call0(cmd.Type, h.Push)
	case TypePull:
		return call0(cmd.Type, h.Pull)
	case TypeSync:
		return call0(cmd.Type, h.Sync)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func call[A any](t Type, fn func(A) (Result, error), args *A) (Result, error) {
	if fn == nil {
		return Result{}, missing(t)
	}
	if args == nil {
		return Result{}, invalid("%s is missing arguments", t)
	}
	return fn(*args)
}

func call0(t Type, fn func() (Result, error)) (Result, error) {
	if fn == nil {
		return Result{}, missing(t)
	}
	return fn()
}
