package commands

import (
	"fmt"
	"strconv"
	"strings"
)

type Type string

const (
	TypeAdd      Type = "add"
	TypeAssign   Type = "assign"
	TypeAlloc    Type = "alloc"
	TypeRemove   Type = "remove"
	TypeMove     Type = "move"
	TypeDelete   Type = "delete"
	TypeRename   Type = "rename"
	TypeNote     Type = "note"
	TypeLoopNote Type = "loopnote"
	TypeMode     Type = "mode"
	TypeDay      Type = "day"
	TypeReset    Type = "reset"
	TypeExport   Type = "export"
	TypeImport   Type = "import"
	TypePush     Type = "push"
	TypePull     Type = "pull"
	TypeSync     Type = "sync"
)

// Types lists every palette command, in help order.
var Types = []Type{
	TypeAdd, TypeAssign, TypeAlloc, TypeRemove, TypeMove, TypeDelete, TypeRename,
	TypeNote, TypeLoopNote, TypeMode, TypeDay, TypeReset, TypeExport, TypeImport,
	TypePush, TypePull, TypeSync,
}

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, a ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, a...)}
}

// TaskArgs names a library task. Minutes is zero when omitted.
type TaskArgs struct {
	Name    string
	Minutes float64
}

// PositionArgs addresses loop entries by 1-based position.
type PositionArgs struct {
	Pos     int
	To      int
	Minutes float64
	All     bool
}

// EditArgs pairs a task reference with free text.
type EditArgs struct {
	Task string
	Text string
}

type ChoiceArgs struct {
	Value string
}

type PathArgs struct {
	Path string
}

type Command struct {
	Type     Type
	Raw      string
	Task     *TaskArgs
	Position *PositionArgs
	Edit     *EditArgs
	Choice   *ChoiceArgs
	Path     *PathArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]
	cmd := Command{Type: Type(head), Raw: input}

	switch cmd.Type {
	case TypeAdd, TypeAssign:
		return parseTask(cmd, args)
	case TypeAlloc:
		return parseAlloc(cmd, args)
	case TypeRemove:
		return parsePositions(cmd, args, 1)
	case TypeMove:
		return parsePositions(cmd, args, 2)
	case TypeReset:
		return parseReset(cmd, args)
	case TypeDelete:
		if len(args) == 0 {
			return Command{}, invalid("delete requires a task")
		}
		cmd.Edit = &EditArgs{Task: strings.Join(args, " ")}
		return cmd, nil
	case TypeRename, TypeNote:
		return parseEdit(cmd, args)
	case TypeLoopNote:
		cmd.Edit = &EditArgs{Text: strings.Join(args, " ")}
		return cmd, nil
	case TypeMode:
		return parseChoice(cmd, args, "in", "out")
	case TypeDay:
		return parseChoice(cmd, args, "auto", "weekday", "weekend")
	case TypeExport:
		cmd.Path = &PathArgs{Path: strings.Join(args, " ")}
		return cmd, nil
	case TypeImport:
		if len(args) == 0 {
			return Command{}, invalid("import requires a file path")
		}
		cmd.Path = &PathArgs{Path: strings.Join(args, " ")}
		return cmd, nil
	case TypePush, TypePull, TypeSync:
		return cmd, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// parseTask reads "<name words...> [minutes]".
func parseTask(cmd Command, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("%s requires a task name", cmd.Type)
	}
	var minutes float64
	if len(args) > 1 {
		if v, err := strconv.ParseFloat(args[len(args)-1], 64); err == nil {
			if v <= 0 {
				return Command{}, invalid("minutes must be positive")
			}
			minutes = v
			args = args[:len(args)-1]
		}
	}
	cmd.Task = &TaskArgs{Name: strings.Join(args, " "), Minutes: minutes}
	return cmd, nil
}

func parseAlloc(cmd Command, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalid("alloc requires a position and minutes")
	}
	pos, err := parsePos(args[0])
	if err != nil {
		return Command{}, err
	}
	minutes, err := strconv.ParseFloat(args[1], 64)
	if err != nil || minutes <= 0 {
		return Command{}, invalid("minutes must be a positive number: %s", args[1])
	}
	cmd.Position = &PositionArgs{Pos: pos, Minutes: minutes}
	return cmd, nil
}

func parsePositions(cmd Command, args []string, n int) (Command, error) {
	if len(args) != n {
		return Command{}, invalid("%s requires %d position(s)", cmd.Type, n)
	}
	p := &PositionArgs{}
	var err error
	if p.Pos, err = parsePos(args[0]); err != nil {
		return Command{}, err
	}
	if n == 2 {
		if p.To, err = parsePos(args[1]); err != nil {
			return Command{}, err
		}
	}
	cmd.Position = p
	return cmd, nil
}

func parseReset(cmd Command, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("reset requires a position or \"all\"")
	}
	if strings.EqualFold(args[0], "all") {
		cmd.Position = &PositionArgs{All: true}
		return cmd, nil
	}
	return parsePositions(cmd, args, 1)
}

func parseEdit(cmd Command, args []string) (Command, error) {
	if len(args) < 1 {
		return Command{}, invalid("%s requires a task", cmd.Type)
	}
	text := strings.Join(args[1:], " ")
	if cmd.Type == TypeRename && strings.TrimSpace(text) == "" {
		return Command{}, invalid("rename requires a new name")
	}
	cmd.Edit = &EditArgs{Task: args[0], Text: text}
	return cmd, nil
}

func parseChoice(cmd Command, args []string, allowed ...string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("%s requires one of %s", cmd.Type, strings.Join(allowed, "|"))
	}
	v := strings.ToLower(args[0])
	for _, a := range allowed {
		if v == a {
			cmd.Choice = &ChoiceArgs{Value: v}
			return cmd, nil
		}
	}
	return Command{}, invalid("%s must be one of %s", cmd.Type, strings.Join(allowed, "|"))
}

func parsePos(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, invalid("position must be a positive integer: %s", s)
	}
	return n, nil
}

// Usage is the one-line syntax shown in help.
func Usage(t Type) string {
	switch t {
	case TypeAdd:
		return "add <name> [minutes]"
	case TypeAssign:
		return "assign <task> [minutes]"
	case TypeAlloc:
		return "alloc <pos> <minutes>"
	case TypeRemove:
		return "remove <pos>"
	case TypeMove:
		return "move <from> <to>"
	case TypeDelete:
		return "delete <task>"
	case TypeRename:
		return "rename <task> <new name>"
	case TypeNote:
		return "note <task> <text>"
	case TypeLoopNote:
		return "loopnote <text>"
	case TypeMode:
		return "mode in|out"
	case TypeDay:
		return "day auto|weekday|weekend"
	case TypeReset:
		return "reset <pos>|all"
	case TypeExport:
		return "export [path]"
	case TypeImport:
		return "import <path>"
	default:
		return string(t)
	}
}
