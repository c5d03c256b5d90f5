// Package commands parses and dispatches the slash commands typed into the
// command palette.
package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/taskcal/internal/calendar"
	"github.com/sandeepkv93/taskcal/internal/model"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeGoto   Type = "goto"
	TypeDone   Type = "done"
	TypeDelete Type = "delete"
	TypeView   Type = "view"
)

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

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// AddArgs holds a new task. Nil Date means the caller's focus date; empty
// Priority and Repeat take the model defaults.
type AddArgs struct {
	Title    string
	Date     *model.Date
	Time     *model.TimeOfDay
	Priority model.Priority
	Repeat   model.Repeat
}

// GotoArgs moves the focus date: to today, to an absolute date, or by Offset
// days from the current focus.
type GotoArgs struct {
	Today  bool
	Date   *model.Date
	Offset int
}

// Resolve applies g to focus.
func (g GotoArgs) Resolve(focus, today model.Date) model.Date {
	switch {
	case g.Today:
		return today
	case g.Date != nil:
		return *g.Date
	default:
		return focus.AddDays(g.Offset)
	}
}

// TargetArgs names a task by id prefix. Empty Target means the selected task.
type TargetArgs struct {
	Target string
}

type ViewArgs struct {
	Mode calendar.Mode
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Goto   *GotoArgs
	Done   *TargetArgs
	Delete *TargetArgs
	View   *ViewArgs
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

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeGoto:
		return parseGoto(input, args)
	case TypeDone:
		return Command{Type: TypeDone, Raw: input, Done: parseTarget(args)}, nil
	case TypeDelete:
		return Command{Type: TypeDelete, Raw: input, Delete: parseTarget(args)}, nil
	case TypeView:
		return parseView(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// parseAdd reads trailing option tokens (date, time, !priority, every:rule)
// in any order; the remaining words form the title.
func parseAdd(raw string, args []string) (Command, error) {
	out := AddArgs{}
	title := make([]string, 0, len(args))
	for _, arg := range args {
		lower := strings.ToLower(arg)
		switch {
		case strings.HasPrefix(lower, "!"):
			p, err := model.ParsePriority(strings.TrimPrefix(lower, "!"))
			if err != nil {
				return Command{}, invalid("unknown priority %q", arg)
			}
			out.Priority = p
		case strings.HasPrefix(lower, "every:"):
			r, err := model.ParseRepeat(strings.TrimPrefix(lower, "every:"))
			if err != nil {
				return Command{}, invalid("unknown repeat rule %q", arg)
			}
			out.Repeat = r
		case looksLikeDate(arg):
			d, err := model.ParseDate(arg)
			if err != nil {
				return Command{}, invalid("invalid date %q", arg)
			}
			out.Date = &d
		case looksLikeTime(arg):
			tm, err := model.ParseTimeOfDay(arg)
			if err != nil {
				return Command{}, invalid("invalid time %q", arg)
			}
			out.Time = &tm
		default:
			title = append(title, arg)
		}
	}
	out.Title = strings.TrimSpace(strings.Join(title, " "))
	if out.Title == "" {
		return Command{}, invalid("add requires a title")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

func parseGoto(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("goto requires a date, today, or +N/-N days")
	}
	arg := strings.ToLower(args[0])
	out := GotoArgs{}
	switch {
	case arg == "today":
		out.Today = true
	case strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-"):
		n, err := strconv.Atoi(arg)
		if err != nil {
			return Command{}, invalid("invalid offset %q", args[0])
		}
		out.Offset = n
	default:
		d, err := model.ParseDate(arg)
		if err != nil {
			return Command{}, invalid("invalid date %q", args[0])
		}
		out.Date = &d
	}
	return Command{Type: TypeGoto, Raw: raw, Goto: &out}, nil
}

func parseTarget(args []string) *TargetArgs {
	if len(args) == 0 {
		return &TargetArgs{}
	}
	return &TargetArgs{Target: strings.ToLower(args[0])}
}

func parseView(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("view requires month, week, or day")
	}
	mode, err := calendar.ParseMode(args[0])
	if err != nil {
		return Command{}, invalid("unknown view %q", args[0])
	}
	return Command{Type: TypeView, Raw: raw, View: &ViewArgs{Mode: mode}}, nil
}

func looksLikeDate(s string) bool {
	return len(s) == len(model.DateLayout) && s[4] == '-' && s[7] == '-' && isDigit(s[0])
}

func looksLikeTime(s string) bool {
	i := strings.IndexByte(s, ':')
	return i > 0 && i < len(s)-1 && isDigit(s[0]) && isDigit(s[len(s)-1])
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
