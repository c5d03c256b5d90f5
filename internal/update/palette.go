package update

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/taskcal/internal/commands"
	"github.com/sandeepkv93/taskcal/internal/model"
	"github.com/sandeepkv93/taskcal/internal/todo"
)

func (m Model) openPalette() Model {
	m.Palette.Active = true
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Focus()
	m.Status = StatusBar{Text: "command palette active"}
	return m
}

func (m Model) closePalette() Model {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
	return m
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m = m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m
		}
		m.commandInput, _ = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
	}
	return m
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	m = m.closePalette()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}

	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			d := model.Draft{Title: a.Title, Date: m.Focus, Time: a.Time, Priority: a.Priority, Repeat: a.Repeat}
			if a.Date != nil {
				d.Date = *a.Date
			}
			t, err := m.service.Add(m.ctx(), d)
			if err != nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: err.Error()}
			}
			m.setFocus(t.Date)
			return commands.Result{Message: fmt.Sprintf("added: %s (%s)", t.Title, t.Date)}, nil
		},
		Goto: func(g commands.GotoArgs) (commands.Result, error) {
			m.setFocus(g.Resolve(m.Focus, m.Today))
			return commands.Result{Message: fmt.Sprintf("focus: %s", m.Focus)}, nil
		},
		Done: func(t commands.TargetArgs) (commands.Result, error) {
			id, err := m.resolveTarget(t.Target)
			if err != nil {
				return commands.Result{}, err
			}
			task, ok := m.service.Toggle(m.ctx(), id)
			if !ok {
				return commands.Result{}, unknownTarget(t.Target)
			}
			return commands.Result{Message: toggleMessage(task)}, nil
		},
		Delete: func(t commands.TargetArgs) (commands.Result, error) {
			id, err := m.resolveTarget(t.Target)
			if err != nil {
				return commands.Result{}, err
			}
			task, ok := m.service.Remove(m.ctx(), id)
			if !ok {
				return commands.Result{}, unknownTarget(t.Target)
			}
			m.clampCursor()
			return commands.Result{Message: fmt.Sprintf("deleted: %s", task.Title)}, nil
		},
		View: func(v commands.ViewArgs) (commands.Result, error) {
			m.Mode = v.Mode
			return commands.Result{Message: fmt.Sprintf("view: %s", v.Mode)}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.logger.Debug("palette command failed", "input", raw, "error", err)
		return m
	}
	m.Status = StatusBar{Text: res.Message}
	return m
}

// resolveTarget maps an id prefix to a task id. An empty target means the
// task under the agenda cursor.
func (m Model) resolveTarget(target string) (string, error) {
	if target == "" {
		t, ok := m.selectedTask()
		if !ok {
			return "", &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no task selected"}
		}
		return t.ID, nil
	}
	id, err := m.service.Resolve(target)
	if errors.Is(err, todo.ErrAmbiguousID) {
		return "", &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("ambiguous id %q", target)}
	}
	if err != nil {
		return "", unknownTarget(target)
	}
	return id, nil
}

func unknownTarget(target string) error {
	return &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no task matching %q", target)}
}

func toggleMessage(t model.Task) string {
	if t.Completed {
		return fmt.Sprintf("completed: %s", t.Title)
	}
	return fmt.Sprintf("reopened: %s", t.Title)
}
