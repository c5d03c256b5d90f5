package update

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/taskcal/internal/model"
	"github.com/sandeepkv93/taskcal/internal/reminder"
	"github.com/sandeepkv93/taskcal/internal/scheduler"
	"github.com/sandeepkv93/taskcal/internal/views"
)

// dayTickInterval is how often the model checks for a date change.
const dayTickInterval = time.Minute

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{dayTickCmd()}
	if m.engine != nil {
		cmds = append(cmds, waitForReminderCmd(m.engine.C()))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			m.Quitting = true
			return m, tea.Quit
		}
		if m.Palette.Active {
			return m.handlePaletteKey(typed), nil
		}
		if m.CurrentView == ViewForm {
			return m.handleFormKey(typed)
		}

		switch typed.String() {
		case m.Keys.Palette:
			return m.openPalette(), nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown"}
			} else {
				m.Status = StatusBar{Text: "help hidden"}
			}
			return m, nil
		case m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}
		return m.handleCalendarKey(typed), nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	case DayTickMsg:
		if err := m.service.Reload(m.ctx()); err != nil {
			m.logger.Warn("store reload skipped", "error", err)
		}
		m = m.rollDay()
		m.clampCursor()
		return m, dayTickCmd()
	case ReminderDueMsg:
		var cmd tea.Cmd
		if m.planner != nil {
			if notice, ok := m.planner.Notice(typed.Event); ok {
				line := fmt.Sprintf("%s %s (%s)", typed.Event.TriggerAt.In(m.service.Location()).Format("15:04"), notice.Title, notice.Body)
				m.notify(line)
				m.Status = StatusBar{Text: "reminder: " + notice.Title}
				cmd = sendNoticeCmd(m.notifier, notice)
			}
		}
		if m.engine != nil {
			return m, tea.Batch(cmd, waitForReminderCmd(m.engine.C()))
		}
		return m, cmd
	}

	return m, nil
}

// rollDay moves Today forward when the wall clock passes midnight and
// materializes recurrences for the new date. A focus left on the old today
// follows it.
func (m Model) rollDay() Model {
	today := m.service.Today()
	if today == m.Today {
		return m
	}
	added := m.service.Refresh(m.ctx(), today)
	if m.Focus == m.Today {
		m.setFocus(today)
	}
	m.Today = today
	m.logger.Info("day rolled over", "today", today.String(), "materialized", added)
	return m
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	leftPane := m.renderCalendarView()
	rightPane := ""
	switch m.CurrentView {
	case ViewForm:
		rightPane = m.renderFormView()
	default:
		rightPane = m.renderAgendaPanel()
	}
	rightPane += views.RenderCommandPalette(m.Palette.Active, m.commandInput.View())
	rightPane += m.renderHelpIfVisible()

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("taskcal | %s view | today: %s | focus: %s", m.Mode, m.Today, m.Focus),
		LeftPane:     leftPane,
		RightPane:    strings.TrimSpace(rightPane),
		StatusLine:   status,
		IsError:      m.Status.IsError,
		Notification: views.RenderNotification(m.Notifications),
		Footer:       m.footer(),
	})
}

func (m Model) footer() string {
	if m.CurrentView == ViewForm {
		return "keys: tab next | shift+tab prev | ctrl+s save | esc cancel"
	}
	return fmt.Sprintf("keys: %s/%s/%s mode | %s/%s period | %s today | %s add | %s edit | %s delete | space done | / cmd | %s help | %s quit",
		m.Keys.Day, m.Keys.Week, m.Keys.Month, m.Keys.Prev, m.Keys.Next, m.Keys.Today,
		m.Keys.Add, m.Keys.Edit, m.Keys.Delete, m.Keys.Help, m.Keys.Quit)
}

func waitForReminderCmd(ch <-chan scheduler.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ReminderDueMsg{Event: ev}
	}
}

func dayTickCmd() tea.Cmd {
	return tea.Tick(dayTickInterval, func(t time.Time) tea.Msg {
		return DayTickMsg{At: t}
	})
}

func sendNoticeCmd(n reminder.Notifier, notice model.Notice) tea.Cmd {
	if n == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := n.Send(ctx, notice); err != nil {
			return AppErrorMsg{Err: fmt.Errorf("notification failed: %w", err)}
		}
		return nil
	}
}
