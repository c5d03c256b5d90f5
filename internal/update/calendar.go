package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/taskcal/internal/calendar"
	"github.com/sandeepkv93/taskcal/internal/model"
	"github.com/sandeepkv93/taskcal/internal/views"
)

const noteWidth = 46

func (m Model) handleCalendarKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case m.Keys.Day:
		m.Mode = calendar.ModeDay
	case m.Keys.Week:
		m.Mode = calendar.ModeWeek
	case m.Keys.Month:
		m.Mode = calendar.ModeMonth
	case m.Keys.Prev, "left":
		m.setFocus(calendar.Shift(m.Mode, m.Focus, -1))
	case m.Keys.Next, "right":
		m.setFocus(calendar.Shift(m.Mode, m.Focus, 1))
	case m.Keys.Today:
		m.setFocus(m.Today)
	case m.Keys.Down, "down":
		if m.Cursor < len(m.agenda())-1 {
			m.Cursor++
		}
	case m.Keys.Up, "up":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case m.Keys.Toggle, "space":
		if t, ok := m.selectedTask(); ok {
			if next, ok := m.service.Toggle(m.ctx(), t.ID); ok {
				m.Status = StatusBar{Text: toggleMessage(next)}
			}
		}
	case m.Keys.Add:
		return m.openAddForm()
	case m.Keys.Edit:
		if t, ok := m.selectedTask(); ok {
			return m.openEditForm(t)
		}
		m.Status = StatusBar{Text: "no task selected", IsError: true}
	case m.Keys.Delete:
		if t, ok := m.selectedTask(); ok {
			if removed, ok := m.service.Remove(m.ctx(), t.ID); ok {
				m.Status = StatusBar{Text: fmt.Sprintf("deleted: %s", removed.Title)}
			}
			m.clampCursor()
		}
	}
	return m
}

func (m Model) renderCalendarView() string {
	tasks := m.service.Tasks()
	title := calendar.Title(m.Mode, m.Focus, m.WeekStart)
	switch m.Mode {
	case calendar.ModeDay:
		return views.RenderDay(m.dayData(tasks, title))
	case calendar.ModeWeek:
		return views.RenderWeek(m.weekData(tasks, title))
	default:
		return views.RenderMonthGrid(m.monthData(tasks, title))
	}
}

func (m Model) monthData(tasks []model.Task, title string) views.MonthGridData {
	grid := calendar.MonthGrid(m.Focus, m.WeekStart)
	data := views.MonthGridData{Title: title}
	for _, d := range calendar.WeekDays(m.Focus, m.WeekStart) {
		data.Weekdays = append(data.Weekdays, d.Weekday().String())
	}
	for _, week := range grid {
		row := make([]views.DayCellData, 0, len(week))
		for _, cell := range week {
			day := calendar.TasksOnDate(tasks, cell.Date)
			prios := make([]string, 0, len(day))
			for _, t := range day {
				prios = append(prios, string(t.Priority))
			}
			row = append(row, views.DayCellData{
				Day:        cell.Date.Day,
				InMonth:    cell.InMonth,
				IsToday:    cell.Date == m.Today,
				IsFocus:    cell.Date == m.Focus,
				Priorities: prios,
			})
		}
		data.Weeks = append(data.Weeks, row)
	}
	return data
}

func (m Model) weekData(tasks []model.Task, title string) views.WeekData {
	data := views.WeekData{Title: title}
	for _, d := range calendar.WeekDays(m.Focus, m.WeekStart) {
		data.Days = append(data.Days, views.WeekColumnData{
			Label:   fmt.Sprintf("%s %02d", d.Weekday().String()[:3], d.Day),
			IsToday: d == m.Today,
			IsFocus: d == m.Focus,
			Items:   agendaItems(calendar.TasksOnDate(tasks, d)),
		})
	}
	return data
}

func (m Model) dayData(tasks []model.Task, title string) views.DayData {
	data := views.DayData{Title: title}
	for _, h := range calendar.DayHours(m.DayFrom, m.DayTo) {
		data.Hours = append(data.Hours, views.HourRowData{
			Hour:  h,
			Items: agendaItems(calendar.TasksAtHour(tasks, m.Focus, h)),
		})
	}
	data.Unscheduled = agendaItems(calendar.Unscheduled(tasks, m.Focus))
	return data
}

func (m Model) renderAgendaPanel() string {
	items := m.agenda()
	done := 0
	rows := make([]table.Row, 0, len(items))
	for _, t := range items {
		tm := "--:--"
		if t.Time != nil {
			tm = t.Time.String()
		}
		mark := ""
		if t.Completed {
			mark = "x"
			done++
		}
		rows = append(rows, table.Row{tm, string(t.Priority), t.Title, mark})
	}
	tbl := m.agendaTable
	tbl.SetRows(rows)
	if len(rows) > 0 {
		tbl.SetCursor(m.Cursor)
	}

	data := views.AgendaPanelData{
		Date:      m.Focus.String(),
		TableView: tbl.View(),
		Done:      done,
		Total:     len(items),
	}
	if len(items) > 0 {
		data.ProgressView = m.dayProgress.ViewAs(float64(done) / float64(len(items)))
	}
	if sel, ok := m.selectedTask(); ok {
		item := agendaItem(sel)
		data.Selected = &item
		if sel.Note != "" {
			vp := m.noteViewport
			vp.SetContent(views.RenderMarkdown(sel.Note, noteWidth))
			data.NoteView = vp.View()
		}
	}
	return views.RenderAgendaPanel(data)
}

func agendaItems(tasks []model.Task) []views.AgendaItemData {
	out := make([]views.AgendaItemData, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, agendaItem(t))
	}
	return out
}

func agendaItem(t model.Task) views.AgendaItemData {
	item := views.AgendaItemData{
		ID:        t.ID,
		Title:     t.Title,
		Priority:  string(t.Priority),
		Repeat:    string(t.Repeat),
		Completed: t.Completed,
	}
	if t.Time != nil {
		item.Time = t.Time.String()
	}
	return item
}
