package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// maxDots is how many priority markers fit in a month cell before "+".
const maxDots = 3

type AgendaItemData struct {
	ID        string
	Title     string
	Time      string
	Priority  string
	Repeat    string
	Completed bool
}

type DayCellData struct {
	Day        int
	InMonth    bool
	IsToday    bool
	IsFocus    bool
	Priorities []string
}

type MonthGridData struct {
	Title    string
	Weekdays []string
	Weeks    [][]DayCellData
}

type WeekColumnData struct {
	Label   string
	IsToday bool
	IsFocus bool
	Items   []AgendaItemData
}

type WeekData struct {
	Title string
	Days  []WeekColumnData
}

type HourRowData struct {
	Hour  int
	Items []AgendaItemData
}

type DayData struct {
	Title       string
	Hours       []HourRowData
	Unscheduled []AgendaItemData
}

type AgendaPanelData struct {
	Date         string
	TableView    string
	Selected     *AgendaItemData
	NoteView     string
	ProgressView string
	Done         int
	Total        int
}

type FormFieldData struct {
	Label   string
	View    string
	Focused bool
}

type FormPanelData struct {
	Title     string
	Fields    []FormFieldData
	ErrorText string
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderMonthGrid(data MonthGridData) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(data.Title) + "\n")
	heads := make([]string, 0, len(data.Weekdays))
	for _, wd := range data.Weekdays {
		if len(wd) > 3 {
			wd = wd[:3]
		}
		heads = append(heads, fmt.Sprintf("%-8s", wd))
	}
	b.WriteString(strings.Join(heads, "") + "\n")
	for _, week := range data.Weeks {
		days := make([]string, 0, len(week))
		marks := make([]string, 0, len(week))
		for _, cell := range week {
			days = append(days, renderDayNumber(cell))
			marks = append(marks, renderDots(cell.Priorities))
		}
		b.WriteString(strings.Join(days, "") + "\n")
		b.WriteString(strings.Join(marks, "") + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func renderDayNumber(cell DayCellData) string {
	label := fmt.Sprintf("%2d", cell.Day)
	switch {
	case cell.IsFocus:
		label = focusStyle.Render(label)
	case cell.IsToday:
		label = todayStyle.Render(label)
	case !cell.InMonth:
		label = outsideStyle.Render(label)
	}
	return label + strings.Repeat(" ", 6)
}

func renderDots(priorities []string) string {
	shown := priorities
	more := false
	if len(shown) > maxDots {
		shown = shown[:maxDots]
		more = true
	}
	var b strings.Builder
	for _, p := range shown {
		b.WriteString(PriorityDot(p))
	}
	width := len(shown)
	if more {
		b.WriteString("+")
		width++
	}
	return b.String() + strings.Repeat(" ", 8-width)
}

func RenderWeek(data WeekData) string {
	cols := make([]string, 0, len(data.Days))
	colStyle := lipgloss.NewStyle().Width(8)
	for _, day := range data.Days {
		var b strings.Builder
		label := day.Label
		switch {
		case day.IsFocus:
			label = focusStyle.Render(label)
		case day.IsToday:
			label = todayStyle.Render(label)
		}
		b.WriteString(label + "\n")
		if len(day.Items) == 0 {
			b.WriteString(outsideStyle.Render("-"))
		}
		for _, item := range day.Items {
			b.WriteString(PriorityDot(item.Priority) + renderTitle(item, 6) + "\n")
		}
		cols = append(cols, colStyle.Render(strings.TrimSuffix(b.String(), "\n")))
	}
	return headerStyle.Render(data.Title) + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func RenderDay(data DayData) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(data.Title) + "\n")
	for _, row := range data.Hours {
		b.WriteString(fmt.Sprintf("%02d:00 ", row.Hour))
		if len(row.Items) == 0 {
			b.WriteString(outsideStyle.Render("·") + "\n")
			continue
		}
		parts := make([]string, 0, len(row.Items))
		for _, item := range row.Items {
			parts = append(parts, fmt.Sprintf("%s %s %s", PriorityDot(item.Priority), item.Time, renderTitle(item, 36)))
		}
		b.WriteString(strings.Join(parts, "  ") + "\n")
	}
	if len(data.Unscheduled) > 0 {
		b.WriteString("\nanytime:\n")
		for _, item := range data.Unscheduled {
			b.WriteString(fmt.Sprintf("  %s %s\n", PriorityDot(item.Priority), renderTitle(item, 48)))
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func renderTitle(item AgendaItemData, width int) string {
	title := Truncate(item.Title, width)
	if item.Completed {
		return doneStyle.Render(title)
	}
	return title
}

func RenderAgendaPanel(data AgendaPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("agenda %s  %d/%d done\n", data.Date, data.Done, data.Total))
	if data.ProgressView != "" {
		b.WriteString(data.ProgressView + "\n")
	}
	if data.Total == 0 {
		b.WriteString(outsideStyle.Render("(nothing scheduled)"))
		return b.String()
	}
	b.WriteString(data.TableView + "\n")
	if data.Selected != nil {
		sel := data.Selected
		b.WriteString(fmt.Sprintf("\n%s %s\n", cursorStyle.Render(">"), sel.Title))
		b.WriteString(fmt.Sprintf("id: %s  priority: %s  repeat: %s\n", shortID(sel.ID), PriorityLabel(sel.Priority), sel.Repeat))
		if data.NoteView != "" {
			b.WriteString(data.NoteView + "\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderFormPanel(data FormPanelData) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(data.Title) + "\n")
	b.WriteString("keys: [tab] next field [shift+tab] prev [ctrl+s] save [esc] cancel\n\n")
	for _, f := range data.Fields {
		marker := " "
		if f.Focused {
			marker = cursorStyle.Render(">")
		}
		b.WriteString(fmt.Sprintf("%s %-9s %s\n", marker, f.Label+":", f.View))
	}
	if data.ErrorText != "" {
		b.WriteString("\n" + errorStyle.Render("error: "+data.ErrorText))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCommandPalette(active bool, inputView string) string {
	if !active {
		return ""
	}
	return "\n" + inputView
}

func RenderNotification(lines []string) string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, "notification: "+line)
		}
	}
	return strings.Join(out, "\n")
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help (%s view):\n%s\n\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
