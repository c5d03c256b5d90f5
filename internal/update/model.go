package update

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/sandeepkv93/taskcal/internal/calendar"
	"github.com/sandeepkv93/taskcal/internal/model"
	"github.com/sandeepkv93/taskcal/internal/reminder"
	"github.com/sandeepkv93/taskcal/internal/scheduler"
	"github.com/sandeepkv93/taskcal/internal/todo"
)

type View string

const (
	ViewCalendar View = "Calendar"
	ViewForm     View = "Form"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Day     string
	Week    string
	Month   string
	Prev    string
	Next    string
	Today   string
	Down    string
	Up      string
	Toggle  string
	Add     string
	Edit    string
	Delete  string
	Palette string
	Help    string
	Quit    string
}

func DefaultKeys() GlobalKeyMap {
	return GlobalKeyMap{
		Day:     "d",
		Week:    "w",
		Month:   "m",
		Prev:    "h",
		Next:    "l",
		Today:   "t",
		Down:    "j",
		Up:      "k",
		Toggle:  " ",
		Add:     "a",
		Edit:    "e",
		Delete:  "x",
		Palette: "/",
		Help:    "?",
		Quit:    "q",
	}
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// maxNotifications bounds the reminder lines kept for the notification pane.
const maxNotifications = 5

// Deps wires the model to the task service and the reminder pipeline. Engine,
// Planner and Notifier may be nil.
type Deps struct {
	Service   *todo.Service
	Engine    *scheduler.Engine
	Planner   *reminder.Planner
	Notifier  reminder.Notifier
	Mode      calendar.Mode
	WeekStart time.Weekday
	DayFrom   int
	DayTo     int
	Logger    *slog.Logger
}

type Model struct {
	CurrentView   View
	Mode          calendar.Mode
	Focus         model.Date
	Today         model.Date
	WeekStart     time.Weekday
	DayFrom       int
	DayTo         int
	Cursor        int
	Palette       CommandPaletteState
	Form          FormState
	HelpVisible   bool
	Notifications []string
	Status        StatusBar
	Keys          GlobalKeyMap
	Quitting      bool
	LastError     error

	service  *todo.Service
	engine   *scheduler.Engine
	planner  *reminder.Planner
	notifier reminder.Notifier
	logger   *slog.Logger

	agendaTable  table.Model
	commandInput textinput.Model
	dayProgress  progress.Model
	noteViewport viewport.Model
	helpModel    help.Model
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type ReminderDueMsg struct {
	Event scheduler.Event
}

// DayTickMsg drives the day-rollover check.
type DayTickMsg struct {
	At time.Time
}

func NewModel(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if !deps.Mode.IsValid() {
		deps.Mode = calendar.ModeMonth
	}
	if deps.DayTo <= deps.DayFrom {
		deps.DayFrom, deps.DayTo = 7, 22
	}
	today := deps.Service.Today()
	m := Model{
		CurrentView: ViewCalendar,
		Mode:        deps.Mode,
		Focus:       today,
		Today:       today,
		WeekStart:   deps.WeekStart,
		DayFrom:     deps.DayFrom,
		DayTo:       deps.DayTo,
		Keys:        DefaultKeys(),
		service:     deps.Service,
		engine:      deps.Engine,
		planner:     deps.Planner,
		notifier:    deps.Notifier,
		logger:      deps.Logger,
	}
	m.initBubbleComponents()
	m.Form = newFormState()
	return m
}

func (m *Model) initBubbleComponents() {
	cols := []table.Column{
		{Title: "Time", Width: 6},
		{Title: "Pri", Width: 7},
		{Title: "Title", Width: 22},
		{Title: "Done", Width: 4},
	}
	m.agendaTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(8))

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 44

	m.dayProgress = progress.New(progress.WithDefaultGradient(), progress.WithWidth(30))
	m.helpModel = help.New()
	m.noteViewport = viewport.New(48, 6)
}

func (m Model) ctx() context.Context {
	return context.Background()
}

// agenda is the task list for the focus date in display order; Cursor
// indexes into it.
func (m Model) agenda() []model.Task {
	return calendar.TasksOnDate(m.service.Tasks(), m.Focus)
}

func (m Model) selectedTask() (model.Task, bool) {
	items := m.agenda()
	if m.Cursor < 0 || m.Cursor >= len(items) {
		return model.Task{}, false
	}
	return items[m.Cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.agenda())
	if m.Cursor >= n {
		m.Cursor = n - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m *Model) setFocus(d model.Date) {
	if d != m.Focus {
		m.Cursor = 0
	}
	m.Focus = d
}

func (m *Model) notify(line string) {
	m.Notifications = append(m.Notifications, line)
	if len(m.Notifications) > maxNotifications {
		m.Notifications = m.Notifications[len(m.Notifications)-maxNotifications:]
	}
}
