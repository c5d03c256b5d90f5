package update

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/taskcal/internal/calendar"
	"github.com/sandeepkv93/taskcal/internal/model"
	"github.com/sandeepkv93/taskcal/internal/reminder"
	"github.com/sandeepkv93/taskcal/internal/scheduler"
	"github.com/sandeepkv93/taskcal/internal/storage"
	"github.com/sandeepkv93/taskcal/internal/todo"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notice
	err  error
}

func (r *recordingNotifier) Send(_ context.Context, n model.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

func newTestService(t *testing.T) (*todo.Service, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}
	svc := todo.NewService(storage.NewJSONFile(filepath.Join(t.TempDir(), "tasks.json")), todo.Options{
		Now:      clock.Now,
		Location: time.UTC,
	})
	if err := svc.Open(context.Background()); err != nil {
		t.Fatalf("open service: %v", err)
	}
	return svc, clock
}

func newTestModel(t *testing.T) (Model, *todo.Service, *testClock) {
	t.Helper()
	svc, clock := newTestService(t)
	return NewModel(Deps{Service: svc, WeekStart: time.Monday}), svc, clock
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func mustAdd(t *testing.T, svc *todo.Service, d model.Draft) model.Task {
	t.Helper()
	task, err := svc.Add(context.Background(), d)
	if err != nil {
		t.Fatalf("add %q: %v", d.Title, err)
	}
	return task
}

func TestNewModelDefaults(t *testing.T) {
	m, _, _ := newTestModel(t)
	if m.CurrentView != ViewCalendar {
		t.Fatalf("expected calendar view, got %q", m.CurrentView)
	}
	if m.Mode != calendar.ModeMonth {
		t.Fatalf("expected month mode, got %q", m.Mode)
	}
	if m.Focus.String() != "2024-01-15" || m.Today != m.Focus {
		t.Fatalf("unexpected focus/today: %s %s", m.Focus, m.Today)
	}
	if m.Keys.Quit != "q" || m.Keys.Toggle != " " {
		t.Fatalf("unexpected keys: %+v", m.Keys)
	}
}

func TestCalendarModeAndNavigation(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(t, m, runes("w"), runes("l"))
	if m.Mode != calendar.ModeWeek || m.Focus.String() != "2024-01-22" {
		t.Fatalf("week next: mode=%s focus=%s", m.Mode, m.Focus)
	}

	m = press(t, m, runes("m"), runes("h"))
	if m.Mode != calendar.ModeMonth || m.Focus.String() != "2023-12-22" {
		t.Fatalf("month prev: mode=%s focus=%s", m.Mode, m.Focus)
	}

	m = press(t, m, runes("d"), runes("h"))
	if m.Mode != calendar.ModeDay || m.Focus.String() != "2023-12-21" {
		t.Fatalf("day prev: mode=%s focus=%s", m.Mode, m.Focus)
	}

	m = press(t, m, runes("t"))
	if m.Focus != m.Today {
		t.Fatalf("expected focus on today, got %s", m.Focus)
	}
}

func TestAgendaCursorToggleAndDelete(t *testing.T) {
	m, svc, _ := newTestModel(t)
	today := svc.Today()
	mustAdd(t, svc, model.Draft{Title: "Low one", Date: today, Priority: model.PriorityLow})
	high := mustAdd(t, svc, model.Draft{Title: "High one", Date: today, Priority: model.PriorityHigh})

	sel, ok := m.selectedTask()
	if !ok || sel.ID != high.ID {
		t.Fatalf("expected high priority task first, got %+v", sel)
	}

	m = press(t, m, runes("j"), runes("j"))
	if m.Cursor != 1 {
		t.Fatalf("cursor must stop at the last item, got %d", m.Cursor)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	sel, _ = m.selectedTask()
	if !sel.Completed {
		t.Fatalf("expected selected task completed, got %+v", sel)
	}
	if !strings.HasPrefix(m.Status.Text, "completed") {
		t.Fatalf("unexpected status: %+v", m.Status)
	}

	m = press(t, m, runes("x"))
	if len(svc.Tasks()) != 1 {
		t.Fatalf("expected one task left, got %d", len(svc.Tasks()))
	}
	if m.Cursor != 0 {
		t.Fatalf("cursor must be clamped after delete, got %d", m.Cursor)
	}
}

func TestFormAddTask(t *testing.T) {
	m, svc, _ := newTestModel(t)
	m = press(t, m, runes("a"))
	if m.CurrentView != ViewForm || m.Form.EditID != "" {
		t.Fatalf("expected add form, got view=%s edit=%q", m.CurrentView, m.Form.EditID)
	}
	if m.Form.value(fieldDate) != "2024-01-15" {
		t.Fatalf("expected focus date prefilled, got %q", m.Form.value(fieldDate))
	}

	m.Form.setValue(fieldTitle, "Dentist")
	m.Form.setValue(fieldTime, "14:30")
	m.Form.setValue(fieldPriority, "high")
	m.Form.setValue(fieldReminder, "14:00")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	if m.CurrentView != ViewCalendar {
		t.Fatalf("expected form closed, got %s (err=%q)", m.CurrentView, m.Form.Err)
	}
	tasks := svc.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Title != "Dentist" || got.Priority != model.PriorityHigh || got.Time == nil || got.Time.String() != "14:30" {
		t.Fatalf("unexpected task: %+v", got)
	}
	want := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)
	if got.Reminder == nil || !got.Reminder.Equal(want) {
		t.Fatalf("unexpected reminder: %v", got.Reminder)
	}
}

func TestFormRejectsInvalidInput(t *testing.T) {
	m, svc, _ := newTestModel(t)
	m = press(t, m, runes("a"), tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.CurrentView != ViewForm {
		t.Fatal("form must stay open on validation error")
	}
	if !strings.Contains(m.Form.Err, "title") {
		t.Fatalf("expected title error, got %q", m.Form.Err)
	}

	m.Form.setValue(fieldTitle, "Rent")
	m.Form.setValue(fieldRepeat, "yearly")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.CurrentView != ViewForm || !strings.Contains(m.Form.Err, "repeat") {
		t.Fatalf("expected repeat error, got view=%s err=%q", m.CurrentView, m.Form.Err)
	}
	if len(svc.Tasks()) != 0 {
		t.Fatal("invalid input must not create a task")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.CurrentView != ViewCalendar || m.Status.Text != "edit cancelled" {
		t.Fatalf("unexpected state after esc: %s %+v", m.CurrentView, m.Status)
	}
}

func TestFormEditTask(t *testing.T) {
	m, svc, _ := newTestModel(t)
	tm := model.TimeOfDay{Hour: 8}
	task := mustAdd(t, svc, model.Draft{Title: "Standup", Date: svc.Today(), Time: &tm})

	m = press(t, m, runes("e"))
	if m.Form.EditID != task.ID || m.Form.value(fieldTime) != "08:00" {
		t.Fatalf("edit form not populated: id=%q time=%q", m.Form.EditID, m.Form.value(fieldTime))
	}

	m.Form.setValue(fieldTime, "")
	m.Form.setValue(fieldDate, "2024-01-16")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	got, ok := svc.Get(task.ID)
	if !ok || got.Time != nil || got.Date.String() != "2024-01-16" {
		t.Fatalf("unexpected edited task: %+v", got)
	}
	if m.Focus.String() != "2024-01-16" {
		t.Fatalf("focus should follow the edited task, got %s", m.Focus)
	}
}

func TestFormTabCyclesFields(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, runes("a"))
	for i := 0; i < fieldCount; i++ {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}
	if m.Form.Focus != fieldTitle {
		t.Fatalf("expected focus to wrap to title, got %d", m.Form.Focus)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.Form.Focus != fieldNote {
		t.Fatalf("expected shift+tab to wrap to note, got %d", m.Form.Focus)
	}
}

func TestPaletteAddGotoAndView(t *testing.T) {
	m, svc, _ := newTestModel(t)

	m = press(t, m, runes("/"), runes("add Rent 2024-01-31 !high every:monthly"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.Palette.Active {
		t.Fatal("palette must close after enter")
	}
	tasks := svc.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("expected one task, got %d (status %+v)", len(tasks), m.Status)
	}
	if tasks[0].Title != "Rent" || tasks[0].Repeat != model.RepeatMonthly || tasks[0].Priority != model.PriorityHigh {
		t.Fatalf("unexpected task: %+v", tasks[0])
	}
	if m.Focus.String() != "2024-01-31" {
		t.Fatalf("focus should move to the new task, got %s", m.Focus)
	}

	m = press(t, m, runes("/"), runes("goto +2"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.Focus.String() != "2024-02-02" {
		t.Fatalf("unexpected focus after goto: %s", m.Focus)
	}

	m = press(t, m, runes("/"), runes("view week"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.Mode != calendar.ModeWeek {
		t.Fatalf("expected week mode, got %s", m.Mode)
	}
}

func TestPaletteDoneByPrefixAndErrors(t *testing.T) {
	m, svc, _ := newTestModel(t)
	task := mustAdd(t, svc, model.Draft{Title: "Laundry", Date: svc.Today()})

	m = press(t, m, runes("/"), runes("done "+task.ID[:8]), tea.KeyMsg{Type: tea.KeyEnter})
	got, _ := svc.Get(task.ID)
	if !got.Completed || m.Status.IsError {
		t.Fatalf("expected completion, got %+v status %+v", got, m.Status)
	}

	m = press(t, m, runes("/"), runes("delete zzzz"), tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "no task matching") {
		t.Fatalf("expected unknown target error, got %+v", m.Status)
	}

	m = press(t, m, runes("/"), runes("fly away"), tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "unknown_command") {
		t.Fatalf("expected unknown command error, got %+v", m.Status)
	}

	m = press(t, m, runes("/"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.Palette.Active || m.Status.Text != "command palette closed" {
		t.Fatalf("unexpected palette state: %+v %+v", m.Palette, m.Status)
	}
}

func TestReminderDueMsgNotifies(t *testing.T) {
	svc, _ := newTestService(t)
	at := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	tm := model.TimeOfDay{Hour: 10}
	task := mustAdd(t, svc, model.Draft{Title: "Call bank", Date: svc.Today(), Time: &tm, Reminder: &at})

	engine := scheduler.NewEngine(4)
	notifier := &recordingNotifier{}
	m := NewModel(Deps{
		Service:  svc,
		Planner:  reminder.NewPlanner(engine, svc, nil, nil),
		Notifier: notifier,
	})

	updated, cmd := m.Update(ReminderDueMsg{Event: scheduler.Event{TaskID: task.ID, Title: task.Title, TriggerAt: at}})
	next := updated.(Model)
	if len(next.Notifications) != 1 || !strings.Contains(next.Notifications[0], "Call bank") {
		t.Fatalf("unexpected notifications: %v", next.Notifications)
	}
	if cmd == nil {
		t.Fatal("expected a notifier command")
	}
	if msg := cmd(); msg != nil {
		t.Fatalf("unexpected notifier result: %#v", msg)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Body != "2024-01-15 10:00" {
		t.Fatalf("unexpected notices: %+v", notifier.sent)
	}

	svc.Toggle(context.Background(), task.ID)
	updated, _ = next.Update(ReminderDueMsg{Event: scheduler.Event{TaskID: task.ID, TriggerAt: at}})
	if len(updated.(Model).Notifications) != 1 {
		t.Fatal("completed tasks must not notify")
	}
}

func TestNotifierFailureBecomesAppError(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("no display")}
	cmd := sendNoticeCmd(notifier, model.Notice{Kind: model.NoticeDue, TaskID: "t", Title: "x", At: time.Now()})
	msg, ok := cmd().(AppErrorMsg)
	if !ok || !strings.Contains(msg.Err.Error(), "no display") {
		t.Fatalf("expected AppErrorMsg, got %#v", msg)
	}
}

func TestDayTickRollsOverAndMaterializes(t *testing.T) {
	m, svc, clock := newTestModel(t)
	mustAdd(t, svc, model.Draft{Title: "Standup", Date: svc.Today(), Repeat: model.RepeatDaily})

	m = press(t, m, DayTickMsg{At: clock.Now()})
	if m.Today.String() != "2024-01-15" {
		t.Fatalf("no rollover expected yet, got %s", m.Today)
	}

	clock.advance(24 * time.Hour)
	m = press(t, m, DayTickMsg{At: clock.Now()})
	if m.Today.String() != "2024-01-16" || m.Focus != m.Today {
		t.Fatalf("expected rollover to 2024-01-16, got today=%s focus=%s", m.Today, m.Focus)
	}
	if got := len(calendar.TasksOnDate(svc.Tasks(), m.Today)); got != 1 {
		t.Fatalf("expected the series to be materialized on the new day, got %d", got)
	}
}

func TestDayTickPicksUpTasksAddedElsewhere(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	clock := &testClock{now: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}
	open := func() *todo.Service {
		svc := todo.NewService(storage.NewJSONFile(path), todo.Options{Now: clock.Now, Location: time.UTC})
		if err := svc.Open(context.Background()); err != nil {
			t.Fatalf("open service: %v", err)
		}
		return svc
	}
	svc := open()
	m := NewModel(Deps{Service: svc, WeekStart: time.Monday})

	mustAdd(t, open(), model.Draft{Title: "Dentist", Date: model.MustParseDate("2024-01-15")})
	if len(m.agenda()) != 0 {
		t.Fatalf("agenda should be empty before the tick")
	}

	m = press(t, m, DayTickMsg{At: clock.Now()})
	items := m.agenda()
	if len(items) != 1 || items[0].Title != "Dentist" {
		t.Fatalf("expected Dentist after the tick, got %+v", items)
	}
}

func TestUpdateStatusAndError(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, SetStatusMsg{Text: "ready"})
	if m.Status.Text != "ready" || m.Status.IsError {
		t.Fatalf("unexpected status: %+v", m.Status)
	}

	m = press(t, m, AppErrorMsg{Err: errors.New("boom")})
	if m.LastError == nil || !m.Status.IsError || m.Status.Text != "boom" {
		t.Fatalf("unexpected error state: %v %+v", m.LastError, m.Status)
	}

	m = press(t, m, ClearStatusMsg{})
	if m.Status.Text != "" || m.Status.IsError {
		t.Fatalf("expected cleared status, got %+v", m.Status)
	}
}

func TestHelpToggleAndQuit(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, runes("?"))
	if !m.HelpVisible || !strings.Contains(m.renderHelpView(), "toggle complete") {
		t.Fatal("expected help with calendar bindings")
	}

	updated, cmd := m.Update(runes("q"))
	if !updated.(Model).Quitting || cmd == nil {
		t.Fatal("expected quit")
	}
}

func TestViewRendersModes(t *testing.T) {
	m, svc, _ := newTestModel(t)
	tm := model.TimeOfDay{Hour: 9, Minute: 15}
	mustAdd(t, svc, model.Draft{Title: "Standup", Date: svc.Today(), Time: &tm, Priority: model.PriorityHigh})

	out := m.View()
	for _, want := range []string{"January 2024", "agenda 2024-01-15", "Standup"} {
		if !strings.Contains(out, want) {
			t.Fatalf("month view missing %q:\n%s", want, out)
		}
	}

	m = press(t, m, runes("d"))
	out = m.View()
	if !strings.Contains(out, "09:00") || !strings.Contains(out, "Monday, January 15 2024") {
		t.Fatalf("day view missing hour row or title:\n%s", out)
	}

	m = press(t, m, runes("a"))
	if !strings.Contains(m.View(), "New task") {
		t.Fatal("form view not rendered")
	}
}

func TestParseReminder(t *testing.T) {
	date := model.MustParseDate("2024-03-10")
	loc := time.FixedZone("X", 2*3600)

	at, err := parseReminder("08:30", date, loc)
	if err != nil || !at.Equal(time.Date(2024, 3, 10, 6, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected reminder: %v %v", at, err)
	}
	at, err = parseReminder("2024-03-09 20:00", date, loc)
	if err != nil || !at.Equal(time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected reminder: %v %v", at, err)
	}
	if at, err := parseReminder("", date, loc); at != nil || err != nil {
		t.Fatalf("empty reminder must be nil, got %v %v", at, err)
	}
	if _, err := parseReminder("soon", date, loc); err == nil {
		t.Fatal("expected error for bad reminder")
	}
}
