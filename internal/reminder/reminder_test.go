package reminder

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/taskcal/internal/model"
	"github.com/sandeepkv93/taskcal/internal/scheduler"
	"github.com/sandeepkv93/taskcal/internal/todo"
)

type staticSource struct {
	mu    sync.Mutex
	tasks []model.Task
	today model.Date
}

func (s *staticSource) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *staticSource) Today() model.Date { return s.today }

func (s *staticSource) Get(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []model.Notice
	err     error
}

func (r *recordingNotifier) Send(_ context.Context, n model.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return r.err
}

func (r *recordingNotifier) all() []model.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

func TestDigestCountsOpenTasksToday(t *testing.T) {
	today := model.MustParseDate("2024-01-05")
	done := model.Task{ID: "c", Title: "done", Date: today, Completed: true}
	src := &staticSource{today: today, tasks: []model.Task{
		{ID: "a", Title: "one", Date: today},
		{ID: "b", Title: "two", Date: today},
		done,
		{ID: "d", Title: "tomorrow", Date: today.AddDays(1)},
	}}
	rec := &recordingNotifier{}
	d, err := NewDigest(src, rec, DigestOptions{Location: time.UTC})
	if err != nil {
		t.Fatalf("new digest: %v", err)
	}
	if n := d.RunOnce(context.Background()); n != 2 {
		t.Fatalf("expected 2 open tasks, got %d", n)
	}
	got := rec.all()
	if len(got) != 1 || got[0].Body != "You have 2 open tasks today" || got[0].Kind != model.NoticeDigest {
		t.Fatalf("unexpected notices: %+v", got)
	}
}

func TestDigestSilentWhenNothingOpen(t *testing.T) {
	src := &staticSource{today: model.MustParseDate("2024-01-05")}
	rec := &recordingNotifier{}
	d, err := NewDigest(src, rec, DigestOptions{Spec: "@every 1h"})
	if err != nil {
		t.Fatalf("new digest: %v", err)
	}
	if n := d.RunOnce(context.Background()); n != 0 || len(rec.all()) != 0 {
		t.Fatalf("expected no notification, got %d %+v", n, rec.all())
	}
}

func TestDigestRejectsBadSpec(t *testing.T) {
	if _, err := NewDigest(&staticSource{}, nil, DigestOptions{Spec: "every tuesday"}); err == nil {
		t.Fatal("expected invalid schedule error")
	}
}

func TestScheduleSpec(t *testing.T) {
	cases := map[string]string{
		"":          "@hourly",
		"@daily":    "@daily",
		"09:30":     "30 9 * * *",
		"30m":       "@every 30m0s",
		"0 8 * * 1": "0 8 * * 1",
	}
	for in, want := range cases {
		got, err := ScheduleSpec(in)
		if err != nil || got != want {
			t.Fatalf("ScheduleSpec(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, bad := range []string{"25:00", "soon", "1ms"} {
		if _, err := ScheduleSpec(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestWriterNotifierFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriterNotifier(&buf)
	at := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	if err := n.Send(context.Background(), model.DigestNotice(1, at)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := buf.String(); got != "[digest] taskcal: You have 1 open task today\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestMultiReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingNotifier{err: boom}
	b := &recordingNotifier{}
	err := Multi{a, b}.Send(context.Background(), model.DigestNotice(1, time.Now()))
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(b.all()) != 1 {
		t.Fatal("second notifier must still be called")
	}
}

func TestEscapeAppleScript(t *testing.T) {
	if got := escapeAppleScript(`say "hi" \ bye`); got != `say \"hi\" \\ bye` {
		t.Fatalf("unexpected escape: %s", got)
	}
}

func TestPlannerSchedulesAndDelivers(t *testing.T) {
	now := time.Now()
	soon := now.Add(30 * time.Millisecond)
	past := now.Add(-time.Hour)
	src := &staticSource{tasks: []model.Task{
		{ID: "due", Title: "Call mom", Date: model.DateOf(now), Reminder: &soon},
		{ID: "old", Title: "Missed", Date: model.DateOf(now), Reminder: &past},
		{ID: "plain", Title: "No reminder", Date: model.DateOf(now)},
	}}
	engine := scheduler.NewEngine(8)
	engine.Start()
	defer engine.Stop()

	planner := NewPlanner(engine, src, nil, nil)
	if n := planner.Sync(); n != 1 {
		t.Fatalf("expected one scheduled reminder, got %d", n)
	}

	rec := &recordingNotifier{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		planner.Run(ctx, rec)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for len(rec.all()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	got := rec.all()
	if len(got) != 1 || got[0].TaskID != "due" || got[0].Kind != model.NoticeDue {
		t.Fatalf("unexpected delivered notices: %+v", got)
	}
	if !strings.Contains(got[0].Title, "Call mom") {
		t.Fatalf("unexpected notice title: %q", got[0].Title)
	}
}

func TestPlannerHandleChange(t *testing.T) {
	later := time.Now().Add(time.Hour)
	task := model.Task{ID: "t1", Title: "Dentist", Reminder: &later}
	src := &staticSource{tasks: []model.Task{task}}
	engine := scheduler.NewEngine(1)
	planner := NewPlanner(engine, src, nil, nil)

	planner.HandleChange(todo.Change{Kind: todo.ChangeAdded, Task: task})
	if engine.Pending() != 1 {
		t.Fatalf("expected pending reminder, got %d", engine.Pending())
	}

	task.Completed = true
	planner.HandleChange(todo.Change{Kind: todo.ChangeUpdated, Task: task})
	if engine.Pending() != 0 {
		t.Fatalf("completed task must cancel its reminder, got %d", engine.Pending())
	}

	task.Completed = false
	planner.HandleChange(todo.Change{Kind: todo.ChangeUpdated, Task: task})
	planner.HandleChange(todo.Change{Kind: todo.ChangeRemoved, Task: task})
	if engine.Pending() != 0 {
		t.Fatalf("removed task must cancel its reminder, got %d", engine.Pending())
	}
}

func TestPlannerNoticeSkipsCompleted(t *testing.T) {
	src := &staticSource{tasks: []model.Task{{ID: "x", Title: "done", Completed: true}}}
	planner := NewPlanner(scheduler.NewEngine(1), src, nil, nil)
	if _, ok := planner.Notice(scheduler.Event{TaskID: "x", TriggerAt: time.Now()}); ok {
		t.Fatal("completed task must not produce a notice")
	}
	if _, ok := planner.Notice(scheduler.Event{TaskID: "gone", TriggerAt: time.Now()}); ok {
		t.Fatal("missing task must not produce a notice")
	}
}
