package scheduler

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestEngineEmitsInTriggerOrder(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC()
	if err := engine.Schedule(Event{TaskID: "later", TriggerAt: now.Add(80 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule later: %v", err)
	}
	if err := engine.Schedule(Event{TaskID: "sooner", TriggerAt: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule sooner: %v", err)
	}

	first := waitEvent(t, engine.C(), time.Second)
	second := waitEvent(t, engine.C(), time.Second)
	if first.TaskID != "sooner" || second.TaskID != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.TaskID, second.TaskID)
	}
}

func TestEngineScheduleReplacesPendingEventForTask(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC()
	if err := engine.Schedule(Event{TaskID: "t1", Title: "old", TriggerAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := engine.Schedule(Event{TaskID: "t1", Title: "new", TriggerAt: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if engine.Pending() != 1 {
		t.Fatalf("expected one pending event, got %d", engine.Pending())
	}
	ev := waitEvent(t, engine.C(), time.Second)
	if ev.Title != "new" {
		t.Fatalf("expected rescheduled event, got %+v", ev)
	}
	if engine.Pending() != 0 {
		t.Fatalf("expected empty queue, got %d", engine.Pending())
	}
}

func TestEngineCancel(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		if err := engine.Schedule(Event{TaskID: fmt.Sprintf("t%d", i), TriggerAt: now.Add(40 * time.Millisecond)}); err != nil {
			t.Fatalf("schedule: %v", err)
		}
	}
	if !engine.Cancel("t1") {
		t.Fatal("expected cancel to find t1")
	}
	if engine.Cancel("t1") {
		t.Fatal("second cancel must report false")
	}

	got := map[string]bool{}
	got[waitEvent(t, engine.C(), time.Second).TaskID] = true
	got[waitEvent(t, engine.C(), time.Second).TaskID] = true
	if !got["t0"] || !got["t2"] || got["t1"] {
		t.Fatalf("unexpected delivered events: %v", got)
	}
	select {
	case ev := <-engine.C():
		t.Fatalf("cancelled event delivered: %+v", ev)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestEngineNonBlockingDropsWhenConsumerIsSlow(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		if err := engine.Schedule(Event{
			TaskID:    fmt.Sprintf("evt-%d", i),
			TriggerAt: now,
		}); err != nil {
			t.Fatalf("schedule event: %v", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if engine.Dropped() == 0 {
		t.Fatalf("expected dropped events > 0, got %d", engine.Dropped())
	}
}

func TestScheduleValidates(t *testing.T) {
	engine := NewEngine(1)
	if err := engine.Schedule(Event{TaskID: "bad"}); !errors.Is(err, ErrInvalidTriggerTime) {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
	if err := engine.Schedule(Event{TriggerAt: time.Now()}); !errors.Is(err, ErrMissingTaskID) {
		t.Fatalf("expected ErrMissingTaskID, got %v", err)
	}
	engine.Start()
	engine.Stop()
	if err := engine.Schedule(Event{TaskID: "late", TriggerAt: time.Now()}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func waitEvent(t *testing.T, ch <-chan Event, timeout time.Duration) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}
