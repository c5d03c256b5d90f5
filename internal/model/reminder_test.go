package model

import (
	"errors"
	"testing"
	"time"
)

func TestNoticeValidate(t *testing.T) {
	at := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	task := Task{ID: "task-1", Title: "Standup", Date: MustParseDate("2024-01-05")}
	if err := DueNotice(task, at).Validate(); err != nil {
		t.Fatalf("expected valid due notice, got error: %v", err)
	}
	if err := DigestNotice(2, at).Validate(); err != nil {
		t.Fatalf("expected valid digest notice, got error: %v", err)
	}

	bad := DueNotice(task, at)
	bad.Kind = NoticeKind("other")
	if err := bad.Validate(); !errors.Is(err, ErrInvalidNoticeKind) {
		t.Fatalf("expected ErrInvalidNoticeKind, got: %v", err)
	}

	bad = DueNotice(task, at)
	bad.TaskID = ""
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for due notice without task id")
	}
}

func TestDigestNoticeBody(t *testing.T) {
	at := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	if got := DigestNotice(3, at).Body; got != "You have 3 open tasks today" {
		t.Fatalf("unexpected body: %q", got)
	}
	if got := DigestNotice(1, at).Body; got != "You have 1 open task today" {
		t.Fatalf("unexpected body: %q", got)
	}
}

func TestDueNoticeBodyIncludesTime(t *testing.T) {
	tm := TimeOfDay{Hour: 14, Minute: 30}
	task := Task{ID: "t", Title: "Dentist", Date: MustParseDate("2024-03-02"), Time: &tm}
	n := DueNotice(task, time.Now())
	if n.Body != "2024-03-02 14:30" || n.TaskID != "t" {
		t.Fatalf("unexpected notice: %+v", n)
	}
}
