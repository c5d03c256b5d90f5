package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidNoticeKind = errors.New("model: invalid notice kind")

// NoticeKind says what produced a Notice.
type NoticeKind string

const (
	NoticeDue    NoticeKind = "due"
	NoticeDigest NoticeKind = "digest"
)

func (k NoticeKind) IsValid() bool {
	switch k {
	case NoticeDue, NoticeDigest:
		return true
	default:
		return false
	}
}

// Notice is a user-facing notification. Due notices belong to one task; digest
// notices summarize a day.
type Notice struct {
	Kind   NoticeKind
	TaskID string
	Title  string
	Body   string
	At     time.Time
}

func (n Notice) Validate() error {
	if !n.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidNoticeKind, n.Kind)
	}
	if strings.TrimSpace(n.Title) == "" {
		return errors.New("model: notice title is required")
	}
	if n.At.IsZero() {
		return errors.New("model: notice time is required")
	}
	if n.Kind == NoticeDue && strings.TrimSpace(n.TaskID) == "" {
		return errors.New("model: due notice task id is required")
	}
	return nil
}

// DueNotice builds the notice fired at t's reminder instant.
func DueNotice(t Task, at time.Time) Notice {
	body := t.Date.String()
	if t.Time != nil {
		body += " " + t.Time.String()
	}
	return Notice{
		Kind:   NoticeDue,
		TaskID: t.ID,
		Title:  t.Title,
		Body:   body,
		At:     at,
	}
}

// DigestNotice summarizes open tasks for a day.
func DigestNotice(open int, at time.Time) Notice {
	noun := "tasks"
	if open == 1 {
		noun = "task"
	}
	return Notice{
		Kind:  NoticeDigest,
		Title: "taskcal",
		Body:  fmt.Sprintf("You have %d open %s today", open, noun),
		At:    at,
	}
}
