package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEmptyTitle      = errors.New("model: task title is required")
	ErrInvalidPriority = errors.New("model: invalid task priority")
	ErrInvalidRepeat   = errors.New("model: invalid repeat rule")
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Rank orders priorities for display; higher ranks sort first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
	}
	return p, nil
}

type Repeat string

const (
	RepeatNone    Repeat = "none"
	RepeatDaily   Repeat = "daily"
	RepeatWeekly  Repeat = "weekly"
	RepeatMonthly Repeat = "monthly"
)

func (r Repeat) IsValid() bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	default:
		return false
	}
}

func ParseRepeat(raw string) (Repeat, error) {
	r := Repeat(strings.ToLower(strings.TrimSpace(raw)))
	if r == "" {
		return RepeatNone, nil
	}
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRepeat, raw)
	}
	return r, nil
}

// Task is the only persisted entity. Its JSON form is the interchange record
// shared by every storage adapter.
type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Date      Date       `json:"date"`
	Time      *TimeOfDay `json:"time,omitempty"`
	Priority  Priority   `json:"priority"`
	Completed bool       `json:"completed"`
	Repeat    Repeat     `json:"repeat"`
	Note      string     `json:"note,omitempty"`
	Reminder  *time.Time `json:"reminder,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// LocalStampLayout is the zone-less ISO-8601 form older stores wrote.
const LocalStampLayout = "2006-01-02T15:04:05"

// ParseStamp reads an RFC 3339 timestamp, or a zone-less one as wall-clock
// time in loc.
func ParseStamp(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(LocalStampLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("model: invalid timestamp %q", raw)
	}
	return t, nil
}

// taskRecord is the stored shape with timestamps left as text.
type taskRecord struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Date      Date     `json:"date"`
	Time      *string  `json:"time"`
	Priority  Priority `json:"priority"`
	Completed bool     `json:"completed"`
	Repeat    Repeat   `json:"repeat"`
	Note      string   `json:"note"`
	Reminder  *string  `json:"reminder"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

func (r taskRecord) task(loc *time.Location) (Task, error) {
	t := Task{
		ID:        r.ID,
		Title:     r.Title,
		Date:      r.Date,
		Priority:  r.Priority,
		Completed: r.Completed,
		Repeat:    r.Repeat,
		Note:      r.Note,
	}
	if t.Repeat == "" {
		t.Repeat = RepeatNone
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if r.Time != nil && strings.TrimSpace(*r.Time) != "" {
		tm, err := ParseTimeOfDay(*r.Time)
		if err != nil {
			return Task{}, err
		}
		t.Time = &tm
	}
	var err error
	if r.CreatedAt != "" {
		if t.CreatedAt, err = ParseStamp(r.CreatedAt, loc); err != nil {
			return Task{}, err
		}
	}
	if r.UpdatedAt != "" {
		if t.UpdatedAt, err = ParseStamp(r.UpdatedAt, loc); err != nil {
			return Task{}, err
		}
	}
	if r.Reminder != nil && strings.TrimSpace(*r.Reminder) != "" {
		at, err := ParseStamp(*r.Reminder, loc)
		if err != nil {
			return Task{}, err
		}
		t.Reminder = &at
	}
	return t, nil
}

// UnmarshalJSON accepts older records that omit repeat or priority or carry
// zone-less timestamps, which are read in the local zone.
func (t *Task) UnmarshalJSON(b []byte) error {
	var r taskRecord
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	out, err := r.task(time.Local)
	if err != nil {
		return err
	}
	*t = out
	return nil
}

// DecodeTasks reads a JSON array of task records. Zone-less timestamps are
// read as wall-clock time in loc.
func DecodeTasks(b []byte, loc *time.Location) ([]Task, error) {
	var records []taskRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, err
	}
	out := make([]Task, 0, len(records))
	for i, r := range records {
		t, err := r.task(loc)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (t Task) IsRepeating() bool {
	return t.Repeat != "" && t.Repeat != RepeatNone
}

// HasTime reports whether the task is scheduled at a clock time on its date.
func (t Task) HasTime() bool {
	return t.Time != nil
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if err := t.Draft().Validate(); err != nil {
		return err
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task createdAt is required")
	}
	return nil
}

// Draft returns the user-editable fields of t.
func (t Task) Draft() Draft {
	return Draft{
		Title:     t.Title,
		Date:      t.Date,
		Time:      t.Time,
		Priority:  t.Priority,
		Completed: t.Completed,
		Repeat:    t.Repeat,
		Note:      t.Note,
		Reminder:  t.Reminder,
	}
}

// Draft holds the fields supplied by the user when creating a task.
type Draft struct {
	Title     string
	Date      Date
	Time      *TimeOfDay
	Priority  Priority
	Completed bool
	Repeat    Repeat
	Note      string
	Reminder  *time.Time
}

// Normalize trims text fields and fills defaults for empty enums.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Note = strings.TrimSpace(d.Note)
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if d.Repeat == "" {
		d.Repeat = RepeatNone
	}
	return d
}

func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	if !d.Date.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidDate, d.Date.String())
	}
	if d.Time != nil && !d.Time.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTime, d.Time.String())
	}
	if !d.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, d.Priority)
	}
	if !d.Repeat.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRepeat, d.Repeat)
	}
	return nil
}

// Patch is a partial update; nil fields are left untouched. ClearTime and
// ClearReminder remove the optional values.
type Patch struct {
	Title         *string
	Date          *Date
	Time          *TimeOfDay
	ClearTime     bool
	Priority      *Priority
	Completed     *bool
	Repeat        *Repeat
	Note          *string
	Reminder      *time.Time
	ClearReminder bool
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Date == nil && p.Time == nil && !p.ClearTime &&
		p.Priority == nil && p.Completed == nil && p.Repeat == nil && p.Note == nil &&
		p.Reminder == nil && !p.ClearReminder
}

// Apply merges p into t. It does not touch UpdatedAt.
func (p Patch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.ClearTime {
		t.Time = nil
	}
	if p.Time != nil {
		tm := *p.Time
		t.Time = &tm
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Repeat != nil {
		t.Repeat = *p.Repeat
	}
	if p.Note != nil {
		t.Note = strings.TrimSpace(*p.Note)
	}
	if p.ClearReminder {
		t.Reminder = nil
	}
	if p.Reminder != nil {
		r := *p.Reminder
		t.Reminder = &r
	}
	return t
}
