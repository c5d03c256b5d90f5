package model

import (
	"fmt"
	"time"
)

// Step advances d by one interval of r. RepeatNone returns d unchanged.
func (r Repeat) Step(d Date) Date {
	switch r {
	case RepeatDaily:
		return d.AddDays(1)
	case RepeatWeekly:
		return d.AddDays(7)
	case RepeatMonthly:
		return d.AddMonths(1)
	default:
		return d
	}
}

// NextOnOrAfter steps from anchor until the result is not before ref. Each step
// starts from the previous result, so monthly series anchored on the 31st
// settle on the clamped day once they pass a short month.
func (r Repeat) NextOnOrAfter(anchor, ref Date) (Date, error) {
	if r == RepeatNone || !r.IsValid() {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidRepeat, r)
	}
	next := anchor
	for next.Before(ref) {
		next = r.Step(next)
	}
	return next, nil
}

// Preview lists the next count occurrences strictly after anchor.
func (r Repeat) Preview(anchor Date, count int) []Date {
	if count <= 0 || r == RepeatNone || !r.IsValid() {
		return []Date{}
	}
	out := make([]Date, 0, count)
	cursor := anchor
	for i := 0; i < count; i++ {
		cursor = r.Step(cursor)
		out = append(out, cursor)
	}
	return out
}

// SameSeries reports whether a and b are treated as occurrences of one
// recurring series. Series have no key of their own; title and cadence stand in.
func SameSeries(a, b Task) bool {
	return a.Title == b.Title && a.Repeat == b.Repeat
}

// Expander materializes the next occurrence of overdue repeating tasks.
type Expander struct {
	NewID func() string
	Now   func() time.Time
}

// Expand returns tasks with one new record appended for every repeating task
// dated before ref whose series has no record on or after ref in tasks.
// Input records are never modified or removed. When two overdue records of a
// series land on the same date only the first occurrence is kept.
func (e Expander) Expand(tasks []Task, ref Date) []Task {
	out := make([]Task, len(tasks), len(tasks)+1)
	copy(out, tasks)

	for _, t := range tasks {
		if !t.IsRepeating() || !t.Date.Before(ref) {
			continue
		}
		if hasOccurrence(tasks, t, func(d Date) bool { return !d.Before(ref) }) {
			continue
		}
		next, err := t.Repeat.NextOnOrAfter(t.Date, ref)
		if err != nil {
			continue
		}
		if hasOccurrence(out[len(tasks):], t, func(d Date) bool { return d == next }) {
			continue
		}
		out = append(out, e.occurrence(t, next))
	}
	return out
}

// Materialized returns only the records Expand would append.
func (e Expander) Materialized(tasks []Task, ref Date) []Task {
	expanded := e.Expand(tasks, ref)
	return expanded[len(tasks):]
}

func (e Expander) occurrence(t Task, date Date) Task {
	now := time.Now().UTC()
	if e.Now != nil {
		now = e.Now()
	}
	id := ""
	if e.NewID != nil {
		id = e.NewID()
	}
	next := t
	next.ID = id
	next.Date = date
	next.Completed = false
	next.CreatedAt = now
	next.UpdatedAt = now
	if t.Time != nil {
		tm := *t.Time
		next.Time = &tm
	}
	if t.Reminder != nil {
		shift := date.In(time.UTC).Sub(t.Date.In(time.UTC))
		r := t.Reminder.Add(shift)
		next.Reminder = &r
	}
	return next
}

func hasOccurrence(tasks []Task, t Task, match func(Date) bool) bool {
	for _, other := range tasks {
		if SameSeries(other, t) && match(other.Date) {
			return true
		}
	}
	return false
}
