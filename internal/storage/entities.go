package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sandeepkv93/taskcal/internal/model"
)

const timeLayout = time.RFC3339Nano

// taskRow is the column form of a task. Dates, times and timestamps are
// stored as text so both dialects share one schema.
type taskRow struct {
	ID        string
	Position  int
	Title     string
	Date      string
	Time      sql.NullString
	Priority  string
	Completed int
	Repeat    string
	Note      string
	Reminder  sql.NullString
	CreatedAt string
	UpdatedAt string
}

func rowFromTask(t model.Task, position int) taskRow {
	row := taskRow{
		ID:        t.ID,
		Position:  position,
		Title:     t.Title,
		Date:      t.Date.String(),
		Priority:  string(t.Priority),
		Completed: boolInt(t.Completed),
		Repeat:    string(t.Repeat),
		Note:      t.Note,
		CreatedAt: mustTime(t.CreatedAt),
		UpdatedAt: mustTime(t.UpdatedAt),
	}
	if t.Time != nil {
		row.Time = sql.NullString{String: t.Time.String(), Valid: true}
	}
	if t.Reminder != nil {
		row.Reminder = sql.NullString{String: mustTime(*t.Reminder), Valid: true}
	}
	return row
}

func (r taskRow) task() (model.Task, error) {
	date, err := model.ParseDate(r.Date)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %s: %w", r.ID, err)
	}
	created, err := parseRequiredTime(r.CreatedAt)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %s created_at: %w", r.ID, err)
	}
	updated, err := parseRequiredTime(r.UpdatedAt)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %s updated_at: %w", r.ID, err)
	}
	reminder, err := parseNullableTime(r.Reminder)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %s reminder_at: %w", r.ID, err)
	}
	out := model.Task{
		ID:        r.ID,
		Title:     r.Title,
		Date:      date,
		Priority:  model.Priority(r.Priority),
		Completed: r.Completed == 1,
		Repeat:    model.Repeat(r.Repeat),
		Note:      r.Note,
		Reminder:  reminder,
		CreatedAt: created,
		UpdatedAt: updated,
	}
	if r.Time.Valid && r.Time.String != "" {
		tm, err := model.ParseTimeOfDay(r.Time.String)
		if err != nil {
			return model.Task{}, fmt.Errorf("task %s: %w", r.ID, err)
		}
		out.Time = &tm
	}
	if out.Repeat == "" {
		out.Repeat = model.RepeatNone
	}
	if out.Priority == "" {
		out.Priority = model.PriorityMedium
	}
	return out, nil
}

func mustTime(v time.Time) string {
	return v.UTC().Format(timeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	parsed, err := time.Parse(timeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(timeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
