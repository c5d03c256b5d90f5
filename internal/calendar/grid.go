package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/taskcal/internal/model"
)

type Mode string

const (
	ModeDay   Mode = "day"
	ModeWeek  Mode = "week"
	ModeMonth Mode = "month"
)

func (m Mode) IsValid() bool {
	switch m {
	case ModeDay, ModeWeek, ModeMonth:
		return true
	default:
		return false
	}
}

func ParseMode(raw string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(raw)))
	if !m.IsValid() {
		return "", fmt.Errorf("calendar: invalid view mode %q", raw)
	}
	return m, nil
}

// Cell is one square of the month grid.
type Cell struct {
	Date    model.Date
	InMonth bool
}

// StartOfWeek returns the first day of the week containing d.
func StartOfWeek(d model.Date, weekStart time.Weekday) model.Date {
	offset := (int(d.Weekday()) - int(weekStart) + 7) % 7
	return d.AddDays(-offset)
}

func EndOfWeek(d model.Date, weekStart time.Weekday) model.Date {
	return StartOfWeek(d, weekStart).AddDays(6)
}

// WeekDays returns the seven dates of the week containing d.
func WeekDays(d model.Date, weekStart time.Weekday) []model.Date {
	start := StartOfWeek(d, weekStart)
	out := make([]model.Date, 0, 7)
	for i := 0; i < 7; i++ {
		out = append(out, start.AddDays(i))
	}
	return out
}

// MonthGrid returns whole weeks covering the month of d, from the start of
// the week holding the 1st to the end of the week holding the last day.
func MonthGrid(d model.Date, weekStart time.Weekday) [][]Cell {
	first := d.StartOfMonth()
	last := d.EndOfMonth()
	cursor := StartOfWeek(first, weekStart)
	end := EndOfWeek(last, weekStart)

	weeks := make([][]Cell, 0, 6)
	for !cursor.After(end) {
		week := make([]Cell, 0, 7)
		for i := 0; i < 7; i++ {
			week = append(week, Cell{Date: cursor, InMonth: cursor.Month == d.Month && cursor.Year == d.Year})
			cursor = cursor.AddDays(1)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// DayHours lists the hour slots from..to inclusive, clamped to 0..23.
func DayHours(from, to int) []int {
	if from < 0 {
		from = 0
	}
	if to > 23 {
		to = 23
	}
	out := make([]int, 0, 24)
	for h := from; h <= to; h++ {
		out = append(out, h)
	}
	return out
}

// Shift moves d by delta periods of mode.
func Shift(mode Mode, d model.Date, delta int) model.Date {
	switch mode {
	case ModeDay:
		return d.AddDays(delta)
	case ModeMonth:
		return d.AddMonths(delta)
	default:
		return d.AddDays(7 * delta)
	}
}

// Range returns the first and last date shown by mode around d.
func Range(mode Mode, d model.Date, weekStart time.Weekday) (model.Date, model.Date) {
	switch mode {
	case ModeDay:
		return d, d
	case ModeMonth:
		grid := MonthGrid(d, weekStart)
		lastWeek := grid[len(grid)-1]
		return grid[0][0].Date, lastWeek[len(lastWeek)-1].Date
	default:
		return StartOfWeek(d, weekStart), EndOfWeek(d, weekStart)
	}
}

// Title is the heading for mode around d, e.g. "February 2024".
func Title(mode Mode, d model.Date, weekStart time.Weekday) string {
	switch mode {
	case ModeDay:
		return d.In(time.UTC).Format("Monday, January 2 2006")
	case ModeMonth:
		return d.In(time.UTC).Format("January 2006")
	default:
		start, end := Range(ModeWeek, d, weekStart)
		return fmt.Sprintf("%s - %s", start.In(time.UTC).Format("Jan 2"), end.In(time.UTC).Format("Jan 2 2006"))
	}
}

// ParseWeekday accepts English weekday names or their three-letter prefixes.
func ParseWeekday(raw string) (time.Weekday, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return time.Monday, fmt.Errorf("calendar: invalid weekday %q", raw)
}
