// Package calendar places tasks on dates and lays out the month, week and
// day grids the views draw.
package calendar

import (
	"sort"

	"github.com/sandeepkv93/taskcal/internal/model"
)

// TasksOnDate returns the tasks whose date equals d, highest priority first.
// Tasks of equal priority keep their input order.
func TasksOnDate(tasks []model.Task, d model.Date) []model.Task {
	out := make([]model.Task, 0)
	for _, t := range tasks {
		if t.Date == d {
			out = append(out, t)
		}
	}
	SortByPriority(out)
	return out
}

// TasksInRange returns tasks dated within [start, end], ordered by date and
// then by priority.
func TasksInRange(tasks []model.Task, start, end model.Date) []model.Task {
	out := make([]model.Task, 0)
	for _, t := range tasks {
		if t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return out[i].Priority.Rank() > out[j].Priority.Rank()
	})
	return out
}

// TasksAtHour returns the tasks on d whose time falls within hour.
func TasksAtHour(tasks []model.Task, d model.Date, hour int) []model.Task {
	out := make([]model.Task, 0)
	for _, t := range TasksOnDate(tasks, d) {
		if t.Time != nil && t.Time.Hour == hour {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Minute < out[j].Time.Minute
	})
	return out
}

// Unscheduled returns the tasks on d that have no time of day.
func Unscheduled(tasks []model.Task, d model.Date) []model.Task {
	out := make([]model.Task, 0)
	for _, t := range TasksOnDate(tasks, d) {
		if t.Time == nil {
			out = append(out, t)
		}
	}
	return out
}

// OpenOn counts incomplete tasks on d.
func OpenOn(tasks []model.Task, d model.Date) int {
	n := 0
	for _, t := range tasks {
		if t.Date == d && !t.Completed {
			n++
		}
	}
	return n
}

type DateGroup struct {
	Date  model.Date
	Tasks []model.Task
}

// GroupByDate buckets tasks by date in ascending date order.
func GroupByDate(tasks []model.Task) []DateGroup {
	index := make(map[model.Date]int)
	groups := make([]DateGroup, 0)
	for _, t := range tasks {
		i, ok := index[t.Date]
		if !ok {
			i = len(groups)
			index[t.Date] = i
			groups = append(groups, DateGroup{Date: t.Date})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date.Before(groups[j].Date)
	})
	for i := range groups {
		SortByPriority(groups[i].Tasks)
	}
	return groups
}

// SortByPriority orders tasks high, medium, low in place. It is stable.
func SortByPriority(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority.Rank() > tasks[j].Priority.Rank()
	})
}
