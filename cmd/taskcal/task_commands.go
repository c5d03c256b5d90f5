package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sandeepkv93/taskcal/internal/calendar"
	"github.com/sandeepkv93/taskcal/internal/model"
	"github.com/sandeepkv93/taskcal/internal/todo"
	"github.com/sandeepkv93/taskcal/internal/views"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const reminderLayout = "2006-01-02 15:04"

// taskFields are the flags shared by add and edit.
type taskFields struct {
	title    string
	date     string
	time     string
	priority string
	repeat   string
	note     string
	remind   string
}

func (f *taskFields) register(cmd *cobra.Command, withTitle bool) {
	fl := cmd.Flags()
	if withTitle {
		fl.StringVar(&f.title, "title", "", "task title")
	}
	fl.StringVarP(&f.date, "date", "d", "", "date (YYYY-MM-DD)")
	fl.StringVarP(&f.time, "time", "t", "", "time of day (HH:MM)")
	fl.StringVarP(&f.priority, "priority", "p", "", "priority: low, medium or high")
	fl.StringVarP(&f.repeat, "repeat", "r", "", "repeat: none, daily, weekly or monthly")
	fl.StringVarP(&f.note, "note", "n", "", "note (markdown)")
	fl.StringVar(&f.remind, "remind", "", "reminder: HH:MM on the task date or YYYY-MM-DD HH:MM")
}

func newAddCmd(flags *globalFlags) *cobra.Command {
	var f taskFields
	cmd := &cobra.Command{
		Use:   "add TITLE...",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, flags, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			d := model.Draft{Title: strings.Join(args, " "), Date: s.svc.Today(), Note: f.note}
			if err := f.fill(&d, s.loc); err != nil {
				return err
			}
			t, err := s.svc.Add(ctx, d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %s %s\n", shortID(t.ID), t.Date, t.Title)
			return nil
		},
	}
	f.register(cmd, false)
	return cmd
}

// fill parses the non-empty fields into d.
func (f taskFields) fill(d *model.Draft, loc *time.Location) error {
	if f.date != "" {
		date, err := model.ParseDate(f.date)
		if err != nil {
			return err
		}
		d.Date = date
	}
	if f.time != "" {
		tm, err := model.ParseTimeOfDay(f.time)
		if err != nil {
			return err
		}
		d.Time = &tm
	}
	if f.priority != "" {
		p, err := model.ParsePriority(f.priority)
		if err != nil {
			return err
		}
		d.Priority = p
	}
	if f.repeat != "" {
		r, err := model.ParseRepeat(f.repeat)
		if err != nil {
			return err
		}
		d.Repeat = r
	}
	if f.remind != "" {
		at, err := parseReminder(f.remind, d.Date, loc)
		if err != nil {
			return err
		}
		d.Reminder = &at
	}
	return nil
}

func parseReminder(raw string, date model.Date, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if tm, err := model.ParseTimeOfDay(raw); err == nil {
		return date.In(loc).Add(time.Duration(tm.Hour)*time.Hour + time.Duration(tm.Minute)*time.Minute).UTC(), nil
	}
	at, err := time.ParseInLocation(reminderLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reminder %q: use HH:MM or YYYY-MM-DD HH:MM", raw)
	}
	return at.UTC(), nil
}

type listOptions struct {
	date  string
	week  bool
	month bool
	all   bool
	json  bool
}

func newListCmd(flags *globalFlags) *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks for a day, week, month or everything",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, flags, opts)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&opts.date, "date", "", "anchor date (default today)")
	fl.BoolVar(&opts.week, "week", false, "list the week around the date")
	fl.BoolVar(&opts.month, "month", false, "list the month around the date")
	fl.BoolVar(&opts.all, "all", false, "list every task")
	fl.BoolVar(&opts.json, "json", false, "print tasks as JSON")
	cmd.MarkFlagsMutuallyExclusive("week", "month", "all")
	return cmd
}

func runList(cmd *cobra.Command, flags *globalFlags, opts listOptions) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, flags, sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	anchor := s.svc.Today()
	if opts.date != "" {
		anchor, err = model.ParseDate(opts.date)
		if err != nil {
			return err
		}
	}
	weekStart, err := s.cfg.WeekStart()
	if err != nil {
		return err
	}

	var tasks []model.Task
	switch {
	case opts.all:
		tasks = s.svc.Tasks()
	case opts.week:
		start, end := calendar.Range(calendar.ModeWeek, anchor, weekStart)
		tasks = calendar.TasksInRange(s.svc.Tasks(), start, end)
	case opts.month:
		tasks = calendar.TasksInRange(s.svc.Tasks(), anchor.StartOfMonth(), anchor.EndOfMonth())
	default:
		tasks = calendar.TasksOnDate(s.svc.Tasks(), anchor)
	}

	out := cmd.OutOrStdout()
	if opts.json {
		return writeJSON(out, tasks)
	}
	if len(tasks) == 0 {
		fmt.Fprintln(out, "no tasks")
		return nil
	}
	for i, group := range calendar.GroupByDate(tasks) {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s %s\n", group.Date, group.Date.Weekday())
		for _, t := range group.Tasks {
			fmt.Fprintln(out, formatTaskLine(t))
		}
	}
	return nil
}

func writeJSON(w io.Writer, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tasks)
}

func formatTaskLine(t model.Task) string {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	tm := "--:--"
	if t.Time != nil {
		tm = t.Time.String()
	}
	title := t.Title
	if t.IsRepeating() {
		title += " (" + string(t.Repeat) + ")"
	}
	return fmt.Sprintf("  [%s] %s %-6s %s  %s", mark, tm, t.Priority, title, shortID(t.ID))
}

func newShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, flags, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			id, err := resolveID(s.svc, args[0])
			if err != nil {
				return err
			}
			t, _ := s.svc.Get(id)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:        %s\n", t.ID)
			fmt.Fprintf(out, "title:     %s\n", t.Title)
			fmt.Fprintf(out, "date:      %s\n", t.Date)
			if t.Time != nil {
				fmt.Fprintf(out, "time:      %s\n", t.Time)
			}
			fmt.Fprintf(out, "priority:  %s\n", t.Priority)
			fmt.Fprintf(out, "repeat:    %s\n", t.Repeat)
			fmt.Fprintf(out, "completed: %t\n", t.Completed)
			if t.Reminder != nil {
				fmt.Fprintf(out, "reminder:  %s\n", t.Reminder.In(s.loc).Format(reminderLayout))
			}
			if t.IsRepeating() {
				next := t.Repeat.Preview(t.Date, 3)
				parts := make([]string, 0, len(next))
				for _, d := range next {
					parts = append(parts, d.String())
				}
				fmt.Fprintf(out, "next:      %s\n", strings.Join(parts, ", "))
			}
			if t.Note != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderNote(t.Note))
			}
			return nil
		},
	}
}

// renderNote uses glamour only when stdout is a terminal.
func renderNote(note string) string {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return views.RenderMarkdown(note, 80)
	}
	return note
}

func newEditCmd(flags *globalFlags) *cobra.Command {
	var f taskFields
	var clearTime, clearRemind bool
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, flags, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			id, err := resolveID(s.svc, args[0])
			if err != nil {
				return err
			}
			current, _ := s.svc.Get(id)
			p, err := f.patch(cmd, current, s.loc)
			if err != nil {
				return err
			}
			p.ClearTime = clearTime
			p.ClearReminder = clearRemind
			if p.IsEmpty() {
				return errors.New("nothing to change")
			}
			t, ok, err := s.svc.Update(ctx, id, p)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no task matching %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s %s %s\n", shortID(t.ID), t.Date, t.Title)
			return nil
		},
	}
	f.register(cmd, true)
	cmd.Flags().BoolVar(&clearTime, "clear-time", false, "remove the time of day")
	cmd.Flags().BoolVar(&clearRemind, "clear-remind", false, "remove the reminder")
	cmd.MarkFlagsMutuallyExclusive("time", "clear-time")
	cmd.MarkFlagsMutuallyExclusive("remind", "clear-remind")
	return cmd
}

// patch builds a patch from the flags the user actually set.
func (f taskFields) patch(cmd *cobra.Command, current model.Task, loc *time.Location) (model.Patch, error) {
	changed := cmd.Flags().Changed
	var p model.Patch
	if changed("title") {
		p.Title = &f.title
	}
	date := current.Date
	if changed("date") {
		d, err := model.ParseDate(f.date)
		if err != nil {
			return p, err
		}
		date = d
		p.Date = &d
	}
	if changed("time") {
		tm, err := model.ParseTimeOfDay(f.time)
		if err != nil {
			return p, err
		}
		p.Time = &tm
	}
	if changed("priority") {
		pr, err := model.ParsePriority(f.priority)
		if err != nil {
			return p, err
		}
		p.Priority = &pr
	}
	if changed("repeat") {
		r, err := model.ParseRepeat(f.repeat)
		if err != nil {
			return p, err
		}
		p.Repeat = &r
	}
	if changed("note") {
		p.Note = &f.note
	}
	if changed("remind") {
		at, err := parseReminder(f.remind, date, loc)
		if err != nil {
			return p, err
		}
		p.Reminder = &at
	}
	return p, nil
}

func newDoneCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "done ID",
		Short: "Toggle a task's completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, flags, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			id, err := resolveID(s.svc, args[0])
			if err != nil {
				return err
			}
			t, ok := s.svc.Toggle(ctx, id)
			if !ok {
				return fmt.Errorf("no task matching %q", args[0])
			}
			state := "reopened"
			if t.Completed {
				state = "completed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", state, shortID(t.ID), t.Title)
			return nil
		},
	}
}

func newRemoveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, flags, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			id, err := resolveID(s.svc, args[0])
			if err != nil {
				return err
			}
			t, ok := s.svc.Remove(ctx, id)
			if !ok {
				return fmt.Errorf("no task matching %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s %s\n", shortID(t.ID), t.Title)
			return nil
		},
	}
}

func resolveID(svc *todo.Service, prefix string) (string, error) {
	id, err := svc.Resolve(prefix)
	switch {
	case errors.Is(err, todo.ErrAmbiguousID):
		return "", fmt.Errorf("ambiguous id %q", prefix)
	case err != nil:
		return "", fmt.Errorf("no task matching %q", prefix)
	}
	return id, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
