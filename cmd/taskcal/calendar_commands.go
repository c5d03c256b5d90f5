package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/taskcal/internal/calendar"
	"github.com/sandeepkv93/taskcal/internal/model"
	"github.com/sandeepkv93/taskcal/internal/reminder"
	"github.com/sandeepkv93/taskcal/internal/scheduler"
	"github.com/sandeepkv93/taskcal/internal/update"
	"github.com/sandeepkv93/taskcal/internal/views"
	"github.com/spf13/cobra"
)

func newTUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, flags)
		},
	}
}

func runTUI(cmd *cobra.Command, flags *globalFlags) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, flags, sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	mode, err := s.cfg.View()
	if err != nil {
		return err
	}
	weekStart, err := s.cfg.WeekStart()
	if err != nil {
		return err
	}

	engine := scheduler.NewEngine(s.cfg.Reminders.Buffer)
	engine.Start()
	defer engine.Stop()
	planner := reminder.NewPlanner(engine, s.svc, s.logger, nil)
	s.svc.OnChange(planner.HandleChange)
	planner.Sync()

	var notifier reminder.Notifier
	if s.cfg.Reminders.Desktop {
		notifier = reminder.DesktopNotifier{}
	}

	m := update.NewModel(update.Deps{
		Service:   s.svc,
		Engine:    engine,
		Planner:   planner,
		Notifier:  notifier,
		Mode:      mode,
		WeekStart: weekStart,
		DayFrom:   s.cfg.Calendar.WeekFrom,
		DayTo:     s.cfg.Calendar.WeekTo,
		Logger:    s.logger,
	})
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run calendar: %w", err)
	}
	return nil
}

func newMonthCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Print a month grid with task markers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, flags, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			today := s.svc.Today()
			focus := today
			if len(args) == 1 {
				focus, err = model.ParseDate(strings.TrimSpace(args[0]) + "-01")
				if err != nil {
					return fmt.Errorf("invalid month %q: use YYYY-MM", args[0])
				}
			}
			weekStart, err := s.cfg.WeekStart()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderMonth(s.svc.Tasks(), focus, today, weekStart))
			return nil
		},
	}
}

func renderMonth(tasks []model.Task, focus, today model.Date, weekStart time.Weekday) string {
	data := views.MonthGridData{Title: calendar.Title(calendar.ModeMonth, focus, weekStart)}
	for _, d := range calendar.WeekDays(focus, weekStart) {
		data.Weekdays = append(data.Weekdays, d.Weekday().String())
	}
	for _, week := range calendar.MonthGrid(focus, weekStart) {
		row := make([]views.DayCellData, 0, len(week))
		for _, cell := range week {
			var prios []string
			for _, t := range calendar.TasksOnDate(tasks, cell.Date) {
				prios = append(prios, string(t.Priority))
			}
			row = append(row, views.DayCellData{
				Day:        cell.Date.Day,
				InMonth:    cell.InMonth,
				IsToday:    cell.Date == today,
				Priorities: prios,
			})
		}
		data.Weeks = append(data.Weeks, row)
	}
	return views.RenderMonthGrid(data)
}

func newRemindCmd(flags *globalFlags) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Run the reminder daemon",
		Long:  "remind fires task reminders as they come due and sends a periodic digest\nof today's open tasks. Notices are printed to stdout and, when enabled,\nsent as desktop notifications.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemind(cmd, flags, once)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "send the digest once and exit")
	return cmd
}

func runRemind(cmd *cobra.Command, flags *globalFlags, once bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, flags, sessionOptions{logTo: cmd.ErrOrStderr(), live: !once})
	if err != nil {
		return err
	}
	defer s.Close(context.Background())
	logger := s.logger

	notifiers := reminder.Multi{reminder.NewWriterNotifier(cmd.OutOrStdout())}
	if s.cfg.Reminders.Desktop {
		notifiers = append(notifiers, reminder.DesktopNotifier{})
	}

	spec, err := reminder.ScheduleSpec(s.cfg.Reminders.Digest)
	if err != nil {
		return err
	}
	digest, err := reminder.NewDigest(s.svc, notifiers, reminder.DigestOptions{
		Spec:     spec,
		Location: s.loc,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	if once {
		if digest.RunOnce(ctx) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "nothing open today")
		}
		return nil
	}

	engine := scheduler.NewEngine(s.cfg.Reminders.Buffer)
	engine.Start()
	defer engine.Stop()
	planner := reminder.NewPlanner(engine, s.svc, logger, nil)
	s.svc.OnChange(planner.HandleChange)
	queued := planner.Sync()

	digest.Start()
	defer digest.Stop()
	logger.Info("reminder daemon started", "pending", queued, "digest", digest.Spec())

	go planner.Run(ctx, notifiers)
	go rollDays(ctx, s, logger)
	<-ctx.Done()
	logger.Info("reminder daemon stopping", "dropped", engine.Dropped())
	return nil
}

// rollDays reloads the store every minute so tasks written by other
// processes are scheduled, and materializes recurrences when the date
// changes while the daemon is running.
func rollDays(ctx context.Context, s *session, logger *slog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	last := s.svc.Today()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.svc.Reload(ctx); err != nil {
				logger.Warn("store reload skipped", "error", err)
			}
			today := s.svc.Today()
			if today == last {
				continue
			}
			last = today
			n := s.svc.Refresh(ctx, today)
			logger.Info("day rolled over", "today", today.String(), "materialized", n)
		}
	}
}
