package reminder

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/sandeepkv93/taskcal/internal/model"
	"github.com/sandeepkv93/taskcal/internal/scheduler"
	"github.com/sandeepkv93/taskcal/internal/todo"
)

// Planner keeps the scheduler engine in step with task reminders.
type Planner struct {
	engine *scheduler.Engine
	source TaskLookup
	logger *slog.Logger
	now    func() time.Time
}

type TaskLookup interface {
	Tasks() []model.Task
	Get(id string) (model.Task, bool)
}

func NewPlanner(engine *scheduler.Engine, source TaskLookup, logger *slog.Logger, now func() time.Time) *Planner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if now == nil {
		now = time.Now
	}
	return &Planner{engine: engine, source: source, logger: logger, now: now}
}

// Sync schedules every pending reminder and returns how many were queued.
func (p *Planner) Sync() int {
	n := 0
	for _, t := range p.source.Tasks() {
		if p.apply(t) {
			n++
		}
	}
	return n
}

// HandleChange is registered with todo.Service.OnChange.
func (p *Planner) HandleChange(c todo.Change) {
	switch c.Kind {
	case todo.ChangeRemoved:
		p.engine.Cancel(c.Task.ID)
	case todo.ChangeReloaded:
		p.Sync()
	default:
		p.apply(c.Task)
	}
}

// Notice resolves a fired event to the notice for its task. ok is false when
// the task is gone or already done.
func (p *Planner) Notice(ev scheduler.Event) (model.Notice, bool) {
	t, found := p.source.Get(ev.TaskID)
	if !found || t.Completed {
		return model.Notice{}, false
	}
	return model.DueNotice(t, ev.TriggerAt), true
}

// Run forwards fired reminders to n until ctx ends or the engine stops.
func (p *Planner) Run(ctx context.Context, n Notifier) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-p.engine.C():
			if !ok {
				return
			}
			notice, live := p.Notice(ev)
			if !live {
				continue
			}
			if err := n.Send(ctx, notice); err != nil {
				p.logger.Warn("reminder notification failed", "task", ev.TaskID, "error", err)
			}
		}
	}
}

func (p *Planner) apply(t model.Task) bool {
	if t.Reminder == nil || t.Completed || !t.Reminder.After(p.now()) {
		p.engine.Cancel(t.ID)
		return false
	}
	err := p.engine.Schedule(scheduler.Event{TaskID: t.ID, Title: t.Title, TriggerAt: *t.Reminder})
	if err != nil {
		p.logger.Warn("schedule reminder failed", "task", t.ID, "error", err)
		return false
	}
	return true
}
