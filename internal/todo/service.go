package todo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sandeepkv93/taskcal/internal/model"
	"github.com/sandeepkv93/taskcal/internal/storage"
)

type SaveMode string

const (
	SaveImmediate SaveMode = "immediate"
	SaveDebounced SaveMode = "debounced"
)

func ParseSaveMode(raw string) (SaveMode, error) {
	m := SaveMode(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case SaveImmediate, SaveDebounced:
		return m, nil
	case "":
		return SaveImmediate, nil
	default:
		return "", fmt.Errorf("todo: invalid save mode %q", raw)
	}
}

type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeUpdated  ChangeKind = "updated"
	ChangeRemoved  ChangeKind = "removed"
	ChangeReloaded ChangeKind = "reloaded"
)

// Change describes one mutation. Task is zero for ChangeReloaded.
type Change struct {
	Kind ChangeKind
	Task model.Task
}

type Options struct {
	Mode     SaveMode
	Delay    time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() string
	Location *time.Location
}

// Service validates input, mutates the repository and persists the result.
// Storage failures are logged and never surface to callers; the in-memory
// collection stays authoritative.
type Service struct {
	repo     *Repository
	adapter  storage.Adapter
	logger   *slog.Logger
	now      func() time.Time
	loc      *time.Location
	expander model.Expander
	mode     SaveMode
	delay    time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	dirty    bool
	onChange []func(Change)

	saveMu sync.Mutex
}

func NewService(adapter storage.Adapter, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = NewID
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Mode == "" {
		opts.Mode = SaveImmediate
	}
	if opts.Delay <= 0 {
		opts.Delay = 500 * time.Millisecond
	}
	return &Service{
		repo:     NewRepository(opts.Now, opts.NewID),
		adapter:  adapter,
		logger:   opts.Logger,
		now:      opts.Now,
		loc:      opts.Location,
		expander: model.Expander{NewID: opts.NewID, Now: opts.Now},
		mode:     opts.Mode,
		delay:    opts.Delay,
	}
}

// Open loads the stored collection and materializes overdue recurrences.
// A failed load is logged and the service starts empty.
func (s *Service) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tasks, err := s.adapter.Load(ctx)
	if err != nil {
		s.logger.Error("load tasks failed", "error", err)
		tasks = []model.Task{}
	}
	s.repo.Replace(tasks)
	s.logger.Info("tasks loaded", "count", len(tasks))
	s.emit(Change{Kind: ChangeReloaded})
	s.Refresh(ctx, s.Today())
	return nil
}

// Today is the current calendar date in the service's location.
func (s *Service) Today() model.Date {
	return model.DateOf(s.now().In(s.loc))
}

func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) Tasks() []model.Task {
	return s.repo.Snapshot()
}

func (s *Service) Get(id string) (model.Task, bool) {
	return s.repo.Get(id)
}

func (s *Service) Resolve(prefix string) (string, error) {
	return s.repo.Resolve(prefix)
}

// Refresh materializes recurrences that fell behind ref and returns how many
// were added.
func (s *Service) Refresh(ctx context.Context, ref model.Date) int {
	added := s.repo.Expand(s.expander, ref)
	if len(added) == 0 {
		return 0
	}
	s.logger.Info("recurring tasks materialized", "count", len(added), "ref", ref.String())
	s.persist(ctx)
	for _, t := range added {
		s.emit(Change{Kind: ChangeAdded, Task: t})
	}
	return len(added)
}

// Reload replaces the collection with what the adapter holds now, picking up
// writes made by other processes. A pending debounced save is flushed first.
// When the load fails the current collection is kept.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.Lock()
	pending := s.dirty
	s.mu.Unlock()
	if pending {
		if err := s.Flush(ctx); err != nil {
			return err
		}
	}
	tasks, err := s.adapter.Load(ctx)
	if err != nil {
		s.logger.Warn("reload tasks failed", "error", err)
		return err
	}
	s.repo.Replace(tasks)
	s.logger.Debug("tasks reloaded", "count", len(tasks))
	s.emit(Change{Kind: ChangeReloaded})
	return nil
}

func (s *Service) Add(ctx context.Context, d model.Draft) (model.Task, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return model.Task{}, err
	}
	t := s.repo.Add(d)
	s.logger.Debug("task added", "id", t.ID, "date", t.Date.String())
	s.persist(ctx)
	s.emit(Change{Kind: ChangeAdded, Task: t})
	return t, nil
}

// Update applies p to the task with id. ok is false when no task matches.
func (s *Service) Update(ctx context.Context, id string, p model.Patch) (model.Task, bool, error) {
	if p.IsEmpty() {
		current, ok := s.repo.Get(id)
		return current, ok, nil
	}
	next, ok, err := s.repo.Update(id, p)
	if !ok || err != nil {
		return model.Task{}, ok, err
	}
	s.persist(ctx)
	s.emit(Change{Kind: ChangeUpdated, Task: next})
	return next, true, nil
}

func (s *Service) Remove(ctx context.Context, id string) (model.Task, bool) {
	removed, ok := s.repo.Remove(id)
	if !ok {
		return model.Task{}, false
	}
	s.persist(ctx)
	s.emit(Change{Kind: ChangeRemoved, Task: removed})
	return removed, true
}

func (s *Service) Toggle(ctx context.Context, id string) (model.Task, bool) {
	next, ok := s.repo.ToggleCompleted(id)
	if !ok {
		return model.Task{}, false
	}
	s.persist(ctx)
	s.emit(Change{Kind: ChangeUpdated, Task: next})
	return next, true
}

// OnChange registers fn to run after every mutation.
func (s *Service) OnChange(fn func(Change)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Flush cancels any pending debounced save and saves now.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.dirty = false
	s.mu.Unlock()
	return s.save(ctx)
}

func (s *Service) persist(ctx context.Context) {
	if s.mode != SaveDebounced {
		_ = s.save(ctx)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.flushPending)
}

func (s *Service) flushPending() {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return
	}
	s.dirty = false
	s.timer = nil
	s.mu.Unlock()
	_ = s.save(context.Background())
}

func (s *Service) save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	tasks := s.repo.Snapshot()
	if err := s.adapter.Save(ctx, tasks); err != nil {
		s.logger.Error("save tasks failed", "error", err, "count", len(tasks))
		return err
	}
	s.logger.Debug("tasks saved", "count", len(tasks))
	return nil
}

func (s *Service) emit(c Change) {
	s.mu.Lock()
	hooks := make([]func(Change), len(s.onChange))
	copy(hooks, s.onChange)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(c)
	}
}
