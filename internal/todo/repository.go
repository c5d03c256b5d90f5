// Package todo owns the in-memory task collection and keeps it in step with
// a storage adapter.
package todo

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/taskcal/internal/model"
)

var (
	ErrAmbiguousID = errors.New("todo: ambiguous id prefix")
	ErrUnknownID   = errors.New("todo: no task matches id")
)

// Repository is the ordered task collection. Lookups by an unknown id are
// no-ops reported through the ok result.
type Repository struct {
	mu    sync.RWMutex
	tasks []model.Task
	now   func() time.Time
	newID func() string
}

func NewRepository(now func() time.Time, newID func() string) *Repository {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if newID == nil {
		newID = NewID
	}
	return &Repository{tasks: make([]model.Task, 0), now: now, newID: newID}
}

// NewID returns a random UUID string.
func NewID() string {
	return uuid.NewString()
}

// Add appends a new task built from d. The caller validates d.
func (r *Repository) Add(d model.Draft) model.Task {
	d = d.Normalize()
	now := r.now()
	t := model.Task{
		ID:        r.newID(),
		Title:     d.Title,
		Date:      d.Date,
		Priority:  d.Priority,
		Completed: d.Completed,
		Repeat:    d.Repeat,
		Note:      d.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if d.Time != nil {
		tm := *d.Time
		t.Time = &tm
	}
	if d.Reminder != nil {
		rem := *d.Reminder
		t.Reminder = &rem
	}

	r.mu.Lock()
	r.tasks = append(r.tasks, t)
	r.mu.Unlock()
	return t
}

// Update applies p to the task with id. A patch that would leave the task
// invalid is rejected and nothing changes.
func (r *Repository) Update(id string, p model.Patch) (model.Task, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return model.Task{}, false, nil
	}
	next := p.Apply(r.tasks[i])
	if err := next.Draft().Validate(); err != nil {
		return model.Task{}, true, err
	}
	next.UpdatedAt = r.now()
	r.tasks[i] = next
	return next, true, nil
}

// Expand appends the occurrences e materializes for ref and returns them.
func (r *Repository) Expand(e model.Expander, ref model.Date) []model.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	added := e.Materialized(r.tasks, ref)
	r.tasks = append(r.tasks, added...)
	return added
}

func (r *Repository) Remove(id string) (model.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return model.Task{}, false
	}
	removed := r.tasks[i]
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	return removed, true
}

func (r *Repository) ToggleCompleted(id string) (model.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return model.Task{}, false
	}
	r.tasks[i].Completed = !r.tasks[i].Completed
	r.tasks[i].UpdatedAt = r.now()
	return r.tasks[i], true
}

func (r *Repository) Get(id string) (model.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexOf(id)
	if i < 0 {
		return model.Task{}, false
	}
	return r.tasks[i], true
}

// Resolve maps an exact id or a unique id prefix to the full id.
func (r *Repository) Resolve(prefix string) (string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return "", ErrUnknownID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	match := ""
	for _, t := range r.tasks {
		id := strings.ToLower(t.ID)
		if id == prefix {
			return t.ID, nil
		}
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		if match != "" {
			return "", ErrAmbiguousID
		}
		match = t.ID
	}
	if match == "" {
		return "", ErrUnknownID
	}
	return match, nil
}

// Snapshot returns a copy of the collection in order.
func (r *Repository) Snapshot() []model.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

// Replace swaps in tasks as the whole collection.
func (r *Repository) Replace(tasks []model.Task) {
	next := make([]model.Task, len(tasks))
	copy(next, tasks)
	r.mu.Lock()
	r.tasks = next
	r.mu.Unlock()
}

func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

func (r *Repository) indexOf(id string) int {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
