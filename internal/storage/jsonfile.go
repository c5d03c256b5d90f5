package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sandeepkv93/taskcal/internal/model"
)

// JSONFile keeps the task list as a JSON array in one file. Zone-less
// timestamps written by older versions are read in the file's location.
type JSONFile struct {
	mu   sync.Mutex
	path string
	loc  *time.Location

	// unreadable is set when the last Load could not decode the file. The next
	// Save moves it aside instead of overwriting it.
	unreadable bool
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path, loc: time.Local}
}

// InLocation sets the zone used for zone-less timestamps.
func (f *JSONFile) InLocation(loc *time.Location) *JSONFile {
	if loc != nil {
		f.loc = loc
	}
	return f
}

// BadPath is where an undecodable file is moved before it is replaced.
func (f *JSONFile) BadPath() string {
	return f.path + ".bad"
}

func (f *JSONFile) Path() string {
	return f.path
}

// Load reads the file. A missing or blank file is an empty list.
func (f *JSONFile) Load(ctx context.Context) ([]model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]model.Task, 0)
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return out, nil
	}
	out, err = model.DecodeTasks(raw, f.loc)
	if err != nil {
		f.unreadable = true
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	f.unreadable = false
	return out, nil
}

// Save writes the list through a temp file and rename so readers never see a
// partial file.
func (f *JSONFile) Save(ctx context.Context, tasks []model.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if tasks == nil {
		tasks = []model.Task{}
	}
	dir := filepath.Dir(f.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if f.unreadable {
		if err := os.Rename(f.path, f.BadPath()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("move aside %s: %w", f.path, err)
		}
		f.unreadable = false
	}
	payload, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
