// Package storage persists the task collection. Every backend speaks the
// same Adapter contract: load everything, save everything.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/taskcal/internal/model"
)

var ErrUnknownBackend = errors.New("storage: unknown backend")

// Adapter loads and saves the whole ordered task list.
type Adapter interface {
	Load(ctx context.Context) ([]model.Task, error)
	Save(ctx context.Context, tasks []model.Task) error
}

type Backend string

const (
	BackendJSON     Backend = "json"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

func ParseBackend(raw string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(raw)))
	switch b {
	case BackendJSON, BackendSQLite, BackendPostgres:
		return b, nil
	case "":
		return BackendJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, raw)
	}
}

// Open returns the adapter for backend. location is a file path for json and
// sqlite and a connection URL for postgres; zone is used for zone-less
// timestamps in JSON files. The returned close func releases any handle the
// adapter holds.
func Open(ctx context.Context, backend Backend, location string, zone *time.Location) (Adapter, func() error, error) {
	if strings.TrimSpace(location) == "" {
		return nil, nil, errors.New("storage: empty location")
	}
	switch backend {
	case BackendJSON, "":
		return NewJSONFile(location).InLocation(zone), func() error { return nil }, nil
	case BackendSQLite:
		repo, err := OpenSQLite(ctx, location)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	case BackendPostgres:
		repo, err := OpenPostgres(ctx, location)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
