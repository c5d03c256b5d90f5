package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/taskcal/internal/model"
)

// Dialect holds what differs between the SQL backends.
type Dialect struct {
	Name   string
	Driver string
	// Numbered reports whether placeholders are $1, $2 rather than ?.
	Numbered bool
}

var (
	DialectSQLite   = Dialect{Name: "sqlite", Driver: "sqlite3"}
	DialectPostgres = Dialect{Name: "postgres", Driver: "pgx", Numbered: true}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d Dialect) rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const taskColumns = `id, position, title, date, time, priority, completed, repeat_rule, note, reminder_at, created_at, updated_at`

// SQLRepository stores tasks in a relational table. Save rewrites the table
// in one transaction; position keeps the collection order.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLRepository(db *sql.DB, d Dialect) (*SQLRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	return &SQLRepository{db: db, dialect: d}, nil
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func (r *SQLRepository) Dialect() Dialect {
	return r.dialect
}

func (r *SQLRepository) Load(ctx context.Context) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (r *SQLRepository) Save(ctx context.Context, tasks []model.Task) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, r.dialect.rebind(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range tasks {
		row := rowFromTask(t, i)
		if _, err = stmt.ExecContext(ctx,
			row.ID, row.Position, row.Title, row.Date, row.Time, row.Priority,
			row.Completed, row.Repeat, row.Note, row.Reminder, row.CreatedAt, row.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var row taskRow
	if err := s.Scan(&row.ID, &row.Position, &row.Title, &row.Date, &row.Time, &row.Priority,
		&row.Completed, &row.Repeat, &row.Note, &row.Reminder, &row.CreatedAt, &row.UpdatedAt); err != nil {
		return model.Task{}, err
	}
	return row.task()
}
