package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenPostgres connects through the pgx database/sql driver and applies the
// schema.
func OpenPostgres(ctx context.Context, url string) (*SQLRepository, error) {
	db, err := sql.Open(DialectPostgres.Driver, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := MigrateUp(db, DialectPostgres); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLRepository(db, DialectPostgres)
}
