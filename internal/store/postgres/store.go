// Package postgres is the PostgreSQL backend of store.Store. Point reads and
// writes go through pgx; filtered, paged listings are built with dbr over
// the same pool.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/gocraft/dbr/v2"
	"github.com/gocraft/dbr/v2/dialect"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"jobmate/board-service/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ store.Store = (*Store)(nil)

// Store is a PostgreSQL implementation of store.Store using pgx/v5.
type Store struct {
	pool   *pgxpool.Pool
	sqlDB  *sql.DB
	sess   *dbr.Session
	logger *zap.Logger
}

// New wraps an existing pool. The pool stays owned by the caller.
func New(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	sqlDB := stdlib.OpenDBFromPool(pool)
	conn := &dbr.Connection{
		DB:            sqlDB,
		Dialect:       dialect.PostgreSQL,
		EventReceiver: &dbr.NullEventReceiver{},
	}
	return &Store{
		pool:   pool,
		sqlDB:  sqlDB,
		sess:   conn.NewSession(nil),
		logger: logger,
	}
}

// Migrate runs all embedded SQL migration files in order.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS board_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		var applied bool
		err = s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM board_migrations WHERE filename = $1)`,
			entry.Name(),
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if applied {
			continue
		}

		data, err := fs.ReadFile(migrationsFS, "migrations/"+entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute migration %s: %w", entry.Name(), err)
		}
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO board_migrations (filename) VALUES ($1)`,
			entry.Name(),
		); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}

		s.logger.Info("applied migration", zap.String("file", entry.Name()))
	}

	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the database/sql handle. The pool is closed by its owner.
func (s *Store) Close() error {
	return s.sqlDB.Close()
}
