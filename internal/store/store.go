// Package store owns the relational schema (categories, products, sales and
// import history) and every query the application runs against it.
//
// A Store is constructed once in main and handed down explicitly. All
// methods take the caller's context and scope their session to it, so a
// connection is held only for the statement or transaction that needs it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/JonMunkholm/smartmart/internal/config"
	"github.com/JonMunkholm/smartmart/internal/logging"
)

// Store wraps the gorm handle and the pools underneath it.
type Store struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	pool   *pgxpool.Pool // nil for SQLite
	driver string
}

// Open connects to the database named by cfg.URL.
//
// PostgreSQL URLs go through a pgxpool sized from cfg and bridged into gorm
// with pgx's database/sql adapter. SQLite URLs use the pure-Go dialector with
// foreign keys switched on.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	driver, err := cfg.Driver()
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		Logger: logging.NewGormLogger(cfg.SlowQueryThreshold),
	}

	s := &Store{driver: driver}

	switch driver {
	case config.DriverPostgres:
		poolConfig, err := pgxpool.ParseConfig(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse database url: %w", err)
		}
		poolConfig.MaxConns = int32(cfg.MaxConns)
		poolConfig.MinConns = int32(cfg.MinConns)
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		s.pool = pool
		s.sqlDB = stdlib.OpenDBFromPool(pool)

		s.db, err = gorm.Open(postgres.New(postgres.Config{Conn: s.sqlDB}), gormCfg)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open gorm: %w", err)
		}

	case config.DriverSQLite:
		s.db, err = gorm.Open(sqlite.Open(sqliteDSN(cfg.SQLiteDSN())), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		s.sqlDB, err = s.db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		// SQLite serialises writers; share one connection.
		s.sqlDB.SetMaxOpenConns(1)
	}

	if err := s.Ping(ctx); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// sqliteDSN makes sure foreign keys are enforced and writers wait on locks.
func sqliteDSN(dsn string) string {
	var pragmas []string
	if !strings.Contains(dsn, "foreign_keys") {
		pragmas = append(pragmas, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		pragmas = append(pragmas, "_pragma=busy_timeout(5000)")
	}
	if len(pragmas) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(pragmas, "&")
}

// Driver returns config.DriverPostgres or config.DriverSQLite.
func (s *Store) Driver() string {
	return s.driver
}

// DB returns the underlying gorm handle bound to ctx.
func (s *Store) DB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Migrate creates or updates the schema for every model.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.DB(ctx).AutoMigrate(&Category{}, &Product{}, &Sale{}, &ImportRecord{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close releases all connections.
func (s *Store) Close() error {
	var err error
	if s.sqlDB != nil {
		err = s.sqlDB.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}
