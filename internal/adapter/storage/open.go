package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// sqliteDriver is go-sqlite3 with lower() replaced by a Unicode-aware
// version on every connection. The built-in one only folds ASCII, which
// would make search miss names such as "Ärmelschoner".
const sqliteDriver = "sqlite3_inventory"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", strings.ToLower, true)
		},
	})
}

// OpenSQLite opens (creating if needed) the SQLite file at path.
// SQLite allows a single writer, so the pool is held to one connection.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLAdapter, error) {
	db, err := sql.Open(DialectSQLite.driverName(), path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return NewSQLAdapter(db, DialectSQLite, opts...), nil
}

// OpenMySQL connects with dsn. parseTime is forced on and times are read
// as UTC, which the adapter relies on when scanning rows.
func OpenMySQL(ctx context.Context, dsn string, opts ...Option) (*SQLAdapter, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	return NewSQLAdapter(db, DialectMySQL, opts...), nil
}

// Open dispatches on dialect. target is a file path for SQLite and a DSN
// for MySQL.
func Open(ctx context.Context, dialect Dialect, target string, opts ...Option) (*SQLAdapter, error) {
	switch dialect {
	case DialectMySQL:
		return OpenMySQL(ctx, target, opts...)
	case DialectSQLite:
		return OpenSQLite(ctx, target, opts...)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}
