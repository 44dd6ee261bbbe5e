package storage

import (
	"fmt"
	"strings"
)

type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(s))); d {
	case DialectSQLite, DialectMySQL:
		return d, nil
	case "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", s)
	}
}

// driverName is the database/sql driver registered for the dialect.
func (d Dialect) driverName() string {
	if d == DialectMySQL {
		return "mysql"
	}
	return sqliteDriver
}

func (d Dialect) schema() []string {
	switch d {
	case DialectMySQL:
		return []string{
			`CREATE TABLE IF NOT EXISTS inventory (
				id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(100) NOT NULL,
				category VARCHAR(50) NOT NULL,
				price DECIMAL(12,2) NOT NULL CHECK (price >= 0),
				stock INT NOT NULL CHECK (stock >= 0),
				created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
				updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
				INDEX idx_inventory_name (name),
				INDEX idx_inventory_category (category)
			)`,
		}
	default:
		return []string{
			`CREATE TABLE IF NOT EXISTS inventory (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				category TEXT NOT NULL,
				price REAL NOT NULL CHECK (price >= 0),
				stock INTEGER NOT NULL CHECK (stock >= 0),
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_inventory_name ON inventory(name)`,
			`CREATE INDEX IF NOT EXISTS idx_inventory_category ON inventory(category)`,
		}
	}
}
