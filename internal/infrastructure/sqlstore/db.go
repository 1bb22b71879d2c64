// Package sqlstore implements the code and session stores on SQL databases
// (SQLite via modernc, PostgreSQL via pgx) using sqlx.
package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, driver, connection string) (*sqlx.DB, error) {
	if driver == DriverSQLite {
		if !strings.HasPrefix(connection, ":memory:") {
			if err := os.MkdirAll(filepath.Dir(connection), 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		if !strings.Contains(connection, "_pragma=") {
			sep := "?"
			if strings.Contains(connection, "?") {
				sep = "&"
			}
			connection += sep + "_pragma=busy_timeout(5000)"
		}
	}

	db, err := sqlx.ConnectContext(ctx, driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if driver == DriverSQLite && strings.HasPrefix(connection, ":memory:") {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	slog.Info("database connected", "driver", driver)
	return db, nil
}
