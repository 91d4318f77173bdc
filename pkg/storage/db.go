// Package storage persists scan snapshots in a SQLite database.
//
// The database holds one snapshot at a time: classes, their members and
// annotations, the dependency edges between classes, and the units that
// failed. It is meant for ad-hoc SQL over a scan ("which classes depend on
// this package?") and for handing a scan to tools that speak SQL.
//
//	db, err := storage.Open("classes.db")
//	if err != nil { ... }
//	defer db.Close()
//	err = db.WriteSnapshot(ctx, snap)
//
// The driver is modernc.org/sqlite, so no cgo is required.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"strings"

	_ "modernc.org/sqlite"

	errs "github.com/matzehuels/classscan/pkg/errors"
)

//go:embed schema.sql
var schema string

// DB wraps a SQLite connection.
type DB struct {
	conn *sql.DB
}

// Open opens or creates a SQLite database at path and applies the schema.
// Use ":memory:" for a private in-memory database.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, errs.New(errs.ErrCodeInvalidPath, "database path cannot be empty")
	}
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&_pragma=foreign_keys(1)"
	} else {
		dsn += "?_pragma=foreign_keys(1)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Clear removes all data from the database.
func (db *DB) Clear(ctx context.Context) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := clearTables(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func clearTables(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"edges", "annotations", "members", "interfaces", "failures", "classes", "meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Conn returns the underlying connection for ad-hoc queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}
