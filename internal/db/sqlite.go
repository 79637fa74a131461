// Package db opens the SQLite database behind the contact outbox and applies
// its migrations.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

// SQLite DSN parameters.
const (
	defaultBusyTimeout = "5000" // 5 seconds
	defaultSynchronous = "NORMAL"
	defaultJournalMode = "WAL"
)

// Mode selects write-safety and pool sizing for a connection pool.
type Mode string

const (
	// ModeWrite is a single connection that takes the write lock at BEGIN.
	ModeWrite Mode = "write"
	// ModeRead is a small pool for concurrent readers.
	ModeRead Mode = "read"
)

const defaultReadConns = 4

// Pool is a write/read pool pair over one SQLite file. Writes go through
// Write so SQLite never sees two writers from this process.
type Pool struct {
	Write *sql.DB
	Read  *sql.DB
}

// Close closes both pools.
func (p *Pool) Close() error {
	rerr := p.Read.Close()
	werr := p.Write.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

// OpenSQLite opens a *sql.DB for path in the given mode. Both modes use WAL,
// busy_timeout=5000ms, synchronous=NORMAL and foreign keys. maxOpen sizes the
// read pool; zero means the default of 4.
func OpenSQLite(ctx context.Context, path string, mode Mode, maxOpen int) (*sql.DB, error) {
	if mode != ModeRead && mode != ModeWrite {
		return nil, fmt.Errorf("invalid SQLite mode %q: must be %q or %q", mode, ModeRead, ModeWrite)
	}

	db, err := sql.Open("sqlite3", buildDSN(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", mode, err)
	}

	switch mode {
	case ModeWrite:
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	case ModeRead:
		if maxOpen <= 0 {
			maxOpen = defaultReadConns
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen)
	}
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite (%s): %w", mode, err)
	}
	return db, nil
}

// Open creates the parent directory of path if needed, opens a pool pair and
// applies pending migrations on the write pool.
func Open(ctx context.Context, path string) (*Pool, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	write, err := OpenSQLite(ctx, path, ModeWrite, 0)
	if err != nil {
		return nil, err
	}
	read, err := OpenSQLite(ctx, path, ModeRead, 0)
	if err != nil {
		_ = write.Close()
		return nil, err
	}
	pool := &Pool{Write: write, Read: read}

	if err := Migrate(ctx, write); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return pool, nil
}

func buildDSN(path string, mode Mode) string {
	params := url.Values{}
	params.Set("_journal_mode", defaultJournalMode)
	params.Set("_busy_timeout", defaultBusyTimeout)
	params.Set("_synchronous", defaultSynchronous)
	params.Set("_foreign_keys", "on")
	if mode == ModeWrite {
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}
