package persistence

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lexcodex/lspboost/booster"
)

// SessionRecord is one server session as seen by the booster integration,
// whether or not the session ended up boosted.
type SessionRecord struct {
	ID           string
	Command      string
	Profile      string
	Boosted      bool
	StartedAt    time.Time
	EndedAt      time.Time
	Frames       int64
	BinaryFrames int64
	BytesRead    int64
}

// Ledger persists session records in a workspace-local SQLite database. It is
// shared by the session client (writes) and the CLI (reads).
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens/creates the database at dbPath.
func OpenLedger(dbPath string) (*Ledger, error) {
	if dbPath == "" {
		return nil, errors.New("ledger path required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	ledger := &Ledger{db: db}
	if err := ledger.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return ledger, nil
}

func (l *Ledger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL,
		profile TEXT,
		boosted BOOLEAN NOT NULL DEFAULT 0,
		started_at TIMESTAMP,
		ended_at TIMESTAMP,
		frames INTEGER NOT NULL DEFAULT 0,
		binary_frames INTEGER NOT NULL DEFAULT 0,
		bytes_read INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS sessions_started_at ON sessions(started_at);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Begin inserts the record at session start.
func (l *Ledger) Begin(ctx context.Context, rec SessionRecord) error {
	if rec.ID == "" {
		return errors.New("session id required")
	}
	query := `
	INSERT INTO sessions (id, command, profile, boosted, started_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		command=excluded.command,
		profile=excluded.profile,
		boosted=excluded.boosted,
		started_at=excluded.started_at
	`
	_, err := l.db.ExecContext(ctx, query, rec.ID, rec.Command, rec.Profile, rec.Boosted, rec.StartedAt)
	return err
}

// Finish stores the end time and final channel counters for a session.
func (l *Ledger) Finish(ctx context.Context, id string, endedAt time.Time, stats booster.Stats) error {
	if id == "" {
		return errors.New("session id required")
	}
	query := `
	UPDATE sessions SET ended_at=?, frames=?, binary_frames=?, bytes_read=?
	WHERE id=?
	`
	_, err := l.db.ExecContext(ctx, query, endedAt, stats.Frames, stats.BinaryFrames, stats.BytesRead, id)
	return err
}

// Recent returns up to limit sessions, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
	SELECT id, command, profile, boosted, started_at, ended_at, frames, binary_frames, bytes_read
	FROM sessions ORDER BY started_at DESC LIMIT ?
	`
	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var profile sql.NullString
		var started, ended sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Command, &profile, &rec.Boosted,
			&started, &ended, &rec.Frames, &rec.BinaryFrames, &rec.BytesRead); err != nil {
			return nil, err
		}
		rec.Profile = profile.String
		if started.Valid {
			rec.StartedAt = started.Time
		}
		if ended.Valid {
			rec.EndedAt = ended.Time
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Purge removes sessions started before the cutoff and reports how many.
func (l *Ledger) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM sessions WHERE started_at < ?`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CommandString joins an argv for storage and display.
func CommandString(argv []string) string {
	return strings.Join(argv, " ")
}
