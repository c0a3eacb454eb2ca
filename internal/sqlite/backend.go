// Package sqlite implements the command journal on SQLite. Every remote call
// made through a Recorder becomes one row of journal.db in the data
// directory; rows can be listed, exported to JSONL and pruned per session.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/lifter/pkg/types"
)

// DatabaseFile is the journal database name inside the data directory.
const DatabaseFile = "journal.db"

// Backend implements types.Journal. It is safe for concurrent use.
type Backend struct {
	mu       sync.Mutex
	attached bool
	config   types.Config
	db       *sql.DB
	session  string
	seq      int64
}

var _ types.Journal = (*Backend)(nil)

// NewBackend creates a detached journal. Call Attach before recording.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens journal.db under config.DataDir, creating the directory and
// schema as needed, and starts a new session.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Backend != types.BackendSQLite {
		return fmt.Errorf("%w: journal needs %q, got %q", types.ErrBackendUnknown, types.BackendSQLite, config.Backend)
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, DatabaseFile))
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	// One connection keeps writes serialized and the sequence monotonic.
	db.SetMaxOpenConns(1)
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("create journal schema: %w", err)
		}
	}

	session := newID()
	if _, err := db.Exec(`INSERT INTO sessions (session_id, started_at) VALUES (?, ?)`,
		session, formatTime(time.Now())); err != nil {
		db.Close()
		return fmt.Errorf("start journal session: %w", err)
	}

	b.db = db
	b.config = config
	b.session = session
	b.seq = 0
	b.attached = true
	return nil
}

// Detach closes the database. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	b.attached = false
	return err
}

// SessionID returns the id of the session started by the last Attach.
func (b *Backend) SessionID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// Record appends entry. A missing entry id, session id, sequence or start
// time is filled in, and entry is updated to match the stored row.
func (b *Backend) Record(entry *types.JournalEntry) error {
	if entry == nil {
		return errors.New("record journal entry: nil entry")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrJournalDetached
	}
	if entry.EntryID == "" {
		entry.EntryID = newID()
	}
	if entry.SessionID == "" {
		entry.SessionID = b.session
	}
	if entry.Seq == 0 {
		b.seq++
		entry.Seq = b.seq
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now()
	}
	_, err := b.db.Exec(`INSERT INTO entries
        (entry_id, session_id, seq, kind, command, payload, result, error, started_at, duration_ns)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.EntryID, entry.SessionID, entry.Seq, entry.Kind, entry.Command,
		entry.Payload, entry.Result, entry.Error, formatTime(entry.StartedAt), int64(entry.Duration))
	if err != nil {
		return fmt.Errorf("record journal entry: %w", err)
	}
	return nil
}

// Entries returns the entries matching filter ordered by session start and
// sequence.
func (b *Backend) Entries(filter types.JournalFilter) ([]types.JournalEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrJournalDetached
	}

	var (
		where []string
		args  []any
	)
	if filter.SessionID != "" {
		where = append(where, "e.session_id = ?")
		args = append(args, filter.SessionID)
	}
	if filter.Kind != "" {
		where = append(where, "e.kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.Command != "" {
		where = append(where, "e.command = ?")
		args = append(args, filter.Command)
	}
	if filter.FailedOnly {
		where = append(where, "e.error != ''")
	}

	query := `SELECT e.entry_id, e.session_id, e.seq, e.kind, e.command,
        e.payload, e.result, e.error, e.started_at, e.duration_ns
        FROM entries e LEFT JOIN sessions s ON s.session_id = e.session_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY s.started_at, e.session_id, e.seq"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []types.JournalEntry
	for rows.Next() {
		var (
			e        types.JournalEntry
			started  string
			duration int64
		)
		if err := rows.Scan(&e.EntryID, &e.SessionID, &e.Seq, &e.Kind, &e.Command,
			&e.Payload, &e.Result, &e.Error, &started, &duration); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		if e.StartedAt, err = parseTime(started); err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.EntryID, err)
		}
		e.Duration = time.Duration(duration)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return out, nil
}

// Prune deletes every entry of sessionID and returns how many were removed.
func (b *Backend) Prune(sessionID string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return 0, types.ErrJournalDetached
	}
	if sessionID == "" {
		return 0, fmt.Errorf("%w: empty session id", types.ErrInvalidArgument)
	}
	res, err := b.db.Exec(`DELETE FROM entries WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	if _, err := b.db.Exec(`DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return 0, fmt.Errorf("prune journal session: %w", err)
	}
	return res.RowsAffected()
}

// newID returns a UUID v7, falling back to v4.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
