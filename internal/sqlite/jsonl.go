package sqlite

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/lifter/pkg/types"
)

// ExportJSONL writes the entries matching filter to path, one JSON object
// per line, and returns how many were written. The file is replaced
// atomically.
func (b *Backend) ExportJSONL(path string, filter types.JournalFilter) (int, error) {
	entries, err := b.Entries(filter)
	if err != nil {
		return 0, err
	}
	records := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		raw, err := json.Marshal(e)
		if err != nil {
			return 0, fmt.Errorf("encode entry %s: %w", e.EntryID, err)
		}
		records = append(records, raw)
	}
	if err := writeJSONL(path, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ImportJSONL records the entries of a file written by ExportJSONL and
// returns how many were imported. Entries keep their ids and sessions;
// entries already in the journal are skipped.
func (b *Backend) ImportJSONL(path string) (int, error) {
	records, err := readJSONL(path)
	if err != nil {
		return 0, err
	}
	n := 0
	for i, raw := range records {
		var e types.JournalEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			continue
		}
		if e.EntryID == "" || e.SessionID == "" || e.Seq == 0 {
			return n, fmt.Errorf("%w: record %d lacks an id, session or sequence", types.ErrInvalidArgument, i+1)
		}
		exists, err := b.hasEntry(e.EntryID)
		if err != nil {
			return n, err
		}
		if exists {
			continue
		}
		if err := b.ensureSession(e.SessionID, e.StartedAt); err != nil {
			return n, err
		}
		if err := b.Record(&e); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (b *Backend) hasEntry(id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return false, types.ErrJournalDetached
	}
	var one int
	err := b.db.QueryRow(`SELECT 1 FROM entries WHERE entry_id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("look up entry %s: %w", id, err)
	}
	return true, nil
}

// ensureSession registers an imported session so its entries order by
// their first start time.
func (b *Backend) ensureSession(id string, started time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrJournalDetached
	}
	if _, err := b.db.Exec(`INSERT OR IGNORE INTO sessions (session_id, started_at) VALUES (?, ?)`,
		id, formatTime(started)); err != nil {
		return fmt.Errorf("import session %s: %w", id, err)
	}
	return nil
}

// readJSONL returns each non-empty line of path that is valid JSON.
// Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		records = append(records, json.RawMessage(append([]byte(nil), line...)))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL replaces path with records through a synced temp file in the
// same directory.
func writeJSONL(path string, records []json.RawMessage) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".journal-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", step, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("write record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("write newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flush", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
