package sqlite

// Journal DDL. Statements are idempotent so an existing journal.db is reused
// across attaches.
const (
	createEntries = `CREATE TABLE IF NOT EXISTS entries (
    entry_id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    kind TEXT NOT NULL,
    command TEXT NOT NULL,
    payload TEXT NOT NULL DEFAULT '',
    result TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    started_at TEXT NOT NULL,
    duration_ns INTEGER NOT NULL
);`

	createSessions = `CREATE TABLE IF NOT EXISTS sessions (
    session_id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL
);`

	idxEntriesSession = `CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_session_seq ON entries(session_id, seq);`
	idxEntriesCommand = `CREATE INDEX IF NOT EXISTS idx_entries_command ON entries(command);`
)

// schemaDDL lists the statements run on attach, tables before indexes.
var schemaDDL = []string{
	createEntries,
	createSessions,
	idxEntriesSession,
	idxEntriesCommand,
}
