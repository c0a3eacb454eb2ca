package types

import (
	"errors"
	"time"
)

// Journal records every remote call made through a journaling Executor.
// Callers attach to a backend, record and read entries, and detach when done.
type Journal interface {
	// Attach connects the journal to the backend described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error

	// Record appends entry. EntryID is generated when empty.
	Record(entry *JournalEntry) error

	// Entries returns entries matching filter in recording order.
	Entries(filter JournalFilter) ([]JournalEntry, error)
}

// Journal entry kinds.
const (
	EntrySubmit = "submit"
	EntryQuery  = "query"
)

// JournalEntry is one remote call. Payload and Result hold the JSON
// rendering of the descriptors involved.
type JournalEntry struct {
	EntryID   string        `json:"entry_id"`
	SessionID string        `json:"session_id"`
	Seq       int64         `json:"seq"`
	Kind      string        `json:"kind"`
	Command   string        `json:"command"`
	Payload   string        `json:"payload,omitempty"`
	Result    string        `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

// JournalFilter narrows Entries. Zero fields match everything.
type JournalFilter struct {
	SessionID  string
	Kind       string
	Command    string
	FailedOnly bool
	Limit      int
}

// Journal lifecycle errors.
var (
	ErrJournalDetached = errors.New("journal is detached")
	ErrAlreadyAttached = errors.New("journal is already attached")
)
