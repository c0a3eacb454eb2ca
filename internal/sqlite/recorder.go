package sqlite

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mesh-intelligence/lifter/pkg/descriptor"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

// QueryCommand is the command name journaled for Query calls.
const QueryCommand = "get"

// Recorder is an Executor that forwards to another Executor and records
// each call in a Journal. Journal failures never fail the call itself;
// they are logged and the first one is kept for Err.
type Recorder struct {
	journal types.Journal
	inner   types.Executor
	logger  *slog.Logger
	now     func() time.Time

	mu  sync.Mutex
	err error
}

var _ types.Executor = (*Recorder)(nil)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets where journal failures are reported.
func WithLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock replaces time.Now for start times and durations.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder wraps inner so every call is recorded in j.
func NewRecorder(j types.Journal, inner types.Executor, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		journal: j,
		inner:   inner,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit forwards to the wrapped Executor and records the exchange.
func (r *Recorder) Submit(command string, payload *descriptor.Descriptor) (*descriptor.Descriptor, error) {
	start := r.now()
	result, err := r.inner.Submit(command, payload)
	r.record(types.EntrySubmit, command, payload, result, err, start)
	return result, err
}

// Query forwards to the wrapped Executor and records the exchange under
// QueryCommand with the reference as payload.
func (r *Recorder) Query(ref *descriptor.Reference) (*descriptor.Descriptor, error) {
	start := r.now()
	result, err := r.inner.Query(ref)
	r.record(types.EntryQuery, QueryCommand, ref, result, err, start)
	return result, err
}

// Err returns the first journal failure, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) record(kind, command string, payload json.Marshaler, result *descriptor.Descriptor, callErr error, start time.Time) {
	entry := &types.JournalEntry{
		Kind:      kind,
		Command:   command,
		Payload:   render(payload),
		StartedAt: start,
		Duration:  r.now().Sub(start),
	}
	if result != nil {
		entry.Result = render(result)
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}
	if err := r.journal.Record(entry); err != nil {
		r.logger.Warn("journal record failed", "command", command, "kind", kind, "error", err)
		r.mu.Lock()
		if r.err == nil {
			r.err = err
		}
		r.mu.Unlock()
	}
}

// render returns the JSON form of m, or an empty string when m is nil or
// cannot be encoded.
func render(m json.Marshaler) string {
	if m == nil {
		return ""
	}
	b, err := m.MarshalJSON()
	if err != nil || string(b) == "null" {
		return ""
	}
	return string(b)
}
