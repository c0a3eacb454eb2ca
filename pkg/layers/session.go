// Package layers implements property access, identity resolution, selection
// tracking, iteration and structural operations for the layer stack of a
// remote document.
//
// All state lives in a Session: the immutable property registry, the
// short-lived count/background cache used during iteration, and the
// snapshot slots used to save and restore the active selection. A Session is
// not safe for concurrent use.
package layers

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/lifter/pkg/descriptor"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

// Session is a logical client of one remote host.
type Session struct {
	exec     types.Executor
	docs     types.DocumentContext
	files    types.FileCopier
	prompt   types.Prompter
	registry *Registry
	logger   *slog.Logger

	cache *stackCache
	slots map[string][]int64
}

// stackCache holds layer count and background presence for the duration of
// one ForEach call.
type stackCache struct {
	count      int
	background bool
}

// Option configures a Session.
type Option func(*Session)

// WithRegistry replaces the default property registry.
func WithRegistry(r *Registry) Option {
	return func(s *Session) { s.registry = r }
}

// WithLogger sets the session logger. Remote calls are logged at Debug.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithDocuments sets the document context used after editing smart object
// contents and by apply-image.
func WithDocuments(d types.DocumentContext) Option {
	return func(s *Session) { s.docs = d }
}

// WithFileCopier sets the collaborator used to copy linked assets.
func WithFileCopier(c types.FileCopier) Option {
	return func(s *Session) { s.files = c }
}

// WithPrompter sets the collaborator asked for new linked file names. Without
// one, suggested names are accepted.
func WithPrompter(p types.Prompter) Option {
	return func(s *Session) { s.prompt = p }
}

// New creates a Session over exec.
func New(exec types.Executor, opts ...Option) *Session {
	s := &Session{
		exec:   exec,
		slots:  make(map[string][]int64),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = DefaultRegistry()
	}
	return s
}

// Registry returns the session's property registry.
func (s *Session) Registry() *Registry { return s.registry }

// submit runs a remote command and wraps failures in RemoteError.
func (s *Session) submit(command string, payload *descriptor.Descriptor) (*descriptor.Descriptor, error) {
	if payload == nil {
		payload = descriptor.New("")
	}
	s.logger.Debug("submit", "command", command, "keys", payload.Keys())
	res, err := s.exec.Submit(command, payload)
	if err != nil {
		s.logger.Warn("submit failed", "command", command, "error", err)
		return nil, &types.RemoteError{Command: command, Err: err}
	}
	if res == nil {
		res = descriptor.New("")
	}
	return res, nil
}

// query fetches remote state and wraps failures in RemoteError.
func (s *Session) query(ref *descriptor.Reference) (*descriptor.Descriptor, error) {
	s.logger.Debug("query", "ref", ref.String())
	res, err := s.exec.Query(ref)
	if err != nil {
		s.logger.Warn("query failed", "ref", ref.String(), "error", err)
		return nil, &types.RemoteError{Command: cmdQuery, Err: err}
	}
	if res == nil {
		res = descriptor.New("")
	}
	return res, nil
}

// fail attaches the operation name and target to err.
func fail(op string, ref LayerRef, err error) error {
	if err == nil {
		return nil
	}
	id := int64(-1)
	if ref.kind == refID {
		id = ref.id
	}
	return &types.OpError{Op: op, LayerID: id, Err: err}
}

// newSlotKey returns a transient snapshot slot key unique to this process.
func newSlotKey() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "slot-" + uuid.New().String()
	}
	return "slot-" + id.String()
}

func documentTarget() descriptor.RefElement {
	return descriptor.EnumElement(classDocument, enumOrdinal, ordTarget)
}

// documentProperty queries a single key of the active document.
func (s *Session) documentProperty(key string) (*descriptor.Descriptor, error) {
	return s.query(descriptor.NewReference(
		descriptor.PropertyElement(classProperty, key),
		documentTarget(),
	))
}

// HasPixelSelection reports whether the active document has a pixel
// selection.
func (s *Session) HasPixelSelection() (bool, error) {
	d, err := s.documentProperty(propSelection)
	if err != nil {
		return false, fail("has pixel selection", Current, err)
	}
	return d.Has(propSelection), nil
}

// DocumentResolution returns the active document's resolution in pixels per
// inch.
func (s *Session) DocumentResolution() (float64, error) {
	d, err := s.documentProperty(keyResolution)
	if err != nil {
		return 0, fail("document resolution", Current, err)
	}
	res, err := d.GetNumber(keyResolution)
	if err != nil {
		return 0, fail("document resolution", Current, err)
	}
	return res, nil
}
