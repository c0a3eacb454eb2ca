// Package hostsim is an in-memory layered-document host. It speaks the
// command and query vocabulary used by pkg/layers, enforces the quirks of a
// real host (opacity writes are rejected on hidden layers, id 0 lookups are
// rejected, the background cannot be moved), records every call and can be
// told to fail. It backs the package tests and the CLI fixtures.
package hostsim

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/lifter/pkg/descriptor"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

// Host errors.
var (
	ErrNoSuchLayer    = errors.New("no such layer")
	ErrNoSuchDocument = errors.New("no such document")
	ErrRejected       = errors.New("rejected by host")
	ErrUnknownCommand = errors.New("unknown command")
	ErrAssetNotFound  = errors.New("asset not found")
	ErrAssetExists    = errors.New("asset already exists")
	ErrInjected       = errors.New("injected failure")
)

// Asset describes a placeable file: its inner canvas size, resolution and
// layer comps.
type Asset struct {
	Width      float64      `yaml:"width"`
	Height     float64      `yaml:"height"`
	Resolution float64      `yaml:"resolution"`
	Comps      []types.Comp `yaml:"comps,omitempty"`
}

// Call is one recorded Submit.
type Call struct {
	Command string
	Payload *descriptor.Descriptor
}

// Host implements types.Executor, types.DocumentContext and
// types.FileCopier. It is not safe for concurrent use.
type Host struct {
	docs    []*Document
	active  int64
	assets  map[string]Asset
	failOn  map[string]error
	calls   []Call
	queries int
}

var (
	_ types.Executor        = (*Host)(nil)
	_ types.DocumentContext = (*Host)(nil)
	_ types.FileCopier      = (*Host)(nil)
)

// New creates a host holding docs. The first document is active.
func New(docs ...*Document) *Host {
	h := &Host{assets: make(map[string]Asset), failOn: make(map[string]error)}
	for _, d := range docs {
		h.AddDocument(d)
	}
	return h
}

// AddDocument opens d. The first document added becomes active.
func (h *Host) AddDocument(d *Document) {
	if d.Resolution == 0 {
		d.Resolution = 72
	}
	if d.Channel == "" {
		d.Channel = "RGB"
	}
	h.docs = append(h.docs, d)
	if h.active == 0 {
		h.active = d.ID
	}
}

// Documents returns the open documents.
func (h *Host) Documents() []*Document { return h.docs }

// Document returns the open document id.
func (h *Host) Document(id int64) (*Document, error) {
	for _, d := range h.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrNoSuchDocument, id)
}

// Active returns the active document.
func (h *Host) Active() *Document {
	d, err := h.Document(h.active)
	if err != nil {
		return nil
	}
	return d
}

// AddAsset registers a placeable file.
func (h *Host) AddAsset(path string, a Asset) { h.assets[path] = a }

// Asset returns the file registered at path.
func (h *Host) Asset(path string) (Asset, bool) {
	a, ok := h.assets[path]
	return a, ok
}

// FailOn makes every later call of command fail with err. Queries use the
// command name "get". A nil err clears the failure.
func (h *Host) FailOn(command string, err error) {
	if err == nil {
		delete(h.failOn, command)
		return
	}
	h.failOn[command] = err
}

// Calls returns the submitted commands in order.
func (h *Host) Calls() []Call {
	out := make([]Call, len(h.calls))
	copy(out, h.calls)
	return out
}

// Commands returns the names of the submitted commands in order.
func (h *Host) Commands() []string {
	out := make([]string, len(h.calls))
	for i, c := range h.calls {
		out[i] = c.Command
	}
	return out
}

// QueryCount returns the number of queries served.
func (h *Host) QueryCount() int { return h.queries }

// Reset forgets recorded calls and queries.
func (h *Host) Reset() {
	h.calls = nil
	h.queries = 0
}

// ActiveDocumentID implements types.DocumentContext.
func (h *Host) ActiveDocumentID() (int64, error) {
	if h.Active() == nil {
		return 0, ErrNoSuchDocument
	}
	return h.active, nil
}

// MakeActiveDocument implements types.DocumentContext.
func (h *Host) MakeActiveDocument(id int64) error {
	if _, err := h.Document(id); err != nil {
		return err
	}
	h.active = id
	return nil
}

// Copy implements types.FileCopier over the registered assets.
func (h *Host) Copy(src, dst string) (string, error) {
	if err := h.failOn["copy"]; err != nil {
		return "", err
	}
	a, ok := h.assets[src]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrAssetNotFound, src)
	}
	if _, exists := h.assets[dst]; exists {
		return "", fmt.Errorf("%w: %s", ErrAssetExists, dst)
	}
	a.Comps = append([]types.Comp(nil), a.Comps...)
	h.assets[dst] = a
	return dst, nil
}

// Submit implements types.Executor.
func (h *Host) Submit(command string, payload *descriptor.Descriptor) (*descriptor.Descriptor, error) {
	if payload == nil {
		payload = descriptor.New("")
	}
	h.calls = append(h.calls, Call{Command: command, Payload: payload.Clone()})
	if err := h.failOn[command]; err != nil {
		return nil, err
	}
	doc := h.Active()
	if doc == nil {
		return nil, ErrNoSuchDocument
	}
	run, ok := commands[command]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
	if err := run(h, doc, payload); err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}
	return descriptor.New(""), nil
}
