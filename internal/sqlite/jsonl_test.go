package sqlite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lifter/pkg/types"
)

func TestReadJSONL_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.jsonl")
	content := "{\"a\":1}\n\nnot json\n{\"b\":2}\n{broken\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := readJSONL(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.JSONEq(t, `{"a":1}`, string(records[0]))
	assert.JSONEq(t, `{"b":2}`, string(records[1]))
}

func TestReadJSONL_MissingFile(t *testing.T) {
	_, err := readJSONL(filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteJSONL_Replaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	require.NoError(t, writeJSONL(path, []json.RawMessage{json.RawMessage(`{"x":1}`), json.RawMessage(`[2]`)}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"x\":1}\n[2]\n", string(data))

	leftovers, err := filepath.Glob(filepath.Join(dir, ".journal-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestExportImportJSONL(t *testing.T) {
	src := attached(t, t.TempDir())
	require.NoError(t, src.Record(&types.JournalEntry{Kind: types.EntrySubmit, Command: "set", Payload: `{"_obj":"set"}`}))
	require.NoError(t, src.Record(&types.JournalEntry{Kind: types.EntryQuery, Command: "get", Error: "boom"}))

	path := filepath.Join(t.TempDir(), "journal.jsonl")
	n, err := src.ExportJSONL(path, types.JournalFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	dst := attached(t, t.TempDir())
	n, err = dst.ImportJSONL(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := dst.Entries(types.JournalFilter{SessionID: src.SessionID()})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "set", got[0].Command)
	assert.Equal(t, `{"_obj":"set"}`, got[0].Payload)
	assert.Equal(t, "boom", got[1].Error)

	n, err = dst.ImportJSONL(path)
	require.NoError(t, err)
	assert.Zero(t, n, "entries already present are skipped")
}

func TestImportJSONL_RejectsAnonymousEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"kind":"submit","command":"set"}`+"\n"), 0o644))

	b := attached(t, t.TempDir())
	_, err := b.ImportJSONL(path)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}
