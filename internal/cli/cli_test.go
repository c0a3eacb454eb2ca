package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lifter/internal/hostsim"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

// landscape is a background under Sky, a hidden Hills and Sun; Sun is active.
const landscape = `
documents:
  - id: 1
    width: 640
    height: 480
    selected: [4]
    layers:
      - {id: 1, name: Background, background: true, locks: {all: true}}
      - {id: 2, name: Sky}
      - {id: 3, name: Hills, visible: false, opacity: 40}
      - {id: 4, name: Sun}
`

// groups is, top to bottom: A start, B start, X, B end, C, A end.
const groups = `
documents:
  - id: 1
    width: 640
    height: 480
    selected: [40]
    layers:
      - {id: 11, name: "</Layer group>", type: groupEnd}
      - {id: 30, name: C}
      - {id: 21, name: "</Layer group>", type: groupEnd}
      - {id: 40, name: X}
      - {id: 20, name: B, type: groupStart, blend_mode: passThrough}
      - {id: 10, name: A, type: groupStart, blend_mode: passThrough}
`

type testEnv struct {
	dir     string
	fixture string
	stdin   string
}

func newEnv(t *testing.T, fixture string) *testEnv {
	t.Helper()
	for _, key := range []string{"LIFTER_CONFIG_DIR", "LIFTER_DATA_DIR", "LIFTER_BACKEND", "LIFTER_LOG_LEVEL", "LIFTER_LOG_FORMAT", "LIFTER_FIXTURE"} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))
	return &testEnv{dir: dir, fixture: path}
}

func (e *testEnv) configDir() string { return filepath.Join(e.dir, "config") }
func (e *testEnv) dataDir() string   { return filepath.Join(e.dir, "data") }

// run executes lifter with isolated directories and the env fixture.
func (e *testEnv) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	full := append([]string{"--config-dir", e.configDir(), "--data-dir", e.dataDir(), "--fixture", e.fixture}, args...)
	var stdout, stderr bytes.Buffer
	code := Run(full, strings.NewReader(e.stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// ok runs args, requires success and returns stdout.
func (e *testEnv) ok(t *testing.T, args ...string) string {
	t.Helper()
	code, out, errOut := e.run(t, args...)
	require.Equal(t, exitSuccess, code, "lifter %s: %s", strings.Join(args, " "), errOut)
	return out
}

func (e *testEnv) host(t *testing.T) *hostsim.Host {
	t.Helper()
	f, err := os.Open(e.fixture)
	require.NoError(t, err)
	defer f.Close()
	h, err := hostsim.LoadFixture(f)
	require.NoError(t, err)
	return h
}

func layerIn(t *testing.T, h *hostsim.Host, id int64) *hostsim.Layer {
	t.Helper()
	for _, l := range h.Active().Layers {
		if l.ID == id {
			return l
		}
	}
	t.Fatalf("layer %d not in fixture", id)
	return nil
}

func TestVersion(t *testing.T) {
	e := newEnv(t, landscape)

	out := e.ok(t, "version")
	assert.Contains(t, out, "lifter v"+Version)
	assert.Contains(t, out, modulePath)

	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(e.ok(t, "version", "--json")), &v))
	assert.Equal(t, Version, v["version"])
}

func TestLayersList(t *testing.T) {
	e := newEnv(t, landscape)

	var rows []layerRow
	require.NoError(t, json.Unmarshal([]byte(e.ok(t, "layers", "list", "--json")), &rows))
	require.Len(t, rows, 4)
	var ids []int64
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{4, 3, 2, 1}, ids)
	assert.Equal(t, 4, rows[0].Index)
	assert.True(t, rows[0].Active)
	assert.False(t, rows[1].Visible)
	assert.Equal(t, "Hills", rows[1].Name)

	text := e.ok(t, "layers", "list")
	assert.Contains(t, text, "*Sun")
	assert.Contains(t, text, "INDEX")
}

func TestLayersTree(t *testing.T) {
	e := newEnv(t, groups)

	want := "A/ (10)\n  B/ (20)\n    X (40)\n  C (30)\n"
	assert.Equal(t, want, e.ok(t, "layers", "tree"))
}

func TestLayersParentsAndActive(t *testing.T) {
	e := newEnv(t, groups)

	assert.Equal(t, "10\n20\n", e.ok(t, "layers", "parents", "40"))
	assert.Equal(t, "10\n20\n", e.ok(t, "layers", "parents"))
	assert.Equal(t, "[]\n", e.ok(t, "layers", "parents", "10", "--json"))
	assert.Equal(t, "40\n", e.ok(t, "layers", "active"))
}

func TestLayersSelect(t *testing.T) {
	e := newEnv(t, landscape)

	e.ok(t, "layers", "select", "3", "2", "--save")
	assert.Equal(t, []int64{3, 2}, e.host(t).Active().Selected)

	e.ok(t, "layers", "select", "--none", "--save")
	assert.Empty(t, e.host(t).Active().Selected)

	code, _, _ := e.run(t, "layers", "select")
	assert.Equal(t, exitUserError, code)
}

func TestPropGetSet(t *testing.T) {
	e := newEnv(t, landscape)

	assert.Equal(t, "Hills\n", e.ok(t, "prop", "get", "3", "name"))
	assert.Equal(t, "Sky\n", e.ok(t, "prop", "get", "@2", "name"))
	assert.Equal(t, "Sun\n", e.ok(t, "prop", "get", "current", "name"))

	e.ok(t, "prop", "set", "3", "opacity", "25")
	assert.Equal(t, 40.0, layerIn(t, e.host(t), 3).Opacity, "unsaved edits are discarded")

	e.ok(t, "prop", "set", "3", "opacity", "25", "--save")
	hills := layerIn(t, e.host(t), 3)
	assert.InDelta(t, 25.0, hills.Opacity, 1e-9)
	assert.False(t, hills.Visible)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(e.ok(t, "prop", "get", "2", "visible", "--json")), &got))
	assert.Equal(t, true, got["visible"])
}

func TestPropAll(t *testing.T) {
	e := newEnv(t, landscape)

	var snap struct {
		ID         int64          `json:"id"`
		Properties map[string]any `json:"properties"`
	}
	require.NoError(t, json.Unmarshal([]byte(e.ok(t, "prop", "all", "2", "--json")), &snap))
	assert.Equal(t, int64(2), snap.ID)
	assert.Equal(t, "Sky", snap.Properties["name"])

	assert.Contains(t, e.ok(t, "prop", "all", "2"), "name")
	assert.Contains(t, e.ok(t, "prop", "names"), "opacity")
}

func TestFind(t *testing.T) {
	e := newEnv(t, landscape)

	assert.Equal(t, "3\n", e.ok(t, "find", "--expr", "opacity < 50"))
	assert.Equal(t, "2\n4\n", e.ok(t, "find", "--name", "^S"))
	assert.Equal(t, "4\n", e.ok(t, "find", "--name", "^S", "--last"))
	assert.Equal(t, "1\n", e.ok(t, "find", "--expr", "visible", "--first"))
	assert.Equal(t, "[]\n", e.ok(t, "find", "--expr", `name == "Moon"`, "--json"))

	for _, args := range [][]string{
		{"find"},
		{"find", "--expr", "visible", "--name", "S"},
		{"find", "--expr", "opacity <"},
		{"find", "--name", "("},
	} {
		code, _, _ := e.run(t, args...)
		assert.Equal(t, exitUserError, code, "%v", args)
	}
}

func TestMask(t *testing.T) {
	e := newEnv(t, landscape)

	e.ok(t, "mask", "add", "2", "--save")
	e.ok(t, "mask", "add", "2", "--vector", "--save")
	var state map[string]bool
	require.NoError(t, json.Unmarshal([]byte(e.ok(t, "mask", "show", "2", "--json")), &state))
	assert.Equal(t, map[string]bool{"layer": true, "vector": true, "filter": false}, state)

	e.ok(t, "mask", "remove", "2", "--vector", "--save")
	sky := layerIn(t, e.host(t), 2)
	assert.Nil(t, sky.VectorMask)
	assert.NotNil(t, sky.LayerMask)

	e.ok(t, "mask", "invert", "2", "--save")
	assert.True(t, layerIn(t, e.host(t), 2).LayerMask.Inverted)

	e.ok(t, "mask", "remove", "2", "--apply", "--save")
	assert.Nil(t, layerIn(t, e.host(t), 2).LayerMask)
}

func TestGroup(t *testing.T) {
	e := newEnv(t, landscape)

	assert.Equal(t, "5\n", e.ok(t, "group", "make", "--members", "2,3", "--name", "Pair", "--save"))
	assert.Equal(t, "5\n", e.ok(t, "layers", "parents", "2"))
	assert.Equal(t, "Pair\n", e.ok(t, "prop", "get", "5", "name"))

	out := e.ok(t, "group", "merge", "5", "--save")
	assert.NotEmpty(t, strings.TrimSpace(out))
	assert.Len(t, e.host(t).Active().Layers, 3)

	code, _, _ := e.run(t, "group", "merge", "4")
	assert.Equal(t, exitUserError, code)
}

func TestSmartCopy(t *testing.T) {
	dir := t.TempDir()
	asset := filepath.Join(dir, "logo.psb")
	require.NoError(t, os.WriteFile(asset, []byte("psb"), 0o644))
	fixture := `
documents:
  - id: 1
    width: 640
    height: 480
    selected: [2]
    layers:
      - {id: 1, name: Background, background: true, locks: {all: true}}
      - id: 2
        name: Logo
        bounds: {top: 20, left: 10, bottom: 70, right: 110}
        smart_object:
          link: ` + asset + `
          resolution: 144
          size: {width: 200, height: 100}
          transform: [10, 20, 110, 20, 110, 70, 10, 70]
          comp: 11
          comps:
            - {id: 11, name: Light}
assets:
  ` + asset + `: {width: 200, height: 100, resolution: 144, comps: [{id: 11, name: Light}]}
`
	e := newEnv(t, fixture)

	out := e.ok(t, "smart", "copy", "2", "--yes", "--save")
	assert.Equal(t, "3\n", out)
	data, err := os.ReadFile(filepath.Join(dir, "logo_02.psb"))
	require.NoError(t, err)
	assert.Equal(t, "psb", string(data))
	so := layerIn(t, e.host(t), 3).SmartObject
	require.NotNil(t, so)
	assert.Equal(t, filepath.Join(dir, "logo_02.psb"), so.Link)
	assert.Equal(t, int64(11), so.Comp)

	e.stdin = "badge\n"
	e.ok(t, "smart", "copy", "2")
	_, err = os.Stat(filepath.Join(dir, "badge.psb"))
	assert.NoError(t, err)

	e.stdin = ""
	code, _, errOut := e.run(t, "smart", "copy", "2")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, types.ErrCancelled.Error())

	code, _, _ = e.run(t, "smart", "copy", "2", "--yes")
	assert.Equal(t, exitSysError, code, "logo_02.psb already exists")
}

func TestJournal(t *testing.T) {
	e := newEnv(t, landscape)
	e.ok(t, "prop", "get", "2", "name")
	e.ok(t, "prop", "set", "2", "visible", "false")

	var entries []types.JournalEntry
	require.NoError(t, json.Unmarshal([]byte(e.ok(t, "journal", "list", "--json")), &entries))
	require.NotEmpty(t, entries)
	sessions := make(map[string]bool)
	var submits int
	for _, en := range entries {
		sessions[en.SessionID] = true
		if en.Kind == types.EntrySubmit {
			submits++
		}
	}
	assert.Len(t, sessions, 2, "one session per layer command")
	assert.Positive(t, submits)

	var failed []types.JournalEntry
	require.NoError(t, json.Unmarshal([]byte(e.ok(t, "journal", "list", "--failed", "--json")), &failed))
	assert.Empty(t, failed)

	export := filepath.Join(e.dir, "journal.jsonl")
	assert.Contains(t, e.ok(t, "journal", "export", export), "exported")
	data, err := os.ReadFile(export)
	require.NoError(t, err)
	assert.Equal(t, len(entries), strings.Count(string(data), "\n"))

	first := entries[0].SessionID
	assert.Contains(t, e.ok(t, "journal", "prune", first), "pruned")
	require.NoError(t, json.Unmarshal([]byte(e.ok(t, "journal", "list", "--json", "--session", first)), &entries))
	assert.Empty(t, entries)

	require.NoError(t, json.Unmarshal([]byte(e.ok(t, "journal", "import", export, "--json")), &map[string]int{}))
	require.NoError(t, json.Unmarshal([]byte(e.ok(t, "journal", "list", "--json", "--session", first)), &entries))
	assert.NotEmpty(t, entries)
}

func TestNoJournal(t *testing.T) {
	e := newEnv(t, landscape)
	e.ok(t, "prop", "get", "2", "name", "--no-journal")

	_, err := os.Stat(filepath.Join(e.dataDir(), "journal.db"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	code, _, _ := e.run(t, "journal", "list", "--no-journal")
	assert.Equal(t, exitUserError, code)
}

func TestInit(t *testing.T) {
	e := newEnv(t, landscape)

	assert.Contains(t, e.ok(t, "init"), "wrote")
	data, err := os.ReadFile(filepath.Join(e.configDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")
	_, err = os.Stat(filepath.Join(e.dataDir(), "journal.db"))
	assert.NoError(t, err)

	assert.Contains(t, e.ok(t, "init"), "kept")
}

func TestConfigFile(t *testing.T) {
	e := newEnv(t, landscape)
	require.NoError(t, os.MkdirAll(e.configDir(), 0o755))
	cfg := "backend: none\nlog_format: json\nfixture: " + e.fixture + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir(), "config.yaml"), []byte(cfg), 0o644))

	var stdout, stderr bytes.Buffer
	code := Run([]string{"--config-dir", e.configDir(), "--data-dir", e.dataDir(), "-v", "layers", "active"},
		strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, exitSuccess, code, stderr.String())
	assert.Equal(t, "4\n", stdout.String())
	assert.Contains(t, stderr.String(), `"msg":"query"`)
	_, err := os.Stat(filepath.Join(e.dataDir(), "journal.db"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	t.Setenv("LIFTER_BACKEND", "postgres")
	code, _, _ = e.run(t, "layers", "active")
	assert.Equal(t, exitUserError, code)
}

func TestExitCodes(t *testing.T) {
	e := newEnv(t, landscape)

	userCases := [][]string{
		{"prop", "get", "2", "sparkle"},
		{"prop", "get", "x", "name"},
		{"prop", "get", "@0", "name"},
		{"prop", "get", "@9", "name"},
		{"prop", "set", "2", "opacity", "lots"},
		{"prop", "get", "2"},
		{"layers", "list", "--bogus"},
		{"nosuch"},
	}
	for _, args := range userCases {
		code, _, _ := e.run(t, args...)
		assert.Equal(t, exitUserError, code, "%v", args)
	}

	broken := newEnv(t, "documents: []\n")
	code, _, errOut := broken.run(t, "layers", "list")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "no documents")

	var stdout, stderr bytes.Buffer
	code = Run([]string{"--config-dir", e.configDir(), "--data-dir", e.dataDir(), "layers", "list"},
		strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr.String(), "no fixture")

	blocker := filepath.Join(e.dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	code, _, _ = e.run(t, "--data-dir", filepath.Join(blocker, "data"), "layers", "list")
	assert.Equal(t, exitSysError, code)
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		arg     string
		want    string
		wantErr bool
	}{
		{"", "current", false},
		{"current", "current", false},
		{"7", "id 7", false},
		{"0", "id 0", false},
		{"@3", "index 3", false},
		{"@0", "", true},
		{"@x", "", true},
		{"-1", "", true},
		{"seven", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			ref, err := parseRef(tt.arg)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ref.String())
		})
	}
}

func TestLinePrompter(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"answer", "badge\n", "badge", true},
		{"empty line accepts suggestion", "  \n", "logo_02.psb", true},
		{"answer without newline", "badge", "badge", true},
		{"end of input cancels", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := &linePrompter{in: strings.NewReader(tt.input), out: &out}
			got, ok, err := p.PromptFileName("Name", "logo_02.psb")
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Name [logo_02.psb]: ", out.String())
		})
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "-", formatValue(nil))
	assert.Equal(t, "Sky", formatValue("Sky"))
	assert.Equal(t, "40", formatValue(40.0))
	assert.Equal(t, "groupStart", formatValue(types.LayerGroupStart))
	assert.Equal(t, "[1,2]", formatValue([]int64{1, 2}))
}
