package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lifter/pkg/types"
)

func memCopier(t *testing.T, files map[string]string) *Copier {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return &Copier{Fs: fs}
}

func TestCopy(t *testing.T) {
	c := memCopier(t, map[string]string{"/art/logo.psb": "pixels"})

	got, err := c.Copy("/art/logo.psb", "/out/v2/logo.psb")
	require.NoError(t, err)
	assert.Equal(t, "/out/v2/logo.psb", got)

	data, err := afero.ReadFile(c.Fs, got)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
}

func TestCopy_BareNameStaysBesideSource(t *testing.T) {
	c := memCopier(t, map[string]string{"/art/logo.psb": "pixels"})

	got, err := c.Copy("/art/logo.psb", "logo_02.psb")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/art", "logo_02.psb"), got)
}

func TestCopy_Errors(t *testing.T) {
	c := memCopier(t, map[string]string{
		"/art/logo.psb":  "pixels",
		"/art/taken.psb": "other",
	})

	_, err := c.Copy("/art/logo.psb", "/art/taken.psb")
	assert.ErrorIs(t, err, ErrExists)
	data, _ := afero.ReadFile(c.Fs, "/art/taken.psb")
	assert.Equal(t, "other", string(data))

	_, err = c.Copy("/art/logo.psb", "logo.psb")
	assert.ErrorIs(t, err, types.ErrSameFile)

	_, err = c.Copy("/art/missing.psb", "/art/x.psb")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = c.Copy("", "/art/x.psb")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	require.NoError(t, c.Fs.MkdirAll("/art/dir", 0o755))
	_, err = c.Copy("/art/dir", "/art/y.psb")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestNewCopier_OsFs(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.psb")
	require.NoError(t, os.WriteFile(src, []byte("a"), 0o600))

	got, err := NewCopier().Copy(src, "b.psb")
	require.NoError(t, err)
	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
}
