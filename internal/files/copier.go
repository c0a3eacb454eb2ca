// Package files copies linked smart object assets on a local or in-memory
// filesystem.
package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/mesh-intelligence/lifter/pkg/types"
)

// ErrExists is returned when the destination already exists.
var ErrExists = errors.New("destination exists")

// Copier implements types.FileCopier on an afero filesystem. It never
// overwrites an existing file.
type Copier struct {
	Fs afero.Fs
}

var _ types.FileCopier = (*Copier)(nil)

// NewCopier returns a Copier on the operating system filesystem.
func NewCopier() *Copier {
	return &Copier{Fs: afero.NewOsFs()}
}

// Copy copies src to dst and returns dst. A relative dst is resolved
// against the directory of src. Missing parent directories are created.
func (c *Copier) Copy(src, dst string) (string, error) {
	if src == "" || dst == "" {
		return "", fmt.Errorf("%w: copy needs a source and a destination", types.ErrInvalidArgument)
	}
	if !filepath.IsAbs(dst) && filepath.Dir(dst) == "." {
		dst = filepath.Join(filepath.Dir(src), dst)
	}
	if filepath.Clean(src) == filepath.Clean(dst) {
		return "", types.ErrSameFile
	}

	in, err := c.Fs.Open(src)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", src, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", types.ErrInvalidArgument, src)
	}

	if err := c.Fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}
	out, err := c.Fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExists, dst)
		}
		return "", fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		c.Fs.Remove(dst)
		return "", fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		c.Fs.Remove(dst)
		return "", fmt.Errorf("close %s: %w", dst, err)
	}
	return dst, nil
}
