package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lifter/internal/files"
	"github.com/mesh-intelligence/lifter/internal/hostsim"
	"github.com/mesh-intelligence/lifter/internal/sqlite"
	"github.com/mesh-intelligence/lifter/pkg/layers"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

// workspace is the state shared by layer commands: a host loaded from the
// fixture, the journal recording its calls and the session driving it.
type workspace struct {
	settings *settings
	logger   *slog.Logger
	host     *hostsim.Host
	journal  *sqlite.Backend
	recorder *sqlite.Recorder
	session  *layers.Session
}

// openWorkspace loads settings and the fixture, attaches the journal when
// enabled and builds the session. The caller must close the workspace.
func openWorkspace(cmd *cobra.Command) (*workspace, error) {
	st, err := loadSettings()
	if err != nil {
		return nil, err
	}
	if st.config.Fixture == "" {
		return nil, fmt.Errorf("%w: no fixture; pass --fixture or set fixture in config.yaml", errUsage)
	}
	logger := newLogger(st.config, cmd.ErrOrStderr())

	f, err := os.Open(st.config.Fixture)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", errUsage, err)
		}
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	host, err := hostsim.LoadFixture(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errUsage, st.config.Fixture, err)
	}

	ws := &workspace{settings: st, logger: logger, host: host}
	var exec types.Executor = host
	if st.config.Backend == types.BackendSQLite {
		ws.journal = sqlite.NewBackend()
		if err := ws.journal.Attach(st.config); err != nil {
			return nil, fmt.Errorf("attach journal: %w", err)
		}
		ws.recorder = sqlite.NewRecorder(ws.journal, host, sqlite.WithLogger(logger))
		exec = ws.recorder
		logger.Debug("journal attached", "session", ws.journal.SessionID(), "data_dir", st.config.DataDir)
	}

	ws.session = layers.New(exec,
		layers.WithLogger(logger),
		layers.WithDocuments(host),
		layers.WithFileCopier(&assetCopier{host: host, disk: files.NewCopier()}),
		layers.WithPrompter(&linePrompter{in: cmd.InOrStdin(), out: cmd.ErrOrStderr()}),
	)
	return ws, nil
}

// close saves the fixture when --save was given and the command succeeded,
// then detaches the journal.
func (ws *workspace) close(runErr error) error {
	var errs []error
	if runErr == nil && flags.save {
		if err := ws.saveFixture(); err != nil {
			errs = append(errs, err)
		}
	}
	if ws.recorder != nil {
		if err := ws.recorder.Err(); err != nil {
			ws.logger.Warn("journal incomplete", "error", err)
		}
	}
	if ws.journal != nil {
		if err := ws.journal.Detach(); err != nil {
			errs = append(errs, fmt.Errorf("detach journal: %w", err))
		}
	}
	return errors.Join(errs...)
}

// saveFixture rewrites the fixture through a temp file in its directory.
func (ws *workspace) saveFixture() error {
	path := ws.settings.config.Fixture
	tmp, err := os.CreateTemp(filepath.Dir(path), ".fixture-*.tmp")
	if err != nil {
		return fmt.Errorf("save fixture: %w", err)
	}
	if err := ws.host.WriteFixture(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("save fixture: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save fixture: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save fixture: %w", err)
	}
	return nil
}

// withSession runs fn against an open workspace and closes it afterwards.
func withSession(fn func(cmd *cobra.Command, args []string, s *layers.Session) error) func(*cobra.Command, []string) error {
	return runE(func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		err = fn(cmd, args, ws.session)
		return errors.Join(err, ws.close(err))
	})
}

// parseRef reads a layer reference: "current", a layer id, or "@N" for the
// Nth layer counted from the bottom.
func parseRef(arg string) (layers.LayerRef, error) {
	if arg == "" || arg == "current" {
		return layers.Current, nil
	}
	if pos, ok := strings.CutPrefix(arg, "@"); ok {
		i, err := strconv.Atoi(pos)
		if err != nil || i < 1 {
			return layers.LayerRef{}, fmt.Errorf("%w: bad stack position %q", types.ErrInvalidArgument, arg)
		}
		return layers.ByIndex(i), nil
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 0 {
		return layers.LayerRef{}, fmt.Errorf("%w: bad layer reference %q", types.ErrInvalidArgument, arg)
	}
	return layers.ByID(id), nil
}

// parseIDs reads a comma-separated list of layer ids.
func parseIDs(list string) ([]int64, error) {
	if list == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(list, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad layer id %q", types.ErrInvalidArgument, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// assetCopier copies linked assets on disk when the source exists there
// and registers the copy with the host so it can be placed.
type assetCopier struct {
	host *hostsim.Host
	disk *files.Copier
}

func (c *assetCopier) Copy(src, dst string) (string, error) {
	if _, err := c.disk.Fs.Stat(src); err == nil {
		if dst, err = c.disk.Copy(src, dst); err != nil {
			return "", err
		}
	}
	return c.host.Copy(src, dst)
}

// linePrompter asks for file names on the command's stdin. An empty answer
// accepts the suggestion; end of input cancels.
type linePrompter struct {
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader
}

func (p *linePrompter) PromptFileName(message, suggested string) (string, bool, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.in)
	}
	fmt.Fprintf(p.out, "%s [%s]: ", message, suggested)
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", false, nil
		}
		return "", false, err
	}
	if line = strings.TrimSpace(line); line == "" {
		return suggested, true, nil
	}
	return line, true, nil
}
