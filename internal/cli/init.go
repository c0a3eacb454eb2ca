package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/lifter/internal/paths"
	"github.com/mesh-intelligence/lifter/internal/sqlite"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file and the journal",
		Long: "Write config.yaml to the config directory unless one exists, then\n" +
			"create the journal database in the data directory.",
		Args: cobra.NoArgs,
		RunE: runE(runInit),
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	st, err := loadSettings()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(st.configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	path := paths.ConfigFile(st.configDir)
	wrote, err := writeConfigIfMissing(path, st.config)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	if st.config.Backend == types.BackendSQLite {
		journal := sqlite.NewBackend()
		if err := journal.Attach(st.config); err != nil {
			return fmt.Errorf("initialize journal: %w", err)
		}
		if err := journal.Detach(); err != nil {
			return fmt.Errorf("finalize journal: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if flags.jsonMode {
		return printJSON(out, map[string]any{"config": path, "created": wrote, "backend": st.config.Backend, "data_dir": st.config.DataDir})
	}
	if wrote {
		fmt.Fprintf(out, "wrote %s\n", path)
	} else {
		fmt.Fprintf(out, "kept %s\n", path)
	}
	if st.config.Backend == types.BackendSQLite {
		fmt.Fprintf(out, "journal ready in %s\n", st.config.DataDir)
	}
	return nil
}

// writeConfigIfMissing writes cfg to path unless the file exists. It
// reports whether it wrote the file.
func writeConfigIfMissing(path string, cfg types.Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
