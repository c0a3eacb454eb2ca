package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/lifter/internal/paths"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

// Config keys. Each can be overridden by LIFTER_<KEY> in the environment.
const (
	cfgKeyBackend   = "backend"
	cfgKeyDataDir   = "data_dir"
	cfgKeyLogLevel  = "log_level"
	cfgKeyLogFormat = "log_format"
	cfgKeyFixture   = "fixture"
)

const envPrefix = "LIFTER"

// settings is the resolved configuration of one invocation.
type settings struct {
	configDir string
	config    types.Config
}

// loadSettings reads config.yaml from the resolved config directory, applies
// environment overrides and flags, and validates the result. A missing
// config.yaml is not an error.
func loadSettings() (*settings, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetDefault(cfgKeyLogFormat, "text")
	v.SetConfigFile(paths.ConfigFile(configDir))
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := types.Config{
		Backend:   v.GetString(cfgKeyBackend),
		DataDir:   v.GetString(cfgKeyDataDir),
		LogLevel:  strings.ToLower(v.GetString(cfgKeyLogLevel)),
		LogFormat: strings.ToLower(v.GetString(cfgKeyLogFormat)),
		Fixture:   v.GetString(cfgKeyFixture),
	}
	if flags.noJournal {
		cfg.Backend = types.BackendNone
	}
	if flags.fixture != "" {
		cfg.Fixture = flags.fixture
	}
	if flags.verbose {
		cfg.LogLevel = "debug"
	}
	if cfg.DataDir, err = paths.ResolveDataDir(flags.dataDir, cfg.DataDir); err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: config: %w", errUsage, err)
	}
	return &settings{configDir: configDir, config: cfg}, nil
}

// newLogger builds the slog logger described by cfg, writing to w.
func newLogger(cfg types.Config, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
