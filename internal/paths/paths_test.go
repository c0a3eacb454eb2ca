package paths

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlatform swaps the platform lookups for the duration of t.
func fakePlatform(t *testing.T, goos, home, cwd string) {
	t.Helper()
	saved := platform
	t.Cleanup(func() { platform = saved })
	platform.goos = goos
	platform.homeDir = func() (string, error) { return home, nil }
	platform.userConfigDir = func() (string, error) { return filepath.Join(home, "AppData"), nil }
	platform.getwd = func() (string, error) { return cwd, nil }
}

func TestDefaultDirs_Linux(t *testing.T) {
	fakePlatform(t, "linux", "/home/ada", "/work")

	t.Run("XDG variables win", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
		t.Setenv("XDG_DATA_HOME", "/xdg/data")

		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/xdg/config/lifter", got)
		got, err = DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, "/xdg/data/lifter", got)
	})

	t.Run("home fallbacks", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("XDG_DATA_HOME", "")

		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/home/ada/.config/lifter", got)
		got, err = DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, "/home/ada/.local/share/lifter", got)
	})
}

func TestDefaultDirs_OtherPlatforms(t *testing.T) {
	fakePlatform(t, "darwin", "/Users/ada", "/work")
	t.Setenv("XDG_CONFIG_HOME", "/ignored")

	got, err := DefaultConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/Users/ada/AppData/lifter", got)
	got, err = DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, "/Users/ada/AppData/lifter", got)
}

func TestDefaultDirs_LookupFailure(t *testing.T) {
	fakePlatform(t, "linux", "", "/work")
	platform.homeDir = func() (string, error) { return "", errors.New("no home") }
	t.Setenv("XDG_CONFIG_HOME", "")

	_, err := DefaultConfigDir()
	assert.Error(t, err)
}

func TestResolveConfigDir(t *testing.T) {
	cwd := t.TempDir()
	fakePlatform(t, "linux", "/home/ada", cwd)
	t.Setenv("XDG_CONFIG_HOME", "")

	tests := []struct {
		name    string
		flag    string
		env     string
		project bool
		want    string
	}{
		{"flag wins over env", "/explicit", "/env", true, "/explicit"},
		{"env wins over project dir", "", "/env", true, "/env"},
		{"project dir wins over default", "", "", true, filepath.Join(cwd, ProjectDirName)},
		{"per-user default", "", "", false, "/home/ada/.config/lifter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project := filepath.Join(cwd, ProjectDirName)
			if tt.project {
				require.NoError(t, os.MkdirAll(project, 0o755))
			} else {
				require.NoError(t, os.RemoveAll(project))
			}
			t.Setenv(EnvConfigDir, tt.env)

			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	fakePlatform(t, "linux", "/home/ada", "/work")
	t.Setenv("XDG_DATA_HOME", "")

	tests := []struct {
		name       string
		flag       string
		configured string
		env        string
		want       string
	}{
		{"flag wins over all", "/flag", "/config", "/env", "/flag"},
		{"config value wins over env", "", "/config", "/env", "/config"},
		{"env wins over default", "", "", "/env", "/env"},
		{"per-user default", "", "", "", "/home/ada/.local/share/lifter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			got, err := ResolveDataDir(tt.flag, tt.configured)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_RelativeBecomesAbsolute(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv(EnvDataDir, "")

	got, err := ResolveConfigDir("relative/config")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "got %s", got)

	got, err = ResolveDataDir("", "relative/data")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "got %s", got)
}

func TestConfigFile(t *testing.T) {
	assert.Equal(t, filepath.Join("/etc/lifter", "config.yaml"), ConfigFile("/etc/lifter"))
}
