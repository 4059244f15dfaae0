package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv keeps overrides from the host environment out of a test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		EnvConfigPath, "RELMAP_LOG_LEVEL", "RELMAP_LOG_FORMAT",
		"RELMAP_OWNERSHIP_DB", "RELMAP_TREE_DB", "RELMAP_TREE_SEED",
		"RELMAP_FOREIGN_KEYS", "RELMAP_SHARED_CONNECTION", "RELMAP_FRESH",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "db1.sqlite", cfg.Ownership.Database)
	assert.Equal(t, "db2.sqlite", cfg.Tree.Database)
	assert.Empty(t, cfg.Tree.Seed)
	assert.True(t, cfg.Database.ForeignKeys)
	assert.True(t, cfg.Database.SharedConnection)
	assert.True(t, cfg.Database.Fresh)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromPathKeepsDefaultsForMissingKeys(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
ownership:
  database: owners.sqlite
database:
  fresh: false
log:
  level: debug
`)

	cfg, got, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	assert.Equal(t, "owners.sqlite", cfg.Ownership.Database)
	assert.Equal(t, "db2.sqlite", cfg.Tree.Database)
	assert.False(t, cfg.Database.Fresh)
	assert.True(t, cfg.Database.ForeignKeys, "unspecified bools keep their defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromPathErrors(t *testing.T) {
	clearEnv(t)

	_, _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, _, err = LoadFromPath(writeConfig(t, "ownership: [unterminated"))
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "tree:\n  database: from_file.sqlite\n")
	t.Setenv("RELMAP_TREE_DB", "from_env.sqlite")
	t.Setenv("RELMAP_TREE_SEED", "seed.yaml")
	t.Setenv("RELMAP_FOREIGN_KEYS", "false")
	t.Setenv("RELMAP_LOG_FORMAT", "json")

	cfg, _, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "from_env.sqlite", cfg.Tree.Database)
	assert.Equal(t, "seed.yaml", cfg.Tree.Seed)
	assert.False(t, cfg.Database.ForeignKeys)
	assert.Equal(t, "json", cfg.Log.Format)

	t.Setenv("RELMAP_FRESH", "not-a-bool")
	_, _, err = LoadFromPath(path)
	assert.Error(t, err)
}

func TestLoadUsesExplicitPath(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "ownership:\n  database: explicit.sqlite\n")
	t.Setenv(EnvConfigPath, path)

	cfg, got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, "explicit.sqlite", cfg.Ownership.Database)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"empty ownership path", func(c *Config) { c.Ownership.Database = "" }, false},
		{"empty tree path", func(c *Config) { c.Tree.Database = "" }, false},
		{"shared file", func(c *Config) { c.Tree.Database = c.Ownership.Database }, false},
		{"both in memory", func(c *Config) {
			c.Ownership.Database = ":memory:"
			c.Tree.Database = ":memory:"
		}, true},
		{"unknown level", func(c *Config) { c.Log.Level = "loud" }, false},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Tree.Seed = "nodes.json"
	cfg.Database.Fresh = false
	require.NoError(t, cfg.Save(path))

	loaded, _, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestFindConfigPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	assert.Empty(t, FindConfigPath())

	xdg := filepath.Join(dir, ConfigDirName, "config.yaml")
	require.NoError(t, EnsureConfigDir(xdg))
	require.NoError(t, os.WriteFile(xdg, []byte("version: 1\n"), 0644))
	assert.Equal(t, xdg, FindConfigPath())
	assert.Equal(t, xdg, DefaultConfigPath())
}
