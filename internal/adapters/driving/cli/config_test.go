package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staticfold-labs/notemill-cli/internal/core/domain"
)

// isolateHome points HOME at a temp dir so tests never read a real
// config file.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("NOTION_TOKEN", "")
	t.Setenv("NOTION_DATABASE_ID", "")
	return home
}

func writeConfig(t *testing.T, home, contents string) {
	t.Helper()
	dir := filepath.Join(home, ".notemill")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(contents), 0600))
}

func TestResolveSettings_MissingTokenFails(t *testing.T) {
	isolateHome(t)

	_, err := resolveSettings("", "db-1", "", "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingConfig))
}

func TestResolveSettings_MissingDatabaseFails(t *testing.T) {
	isolateHome(t)

	_, err := resolveSettings("tok-1", "", "", "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingConfig))
}

func TestResolveSettings_Defaults(t *testing.T) {
	isolateHome(t)

	cfg, err := resolveSettings("tok-1", "db-1", "", "")

	require.NoError(t, err)
	assert.Equal(t, "./content", cfg.ContentDir)
	assert.Equal(t, "./static", cfg.StaticDir)
	assert.Equal(t, 1920, cfg.MaxWidth)
	assert.Equal(t, "first", cfg.DataSourcePolicy)
}

func TestResolveSettings_EnvironmentFillsCredentials(t *testing.T) {
	isolateHome(t)
	t.Setenv("NOTION_TOKEN", "env-token")
	t.Setenv("NOTION_DATABASE_ID", "env-db")

	cfg, err := resolveSettings("", "", "", "")

	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Token)
	assert.Equal(t, "env-db", cfg.DatabaseID)
}

func TestResolveSettings_FlagBeatsEnvironment(t *testing.T) {
	isolateHome(t)
	t.Setenv("NOTION_TOKEN", "env-token")

	cfg, err := resolveSettings("flag-token", "db-1", "", "")

	require.NoError(t, err)
	assert.Equal(t, "flag-token", cfg.Token)
}

func TestResolveSettings_ConfigFileLayer(t *testing.T) {
	home := isolateHome(t)
	writeConfig(t, home, `
[notion]
token = "file-token"
database_id = "file-db"

[site]
content_dir = "site/content"

[media]
max_width = 1280

[sync]
data_source_policy = "fail"
`)

	cfg, err := resolveSettings("", "", "", "")

	require.NoError(t, err)
	assert.Equal(t, "file-token", cfg.Token)
	assert.Equal(t, "file-db", cfg.DatabaseID)
	assert.Equal(t, "site/content", cfg.ContentDir)
	assert.Equal(t, "./static", cfg.StaticDir)
	assert.Equal(t, 1280, cfg.MaxWidth)
	assert.Equal(t, "fail", cfg.DataSourcePolicy)
}

func TestResolveSettings_EnvBeatsConfigFile(t *testing.T) {
	home := isolateHome(t)
	writeConfig(t, home, `
[notion]
token = "file-token"
database_id = "file-db"
`)
	t.Setenv("NOTION_TOKEN", "env-token")

	cfg, err := resolveSettings("", "", "", "")

	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Token)
	assert.Equal(t, "file-db", cfg.DatabaseID)
}
