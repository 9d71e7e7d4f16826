package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	for _, k := range keys {
		t.Setenv("THUMBWIZ_"+strings.ToUpper(k), "")
		os.Unsetenv("THUMBWIZ_" + strings.ToUpper(k))
	}
	return dir
}

func TestGlobalPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/thumbwiz/thumbwiz.yml", GlobalPath())

	t.Setenv("XDG_CONFIG_HOME", "")
	got := GlobalPath()
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "thumbwiz.yml", filepath.Base(got))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.False(t, Exists())
}

func TestLoad_Precedence(t *testing.T) {
	isolate(t)

	global := Defaults()
	global.Addr = ":9000"
	global.Owner = "global-user"
	require.NoError(t, WriteGlobal(global))

	project := Defaults()
	project.Addr = ":7000"
	project.Owner = "global-user"
	require.NoError(t, WriteProject(project))
	assert.True(t, Exists())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "global-user", cfg.Owner)

	t.Setenv("THUMBWIZ_ADDR", ":6000")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, ":6000", cfg.Addr)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("THUMBWIZ_GENERATION_MODE=render\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("THUMBWIZ_GENERATION_MODE") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "render", cfg.GenerationMode)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())

	cfg.Backend = BackendAWS
	assert.ErrorContains(t, cfg.Validate(), "style_bucket")
	cfg.StyleBucket = "styles"
	assert.ErrorContains(t, cfg.Validate(), "dynamo_table")
	cfg.DynamoTable = "thumbs"
	assert.NoError(t, cfg.Validate())

	cfg.Backend = "sqlite"
	assert.Error(t, cfg.Validate())
}
