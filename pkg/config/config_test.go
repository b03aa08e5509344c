package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	yaml := `
default_user_agent: "page-engine/1.0"
backend: browser
max_size_bytes: 2097152
spill_threshold: 16384
browser:
  headless: false
  navigation_timeout: 45s
  keep_page_open: true
screenshot:
  enabled: true
  output_dir: /tmp/shots
cache:
  enabled: true
  state_dir: /var/lib/page-engine
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "page-engine/1.0", cfg.DefaultUserAgent)
	assert.Equal(t, BackendBrowser, GetEffectiveBackend(cfg))
	require.NotNil(t, cfg.MaxSizeBytes)
	assert.Equal(t, int64(2097152), *cfg.MaxSizeBytes)
	assert.Equal(t, 16384, GetEffectiveSpillThreshold(cfg))
	assert.False(t, cfg.Browser.GetEffectiveHeadless())
	assert.Equal(t, 45*time.Second, cfg.Browser.GetEffectiveNavigationTimeout())
	assert.True(t, cfg.Browser.KeepPageOpen)
	assert.True(t, cfg.Screenshot.Enabled)
	assert.Equal(t, "/var/lib/page-engine", GetEffectiveStateDir(cfg))
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEffectiveDefaults(t *testing.T) {
	cfg := &AppConfig{}
	assert.Equal(t, BackendRaw, GetEffectiveBackend(cfg))
	assert.Equal(t, DefaultSpillThreshold, GetEffectiveSpillThreshold(cfg))
	assert.Equal(t, "./state", GetEffectiveStateDir(cfg))
	assert.True(t, cfg.Browser.GetEffectiveHeadless())
	assert.True(t, cfg.Browser.GetEffectiveStealth())
}

func TestResolveMaxSizeBytesExplicitWins(t *testing.T) {
	t.Setenv(EnvMaxSizeBytes, "999999999")
	explicit := int64(5 << 20)
	assert.Equal(t, int64(5<<20), ResolveMaxSizeBytes(&explicit))
}

func TestResolveMaxSizeBytesUnsetIsUnlimited(t *testing.T) {
	os.Unsetenv(EnvMaxSizeBytes)
	assert.Equal(t, int64(0), ResolveMaxSizeBytes(nil))
}

func TestResolveMaxSizeBytesParseFailureDefaults(t *testing.T) {
	t.Setenv(EnvMaxSizeBytes, "not-a-number")
	assert.Equal(t, int64(1<<30), ResolveMaxSizeBytes(nil))
}

func TestResolveMaxSizeBytesClampsToFloor(t *testing.T) {
	t.Setenv(EnvMaxSizeBytes, "64")
	assert.Equal(t, int64(1<<20), ResolveMaxSizeBytes(nil))

	tiny := int64(1)
	assert.Equal(t, int64(1<<20), ResolveMaxSizeBytes(&tiny))

	zero := int64(0)
	assert.Equal(t, int64(0), ResolveMaxSizeBytes(&zero))
}

func TestResolveScreenshotDir(t *testing.T) {
	os.Unsetenv(EnvScreenshotDirectory)
	assert.Equal(t, "./storage/", ResolveScreenshotDir(""))

	t.Setenv(EnvScreenshotDirectory, "/srv/shots")
	assert.Equal(t, "/srv/shots", ResolveScreenshotDir(""))
	assert.Equal(t, "/explicit", ResolveScreenshotDir("/explicit"))
}

func TestResolveScreenshotFlags(t *testing.T) {
	os.Unsetenv(EnvScreenshotFullPage)
	assert.True(t, ResolveScreenshotFullPage(nil))

	t.Setenv(EnvScreenshotFullPage, "false")
	assert.False(t, ResolveScreenshotFullPage(nil))

	explicit := true
	assert.True(t, ResolveScreenshotFullPage(&explicit))

	t.Setenv(EnvScreenshotOmitBackground, "true")
	assert.True(t, ResolveScreenshotOmitBackground(nil))
}
