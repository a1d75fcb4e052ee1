package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndGeneratedIdentifier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 60*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 30*time.Second, cfg.NoContentRetry)
	assert.Equal(t, 4, cfg.DownloadWorkers)
	_, err = uuid.Parse(cfg.Identifier)
	require.NoError(t, err, "generated identifier should be a uuid")

	// the generated identifier is persisted and reused
	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Identifier, again.Identifier)
}

func TestLoad_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.yaml")
	body := `server_url: http://signage.local:5000
identifier: lobby-1
name: Lobby
location: Ground floor
poll_interval: 10s
heartbeat_interval: 2m
download_workers: 2
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://signage.local:5000", cfg.ServerURL)
	assert.Equal(t, "lobby-1", cfg.Identifier)
	assert.Equal(t, "Lobby", cfg.Name)
	assert.Equal(t, "Ground floor", cfg.Location)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.HeartbeatInterval)
	assert.Equal(t, 30*time.Second, cfg.NoContentRetry, "unset keys keep defaults")
	assert.Equal(t, 2, cfg.DownloadWorkers)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.yaml")
	require.NoError(t, os.WriteFile(path, []byte("identifier: lobby-1\npoll_interval: 10s\n"), 0o644))

	t.Setenv("SIGNAGE_POLL_INTERVAL", "5s")
	t.Setenv("SIGNAGE_SERVER_URL", "http://10.0.0.2:5000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, "http://10.0.0.2:5000", cfg.ServerURL)
	assert.Equal(t, "lobby-1", cfg.Identifier)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.yaml")
	require.NoError(t, os.WriteFile(path, []byte("identifier: x\nserver_url: not-a-url\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server_url")
}

func TestLoad_EnvOverridesAreNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll_interval: 10s\n"), 0o644))

	t.Setenv("SIGNAGE_SERVER_URL", "http://10.0.0.2:5000")
	t.Setenv("SIGNAGE_POLL_INTERVAL", "5s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "identifier: "+cfg.Identifier)
	assert.Contains(t, string(raw), "poll_interval: 10s")
	assert.NotContains(t, string(raw), "10.0.0.2")
}

func TestLoad_InvalidConfigIsNotWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.yaml")
	body := "server_url: not-a-url\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Load(path)
	require.Error(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, string(raw), "file is left untouched")

	missing := filepath.Join(t.TempDir(), "fresh.yaml")
	t.Setenv("SIGNAGE_DOWNLOAD_WORKERS", "0")
	_, err = Load(missing)
	require.Error(t, err)
	assert.NoFileExists(t, missing)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "player.yaml")
	cfg := Default()
	cfg.Identifier = "abc"
	cfg.PollInterval = 45 * time.Second
	cfg.VideoCommand = "mpv --fs"

	require.NoError(t, Save(path, cfg))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "poll_interval: 45s")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "server_url", envTransform("SIGNAGE_SERVER_URL"))
	assert.Equal(t, "download_workers", envTransform("SIGNAGE_DOWNLOAD_WORKERS"))
}
