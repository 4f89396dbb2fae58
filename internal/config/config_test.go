package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewWithoutPathUsesDefaults(t *testing.T) {
	t.Setenv(addrEnv, "")
	cfg, err := New("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 5*time.Second, cfg.Coordinator.GracePeriod)
	assert.Equal(t, BackendFile, cfg.Persistence.Backend)
}

func TestNewOverridesDefaults(t *testing.T) {
	t.Setenv(addrEnv, "")
	path := writeConfig(t, `
server:
  addr: ":9090"
  public_dir: "/srv/public"
coordinator:
  grace_period: 2500ms
persistence:
  backend: sqlite
  sqlite:
    path: /var/lib/scoreboard/db.sqlite
log:
  development: true
`)
	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/srv/public", cfg.Server.PublicDir)
	assert.Equal(t, "/ws", cfg.Server.WSPath, "unset keys keep their defaults")
	assert.Equal(t, 2500*time.Millisecond, cfg.Coordinator.GracePeriod)
	assert.Equal(t, 64, cfg.Coordinator.OutboundQueueSize)
	assert.Equal(t, BackendSQLite, cfg.Persistence.Backend)
	assert.Equal(t, "/var/lib/scoreboard/db.sqlite", cfg.Persistence.SQLite.Path)
	assert.True(t, cfg.Log.Development)
}

func TestDefaultPathIsRelativeToWorkingDir(t *testing.T) {
	t.Setenv(addrEnv, "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("server:\n  addr: \":9191\"\n"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	cfg, err := New(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, ":9191", cfg.Server.Addr)
}

func TestShippedConfigMatchesDefaults(t *testing.T) {
	t.Setenv(addrEnv, "")
	cfg, err := New(filepath.Join("..", "..", "config.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestAddrEnvOverride(t *testing.T) {
	t.Setenv(addrEnv, "127.0.0.1:7000")
	cfg, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
}

func TestValidation(t *testing.T) {
	t.Setenv(addrEnv, "")
	tests := []struct {
		name string
		body string
		want error
	}{
		{name: "unknown backend", body: "persistence:\n  backend: mongo\n", want: ErrUnknownBackend},
		{name: "zero grace", body: "coordinator:\n  grace_period: 0s\n", want: ErrInvalidGracePeriod},
		{name: "negative queue", body: "coordinator:\n  outbound_queue_size: -1\n", want: ErrInvalidQueueSize},
		{name: "webapi without url", body: "persistence:\n  backend: webapi\n", want: ErrMissingRemoteURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(writeConfig(t, tt.body))
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestNewMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}
