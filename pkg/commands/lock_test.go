package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLockAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.lock")

	release, acquired, err := acquireLock(path, time.Hour)
	require.NoError(t, err)
	require.True(t, acquired)

	// Second acquisition is refused while the lock is held
	_, again, err := acquireLock(path, time.Hour)
	require.NoError(t, err)
	assert.False(t, again)

	release()

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	release2, acquired, err := acquireLock(path, time.Hour)
	require.NoError(t, err)
	assert.True(t, acquired)
	release2()
}

func TestAcquireLockClearsStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.lock")
	require.NoError(t, os.WriteFile(path, []byte("12345\n"), 0o644))
	stale := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, stale, stale))

	release, acquired, err := acquireLock(path, time.Hour)
	require.NoError(t, err)
	assert.True(t, acquired)
	release()
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Notifications.MaxAttempts)
	assert.Equal(t, 3600, cfg.Monitor.LockStaleSecs)
	assert.Equal(t, 730, cfg.Monitor.RetentionDays)
	assert.NotEmpty(t, cfg.Monitor.LockFile)
}

func TestLoadConfigParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
registry:
  username: registrar
  password: secret
  registrar_id: REG
  production: true
notifications:
  escalate_to: ops@example.gr
  max_attempts: 3
monitor:
  enabled: true
  retention_days: 365
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "registrar", cfg.Registry.Username)
	assert.True(t, cfg.Registry.Production)
	assert.Equal(t, "REG", cfg.Registry.RegistrarID)
	assert.Equal(t, 3, cfg.Notifications.MaxAttempts)
	assert.Equal(t, "ops@example.gr", cfg.Notifications.EscalateTo)
	assert.True(t, cfg.Monitor.Enabled)
	assert.Equal(t, 365, cfg.Monitor.RetentionDays)
	require.NoError(t, cfg.RequireCredentials())

	cfg.Registry.Password = ""
	assert.Error(t, cfg.RequireCredentials())
}
