package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ctrl.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 500*time.Millisecond, cfg.CallTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.BusyPollInterval)
	assert.Equal(t, 10, cfg.BusyPollMax)
	assert.Equal(t, 5, cfg.FetchRetryMax)
	assert.Equal(t, 0x1209, cfg.VendorID)
	assert.Equal(t, 0x2882, cfg.ControllerProduct)
	assert.Equal(t, 0x2884, cfg.DongleProduct)
	assert.Empty(t, cfg.LogFile)
	assert.False(t, cfg.Verbose)
}

func TestLoadOverridesOnlyPresentFields(t *testing.T) {
	path := writeFile(t, `
call_timeout = "1s"
busy_poll_max = 3
verbose = true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.CallTimeout)
	assert.Equal(t, 3, cfg.BusyPollMax)
	assert.True(t, cfg.Verbose)

	// untouched fields keep their defaults
	assert.Equal(t, 100*time.Millisecond, cfg.BusyPollInterval)
	assert.Equal(t, 10, cfg.StatusRetryMax)
	assert.Equal(t, 0x1209, cfg.VendorID)
}

func TestLoadEmptyFileIsAllDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadUSBIdentity(t *testing.T) {
	path := writeFile(t, `
vendor_id = 0x1234
controller_product = 0x0001
dongle_product = 0x0002
log_file = " /var/log/ctrl.log "
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0x1234, cfg.VendorID)
	assert.Equal(t, 0x0001, cfg.ControllerProduct)
	assert.Equal(t, 0x0002, cfg.DongleProduct)
	assert.Equal(t, "/var/log/ctrl.log", cfg.LogFile)
}

func TestLoadBadDuration(t *testing.T) {
	_, err := Load(writeFile(t, `status_grace = "soon"`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status_grace")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
