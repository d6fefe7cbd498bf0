package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, []string{defaultUSDStablecoin}, cfg.USDStablecoins(42))
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
sdk_url: https://sdk.example.com/api
network_id: 1
request_timeout: 5s
default_tiers: 3
stablecoin_addresses:
  1:
    - "0x6b175474e89094c44da98b954eedeac495271d0f"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://sdk.example.com/api", cfg.SDKURL)
	assert.Equal(t, 1, cfg.NetworkID)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.DefaultTiers)
	assert.Equal(t, []string{"0x6b175474e89094c44da98b954eedeac495271d0f"}, cfg.USDStablecoins(1))
	// Networks without an entry fall back to the built-in stablecoin.
	assert.Equal(t, []string{defaultUSDStablecoin}, cfg.USDStablecoins(3))
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "too many tiers", body: "default_tiers: 9\n"},
		{name: "bad url", body: "sdk_url: \"::not a url\"\n"},
		{name: "bad stablecoin", body: "stablecoin_addresses:\n  42: [\"0x1234\"]\n"},
		{name: "not yaml", body: "network_id: [unclosed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.SDKURL = "http://localhost:8545"
	cfg.DefaultTiers = 2
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
