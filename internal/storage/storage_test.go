//nolint:testpackage // White-box tests require access to unexported identifiers in this package.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func withManagedConfig(t *testing.T, body string) {
	t.Helper()
	prev := managedConfigPath
	path := filepath.Join(t.TempDir(), "managed.yaml")
	if body != "" {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
	managedConfigPath = path
	t.Cleanup(func() { managedConfigPath = prev })
}

func TestStorage_ClientUUIDPersistence(t *testing.T) {
	withManagedConfig(t, "")
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := NewStorage(path)
	require.NoError(t, err)
	require.NotEmpty(t, s.Data.ClientUUID)

	s.Data.ClientUUID = "00000000-0000-4000-8000-000000000000"
	require.NoError(t, s.Save())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	require.Equal(t, "00000000-0000-4000-8000-000000000000", raw["client_uuid"])

	s2, err := NewStorage(path)
	require.NoError(t, err)
	require.Equal(t, "00000000-0000-4000-8000-000000000000", s2.Data.ClientUUID)
}

func TestStorage_WalletPersistenceAndValidation(t *testing.T) {
	withManagedConfig(t, "")
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := NewStorage(path)
	require.NoError(t, err)
	s.Data.WalletAddress = "0x33a2cff8182d82af69ebfc5d3edf8f699555f146"
	require.NoError(t, s.Save())

	s2, err := NewStorage(path)
	require.NoError(t, err)
	require.Equal(t, "0x33a2cff8182d82af69ebfc5d3edf8f699555f146", s2.Data.WalletAddress)

	// An invalid wallet is cleared on load, the client uuid survives.
	s2.Data.WalletAddress = "not-a-wallet"
	require.NoError(t, s2.Save())

	s3, err := NewStorage(path)
	require.NoError(t, err)
	require.Empty(t, s3.Data.WalletAddress)
	require.Equal(t, s2.Data.ClientUUID, s3.Data.ClientUUID)
}

func TestStorage_SelfHealsClientUUID(t *testing.T) {
	withManagedConfig(t, "")
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"client_uuid":"bogus","recent_launches":[]}`), 0o600))

	s, err := NewStorage(path)
	require.NoError(t, err)
	require.NotEqual(t, "bogus", s.Data.ClientUUID)

	// Healed value was written back.
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), s.Data.ClientUUID)
}

func TestStorage_NewOrExistingCreatesFile(t *testing.T) {
	withManagedConfig(t, "")
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	s, err := NewOrExistingStorage(path)
	require.NoError(t, err)
	require.FileExists(t, path)

	again, err := NewOrExistingStorage(path)
	require.NoError(t, err)
	require.Equal(t, s.Data.ClientUUID, again.Data.ClientUUID)
}

func TestStorage_RecordLaunch(t *testing.T) {
	withManagedConfig(t, "")
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := NewStorage(path)
	require.NoError(t, err)

	at := time.Date(2020, 1, 10, 8, 30, 0, 0, time.UTC)
	for i := 0; i < maxRecentLaunches+2; i++ {
		addr := fmt.Sprintf("0x%040x", i+1)
		require.NoError(t, s.RecordLaunch("ZXCV", addr, at.Add(time.Duration(i)*time.Minute)))
	}
	require.Len(t, s.Data.RecentLaunches, maxRecentLaunches)
	require.Equal(t, at.Add(time.Duration(maxRecentLaunches+1)*time.Minute), s.Data.RecentLaunches[0].LaunchedAt)

	reloaded, err := NewStorage(path)
	require.NoError(t, err)
	require.Equal(t, s.Data.RecentLaunches, reloaded.Data.RecentLaunches)
}

func TestStorage_ManagedDefaults(t *testing.T) {
	withManagedConfig(t, "wallet_address: \"0x33a2cff8182d82af69ebfc5d3edf8f699555f146\"\nclient_uuid: \"123e4567-e89b-42d3-a456-426614174000\"\n")
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := NewStorage(path)
	require.NoError(t, err)
	require.Equal(t, "0x33a2cff8182d82af69ebfc5d3edf8f699555f146", s.Data.WalletAddress)
	require.Equal(t, "123e4567-e89b-42d3-a456-426614174000", s.Data.ClientUUID)
}

func TestStorage_ManagedDefaultsIgnoreInvalid(t *testing.T) {
	withManagedConfig(t, "wallet_address: nope\nclient_uuid: also-nope\n")
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := NewStorage(path)
	require.NoError(t, err)
	require.Empty(t, s.Data.WalletAddress)
	require.NotEqual(t, "also-nope", s.Data.ClientUUID)
}
