package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ensigniasec/tiered-sto/internal/validate"
)

// DefaultPath is where the session is kept unless overridden by --session-file.
const DefaultPath = "~/.config/tiered-sto/session.json"

const maxRecentLaunches = 20

// managedConfigPath holds defaults pushed by an administrator; tests override it.
//
//nolint:gochecknoglobals // overridable for tests.
var managedConfigPath = "/etc/tiered-sto/managed.yaml"

// Launch records an offering launched from this machine.
type Launch struct {
	Symbol     string    `json:"symbol" validate:"required"`
	Address    string    `json:"address" validate:"required,eth_address"`
	LaunchedAt time.Time `json:"launched_at"`
}

// Data represents the structure of the session file.
type Data struct {
	ClientUUID     string   `json:"client_uuid,omitempty" validate:"omitempty,uuid4"`
	WalletAddress  string   `json:"wallet_address,omitempty" validate:"omitempty,eth_address"`
	TokenSymbol    string   `json:"token_symbol,omitempty"`
	RecentLaunches []Launch `json:"recent_launches" validate:"dive"`
}

// Storage handles the loading and saving of the session file.
type Storage struct {
	Path string `validate:"required,filepath"`
	Data Data
}

// NewStorage creates a new Storage instance.
func NewStorage(path string) (*Storage, error) {
	expandedPath, err := expandTilde(path)
	if err != nil {
		return nil, err
	}

	s := &Storage{
		Path: expandedPath,
		Data: Data{
			RecentLaunches: []Launch{},
		},
	}

	// Administrator-managed defaults apply unless the session overrides them.
	if m := readManagedConfig(managedConfigPath); m.WalletAddress != "" || m.ClientUUID != "" {
		s.Data.WalletAddress = m.WalletAddress
		s.Data.ClientUUID = m.ClientUUID
	}

	if err := s.Load(); err != nil {
		// If the file doesn't exist, we can ignore the error.
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if s.Data.ClientUUID == "" {
		s.Data.ClientUUID = uuid.NewString()
	}

	return s, nil
}

// NewOrExistingStorage returns existing storage if the file exists, or creates a new one otherwise.
// When creating a new storage, it writes the initial structure to disk immediately.
func NewOrExistingStorage(path string) (*Storage, error) {
	expandedPath, err := expandTilde(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(expandedPath); err == nil {
		return NewStorage(path)
	} else if os.IsNotExist(err) {
		s, err := NewStorage(path)
		if err != nil {
			return nil, err
		}
		if err := s.Save(); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, err
}

func (s *Storage) Load() error {
	logrus.Debug("Loading session file from: ", s.Path)
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, &s.Data); err != nil {
		return err
	}
	if s.Data.RecentLaunches == nil {
		s.Data.RecentLaunches = []Launch{}
	}

	// Validate loaded data and self-heal when possible.
	if err := validate.Struct(s.Data); err != nil {
		changed := false
		if s.Data.ClientUUID == "" || validate.Var(s.Data.ClientUUID, "uuid4") != nil {
			s.Data.ClientUUID = uuid.NewString()
			changed = true
		}
		if s.Data.WalletAddress != "" && !validate.IsAddress(s.Data.WalletAddress) {
			logrus.Warn("Invalid wallet_address found in session; clearing.")
			s.Data.WalletAddress = ""
			changed = true
		}
		kept := s.Data.RecentLaunches[:0]
		for _, l := range s.Data.RecentLaunches {
			if validate.Struct(l) == nil {
				kept = append(kept, l)
			}
		}
		if len(kept) != len(s.Data.RecentLaunches) {
			changed = true
		}
		s.Data.RecentLaunches = kept
		if changed {
			if err := s.Save(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Save writes the session data to the file.
func (s *Storage) Save() error {
	logrus.Debug("Saving session file to: ", s.Path)
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.Data, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.Path, data, 0o600)
}

// RecordLaunch prepends a launch, keeps the newest maxRecentLaunches entries and saves.
func (s *Storage) RecordLaunch(symbol, address string, at time.Time) error {
	l := Launch{Symbol: symbol, Address: validate.ChecksumAddress(address), LaunchedAt: at.UTC()}
	s.Data.RecentLaunches = append([]Launch{l}, s.Data.RecentLaunches...)
	if len(s.Data.RecentLaunches) > maxRecentLaunches {
		s.Data.RecentLaunches = s.Data.RecentLaunches[:maxRecentLaunches]
	}
	return s.Save()
}

// expandTilde expands the tilde in a path to the user's home directory.
func expandTilde(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}

type managedConfig struct {
	WalletAddress string `yaml:"wallet_address"`
	ClientUUID    string `yaml:"client_uuid"`
}

// readManagedConfig reads the optional administrator managed defaults.
// Invalid values are dropped individually.
func readManagedConfig(path string) managedConfig {
	var m managedConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return m
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		logrus.Debugf("error reading managed config: %v", err)
		return managedConfig{}
	}
	if m.WalletAddress != "" && !validate.IsAddress(m.WalletAddress) {
		logrus.Warn("Invalid wallet_address in managed config; ignoring.")
		m.WalletAddress = ""
	}
	if m.ClientUUID != "" {
		if _, err := uuid.Parse(m.ClientUUID); err != nil {
			logrus.Warn("Invalid client_uuid in managed config; ignoring.")
			m.ClientUUID = ""
		}
	}
	return m
}
