package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ensigniasec/tiered-sto/internal/validate"
)

// Kovan DAI, the only USD stablecoin the offering SDK ships with today.
const defaultUSDStablecoin = "0xc4375b7de8af5a38a93548eb8453a498222c4ff2"

const (
	defaultNetworkID      = 42
	defaultTiers          = 1
	defaultRequestTimeout = 15 * time.Second
)

// Config holds the application configuration.
type Config struct {
	SDKURL         string        `yaml:"sdk_url" validate:"omitempty,url"`
	NetworkID      int           `yaml:"network_id" validate:"gte=0"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gte=0"`
	DefaultTiers   int           `yaml:"default_tiers" validate:"gte=1,lte=5"`
	// StablecoinAddresses lists USD stablecoins accepted per network id.
	StablecoinAddresses map[int][]string `yaml:"stablecoin_addresses" validate:"dive,dive,eth_address"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		NetworkID:      defaultNetworkID,
		RequestTimeout: defaultRequestTimeout,
		DefaultTiers:   defaultTiers,
		StablecoinAddresses: map[int][]string{
			defaultNetworkID: {defaultUSDStablecoin},
		},
	}
}

// Path returns the default location of the config file.
func Path() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "tiered-sto", "config.yaml")
}

// Load reads the configuration from path, or Path() when empty.
// Falls back to defaults if the file doesn't exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = Path()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logrus.Debugf("no config at %s, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, or Path() when empty.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// USDStablecoins returns the stablecoins configured for network, falling back to
// the built-in default when the network has none.
func (c *Config) USDStablecoins(network int) []string {
	if addrs := c.StablecoinAddresses[network]; len(addrs) > 0 {
		return addrs
	}
	return []string{defaultUSDStablecoin}
}
