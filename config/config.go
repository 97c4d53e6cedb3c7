package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the node's network configuration.
type Config struct {
	ListenAddress string   `toml:"ListenAddress"`
	NetworkName   string   `toml:"NetworkName"`
	DataDir       string   `toml:"DataDir"`
	NodeKeyPath   string   `toml:"NodeKeyPath"`
	LogFile       string   `toml:"LogFile,omitempty"`
	Seeds         []string `toml:"Seeds"`
	SeedRegistry  string   `toml:"SeedRegistry,omitempty"`
	MaxPeers      int      `toml:"MaxPeers"`

	// Address book tuning. Zero values pick the built-in defaults.
	MaxDistance         int `toml:"MaxDistance,omitempty"`
	HousekeepingSeconds int `toml:"HousekeepingSeconds,omitempty"`
	DefaultBanSeconds   int `toml:"DefaultBanSeconds,omitempty"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown field %s", path, undecoded[0])
	}

	applyDefaults(cfg, path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the node cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("ListenAddress must not be empty")
	}
	if c.MaxPeers < 0 {
		return fmt.Errorf("MaxPeers must not be negative")
	}
	if c.MaxDistance < 0 {
		return fmt.Errorf("MaxDistance must not be negative")
	}
	for i, seed := range c.Seeds {
		if strings.TrimSpace(seed) == "" {
			return fmt.Errorf("Seeds entry %d is empty", i)
		}
	}
	return nil
}

func applyDefaults(cfg *Config, path string) {
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "driftnet-local"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./driftnet-data"
	}
	if strings.TrimSpace(cfg.NodeKeyPath) == "" {
		cfg.NodeKeyPath = filepath.Join(filepath.Dir(path), "node_key.json")
	}
	if cfg.Seeds == nil {
		cfg.Seeds = []string{}
	}
	if cfg.MaxPeers <= 0 {
		cfg.MaxPeers = 64
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress: ":7331",
		NetworkName:   "driftnet-local",
		DataDir:       "./driftnet-data",
		Seeds:         []string{},
		MaxPeers:      64,
	}
	applyDefaults(cfg, path)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
