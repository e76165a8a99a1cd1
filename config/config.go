package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tranvictor/liveview/networks"
)

type Config struct {
	Port     int            `yaml:"port"`
	LogLevel string         `yaml:"log_level"`
	Metadata MetadataConfig `yaml:"metadata"`
	// Chains maps a network name to endpoint overrides. Networks without
	// an entry fall back to env vars and then built-in default nodes.
	Chains map[string]ChainConfig `yaml:"chains"`
}

type MetadataConfig struct {
	IPFSGateway string `yaml:"ipfs_gateway"`
	// FetchTimeout bounds every metadata fetch, in seconds.
	FetchTimeout uint64 `yaml:"fetch_timeout"`
}

func (m MetadataConfig) FetchTimeoutDuration() time.Duration {
	return time.Duration(m.FetchTimeout) * time.Second
}

type ChainConfig struct {
	NodeURL          string `yaml:"node_url"`
	MulticallAddress string `yaml:"multicall_address"`
}

func Default() *Config {
	return &Config{
		Port:     8000,
		LogLevel: "info",
		Metadata: MetadataConfig{
			IPFSGateway:  "ipfs.io",
			FetchTimeout: 5,
		},
		Chains: map[string]ChainConfig{},
	}
}

// Load reads the yaml config at path on top of defaults. An empty path
// returns defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err = yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.Metadata.FetchTimeout <= 0 {
		return nil, fmt.Errorf("metadata fetch_timeout must be positive")
	}
	return cfg, nil
}

// NodeURL resolves the RPC endpoint for a network: config file first, then
// the network's node env var, then the first built-in default node.
func (c *Config) NodeURL(network networks.Network) string {
	if cc, found := c.Chains[network.GetName()]; found && cc.NodeURL != "" {
		return cc.NodeURL
	}
	if url := strings.TrimSpace(os.Getenv(network.GetNodeVariableName())); url != "" {
		return url
	}
	for _, url := range network.GetDefaultNodes() {
		return url
	}
	return ""
}

// MulticallAddress returns the config override for a network's helper
// contract, or the empty string to use the built-in address.
func (c *Config) MulticallAddress(network networks.Network) string {
	if cc, found := c.Chains[network.GetName()]; found {
		return cc.MulticallAddress
	}
	return ""
}
