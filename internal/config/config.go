// Package config loads the server configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Redis holds connection settings for the Redis definition store.
type Redis struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Config is the cicerone.yaml shape.
type Config struct {
	Addr            string `yaml:"addr"`
	LogLevel        string `yaml:"log_level"`
	HandoverKeyword string `yaml:"handover_keyword"`
	// CyclePolicy is "report" or "ignore".
	CyclePolicy string `yaml:"cycle_policy"`
	// DepthPolicy is "reject" or "truncate".
	DepthPolicy string `yaml:"depth_policy"`
	Redis       *Redis `yaml:"redis,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:        ":8080",
		LogLevel:    "info",
		CyclePolicy: "report",
		DepthPolicy: "reject",
	}
}

// Load reads a YAML config file. A missing file yields the defaults; a
// present but unparsable file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Addr == "" {
		cfg.Addr = Default().Addr
	}
	return cfg, nil
}
