package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file. Environment variables in the
// file body are expanded before parsing.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.Fetch.PageSize == 0 {
		cfg.Fetch.PageSize = 1000
	}
	if cfg.Fetch.MaxConcurrency == 0 {
		cfg.Fetch.MaxConcurrency = 5
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = 1 * time.Second
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = 60 * time.Second
	}
	if cfg.Batch.Size == 0 {
		cfg.Batch.Size = 10
	}
	if cfg.Batch.PriorityThreshold == 0 {
		cfg.Batch.PriorityThreshold = 1
	}
	if cfg.Registry.Backend == "" {
		cfg.Registry.Backend = "file"
	}
	if cfg.Registry.File.Path == "" {
		cfg.Registry.File.Path = "datasets.json"
	}
}
