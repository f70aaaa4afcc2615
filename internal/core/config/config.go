package config

import (
	"time"

	"github.com/datalakehq/statingest/internal/infra/catalog"
	"github.com/datalakehq/statingest/internal/infra/filestore"
	"github.com/datalakehq/statingest/internal/infra/redisstore"
	"github.com/datalakehq/statingest/internal/infra/s3store"
	"github.com/datalakehq/statingest/internal/infra/statapi"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	API      statapi.Config `yaml:"api"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Retry    RetryConfig    `yaml:"retry"`
	Batch    BatchConfig    `yaml:"batch"`
	Registry RegistryConfig `yaml:"registry"`
	S3       s3store.Config `yaml:"s3"`
	Catalog  catalog.Config `yaml:"catalog"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds status server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// FetchConfig bounds remote page fetches.
type FetchConfig struct {
	PageSize       int `yaml:"page_size"`
	MaxRecords     int `yaml:"max_records"` // 0 = no cap
	MaxConcurrency int `yaml:"max_concurrency"`
}

// RetryConfig tunes the retry engine.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

// BatchConfig tunes the batch driver.
type BatchConfig struct {
	Size              int `yaml:"size"`
	PriorityThreshold int `yaml:"priority_threshold"`
}

// RegistryConfig selects and configures the registry backend.
type RegistryConfig struct {
	Backend string            `yaml:"backend"` // "file" or "redis"
	File    filestore.Config  `yaml:"file"`
	Redis   redisstore.Config `yaml:"redis"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
