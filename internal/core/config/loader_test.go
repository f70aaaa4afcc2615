package config

import (
	"os"
	"testing"
)

func TestLoad_EnvSubstitution(t *testing.T) {
	os.Setenv("TEST_BUCKET", "my-lake-bucket")
	defer os.Unsetenv("TEST_BUCKET")

	configContent := `
s3:
  bucket: ${TEST_BUCKET}
  region: eu-north-1
registry:
  backend: redis
  redis:
    url: redis://localhost:6379/0
`
	tmpFile, err := os.CreateTemp("", "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write([]byte(configContent)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.S3.Bucket != "my-lake-bucket" {
		t.Errorf("Bucket = %q, want env-substituted value", cfg.S3.Bucket)
	}
	if cfg.Registry.Backend != "redis" {
		t.Errorf("Backend = %q", cfg.Registry.Backend)
	}
}

func TestLoad_Defaults(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "config_*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())
	tmpFile.WriteString("server:\n  port: 0\n")
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.Fetch.PageSize != 1000 || cfg.Fetch.MaxConcurrency != 5 {
		t.Errorf("fetch defaults = %+v", cfg.Fetch)
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d", cfg.Retry.MaxRetries)
	}
	if cfg.Registry.Backend != "file" || cfg.Registry.File.Path != "datasets.json" {
		t.Errorf("registry defaults = %+v", cfg.Registry)
	}
}
