package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dictum.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
endpoint:
  url: https://api.example.com/v1/stream
  headers:
    Authorization: Bearer abc123
  connect_timeout: 15s
delivery:
  mode: coalesce
  coalesce_interval: 100ms
archive:
  dataset: dictum
  backend: fs
  path: /var/lib/dictum
adapter:
  type: webhook
  url: https://hooks.example.com/done
  timeout: 5s
capture:
  dir: /var/lib/dictum/captures
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Endpoint.URL != "https://api.example.com/v1/stream" {
		t.Errorf("Endpoint.URL = %q", cfg.Endpoint.URL)
	}
	if cfg.Endpoint.Headers["Authorization"] != "Bearer abc123" {
		t.Errorf("Headers = %v", cfg.Endpoint.Headers)
	}
	if cfg.Endpoint.ConnectTimeout.Duration != 15*time.Second {
		t.Errorf("ConnectTimeout = %v", cfg.Endpoint.ConnectTimeout.Duration)
	}
	if cfg.Delivery.Mode != "coalesce" {
		t.Errorf("Delivery.Mode = %q", cfg.Delivery.Mode)
	}
	if cfg.Delivery.CoalesceInterval.Duration != 100*time.Millisecond {
		t.Errorf("CoalesceInterval = %v", cfg.Delivery.CoalesceInterval.Duration)
	}
	if cfg.Archive.Backend != "fs" || cfg.Archive.Path != "/var/lib/dictum" {
		t.Errorf("Archive = %+v", cfg.Archive)
	}
	if cfg.Adapter.Type != "webhook" || cfg.Adapter.Timeout.Duration != 5*time.Second {
		t.Errorf("Adapter = %+v", cfg.Adapter)
	}
	if cfg.Capture.Dir != "/var/lib/dictum/captures" {
		t.Errorf("Capture.Dir = %q", cfg.Capture.Dir)
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint.URL != "" || cfg.Delivery.Mode != "" {
		t.Errorf("empty config produced %+v", cfg)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "endpoint:\n  url: [broken")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("DICTUM_TEST_TOKEN", "secret-xyz")

	path := writeConfig(t, `
endpoint:
  url: ${DICTUM_TEST_URL:-https://fallback.example.com/stream}
  headers:
    Authorization: Bearer ${DICTUM_TEST_TOKEN}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint.URL != "https://fallback.example.com/stream" {
		t.Errorf("URL = %q, want default expansion", cfg.Endpoint.URL)
	}
	if cfg.Endpoint.Headers["Authorization"] != "Bearer secret-xyz" {
		t.Errorf("Authorization = %q", cfg.Endpoint.Headers["Authorization"])
	}
}

func TestDuration_InvalidString(t *testing.T) {
	path := writeConfig(t, "delivery:\n  coalesce_interval: banana\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
