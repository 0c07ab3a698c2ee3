package config

import (
	"fmt"
	"time"
)

// Config represents a dictum.yaml configuration file.
// All values are optional and act as defaults for dictum stream flags.
// CLI flags always override config values.
type Config struct {
	Endpoint EndpointConfig `yaml:"endpoint"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Adapter  AdapterConfig  `yaml:"adapter"`
	Capture  CaptureConfig  `yaml:"capture"`
}

// EndpointConfig holds stream endpoint defaults from the config file.
type EndpointConfig struct {
	// URL is the streaming endpoint.
	URL string `yaml:"url"`
	// Headers are custom HTTP headers added to the stream request.
	Headers map[string]string `yaml:"headers,omitempty"`
	// ConnectTimeout bounds connection establishment, not the stream.
	ConnectTimeout Duration `yaml:"connect_timeout,omitempty"`
}

// DeliveryConfig holds snapshot delivery defaults from the config file.
type DeliveryConfig struct {
	// Mode is "immediate" or "coalesce".
	Mode string `yaml:"mode"`
	// CoalesceInterval is the minimum gap between deliveries in
	// coalesce mode.
	CoalesceInterval Duration `yaml:"coalesce_interval,omitempty"`
}

// ArchiveConfig holds session archive defaults from the config file.
type ArchiveConfig struct {
	// Dataset is the Lode dataset ID.
	Dataset string `yaml:"dataset"`
	// Backend is "fs" or "s3".
	Backend string `yaml:"backend"`
	// Path is the storage location (fs: directory, s3: bucket/prefix).
	Path string `yaml:"path"`
	// Region is the AWS region for the s3 backend.
	Region string `yaml:"region"`
	// Endpoint is a custom S3 endpoint for S3-compatible providers.
	Endpoint string `yaml:"endpoint"`
	// S3PathStyle forces path-style addressing.
	S3PathStyle bool `yaml:"s3_path_style"`
}

// AdapterConfig holds completion adapter defaults from the config file.
type AdapterConfig struct {
	// Type is "webhook" or "redis".
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// CaptureConfig holds raw stream capture defaults from the config file.
type CaptureConfig struct {
	// Dir is the directory capture files are written to. Empty disables
	// capture.
	Dir string `yaml:"dir"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
