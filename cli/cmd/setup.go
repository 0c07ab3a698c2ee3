package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dictumlabs/dictum/adapter"
	"github.com/dictumlabs/dictum/adapter/redis"
	"github.com/dictumlabs/dictum/adapter/webhook"
	"github.com/dictumlabs/dictum/archive"
	"github.com/dictumlabs/dictum/cli/config"
)

// queryTimeout bounds archive read operations for CLI commands.
const queryTimeout = 30 * time.Second

// loadConfig reads the config file named by --config. Returns an empty
// config when the flag is unset, so flag resolution can treat the two
// cases uniformly.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// stringOr resolves a CLI flag against its config file fallback.
// Flags always win.
func stringOr(c *cli.Context, flag, fallback string) string {
	if v := c.String(flag); v != "" {
		return v
	}
	return fallback
}

// archiveOptions holds resolved archive location settings.
type archiveOptions struct {
	dataset   string
	backend   string
	path      string
	region    string
	endpoint  string
	pathStyle bool
}

func resolveArchiveOptions(c *cli.Context, cfg *config.Config) archiveOptions {
	opts := archiveOptions{
		dataset:   stringOr(c, "archive-dataset", cfg.Archive.Dataset),
		backend:   stringOr(c, "archive-backend", cfg.Archive.Backend),
		path:      stringOr(c, "archive-path", cfg.Archive.Path),
		region:    stringOr(c, "archive-region", cfg.Archive.Region),
		endpoint:  stringOr(c, "archive-endpoint", cfg.Archive.Endpoint),
		pathStyle: c.Bool("archive-s3-path-style") || cfg.Archive.S3PathStyle,
	}
	return opts
}

// configured reports whether the archive is usable at all.
func (o archiveOptions) configured() bool {
	return o.backend != "" || o.path != ""
}

// buildArchive creates an Archive from resolved options.
// Day defaults to today; the write path sets it explicitly from the
// session start time.
func buildArchive(opts archiveOptions, day string) (*archive.Archive, error) {
	if opts.path == "" {
		return nil, fmt.Errorf("--archive-path is required when archive is configured")
	}

	cfg := archive.Config{Dataset: opts.dataset, Day: day}

	switch opts.backend {
	case "fs", "":
		return archive.NewFS(cfg, opts.path)
	case "s3":
		bucket, prefix := archive.ParseS3Path(opts.path)
		return archive.NewS3(cfg, archive.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       opts.region,
			Endpoint:     opts.endpoint,
			UsePathStyle: opts.pathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported archive-backend: %s (must be fs or s3)", opts.backend)
	}
}

// openArchive builds an Archive for a read-only command, requiring that
// the archive is configured via flags or the config file.
func openArchive(c *cli.Context) (*archive.Archive, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	opts := resolveArchiveOptions(c, cfg)
	if !opts.configured() {
		return nil, fmt.Errorf("archive not configured: set --archive-backend and --archive-path, or the archive section in the config file")
	}

	return buildArchive(opts, "")
}

// buildAdapter creates the completion adapter from flags and config.
// Returns nil when no adapter is configured.
func buildAdapter(c *cli.Context, cfg *config.Config) (adapter.Adapter, error) {
	typ := stringOr(c, "adapter", cfg.Adapter.Type)
	if typ == "" {
		return nil, nil
	}

	url := stringOr(c, "adapter-url", cfg.Adapter.URL)
	retries := -1
	if c.IsSet("adapter-retries") {
		retries = c.Int("adapter-retries")
	} else if cfg.Adapter.Retries != nil {
		retries = *cfg.Adapter.Retries
	}

	switch typ {
	case "webhook":
		wcfg := webhook.Config{
			URL:     url,
			Headers: cfg.Adapter.Headers,
			Timeout: cfg.Adapter.Timeout.Duration,
		}
		if retries >= 0 {
			wcfg.Retries = retries
		} else {
			wcfg.Retries = webhook.DefaultRetries
		}
		return webhook.New(wcfg)
	case "redis":
		rcfg := redis.Config{
			URL:     url,
			Channel: stringOr(c, "adapter-channel", cfg.Adapter.Channel),
			Timeout: cfg.Adapter.Timeout.Duration,
		}
		if retries >= 0 {
			rcfg.Retries = retries
		} else {
			rcfg.Retries = redis.DefaultRetries
		}
		return redis.New(rcfg)
	default:
		return nil, fmt.Errorf("unsupported adapter: %s (must be webhook or redis)", typ)
	}
}

// parseHeaders parses repeated --header "Name: value" flags.
func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q (expected \"Name: value\")", h)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}
