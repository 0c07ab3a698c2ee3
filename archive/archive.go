// Package archive persists finished sessions to Lode datasets for later
// replay, inspection, and metrics queries. Each archived session writes
// one message record, one artifact record per surfaced artifact, and one
// metrics record, Hive-partitioned by conversation, day, and message.
package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"

	"github.com/dictumlabs/dictum/metrics"
	"github.com/dictumlabs/dictum/types"
)

// DefaultDataset is the Lode dataset ID for session archives.
const DefaultDataset = "dictum"

// partitionKeys is the Hive layout shared by the write and read paths.
var partitionKeys = []string{"conversation_id", "day", "message_id", "record_type"}

// DeriveDay computes the day partition value from a session start time.
// Format: YYYY-MM-DD in UTC.
func DeriveDay(startTime time.Time) string {
	return startTime.UTC().Format("2006-01-02")
}

// Config holds archive configuration.
type Config struct {
	// Dataset is the Lode dataset ID. Empty means DefaultDataset.
	Dataset string
	// Day is the day partition value. Empty means today (UTC).
	Day string
}

func (c *Config) dataset() string {
	if c.Dataset == "" {
		return DefaultDataset
	}
	return c.Dataset
}

func (c *Config) day() string {
	if c.Day == "" {
		return DeriveDay(time.Now())
	}
	return c.Day
}

// S3Config holds configuration for the S3 storage backend.
type S3Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Prefix is the key prefix within the bucket (optional).
	Prefix string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (Cloudflare R2, MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing, required by most
	// S3-compatible providers.
	UsePathStyle bool
}

// ParseS3Path splits "bucket/prefix" into its bucket and prefix parts.
// A bare bucket name yields an empty prefix.
func ParseS3Path(path string) (bucket, prefix string) {
	parts := strings.SplitN(path, "/", 2)
	bucket = parts[0]
	if len(parts) > 1 {
		prefix = parts[1]
	}
	return bucket, prefix
}

// Validate checks that required S3 configuration is present.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("s3 bucket is required")
	}
	return nil
}

// Archive writes and reads session archives on a Lode dataset.
type Archive struct {
	dataset lode.Dataset
	config  Config
}

// newDataset builds a dataset with the shared layout and codec.
func newDataset(id string, factory lode.StoreFactory) (lode.Dataset, error) {
	return lode.NewDataset(
		lode.DatasetID(id),
		factory,
		lode.WithHiveLayout(partitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
}

// New creates an archive on a custom store factory. Use
// lode.NewMemoryFactory() for testing.
func New(cfg Config, factory lode.StoreFactory) (*Archive, error) {
	ds, err := newDataset(cfg.dataset(), factory)
	if err != nil {
		return nil, WrapInitError(err, cfg.dataset())
	}
	return &Archive{dataset: ds, config: cfg}, nil
}

// NewFS creates an archive with filesystem storage rooted at root.
func NewFS(cfg Config, root string) (*Archive, error) {
	return New(cfg, lode.NewFSFactory(root))
}

// NewS3 creates an archive with S3 storage. Credentials come from the
// AWS SDK default chain (env vars, shared config, IAM role).
func NewS3(cfg Config, s3cfg S3Config) (*Archive, error) {
	if err := s3cfg.Validate(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if s3cfg.Region != "" {
		opts = append(opts, config.WithRegion(s3cfg.Region))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if s3cfg.Endpoint != "" {
		endpoint := s3cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if s3cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	s3Client := s3.NewFromConfig(awsConfig, s3Opts...)

	s3Factory := func() (lode.Store, error) {
		return lodes3.New(s3Client, lodes3.Config{
			Bucket: s3cfg.Bucket,
			Prefix: s3cfg.Prefix,
		})
	}
	return New(cfg, s3Factory)
}

// WriteResult archives a finished session: one message record plus one
// artifact record per surfaced artifact, written in a single batch.
func (a *Archive) WriteResult(ctx context.Context, res *types.SessionResult) error {
	day := a.config.day()

	records := make([]any, 0, 1+len(res.Artifacts))
	records = append(records, toMessageRecordMap(res, day))
	for _, art := range res.Artifacts {
		records = append(records, toArtifactRecordMap(res.Meta, art, day))
	}

	_, err := a.dataset.Write(ctx, records, lode.Metadata{})
	return WrapWriteError(err, a.config.dataset())
}

// WriteMetrics archives a session's metrics snapshot.
func (a *Archive) WriteMetrics(ctx context.Context, snap metrics.Snapshot) error {
	record := toMetricsRecordMap(snap, a.config.day())
	_, err := a.dataset.Write(ctx, []any{record}, lode.Metadata{})
	return WrapWriteError(err, a.config.dataset())
}

// Dataset exposes the underlying Lode dataset for read-side queries.
func (a *Archive) Dataset() lode.Dataset {
	return a.dataset
}
