// Package archive uploads machine-readable migration reports to an
// S3-compatible bucket so that every run leaves an audit trail.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/agentstation/shipref/pkg/constants"
	"github.com/agentstation/shipref/pkg/errors"
	"github.com/agentstation/shipref/pkg/migrate"
	"github.com/agentstation/shipref/pkg/report"
)

// Config locates the archive bucket.
type Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// Validate checks that the bucket can be addressed.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return errors.NewConfigError("archive", "endpoint is required", nil)
	}
	if c.Bucket == "" {
		return errors.NewConfigError("archive", "bucket is required", nil)
	}
	return nil
}

// ObjectStore is the subset of the MinIO client the archiver uses.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Archiver writes reports to a bucket.
type Archiver struct {
	store  ObjectStore
	bucket string
	prefix string
	newID  func() string
}

// New connects to the bucket described by cfg.
func New(cfg Config) (*Archiver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.NewConfigError("archive", "create minio client", err)
	}
	return NewWithStore(mc, cfg.Bucket, cfg.Prefix), nil
}

// NewWithStore creates an archiver on an existing object store.
func NewWithStore(store ObjectStore, bucket, prefix string) *Archiver {
	if prefix == "" {
		prefix = constants.DefaultArchivePrefix
	}
	return &Archiver{
		store:  store,
		bucket: bucket,
		prefix: prefix,
		newID:  uuid.NewString,
	}
}

// Bucket returns the target bucket.
func (a *Archiver) Bucket() string {
	return a.bucket
}

// ObjectName returns the key a report is stored under:
// <prefix>/<yyyy>/<mm>/<dd>/<started>-<id>.json.
func (a *Archiver) ObjectName(r *migrate.Report) string {
	started := r.StartedAt.UTC()
	name := started.Format("20060102T150405Z") + "-" + a.newID()
	if r.DryRun {
		name += "-dryrun"
	}
	return path.Join(a.prefix, started.Format("2006/01/02"), name+report.FormatJSON.Extension())
}

func (a *Archiver) ensureBucket(ctx context.Context) error {
	exists, err := a.store.BucketExists(ctx, a.bucket)
	if err != nil {
		return errors.WrapResource("check", "bucket", a.bucket, err)
	}
	if !exists {
		if err := a.store.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return errors.WrapResource("create", "bucket", a.bucket, err)
		}
	}
	return nil
}

// Upload stores r as JSON and returns its s3:// location.
func (a *Archiver) Upload(ctx context.Context, r *migrate.Report) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ArchiveUploadTimeout)
	defer cancel()

	var buf bytes.Buffer
	if err := report.Render(&buf, r, report.FormatJSON); err != nil {
		return "", err
	}
	if err := a.ensureBucket(ctx); err != nil {
		return "", err
	}

	object := a.ObjectName(r)
	_, err := a.store.PutObject(ctx, a.bucket, object, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "application/json",
		UserMetadata: map[string]string{
			"dry-run":   strconv.FormatBool(r.DryRun),
			"updated":   strconv.Itoa(r.Totals.Updated),
			"unmatched": strconv.Itoa(len(r.Unmatched)),
		},
	})
	if err != nil {
		return "", errors.WrapResource("upload", "report", object, err)
	}

	return fmt.Sprintf("s3://%s/%s", a.bucket, object), nil
}
