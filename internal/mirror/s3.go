package mirror

import (
	"context"
	"fmt"
	"io"
	"strings"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	gateconfig "devgate/internal/config"
	"devgate/internal/gate"
)

// S3Mirror stores backup archives in an S3 bucket. Keys are placed
// under an optional prefix; uploads go through the transfer manager so
// large archives are sent multipart.
type S3Mirror struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Mirror creates an S3Mirror from configuration. With no explicit
// credentials in the config, the ambient AWS credential chain is used.
func NewS3Mirror(ctx context.Context, cfg gateconfig.MirrorConfig) (*S3Mirror, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 mirror requires s3_bucket to be set")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			// Custom endpoints (MinIO and friends) need path-style addressing.
			o.BaseEndpoint = awsv2.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Mirror{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.S3Bucket,
		prefix:   strings.Trim(cfg.S3Prefix, "/"),
	}, nil
}

// Put uploads archive content under key.
func (m *S3Mirror) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := m.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: awsv2.String(m.bucket),
		Key:    awsv2.String(m.objectKey(key)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("uploading archive %q: %w", key, err)
	}
	return nil
}

// ValidateSetup verifies the bucket is reachable with the configured
// credentials.
func (m *S3Mirror) ValidateSetup(ctx context.Context) error {
	_, err := m.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: awsv2.String(m.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 bucket %q not accessible: %w", m.bucket, err)
	}
	return nil
}

func (m *S3Mirror) objectKey(key string) string {
	if m.prefix == "" {
		return key
	}
	return m.prefix + "/" + key
}

// Compile-time check that S3Mirror implements gate.Mirror
var _ gate.Mirror = (*S3Mirror)(nil)
