package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Mirror copies archives to and from the incoming-files S3 bucket so a run
// can be replayed without hitting the open-data endpoint again.
type Mirror struct {
	bucket string
	client *s3.Client
}

// NewMirror constructs an S3-backed mirror for the given bucket.
func NewMirror(ctx context.Context, bucket, region string) (*Mirror, error) {
	if bucket == "" {
		return nil, fmt.Errorf("mirror bucket is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Mirror{
		bucket: bucket,
		client: s3.NewFromConfig(cfg),
	}, nil
}

// Upload stores a local file under its base name.
func (m *Mirror) Upload(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s for upload: %w", path, err)
	}
	defer f.Close()

	key := filepath.Base(path)
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("upload %s to %s: %w", key, m.bucket, err)
	}
	return nil
}

// Download fetches a mirrored archive into dest.
func (m *Mirror) Download(ctx context.Context, key, dest string) error {
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download %s from %s: %w", key, m.bucket, err)
	}
	defer out.Body.Close()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	_, err = io.Copy(f, out.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}
