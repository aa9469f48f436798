package store

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vitrine-io/vitrine/internal/releaseserver/core"
	"github.com/vitrine-io/vitrine/internal/updatecheck"
	"github.com/vitrine-io/vitrine/pkg/log"
	"github.com/vitrine-io/vitrine/pkg/options"
)

// MinIO keeps the version document as an object next to the storefront build in an S3 bucket.
type MinIO struct {
	client     *minio.Client
	bucketName string
	objectKey  string
}

var _ core.Store = (*MinIO)(nil)

// NewMinIO creates an S3-backed store.
func NewMinIO(opts *options.S3Options) (*MinIO, error) {
	minioOpts := &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	}
	if opts.UseSSL && opts.InsecureSkipVerify {
		minioOpts.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := minio.New(opts.Endpoint, minioOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinIO{
		client:     client,
		bucketName: opts.BucketName,
		objectKey:  opts.ObjectKey,
	}, nil
}

// CheckBucket creates the bucket when it is missing.
func (p *MinIO) CheckBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		log.Info("Bucket does not exist, creating...", "bucket", p.bucketName)
		if err := p.client.MakeBucket(ctx, p.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (p *MinIO) Load(ctx context.Context) ([]byte, error) {
	obj, err := p.client.GetObject(ctx, p.bucketName, p.objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, p.translate(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, updatecheck.MaxDocumentSize+1))
	if err != nil {
		return nil, p.translate(err)
	}
	if len(data) > updatecheck.MaxDocumentSize {
		return nil, updatecheck.ErrDocumentTooLarge
	}
	return data, nil
}

func (p *MinIO) Save(ctx context.Context, doc []byte) error {
	if err := p.CheckBucket(ctx); err != nil {
		return err
	}

	_, err := p.client.PutObject(ctx, p.bucketName, p.objectKey, bytes.NewReader(doc), int64(len(doc)),
		minio.PutObjectOptions{
			ContentType:  "application/json",
			CacheControl: "no-cache, no-store, max-age=0",
		})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", p.objectKey, err)
	}
	return nil
}

func (p *MinIO) translate(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return core.ErrNotPublished
	}
	return fmt.Errorf("failed to get %s: %w", p.objectKey, err)
}
