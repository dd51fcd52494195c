package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrShareDisabled is returned when no bucket is configured.
var ErrShareDisabled = errors.New("share: object storage not configured")

// ObjectStore is the subset of the S3 client used for uploads.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Presigner issues time-limited download URLs.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Config configures the S3-compatible bucket holding shared artifacts.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// NewS3Client builds a path-style client for an S3-compatible endpoint.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// ShareLink is a presigned download URL for an uploaded artifact.
type ShareLink struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ShareStore uploads artifacts and hands out presigned links, which is what
// the share dialog of a client consumes.
type ShareStore struct {
	bucket    string
	prefix    string
	ttl       time.Duration
	store     ObjectStore
	presigner Presigner
	now       func() time.Time
}

// NewShareStore wires a store from an S3 client.
func NewShareStore(client *s3.Client, bucket string, ttl time.Duration) *ShareStore {
	return NewShareStoreWith(client, s3.NewPresignClient(client), bucket, ttl)
}

// NewShareStoreWith wires a store from explicit collaborators.
func NewShareStoreWith(store ObjectStore, presigner Presigner, bucket string, ttl time.Duration) *ShareStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &ShareStore{
		bucket:    bucket,
		prefix:    "documents",
		ttl:       ttl,
		store:     store,
		presigner: presigner,
		now:       time.Now,
	}
}

// Share uploads the artifact under a fresh key and returns a download link.
func (s *ShareStore) Share(ctx context.Context, artifact Artifact) (ShareLink, error) {
	if s == nil || s.bucket == "" || s.store == nil || s.presigner == nil {
		return ShareLink{}, ErrShareDisabled
	}
	now := s.now().UTC()
	key := path.Join(s.prefix, now.Format("2006/01"), uuid.NewString(), artifact.Name)

	_, err := s.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(artifact.Data),
		ContentType:        aws.String(artifact.ContentType),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", artifact.Name)),
	})
	if err != nil {
		return ShareLink{}, fmt.Errorf("upload artifact: %w", err)
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return ShareLink{}, fmt.Errorf("presign artifact: %w", err)
	}
	return ShareLink{Key: key, URL: req.URL, ExpiresAt: now.Add(s.ttl)}, nil
}
