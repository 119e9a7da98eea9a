package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"storyreel/internal/config"
	"storyreel/internal/services"
)

// Client uploads finished artifacts to an S3-compatible bucket and mints
// presigned download links. A nil Client is valid and means uploads are
// disabled; every method then reports ErrDisabled.
type Client struct {
	bucket         string
	endpoint       string
	presignSeconds int
	s3             *s3.Client
	presigner      *s3.PresignClient
}

// ErrDisabled marks operations attempted while storage is switched off.
var ErrDisabled = fmt.Errorf("storage disabled: %w", services.ErrConfiguration)

// NewClient builds a storage client from configuration. Returns nil (no
// error) when the storage section is disabled.
func NewClient(ctx context.Context, cfg config.Storage) (*Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.Endpoint == "" || cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("incomplete storage settings: %w", services.ErrConfiguration)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &Client{
		bucket:         cfg.Bucket,
		endpoint:       endpoint,
		presignSeconds: cfg.PresignSeconds,
		s3:             s3Client,
		presigner:      s3.NewPresignClient(s3Client),
	}, nil
}

// Enabled reports whether the client can perform uploads.
func (c *Client) Enabled() bool {
	return c != nil && c.s3 != nil
}

// UploadFile streams a local file into the bucket and returns its object URL.
// The object key embeds the video id and a fresh UUID so repeated uploads of
// the same scene never collide.
func (c *Client) UploadFile(ctx context.Context, videoID int64, localPath string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload source: %w", err)
	}
	defer f.Close()

	key := ObjectKey(videoID, localPath)
	_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(ContentTypeFor(localPath)),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filepath.Base(localPath), err)
	}

	return fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucket, key), nil
}

// PresignGet mints a time-limited download URL for an object key.
func (c *Client) PresignGet(ctx context.Context, key string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	lifetime := time.Duration(c.presignSeconds) * time.Second
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(lifetime))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

// ObjectKey builds the bucket key for an artifact: videos/<id>/<stamp>-<uuid><ext>.
func ObjectKey(videoID int64, localPath string) string {
	stamp := time.Now().UTC().Format("20060102-150405")
	ext := strings.ToLower(filepath.Ext(localPath))
	if ext == "" {
		ext = ".bin"
	}
	return path.Join("videos", fmt.Sprintf("%d", videoID), fmt.Sprintf("%s-%s%s", stamp, uuid.NewString(), ext))
}

// ContentTypeFor maps artifact extensions to MIME types.
func ContentTypeFor(localPath string) string {
	switch strings.ToLower(filepath.Ext(localPath)) {
	case ".mp4":
		return "video/mp4"
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".srt":
		return "application/x-subrip"
	default:
		return "application/octet-stream"
	}
}
