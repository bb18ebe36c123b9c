// Package media hands user supplied images to the external media host and
// returns the public URL under which they can be fetched.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/iliyamo/art-gallery/internal/config"
)

var (
	// ErrMediaDisabled is returned by Disabled for every upload.
	ErrMediaDisabled = errors.New("media uploads are not configured")
	// ErrTooLarge is returned when the payload exceeds the configured limit.
	ErrTooLarge = errors.New("media payload too large")
)

// Upload is one file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Uploader stores an upload and returns its public URL.  Failures are not
// retried.
type Uploader interface {
	Upload(ctx context.Context, u Upload) (string, error)
}

// Disabled is the Uploader used when no bucket is configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, Upload) (string, error) { return "", ErrMediaDisabled }

// objectPutter is the subset of *s3.Client used here.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader writes objects to an S3 compatible bucket (AWS or MinIO).
type S3Uploader struct {
	client   objectPutter
	bucket   string
	baseURL  string
	prefix   string
	timeout  time.Duration
	maxBytes int64
	now      func() time.Time
}

// New returns Disabled when cfg has no bucket, otherwise an S3Uploader.
func New(ctx context.Context, cfg config.MediaConfig) (Uploader, error) {
	if cfg.Bucket == "" {
		return Disabled{}, nil
	}
	return NewS3Uploader(ctx, cfg)
}

// NewS3Uploader builds the S3 client from static credentials when present and
// the default AWS chain otherwise.  A custom endpoint switches to path style
// addressing, which MinIO requires.
func NewS3Uploader(ctx context.Context, cfg config.MediaConfig) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Uploader(client, cfg), nil
}

func newS3Uploader(client objectPutter, cfg config.MediaConfig) *S3Uploader {
	return &S3Uploader{
		client:   client,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimRight(cfg.PublicBaseURL, "/"),
		prefix:   strings.Trim(cfg.KeyPrefix, "/"),
		timeout:  cfg.UploadTimeout,
		maxBytes: cfg.MaxBytes,
		now:      time.Now,
	}
}

// objectKey returns <prefix>/<yyyy>/<mm>/<dd>/<uuid><ext>.
func (u *S3Uploader) objectKey(filename string) string {
	d := u.now().UTC()
	name := uuid.NewString() + strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("%04d/%02d/%02d/%s", d.Year(), int(d.Month()), d.Day(), name)
	if u.prefix != "" {
		key = u.prefix + "/" + key
	}
	return key
}

// Upload buffers the body (bounded by the size limit) and puts it in the bucket.
func (u *S3Uploader) Upload(ctx context.Context, up Upload) (string, error) {
	if u.maxBytes > 0 && up.Size > u.maxBytes {
		return "", ErrTooLarge
	}
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	r := up.Body
	if u.maxBytes > 0 {
		r = io.LimitReader(up.Body, u.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if u.maxBytes > 0 && int64(len(data)) > u.maxBytes {
		return "", ErrTooLarge
	}

	key := u.objectKey(up.Filename)
	in := &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if up.ContentType != "" {
		in.ContentType = aws.String(up.ContentType)
	}
	if _, err := u.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return u.baseURL + "/" + key, nil
}
