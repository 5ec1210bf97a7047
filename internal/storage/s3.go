package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/Skotchmaster/art_shop/pkg/config"
)

var (
	ErrDisabled               = errors.New("object storage is not configured")
	ErrUnsupportedContentType = errors.New("unsupported content type")
)

type Upload struct {
	URL       string    `json:"upload_url"`
	Method    string    `json:"method"`
	Ref       string    `json:"storage_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type S3Store struct {
	presign    *s3.PresignClient
	bucket     string
	publicBase string
	urlTTL     time.Duration
	uploadTTL  time.Duration
}

func NewS3(ctx context.Context, cfg config.Config) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, ErrDisabled
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		presign:    s3.NewPresignClient(client),
		bucket:     cfg.S3Bucket,
		publicBase: strings.TrimRight(cfg.S3PublicBaseURL, "/"),
		urlTTL:     cfg.MediaURLTTL,
		uploadTTL:  cfg.UploadURLTTL,
	}, nil
}

// ResolveURL turns a storage reference into a URL the browser can load.
// Public buckets get a stable URL, private ones a presigned GET.
func (s *S3Store) ResolveURL(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", errors.New("empty storage reference")
	}
	if s.publicBase != "" {
		return url.JoinPath(s.publicBase, ref)
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	}, s3.WithPresignExpires(s.urlTTL))
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", ref, err)
	}
	return req.URL, nil
}

// PresignUpload returns a one-off PUT URL and the reference to store on the
// product once the upload finished.
func (s *S3Store) PresignUpload(ctx context.Context, contentType string) (Upload, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		return Upload{}, fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}

	ref := "uploads/" + uuid.NewString() + extensionFor(contentType)
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(ref),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.uploadTTL))
	if err != nil {
		return Upload{}, fmt.Errorf("presign put: %w", err)
	}

	return Upload{
		URL:       req.URL,
		Method:    req.Method,
		Ref:       ref,
		ExpiresAt: time.Now().Add(s.uploadTTL).UTC(),
	}, nil
}

func extensionFor(contentType string) string {
	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}

type Disabled struct{}

func (Disabled) ResolveURL(context.Context, string) (string, error) { return "", ErrDisabled }

func (Disabled) PresignUpload(context.Context, string) (Upload, error) { return Upload{}, ErrDisabled }
