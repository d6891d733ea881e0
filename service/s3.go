package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Service stores uploaded PDFs and narration audio.
type S3Service struct {
	client  *s3.Client
	bucket  string
	baseURL string // object URL prefix, ends with "/"
}

// NewS3Service connects to bucket. A non-empty endpoint selects an
// S3-compatible server (MinIO, LocalStack) with path-style addressing.
func NewS3Service(ctx context.Context, bucket, region, accessKeyID, secretAccessKey, endpoint string) (*S3Service, error) {
	if bucket == "" {
		return nil, fmt.Errorf("AWS_S3_BUCKET is required")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Service{
		client:  client,
		bucket:  bucket,
		baseURL: objectBaseURL(bucket, region, endpoint),
	}, nil
}

func objectBaseURL(bucket, region, endpoint string) string {
	if endpoint != "" {
		return strings.TrimSuffix(endpoint, "/") + "/" + bucket + "/"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", bucket, region)
}

// Upload stores body under prefix (e.g. "pdf/<user-id>/") with a fresh name
// keeping the extension of filename. Returns the object key.
func (s *S3Service) Upload(ctx context.Context, prefix, filename string, body io.Reader, contentType string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	key := prefix + uuid.New().String() + ext
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *S3Service) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// GetObject downloads the object and returns its body and content type. Caller must close the body.
func (s *S3Service) GetObject(ctx context.Context, key string) (body io.ReadCloser, contentType string, err error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", err
	}
	return out.Body, aws.ToString(out.ContentType), nil
}

// PresignedGetURL returns a temporary download URL for the object.
// If responseFilename is non-empty the browser saves the file under that name.
func (s *S3Service) PresignedGetURL(ctx context.Context, key string, expiry time.Duration, responseFilename string) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if responseFilename != "" {
		input.ResponseContentDisposition = aws.String(ContentDisposition(responseFilename))
	}
	presigner := s3.NewPresignClient(s.client)
	req, err := presigner.PresignGetObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// ObjectURL is the stored URL of key, recorded on documents.
func (s *S3Service) ObjectURL(key string) string {
	return s.baseURL + key
}

// KeyFromURL reverses ObjectURL. It reports false for URLs outside the bucket.
func (s *S3Service) KeyFromURL(u string) (string, bool) {
	return keyFromURL(s.baseURL, u)
}

func keyFromURL(baseURL, u string) (string, bool) {
	rest, ok := strings.CutPrefix(u, baseURL)
	if !ok || rest == "" {
		return "", false
	}
	key, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	return key, true
}

// ContentDisposition builds an attachment header value for filename.
func ContentDisposition(filename string) string {
	safe := strings.ReplaceAll(filename, "\\", "\\\\")
	safe = strings.ReplaceAll(safe, "\"", "\\\"")
	return `attachment; filename="` + safe + `"`
}
