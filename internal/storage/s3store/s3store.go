// Package s3store implements storage.ObjectStore on an S3 bucket.
//
// Writes use a conditional PutObject (If-None-Match: *) so an existing
// object is never replaced. S3 PutObject is atomic, so a partially uploaded
// result is never listed.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"sentence-generator/internal/storage"
)

// s3API is the minimal S3 interface required by Store.
// Defined here for testability.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// Store wraps one S3 bucket.
type Store struct {
	api    s3API
	bucket string

	// conditionalWrites is disabled for S3-compatible stores that reject
	// If-None-Match; Put then falls back to HeadObject before writing.
	conditionalWrites bool
}

type Option func(*Store)

// WithoutConditionalWrites makes Put check for an existing object with
// HeadObject instead of sending If-None-Match.
func WithoutConditionalWrites() Option {
	return func(s *Store) {
		s.conditionalWrites = false
	}
}

// New creates a Store for bucket.
func New(api s3API, bucket string, opts ...Option) (*Store, error) {
	if api == nil {
		return nil, errors.New("s3store: api must not be nil")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("s3store: bucket must not be empty")
	}
	s := &Store{api: api, bucket: bucket, conditionalWrites: true}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(value),
		ContentType: aws.String(contentType(key)),
	}
	if s.conditionalWrites {
		in.IfNoneMatch = aws.String("*")
	} else {
		exists, err := s.Exists(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			return storage.ErrAlreadyExists
		}
	}

	if _, err := s.api.PutObject(ctx, in); err != nil {
		if isPreconditionFailed(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("s3store: put %q: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("s3store: get %q: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	buf, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3store: read %q: %w", key, err)
	}
	return buf, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, fmt.Errorf("s3store: head %q: %w", key, err)
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3store: list %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
		return true
	}
	var statusErr httpStatusCoder
	return errors.As(err, &statusErr) && statusErr.HTTPStatusCode() == http.StatusPreconditionFailed
}

func contentType(key string) string {
	switch {
	case strings.HasSuffix(key, ".yaml"), strings.HasSuffix(key, ".yml"):
		return "application/yaml"
	case strings.HasSuffix(key, ".json"):
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// ParseURI splits an s3://bucket/key URI.
func ParseURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("s3store: %q is not an s3:// URI", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3store: %q must name a bucket and a key", uri)
	}
	return bucket, key, nil
}
