package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"sentence-generator/internal/storage/s3store"
)

type objectGetter interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// sourceReader reads vocabulary sources from the local filesystem or S3.
type sourceReader struct {
	openBucket func(ctx context.Context, bucket string) (objectGetter, error)
}

func (r *sourceReader) ReadSource(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "s3://") {
		raw, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("app: read %q: %w", source, err)
		}
		return raw, nil
	}

	bucket, key, err := s3store.ParseURI(source)
	if err != nil {
		return nil, err
	}
	b, err := r.openBucket(ctx, bucket)
	if err != nil {
		return nil, err
	}
	raw, err := b.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("app: read %q: %w", source, err)
	}
	return raw, nil
}
