package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"sentence-generator/internal/storage"
	"sentence-generator/internal/storage/dynamostore"
	"sentence-generator/internal/storage/fsstore"
	"sentence-generator/internal/storage/memstore"
	"sentence-generator/internal/storage/s3store"
)

const (
	BackendS3       = "s3"
	BackendDynamoDB = "dynamodb"
	BackendFS       = "fs"
	BackendMemory   = "memory"
)

func (a *App) newStore(ctx context.Context) (storage.ObjectStore, error) {
	sc := a.cfg.Storage
	switch sc.Backend {
	case BackendS3:
		api, err := a.s3Client(ctx)
		if err != nil {
			return nil, err
		}
		var opts []s3store.Option
		if !sc.ConditionalWrites {
			opts = append(opts, s3store.WithoutConditionalWrites())
		}
		return s3store.New(api, sc.Bucket, opts...)
	case BackendDynamoDB:
		awsCfg, err := a.aws.load(ctx)
		if err != nil {
			return nil, err
		}
		api := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if sc.Endpoint != "" {
				o.BaseEndpoint = aws.String(sc.Endpoint)
			}
		})
		return dynamostore.New(api, sc.Table, sc.Prefix)
	case BackendFS:
		return fsstore.New(sc.Path)
	case BackendMemory:
		a.logger.Warn("memory backend selected, results are lost on exit")
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("app: unknown storage backend %q", sc.Backend)
	}
}

// s3Client honours the custom endpoint and path-style settings used by
// S3-compatible stores.
func (a *App) s3Client(ctx context.Context) (*s3.Client, error) {
	awsCfg, err := a.aws.load(ctx)
	if err != nil {
		return nil, err
	}
	sc := a.cfg.Storage
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if sc.Endpoint != "" {
			o.BaseEndpoint = aws.String(sc.Endpoint)
		}
		o.UsePathStyle = sc.UsePathStyle
	}), nil
}

// openBucket returns a read handle on bucket for s3:// vocabulary sources.
func (a *App) openBucket(ctx context.Context, bucket string) (objectGetter, error) {
	api, err := a.s3Client(ctx)
	if err != nil {
		return nil, err
	}
	return s3store.New(api, bucket)
}
