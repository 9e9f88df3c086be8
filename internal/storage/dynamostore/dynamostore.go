// Package dynamostore implements storage.ObjectStore on a DynamoDB table.
//
// Every object lives under one partition (PK = namespace) with the object
// key as sort key, so List is a single Query with begins_with on SK.
package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"sentence-generator/internal/storage"
)

const pkPrefix = "NS#"

// dynamodbAPI is the minimal DynamoDB interface required by Store.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store wraps a DynamoDB table holding objects for one namespace.
type Store struct {
	api       dynamodbAPI
	tableName string
	namespace string
	now       func() time.Time
}

// New creates a Store. namespace partitions the table so several result sets
// can share it.
func New(api dynamodbAPI, tableName, namespace string) (*Store, error) {
	if api == nil {
		return nil, errors.New("dynamostore: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("dynamostore: table name must not be empty")
	}
	if strings.TrimSpace(namespace) == "" {
		namespace = "default"
	}
	return &Store{api: api, tableName: tableName, namespace: namespace, now: time.Now}, nil
}

func (s *Store) pk() string {
	return pkPrefix + s.namespace
}

func (s *Store) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: s.pk()},
		"SK": &types.AttributeValueMemberS{Value: key},
	}
}

// Put writes value under key. The condition expression makes the write
// fail instead of replacing an existing item.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("dynamostore: Put: key is required")
	}
	item := s.itemKey(key)
	item["value"] = &types.AttributeValueMemberB{Value: value}
	item["createdAt"] = &types.AttributeValueMemberS{Value: s.now().UTC().Format(time.RFC3339Nano)}

	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("dynamostore: Put: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamostore: Get: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, storage.ErrNotFound
	}
	v, ok := out.Item["value"].(*types.AttributeValueMemberB)
	if !ok {
		return nil, fmt.Errorf("dynamostore: Get: attribute %q is not binary", "value")
	}
	return v.Value, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(s.tableName),
		Key:                  s.itemKey(key),
		ConsistentRead:       aws.Bool(true),
		ProjectionExpression: aws.String("SK"),
	})
	if err != nil {
		return false, fmt.Errorf("dynamostore: Exists: %w", err)
	}
	return out != nil && len(out.Item) > 0, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: s.pk()},
			":prefix": &types.AttributeValueMemberS{Value: prefix},
		},
		ProjectionExpression: aws.String("SK"),
		ConsistentRead:       aws.Bool(true),
	}

	var keys []string
	p := dynamodb.NewQueryPaginator(s.api, in)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamostore: List query: %w", err)
		}
		for _, item := range out.Items {
			sk, err := strAttr(item, "SK")
			if err != nil {
				return nil, fmt.Errorf("dynamostore: List unmarshal: %w", err)
			}
			keys = append(keys, sk)
		}
	}
	return keys, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("dynamostore: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("dynamostore: attribute %q is not a string", key)
	}
	return s.Value, nil
}
