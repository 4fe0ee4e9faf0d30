// Package dynamokv is the DynamoDB KV backend.
package dynamokv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/lindenrealty/rentscreen/store"
)

const (
	attrKey       = "K"
	attrValue     = "V"
	attrUpdatedAt = "UpdatedAt"
)

// dynamoAPI is the minimal DynamoDB interface required by Store.
// Defined here for testability.
type dynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Store maps the KV contract onto a single-table DynamoDB layout:
// partition key K (string), binary attribute V.
type Store struct {
	api       dynamoAPI
	tableName string
}

func New(api dynamoAPI, tableName string) (*Store, error) {
	if api == nil {
		return nil, errors.New("dynamokv: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("dynamokv: table name must not be empty")
	}
	return &Store{api: api, tableName: tableName}, nil
}

func (s *Store) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, store.ErrEmptyKey
		}
		resp, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				attrKey: &types.AttributeValueMemberS{Value: key},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("dynamokv get %s: %w", key, err)
		}
		if resp == nil || resp.Item == nil {
			continue
		}
		value, ok := resp.Item[attrValue].(*types.AttributeValueMemberB)
		if !ok {
			return nil, fmt.Errorf("dynamokv get %s: value attribute missing or not binary", key)
		}
		out[key] = value.Value
	}
	return out, nil
}

func (s *Store) Set(ctx context.Context, values map[string][]byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			return store.ErrEmptyKey
		}
		_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.tableName),
			Item: map[string]types.AttributeValue{
				attrKey:       &types.AttributeValueMemberS{Value: key},
				attrValue:     &types.AttributeValueMemberB{Value: value},
				attrUpdatedAt: &types.AttributeValueMemberS{Value: now},
			},
		})
		if err != nil {
			return fmt.Errorf("dynamokv set %s: %w", key, err)
		}
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	in := &dynamodb.ScanInput{
		TableName:            aws.String(s.tableName),
		ProjectionExpression: aws.String("#k"),
		ExpressionAttributeNames: map[string]string{
			"#k": attrKey,
		},
	}
	if prefix != "" {
		in.FilterExpression = aws.String("begins_with(#k, :prefix)")
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: prefix},
		}
	}

	var keys []string
	for {
		resp, err := s.api.Scan(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("dynamokv list: %w", err)
		}
		for _, item := range resp.Items {
			if k, ok := item[attrKey].(*types.AttributeValueMemberS); ok {
				keys = append(keys, k.Value)
			}
		}
		if resp.LastEvaluatedKey == nil {
			break
		}
		in.ExclusiveStartKey = resp.LastEvaluatedKey
	}
	return keys, nil
}

func (s *Store) Delete(ctx context.Context, keys []string) error {
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			return store.ErrEmptyKey
		}
		_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				attrKey: &types.AttributeValueMemberS{Value: key},
			},
		})
		if err != nil {
			return fmt.Errorf("dynamokv delete %s: %w", key, err)
		}
	}
	return nil
}
