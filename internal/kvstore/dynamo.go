package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client used by Dynamo
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Dynamo stores each key as one item with partition key "pk".
type Dynamo struct {
	client    DynamoAPI
	tableName string
}

// dynamoEntry represents the DynamoDB item structure
type dynamoEntry struct {
	Key       string `dynamodbav:"pk"`
	Value     string `dynamodbav:"value"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

func NewDynamo(client DynamoAPI, tableName string) *Dynamo {
	return &Dynamo{
		client:    client,
		tableName: tableName,
	}
}

func (d *Dynamo) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: key}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if len(out.Item) == 0 {
		return "", false, nil
	}

	var entry dynamoEntry
	if err := attributevalue.UnmarshalMap(out.Item, &entry); err != nil {
		return "", false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (d *Dynamo) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	av, err := attributevalue.MarshalMap(dynamoEntry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	// Unconditional put: last write wins, same as browser storage
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func (d *Dynamo) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: key}},
	}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
