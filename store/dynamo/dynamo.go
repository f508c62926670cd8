package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoKVStore keeps each key as one item in a single table.
type DynamoKVStore struct {
	client    *dynamodb.Client
	tableName string
}

func NewDynamoKVStore(ctx context.Context, devMode bool, dynamodbEndpoint string, tableName string) (*DynamoKVStore, error) {
	client, err := newDynamoDBClient(ctx, devMode, dynamodbEndpoint)
	if err != nil {
		return nil, err
	}

	if err := checkTable(ctx, client, tableName); err != nil {
		return nil, err
	}

	return &DynamoKVStore{client: client, tableName: tableName}, nil
}

// Reads are consistent so a write is visible to the next workspace load.
func (dynamoStore *DynamoKVStore) Get(ctx context.Context, key string) (string, error) {
	item, err := getItem[dynamoKVItem](dynamoStore, ctx, kvPK(key), kvSK, true)
	if err != nil {
		return "", err
	}
	return item.Value, nil
}

func (dynamoStore *DynamoKVStore) Set(ctx context.Context, key string, value string) error {
	item := dynamoKVItem{
		PK:      kvPK(key),
		SK:      kvSK,
		Value:   value,
		Updated: time.Now().UnixMilli(),
	}
	return putItem(dynamoStore, ctx, item)
}

func (dynamoStore *DynamoKVStore) Remove(ctx context.Context, key string) error {
	return deleteItem(dynamoStore, ctx, kvPK(key), kvSK)
}

// AcquireLease writes the lease only if it is free, already ours, or
// expired, all decided by one conditional put.
func (dynamoStore *DynamoKVStore) AcquireLease(ctx context.Context, key string, owner string, ttl time.Duration) (bool, error) {
	now := time.Now()
	item, err := attributevalue.MarshalMap(dynamoLeaseItem{
		PK:      leasePK(key),
		SK:      leaseSK,
		Owner:   owner,
		Expires: now.Add(ttl).UnixMilli(),
	})
	if err != nil {
		return false, fmt.Errorf("marshal error: %w", err)
	}

	_, err = dynamoStore.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(dynamoStore.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR #owner = :owner OR #expires < :now"),
		ExpressionAttributeNames: map[string]string{
			"#owner":   "Owner",
			"#expires": "Expires",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
			":now":   &types.AttributeValueMemberN{Value: strconv.FormatInt(now.UnixMilli(), 10)},
		},
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to put lease: %w", err)
	}
	return true, nil
}

func (dynamoStore *DynamoKVStore) ReleaseLease(ctx context.Context, key string, owner string) error {
	_, err := dynamoStore.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(dynamoStore.tableName),
		Key:                      itemKey(leasePK(key), leaseSK),
		ConditionExpression:      aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{"#owner": "Owner"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil && !isConditionFailed(err) {
		return fmt.Errorf("failed to release lease: %w", err)
	}
	return nil
}
