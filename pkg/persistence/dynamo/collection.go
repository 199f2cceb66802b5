// Package dynamo implements the report persistence contract against
// DynamoDB tables. Query text is PartiQL executed through
// ExecuteStatement.
package dynamo

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/dexstatus/reportstore/pkg/persistence"
)

// dynamoAPI is the slice of *dynamodb.Client the collection uses, split out
// so tests can fake the backend.
type dynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	ExecuteStatement(ctx context.Context, in *dynamodb.ExecuteStatementInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ExecuteStatementOutput, error)
}

// Collection is the DynamoDB realization of the persistence contract for
// one table. The record type is bound at construction; the compiler
// guarantees every item written matches it.
type Collection[T any] struct {
	client dynamoAPI
	table  string
}

func newCollection[T any](client dynamoAPI, table string) (*Collection[T], error) {
	if client == nil {
		return nil, errors.New("dynamo collection requires a client")
	}
	if table == "" {
		return nil, errors.New("dynamo collection requires a table name")
	}
	return &Collection[T]{client: client, table: table}, nil
}

// GetItem reads one item by its partition key.
func (c *Collection[T]) GetItem(ctx context.Context, id string) (*T, error) {
	out, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.table),
		Key:       keyFor(id),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}
	var item T
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// QueryItems executes the PartiQL statement, following the pagination token
// until the result set is exhausted.
func (c *Collection[T]) QueryItems(ctx context.Context, query string) ([]T, error) {
	items := make([]T, 0)
	var nextToken *string
	for {
		out, err := c.client.ExecuteStatement(ctx, &dynamodb.ExecuteStatementInput{
			Statement: aws.String(query),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, err
		}
		page := make([]T, 0, len(out.Items))
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		items = append(items, page...)
		if out.NextToken == nil {
			return items, nil
		}
		nextToken = out.NextToken
	}
}

// CreateItem puts one item. DynamoDB acknowledges the write synchronously,
// so a nil error is a confirmed write.
func (c *Collection[T]) CreateItem(ctx context.Context, id string, item T, _ string) bool {
	attributes, err := attributevalue.MarshalMap(item)
	if err != nil {
		zap.S().Errorf("Failed to encode item %s for dynamodb table %s: %s", id, c.table, err)
		return false
	}
	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item:      attributes,
	})
	if err != nil {
		zap.S().Errorf("Failed to put item %s into dynamodb table %s: %s", id, c.table, err)
		return false
	}
	return true
}

// DeleteItem removes one item by its partition key.
func (c *Collection[T]) DeleteItem(ctx context.Context, itemID string, _ string) bool {
	_, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.table),
		Key:       keyFor(itemID),
	})
	if err != nil {
		zap.S().Errorf("Failed to delete item %s from dynamodb table %s: %s", itemID, c.table, err)
		return false
	}
	return true
}

// Dialect for PartiQL. DynamoDB addresses attributes implicitly and
// "sometimes" needs them quoted, so quote always; the table name must be
// quoted too.
func (c *Collection[T]) Dialect() persistence.Dialect {
	return persistence.Dialect{
		CollectionNameForQuery: `"` + c.table + `"`,
		ElementForQuery: func(field string) string {
			return `"` + field + `"`
		},
	}
}

func keyFor(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}
