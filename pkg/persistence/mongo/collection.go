// Package mongo implements the report persistence contract against MongoDB.
// Query text is a MongoDB extended-JSON filter document; an empty query
// matches everything.
package mongo

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dexstatus/reportstore/pkg/persistence"
)

// Collection is the MongoDB realization of the persistence contract for one
// collection.
type Collection[T any] struct {
	collection *mongo.Collection
}

func newCollection[T any](collection *mongo.Collection) *Collection[T] {
	return &Collection[T]{collection: collection}
}

// GetItem reads one document by its id field.
func (c *Collection[T]) GetItem(ctx context.Context, id string) (*T, error) {
	var item T
	err := c.collection.FindOne(ctx, bson.M{"id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// QueryItems runs a find with the filter parsed from the query string and
// decodes every matching document.
func (c *Collection[T]) QueryItems(ctx context.Context, query string) ([]T, error) {
	filter, err := parseFilter(query)
	if err != nil {
		return nil, err
	}
	cursor, err := c.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateItem inserts one document; true only when the write was
// acknowledged.
func (c *Collection[T]) CreateItem(ctx context.Context, id string, item T, _ string) bool {
	if _, err := c.collection.InsertOne(ctx, item); err != nil {
		zap.S().Errorf("Failed to insert item %s into mongodb collection %s: %s",
			id, c.collection.Name(), err)
		return false
	}
	return true
}

// DeleteItem removes one document by its id field.
func (c *Collection[T]) DeleteItem(ctx context.Context, itemID string, _ string) bool {
	result, err := c.collection.DeleteOne(ctx, bson.M{"id": itemID})
	if err != nil {
		zap.S().Errorf("Failed to delete item %s from mongodb collection %s: %s",
			itemID, c.collection.Name(), err)
		return false
	}
	return result.DeletedCount > 0
}

// Dialect for MongoDB. Documents are addressed by field name with no row
// variable; the query text itself is a filter document rather than SQL.
func (c *Collection[T]) Dialect() persistence.Dialect {
	return persistence.Dialect{
		CollectionNameForQuery: c.collection.Name(),
		OpenBracketChar:        '[',
		CloseBracketChar:       ']',
	}
}

// parseFilter turns the query string into a bson filter. Empty or
// whitespace-only text matches all documents.
func parseFilter(query string) (bson.D, error) {
	if strings.TrimSpace(query) == "" {
		return bson.D{}, nil
	}
	var filter bson.D
	if err := bson.UnmarshalExtJSON([]byte(query), false, &filter); err != nil {
		return nil, err
	}
	return filter, nil
}
