// Package couchbase implements the report persistence contract against a
// Couchbase cluster using scoped collections.
package couchbase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/couchbase/gocb/v2"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/dexstatus/reportstore/pkg/persistence"
)

// Collection is the Couchbase realization of the persistence contract for
// one scoped collection.
type Collection[T any] struct {
	name       string
	scope      *gocb.Scope
	collection *gocb.Collection
}

func newCollection[T any](name string, scope *gocb.Scope, collection *gocb.Collection) *Collection[T] {
	return &Collection[T]{name: name, scope: scope, collection: collection}
}

// GetItem reads one document by id.
func (c *Collection[T]) GetItem(_ context.Context, id string) (*T, error) {
	result, err := c.collection.Get(id, nil)
	if err != nil {
		if errors.Is(err, gocb.ErrDocumentNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var item T
	if err := result.Content(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

// QueryItems executes the N1QL query with request-plus scan consistency so
// reads observe all writes acknowledged before the query started. Couchbase
// returns each row wrapped in a one-field envelope named after the
// collection variable; the envelope is unwrapped before decoding.
func (c *Collection[T]) QueryItems(_ context.Context, query string) ([]T, error) {
	result, err := c.scope.Query(query, &gocb.QueryOptions{
		ScanConsistency: gocb.QueryScanConsistencyRequestPlus,
	})
	if err != nil {
		return nil, err
	}

	dialect := c.Dialect()
	items := make([]T, 0)
	for result.Next() {
		var row json.RawMessage
		if err := result.Row(&row); err != nil {
			return nil, err
		}
		unwrapped, err := unwrapRow(row, dialect.CollectionVariable)
		if err != nil {
			return nil, err
		}
		var item T
		if err := json.Unmarshal(unwrapped, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateItem upserts one document. Couchbase acknowledges the mutation
// synchronously, so a nil error is a confirmed write.
func (c *Collection[T]) CreateItem(_ context.Context, id string, item T, _ string) bool {
	if _, err := c.collection.Upsert(id, item, nil); err != nil {
		zap.S().Errorf("Failed to upsert item %s into couchbase collection %s: %s", id, c.name, err)
		return false
	}
	return true
}

// DeleteItem removes one document by id.
func (c *Collection[T]) DeleteItem(_ context.Context, itemID string, _ string) bool {
	if _, err := c.collection.Remove(itemID, nil); err != nil {
		zap.S().Errorf("Failed to remove item %s from couchbase collection %s: %s", itemID, c.name, err)
		return false
	}
	return true
}

// Dialect for N1QL queries against this scoped collection.
func (c *Collection[T]) Dialect() persistence.Dialect {
	return persistence.Dialect{
		CollectionVariable:       "r",
		CollectionVariablePrefix: "r.",
		CollectionNameForQuery:   fmt.Sprintf("%s.%s.`%s`", c.scope.BucketName(), c.scope.Name(), c.name),
		OpenBracketChar:          '[',
		CloseBracketChar:         ']',
		TimeConversionForQuery: func(epochSeconds int64) string {
			return strconv.FormatInt(epochSeconds, 10)
		},
	}
}

// unwrapRow strips the single-field envelope couchbase places around each
// query row. Rows that are not wrapped (projections, aggregates) pass
// through unchanged.
func unwrapRow(row []byte, collectionVariable string) ([]byte, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(row, &envelope); err != nil {
		return nil, err
	}
	if len(envelope) == 1 {
		if inner, ok := envelope[collectionVariable]; ok {
			return inner, nil
		}
	}
	return row, nil
}
