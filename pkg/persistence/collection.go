// Package persistence defines the uniform CRUD contract that every database
// backend implements, the dialect metadata needed to build portable query
// text against it, and the configuration-independent pieces shared by all
// backends.
package persistence

import (
	"context"
	"strconv"
)

// Collection is the uniform CRUD contract, implemented once per backend
// technology. Implementations hold no state beyond the backend session
// reference and are safe to share across concurrent callers.
type Collection[T any] interface {
	// GetItem reads a single item by its id. A missing item is (nil, nil),
	// not an error.
	GetItem(ctx context.Context, id string) (*T, error)

	// QueryItems executes a backend-native query string and decodes each
	// result row. Zero matching rows yield an empty slice, never nil and
	// never an error. A row that cannot be decoded into T is a hard error.
	QueryItems(ctx context.Context, query string) ([]T, error)

	// CreateItem persists one item and reports whether the write was
	// confirmed. Transient backend failures are retried internally; false
	// means the write never succeeded after exhausting retries. The call
	// blocks the caller for the duration of any backoff.
	CreateItem(ctx context.Context, id string, item T, partitionKey string) bool

	// DeleteItem removes one item by key and reports whether the backend
	// acknowledged the delete.
	DeleteItem(ctx context.Context, itemID string, partitionKey string) bool

	// Dialect returns the metadata needed to build query text against this
	// collection without knowing which backend is in use.
	Dialect() Dialect
}

// Dialect is the small set of syntactic tokens a query builder needs to
// address a collection portably. It is plain data attached to each
// collection, not behavior inherited from it.
type Dialect struct {
	// CollectionVariable is the token bound to each row in a query, e.g.
	// "r" for the cosmos dialect. Empty for backends that address columns
	// implicitly.
	CollectionVariable string

	// CollectionVariablePrefix is the collection variable plus its field
	// access separator, e.g. "r.".
	CollectionVariablePrefix string

	// CollectionNameForQuery is the fully qualified name to select from,
	// e.g. a quoted table name for dynamo or bucket.scope.`name` for
	// couchbase.
	CollectionNameForQuery string

	// OpenBracketChar and CloseBracketChar delimit array literals in this
	// dialect. Zero values mean '(' and ')'.
	OpenBracketChar  byte
	CloseBracketChar byte

	// ElementForQuery maps a logical field name to the dialect's accessor
	// expression. Nil means the name passes through unchanged.
	ElementForQuery func(field string) string

	// TimeConversionForQuery formats an epoch-seconds value as a literal in
	// this dialect. Nil means a plain decimal integer.
	TimeConversionForQuery func(epochSeconds int64) string
}

// OpenBracket returns the dialect's array-literal opener.
func (d Dialect) OpenBracket() byte {
	if d.OpenBracketChar == 0 {
		return '('
	}
	return d.OpenBracketChar
}

// CloseBracket returns the dialect's array-literal closer.
func (d Dialect) CloseBracket() byte {
	if d.CloseBracketChar == 0 {
		return ')'
	}
	return d.CloseBracketChar
}

// Element maps a logical field name to the dialect's accessor expression.
func (d Dialect) Element(field string) string {
	if d.ElementForQuery == nil {
		return field
	}
	return d.ElementForQuery(field)
}

// TimeLiteral formats an epoch-seconds value as a point-in-time literal.
func (d Dialect) TimeLiteral(epochSeconds int64) string {
	if d.TimeConversionForQuery == nil {
		return strconv.FormatInt(epochSeconds, 10)
	}
	return d.TimeConversionForQuery(epochSeconds)
}
