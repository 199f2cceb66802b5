package scylla

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"github.com/dexstatus/reportstore/pkg/persistence"
)

// Collection is the Scylla realization of the persistence contract for one
// table.
type Collection[T any] struct {
	session  *gocql.Session
	keyspace string
	table    string
	columns  []Column

	// byLowerName resolves the lower-cased identifiers gocql returns back
	// to the record's JSON field names.
	byLowerName map[string]Column
}

func newCollection[T any](session *gocql.Session, keyspace, table string, columns []Column) *Collection[T] {
	byLower := make(map[string]Column, len(columns))
	for _, col := range columns {
		byLower[strings.ToLower(col.Name)] = col
	}
	return &Collection[T]{
		session:     session,
		keyspace:    keyspace,
		table:       table,
		columns:     columns,
		byLowerName: byLower,
	}
}

func (c *Collection[T]) qualifiedTable() string {
	return c.keyspace + "." + c.table
}

// GetItem reads one row by primary key.
func (c *Collection[T]) GetItem(ctx context.Context, id string) (*T, error) {
	iter := c.session.Query(
		fmt.Sprintf("SELECT * FROM %s WHERE id = ?", c.qualifiedTable()), id,
	).WithContext(ctx).Iter()

	row := map[string]interface{}{}
	if !iter.MapScan(row) {
		if err := iter.Close(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	item, err := c.decodeRow(row)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// QueryItems executes the CQL query and decodes each row.
func (c *Collection[T]) QueryItems(ctx context.Context, query string) ([]T, error) {
	iter := c.session.Query(query).WithContext(ctx).Iter()
	items := make([]T, 0)
	for {
		row := map[string]interface{}{}
		if !iter.MapScan(row) {
			break
		}
		item, err := c.decodeRow(row)
		if err != nil {
			_ = iter.Close()
			return nil, err
		}
		items = append(items, *item)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateItem inserts one row built from the item's fields via the column
// table.
func (c *Collection[T]) CreateItem(ctx context.Context, id string, item T, _ string) bool {
	names := make([]string, 0, len(c.columns))
	marks := make([]string, 0, len(c.columns))
	values := make([]interface{}, 0, len(c.columns))

	fields, err := fieldsOf(item)
	if err != nil {
		zap.S().Errorf("Failed to encode item %s for scylla: %s", id, err)
		return false
	}
	for _, col := range c.columns {
		value, err := columnValue(col, fields[col.Name])
		if err != nil {
			zap.S().Errorf("Failed to encode column %s of item %s: %s", col.Name, id, err)
			return false
		}
		names = append(names, col.Name)
		marks = append(marks, "?")
		values = append(values, value)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.qualifiedTable(), strings.Join(names, ", "), strings.Join(marks, ", "))
	if err := c.session.Query(stmt, values...).WithContext(ctx).Exec(); err != nil {
		zap.S().Errorf("Failed to insert item %s into scylla: %s", id, err)
		return false
	}
	return true
}

// DeleteItem removes one row by primary key.
func (c *Collection[T]) DeleteItem(ctx context.Context, itemID string, _ string) bool {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE id = ?", c.qualifiedTable())
	if err := c.session.Query(stmt, itemID).WithContext(ctx).Exec(); err != nil {
		zap.S().Errorf("Failed to delete item %s from scylla: %s", itemID, err)
		return false
	}
	return true
}

// Dialect for CQL queries. CQL addresses columns implicitly, so there is no
// row variable or prefix.
func (c *Collection[T]) Dialect() persistence.Dialect {
	return persistence.Dialect{
		CollectionNameForQuery: c.qualifiedTable(),
		OpenBracketChar:        '[',
		CloseBracketChar:       ']',
	}
}

// fieldsOf flattens the item into its JSON field map, which the column table
// is keyed by.
func fieldsOf(item any) (map[string]json.RawMessage, error) {
	encoded, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// columnValue converts one JSON field value into the Go value gocql should
// bind for the column.
func columnValue(col Column, raw json.RawMessage) (interface{}, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if col.JSONEncoded {
		return string(raw), nil
	}
	if col.Fallback {
		return fallbackMap(raw)
	}
	switch col.Type {
	case TypeText:
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	case TypeInt:
		var i int
		err := json.Unmarshal(raw, &i)
		return i, err
	case TypeBigInt:
		var i int64
		err := json.Unmarshal(raw, &i)
		return i, err
	case TypeBoolean:
		var b bool
		err := json.Unmarshal(raw, &b)
		return b, err
	case TypeDouble:
		var f float64
		err := json.Unmarshal(raw, &f)
		return f, err
	case TypeTextList:
		var l []string
		err := json.Unmarshal(raw, &l)
		return l, err
	case TypeTextMap:
		var m map[string]string
		err := json.Unmarshal(raw, &m)
		return m, err
	}
	return nil, fmt.Errorf("unsupported column type %s", col.Type)
}

// fallbackMap stores an untyped value through the generic map<text, text>
// fallback: object fields are stringified, anything else lands under a
// single "value" key.
func fallbackMap(raw json.RawMessage) (map[string]string, error) {
	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asObject); err != nil {
		return map[string]string{"value": strings.Trim(string(raw), `"`)}, nil
	}
	result := make(map[string]string, len(asObject))
	for key, value := range asObject {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			result[key] = s
			continue
		}
		result[key] = string(value)
	}
	return result, nil
}

// decodeRow converts one gocql row back into the record type by rebuilding
// its JSON document.
func (c *Collection[T]) decodeRow(row map[string]interface{}) (*T, error) {
	doc := make(map[string]interface{}, len(row))
	for name, value := range row {
		col, known := c.byLowerName[name]
		if !known {
			continue
		}
		if col.JSONEncoded {
			text, _ := value.(string)
			if text == "" {
				continue
			}
			doc[col.Name] = json.RawMessage(text)
			continue
		}
		doc[col.Name] = value
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var item T
	if err := json.Unmarshal(encoded, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
