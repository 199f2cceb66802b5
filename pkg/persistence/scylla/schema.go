// Package scylla implements the report persistence contract against a
// Scylla (or Cassandra) cluster. The wide-column store needs a table schema
// derived from the record type; the derivation is an explicit column table
// rather than reflection so the mapping is inspectable and testable.
package scylla

import (
	"fmt"
	"strings"
)

// ColumnType is a CQL column type this layer knows how to map record fields
// onto.
type ColumnType string

const (
	TypeText     ColumnType = "text"
	TypeInt      ColumnType = "int"
	TypeBigInt   ColumnType = "bigint" // timestamps as epoch seconds
	TypeBoolean  ColumnType = "boolean"
	TypeDouble   ColumnType = "double"
	TypeTextList ColumnType = "list<text>"
	TypeTextMap  ColumnType = "map<text, text>"
)

// Column binds one record field to its CQL column.
type Column struct {
	Name string
	Type ColumnType

	// JSONEncoded marks structured fields whose value is stored as its
	// JSON text in a text column.
	JSONEncoded bool

	// Fallback marks untyped fields stored through the generic
	// map<text, text> fallback with stringified values.
	Fallback bool
}

// reportColumns is the schema for the reports table. Column names match the
// record's JSON field names; CQL folds unquoted identifiers to lower case,
// which row decoding accounts for.
var reportColumns = []Column{
	{Name: "id", Type: TypeText},
	{Name: "reportSchemaVersion", Type: TypeText},
	{Name: "uploadId", Type: TypeText},
	{Name: "reportId", Type: TypeText},
	{Name: "dataStreamId", Type: TypeText},
	{Name: "dataStreamRoute", Type: TypeText},
	{Name: "dexIngestDateTime", Type: TypeBigInt},
	{Name: "messageMetadata", Type: TypeText, JSONEncoded: true},
	{Name: "stageInfo", Type: TypeText, JSONEncoded: true},
	{Name: "tags", Type: TypeTextMap},
	{Name: "data", Type: TypeTextMap},
	{Name: "content_type", Type: TypeText},
	{Name: "jurisdiction", Type: TypeText},
	{Name: "senderId", Type: TypeText},
	{Name: "dataProducerId", Type: TypeText},
	{Name: "source", Type: TypeText},
	{Name: "content", Type: TypeTextMap, Fallback: true},
	{Name: "timestamp", Type: TypeBigInt},
}

// deadLetterColumns extends the report schema with the dead-letter fields.
var deadLetterColumns = append(append([]Column{}, reportColumns...),
	Column{Name: "dispositionType", Type: TypeText},
	Column{Name: "deadLetterReasons", Type: TypeTextList},
	Column{Name: "validationSchemas", Type: TypeTextList},
)

// createTableCQL renders the CREATE TABLE statement for a column set. The id
// column is always the primary key.
func createTableCQL(keyspace, table string, columns []Column) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s.%s (\n", keyspace, table)
	for _, col := range columns {
		fmt.Fprintf(&b, "    %s %s,\n", col.Name, col.Type)
	}
	b.WriteString("    PRIMARY KEY (id)\n);")
	return b.String()
}

// createKeyspaceCQL renders the keyspace bootstrap statement.
func createKeyspaceCQL(keyspace string, replicationFactor int) string {
	return fmt.Sprintf(
		"CREATE KEYSPACE IF NOT EXISTS %s WITH REPLICATION = {'class': 'SimpleStrategy', 'replication_factor': %d};",
		keyspace, replicationFactor)
}
