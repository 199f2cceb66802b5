package scylla

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportColumns(t *testing.T) {
	t.Run("id-is-first", func(t *testing.T) {
		assert.Equal(t, "id", reportColumns[0].Name)
		assert.Equal(t, TypeText, reportColumns[0].Type)
	})
	t.Run("structured-fields-are-json-encoded", func(t *testing.T) {
		byName := map[string]Column{}
		for _, col := range reportColumns {
			byName[col.Name] = col
		}
		assert.True(t, byName["messageMetadata"].JSONEncoded)
		assert.True(t, byName["stageInfo"].JSONEncoded)
		assert.Equal(t, TypeText, byName["messageMetadata"].Type)
	})
	t.Run("timestamps-are-bigint", func(t *testing.T) {
		byName := map[string]Column{}
		for _, col := range reportColumns {
			byName[col.Name] = col
		}
		assert.Equal(t, TypeBigInt, byName["dexIngestDateTime"].Type)
		assert.Equal(t, TypeBigInt, byName["timestamp"].Type)
	})
	t.Run("content-uses-fallback", func(t *testing.T) {
		var content Column
		for _, col := range reportColumns {
			if col.Name == "content" {
				content = col
			}
		}
		assert.True(t, content.Fallback)
		assert.Equal(t, TypeTextMap, content.Type)
	})
	t.Run("dead-letter-extends-reports", func(t *testing.T) {
		assert.Len(t, deadLetterColumns, len(reportColumns)+3)
		extra := deadLetterColumns[len(reportColumns):]
		assert.Equal(t, "dispositionType", extra[0].Name)
		assert.Equal(t, TypeTextList, extra[1].Type)
		assert.Equal(t, "validationSchemas", extra[2].Name)
	})
}

func TestCreateTableCQL(t *testing.T) {
	cql := createTableCQL("processingstatus", "reports", reportColumns)
	assert.True(t, strings.HasPrefix(cql, "CREATE TABLE IF NOT EXISTS processingstatus.reports ("))
	assert.Contains(t, cql, "id text,")
	assert.Contains(t, cql, "dexIngestDateTime bigint,")
	assert.Contains(t, cql, "tags map<text, text>,")
	assert.Contains(t, cql, "PRIMARY KEY (id)")
	assert.True(t, strings.HasSuffix(cql, ");"))
}

func TestCreateKeyspaceCQL(t *testing.T) {
	cql := createKeyspaceCQL("processingstatus", 3)
	assert.Equal(t,
		"CREATE KEYSPACE IF NOT EXISTS processingstatus WITH REPLICATION = {'class': 'SimpleStrategy', 'replication_factor': 3};",
		cql)
}
