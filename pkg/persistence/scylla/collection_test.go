package scylla

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"

	"github.com/dexstatus/reportstore/pkg/datamodel"
)

func TestColumnValue(t *testing.T) {
	t.Run("null-binds-nil", func(t *testing.T) {
		value, err := columnValue(Column{Name: "jurisdiction", Type: TypeText}, json.RawMessage("null"))
		assert.NoError(t, err)
		assert.Nil(t, value)
	})
	t.Run("missing-binds-nil", func(t *testing.T) {
		value, err := columnValue(Column{Name: "jurisdiction", Type: TypeText}, nil)
		assert.NoError(t, err)
		assert.Nil(t, value)
	})
	t.Run("text", func(t *testing.T) {
		value, err := columnValue(Column{Name: "uploadId", Type: TypeText}, json.RawMessage(`"u-1"`))
		assert.NoError(t, err)
		assert.Equal(t, "u-1", value)
	})
	t.Run("bigint", func(t *testing.T) {
		value, err := columnValue(Column{Name: "timestamp", Type: TypeBigInt}, json.RawMessage("1700000000"))
		assert.NoError(t, err)
		assert.Equal(t, int64(1700000000), value)
	})
	t.Run("text-list", func(t *testing.T) {
		value, err := columnValue(
			Column{Name: "deadLetterReasons", Type: TypeTextList},
			json.RawMessage(`["missing field", "bad schema"]`))
		assert.NoError(t, err)
		assert.Equal(t, []string{"missing field", "bad schema"}, value)
	})
	t.Run("text-map", func(t *testing.T) {
		value, err := columnValue(
			Column{Name: "tags", Type: TypeTextMap},
			json.RawMessage(`{"env": "prd"}`))
		assert.NoError(t, err)
		assert.Equal(t, map[string]string{"env": "prd"}, value)
	})
	t.Run("json-encoded-keeps-raw-text", func(t *testing.T) {
		raw := json.RawMessage(`{"service": "upload-api", "action": "metadata-verify"}`)
		value, err := columnValue(Column{Name: "stageInfo", Type: TypeText, JSONEncoded: true}, raw)
		assert.NoError(t, err)
		assert.Equal(t, string(raw), value)
	})
	t.Run("type-mismatch-is-an-error", func(t *testing.T) {
		_, err := columnValue(Column{Name: "timestamp", Type: TypeBigInt}, json.RawMessage(`"soon"`))
		assert.Error(t, err)
	})
}

func TestFallbackMap(t *testing.T) {
	t.Run("object-fields-stringified", func(t *testing.T) {
		value, err := fallbackMap(json.RawMessage(`{"schema_name": "metadata-verify", "count": 3}`))
		assert.NoError(t, err)
		assert.Equal(t, map[string]string{"schema_name": "metadata-verify", "count": "3"}, value)
	})
	t.Run("scalar-lands-under-value-key", func(t *testing.T) {
		value, err := fallbackMap(json.RawMessage(`"raw report body"`))
		assert.NoError(t, err)
		assert.Equal(t, map[string]string{"value": "raw report body"}, value)
	})
}

func TestDecodeRow(t *testing.T) {
	collection := newCollection[datamodel.Report](nil, "processingstatus", "reports", reportColumns)

	t.Run("rebuilds-record-from-lowercased-columns", func(t *testing.T) {
		row := map[string]interface{}{
			"id":                "item-1",
			"uploadid":          "u-1",
			"datastreamid":      "stream-1",
			"dexingestdatetime": int64(1700000000),
			"stageinfo":         `{"service": "upload-api", "action": "metadata-verify"}`,
			"tags":              map[string]string{"env": "prd"},
		}
		item, err := collection.decodeRow(row)
		assert.NoError(t, err)
		assert.Equal(t, "item-1", item.ID)
		assert.Equal(t, "u-1", item.UploadID)
		assert.Equal(t, "stream-1", item.DataStreamID)
		assert.Equal(t, int64(1700000000), item.DexIngestDateTime)
		assert.NotNil(t, item.StageInfo)
		assert.Equal(t, "upload-api", item.StageInfo.Service)
		assert.Equal(t, map[string]string{"env": "prd"}, item.Tags)
	})
	t.Run("unknown-columns-are-skipped", func(t *testing.T) {
		row := map[string]interface{}{
			"id":            "item-2",
			"writetime_ttl": int64(42),
		}
		item, err := collection.decodeRow(row)
		assert.NoError(t, err)
		assert.Equal(t, "item-2", item.ID)
	})
	t.Run("empty-json-column-is-absent", func(t *testing.T) {
		row := map[string]interface{}{
			"id":        "item-3",
			"stageinfo": "",
		}
		item, err := collection.decodeRow(row)
		assert.NoError(t, err)
		assert.Nil(t, item.StageInfo)
	})
}
