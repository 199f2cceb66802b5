package datamodel

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

func TestNewReport(t *testing.T) {
	before := time.Now().UTC().Unix()
	report := NewReport()
	after := time.Now().UTC().Unix()
	assert.GreaterOrEqual(t, report.Timestamp, before)
	assert.LessOrEqual(t, report.Timestamp, after)
}

func TestContentAsString(t *testing.T) {
	t.Run("nil-content", func(t *testing.T) {
		report := Report{}
		assert.Empty(t, report.ContentAsString())
	})
	t.Run("json-content-is-reencoded", func(t *testing.T) {
		report := Report{
			ContentType: "application/json",
			Content:     map[string]string{"schema_name": "metadata-verify"},
		}
		assert.JSONEq(t, `{"schema_name": "metadata-verify"}`, report.ContentAsString())
	})
	t.Run("plain-content-is-stringified", func(t *testing.T) {
		report := Report{
			ContentType: "text/plain",
			Content:     "raw report body",
		}
		assert.Equal(t, "raw report body", report.ContentAsString())
	})
}

func TestReportEncoding(t *testing.T) {
	t.Run("content-type-uses-snake-case", func(t *testing.T) {
		report := Report{ID: "item-1", ContentType: "application/json"}
		encoded, err := json.Marshal(report)
		assert.NoError(t, err)
		assert.Contains(t, string(encoded), `"content_type":"application/json"`)
	})
	t.Run("dead-letter-fields-are-flat", func(t *testing.T) {
		deadLetter := ReportDeadLetter{
			Report:            Report{ID: "item-1", UploadID: "u-1"},
			DispositionType:   "ADD",
			DeadLetterReasons: []string{"missing dataStreamId"},
		}
		encoded, err := json.Marshal(deadLetter)
		assert.NoError(t, err)
		var flat map[string]json.RawMessage
		assert.NoError(t, json.Unmarshal(encoded, &flat))
		// Embedded report fields sit beside the dead-letter ones, no nesting.
		assert.Contains(t, flat, "id")
		assert.Contains(t, flat, "uploadId")
		assert.Contains(t, flat, "dispositionType")
		assert.NotContains(t, flat, "Report")
	})
}
