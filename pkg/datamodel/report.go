// Package datamodel contains the record types shared by every persistence
// backend. All timestamps are stored as epoch seconds so that the same value
// is comparable across the document, wide-column and key-value backends.
package datamodel

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Status is the outcome of a single pipeline stage.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// IssueLevel is the severity of an issue reported by a stage.
type IssueLevel string

const (
	LevelError   IssueLevel = "ERROR"
	LevelWarning IssueLevel = "WARNING"
)

// Aggregation indicates whether a message arrived on its own or as part of a
// batch.
type Aggregation string

const (
	AggregationSingle Aggregation = "SINGLE"
	AggregationBatch  Aggregation = "BATCH"
)

// Issue is one problem a stage encountered while processing an upload.
type Issue struct {
	Level   IssueLevel `json:"level" bson:"level" dynamodbav:"level"`
	Message string     `json:"message" bson:"message" dynamodbav:"message"`
}

// MessageMetadata describes the broker message that carried the payload.
type MessageMetadata struct {
	MessageUUID string      `json:"messageUUID" bson:"messageUUID" dynamodbav:"messageUUID"`
	MessageHash string      `json:"messageHash" bson:"messageHash" dynamodbav:"messageHash"`
	Aggregation Aggregation `json:"aggregation" bson:"aggregation" dynamodbav:"aggregation"`
	MessageIndex int        `json:"messageIndex" bson:"messageIndex" dynamodbav:"messageIndex"`
}

// StageInfo identifies the service and stage that produced a report together
// with its outcome.
type StageInfo struct {
	Service             string  `json:"service" bson:"service" dynamodbav:"service"`
	Action              string  `json:"action" bson:"action" dynamodbav:"action"`
	Version             string  `json:"version" bson:"version" dynamodbav:"version"`
	Status              Status  `json:"status" bson:"status" dynamodbav:"status"`
	Issues              []Issue `json:"issues,omitempty" bson:"issues,omitempty" dynamodbav:"issues,omitempty"`
	StartProcessingTime int64   `json:"startProcessingTime" bson:"startProcessingTime" dynamodbav:"startProcessingTime"`
	EndProcessingTime   int64   `json:"endProcessingTime" bson:"endProcessingTime" dynamodbav:"endProcessingTime"`
}

// Report is one durable record of a single pipeline stage's outcome for one
// upload. Reports are append-only; there is no update operation anywhere in
// the persistence contract.
type Report struct {
	// ID doubles as the partition/primary key for backends that need one.
	ID                  string            `json:"id" bson:"id" dynamodbav:"id"`
	ReportSchemaVersion string            `json:"reportSchemaVersion,omitempty" bson:"reportSchemaVersion,omitempty" dynamodbav:"reportSchemaVersion"`
	UploadID            string            `json:"uploadId" bson:"uploadId" dynamodbav:"uploadId"`
	ReportID            string            `json:"reportId,omitempty" bson:"reportId,omitempty" dynamodbav:"reportId"`
	DataStreamID        string            `json:"dataStreamId" bson:"dataStreamId" dynamodbav:"dataStreamId"`
	DataStreamRoute     string            `json:"dataStreamRoute" bson:"dataStreamRoute" dynamodbav:"dataStreamRoute"`
	DexIngestDateTime   int64             `json:"dexIngestDateTime" bson:"dexIngestDateTime" dynamodbav:"dexIngestDateTime"`
	MessageMetadata     *MessageMetadata  `json:"messageMetadata,omitempty" bson:"messageMetadata,omitempty" dynamodbav:"messageMetadata"`
	StageInfo           *StageInfo        `json:"stageInfo,omitempty" bson:"stageInfo,omitempty" dynamodbav:"stageInfo"`
	Tags                map[string]string `json:"tags,omitempty" bson:"tags,omitempty" dynamodbav:"tags"`
	Data                map[string]string `json:"data,omitempty" bson:"data,omitempty" dynamodbav:"data"`
	ContentType         string            `json:"content_type,omitempty" bson:"content_type,omitempty" dynamodbav:"content_type"`
	Jurisdiction        string            `json:"jurisdiction,omitempty" bson:"jurisdiction,omitempty" dynamodbav:"jurisdiction"`
	SenderID            string            `json:"senderId,omitempty" bson:"senderId,omitempty" dynamodbav:"senderId"`
	DataProducerID      string            `json:"dataProducerId,omitempty" bson:"dataProducerId,omitempty" dynamodbav:"dataProducerId"`
	Source              string            `json:"source,omitempty" bson:"source,omitempty" dynamodbav:"source"`
	Content             any               `json:"content,omitempty" bson:"content,omitempty" dynamodbav:"content"`
	// Timestamp is assigned server side at creation.
	Timestamp int64 `json:"timestamp" bson:"timestamp" dynamodbav:"timestamp"`
}

// NewReport stamps the creation instant on an otherwise caller-filled report.
func NewReport() Report {
	return Report{Timestamp: time.Now().UTC().Unix()}
}

// ContentAsString renders the free-form content for display or logging. JSON
// content is re-encoded; anything else is stringified as-is.
func (r *Report) ContentAsString() string {
	if r.Content == nil {
		return ""
	}
	switch strings.ToLower(r.ContentType) {
	case "application/json", "json":
		if b, err := json.Marshal(r.Content); err == nil {
			return string(b)
		}
	}
	return fmt.Sprintf("%v", r.Content)
}
