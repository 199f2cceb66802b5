package datamodel

// ReportDeadLetter is a report that failed validation, stored in its own
// collection so queries over valid reports never have to filter out
// malformed ones.
type ReportDeadLetter struct {
	Report `bson:",inline"`

	DispositionType string `json:"dispositionType,omitempty" bson:"dispositionType,omitempty" dynamodbav:"dispositionType"`

	// DeadLetterReasons are the human readable validation failures.
	DeadLetterReasons []string `json:"deadLetterReasons,omitempty" bson:"deadLetterReasons,omitempty" dynamodbav:"deadLetterReasons"`

	// ValidationSchemas lists the schema identifiers that were evaluated.
	ValidationSchemas []string `json:"validationSchemas,omitempty" bson:"validationSchemas,omitempty" dynamodbav:"validationSchemas"`
}
