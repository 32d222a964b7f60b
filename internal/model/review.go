package model

// UnknownEntity is the entity name used when a page has no recognizable
// name anchor.
const UnknownEntity = "Unknown"

// ReviewRecord is one review text together with the entity (business) that
// the page it came from is about.
type ReviewRecord struct {
	// EntityName is the business name, or UnknownEntity.
	EntityName string `json:"entity_name"`

	// Text is the trimmed review body.
	Text string `json:"text"`
}

// NewReviewRecord builds a ReviewRecord, substituting UnknownEntity for a
// blank entity name.
func NewReviewRecord(entityName, text string) ReviewRecord {
	if entityName == "" {
		entityName = UnknownEntity
	}
	return ReviewRecord{EntityName: entityName, Text: text}
}
