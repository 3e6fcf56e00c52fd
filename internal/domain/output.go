package domain

import (
	"strings"
	"time"
)

// NewOutputDocument normalizes a record and keys it for storage. It returns
// ErrMissingIdentifier when the record has no service request number.
func NewOutputDocument(record RawRecord) (OutputDocument, error) {
	id, doc := FormatRecord(record)
	if strings.TrimSpace(id) == "" {
		return OutputDocument{}, ErrMissingIdentifier
	}
	return OutputDocument{
		Key:         id,
		Document:    doc,
		ProcessedAt: clock.Now().UTC(),
	}, nil
}

// FormatProcessedAt renders a processing time for message headers.
func FormatProcessedAt(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
