package domain

import (
	"errors"
	"time"
)

// ErrMissingIdentifier is returned when a record carries no service request number.
var ErrMissingIdentifier = errors.New("record has no service request number")

// RawRecord is one CSV row keyed by normalized column name.
// Columns preserves header order; Values holds the cell text for each column.
type RawRecord struct {
	Columns []string
	Values  map[string]string

	// Line is the 1-based line number in the source file, used for logging.
	Line int
}

// NewRawRecord pairs header columns with row cells. Cells missing from a
// short row are recorded as empty strings and extra cells are dropped.
func NewRawRecord(columns, cells []string) RawRecord {
	values := make(map[string]string, len(columns))
	for i, col := range columns {
		if i < len(cells) {
			values[col] = cells[i]
		} else {
			values[col] = ""
		}
	}
	return RawRecord{Columns: columns, Values: values}
}

// Get returns the value for a column and whether the column exists.
func (r RawRecord) Get(column string) (string, bool) {
	v, ok := r.Values[column]
	return v, ok
}

// Document is the normalized, storage-ready form of a RawRecord. Values are
// nil, string, int, float64 or GeoPoint.
type Document map[string]any

// GeoPoint replaces the combined "(lat, lon)" column of the export.
type GeoPoint struct {
	Location [2]*float64 `json:"location" bson:"location"`
	Title    string      `json:"title" bson:"title"`
}

// Lat returns the latitude, or false when the source text did not parse.
func (g GeoPoint) Lat() (float64, bool) {
	if g.Location[0] == nil {
		return 0, false
	}
	return *g.Location[0], true
}

// Lon returns the longitude, or false when the source text did not parse.
func (g GeoPoint) Lon() (float64, bool) {
	if g.Location[1] == nil {
		return 0, false
	}
	return *g.Location[1], true
}

// OutputDocument is a normalized document keyed for the storage sink.
type OutputDocument struct {
	Key         string
	Document    Document
	ProcessedAt time.Time
}
