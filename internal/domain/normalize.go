package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Column names after header normalization.
const (
	IdentifierColumn = "servicerequestnumber"
	GeoColumn        = "latitudelongitude"
)

// timestampLayout matches "01/15/2020 02:30:00 PM".
const timestampLayout = "01/02/2006 03:04:05 PM"

var (
	intColumns = []string{
		"streetnumber",
		"zipcode",
		"councildistrict",
	}

	floatColumns = []string{
		"stateplanexcoordinate",
		"stateplaneycoordinate",
		"latitudecoordinate",
		"longitudecoordinate",
	}

	// dateColumns are replaced by <prefix>month/day/year/hour, where prefix is
	// the column name without its trailing "date".
	dateColumns = []string{
		"createddate",
		"statuschangedate",
		"lastupdatedate",
		"closedate",
	}

	// geoRe matches the export's "(30.26, -97.74)" coordinate text.
	geoRe = regexp.MustCompile(`^\(\s*([-+]?[0-9.]+)\s*,\s*([-+]?[0-9.]+)\s*\)$`)

	// headerStripRe removes the characters dropped from every header token.
	headerStripRe = regexp.MustCompile(`[\s().]`)
)

// NormalizeColumns turns the export's header tokens into document keys,
// e.g. "Service Request (SR) Number" -> "servicerequestnumber" and
// "(Latitude.Longitude)" -> "latitudelongitude".
func NormalizeColumns(header []string) []string {
	columns := make([]string, len(header))
	for i, token := range header {
		if i == 0 {
			token = strings.TrimPrefix(token, "\ufeff")
			token = strings.ReplaceAll(token, "(SR)", "")
		}
		columns[i] = strings.ToLower(headerStripRe.ReplaceAllString(token, ""))
	}
	return columns
}

// FormatRecord normalizes a raw record into a storage document and returns it
// with the record's service request number. Coercion failures never abort:
// the affected fields are set to nil. The input record is not modified.
func FormatRecord(record RawRecord) (string, Document) {
	doc := make(Document, len(record.Values)+len(dateColumns)*3)
	for col, v := range record.Values {
		doc[col] = v
	}

	id := record.Values[IdentifierColumn]
	delete(doc, IdentifierColumn)

	doc[GeoColumn] = parseGeoPoint(record.Values[GeoColumn], id)

	for _, col := range intColumns {
		doc[col] = nullableInt(record.Values[col])
	}
	for _, col := range floatColumns {
		doc[col] = nullableFloat(record.Values[col])
	}

	for _, col := range dateColumns {
		prefix := strings.TrimSuffix(col, "date")
		month, day, year, hour := parseDateParts(record.Values[col])
		doc[prefix+"month"] = month
		doc[prefix+"day"] = day
		doc[prefix+"year"] = year
		doc[prefix+"hour"] = hour
		delete(doc, col)
	}

	return id, doc
}

// IsEmptyRecord reports whether every value in the record is the empty
// string. A record with no fields is considered empty.
func IsEmptyRecord(record RawRecord) bool {
	for _, v := range record.Values {
		if v != "" {
			return false
		}
	}
	return true
}

// parseInt parses a base-10 integer, reporting false for empty or malformed text.
func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseFloat parses a finite float64, reporting false for empty, malformed,
// NaN or infinite values.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func nullableInt(s string) any {
	if v, ok := parseInt(s); ok {
		return v
	}
	return nil
}

func nullableFloat(s string) any {
	if v, ok := parseFloat(s); ok {
		return v
	}
	return nil
}

// parseGeoPoint extracts [lat, lon] from "(lat, lon)". Both coordinates are
// nil unless both parse.
func parseGeoPoint(text, title string) GeoPoint {
	point := GeoPoint{Title: title}

	m := geoRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return point
	}
	lat, okLat := parseFloat(m[1])
	lon, okLon := parseFloat(m[2])
	if !okLat || !okLon {
		return point
	}
	point.Location = [2]*float64{&lat, &lon}
	return point
}

// parseDateParts splits a timestamp into month, day, year and 24-hour hour.
// All four results are nil when the text does not parse.
func parseDateParts(text string) (month, day, year, hour any) {
	t, err := time.Parse(timestampLayout, strings.TrimSpace(text))
	if err != nil {
		return nil, nil, nil, nil
	}
	return int(t.Month()), t.Day(), t.Year(), t.Hour()
}
