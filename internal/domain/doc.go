// Package domain models Austin 311 unified service request data.
//
// # Data Source
//
// Records come from the City of Austin open data portal export
// "Austin 311 Public Data", a CSV file with one service request per row.
// The header line is normalized once per file into document keys by
// [NormalizeColumns]:
//
//	"Service Request (SR) Number"  →  "servicerequestnumber"
//	"Zip Code"                     →  "zipcode"
//	"(Latitude.Longitude)"         →  "latitudelongitude"
//
// The "(SR)" marker is only stripped from the first column; every column then
// loses whitespace, parentheses and periods and is lower-cased.
//
// # Export Conventions
//
// Timestamps:
//
//	"MM/DD/YYYY hh:mm:ss AM|PM" in local city time, e.g. "01/15/2020 02:30:00 PM".
//	Four columns carry timestamps: createddate, statuschangedate,
//	lastupdatedate and closedate. Each is replaced by month, day, year and
//	24-hour hour fields named after the column without "date", so
//	createddate yields createdmonth, createdday, createdyear and createdhour.
//
// Coordinates:
//
//	latitudecoordinate / longitudecoordinate hold WGS-84 degrees.
//	stateplanexcoordinate / stateplaneycoordinate hold Texas Central state
//	plane feet. latitudelongitude repeats the WGS-84 pair as "(30.26, -97.74)"
//	and is replaced by a [GeoPoint] titled with the service request number.
//
// Empty cells:
//
//	The export leaves unknown values blank. Blank or malformed numeric,
//	coordinate and timestamp cells become nil in the document rather than
//	failing the record. A row whose cells are all blank is detected with
//	[IsEmptyRecord] and skipped by the pipeline.
//
// # Document Keys
//
// The service request number identifies a request across exports, so it is
// returned beside the document by [FormatRecord] and used as the storage key.
// Re-loading an export therefore replaces documents instead of duplicating them.
package domain
