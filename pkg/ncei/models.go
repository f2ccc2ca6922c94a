// Package ncei is a client library for the NOAA NCEI Access web service.
// It normalizes the service's inconsistent response shapes into a single
// result contract and layers a nearest-station search on top of the
// bounding-box-only search endpoint.
package ncei

// Result is the normalized outcome of one remote call. Data is always a
// slice of records regardless of how the remote payload nested it, and is
// never nil. A Result is constructed once per call and not mutated after.
type Result struct {
	StatusCode int
	Message    string
	Data       []map[string]any
}

// DataTypePeriod describes the period of record for one observed variable
// at a station. Dates are ISO YYYY-MM-DD strings as reported by the
// service.
type DataTypePeriod struct {
	ID        string
	StartDate string
	EndDate   string
}

// ElevationRecord is one dated elevation observation in meters.
type ElevationRecord struct {
	Date      string
	Elevation float64
}
