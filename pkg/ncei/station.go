package ncei

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Elevation is not part of the station metadata the search endpoint
// returns, but it is recorded as a daily data type, so a default ten-year
// window is scanned for the most recent record.
const (
	elevationDataType     = "ELEVATION"
	defaultElevationStart = "2015-01-01"
	defaultElevationEnd   = "2025-01-01"
)

const earthRadiusKm = 6371.0

// dailyGetter is the follow-up-query capability a station needs to resolve
// its own elevation. Injected at construction by the accessor.
type dailyGetter interface {
	GetDaily(ctx context.Context, dataTypes, stations []string, start, end string) ([]map[string]any, error)
}

// Station represents one observation site. Stations are constructed fresh
// from each search response and never mutated afterwards; identity is the
// station ID.
type Station struct {
	Name      string
	ID        string
	Lat       float64
	Lon       float64
	DataTypes []DataTypePeriod

	daily dailyGetter
}

// HasDataType reports whether the station records the given data type. The
// first entry with a matching id wins; ids are not assumed unique. When
// startDate is given the period of record must begin on or before it, and
// when endDate is given the period must end on or after it. Dates are ISO
// YYYY-MM-DD strings; malformed dates fail with a *ValidationError.
func (s *Station) HasDataType(id, startDate, endDate string) (bool, error) {
	var period *DataTypePeriod
	for i := range s.DataTypes {
		if s.DataTypes[i].ID == id {
			period = &s.DataTypes[i]
			break
		}
	}
	if period == nil {
		return false, nil
	}

	if startDate != "" {
		want, err := parseDate("start date", startDate)
		if err != nil {
			return false, err
		}
		have, err := parseDate("record start date", period.StartDate)
		if err != nil {
			return false, err
		}
		if want.Before(have) {
			return false, nil
		}
	}

	if endDate != "" {
		want, err := parseDate("end date", endDate)
		if err != nil {
			return false, err
		}
		have, err := parseDate("record end date", period.EndDate)
		if err != nil {
			return false, err
		}
		if want.After(have) {
			return false, nil
		}
	}

	return true, nil
}

// DistanceTo returns the great-circle distance in kilometers from the
// station to the given coordinates, using the haversine formula.
func (s *Station) DistanceTo(lat, lon float64) float64 {
	lat1 := s.Lat * math.Pi / 180
	lon1 := s.Lon * math.Pi / 180
	lat2 := lat * math.Pi / 180
	lon2 := lon * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Elevation returns the station's elevation in meters: the chronologically
// last record over the default window. Returns ErrNoData when the window
// holds no records and ErrNoAccessor when the station was constructed
// without an accessor.
func (s *Station) Elevation(ctx context.Context) (float64, error) {
	if s.daily == nil {
		return 0, ErrNoAccessor
	}

	records, err := s.daily.GetDaily(ctx,
		[]string{elevationDataType}, []string{s.ID},
		defaultElevationStart, defaultElevationEnd)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("no elevation records for station %s: %w", s.ID, ErrNoData)
	}

	return recordElevation(records[len(records)-1])
}

// ElevationSeries returns the full ordered sequence of dated elevation
// records over the requested window. Empty bounds fall back to the default
// window edge.
func (s *Station) ElevationSeries(ctx context.Context, start, end string) ([]ElevationRecord, error) {
	if s.daily == nil {
		return nil, ErrNoAccessor
	}
	if start == "" {
		start = defaultElevationStart
	}
	if end == "" {
		end = defaultElevationEnd
	}

	records, err := s.daily.GetDaily(ctx,
		[]string{elevationDataType}, []string{s.ID}, start, end)
	if err != nil {
		return nil, err
	}

	series := make([]ElevationRecord, 0, len(records))
	for _, rec := range records {
		elev, err := recordElevation(rec)
		if err != nil {
			return nil, err
		}
		date, _ := rec["DATE"].(string)
		series = append(series, ElevationRecord{Date: date, Elevation: elev})
	}
	return series, nil
}

func recordElevation(rec map[string]any) (float64, error) {
	switch v := rec[elevationDataType].(type) {
	case string:
		elev, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing elevation %q: %w", v, err)
		}
		return elev, nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("elevation value is %T, want number or string", v)
	}
}

func parseDate(field, value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ValidationError{
		Field: field,
		Value: value,
		Err:   fmt.Errorf("want ISO date (%s)", "2006-01-02"),
	}
}
