package ncei

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStation_DistanceTo_ZeroAtSelf(t *testing.T) {
	st := &Station{Lat: 40.629583, Lon: -111.626703}
	assert.InDelta(t, 0, st.DistanceTo(st.Lat, st.Lon), 1e-9)
}

func TestStation_DistanceTo_KnownDistance(t *testing.T) {
	// One degree of latitude at the equator is ~111.19 km.
	st := &Station{Lat: 0, Lon: 0}
	assert.InDelta(t, 111.19, st.DistanceTo(1, 0), 0.5)
}

func TestStation_DistanceTo_NonNegativeAndSymmetric(t *testing.T) {
	points := [][2]float64{
		{40.6, -111.6},
		{-33.9, 151.2},
		{64.1, -21.9},
		{0, 180},
		{-90, 0},
	}
	for _, p := range points {
		for _, q := range points {
			a := &Station{Lat: p[0], Lon: p[1]}
			b := &Station{Lat: q[0], Lon: q[1]}
			dab := a.DistanceTo(q[0], q[1])
			dba := b.DistanceTo(p[0], p[1])
			assert.GreaterOrEqual(t, dab, 0.0)
			assert.InDelta(t, dab, dba, 1e-6)
		}
	}
}

func TestStation_DistanceTo_TriangleInequality(t *testing.T) {
	a := &Station{Lat: 40.6, Lon: -111.6}
	b := &Station{Lat: 41.2, Lon: -110.9}
	c := &Station{Lat: 39.8, Lon: -112.4}

	ab := a.DistanceTo(b.Lat, b.Lon)
	bc := b.DistanceTo(c.Lat, c.Lon)
	ac := a.DistanceTo(c.Lat, c.Lon)

	assert.LessOrEqual(t, ac, ab+bc+1e-6)
}

func TestStation_DistanceTo_MonotonicInSeparation(t *testing.T) {
	st := &Station{Lat: 40, Lon: -105}
	prev := -1.0
	for d := 0.0; d <= 5.0; d += 0.25 {
		dist := st.DistanceTo(40+d, -105)
		assert.GreaterOrEqual(t, dist, prev)
		prev = dist
	}
}

func tmaxStation() *Station {
	return &Station{
		ID: "TEST1",
		DataTypes: []DataTypePeriod{
			{ID: "TMAX", StartDate: "2000-01-01", EndDate: "2025-01-01"},
			{ID: "PRCP", StartDate: "1990-06-15", EndDate: "2024-12-31"},
		},
	}
}

func TestStation_HasDataType_AbsentID(t *testing.T) {
	st := tmaxStation()

	ok, err := st.HasDataType("SNOW", "", "")
	require.NoError(t, err)
	assert.False(t, ok)

	// Dates are irrelevant for an absent id, even malformed ones.
	ok, err = st.HasDataType("SNOW", "not-a-date", "also-not")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStation_HasDataType_NoDateConstraints(t *testing.T) {
	ok, err := tmaxStation().HasDataType("TMAX", "", "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStation_HasDataType_StartWithinCoverage(t *testing.T) {
	ok, err := tmaxStation().HasDataType("TMAX", "2010-01-01", "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStation_HasDataType_StartBeforeCoverage(t *testing.T) {
	ok, err := tmaxStation().HasDataType("TMAX", "1990-01-01", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStation_HasDataType_EndAfterCoverage(t *testing.T) {
	ok, err := tmaxStation().HasDataType("TMAX", "", "2030-01-01")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStation_HasDataType_FullWindowCovered(t *testing.T) {
	ok, err := tmaxStation().HasDataType("TMAX", "2005-01-01", "2024-06-01")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStation_HasDataType_MalformedDate(t *testing.T) {
	_, err := tmaxStation().HasDataType("TMAX", "01/02/2010", "")
	require.Error(t, err)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestStation_HasDataType_FirstMatchWins(t *testing.T) {
	st := &Station{
		DataTypes: []DataTypePeriod{
			{ID: "TMAX", StartDate: "2010-01-01", EndDate: "2020-01-01"},
			{ID: "TMAX", StartDate: "1900-01-01", EndDate: "2025-01-01"},
		},
	}

	// Only the first entry is consulted, so the wider second period does
	// not rescue a start date before the first period's coverage.
	ok, err := st.HasDataType("TMAX", "2000-01-01", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

type fakeDaily struct {
	records []map[string]any
	err     error

	gotDataTypes []string
	gotStations  []string
	gotStart     string
	gotEnd       string
}

func (f *fakeDaily) GetDaily(_ context.Context, dataTypes, stations []string, start, end string) ([]map[string]any, error) {
	f.gotDataTypes = dataTypes
	f.gotStations = stations
	f.gotStart = start
	f.gotEnd = end
	return f.records, f.err
}

func TestStation_Elevation_MostRecentRecord(t *testing.T) {
	daily := &fakeDaily{records: []map[string]any{
		{"DATE": "2024-01-01", "ELEVATION": "2501.9"},
		{"DATE": "2024-01-02", "ELEVATION": "2502.4"},
	}}
	st := &Station{ID: "TEST1", daily: daily}

	elev, err := st.Elevation(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 2502.4, elev, 1e-9)

	assert.Equal(t, []string{"ELEVATION"}, daily.gotDataTypes)
	assert.Equal(t, []string{"TEST1"}, daily.gotStations)
	assert.Equal(t, "2015-01-01", daily.gotStart)
	assert.Equal(t, "2025-01-01", daily.gotEnd)
}

func TestStation_Elevation_NumericValue(t *testing.T) {
	daily := &fakeDaily{records: []map[string]any{
		{"DATE": "2024-01-01", "ELEVATION": 1288.5},
	}}
	st := &Station{ID: "TEST1", daily: daily}

	elev, err := st.Elevation(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1288.5, elev, 1e-9)
}

func TestStation_Elevation_EmptySeries(t *testing.T) {
	st := &Station{ID: "TEST1", daily: &fakeDaily{}}

	_, err := st.Elevation(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestStation_Elevation_Unbound(t *testing.T) {
	st := &Station{ID: "TEST1"}

	_, err := st.Elevation(context.Background())
	assert.ErrorIs(t, err, ErrNoAccessor)
}

func TestStation_Elevation_PropagatesAccessorError(t *testing.T) {
	boom := &RemoteServiceError{StatusCode: 503, Reason: "Service Unavailable"}
	st := &Station{ID: "TEST1", daily: &fakeDaily{err: boom}}

	_, err := st.Elevation(context.Background())
	var remoteErr *RemoteServiceError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 503, remoteErr.StatusCode)
}

func TestStation_ElevationSeries_FullWindow(t *testing.T) {
	daily := &fakeDaily{records: []map[string]any{
		{"DATE": "2020-01-01", "ELEVATION": "100.5"},
		{"DATE": "2020-01-02", "ELEVATION": "101.0"},
	}}
	st := &Station{ID: "TEST1", daily: daily}

	series, err := st.ElevationSeries(context.Background(), "2020-01-01", "2020-12-31")
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.Equal(t, ElevationRecord{Date: "2020-01-01", Elevation: 100.5}, series[0])
	assert.Equal(t, ElevationRecord{Date: "2020-01-02", Elevation: 101.0}, series[1])
	assert.Equal(t, "2020-01-01", daily.gotStart)
	assert.Equal(t, "2020-12-31", daily.gotEnd)
}

func TestStation_ElevationSeries_DefaultsEmptyBounds(t *testing.T) {
	daily := &fakeDaily{}
	st := &Station{ID: "TEST1", daily: daily}

	series, err := st.ElevationSeries(context.Background(), "2020-01-01", "")
	require.NoError(t, err)
	assert.Empty(t, series)
	assert.Equal(t, "2020-01-01", daily.gotStart)
	assert.Equal(t, "2025-01-01", daily.gotEnd)
}

func TestStation_ElevationSeries_Unbound(t *testing.T) {
	st := &Station{ID: "TEST1"}

	_, err := st.ElevationSeries(context.Background(), "2020-01-01", "2020-12-31")
	assert.ErrorIs(t, err, ErrNoAccessor)
}

func TestParseDate_AcceptsDateTime(t *testing.T) {
	_, err := parseDate("start date", "2020-01-01T00:00:00")
	assert.NoError(t, err)
}

func TestParseDate_RejectsGarbage(t *testing.T) {
	_, err := parseDate("start date", "tomorrow")
	require.Error(t, err)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "start date", validationErr.Field)
	assert.True(t, errors.As(err, &validationErr))
}
