package ncei

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const datasetDailySummaries = "daily-summaries"

// Original accessor defaults for the daily-summaries window.
const (
	defaultDailyStart = "2024-04-21"
	defaultDailyEnd   = "2025-04-21"
)

// Widening search parameters: the half-width starts at half a degree, grows
// geometrically, and the number of remote calls is capped regardless of how
// sparse stations are.
const (
	initialAreaWidth = 0.5
	areaGrowthFactor = 1.5
	maxWidenAttempts = 10
)

// Boundary queries are restricted to stations with any record activity in
// the last 100 days, within a single bounded result page.
const (
	recencyWindowDays = 100
	boundaryPageLimit = 1000
)

// StationFilter restricts a closest-station search to stations recording a
// data type, optionally over a requested period.
type StationFilter struct {
	DataType  string
	StartDate string
	EndDate   string
}

// AccessorConfig holds configuration for the high-level accessor.
type AccessorConfig struct {
	// Client is the low-level NCEI client. If nil, a default client is
	// created with the accessor's logger.
	Client *Client

	// Logger for accessor operations.
	Logger zerolog.Logger

	// References is the static data-type/dataset metadata, for callers
	// that want to resolve descriptions through the accessor. Optional.
	References *References

	// VerifyNearest enables one extra boundary query after a candidate is
	// found, over a box guaranteed to contain the circle of radius equal
	// to that candidate's distance. Trades one remote call for an exact
	// nearest-neighbor guarantee. Off by default.
	VerifyNearest bool

	// Now overrides the clock used for the recency filter. For tests.
	Now func() time.Time
}

// Accessor is the high-level interface to the NCEI Access service: daily
// data queries and station discovery. Stateless across invocations.
type Accessor struct {
	client        *Client
	logger        zerolog.Logger
	refs          *References
	verifyNearest bool
	now           func() time.Time
}

// NewAccessor creates a new accessor.
func NewAccessor(cfg AccessorConfig) *Accessor {
	client := cfg.Client
	if client == nil {
		client = NewClient(ClientConfig{Logger: cfg.Logger})
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Accessor{
		client:        client,
		logger:        cfg.Logger,
		refs:          cfg.References,
		verifyNearest: cfg.VerifyNearest,
		now:           now,
	}
}

// Client returns the underlying low-level client.
func (a *Accessor) Client() *Client { return a.client }

// References returns the static reference tables, which may be nil.
func (a *Accessor) References() *References { return a.refs }

// GetDaily fetches daily-summaries records for the given data types and
// stations over the requested window. Empty bounds fall back to the
// defaults.
func (a *Accessor) GetDaily(ctx context.Context, dataTypes, stations []string, start, end string) ([]map[string]any, error) {
	if start == "" {
		start = defaultDailyStart
	}
	if end == "" {
		end = defaultDailyEnd
	}

	params := url.Values{}
	params.Set("dataset", datasetDailySummaries)
	for _, dt := range dataTypes {
		params.Add("dataTypes", dt)
	}
	for _, st := range stations {
		params.Add("stations", st)
	}
	params.Set("startDate", start)
	params.Set("endDate", end)

	res, err := a.client.Get(ctx, EndpointData, params)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// GetDailyFor is the single-value convenience form of GetDaily. It is
// exactly equivalent to calling GetDaily with one-element slices.
func (a *Accessor) GetDailyFor(ctx context.Context, dataType, station, start, end string) ([]map[string]any, error) {
	return a.GetDaily(ctx, []string{dataType}, []string{station}, start, end)
}

// GetDailyHiLow fetches daily high and low temperatures for one station.
func (a *Accessor) GetDailyHiLow(ctx context.Context, station, start, end string) ([]map[string]any, error) {
	return a.GetDaily(ctx, []string{"TMAX", "TMIN"}, []string{station}, start, end)
}

// StationsInBoundary returns all stations inside the bounding box that have
// reported anything in the last 100 days. The returned order is whatever
// the service produced; the slice may be empty.
func (a *Accessor) StationsInBoundary(ctx context.Context, north, west, south, east float64) ([]*Station, error) {
	recently := a.now().AddDate(0, 0, -recencyWindowDays).Format("2006-01-02")

	params := url.Values{}
	params.Set("dataset", datasetDailySummaries)
	params.Set("startDate", recently)
	params.Set("bbox", formatBBox(north, west, south, east))
	params.Set("limit", strconv.Itoa(boundaryPageLimit))

	res, err := a.client.Get(ctx, EndpointSearch, params)
	if err != nil {
		return nil, err
	}

	stations := make([]*Station, 0, len(res.Data))
	for _, hit := range res.Data {
		st, ok := a.stationFromHit(hit)
		if !ok {
			a.logger.Debug().Msg("skipping search hit without station or location")
			continue
		}
		stations = append(stations, st)
	}
	return stations, nil
}

// FindClosestStation finds the single closest station to the coordinates,
// optionally restricted by a data-type filter. The service offers only
// bounding-box search, so the box is widened geometrically until it yields
// a candidate; once any box is non-empty its closest station is returned
// immediately. Exhausting the attempt cap fails with ErrNoStationFound.
// Adapter errors abort the search and propagate unmodified.
func (a *Accessor) FindClosestStation(ctx context.Context, lat, lon float64, filter *StationFilter) (*Station, error) {
	if filter != nil {
		if _, err := validateOptionalDate("filter start date", filter.StartDate); err != nil {
			return nil, err
		}
		if _, err := validateOptionalDate("filter end date", filter.EndDate); err != nil {
			return nil, err
		}
	}

	width := initialAreaWidth
	for attempt := 1; attempt <= maxWidenAttempts; attempt++ {
		a.logger.Debug().
			Int("attempt", attempt).
			Float64("area_width", width).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("searching for closest station")

		stations, err := a.StationsInBoundary(ctx, lat+width, lon-width, lat-width, lon+width)
		if err != nil {
			return nil, err
		}

		stations, err = filterStations(stations, filter)
		if err != nil {
			return nil, err
		}

		a.logger.Debug().
			Int("candidates", len(stations)).
			Float64("area_width", width).
			Msg("boundary query complete")

		if len(stations) == 0 {
			width *= areaGrowthFactor
			continue
		}

		sortByDistance(stations, lat, lon)

		if a.verifyNearest {
			return a.verifyClosest(ctx, lat, lon, filter, stations[0])
		}
		return stations[0], nil
	}

	a.logger.Error().
		Float64("lat", lat).
		Float64("lon", lon).
		Int("attempts", maxWidenAttempts).
		Msg("no qualifying station found after widening attempts")
	return nil, fmt.Errorf("near (%g, %g): %w", lat, lon, ErrNoStationFound)
}

// FindStation looks a station up by its exact id.
func (a *Accessor) FindStation(ctx context.Context, stationID string) (*Station, error) {
	params := url.Values{}
	params.Set("dataset", datasetDailySummaries)
	params.Set("stations", stationID)
	params.Set("limit", "1")

	res, err := a.client.Get(ctx, EndpointSearch, params)
	if err != nil {
		return nil, err
	}

	if len(res.Data) > 0 {
		if st, ok := a.stationFromHit(res.Data[0]); ok {
			return st, nil
		}
	}

	a.logger.Error().Str("station_id", stationID).Msg("no station found with id")
	return nil, fmt.Errorf("station %q: %w", stationID, ErrStationNotFound)
}

// verifyClosest issues one extra boundary query over a box that fully
// contains the circle of radius equal to the candidate's distance, keeping
// only stations within that circle. This closes the gap where a station
// just outside the first non-empty box is closer than anything inside it.
func (a *Accessor) verifyClosest(ctx context.Context, lat, lon float64, filter *StationFilter, candidate *Station) (*Station, error) {
	radius := candidate.DistanceTo(lat, lon)
	if radius == 0 {
		return candidate, nil
	}

	latHalf := radius / kmPerDegreeLat()
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lonHalf := latHalf / cosLat

	a.logger.Debug().
		Float64("radius_km", radius).
		Str("station_id", candidate.ID).
		Msg("verifying nearest candidate")

	stations, err := a.StationsInBoundary(ctx, lat+latHalf, lon-lonHalf, lat-latHalf, lon+lonHalf)
	if err != nil {
		return nil, err
	}
	stations, err = filterStations(stations, filter)
	if err != nil {
		return nil, err
	}

	within := stations[:0]
	for _, st := range stations {
		if st.DistanceTo(lat, lon) <= radius {
			within = append(within, st)
		}
	}
	if len(within) == 0 {
		// The verification box always contains the candidate's own box, so
		// an empty result means the service answered inconsistently; keep
		// the candidate already in hand.
		return candidate, nil
	}

	sortByDistance(within, lat, lon)
	return within[0], nil
}

func (a *Accessor) stationFromHit(hit map[string]any) (*Station, bool) {
	subs, _ := hit["stations"].([]any)
	if len(subs) == 0 {
		return nil, false
	}
	sub, _ := subs[0].(map[string]any)
	if sub == nil {
		return nil, false
	}

	loc, _ := hit["location"].(map[string]any)
	coords, _ := loc["coordinates"].([]any)
	if len(coords) < 2 {
		return nil, false
	}
	// Location coordinates arrive in [lon, lat] order.
	lon, okLon := toFloat(coords[0])
	lat, okLat := toFloat(coords[1])
	if !okLon || !okLat {
		return nil, false
	}

	st := &Station{
		Name:  asString(sub["name"]),
		ID:    asString(sub["id"]),
		Lat:   lat,
		Lon:   lon,
		daily: a,
	}

	if raw, ok := sub["dataTypes"].([]any); ok {
		st.DataTypes = make([]DataTypePeriod, 0, len(raw))
		for _, rt := range raw {
			m, ok := rt.(map[string]any)
			if !ok {
				continue
			}
			st.DataTypes = append(st.DataTypes, DataTypePeriod{
				ID:        asString(m["id"]),
				StartDate: asString(m["startDate"]),
				EndDate:   asString(m["endDate"]),
			})
		}
	}

	return st, true
}

// filterStations keeps stations that satisfy the data-type filter.
// Validation errors on a station's own recorded dates propagate rather
// than silently dropping the station.
func filterStations(stations []*Station, filter *StationFilter) ([]*Station, error) {
	if filter == nil || filter.DataType == "" {
		return stations, nil
	}
	kept := stations[:0]
	for _, st := range stations {
		ok, err := st.HasDataType(filter.DataType, filter.StartDate, filter.EndDate)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, st)
		}
	}
	return kept, nil
}

// sortByDistance sorts ascending by distance. The sort is stable, so exact
// ties keep their first-encountered order.
func sortByDistance(stations []*Station, lat, lon float64) {
	type ranked struct {
		station  *Station
		distance float64
	}
	rs := make([]ranked, len(stations))
	for i, st := range stations {
		rs[i] = ranked{station: st, distance: st.DistanceTo(lat, lon)}
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].distance < rs[j].distance })
	for i := range rs {
		stations[i] = rs[i].station
	}
}

func formatBBox(north, west, south, east float64) string {
	return fmt.Sprintf("%s,%s,%s,%s",
		strconv.FormatFloat(north, 'f', -1, 64),
		strconv.FormatFloat(west, 'f', -1, 64),
		strconv.FormatFloat(south, 'f', -1, 64),
		strconv.FormatFloat(east, 'f', -1, 64))
}

func kmPerDegreeLat() float64 {
	return earthRadiusKm * math.Pi / 180
}

func validateOptionalDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return parseDate(field, value)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
