package ncei

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
)

//go:embed data/daily-summaries.json data/datasets.json
var referenceFS embed.FS

// DataType holds the bundled descriptive metadata for one observed
// variable. Optional fields are zero when the reference data omits them.
// A scale factor of 0.1 means reported values are in tenths of the unit.
type DataType struct {
	ID                      string  `json:"id"`
	Name                    string  `json:"name"`
	Units                   string  `json:"units"`
	MetricOutputUnits       string  `json:"metricOutputUnits"`
	MetricOutputPrecision   int     `json:"metricOutputPrecision"`
	StandardOutputUnits     string  `json:"standardOutputUnits"`
	StandardOutputPrecision int     `json:"standardOutputPrecision"`
	ScaleFactor             float64 `json:"scaleFactor"`
	ScaleWeight             float64 `json:"scaleWeight"`
}

// Dataset holds the bundled descriptive metadata for one dataset.
type Dataset struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	DataTypes []string `json:"dataTypes"`
}

// References is the immutable lookup structure over the bundled data-type
// and dataset metadata. Loaded once at process start and read-only for the
// process lifetime; components hold it explicitly rather than reaching for
// package globals so tests can substitute alternate data.
type References struct {
	dataTypes map[string]DataType
	datasets  map[string]Dataset
}

// LoadReferences parses the bundled reference data. An error here is a
// start-up fatal condition for callers, not a per-call one.
func LoadReferences() (*References, error) {
	daily, err := referenceFS.ReadFile("data/daily-summaries.json")
	if err != nil {
		return nil, fmt.Errorf("reading bundled daily-summaries metadata: %w", err)
	}
	datasets, err := referenceFS.ReadFile("data/datasets.json")
	if err != nil {
		return nil, fmt.Errorf("reading bundled dataset metadata: %w", err)
	}
	return ParseReferences(daily, datasets)
}

// ParseReferences builds a References from raw daily-summaries and dataset
// JSON. The daily-summaries document carries its data types under a
// "dataTypes" key; the datasets document is a plain array.
func ParseReferences(dailySummaries, datasets []byte) (*References, error) {
	var wrapper struct {
		DataTypes []DataType `json:"dataTypes"`
	}
	if err := json.Unmarshal(dailySummaries, &wrapper); err != nil {
		return nil, fmt.Errorf("parsing data-type metadata: %w", err)
	}
	if len(wrapper.DataTypes) == 0 {
		return nil, fmt.Errorf("data-type metadata is empty")
	}

	var ds []Dataset
	if err := json.Unmarshal(datasets, &ds); err != nil {
		return nil, fmt.Errorf("parsing dataset metadata: %w", err)
	}
	if len(ds) == 0 {
		return nil, fmt.Errorf("dataset metadata is empty")
	}

	refs := &References{
		dataTypes: make(map[string]DataType, len(wrapper.DataTypes)),
		datasets:  make(map[string]Dataset, len(ds)),
	}
	for _, dt := range wrapper.DataTypes {
		if dt.ID == "" {
			return nil, fmt.Errorf("data-type entry without id")
		}
		refs.dataTypes[dt.ID] = dt
	}
	for _, d := range ds {
		if d.ID == "" {
			return nil, fmt.Errorf("dataset entry without id")
		}
		refs.datasets[d.ID] = d
	}
	return refs, nil
}

// DataType looks up one data type by id.
func (r *References) DataType(id string) (DataType, bool) {
	dt, ok := r.dataTypes[id]
	return dt, ok
}

// Dataset looks up one dataset by id.
func (r *References) Dataset(id string) (Dataset, bool) {
	d, ok := r.datasets[id]
	return d, ok
}

// DataTypeIDs returns all known data-type ids in sorted order.
func (r *References) DataTypeIDs() []string {
	ids := make([]string, 0, len(r.dataTypes))
	for id := range r.dataTypes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DatasetIDs returns all known dataset ids in sorted order.
func (r *References) DatasetIDs() []string {
	ids := make([]string, 0, len(r.datasets))
	for id := range r.datasets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
