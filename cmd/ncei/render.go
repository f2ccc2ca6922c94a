package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/nceiaccess/nceiaccess/pkg/ncei"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	return tw
}

func renderStations(w io.Writer, stations []*ncei.Station, lat, lon float64) error {
	tw := newTable(w, []string{"ID", "NAME", "LAT", "LON", "DISTANCE KM", "DATA TYPES"})
	for _, st := range stations {
		tw.Append([]string{
			st.ID,
			st.Name,
			fmt.Sprintf("%.5f", st.Lat),
			fmt.Sprintf("%.5f", st.Lon),
			fmt.Sprintf("%.2f", st.DistanceTo(lat, lon)),
			fmt.Sprintf("%d", len(st.DataTypes)),
		})
	}
	tw.Render()
	return nil
}

func renderStationDetail(w io.Writer, st *ncei.Station) error {
	tw := newTable(w, []string{"FIELD", "VALUE"})
	tw.Append([]string{"ID", st.ID})
	tw.Append([]string{"Name", st.Name})
	tw.Append([]string{"Latitude", fmt.Sprintf("%.5f", st.Lat)})
	tw.Append([]string{"Longitude", fmt.Sprintf("%.5f", st.Lon)})
	tw.Render()

	if len(st.DataTypes) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	dtw := newTable(w, []string{"DATA TYPE", "START", "END"})
	for _, dt := range st.DataTypes {
		dtw.Append([]string{dt.ID, dt.StartDate, dt.EndDate})
	}
	dtw.Render()
	return nil
}

func renderRecords(w io.Writer, records []map[string]any, dataTypes []string) error {
	header := append([]string{"DATE", "STATION"}, dataTypes...)
	tw := newTable(w, header)
	for _, rec := range records {
		row := []string{cellValue(rec["DATE"]), cellValue(rec["STATION"])}
		for _, dt := range dataTypes {
			row = append(row, cellValue(rec[dt]))
		}
		tw.Append(row)
	}
	tw.Render()
	return nil
}

func renderElevationSeries(w io.Writer, stationID string, series []ncei.ElevationRecord) error {
	tw := newTable(w, []string{"STATION", "DATE", "ELEVATION M"})
	for _, rec := range series {
		tw.Append([]string{stationID, rec.Date, fmt.Sprintf("%.1f", rec.Elevation)})
	}
	tw.Render()
	return nil
}

func renderDataTypes(w io.Writer, types []ncei.DataType) error {
	tw := newTable(w, []string{"ID", "NAME", "UNITS", "SCALE"})
	for _, dt := range types {
		tw.Append([]string{
			dt.ID,
			dt.Name,
			dt.Units,
			fmt.Sprintf("%g", dt.ScaleFactor),
		})
	}
	tw.Render()
	return nil
}

func renderDatasets(w io.Writer, datasets []ncei.Dataset) error {
	tw := newTable(w, []string{"ID", "NAME", "DATA TYPES"})
	tw.SetColWidth(60)
	tw.SetAutoWrapText(true)
	for _, d := range datasets {
		tw.Append([]string{d.ID, d.Name, strings.Join(d.DataTypes, ", ")})
	}
	tw.Render()
	return nil
}

func cellValue(v any) string {
	if v == nil {
		return ""
	}
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return fmt.Sprintf("%g", n)
	default:
		return fmt.Sprint(n)
	}
}
