package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nceiaccess/nceiaccess/pkg/ncei"
)

func newClosestCmd(a *app) *cobra.Command {
	var dataType, startDate, endDate string

	cmd := &cobra.Command{
		Use:   "closest <lat> <lon>",
		Short: "Find the closest station to a coordinate",
		Long: `Find the single closest station to a coordinate via a widening
bounding-box search. With --data-type, only stations recording that data
type (optionally over --start/--end) qualify.`,
		Example: `  ncei closest 40.629583 -111.626703
  ncei closest 40.629583 -111.626703 --data-type TMAX --start 2010-01-01`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid latitude %q: %w", args[0], err)
			}
			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid longitude %q: %w", args[1], err)
			}

			var filter *ncei.StationFilter
			if dataType != "" {
				filter = &ncei.StationFilter{
					DataType:  dataType,
					StartDate: startDate,
					EndDate:   endDate,
				}
			}

			station, err := a.accessor.FindClosestStation(cmd.Context(), lat, lon, filter)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), station)
			}
			return renderStations(cmd.OutOrStdout(), []*ncei.Station{station}, lat, lon)
		},
	}

	cmd.Flags().StringVar(&dataType, "data-type", "", "restrict to stations recording this data type")
	cmd.Flags().StringVar(&startDate, "start", "", "required period-of-record start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "required period-of-record end (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&a.verify, "verify", false, "verify the candidate with one extra boundary query")
	return cmd
}

func newStationCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "station <id>",
		Short:   "Look a station up by id",
		Example: `  ncei station USS0010J52S`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			station, err := a.accessor.FindStation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), station)
			}
			return renderStationDetail(cmd.OutOrStdout(), station)
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "search <north> <west> <south> <east>",
		Short:   "List stations inside a bounding box",
		Example: `  ncei search 41 -111 40.5 -110.5`,
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			bounds := make([]float64, 4)
			for i, arg := range args {
				v, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid bound %q: %w", arg, err)
				}
				bounds[i] = v
			}

			stations, err := a.accessor.StationsInBoundary(cmd.Context(),
				bounds[0], bounds[1], bounds[2], bounds[3])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), stations)
			}
			center := struct{ lat, lon float64 }{
				lat: (bounds[0] + bounds[2]) / 2,
				lon: (bounds[1] + bounds[3]) / 2,
			}
			return renderStations(cmd.OutOrStdout(), stations, center.lat, center.lon)
		},
	}
	return cmd
}

func newDailyCmd(a *app) *cobra.Command {
	var dataTypes []string
	var startDate, endDate string

	cmd := &cobra.Command{
		Use:     "daily <station-id>",
		Short:   "Fetch daily-summaries records for a station",
		Example: `  ncei daily USS0010J52S --types TMAX,TMIN --start 2024-01-01 --end 2024-12-31`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.accessor.GetDaily(cmd.Context(),
				dataTypes, []string{args[0]}, startDate, endDate)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			return renderRecords(cmd.OutOrStdout(), records, dataTypes)
		},
	}

	cmd.Flags().StringSliceVar(&dataTypes, "types", []string{"TMAX", "TMIN"}, "data types to fetch")
	cmd.Flags().StringVar(&startDate, "start", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "window end (YYYY-MM-DD)")
	return cmd
}

func newHiLowCmd(a *app) *cobra.Command {
	var startDate, endDate string

	cmd := &cobra.Command{
		Use:     "hilow <station-id>",
		Short:   "Fetch daily high and low temperatures for a station",
		Example: `  ncei hilow USS0010J52S --start 2024-01-01`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.accessor.GetDailyHiLow(cmd.Context(), args[0], startDate, endDate)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			return renderRecords(cmd.OutOrStdout(), records, []string{"TMAX", "TMIN"})
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "window end (YYYY-MM-DD)")
	return cmd
}

func newElevationCmd(a *app) *cobra.Command {
	var startDate, endDate string

	cmd := &cobra.Command{
		Use:   "elevation <station-id>",
		Short: "Report a station's elevation",
		Long: `Report a station's elevation in meters. Without a window the most
recent record is printed as a single value; with --start or --end the full
dated series over the window is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			station, err := a.accessor.FindStation(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if startDate == "" && endDate == "" {
				elev, err := station.Elevation(cmd.Context())
				if err != nil {
					return err
				}
				if a.jsonOut {
					return writeJSON(cmd.OutOrStdout(), map[string]any{
						"station": station.ID, "elevation": elev,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %.1f m\n", station.ID, elev)
				return nil
			}

			series, err := station.ElevationSeries(cmd.Context(), startDate, endDate)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), series)
			}
			return renderElevationSeries(cmd.OutOrStdout(), station.ID, series)
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "window end (YYYY-MM-DD)")
	return cmd
}

func newDataTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "datatypes [id...]",
		Short:   "Describe the bundled daily-summaries data types",
		Example: `  ncei datatypes TMAX PRCP`,
		RunE: func(cmd *cobra.Command, args []string) error {
			refs := a.accessor.References()
			ids := args
			if len(ids) == 0 {
				ids = refs.DataTypeIDs()
			}

			types := make([]ncei.DataType, 0, len(ids))
			for _, id := range ids {
				dt, ok := refs.DataType(id)
				if !ok {
					return fmt.Errorf("unknown data type %q", id)
				}
				types = append(types, dt)
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), types)
			}
			return renderDataTypes(cmd.OutOrStdout(), types)
		},
	}
}

func newDatasetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the bundled dataset metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			refs := a.accessor.References()
			datasets := make([]ncei.Dataset, 0)
			for _, id := range refs.DatasetIDs() {
				if d, ok := refs.Dataset(id); ok {
					datasets = append(datasets, d)
				}
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), datasets)
			}
			return renderDatasets(cmd.OutOrStdout(), datasets)
		},
	}
}
