// Command ncei queries the NOAA NCEI Access service: daily observation
// data, station lookup, and nearest-station search.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nceiaccess/nceiaccess/pkg/ncei"
)

// Version is set at compile time via ldflags.
var Version = "dev"

type app struct {
	configPath string
	baseURL    string
	timeout    time.Duration
	debug      bool
	jsonOut    bool
	verify     bool

	logger   zerolog.Logger
	accessor *ncei.Accessor
}

func main() {
	a := &app{}

	root := &cobra.Command{
		Use:           "ncei",
		Short:         "Query the NOAA NCEI Access weather archive",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to TOML config file")
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "service base URL")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "per-request timeout")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print raw JSON instead of tables")

	root.AddCommand(
		newClosestCmd(a),
		newStationCmd(a),
		newSearchCmd(a),
		newDailyCmd(a),
		newHiLowCmd(a),
		newElevationCmd(a),
		newDataTypesCmd(a),
		newDatasetsCmd(a),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// init assembles the accessor from config file, flags, and the bundled
// reference tables. A reference-table failure is fatal here, not per-call.
func (a *app) init(cmd *cobra.Command) error {
	path := a.configPath
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return err
	}

	if a.baseURL == "" {
		a.baseURL = cfg.BaseURL
	}
	if a.timeout == 0 {
		a.timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cmd.Flags().Changed("verify") {
		cfg.VerifyNearest = a.verify
	}

	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		level = parsed
	}
	if a.debug {
		level = zerolog.DebugLevel
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Logger().
		Level(level)

	refs, err := ncei.LoadReferences()
	if err != nil {
		a.logger.Fatal().Err(err).Msg("failed to load bundled reference data")
	}

	a.accessor = ncei.NewAccessor(ncei.AccessorConfig{
		Client: ncei.NewClient(ncei.ClientConfig{
			BaseURL: a.baseURL,
			Timeout: a.timeout,
			Logger:  a.logger,
		}),
		Logger:        a.logger,
		References:    refs,
		VerifyNearest: cfg.VerifyNearest,
	})
	return nil
}
