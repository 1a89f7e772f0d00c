// depth-correct adjusts depth measurements in a spreadsheet for the water
// level at the time and place they were taken.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/timgluz/tidevann/config"
	"github.com/timgluz/tidevann/log"
	"github.com/timgluz/tidevann/task"
	"github.com/timgluz/tidevann/tideapi"
)

type options struct {
	configPath string
	tsColumn   string
	timeZone   string
	dateColumn string
	timeColumn string
	lonColumn  string
	latColumn  string
	depthCol   string
	sheet      int
	startRow   int
	endRow     int
	invert     bool
	debug      bool
	logFile    string
	fallbackKm float64
	delay      string
}

func main() {
	opts := options{}
	flag.StringVar(&opts.configPath, "config", "", "Path to TOML config file")
	flag.StringVar(&opts.tsColumn, "ts-col", "", "Column with the timestamp")
	flag.StringVar(&opts.timeZone, "time-zone", "", "Time zone of the time columns (default from config, Europe/Oslo)")
	flag.StringVar(&opts.dateColumn, "date", "", "Column with the sample date, used with -time when there is no timestamp column")
	flag.StringVar(&opts.timeColumn, "time", "", "Column with the sample time, used with -date when there is no timestamp column")
	flag.StringVar(&opts.lonColumn, "longitude", "", "Column with longitude (default Longitude)")
	flag.StringVar(&opts.latColumn, "latitude", "", "Column with latitude (default Latitude)")
	flag.StringVar(&opts.depthCol, "depth", "", "Column with the measured depth (default Dyp)")
	flag.IntVar(&opts.sheet, "sheet-number", 0, "Sheet number in an Excel file")
	flag.IntVar(&opts.startRow, "start-row", 0, "Process from row number")
	flag.IntVar(&opts.endRow, "end-row", 0, "Process up to row number, default all rows")
	flag.BoolVar(&opts.invert, "invert-depth", false, "Invert depths given as negative values")
	flag.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flag.StringVar(&opts.logFile, "log-file", "", "Path to log file (default stderr)")
	flag.Float64Var(&opts.fallbackKm, "fallback-km", -1, "Use the closest station within this distance when a position has no data")
	flag.StringVar(&opts.delay, "delay", "", "ISO 8601 delay between requests (default PT0.1S)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: depth-correct [flags] infile outfile\n\nInput and output may be .csv or .xlsx files.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(opts, flag.Arg(0), flag.Arg(1)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, inPath, outPath string) error {
	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	var logOutput io.Writer = os.Stderr
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOutput = f
	}
	logger := log.New(logOutput, cfg.Logging.Format, cfg.Logging.Level)
	logger.Info("Script started")

	timeout, err := cfg.APITimeout()
	if err != nil {
		return err
	}
	delay, err := cfg.CorrectionDelay()
	if err != nil {
		return err
	}
	location, err := time.LoadLocation(cfg.Correction.TimeZone)
	if err != nil {
		return err
	}
	datatype, err := tideapi.ParseDatatype(cfg.Correction.Datatype)
	if err != nil {
		return err
	}

	client := tideapi.NewClient(cfg.API.Endpoint, &http.Client{Timeout: timeout}, logger)

	correctorOpts := task.NewDefaultDepthCorrectorOptions()
	correctorOpts.Delay = delay
	correctorOpts.RefCode = cfg.Correction.RefCode
	correctorOpts.Datatype = datatype
	correctorOpts.Language = cfg.API.Language
	correctorOpts.FallbackDistanceKm = cfg.Correction.FallbackDistanceKm
	corrector := task.NewDepthCorrector(client, correctorOpts, logger)

	jobOpts := task.NewDefaultDepthJobOptions()
	jobOpts.TimestampColumn = opts.tsColumn
	jobOpts.DateColumn = opts.dateColumn
	jobOpts.TimeColumn = opts.timeColumn
	jobOpts.LatitudeColumn = cfg.Correction.LatitudeColumn
	jobOpts.LongitudeColumn = cfg.Correction.LongitudeColumn
	jobOpts.DepthColumn = cfg.Correction.DepthColumn
	jobOpts.TimeZone = location
	jobOpts.SheetIndex = opts.sheet
	jobOpts.StartRow = opts.startRow
	jobOpts.EndRow = opts.endRow
	jobOpts.InvertDepth = opts.invert

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, err := task.NewDepthJob(corrector, jobOpts, logger).Run(ctx, inPath, outPath)
	if err != nil {
		return err
	}

	logger.Info("Script finished", "run_id", summary.RunID, "corrected", summary.Corrected, "failed", summary.Failed)
	return nil
}

// applyFlags lets explicitly set flags win over the config file.
func applyFlags(cfg *config.Config, opts options) {
	if opts.debug {
		cfg.Logging.Level = "debug"
	}
	if opts.logFile != "" {
		cfg.Logging.File = opts.logFile
	}
	if opts.timeZone != "" {
		cfg.Correction.TimeZone = opts.timeZone
	}
	if opts.latColumn != "" {
		cfg.Correction.LatitudeColumn = opts.latColumn
	}
	if opts.lonColumn != "" {
		cfg.Correction.LongitudeColumn = opts.lonColumn
	}
	if opts.depthCol != "" {
		cfg.Correction.DepthColumn = opts.depthCol
	}
	if opts.fallbackKm >= 0 {
		cfg.Correction.FallbackDistanceKm = opts.fallbackKm
	}
	if opts.delay != "" {
		cfg.Correction.Delay = opts.delay
	}
}
