// tidevann queries the Kartverket tide API from the command line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/timgluz/tidevann/config"
	"github.com/timgluz/tidevann/log"
	"github.com/timgluz/tidevann/tideapi"
)

const usage = `Usage: tidevann [-config FILE] [-debug] <command> [flags]

Commands:
  stations   list stations, optionally filtered with -q
  station    show the station matching NAME
  levels     show statistical levels of the station matching NAME
  languages  list languages supported by the API
  reflevels  list reference levels at -lat/-lon
  series     fetch a water level series
  point      interpolate the water level at one time and position
  collect    archive a station series into the SQLite database
`

type command func(ctx context.Context, app *cliApp, args []string) error

var commands = map[string]command{
	"stations":  runStations,
	"station":   runStation,
	"levels":    runLevels,
	"languages": runLanguages,
	"reflevels": runRefLevels,
	"series":    runSeries,
	"point":     runPoint,
	"collect":   runCollect,
}

type cliApp struct {
	cfg    *config.Config
	client *tideapi.Client
	logger *slog.Logger
}

func main() {
	configPath := flag.String("config", "", "Path to TOML config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	run, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}

	app, err := newCLIApp(*configPath, *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, app, flag.Args()[1:]); err != nil {
		app.logger.Error("Command failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func newCLIApp(configPath string, debug bool) (*cliApp, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if debug {
		cfg.Logging.Level = "debug"
	}

	logger := log.New(os.Stderr, cfg.Logging.Format, cfg.Logging.Level)

	timeout, err := cfg.APITimeout()
	if err != nil {
		return nil, err
	}

	client := tideapi.NewClient(cfg.API.Endpoint, &http.Client{Timeout: timeout}, logger)
	if !client.IsReady() {
		return nil, fmt.Errorf("tide client is not ready")
	}

	return &cliApp{cfg: cfg, client: client, logger: logger}, nil
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// parseTimeFlag returns the zero time for an empty value.
func parseTimeFlag(name, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}

	t, err := tideapi.ParseTime(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -%s: %w", name, err)
	}
	return t, nil
}
