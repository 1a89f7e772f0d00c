package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/timgluz/tidevann/geo"
	"github.com/timgluz/tidevann/measurement"
	"github.com/timgluz/tidevann/task"
	"github.com/timgluz/tidevann/tideapi"
)

func runStations(ctx context.Context, app *cliApp, args []string) error {
	fs := flag.NewFlagSet("stations", flag.ExitOnError)
	query := fs.String("q", "", "Case-insensitive part of the station name")
	_ = fs.Parse(args)

	stations, err := app.client.FindStations(ctx, *query)
	if err != nil {
		return err
	}

	for _, st := range stations {
		fmt.Printf("%-4s %-28s %10.6f %11.6f\n", st.Code, st.Name, st.Latitude, st.Longitude)
	}
	return nil
}

func runStation(ctx context.Context, app *cliApp, args []string) error {
	fs := flag.NewFlagSet("station", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: tidevann station NAME")
	}

	st, err := app.client.GetStation(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("no station matches %q", fs.Arg(0))
	}
	return printJSON(st)
}

func runLevels(ctx context.Context, app *cliApp, args []string) error {
	fs := flag.NewFlagSet("levels", flag.ExitOnError)
	lang := fs.String("lang", app.cfg.API.Language, "Language of the response")
	refCode := fs.String("refcode", tideapi.DefaultLevelsRefCode, "Reference level")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: tidevann levels [-lang LANG] [-refcode CODE] NAME")
	}

	st, err := app.client.GetStation(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("no station matches %q", fs.Arg(0))
	}

	levels, err := app.client.StationLevels(ctx, *st, *lang, *refCode)
	if err != nil {
		return err
	}
	return printJSON(levels)
}

func runLanguages(ctx context.Context, app *cliApp, _ []string) error {
	languages, err := app.client.Languages(ctx)
	if err != nil {
		return err
	}

	for _, lang := range languages {
		fmt.Printf("%-3s %s\n", lang.Code, lang.Name)
	}
	return nil
}

func runRefLevels(ctx context.Context, app *cliApp, args []string) error {
	fs := flag.NewFlagSet("reflevels", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "Latitude")
	lon := fs.Float64("lon", 0, "Longitude")
	lang := fs.String("lang", app.cfg.API.Language, "Language of the response")
	_ = fs.Parse(args)

	levels, err := app.client.RefLevels(ctx, *lat, *lon, *lang)
	if err != nil {
		return err
	}

	for _, level := range levels {
		fmt.Printf("%-6s %-32s %s\n", level.Code, level.Name, level.Description)
	}
	return nil
}

func runSeries(ctx context.Context, app *cliApp, args []string) error {
	fs := flag.NewFlagSet("series", flag.ExitOnError)
	stationName := fs.String("station", "", "Station name, overrides -lat/-lon")
	lat := fs.Float64("lat", 0, "Latitude")
	lon := fs.Float64("lon", 0, "Longitude")
	from := fs.String("from", "", "Start time, default 24 hours ago")
	to := fs.String("to", "", "End time, default now")
	datatype := fs.String("datatype", string(tideapi.DefaultDatatype), "TAB, PRE, OBS or ALL")
	refCode := fs.String("refcode", tideapi.DefaultRefCode, "Reference level")
	interval := fs.Int("interval", tideapi.DefaultIntervalMinute, "Interval in minutes, 10 or 60")
	lang := fs.String("lang", app.cfg.API.Language, "Language of the response")
	raw := fs.Bool("raw", false, "Print the converted response instead of samples")
	_ = fs.Parse(args)

	dt, err := tideapi.ParseDatatype(*datatype)
	if err != nil {
		return err
	}

	query := tideapi.Query{
		Datatype: dt,
		RefCode:  *refCode,
		Interval: *interval,
		Language: *lang,
	}
	if query.Start, err = parseTimeFlag("from", *from); err != nil {
		return err
	}
	if query.End, err = parseTimeFlag("to", *to); err != nil {
		return err
	}

	if *stationName != "" {
		st, err := app.client.GetStation(ctx, *stationName)
		if err != nil {
			return err
		}
		if st == nil {
			return fmt.Errorf("no station matches %q", *stationName)
		}
		query.Station = st
	} else {
		query.Location = &geo.Point{Latitude: *lat, Longitude: *lon}
	}

	if *raw {
		data, err := app.client.WaterLevel(ctx, query)
		if err != nil {
			return err
		}
		return printJSON(data)
	}

	table, err := app.client.WaterLevelTable(ctx, query)
	if err != nil {
		return err
	}

	for _, sample := range table.Samples() {
		fmt.Printf("%s  %8.1f  %-14s %s\n", tideapi.Localize(sample.Time).Format(time.RFC3339), sample.Value, sample.Kind, sample.Flag)
	}
	return nil
}

func runPoint(ctx context.Context, app *cliApp, args []string) error {
	fs := flag.NewFlagSet("point", flag.ExitOnError)
	at := fs.String("time", "", "Time of the water level, default now")
	lat := fs.Float64("lat", 0, "Latitude")
	lon := fs.Float64("lon", 0, "Longitude")
	datatype := fs.String("datatype", string(tideapi.DefaultDatatype), "TAB, PRE, OBS or ALL")
	refCode := fs.String("refcode", tideapi.DefaultRefCode, "Reference level")
	fallbackKm := fs.Float64("fallback-km", app.cfg.Correction.FallbackDistanceKm, "Use the closest station within this distance when the position has no data")
	_ = fs.Parse(args)

	dt, err := tideapi.ParseDatatype(*datatype)
	if err != nil {
		return err
	}

	t, err := parseTimeFlag("time", *at)
	if err != nil {
		return err
	}
	if t.IsZero() {
		t = time.Now()
	}

	level, err := app.client.GetWaterLevel(ctx, tideapi.PointQuery{
		Time:               t,
		Latitude:           *lat,
		Longitude:          *lon,
		RefCode:            *refCode,
		Datatype:           dt,
		Language:           app.cfg.API.Language,
		FallbackDistanceKm: *fallbackKm,
	})
	if err != nil {
		return err
	}
	return printJSON(level)
}

func runCollect(ctx context.Context, app *cliApp, args []string) error {
	fs := flag.NewFlagSet("collect", flag.ExitOnError)
	stationName := fs.String("station", "", "Station name")
	period := fs.String("period", task.DefaultCollectPeriod, "ISO 8601 period ending now")
	datatype := fs.String("datatype", string(tideapi.DefaultDatatype), "TAB, PRE, OBS or ALL")
	dbPath := fs.String("db", app.cfg.Storage.SqlitePath, "Path of the SQLite archive")
	_ = fs.Parse(args)

	if *stationName == "" {
		return fmt.Errorf("-station is required")
	}

	dt, err := tideapi.ParseDatatype(*datatype)
	if err != nil {
		return err
	}

	timePeriod, err := measurement.NewFromISO8601Duration(*period, time.Now())
	if err != nil {
		return err
	}

	db, err := measurement.OpenSqliteDB(*dbPath)
	if err != nil {
		return err
	}
	repo, err := measurement.NewSqlRepository(db, app.logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	collector := task.NewWaterLevelCollector(repo, app.client, app.logger)
	collector.Datatype = dt

	series, err := collector.Run(ctx, *stationName, timePeriod)
	if err != nil {
		return err
	}
	if series == nil {
		fmt.Println("No samples returned")
		return nil
	}

	fmt.Printf("Stored %d samples as %s\n", len(series.Samples), series.Name)
	return nil
}
