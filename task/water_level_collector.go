package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/timgluz/tidevann/measurement"
	"github.com/timgluz/tidevann/station"
	"github.com/timgluz/tidevann/tideapi"
)

const DefaultCollectPeriod = "P3D"

type SeriesProvider interface {
	GetStation(ctx context.Context, query string) (*station.Station, error)
	WaterLevelTable(ctx context.Context, query tideapi.Query) (*tideapi.Table, error)
}

// WaterLevelCollector archives the series of one station.
type WaterLevelCollector struct {
	measurementRepo measurement.Repository
	provider        SeriesProvider

	Datatype tideapi.Datatype
	RefCode  string
	Interval int

	logger *slog.Logger
}

func NewWaterLevelCollector(measurementRepo measurement.Repository, provider SeriesProvider, logger *slog.Logger) *WaterLevelCollector {
	return &WaterLevelCollector{
		measurementRepo: measurementRepo,
		provider:        provider,
		Datatype:        tideapi.DefaultDatatype,
		RefCode:         tideapi.DefaultRefCode,
		Interval:        10,
		logger:          logger,
	}
}

// Run fetches the series of the station matching stationName over period
// and stores it. It returns the stored series, or nil when upstream had no
// samples.
func (t *WaterLevelCollector) Run(ctx context.Context, stationName string, period measurement.Period) (*measurement.Timeseries, error) {
	if !period.IsValid() {
		return nil, measurement.ErrInvalidPeriod
	}
	t.logger.Info("Fetching water level data for station", "station", stationName, "period", period.String())

	st, err := t.provider.GetStation(ctx, stationName)
	if err != nil {
		t.logger.Error("Failed to look up station", "error", err)
		return nil, err
	}
	if st == nil {
		t.logger.Error("Station not found", "station", stationName)
		return nil, fmt.Errorf("station not found: %s", stationName)
	}

	table, err := t.provider.WaterLevelTable(ctx, tideapi.Query{
		Start:    period.Start,
		End:      period.End,
		Station:  st,
		Datatype: t.Datatype,
		RefCode:  t.RefCode,
		Interval: t.Interval,
	})
	if err != nil {
		t.logger.Error("Failed to fetch water levels", "station", st.Code, "error", err)
		return nil, err
	}
	if table.Len() == 0 {
		t.logger.Warn("No water levels found for station", "station", st.Code)
		return nil, nil
	}
	t.logger.Debug("Fetched water levels", "count", table.Len(), "station", st.Code)

	measurementName := measurement.NewMeasurementName("waterlevel", st.Code, string(t.Datatype), t.RefCode)
	timeseries := &measurement.Timeseries{
		Name:    measurementName,
		Samples: table.Samples(),
		Start:   period.Start,
		End:     period.End,
		Measurement: &measurement.Measurement{
			Name:        measurementName,
			Description: fmt.Sprintf("Water level (%s, %s) for station %s", t.Datatype, t.RefCode, st.Name),
			Unit:        measurement.UnitCM,
		},
	}

	t.logger.Debug("Adding timeseries to repository", "measurementName", measurementName)
	if err := t.measurementRepo.AddTimeseries(ctx, timeseries); err != nil {
		t.logger.Error("Failed to add timeseries to repository", "error", err)
		return nil, err
	}

	t.logger.Info("Successfully fetched and stored water level data", "station", st.Code, "samples", len(timeseries.Samples))
	return timeseries, nil
}
