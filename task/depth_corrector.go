package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/timgluz/tidevann/tideapi"
)

// DefaultCorrectionDelay keeps the request rate low enough that upstream
// does not block us.
const DefaultCorrectionDelay = 100 * time.Millisecond

type WaterLevelProvider interface {
	GetWaterLevel(ctx context.Context, q tideapi.PointQuery) (*tideapi.WaterLevelData, error)
}

// DepthRow is one depth measurement taken at a position and time. Depth is
// in meters.
type DepthRow struct {
	Index     int
	Time      time.Time
	Latitude  float64
	Longitude float64
	Depth     float64
}

// CorrectionResult carries the water level used for a row and the depth
// reduced by it. Level and CorrectedDepth are nil when the row failed.
type CorrectionResult struct {
	Row            DepthRow
	Level          *tideapi.WaterLevelData
	CorrectedDepth *float64
	Err            error
}

func (r CorrectionResult) OK() bool {
	return r.Err == nil && r.Level != nil
}

type DepthCorrectorOptions struct {
	Delay              time.Duration
	RefCode            string
	Datatype           tideapi.Datatype
	Language           string
	FallbackDistanceKm float64
}

func NewDefaultDepthCorrectorOptions() DepthCorrectorOptions {
	return DepthCorrectorOptions{
		Delay:    DefaultCorrectionDelay,
		RefCode:  tideapi.DefaultRefCode,
		Datatype: tideapi.DefaultDatatype,
		Language: tideapi.DefaultLanguage,
	}
}

type DepthCorrector struct {
	provider WaterLevelProvider
	opts     DepthCorrectorOptions

	logger *slog.Logger
}

func NewDepthCorrector(provider WaterLevelProvider, opts DepthCorrectorOptions, logger *slog.Logger) *DepthCorrector {
	return &DepthCorrector{provider: provider, opts: opts, logger: logger}
}

// Correct processes rows one at a time, waiting the configured delay before
// each request. A failing row is logged and left uncorrected. Cancelling ctx
// stops processing and returns the results gathered so far with the
// context error.
func (c *DepthCorrector) Correct(ctx context.Context, rows []DepthRow) ([]CorrectionResult, error) {
	results := make([]CorrectionResult, 0, len(rows))

	for _, row := range rows {
		if err := sleep(ctx, c.opts.Delay); err != nil {
			return results, err
		}

		results = append(results, c.correctRow(ctx, row))
	}

	return results, nil
}

func (c *DepthCorrector) correctRow(ctx context.Context, row DepthRow) CorrectionResult {
	level, err := c.provider.GetWaterLevel(ctx, tideapi.PointQuery{
		Time:               row.Time,
		Latitude:           row.Latitude,
		Longitude:          row.Longitude,
		RefCode:            c.opts.RefCode,
		Datatype:           c.opts.Datatype,
		Language:           c.opts.Language,
		FallbackDistanceKm: c.opts.FallbackDistanceKm,
	})
	if err != nil {
		c.logger.Warn("Insufficient data for row",
			"row", row.Index,
			"latitude", row.Latitude,
			"longitude", row.Longitude,
			"time", row.Time,
			"error", err)
		return CorrectionResult{Row: row, Err: err}
	}

	corrected := CorrectDepth(row.Depth, level.Value)
	c.logger.Debug("Corrected depth",
		"row", row.Index,
		"latitude", row.Latitude,
		"longitude", row.Longitude,
		"time", row.Time,
		"level", level.Value,
		"corrected", corrected)

	return CorrectionResult{Row: row, Level: level, CorrectedDepth: &corrected}
}

// CorrectDepth reduces a depth in meters by a water level in cm.
func CorrectDepth(depth, levelCm float64) float64 {
	return depth - levelCm/100
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
