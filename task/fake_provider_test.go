package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/timgluz/tidevann/tideapi"
)

var errNoCoverage = errors.New("no coverage")

// fakeLevels answers every point query with a fixed level, except at
// latitude 0 where it fails.
type fakeLevels struct {
	mu      sync.Mutex
	level   float64
	queries []tideapi.PointQuery
}

func (f *fakeLevels) GetWaterLevel(_ context.Context, q tideapi.PointQuery) (*tideapi.WaterLevelData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queries = append(f.queries, q)
	if q.Latitude == 0 {
		return nil, errNoCoverage
	}
	return &tideapi.WaterLevelData{
		Value:   f.level,
		Kind:    "observation",
		RefCode: q.RefCode,
		Time:    q.Time,
	}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
