package tideapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timgluz/tidevann/geo"
	"github.com/timgluz/tidevann/measurement"
	"github.com/timgluz/tidevann/station"
)

const (
	pointWindow   = 3 * time.Hour
	pointInterval = 10
)

// PointQuery asks for the water level at one instant and position. With a
// positive FallbackDistanceKm the nearest station within that distance is
// used when the position itself yields no data.
type PointQuery struct {
	Time               time.Time
	Latitude           float64
	Longitude          float64
	RefCode            string
	Datatype           Datatype
	Language           string
	FallbackDistanceKm float64
}

// GetWaterLevel interpolates the water level at q.Time between the two
// samples nearest in time, rounded to whole cm.
//
// Upstream returns samples every 10 minutes; abusive clients get blocked
// for a while.
func (c *Client) GetWaterLevel(ctx context.Context, q PointQuery) (*WaterLevelData, error) {
	at := Localize(q.Time)
	window := measurement.Around(at, pointWindow)

	query := Query{
		Start:    window.Start,
		End:      window.End,
		Location: &geo.Point{Latitude: q.Latitude, Longitude: q.Longitude},
		Datatype: q.Datatype,
		RefCode:  q.RefCode,
		Interval: pointInterval,
		Language: q.Language,
	}
	query = query.withDefaults(c.now())

	var fallback *station.Station
	var fallbackDistance float64

	table, err := c.WaterLevelTable(ctx, query)
	if err != nil {
		var tideErr *Error
		if !errors.As(err, &tideErr) || q.FallbackDistanceKm <= 0 {
			return nil, err
		}

		closest, distance, findErr := c.FindClosestStation(ctx, q.Latitude, q.Longitude)
		if findErr != nil {
			return nil, findErr
		}
		if closest == nil || distance > q.FallbackDistanceKm {
			return nil, newError(KindFallbackExceeded, fmt.Sprintf("no station within %g km", q.FallbackDistanceKm), "", err)
		}

		query.Station = closest
		table, err = c.WaterLevelTable(ctx, query)
		if err != nil {
			return nil, err
		}
		c.logger.Info("Using fallback station",
			"station", closest.Name,
			"latitude", q.Latitude,
			"longitude", q.Longitude,
			"distance_km", fmt.Sprintf("%.1f", distance))

		fallback = closest
		fallbackDistance = distance
	}

	value, nearest, err := measurement.Interpolate(table.Samples(), at)
	if err != nil {
		return nil, newError(KindInsufficientData, "cannot interpolate water level", "", err)
	}

	c.logger.Debug("Interpolated water level", "time", at, "value", value, "kind", nearest.Kind)
	return &WaterLevelData{
		Value:             measurement.RoundCentimeters(value),
		Kind:              nearest.Kind,
		RefCode:           query.RefCode,
		Time:              at,
		Station:           fallback,
		StationDistanceKm: fallbackDistance,
	}, nil
}
