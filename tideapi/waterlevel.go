package tideapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/timgluz/tidevann/geo"
	"github.com/timgluz/tidevann/station"
	"github.com/timgluz/tidevann/xmltree"
)

const defaultWindow = 24 * time.Hour

// Query selects a time series. Station overrides Location when both are
// set. Unless both Start and End are given the last 24 hours are queried.
type Query struct {
	Start    time.Time
	End      time.Time
	Location *geo.Point
	Station  *station.Station
	Datatype Datatype
	RefCode  string
	Interval int // minutes, 10 or 60
	Language string
}

func (q Query) withDefaults(now time.Time) Query {
	if q.Start.IsZero() || q.End.IsZero() {
		q.End = now
		q.Start = now.Add(-defaultWindow)
	}
	if q.Datatype == "" {
		q.Datatype = DefaultDatatype
	}
	if q.RefCode == "" {
		q.RefCode = DefaultRefCode
	}
	if q.Interval <= 0 {
		q.Interval = DefaultIntervalMinute
	}
	if q.Language == "" {
		q.Language = DefaultLanguage
	}
	return q
}

func (q Query) location() (geo.Point, error) {
	if q.Station != nil {
		return q.Station.Location(), nil
	}
	if q.Location == nil {
		return geo.Point{}, ErrMissingLocation
	}
	if err := q.Location.Validate(); err != nil {
		return geo.Point{}, err
	}
	return *q.Location, nil
}

func (q Query) params() (url.Values, error) {
	location, err := q.location()
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("tide_request", "locationdata")
	params.Set("lat", formatCoordinate(location.Latitude))
	params.Set("lon", formatCoordinate(location.Longitude))
	params.Set("fromtime", formatRequestTime(q.Start))
	params.Set("totime", formatRequestTime(q.End))
	params.Set("refcode", q.RefCode)
	params.Set("datatype", string(q.Datatype))
	params.Set("interval", strconv.Itoa(q.Interval))
	params.Set("lang", q.Language)
	params.Set("dst", "1")
	return params, nil
}

// WaterLevel fetches a time series and returns the converted
// tide/locationdata branch.
func (c *Client) WaterLevel(ctx context.Context, query Query) (xmltree.Value, error) {
	query = query.withDefaults(c.now())

	params, err := query.params()
	if err != nil {
		return xmltree.Value{}, err
	}

	doc, err := c.provider.RetrieveDocument(ctx, c.url, params)
	if err != nil {
		return xmltree.Value{}, fmt.Errorf("failed to fetch water level: %w", err)
	}

	data, ok := doc.Lookup("tide", "locationdata")
	if !ok {
		return xmltree.Value{}, newError(KindMalformedResponse, "no locationdata in the received data", "", nil)
	}
	return data, nil
}

// WaterLevelTable fetches a time series and flattens it into a table.
func (c *Client) WaterLevelTable(ctx context.Context, query Query) (*Table, error) {
	query = query.withDefaults(c.now())

	data, err := c.WaterLevel(ctx, query)
	if err != nil {
		return nil, err
	}

	return NewTable(data, query.Datatype, query.RefCode)
}
