package tideapi

import (
	"context"
	"fmt"
	"net/url"

	"github.com/timgluz/tidevann/station"
	"github.com/timgluz/tidevann/xmltree"
)

// Stations returns the public station directory, fetching it on first use.
func (c *Client) Stations(ctx context.Context) (station.List, error) {
	if len(c.stations) > 0 {
		return c.stations, nil
	}

	stations, err := c.listStations(ctx)
	if err != nil {
		return nil, err
	}

	if len(stations) > 0 {
		c.stations = stations
	}
	return stations, nil
}

func (c *Client) listStations(ctx context.Context) (station.List, error) {
	params := url.Values{}
	params.Set("tide_request", "stationlist")
	params.Set("type", "public")

	doc, err := c.provider.RetrieveDocument(ctx, c.url, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch station list: %w", err)
	}

	locations, ok := doc.Lookup("tide", "stationinfo", "location")
	if !ok {
		return nil, newError(KindMalformedResponse, "no station list in response", "", nil)
	}

	var stations station.List
	for _, item := range locations.Items() {
		st, err := station.FromValue(item, c.url)
		if err != nil {
			c.logger.Warn("Skipping invalid station", "error", err)
			continue
		}
		stations = append(stations, st)
	}

	c.logger.Debug("Fetched station list", "count", len(stations))
	return stations, nil
}

// FindStations returns the stations whose name contains query, ignoring case.
func (c *Client) FindStations(ctx context.Context, query string) (station.List, error) {
	stations, err := c.Stations(ctx)
	if err != nil {
		return nil, err
	}
	return stations.Find(query), nil
}

// GetStation returns the only station matching query. It returns nil
// without error when nothing matches and an ambiguous station error when
// several stations do.
func (c *Client) GetStation(ctx context.Context, query string) (*station.Station, error) {
	matches, err := c.FindStations(ctx, query)
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		st := matches[0]
		return &st, nil
	default:
		return nil, newError(KindAmbiguousStation, fmt.Sprintf("more than one station matches '%s'", query), "", nil)
	}
}

// FindClosestStation returns the directory station nearest to the
// coordinates and its distance in km, or nil for an empty directory.
func (c *Client) FindClosestStation(ctx context.Context, latitude, longitude float64) (*station.Station, float64, error) {
	stations, err := c.Stations(ctx)
	if err != nil {
		return nil, 0, err
	}

	closest, distance, ok := stations.FindClosest(latitude, longitude)
	if !ok {
		return nil, 0, nil
	}
	return &closest, distance, nil
}

// StationLevels returns statistical levels for st. Empty lang and refCode
// select "nb" and "MSL".
func (c *Client) StationLevels(ctx context.Context, st station.Station, lang, refCode string) (xmltree.Value, error) {
	if lang == "" {
		lang = DefaultLanguage
	}
	if refCode == "" {
		refCode = DefaultLevelsRefCode
	}

	key := levelsKey{code: st.Code, language: lang, refCode: refCode}
	if levels, ok := c.levels[key]; ok {
		return levels, nil
	}

	endpoint := st.URL
	if endpoint == "" {
		endpoint = c.url
	}

	params := url.Values{}
	params.Set("tide_request", "stationlevels")
	params.Set("stationcode", st.Code)
	params.Set("lang", lang)
	params.Set("refcode", refCode)

	doc, err := c.provider.RetrieveDocument(ctx, endpoint, params)
	if err != nil {
		return xmltree.Value{}, fmt.Errorf("failed to fetch levels for station %s: %w", st.Code, err)
	}

	levels, ok := doc.Lookup("tide", "locationlevel")
	if !ok {
		return xmltree.Value{}, newError(KindMalformedResponse, "location level data not found in response", "", nil)
	}

	c.levels[key] = levels
	return levels, nil
}
