package station

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/timgluz/tidevann/geo"
	"github.com/timgluz/tidevann/xmltree"
)

var (
	ErrMissingCode = fmt.Errorf("station code is missing")
	ErrMissingName = fmt.Errorf("station name is missing")
)

type Station struct {
	ID        string  `json:"id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Type      string  `json:"type,omitempty"`
	URL       string  `json:"url,omitempty"` // endpoint the station was listed by
}

// New validates the coordinates and derives the station ID from its name.
func New(code, name string, latitude, longitude float64, stationType, url string) (Station, error) {
	if code == "" {
		return Station{}, ErrMissingCode
	}
	if name == "" {
		return Station{}, fmt.Errorf("%w for code %s", ErrMissingName, code)
	}

	location := geo.Point{Latitude: latitude, Longitude: longitude}
	if err := location.Validate(); err != nil {
		return Station{}, fmt.Errorf("station %s: %w", code, err)
	}

	return Station{
		ID:        NewStationID(name),
		Code:      code,
		Name:      name,
		Latitude:  latitude,
		Longitude: longitude,
		Type:      stationType,
		URL:       url,
	}, nil
}

// FromValue maps a converted <location> entry. Fields may come either as
// attributes or as child elements.
func FromValue(v xmltree.Value, url string) (Station, error) {
	latitude, err := parseCoordinate(v.Field("latitude"))
	if err != nil {
		return Station{}, fmt.Errorf("invalid latitude for station %q: %w", v.Field("code"), err)
	}

	longitude, err := parseCoordinate(v.Field("longitude"))
	if err != nil {
		return Station{}, fmt.Errorf("invalid longitude for station %q: %w", v.Field("code"), err)
	}

	return New(v.Field("code"), v.Field("name"), latitude, longitude, v.Field("type"), url)
}

func NewStationID(name string) string {
	return slug.Make(name)
}

func (s Station) Location() geo.Point {
	return geo.Point{Latitude: s.Latitude, Longitude: s.Longitude}
}

func (s Station) DistanceTo(latitude, longitude float64) float64 {
	return geo.Haversine(latitude, longitude, s.Latitude, s.Longitude)
}

func (s Station) String() string {
	return fmt.Sprintf("%s:%s (%f, %f)", s.Code, s.Name, s.Latitude, s.Longitude)
}

func parseCoordinate(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(raw, 64)
}
