package tideapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/timgluz/tidevann/station"
)

type Datatype string

const (
	DatatypeTable       Datatype = "TAB" // tide table, high and low tide
	DatatypePrediction  Datatype = "PRE" // astronomic tide
	DatatypeObservation Datatype = "OBS" // measured water level
	DatatypeAll         Datatype = "ALL" // predictions, observations, weather effect and forecast
)

var Datatypes = []Datatype{DatatypeTable, DatatypePrediction, DatatypeObservation, DatatypeAll}

func ParseDatatype(raw string) (Datatype, error) {
	for _, dt := range Datatypes {
		if strings.EqualFold(raw, string(dt)) {
			return dt, nil
		}
	}
	return "", fmt.Errorf("unknown datatype %q (allowed: TAB, PRE, OBS, ALL)", raw)
}

func (d Datatype) IsCombined() bool {
	return d == DatatypeAll
}

const (
	DefaultDatatype       = DatatypeObservation
	DefaultRefCode        = "CD" // sea map zero
	DefaultLevelsRefCode  = "MSL"
	DefaultLanguage       = "nb"
	DefaultIntervalMinute = 60
)

type ReferenceLevel struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LanguageCode struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// WaterLevelData is a single interpolated water level in cm above the
// reference level.
type WaterLevelData struct {
	Value   float64   `json:"value"`
	Kind    string    `json:"kind"`
	RefCode string    `json:"refcode"`
	Time    time.Time `json:"time"`

	// Station is set when the value comes from a fallback station.
	Station           *station.Station `json:"station,omitempty"`
	StationDistanceKm float64          `json:"station_distance_km,omitempty"`
}
