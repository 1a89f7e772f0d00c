package measurement

import (
	"strings"
	"time"

	"github.com/gosimple/slug"
)

const UnitCM = "cm"

type Measurement struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Unit        string `json:"unit"`
}

func NewMeasurementName(keys ...string) string {
	return slug.Make(strings.Join(keys, "-"))
}

// Sample is a single water level value in cm above the reference level.
type Sample struct {
	Time    time.Time `json:"time"`
	Value   float64   `json:"value"`
	Kind    string    `json:"kind"`           // series type, e.g. "observation" or "prediction"
	Flag    string    `json:"flag,omitempty"` // per-value flag, e.g. "obs", "high", "low"
	RefCode string    `json:"refcode,omitempty"`
}

type Timeseries struct {
	Name    string    `json:"name"`
	Samples []Sample  `json:"samples"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`

	Measurement *Measurement `json:"measurement,omitempty"`
}

// Latest assumes samples are ordered by time.
func (ts *Timeseries) Latest() (Sample, bool) {
	if ts == nil || len(ts.Samples) == 0 {
		return Sample{}, false
	}
	return ts.Samples[len(ts.Samples)-1], true
}
