package measurement

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var ErrInsufficientSamples = errors.New("at least two samples are needed to interpolate")

// Nearest returns up to n samples ordered by absolute time distance to t.
// Samples at equal distance keep their input order.
func Nearest(samples []Sample, t time.Time, n int) []Sample {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)

	sort.SliceStable(sorted, func(i, j int) bool {
		return absDuration(sorted[i].Time.Sub(t)) < absDuration(sorted[j].Time.Sub(t))
	})

	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// Interpolate estimates the value at t from the two samples nearest in
// time, extrapolating when both lie on the same side of t. The first of
// the two nearest samples is returned alongside the raw estimate.
func Interpolate(samples []Sample, t time.Time) (float64, Sample, error) {
	if len(samples) < 2 {
		return 0, Sample{}, fmt.Errorf("%w: got %d", ErrInsufficientSamples, len(samples))
	}

	nearest := Nearest(samples, t, 2)
	first, second := nearest[0], nearest[1]

	span := second.Time.Sub(first.Time)
	if span == 0 {
		return first.Value, first, nil
	}

	offset := t.Sub(first.Time)
	value := first.Value + offset.Seconds()*(second.Value-first.Value)/span.Seconds()
	return value, first, nil
}

// RoundCentimeters rounds to whole centimeters, ties to even.
func RoundCentimeters(value float64) float64 {
	return math.RoundToEven(value)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
