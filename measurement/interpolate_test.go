package measurement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return baseTime.Add(time.Duration(minutes) * time.Minute)
}

func TestInterpolate(t *testing.T) {
	testCases := []struct {
		name     string
		samples  []Sample
		target   time.Time
		expected float64
		kind     string
	}{
		{
			name:     "midpoint",
			samples:  []Sample{{Time: at(0), Value: 10, Kind: "observation"}, {Time: at(60), Value: 20, Kind: "observation"}},
			target:   at(30),
			expected: 15,
			kind:     "observation",
		},
		{
			name: "picks two nearest of many",
			samples: []Sample{
				{Time: at(0), Value: 0}, {Time: at(10), Value: 100},
				{Time: at(20), Value: 110}, {Time: at(30), Value: 500},
			},
			target:   at(14),
			expected: 104,
		},
		{
			name:     "exact hit",
			samples:  []Sample{{Time: at(0), Value: 10}, {Time: at(10), Value: 40}, {Time: at(20), Value: 90}},
			target:   at(10),
			expected: 40,
		},
		{
			name:     "extrapolates past last sample",
			samples:  []Sample{{Time: at(0), Value: 10}, {Time: at(10), Value: 20}},
			target:   at(15),
			expected: 25,
		},
		{
			name:     "duplicate timestamps use first",
			samples:  []Sample{{Time: at(0), Value: 7, Kind: "prediction"}, {Time: at(0), Value: 9, Kind: "observation"}},
			target:   at(5),
			expected: 7,
			kind:     "prediction",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			value, first, err := Interpolate(tc.samples, tc.target)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, value, 1e-9)
			assert.Equal(t, tc.kind, first.Kind)
		})
	}
}

func TestInterpolate_InsufficientSamples(t *testing.T) {
	_, _, err := Interpolate(nil, at(0))
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	_, _, err = Interpolate([]Sample{{Time: at(0), Value: 1}}, at(0))
	assert.ErrorIs(t, err, ErrInsufficientSamples)
}

func TestNearest_StableOnTies(t *testing.T) {
	samples := []Sample{
		{Time: at(20), Value: 3},
		{Time: at(0), Value: 1},
		{Time: at(10), Value: 2},
	}

	nearest := Nearest(samples, at(10), 3)
	require.Len(t, nearest, 3)
	assert.Equal(t, 2.0, nearest[0].Value)
	// 00:00 and 00:20 are both 10 minutes away, input order decides
	assert.Equal(t, 3.0, nearest[1].Value)
	assert.Equal(t, 1.0, nearest[2].Value)

	assert.Equal(t, at(20), samples[0].Time, "input must not be reordered")
}

func TestRoundCentimeters(t *testing.T) {
	assert.Equal(t, 15.0, RoundCentimeters(15.0))
	assert.Equal(t, 67.0, RoundCentimeters(66.6))
	assert.Equal(t, 66.0, RoundCentimeters(66.5))
	assert.Equal(t, 68.0, RoundCentimeters(67.5))
	assert.Equal(t, -2.0, RoundCentimeters(-2.5))
}

func TestPeriod(t *testing.T) {
	p, err := NewFromISO8601Duration("P1D", at(0))
	require.NoError(t, err)
	assert.Equal(t, at(-24*60), p.Start)
	assert.True(t, p.IsValid())
	assert.NotEmpty(t, p.String())

	window := Around(at(0), 3*time.Hour)
	assert.Equal(t, 6*time.Hour, window.End.Sub(window.Start))

	_, err = ParseISO8601Duration("three hours")
	assert.Error(t, err)
}
