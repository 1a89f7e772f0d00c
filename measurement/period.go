package measurement

import (
	"fmt"
	"time"

	"github.com/sosodev/duration"
)

var ErrInvalidPeriod = fmt.Errorf("invalid period: start must be before end")

type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (p Period) IsValid() bool {
	return p.Start.Before(p.End)
}

// String renders the period length as an ISO 8601 duration.
func (p Period) String() string {
	return duration.FromTimeDuration(p.End.Sub(p.Start)).String()
}

// Around returns the window [t-halfWidth, t+halfWidth].
func Around(t time.Time, halfWidth time.Duration) Period {
	return Period{Start: t.Add(-halfWidth), End: t.Add(halfWidth)}
}

// NewFromISO8601Duration returns the period of the given length ending at until.
func NewFromISO8601Duration(periodStr string, until time.Time) (Period, error) {
	d, err := ParseISO8601Duration(periodStr)
	if err != nil {
		return Period{}, err
	}

	return Period{Start: until.Add(-d), End: until}, nil
}

func ParseISO8601Duration(iso8601 string) (time.Duration, error) {
	d, err := duration.Parse(iso8601)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ISO 8601 duration %q: %w", iso8601, err)
	}

	td := d.ToTimeDuration()
	if td < 0 {
		return 0, fmt.Errorf("negative duration %q", iso8601)
	}
	return td, nil
}
