package tideapi

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/araddon/dateparse"
)

// ServiceTimezone is the civil timezone the tide API assumes for every
// timestamp it receives.
const ServiceTimezone = "Europe/Oslo"

const requestTimeLayout = "2006-01-02T15:04:05-07:00"

var serviceLocation = mustLoadLocation(ServiceTimezone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("failed to load timezone %s: %v", name, err))
	}
	return loc
}

func ServiceLocation() *time.Location {
	return serviceLocation
}

// Localize converts t into the service timezone.
func Localize(t time.Time) time.Time {
	return t.In(serviceLocation)
}

// ParseTime parses a timestamp in almost any common layout. Timestamps
// without zone information are taken to be service local time; zoned ones
// are converted.
func ParseTime(raw string) (time.Time, error) {
	return ParseTimeIn(raw, serviceLocation)
}

// ParseTimeIn is ParseTime with a different zone for zone-less input. The
// result is always in the service timezone.
func ParseTimeIn(raw string, loc *time.Location, opts ...dateparse.ParserOption) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("timestamp cannot be empty")
	}

	t, err := dateparse.ParseIn(raw, loc, opts...)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", raw, err)
	}
	return Localize(t), nil
}

// StripZone keeps the wall clock of t and drops its zone, storing it as UTC.
func StripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func formatRequestTime(t time.Time) string {
	return Localize(t).Truncate(time.Second).Format(requestTimeLayout)
}
