package measurement

import "context"

type Repository interface {
	GetTimeseries(ctx context.Context, measurementName string, period Period) (*Timeseries, error)
	AddTimeseries(ctx context.Context, timeseries *Timeseries) error

	AddMeasurement(ctx context.Context, measurement *Measurement) error
	// TODO: add pagination once archives hold more than a handful of stations
	GetMeasurements(ctx context.Context) ([]Measurement, error)

	IsReady() bool
	Close() error
}
