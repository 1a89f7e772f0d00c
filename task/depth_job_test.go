package task

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/timgluz/tidevann/sheet"
	"github.com/timgluz/tidevann/tideapi"
)

func newTestJob(provider *fakeLevels, opts DepthJobOptions) *DepthJob {
	correctorOpts := NewDefaultDepthCorrectorOptions()
	correctorOpts.Delay = 0
	return NewDepthJob(NewDepthCorrector(provider, correctorOpts, discardLogger()), opts, discardLogger())
}

func TestDepthJob_DateAndTimeColumns(t *testing.T) {
	provider := &fakeLevels{level: 50}
	opts := NewDefaultDepthJobOptions()
	opts.DateColumn = "Date"
	opts.TimeColumn = "Time"

	out := filepath.Join(t.TempDir(), "corrected.csv")
	summary, err := newTestJob(provider, opts).Run(context.Background(), filepath.Join("testdata", "survey.csv"), out)
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 4, summary.Rows)
	assert.Equal(t, 2, summary.Corrected)
	assert.Equal(t, 2, summary.Failed)

	// the row with an unreadable date never reaches the API
	require.Len(t, provider.queries, 3)
	assert.True(t, provider.queries[0].Time.Equal(time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC)))

	table, err := sheet.Read(out, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Date", "Time", "Latitude", "Longitude", "Dyp",
		"timestamp", "corr_Dyp", "correction", "correction_type", "refcode",
	}, table.Header)
	require.Equal(t, 4, table.Len())

	assert.Equal(t, []string{
		"01.05.2024", "12:05", "59.9", "10.7", "12.5",
		"2024-05-01 12:05:00", "12", "50", "observation", "CD",
	}, table.Rows[0])

	// failed rows keep their input and get empty correction cells
	assert.Equal(t, "2024-05-01 12:15:00", table.Cell(1, 5))
	assert.Equal(t, "", table.Cell(1, 6))
	assert.Equal(t, "not a date", table.Cell(2, 0))
	assert.Equal(t, "", table.Cell(2, 5))

	assert.Equal(t, "2024-05-02 08:00:00", table.Cell(3, 5))
}

func TestDepthJob_NorwegianCSVWithTimestampColumn(t *testing.T) {
	provider := &fakeLevels{level: 50}
	opts := NewDefaultDepthJobOptions()
	opts.TimestampColumn = "Tid"
	opts.InvertDepth = true

	out := filepath.Join(t.TempDir(), "corrected.csv")
	summary, err := newTestJob(provider, opts).Run(context.Background(), filepath.Join("testdata", "survey_nb.csv"), out)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Corrected)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t,
		"Tid;Latitude;Longitude;Dyp;Merknad;timestamp;corr_Dyp;correction;correction_type;refcode\n"+
			"2024-05-01 12:05;59,9;10,7;12,5;brygge;2024-05-01 12:05:00;12;50;observation;CD\n",
		string(content))
}

// writeSurveyXLSX stores a survey row the way spreadsheet programs do: the
// date and time as serials behind date formats, coordinates shown with two
// decimals.
func writeSurveyXLSX(t *testing.T, path string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	name := f.GetSheetName(0)

	newStyle := func(numFmt int) int {
		id, err := f.NewStyle(&excelize.Style{NumFmt: numFmt})
		require.NoError(t, err)
		return id
	}

	require.NoError(t, f.SetSheetRow(name, "A1", &[]any{"Date", "Time", "Latitude", "Longitude", "Dyp"}))
	require.NoError(t, f.SetCellValue(name, "A2", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellStyle(name, "A2", "A2", newStyle(14)))
	require.NoError(t, f.SetCellFloat(name, "B2", 0.4375, -1, 64))
	require.NoError(t, f.SetCellStyle(name, "B2", "B2", newStyle(20)))
	require.NoError(t, f.SetCellFloat(name, "C2", 59.535033, -1, 64))
	require.NoError(t, f.SetCellFloat(name, "D2", 10.554628, -1, 64))
	require.NoError(t, f.SetCellStyle(name, "C2", "D2", newStyle(2)))
	require.NoError(t, f.SetCellFloat(name, "E2", 12.5, -1, 64))
	require.NoError(t, f.SaveAs(path))
}

func TestDepthJob_XLSXInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "survey.xlsx")
	writeSurveyXLSX(t, in)

	provider := &fakeLevels{level: 50}
	opts := NewDefaultDepthJobOptions()
	opts.DateColumn = "Date"
	opts.TimeColumn = "Time"

	out := filepath.Join(dir, "corrected.csv")
	summary, err := newTestJob(provider, opts).Run(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Corrected)

	require.Len(t, provider.queries, 1)
	query := provider.queries[0]
	assert.True(t, query.Time.Equal(time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)), "got %s", query.Time)
	assert.Equal(t, 59.535033, query.Latitude)
	assert.Equal(t, 10.554628, query.Longitude)

	table, err := sheet.Read(out, 0)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, []string{
		"2024-05-01", "10:30:00", "59.535033", "10.554628", "12.5",
		"2024-05-01 10:30:00", "12", "50", "observation", "CD",
	}, table.Rows[0])
}

// cancellingLevels cancels the run once the first level was answered.
type cancellingLevels struct {
	*fakeLevels
	cancel context.CancelFunc
}

func (c *cancellingLevels) GetWaterLevel(ctx context.Context, q tideapi.PointQuery) (*tideapi.WaterLevelData, error) {
	defer c.cancel()
	return c.fakeLevels.GetWaterLevel(ctx, q)
}

func TestDepthJob_InterruptedRunKeepsCorrectedRows(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inner := &fakeLevels{level: 50}
	opts := NewDefaultDepthJobOptions()
	opts.DateColumn = "Date"
	opts.TimeColumn = "Time"

	correctorOpts := NewDefaultDepthCorrectorOptions()
	correctorOpts.Delay = 0
	corrector := NewDepthCorrector(&cancellingLevels{fakeLevels: inner, cancel: cancel}, correctorOpts, discardLogger())
	job := NewDepthJob(corrector, opts, discardLogger())

	out := filepath.Join(t.TempDir(), "corrected.csv")
	summary, err := job.Run(ctx, filepath.Join("testdata", "survey.csv"), out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	require.NotNil(t, summary)
	assert.Equal(t, 4, summary.Rows)
	assert.Equal(t, 1, summary.Corrected)
	assert.Equal(t, 3, summary.Failed)
	assert.Len(t, inner.queries, 1)

	table, err := sheet.Read(out, 0)
	require.NoError(t, err)
	require.Equal(t, 4, table.Len())
	assert.Equal(t, "12", table.Cell(0, 6))
	assert.Equal(t, "", table.Cell(1, 6))
	assert.Equal(t, "", table.Cell(3, 6))
}

func TestDepthJob_RowRange(t *testing.T) {
	provider := &fakeLevels{level: 50}
	opts := NewDefaultDepthJobOptions()
	opts.DateColumn = "Date"
	opts.TimeColumn = "Time"
	opts.StartRow = 1
	opts.EndRow = 2

	out := filepath.Join(t.TempDir(), "corrected.xlsx")
	summary, err := newTestJob(provider, opts).Run(context.Background(), filepath.Join("testdata", "survey.csv"), out)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rows)
	assert.Equal(t, 1, summary.Failed)

	table, err := sheet.Read(out, 0)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "12:15", table.Cell(0, 1))
}

func TestDepthJob_AbortsBeforeProcessing(t *testing.T) {
	tests := []struct {
		name    string
		opts    func(*DepthJobOptions)
		input   string
		wantErr error
	}{
		{
			name:    "no timestamp columns",
			opts:    func(*DepthJobOptions) {},
			input:   "survey.csv",
			wantErr: ErrMissingTimestamp,
		},
		{
			name: "missing depth column",
			opts: func(o *DepthJobOptions) {
				o.TimestampColumn = "Date"
				o.DepthColumn = "Depth"
			},
			input:   "survey.csv",
			wantErr: ErrMissingColumn,
		},
		{
			name: "unreadable input",
			opts: func(o *DepthJobOptions) {
				o.TimestampColumn = "Date"
			},
			input:   "missing.csv",
			wantErr: os.ErrNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeLevels{level: 50}
			opts := NewDefaultDepthJobOptions()
			tt.opts(&opts)

			out := filepath.Join(t.TempDir(), "corrected.csv")
			_, err := newTestJob(provider, opts).Run(context.Background(), filepath.Join("testdata", tt.input), out)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, provider.queries)

			_, statErr := os.Stat(out)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestCombineDateTime(t *testing.T) {
	oslo := tideapi.ServiceLocation()

	tests := []struct {
		name  string
		date  string
		clock string
		want  time.Time
	}{
		{"day first with dots", "1.5.2024", "12:05", time.Date(2024, 5, 1, 12, 5, 0, 0, oslo)},
		{"day first with slashes", "13/05/2024", "08:00", time.Date(2024, 5, 13, 8, 0, 0, 0, oslo)},
		{"iso date", "2024-05-01", "12:05:30", time.Date(2024, 5, 1, 12, 5, 30, 0, oslo)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CombineDateTime(tt.date, tt.clock, oslo)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s", got)
		})
	}

	_, err := CombineDateTime("", "12:00", oslo)
	assert.Error(t, err)
}
