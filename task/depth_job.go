package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"

	"github.com/timgluz/tidevann/sheet"
	"github.com/timgluz/tidevann/tideapi"
)

var (
	ErrMissingColumn    = errors.New("column not found in input")
	ErrMissingTimestamp = errors.New("either a timestamp column or both date and time columns are needed")
)

// dates like 1.5.2024, 01-05-2024 or 1/5/24 are written day first
var dayFirstPattern = regexp.MustCompile(`^\d{1,2}[.\-/]`)

type DepthJobOptions struct {
	TimestampColumn string
	DateColumn      string
	TimeColumn      string
	LatitudeColumn  string
	LongitudeColumn string
	DepthColumn     string

	// TimeZone is the zone of input timestamps without zone information.
	TimeZone    *time.Location
	SheetIndex  int
	StartRow    int
	EndRow      int // exclusive, zero or beyond the input means all rows
	InvertDepth bool
}

func NewDefaultDepthJobOptions() DepthJobOptions {
	return DepthJobOptions{
		LatitudeColumn:  "Latitude",
		LongitudeColumn: "Longitude",
		DepthColumn:     "Dyp",
		TimeZone:        tideapi.ServiceLocation(),
	}
}

type DepthJobSummary struct {
	RunID     string `json:"run_id"`
	Rows      int    `json:"rows"`
	Corrected int    `json:"corrected"`
	Failed    int    `json:"failed"`
}

// DepthJob reads depth measurements from a spreadsheet, corrects them for
// the water level and writes them back out with the correction columns
// appended.
type DepthJob struct {
	corrector *DepthCorrector
	opts      DepthJobOptions

	logger *slog.Logger
}

func NewDepthJob(corrector *DepthCorrector, opts DepthJobOptions, logger *slog.Logger) *DepthJob {
	if opts.TimeZone == nil {
		opts.TimeZone = tideapi.ServiceLocation()
	}
	return &DepthJob{corrector: corrector, opts: opts, logger: logger}
}

func (j *DepthJob) Run(ctx context.Context, inPath, outPath string) (*DepthJobSummary, error) {
	runID := uuid.NewString()
	logger := j.logger.With("run_id", runID)
	logger.Info("Starting depth correction", "input", inPath, "output", outPath)

	table, err := sheet.Read(inPath, j.opts.SheetIndex)
	if err != nil {
		return nil, err
	}

	columns, err := j.resolveColumns(table)
	if err != nil {
		return nil, err
	}

	start, end := j.rowRange(table.Len())
	logger.Debug("Selected rows", "start", start, "end", end, "total", table.Len())

	var (
		rows      []DepthRow
		outRows   [][]any
		rowErrors = make(map[int]error)
	)
	for i := start; i < end; i++ {
		row, err := j.parseRow(table, columns, i)
		if err != nil {
			logger.Warn("Failed to read row", "row", i, "error", err)
			rowErrors[i] = err
		} else {
			rows = append(rows, row)
		}
		outRows = append(outRows, j.originalCells(table, columns, i, row, err == nil))
	}

	// an interrupted run still writes the rows corrected so far
	results, correctErr := j.corrector.Correct(ctx, rows)

	byIndex := make(map[int]CorrectionResult, len(results))
	for _, result := range results {
		byIndex[result.Row.Index] = result
	}

	summary := &DepthJobSummary{RunID: runID, Rows: end - start}
	for i := start; i < end; i++ {
		result, ok := byIndex[i]
		if ok && result.OK() {
			summary.Corrected++
		} else {
			summary.Failed++
		}
		outRows[i-start] = append(outRows[i-start], correctionCells(result, ok)...)
	}

	header := append(append([]string(nil), table.Header...),
		"timestamp",
		"corr_"+j.opts.DepthColumn,
		"correction",
		"correction_type",
		"refcode")

	if err := sheet.Write(outPath, header, outRows, table.Format); err != nil {
		return nil, err
	}

	if correctErr != nil {
		logger.Warn("Depth correction interrupted", "corrected", summary.Corrected, "rows", summary.Rows, "error", correctErr)
		return summary, fmt.Errorf("depth correction interrupted: %w", correctErr)
	}

	logger.Info("Depth correction finished", "rows", summary.Rows, "corrected", summary.Corrected, "failed", summary.Failed)
	return summary, nil
}

type jobColumns struct {
	timestamp int
	date      int
	clock     int
	latitude  int
	longitude int
	depth     int
}

func (j *DepthJob) resolveColumns(table *sheet.Table) (jobColumns, error) {
	cols := jobColumns{timestamp: -1, date: -1, clock: -1}

	lookup := func(name string) (int, error) {
		idx, ok := table.Column(name)
		if !ok {
			return -1, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		return idx, nil
	}

	var err error
	switch {
	case j.opts.TimestampColumn != "":
		if cols.timestamp, err = lookup(j.opts.TimestampColumn); err != nil {
			return cols, err
		}
	case j.opts.DateColumn != "" && j.opts.TimeColumn != "":
		if cols.date, err = lookup(j.opts.DateColumn); err != nil {
			return cols, err
		}
		if cols.clock, err = lookup(j.opts.TimeColumn); err != nil {
			return cols, err
		}
	default:
		return cols, ErrMissingTimestamp
	}

	if cols.latitude, err = lookup(j.opts.LatitudeColumn); err != nil {
		return cols, err
	}
	if cols.longitude, err = lookup(j.opts.LongitudeColumn); err != nil {
		return cols, err
	}
	if cols.depth, err = lookup(j.opts.DepthColumn); err != nil {
		return cols, err
	}
	return cols, nil
}

func (j *DepthJob) rowRange(total int) (int, int) {
	end := j.opts.EndRow
	if end <= 0 || end > total {
		end = total
	}
	start := j.opts.StartRow
	if start < 0 {
		start = 0
	}
	if start > end {
		start = end
	}
	return start, end
}

func (j *DepthJob) parseRow(table *sheet.Table, cols jobColumns, i int) (DepthRow, error) {
	timestamp, err := j.parseTimestamp(table, cols, i)
	if err != nil {
		return DepthRow{}, err
	}

	latitude, err := sheet.AsFloat(table.Cell(i, cols.latitude))
	if err != nil {
		return DepthRow{}, fmt.Errorf("latitude: %w", err)
	}
	longitude, err := sheet.AsFloat(table.Cell(i, cols.longitude))
	if err != nil {
		return DepthRow{}, fmt.Errorf("longitude: %w", err)
	}
	depth, err := sheet.AsFloat(table.Cell(i, cols.depth))
	if err != nil {
		return DepthRow{}, fmt.Errorf("depth: %w", err)
	}
	if j.opts.InvertDepth {
		depth = -depth
	}

	return DepthRow{
		Index:     i,
		Time:      timestamp,
		Latitude:  latitude,
		Longitude: longitude,
		Depth:     depth,
	}, nil
}

func (j *DepthJob) parseTimestamp(table *sheet.Table, cols jobColumns, i int) (time.Time, error) {
	if cols.timestamp >= 0 {
		return tideapi.ParseTimeIn(table.Cell(i, cols.timestamp), j.opts.TimeZone)
	}
	return CombineDateTime(table.Cell(i, cols.date), table.Cell(i, cols.clock), j.opts.TimeZone)
}

// CombineDateTime joins a date and a clock time read from separate columns.
// Dates starting with a one or two digit number followed by '.', '-' or
// '/' are read day first.
func CombineDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}

	day, err := parseDate(date, loc)
	if err != nil {
		// the date may carry a time part of its own, e.g. "01.05.2024 00:00:00"
		fields := strings.Fields(date)
		if len(fields) < 2 {
			return time.Time{}, err
		}
		if day, err = parseDate(fields[0], loc); err != nil {
			return time.Time{}, err
		}
	}

	return tideapi.ParseTimeIn(day.Format("2006-01-02")+" "+strings.TrimSpace(clock), loc)
}

func parseDate(date string, loc *time.Location) (time.Time, error) {
	if dayFirstPattern.MatchString(date) {
		normalized := strings.NewReplacer(".", "/", "-", "/").Replace(date)
		return dateparse.ParseIn(normalized, loc, dateparse.PreferMonthFirst(false))
	}
	return dateparse.ParseIn(date, loc)
}

// originalCells copies the input row, replacing coordinates and depth by
// their parsed values when the row could be read.
func (j *DepthJob) originalCells(table *sheet.Table, cols jobColumns, i int, row DepthRow, parsed bool) []any {
	cells := make([]any, len(table.Header), len(table.Header)+5)
	for c := range table.Header {
		cells[c] = table.Cell(i, c)
	}

	if parsed {
		cells[cols.latitude] = row.Latitude
		cells[cols.longitude] = row.Longitude
		cells[cols.depth] = row.Depth
		cells = append(cells, tideapi.StripZone(row.Time.In(j.opts.TimeZone)))
	} else {
		cells = append(cells, nil)
	}
	return cells
}

func correctionCells(result CorrectionResult, ok bool) []any {
	if !ok || !result.OK() {
		return []any{nil, nil, nil, nil}
	}
	return []any{*result.CorrectedDepth, result.Level.Value, result.Level.Kind, result.Level.RefCode}
}
