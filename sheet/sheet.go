package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// OutputSheetName is the sheet written to xlsx output files.
const OutputSheetName = "Tidevann dybdekorreksjon"

// MinColumns is the least number of columns a usable input has.
const MinColumns = 4

const (
	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
	clockLayout     = "15:04:05"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, use .csv or .xlsx")
	ErrTooFewColumns     = fmt.Errorf("input needs at least %d columns", MinColumns)
	ErrNoRows            = errors.New("input has no header row")
)

// Format remembers how a CSV file was written so output can match it.
type Format struct {
	Separator    rune
	DecimalComma bool
}

var (
	DefaultFormat   = Format{Separator: ',', DecimalComma: false}
	NorwegianFormat = Format{Separator: ';', DecimalComma: true}
)

type Table struct {
	Header []string
	Rows   [][]string
	Format Format
}

// Column returns the index of the named column.
func (t *Table) Column(name string) (int, bool) {
	for i, h := range t.Header {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

// Cell returns the cell of row at column idx, or "" for short rows.
func (t *Table) Cell(row, idx int) string {
	if row < 0 || row >= len(t.Rows) || idx < 0 || idx >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][idx])
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Read loads a .csv or .xlsx file. sheetIndex selects the xlsx sheet and is
// ignored for CSV.
func Read(path string, sheetIndex int) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(path, sheetIndex)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ReadCSV reads comma separated input. When that yields fewer than
// MinColumns columns the input is read again as semicolon separated with
// decimal commas.
func ReadCSV(r io.Reader) (*Table, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	records, err := parseCSV(content, DefaultFormat.Separator)
	format := DefaultFormat
	if err != nil || len(records) == 0 || len(records[0]) < MinColumns {
		records, err = parseCSV(content, NorwegianFormat.Separator)
		format = NorwegianFormat
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	return newTable(records, format)
}

func parseCSV(content []byte, separator rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, []byte("\ufeff"))))
	reader.Comma = separator
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

// ReadXLSX reads the stored cell values of one sheet. Numbers come back at
// full precision and date or time serials as ISO text, whatever number
// format the cell is displayed with.
func ReadXLSX(path string, sheetIndex int) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if sheetIndex < 0 || sheetIndex >= len(sheets) {
		return nil, fmt.Errorf("sheet %d does not exist in %s (%d sheets)", sheetIndex, path, len(sheets))
	}
	name := sheets[sheetIndex]

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}

	cells := newCellReader(f, name)
	for r, row := range rows {
		for c, value := range row {
			if rows[r][c], err = cells.text(r, c, value); err != nil {
				return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
			}
		}
	}

	return newTable(rows, DefaultFormat)
}

type cellKind int

const (
	numberCell cellKind = iota
	dateCell
	clockCell
	dateTimeCell
)

// cellReader turns raw xlsx values into text, using the number format of
// each numeric cell to recognise date and time serials.
type cellReader struct {
	file     *excelize.File
	sheet    string
	date1904 bool
	kinds    map[int]cellKind
}

func newCellReader(f *excelize.File, sheet string) *cellReader {
	r := &cellReader{file: f, sheet: sheet, kinds: make(map[int]cellKind)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}
	return r
}

func (r *cellReader) text(row, col int, value string) (string, error) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return value, nil
	}

	kind, err := r.kind(row, col)
	if err != nil {
		return "", err
	}
	if kind == numberCell {
		// stored doubles may carry 17 digits, e.g. 59.535032999999999
		if strings.ContainsAny(value, ".eE") {
			return strconv.FormatFloat(serial, 'f', -1, 64), nil
		}
		return value, nil
	}

	if kind == clockCell {
		_, frac := math.Modf(serial)
		clock := time.Duration(math.Round(frac*86400)) * time.Second
		return time.Time{}.Add(clock).Format(clockLayout), nil
	}

	t, err := excelize.ExcelDateToTime(serial, r.date1904)
	if err != nil {
		return "", fmt.Errorf("invalid date serial %s: %w", value, err)
	}
	t = t.Round(time.Second)
	if kind == dateCell {
		return t.Format(dateLayout), nil
	}
	return t.Format(timestampLayout), nil
}

func (r *cellReader) kind(row, col int) (cellKind, error) {
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return numberCell, err
	}
	styleID, err := r.file.GetCellStyle(r.sheet, cell)
	if err != nil {
		return numberCell, err
	}

	if kind, ok := r.kinds[styleID]; ok {
		return kind, nil
	}
	style, err := r.file.GetStyle(styleID)
	if err != nil {
		return numberCell, err
	}
	kind := numFmtKind(style)
	r.kinds[styleID] = kind
	return kind, nil
}

func numFmtKind(style *excelize.Style) cellKind {
	if style == nil {
		return numberCell
	}
	if style.CustomNumFmt != nil {
		return customNumFmtKind(*style.CustomNumFmt)
	}

	switch id := style.NumFmt; {
	case id == 22:
		return dateTimeCell
	case id >= 18 && id <= 21, id >= 32 && id <= 35, id >= 45 && id <= 47:
		return clockCell
	case id >= 14 && id <= 17, id >= 27 && id <= 31, id == 36, id >= 50 && id <= 58:
		return dateCell
	}
	return numberCell
}

// customNumFmtKind looks for date and time tokens outside of quoted text,
// escapes and bracketed colors. A lone "m" is a month unless the format
// also shows hours or seconds.
func customNumFmtKind(format string) cellKind {
	var b strings.Builder
	quoted, bracket := false, false
	for i := 0; i < len(format); i++ {
		ch := format[i]
		switch {
		case quoted:
			quoted = ch != '"'
		case bracket:
			bracket = ch != ']'
		case ch == '"':
			quoted = true
		case ch == '[':
			bracket = true
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		default:
			b.WriteByte(ch)
		}
	}

	tokens := strings.ToLower(b.String())
	hasClock := strings.ContainsAny(tokens, "hs")
	hasDate := strings.ContainsAny(tokens, "yd") || (strings.Contains(tokens, "m") && !hasClock)
	switch {
	case hasDate && hasClock:
		return dateTimeCell
	case hasDate:
		return dateCell
	case hasClock:
		return clockCell
	}
	return numberCell
}

func newTable(records [][]string, format Format) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrNoRows
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.TrimSpace(name)
	}
	if len(header) < MinColumns {
		return nil, fmt.Errorf("%w, got %d", ErrTooFewColumns, len(header))
	}

	var rows [][]string
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		rows = append(rows, record)
	}

	return &Table{Header: header, Rows: rows, Format: format}, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Write stores rows as .csv or .xlsx. Cells may be nil, string, float64 or
// time.Time. CSV output uses format, xlsx output ignores it.
func Write(path string, header []string, rows [][]any, format Format) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := WriteCSV(f, header, rows, format); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	case ".xlsx":
		return WriteXLSX(path, header, rows)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func WriteCSV(w io.Writer, header []string, rows [][]any, format Format) error {
	writer := csv.NewWriter(w)
	writer.Comma = format.Separator

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, 0, len(header))
	for _, row := range rows {
		record = record[:0]
		for _, cell := range row {
			record = append(record, formatCell(cell, format))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func WriteXLSX(path string, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), OutputSheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerCells := make([]any, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(OutputSheetName, "A1", &headerCells); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cells := make([]any, len(row))
		for j, cell := range row {
			if t, ok := cell.(time.Time); ok {
				cell = t.Format(timestampLayout)
			}
			cells[j] = cell
		}

		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(OutputSheetName, cellName, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func formatCell(cell any, format Format) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return FormatFloat(v, format.DecimalComma)
	case time.Time:
		return v.Format(timestampLayout)
	default:
		return fmt.Sprint(v)
	}
}

// AsFloat parses a number written with either a decimal point or a
// decimal comma.
func AsFloat(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v, nil
	}

	v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	return v, nil
}

func FormatFloat(v float64, decimalComma bool) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if decimalComma {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}
