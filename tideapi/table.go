package tideapi

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/timgluz/tidevann/measurement"
	"github.com/timgluz/tidevann/xmltree"
)

// Row is one waterlevel entry. Fields holds every column as text, keyed by
// normalized column name.
type Row struct {
	Time   time.Time
	Value  float64
	Kind   string
	Flag   string
	Fields map[string]string
}

// Table is the flattened form of a locationdata branch. For single series
// Index holds the zone-stripped wall clock of each row and the raw
// timestamp column is renamed to time_orig. Combined series have no index.
type Table struct {
	Datatype Datatype
	RefCode  string
	Columns  []string
	Index    []time.Time
	Rows     []Row
}

// NewTable flattens data, the converted tide/locationdata branch.
func NewTable(data xmltree.Value, datatype Datatype, refCode string) (*Table, error) {
	series, ok := data.Get("data")
	if !ok {
		if nodata, ok := data.Get("nodata"); ok {
			return nil, newError(KindNoData, "no data", nodata.Attr("info"), nil)
		}
		return nil, newError(KindMalformedResponse, "no tabular data returned from tide API", "", nil)
	}

	table := &Table{Datatype: datatype, RefCode: refCode}
	columns := newColumnSet()

	for _, ds := range series.Items() {
		kind := ds.Attr("type")
		levels, _ := ds.Get("waterlevel")
		for _, level := range levels.Items() {
			row, err := newRow(level, kind, columns, datatype.IsCombined())
			if err != nil {
				return nil, err
			}
			table.Rows = append(table.Rows, row)
			if !datatype.IsCombined() {
				table.Index = append(table.Index, StripZone(row.Time))
			}
		}
	}

	columns.add("type")
	table.Columns = columns.names
	return table, nil
}

func newRow(level xmltree.Value, kind string, columns *columnSet, combined bool) (Row, error) {
	row := Row{Kind: kind, Fields: make(map[string]string)}

	for _, key := range level.Map().Keys() {
		value, _ := level.Get(key)
		text, _ := value.Text()

		name := normalizeColumn(key)
		if name == "time" && !combined {
			name = "time_orig"
		}
		if name == "type" {
			continue
		}
		columns.add(name)
		row.Fields[name] = text
	}
	row.Fields["type"] = kind
	row.Flag = level.Field("flag")

	rawValue := strings.TrimSpace(level.Field("value"))
	value, err := strconv.ParseFloat(rawValue, 64)
	if err != nil {
		return Row{}, newError(KindMalformedResponse, fmt.Sprintf("invalid value %q", rawValue), "", err)
	}
	row.Value = value

	rawTime := level.Field("time")
	t, err := ParseTime(rawTime)
	if err != nil {
		return Row{}, newError(KindMalformedResponse, "invalid time", "", err)
	}
	row.Time = t

	return row, nil
}

// Samples returns the rows as samples. Sample times are absolute instants.
func (t *Table) Samples() []measurement.Sample {
	samples := make([]measurement.Sample, 0, len(t.Rows))
	for _, row := range t.Rows {
		samples = append(samples, measurement.Sample{
			Time:    row.Time,
			Value:   row.Value,
			Kind:    row.Kind,
			Flag:    row.Flag,
			RefCode: t.RefCode,
		})
	}
	return samples
}

func (t *Table) Len() int {
	return len(t.Rows)
}

func normalizeColumn(name string) string {
	if name != "" && strings.ContainsRune("@|#", rune(name[0])) {
		name = name[1:]
	}
	return strings.ToLower(name)
}

type columnSet struct {
	names []string
	seen  map[string]bool
}

func newColumnSet() *columnSet {
	return &columnSet{seen: make(map[string]bool)}
}

func (s *columnSet) add(name string) {
	if s.seen[name] {
		return
	}
	s.seen[name] = true
	s.names = append(s.names, name)
}
