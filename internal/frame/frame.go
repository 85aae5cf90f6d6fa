// Package frame holds the columnar containers for sensor log data.
//
// A RawTable is the parsed contents of one log file at one sampling rate.
// A UnifiedTable is the merge result: every column resampled onto a single
// reference time axis. The unified table owns its data exclusively;
// accessors copy out so no caller can alias the stored values.
package frame

import (
	"strconv"
	"strings"

	"github.com/mizzou-racing/monolith/internal/errors"
)

// TimeColumn is the required name of the time column in every source.
const TimeColumn = "Time"

// Sample is a single (time, value) pair for one logical column.
type Sample struct {
	Time  float64
	Value float64
}

// Column is one logical data stream.
type Column struct {
	// Name uniquely identifies the column within its table.
	Name string

	// SourceRate is the sampling rate in Hz of the file this column was
	// ingested from. Zero when unknown (single-file mode, loaded sets).
	SourceRate float64

	// Values holds one sample per row of the owning table's time axis.
	Values []float64
}

// RawTable is the parsed contents of one log file: the time column plus
// every other column at that file's native rate, all of equal length.
type RawTable struct {
	// Source is the file the table was parsed from, for diagnostics.
	Source string

	// Rate is the nominal sampling rate in Hz, zero if unknown.
	Rate float64

	// Time is the native time axis.
	Time []float64

	// Columns are the non-time columns, in header order.
	Columns []Column
}

// NewRawTable builds a RawTable from a header and string cell rows.
// It fails with a format error if the time column is missing or any row
// length disagrees with the header, and with a parse error naming the
// offending cell on non-numeric data. No implicit coercion is performed.
func NewRawTable(source string, rate float64, header []string, rows [][]string) (*RawTable, error) {
	timeIdx := -1
	for i, name := range header {
		if name == TimeColumn {
			timeIdx = i
			break
		}
	}
	if timeIdx < 0 {
		return nil, errors.NewFormat(source, "missing required column "+TimeColumn)
	}

	seen := make(map[string]bool, len(header))
	for _, name := range header {
		if seen[name] {
			return nil, errors.NewDuplicateColumn(name, source)
		}
		seen[name] = true
	}

	t := &RawTable{
		Source: source,
		Rate:   rate,
		Time:   make([]float64, 0, len(rows)),
	}
	for i, name := range header {
		if i == timeIdx {
			continue
		}
		t.Columns = append(t.Columns, Column{
			Name:       name,
			SourceRate: rate,
			Values:     make([]float64, 0, len(rows)),
		})
	}

	for rowIdx, row := range rows {
		if len(row) != len(header) {
			return nil, errors.NewFormat(source,
				"row "+strconv.Itoa(rowIdx)+" has "+strconv.Itoa(len(row))+
					" cells, header has "+strconv.Itoa(len(header)))
		}

		col := 0
		for cellIdx, cell := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, errors.NewParse(source, rowIdx, header[cellIdx], cell)
			}
			if cellIdx == timeIdx {
				t.Time = append(t.Time, v)
				continue
			}
			t.Columns[col].Values = append(t.Columns[col].Values, v)
			col++
		}
	}

	return t, nil
}

// Len returns the number of rows.
func (t *RawTable) Len() int { return len(t.Time) }

// Column returns the named non-time column.
func (t *RawTable) Column(name string) (*Column, error) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], nil
		}
	}
	return nil, errors.NewNotFound("column", name)
}

// CheckMonotonic verifies the time axis never decreases.
func (t *RawTable) CheckMonotonic() error {
	for i := 1; i < len(t.Time); i++ {
		if t.Time[i] < t.Time[i-1] {
			return errors.NewUnsortedTime(t.Source, i)
		}
	}
	return nil
}

// UnifiedTable is the merge of all sources onto one reference time axis.
// Every column has exactly len(Time) values. The zero value is not
// usable; construct with NewUnifiedTable.
type UnifiedTable struct {
	time  []float64
	cols  []Column
	index map[string]int
}

// NewUnifiedTable creates a unified table owning a copy of the given
// reference time axis.
func NewUnifiedTable(time []float64) *UnifiedTable {
	t := make([]float64, len(time))
	copy(t, time)
	return &UnifiedTable{
		time:  t,
		index: make(map[string]int),
	}
}

// Len returns the number of rows (reference timestamps).
func (u *UnifiedTable) Len() int { return len(u.time) }

// AddColumn installs a column, taking ownership of its values slice.
// The column must match the reference axis length and its name must be
// unused.
func (u *UnifiedTable) AddColumn(c Column) error {
	if c.Name == TimeColumn {
		return errors.NewDuplicateColumn(c.Name, "unified table")
	}
	if _, ok := u.index[c.Name]; ok {
		return errors.NewDuplicateColumn(c.Name, "unified table")
	}
	if len(c.Values) != len(u.time) {
		return errors.NewFormat("", "column "+c.Name+" length "+
			strconv.Itoa(len(c.Values))+" != reference length "+strconv.Itoa(len(u.time)))
	}
	u.index[c.Name] = len(u.cols)
	u.cols = append(u.cols, c)
	return nil
}

// Names returns all column names, time first, then insertion order.
func (u *UnifiedTable) Names() []string {
	names := make([]string, 0, len(u.cols)+1)
	names = append(names, TimeColumn)
	for i := range u.cols {
		names = append(names, u.cols[i].Name)
	}
	return names
}

// Has reports whether the named column exists (time included).
func (u *UnifiedTable) Has(name string) bool {
	if name == TimeColumn {
		return true
	}
	_, ok := u.index[name]
	return ok
}

// Time returns a copy of the reference time axis.
func (u *UnifiedTable) Time() []float64 {
	out := make([]float64, len(u.time))
	copy(out, u.time)
	return out
}

// Values returns a copy of the named column's values. The time column
// may be requested by name like any other.
func (u *UnifiedTable) Values(name string) ([]float64, error) {
	if name == TimeColumn {
		return u.Time(), nil
	}
	i, ok := u.index[name]
	if !ok {
		return nil, errors.NewNotFound("column", name)
	}
	out := make([]float64, len(u.cols[i].Values))
	copy(out, u.cols[i].Values)
	return out, nil
}

// SourceRate returns the sampling rate the named column was ingested at.
func (u *UnifiedTable) SourceRate(name string) (float64, error) {
	i, ok := u.index[name]
	if !ok {
		return 0, errors.NewNotFound("column", name)
	}
	return u.cols[i].SourceRate, nil
}

// Row returns one row's values in Names() order, time first.
// Used by the persistence codec; the returned slice is freshly allocated.
func (u *UnifiedTable) Row(i int) []float64 {
	row := make([]float64, 0, len(u.cols)+1)
	row = append(row, u.time[i])
	for c := range u.cols {
		row = append(row, u.cols[c].Values[i])
	}
	return row
}
