package persist

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mizzou-racing/monolith/internal/errors"
	"github.com/mizzou-racing/monolith/internal/frame"
	"github.com/mizzou-racing/monolith/internal/settings"
)

// DatasetFile is the canonical name of a persisted unified dataset.
const DatasetFile = "MONOLITH.CSV"

// headerRows is the fixed count of settings rows preceding the data.
// Row order: names, units, conversion, precision, range low, range high,
// max step, start position.
const headerRows = 8

// SaveDataset writes the unified table and the per-column settings to a
// single CSV, settings block first, data rows after. Values round-trip
// exactly through the shortest float64 representation.
func SaveDataset(path string, table *frame.UnifiedTable, entries map[string]settings.Settings) error {
	if table == nil {
		return errors.ErrNoDataset
	}

	names := table.Names()
	return writeAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)

		header := make([][]string, headerRows)
		for i := range header {
			header[i] = make([]string, len(names))
		}
		for col, name := range names {
			s, ok := entries[name]
			if !ok {
				s = settings.Default()
			}
			header[0][col] = name
			header[1][col] = s.Unit
			header[2][col] = formatFloat(s.ConversionRate)
			header[3][col] = formatFloat(s.Precision)
			header[4][col] = formatFloat(s.RangeMin)
			header[5][col] = formatFloat(s.RangeMax)
			header[6][col] = formatFloat(s.MaxStep)
			header[7][col] = formatFloat(s.StartPos)
		}
		for _, row := range header {
			if err := cw.Write(row); err != nil {
				return err
			}
		}

		record := make([]string, len(names))
		for i := 0; i < table.Len(); i++ {
			row := table.Row(i)
			for c, v := range row {
				record[c] = formatFloat(v)
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}

		cw.Flush()
		return cw.Error()
	})
}

// LoadDataset reads a dataset CSV back into a unified table plus its
// settings entries. A malformed settings column falls back to factory
// defaults rather than failing the load; malformed data rows fail with a
// corrupt-file error.
func LoadDataset(path string) (*frame.UnifiedTable, map[string]settings.Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.NewNotFound("dataset", path)
		}
		return nil, nil, errors.Wrap(err, "open dataset")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, errors.NewCorrupt(path, err.Error())
	}
	if len(records) < headerRows {
		return nil, nil, errors.NewCorrupt(path, "truncated settings block")
	}

	names := records[0]
	width := len(names)
	for i := 1; i < headerRows; i++ {
		if len(records[i]) != width {
			return nil, nil, errors.NewCorrupt(path, "settings row "+strconv.Itoa(i)+" width mismatch")
		}
	}

	timeIdx := -1
	for i, name := range names {
		if name == frame.TimeColumn {
			timeIdx = i
		}
	}
	if timeIdx < 0 {
		return nil, nil, errors.NewCorrupt(path, "missing "+frame.TimeColumn+" column")
	}

	entries := make(map[string]settings.Settings, width)
	for col, name := range names {
		s := settings.Default()
		ok := true
		parse := func(cell string) float64 {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				ok = false
			}
			return v
		}
		unit := records[1][col]
		conv := parse(records[2][col])
		prec := parse(records[3][col])
		rlo := parse(records[4][col])
		rhi := parse(records[5][col])
		step := parse(records[6][col])
		start := parse(records[7][col])
		if ok {
			s = settings.Settings{
				ConversionRate: conv,
				Unit:           unit,
				Precision:      prec,
				RangeMin:       rlo,
				RangeMax:       rhi,
				MaxStep:        step,
				StartPos:       start,
			}
		}
		entries[name] = s
	}

	data := records[headerRows:]
	time := make([]float64, 0, len(data))
	cols := make([][]float64, width)
	for i := range cols {
		if i != timeIdx {
			cols[i] = make([]float64, 0, len(data))
		}
	}

	for rowIdx, record := range data {
		if len(record) != width {
			return nil, nil, errors.NewCorrupt(path, "data row "+strconv.Itoa(rowIdx)+" width mismatch")
		}
		for col, cell := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, nil, errors.NewCorrupt(path,
					"data row "+strconv.Itoa(rowIdx)+": cannot parse "+strconv.Quote(cell))
			}
			if col == timeIdx {
				time = append(time, v)
			} else {
				cols[col] = append(cols[col], v)
			}
		}
	}

	table := frame.NewUnifiedTable(time)
	for col, name := range names {
		if col == timeIdx {
			continue
		}
		if err := table.AddColumn(frame.Column{Name: name, Values: cols[col]}); err != nil {
			return nil, nil, errors.NewCorrupt(path, err.Error())
		}
	}
	return table, entries, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
