package settings

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
)

// CONFIG.CSV is a shipped, team-wide defaults file: one row per column
// name with the full settings tuple. It is not written by this tool.
//
// Layout after the header row:
//
//	name,conv,unit,precision,range_low,range_high,max_step,start_pos

// LoadDefaults reads a CONFIG.CSV defaults file. Rows with malformed
// numbers are skipped rather than failing the load; the file is advisory.
func LoadDefaults(path string) (map[string]Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	// Header row exists for user convenience only.
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return map[string]Settings{}, nil
		}
		return nil, err
	}

	defaults := make(map[string]Settings)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < 8 {
			continue
		}

		name := strings.TrimSpace(record[0])
		if name == "" {
			continue
		}

		s := Default()
		ok := true
		s.ConversionRate = parseField(record[1], &ok)
		s.Unit = strings.TrimSpace(record[2])
		s.Precision = parseField(record[3], &ok)
		s.RangeMin = parseField(record[4], &ok)
		s.RangeMax = parseField(record[5], &ok)
		s.MaxStep = parseField(record[6], &ok)
		s.StartPos = parseField(record[7], &ok)
		if !ok {
			continue
		}
		defaults[name] = s
	}
	return defaults, nil
}

func parseField(cell string, ok *bool) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		*ok = false
		return 0
	}
	return v
}
