// Package ingest parses sensor log CSVs into raw tables.
//
// The logger writes up to three files per run, one per sampling rate,
// with exact upper-case names. A power-cycle mid-run makes the logger
// re-emit the header row and restart its clock at zero; ingestion
// splices those segments back into one continuous axis by carrying the
// last pre-restart timestamp forward as an offset.
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/mizzou-racing/monolith/internal/errors"
	"github.com/mizzou-racing/monolith/internal/frame"
)

// Source names and their nominal sampling rates. The names are matched
// case-sensitively against directory entries; a lower-case variant is
// not a log file.
var sources = []struct {
	Name string
	Rate float64
}{
	{"1HZLOG.CSV", 1},
	{"10HZLOG.CSV", 10},
	{"100HZLOG.CSV", 100},
}

// DatasetFile is the persisted-dataset name checked by HasDataset.
const DatasetFile = "MONOLITH.CSV"

// ProgressFunc reports parsing progress: the source path and the number
// of data rows read so far. Called from the goroutine doing the parse.
type ProgressFunc func(source string, rows int)

// progressEvery is the row interval between progress callbacks, and
// doubles as the context-cancellation check interval.
const progressEvery = 4096

// Directory parses the three rate logs in dir, in parallel. All three
// must be present under their exact names. All-or-nothing: any file
// failing fails the whole ingest.
func Directory(ctx context.Context, dir string, progress ProgressFunc) ([]*frame.RawTable, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read log directory")
	}
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			present[e.Name()] = true
		}
	}

	for _, s := range sources {
		if !present[s.Name] {
			return nil, errors.NewNotFound("log file", filepath.Join(dir, s.Name))
		}
	}

	tables := make([]*frame.RawTable, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, s := range sources {
		i, s := i, s
		g.Go(func() error {
			t, err := File(ctx, filepath.Join(dir, s.Name), s.Rate, progress)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// HasDataset reports whether dir contains a persisted unified dataset,
// matched case-sensitively like the log files.
func HasDataset(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && e.Name() == DatasetFile {
			return true
		}
	}
	return false
}

// File parses a single log CSV at the given nominal rate (zero when
// unknown). Restart segments are spliced onto a continuous time axis.
func File(ctx context.Context, path string, rate float64, progress ProgressFunc) (*frame.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("log file", path)
		}
		return nil, errors.Wrap(err, "open log file")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = false

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.NewFormat(path, "empty file")
	}
	if err != nil {
		return nil, errors.NewFormat(path, err.Error())
	}

	var rows [][]string
	var restarts []int
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewFormat(path, err.Error())
		}

		if isHeaderRepeat(record, header) {
			restarts = append(restarts, len(rows))
			continue
		}
		rows = append(rows, record)

		if len(rows)%progressEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(errors.ErrCancelled, path)
			}
			if progress != nil {
				progress(path, len(rows))
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCancelled, path)
	}
	if progress != nil {
		progress(path, len(rows))
	}

	t, err := frame.NewRawTable(path, rate, header, rows)
	if err != nil {
		return nil, err
	}
	spliceRestarts(t.Time, restarts)
	return t, nil
}

// isHeaderRepeat reports whether a data record is the header row emitted
// again after a logger power cycle.
func isHeaderRepeat(record, header []string) bool {
	if len(record) != len(header) {
		return false
	}
	for i := range record {
		if record[i] != header[i] {
			return false
		}
	}
	return true
}

// spliceRestarts shifts each post-restart segment so its clock continues
// from the last timestamp before the restart. Offsets accumulate across
// multiple restarts because each shift sees the already-adjusted axis.
func spliceRestarts(time []float64, restarts []int) {
	for _, at := range restarts {
		if at == 0 || at >= len(time) {
			continue
		}
		offset := time[at-1]
		for i := at; i < len(time); i++ {
			time[i] += offset
		}
	}
}
