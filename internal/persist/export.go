package persist

import (
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/mizzou-racing/monolith/internal/errors"
	"github.com/mizzou-racing/monolith/internal/frame"
)

// exportRow is the long-format shape of one exported cell: one row per
// (timestamp, column) pair. Long format keeps the schema stable no
// matter which columns a dataset happens to carry, and it is what the
// query layer's SQL expects.
type exportRow struct {
	Time   float64 `parquet:"time"`
	Column string  `parquet:"column,zstd"`
	Value  float64 `parquet:"value"`
}

// ExportParquet writes the unified table as a long-format Parquet file.
func ExportParquet(path string, table *frame.UnifiedTable) error {
	if table == nil {
		return errors.ErrNoDataset
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create export directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create export file")
	}

	w := parquet.NewGenericWriter[exportRow](f, parquet.Compression(&parquet.Zstd))

	time := table.Time()
	batch := make([]exportRow, 0, 4096)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := w.Write(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for _, name := range table.Names() {
		if name == frame.TimeColumn {
			continue
		}
		values, err := table.Values(name)
		if err != nil {
			f.Close()
			return err
		}
		for i, v := range values {
			batch = append(batch, exportRow{Time: time[i], Column: name, Value: v})
			if len(batch) == cap(batch) {
				if err := flush(); err != nil {
					f.Close()
					return errors.Wrap(err, "write export rows")
				}
			}
		}
	}
	if err := flush(); err != nil {
		f.Close()
		return errors.Wrap(err, "write export rows")
	}

	if err := w.Close(); err != nil {
		f.Close()
		return errors.Wrap(err, "close export writer")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrap(err, "sync export file")
	}
	return f.Close()
}
