// Package persist owns the on-disk artifacts: the unified dataset CSV,
// the presets file, and the long-format Parquet export.
//
// Every write goes through the same temp-file-then-rename sequence so a
// crash mid-write never leaves a half-written artifact in place of a
// good one.
package persist

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mizzou-racing/monolith/internal/errors"
)

// writeAtomic writes a file by streaming into a temp file in the target
// directory, fsyncing, then renaming over the destination.
func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create directory")
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()

	fail := func(err error, msg string) error {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, msg)
	}

	if err := write(tmp); err != nil {
		return fail(err, "write")
	}
	if err := tmp.Sync(); err != nil {
		return fail(err, "sync")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "rename into place")
	}
	return nil
}
