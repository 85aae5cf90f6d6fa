// Package snapshot freezes a rendered graph into a self-describing
// Parquet file.
//
// A snapshot is deliberately distinct from the live dataset: it stores
// the already-resolved points plus the axis descriptors, so reopening it
// never re-runs the transform pipeline and later settings edits cannot
// change what was captured.
package snapshot

import (
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"github.com/mizzou-racing/monolith/internal/errors"
)

// Kind is the plot family of a frozen snapshot.
type Kind int

const (
	// Kind2D is a plain X/Y plot.
	Kind2D Kind = iota

	// Kind3D plots X/Y/Z spatially.
	Kind3D

	// KindZColor plots X/Y with the Z column mapped to point color.
	KindZColor
)

// String returns the kind label stored in the file footer.
func (k Kind) String() string {
	switch k {
	case Kind3D:
		return "3d"
	case KindZColor:
		return "zcolor"
	default:
		return "2d"
	}
}

func parseKind(s string) Kind {
	switch s {
	case "3d":
		return Kind3D
	case "zcolor":
		return KindZColor
	default:
		return Kind2D
	}
}

// Axis describes one axis of a frozen plot.
type Axis struct {
	Name string
	Unit string
}

// Snapshot is a frozen rendered graph. ZValues is empty for Kind2D.
type Snapshot struct {
	Kind  Kind
	Title string
	X     Axis
	Y     Axis
	Z     Axis

	XValues []float64
	YValues []float64
	ZValues []float64
}

// HasZ reports whether the snapshot carries a third series.
func (s *Snapshot) HasZ() bool { return s.Kind != Kind2D }

// Len returns the number of frozen points.
func (s *Snapshot) Len() int { return len(s.XValues) }

// Options configures snapshot encoding.
type Options struct {
	Compression string
}

// DefaultOptions returns the default encoding options.
func DefaultOptions() Options {
	return Options{Compression: "zstd"}
}

func codecFor(name string) compress.Codec {
	switch name {
	case "snappy":
		return &parquet.Snappy
	case "gzip":
		return &parquet.Gzip
	case "lz4":
		return &parquet.Lz4Raw
	case "none":
		return &parquet.Uncompressed
	default:
		return &parquet.Zstd
	}
}

// pointRow is the on-disk shape of one frozen point.
type pointRow struct {
	X float64 `parquet:"x"`
	Y float64 `parquet:"y"`
	Z float64 `parquet:"z,optional"`
}

// Footer metadata keys. The descriptor lives in the Parquet footer so a
// snapshot file is fully self-describing.
const (
	metaTitle = "monolith:title"
	metaKind  = "monolith:kind"
	metaXName = "monolith:x_name"
	metaXUnit = "monolith:x_unit"
	metaYName = "monolith:y_name"
	metaYUnit = "monolith:y_unit"
	metaZName = "monolith:z_name"
	metaZUnit = "monolith:z_unit"
	metaRows  = "monolith:rows"
)

// Write encodes the snapshot to path. The X and Y series must be equal
// length; Z, when present, must match too.
func Write(path string, s *Snapshot, opts Options) error {
	if len(s.XValues) != len(s.YValues) {
		return errors.NewFormat(path, "x and y series differ in length")
	}
	if s.HasZ() && len(s.ZValues) != len(s.XValues) {
		return errors.NewFormat(path, "z series differs in length")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create snapshot directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create snapshot file")
	}

	writerOpts := []parquet.WriterOption{
		parquet.Compression(codecFor(opts.Compression)),
		parquet.KeyValueMetadata(metaTitle, s.Title),
		parquet.KeyValueMetadata(metaKind, s.Kind.String()),
		parquet.KeyValueMetadata(metaXName, s.X.Name),
		parquet.KeyValueMetadata(metaXUnit, s.X.Unit),
		parquet.KeyValueMetadata(metaYName, s.Y.Name),
		parquet.KeyValueMetadata(metaYUnit, s.Y.Unit),
		parquet.KeyValueMetadata(metaZName, s.Z.Name),
		parquet.KeyValueMetadata(metaZUnit, s.Z.Unit),
		parquet.KeyValueMetadata(metaRows, strconv.Itoa(len(s.XValues))),
	}

	w := parquet.NewGenericWriter[pointRow](f, writerOpts...)

	rows := make([]pointRow, len(s.XValues))
	for i := range rows {
		rows[i].X = s.XValues[i]
		rows[i].Y = s.YValues[i]
		if s.HasZ() {
			rows[i].Z = s.ZValues[i]
		}
	}
	if len(rows) > 0 {
		if _, err := w.Write(rows); err != nil {
			f.Close()
			return errors.Wrap(err, "write snapshot rows")
		}
	}
	if err := w.Close(); err != nil {
		f.Close()
		return errors.Wrap(err, "close snapshot writer")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrap(err, "sync snapshot file")
	}
	return f.Close()
}

// Read decodes a snapshot from path. A file whose footer or rows cannot
// be decoded yields a corrupt-file error.
func Read(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("snapshot", path)
		}
		return nil, errors.Wrap(err, "open snapshot")
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat snapshot")
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, errors.NewCorrupt(path, err.Error())
	}

	s := &Snapshot{}
	lookup := func(key string) string {
		v, _ := pf.Lookup(key)
		return v
	}
	s.Title = lookup(metaTitle)
	s.Kind = parseKind(lookup(metaKind))
	s.X = Axis{Name: lookup(metaXName), Unit: lookup(metaXUnit)}
	s.Y = Axis{Name: lookup(metaYName), Unit: lookup(metaYUnit)}
	s.Z = Axis{Name: lookup(metaZName), Unit: lookup(metaZUnit)}

	r := parquet.NewGenericReader[pointRow](f)
	defer r.Close()

	n := int(r.NumRows())
	if want := lookup(metaRows); want != "" {
		expected, err := strconv.Atoi(want)
		if err != nil || expected != n {
			return nil, errors.NewCorrupt(path, "row count mismatch")
		}
	}

	rows := make([]pointRow, n)
	if n > 0 {
		if _, err := r.Read(rows); err != nil && err != io.EOF {
			return nil, errors.NewCorrupt(path, err.Error())
		}
	}

	s.XValues = make([]float64, n)
	s.YValues = make([]float64, n)
	for i := range rows {
		s.XValues[i] = rows[i].X
		s.YValues[i] = rows[i].Y
	}
	if s.HasZ() {
		s.ZValues = make([]float64, n)
		for i := range rows {
			s.ZValues[i] = rows[i].Z
		}
	}
	return s, nil
}
