// Package session is the facade over ingestion, unification, settings,
// transforms and persistence. One Session holds at most one unified
// dataset at a time; callers mutate and render through it exclusively,
// under a single lock.
package session

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mizzou-racing/monolith/internal/config"
	"github.com/mizzou-racing/monolith/internal/errors"
	"github.com/mizzou-racing/monolith/internal/frame"
	"github.com/mizzou-racing/monolith/internal/ingest"
	"github.com/mizzou-racing/monolith/internal/logging"
	"github.com/mizzou-racing/monolith/internal/persist"
	"github.com/mizzou-racing/monolith/internal/settings"
	"github.com/mizzou-racing/monolith/internal/snapshot"
	"github.com/mizzou-racing/monolith/internal/transform"
	"github.com/mizzou-racing/monolith/internal/unify"
)

// Session owns the live dataset and its per-column settings.
type Session struct {
	mu  sync.Mutex
	log *slog.Logger
	cfg *config.Config

	table     *frame.UnifiedTable
	reg       *settings.Registry
	presets   *persist.PresetStore
	dataDirty bool
	dir       string
}

// New creates a session with no dataset loaded.
func New(cfg *config.Config) *Session {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Session{
		log:     logging.Component("session"),
		cfg:     cfg,
		reg:     settings.NewRegistry(),
		presets: persist.NewPresetStore(cfg.ResolvePath(cfg.PresetsCSV)),
	}
}

// HasDataset reports whether a unified table is loaded.
func (s *Session) HasDataset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table != nil
}

// Dirty returns the unsaved-changes flags for both halves of the state.
func (s *Session) Dirty() settings.DirtyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return settings.DirtyState{Data: s.dataDirty, Settings: s.reg.Dirty()}
}

// Ingest parses every recognized log file in dir, merges them onto the
// densest time axis and installs the result. All-or-nothing: on any
// failure the previously loaded dataset is left untouched. Settings for
// columns already known by name survive; new columns get factory
// defaults, then the shipped CONFIG.CSV defaults where present.
func (s *Session) Ingest(ctx context.Context, dir string, progress ingest.ProgressFunc) error {
	// A directory with a saved dataset reopens it directly; the unified
	// table was already generated in a previous run.
	if ingest.HasDataset(dir) {
		path := filepath.Join(dir, persist.DatasetFile)
		s.log.Info("saved dataset found, skipping re-unification", "path", path)
		return s.LoadDataset(path)
	}

	tables, err := ingest.Directory(ctx, dir, progress)
	if err != nil {
		return err
	}
	merged, err := unify.Merge(tables)
	if err != nil {
		return err
	}
	s.install(merged, dir)
	s.log.Info("ingested log directory",
		"dir", dir, "sources", len(tables), "rows", merged.Len(), "columns", len(merged.Names())-1)
	return nil
}

// IngestFile parses a single log CSV of unknown rate and installs it as
// the dataset.
func (s *Session) IngestFile(ctx context.Context, path string) error {
	t, err := ingest.File(ctx, path, 0, nil)
	if err != nil {
		return err
	}
	merged, err := unify.Merge([]*frame.RawTable{t})
	if err != nil {
		return err
	}
	s.install(merged, filepath.Dir(path))
	s.log.Info("ingested single file", "path", path, "rows", merged.Len())
	return nil
}

func (s *Session) install(table *frame.UnifiedTable, dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.table = table
	s.dir = dir
	s.dataDirty = true

	names := table.Names()
	s.reg.Register(names[1:]) // skip the time column

	defaults, err := settings.LoadDefaults(s.cfg.ResolvePath(s.cfg.ConfigCSV))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("shipped defaults unreadable", "path", s.cfg.ConfigCSV, "error", err)
		}
		return
	}
	s.reg.ApplyDefaults(defaults)
}

// Columns returns the dataset's column names, time first.
func (s *Session) Columns() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return nil, errors.ErrNoDataset
	}
	return s.table.Names(), nil
}

// Rows returns the dataset's row count.
func (s *Session) Rows() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return 0, errors.ErrNoDataset
	}
	return s.table.Len(), nil
}

// GetSettings returns the settings for a dataset column.
func (s *Session) GetSettings(name string) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return settings.Settings{}, errors.ErrNoDataset
	}
	if !s.table.Has(name) || name == frame.TimeColumn {
		return settings.Settings{}, errors.NewNotFound("column", name)
	}
	return s.reg.Get(name), nil
}

// PutSettings stores settings for a column. Fields beyond the absolute
// ceiling revert to their prior values; the returned error, when it is a
// range-rejected warning, reports which fields were kept back while the
// rest of the update still applied.
func (s *Session) PutSettings(name string, in settings.Settings) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return settings.Settings{}, errors.ErrNoDataset
	}
	if !s.table.Has(name) || name == frame.TimeColumn {
		return settings.Settings{}, errors.NewNotFound("column", name)
	}

	stored, err := s.reg.Set(name, in)
	if err != nil && errors.IsWarning(err) {
		s.log.Warn("settings fields reverted", "column", name, "reason", err)
	}
	return stored, err
}

// SwapColumns exchanges the settings stored under two column labels for
// the rest of the session, without persisting the exchange.
func (s *Session) SwapColumns(a, b string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return errors.ErrNoDataset
	}
	for _, name := range []string{a, b} {
		if !s.table.Has(name) || name == frame.TimeColumn {
			return errors.NewNotFound("column", name)
		}
	}
	return s.reg.Swap(a, b)
}

// RenderRequest selects the axes for a rendered graph.
type RenderRequest struct {
	X        string
	Y        string
	Z        string
	UseZ     bool
	ZAsColor bool
	Policy   transform.RangePolicy
	Title    string
}

// Kind maps the request's Z flags onto the snapshot plot family.
func (r RenderRequest) Kind() snapshot.Kind {
	switch {
	case r.UseZ && r.ZAsColor:
		return snapshot.KindZColor
	case r.UseZ:
		return snapshot.Kind3D
	default:
		return snapshot.Kind2D
	}
}

// Rendered is the resolved output for one graph.
type Rendered struct {
	Title string
	Kind  snapshot.Kind
	X     transform.ResolvedSeries
	Y     transform.ResolvedSeries
	Z     transform.ResolvedSeries
}

// Render resolves the requested axes through the transform pipeline.
// Under the drop-leading policy, the number of dropped rows is the
// maximum leading out-of-range count across the selected columns, so
// every axis loses the same rows and stays aligned.
func (s *Session) Render(req RenderRequest) (*Rendered, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return nil, errors.ErrNoDataset
	}

	axes := []string{req.X, req.Y}
	if req.UseZ {
		axes = append(axes, req.Z)
	}
	for _, name := range axes {
		if !s.table.Has(name) {
			return nil, errors.NewNotFound("column", name)
		}
	}

	time := s.table.Time()

	skip := 0
	if req.Policy == transform.RangeDropLeading {
		for _, name := range axes {
			if name == frame.TimeColumn {
				continue
			}
			raw, err := s.table.Values(name)
			if err != nil {
				return nil, err
			}
			if n := transform.LeadingOutOfRange(raw, s.reg.Get(name)); n > skip {
				skip = n
			}
		}
	}

	out := &Rendered{Title: req.Title, Kind: req.Kind()}
	resolve := func(name string) (transform.ResolvedSeries, error) {
		if name == frame.TimeColumn {
			ts := settings.Default()
			ts.Unit = "s"
			return transform.Resolve(name, time, time, ts, req.Policy, skip), nil
		}
		raw, err := s.table.Values(name)
		if err != nil {
			return transform.ResolvedSeries{}, err
		}
		return transform.Resolve(name, time, raw, s.reg.Get(name), req.Policy, skip), nil
	}

	var err error
	if out.X, err = resolve(req.X); err != nil {
		return nil, err
	}
	if out.Y, err = resolve(req.Y); err != nil {
		return nil, err
	}
	if req.UseZ {
		if out.Z, err = resolve(req.Z); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SeriesStats resolves one column under the clamp policy and summarizes
// it.
func (s *Session) SeriesStats(name string) (transform.Stats, error) {
	r, err := s.Render(RenderRequest{X: frame.TimeColumn, Y: name, Policy: transform.RangeClamp})
	if err != nil {
		return transform.Stats{}, err
	}
	return transform.Summarize(r.Y.Values)
}

// SaveSnapshot renders the request and freezes the result to path.
func (s *Session) SaveSnapshot(path string, req RenderRequest) error {
	r, err := s.Render(req)
	if err != nil {
		return err
	}

	snap := &snapshot.Snapshot{
		Kind:    r.Kind,
		Title:   r.Title,
		X:       snapshot.Axis{Name: r.X.Name, Unit: r.X.Unit},
		Y:       snapshot.Axis{Name: r.Y.Name, Unit: r.Y.Unit},
		XValues: r.X.Values,
		YValues: r.Y.Values,
	}
	if req.UseZ {
		snap.Z = snapshot.Axis{Name: r.Z.Name, Unit: r.Z.Unit}
		snap.ZValues = r.Z.Values
	}

	opts := snapshot.Options{Compression: s.cfg.Snapshot.Compression}
	if err := snapshot.Write(path, snap, opts); err != nil {
		return err
	}
	s.log.Info("snapshot saved", "path", path, "points", snap.Len(), "kind", snap.Kind.String())
	return nil
}

// LoadSnapshot reopens a frozen graph. It never touches the live
// dataset or settings.
func (s *Session) LoadSnapshot(path string) (*snapshot.Snapshot, error) {
	return snapshot.Read(path)
}

// SaveDataset writes the unified table and every settings entry to the
// dataset file in the ingest directory, clearing both dirty flags.
func (s *Session) SaveDataset() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return "", errors.ErrNoDataset
	}

	dir := s.dir
	if dir == "" {
		dir = s.cfg.DataDir
	}
	path := filepath.Join(dir, persist.DatasetFile)
	if err := persist.SaveDataset(path, s.table, s.reg.All()); err != nil {
		return "", err
	}
	s.dataDirty = false
	s.reg.ClearDirty()
	s.log.Info("dataset saved", "path", path, "rows", s.table.Len())
	return path, nil
}

// LoadDataset replaces the live dataset and settings with a previously
// saved one. Both dirty flags clear: the loaded state matches disk.
func (s *Session) LoadDataset(path string) error {
	table, entries, err := persist.LoadDataset(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = table
	s.dir = filepath.Dir(path)
	s.dataDirty = false
	s.reg.Replace(entries)
	s.log.Info("dataset loaded", "path", path, "rows", table.Len())
	return nil
}

// ListPresets returns the saved axis presets.
func (s *Session) ListPresets() ([]persist.Preset, error) {
	return s.presets.List()
}

// SavePreset stores a preset, overwriting by name. The referenced
// columns are deliberately not validated here: a preset may describe a
// dataset other than the loaded one.
func (s *Session) SavePreset(p persist.Preset) error {
	return s.presets.Save(p)
}

// DeletePreset removes a preset by name.
func (s *Session) DeletePreset(name string) error {
	return s.presets.Delete(name)
}

// SelectPreset resolves a preset against the loaded dataset and returns
// the render request it describes. Column references are checked only
// now, at selection time.
func (s *Session) SelectPreset(name string) (RenderRequest, error) {
	p, err := s.presets.Get(name)
	if err != nil {
		return RenderRequest{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return RenderRequest{}, errors.ErrNoDataset
	}

	axes := []string{p.X, p.Y}
	if p.UseZ {
		axes = append(axes, p.Z)
	}
	for _, col := range axes {
		if !s.table.Has(col) {
			return RenderRequest{}, errors.NewNotFound("column", col)
		}
	}

	return RenderRequest{
		X:        p.X,
		Y:        p.Y,
		Z:        p.Z,
		UseZ:     p.UseZ,
		ZAsColor: p.ZAsColor,
		Title:    p.Name,
	}, nil
}

// ExportParquet writes the dataset in long format for the query layer.
func (s *Session) ExportParquet(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return errors.ErrNoDataset
	}
	if err := persist.ExportParquet(path, s.table); err != nil {
		return err
	}
	s.log.Info("dataset exported", "path", path, "rows", s.table.Len())
	return nil
}
