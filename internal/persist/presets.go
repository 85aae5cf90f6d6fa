package persist

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mizzou-racing/monolith/internal/errors"
)

// PresetsFile is the canonical name of the presets artifact.
const PresetsFile = "PRESETS.CSV"

// Preset names a saved axis selection. Column references are resolved
// against the loaded dataset at selection time, not at save time: a
// preset may name columns the current dataset lacks.
type Preset struct {
	Name     string
	X        string
	Y        string
	Z        string
	UseZ     bool
	ZAsColor bool
}

// PresetStore reads and writes the presets file. Every mutation rewrites
// the whole file atomically; the store keeps no cache, so concurrent
// processes always see a complete file.
type PresetStore struct {
	mu   sync.Mutex
	path string
}

// NewPresetStore creates a store backed by the given file path.
func NewPresetStore(path string) *PresetStore {
	return &PresetStore{path: path}
}

// List returns all presets in file order. A missing file is an empty
// list, not an error.
func (ps *PresetStore) List() ([]Preset, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.load()
}

// Get returns the named preset.
func (ps *PresetStore) Get(name string) (Preset, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	presets, err := ps.load()
	if err != nil {
		return Preset{}, err
	}
	for _, p := range presets {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, errors.NewNotFound("preset", name)
}

// Save stores a preset, overwriting any existing preset with the same
// name in place.
func (ps *PresetStore) Save(p Preset) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.NewFormat(ps.path, "preset name must not be empty")
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	presets, err := ps.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range presets {
		if presets[i].Name == p.Name {
			presets[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		presets = append(presets, p)
	}
	return ps.store(presets)
}

// Delete removes the named preset.
func (ps *PresetStore) Delete(name string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	presets, err := ps.load()
	if err != nil {
		return err
	}

	kept := presets[:0]
	found := false
	for _, p := range presets {
		if p.Name == name {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return errors.NewNotFound("preset", name)
	}
	return ps.store(kept)
}

func (ps *PresetStore) load() ([]Preset, error) {
	f, err := os.Open(ps.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "open presets")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var presets []Preset
	first := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewCorrupt(ps.path, err.Error())
		}
		if first {
			first = false
			continue // header row
		}
		if len(record) < 6 {
			return nil, errors.NewCorrupt(ps.path, "preset row needs 6 fields")
		}
		useZ, err1 := strconv.ParseBool(strings.TrimSpace(record[4]))
		zColor, err2 := strconv.ParseBool(strings.TrimSpace(record[5]))
		if err1 != nil || err2 != nil {
			return nil, errors.NewCorrupt(ps.path, "preset row has non-boolean flags")
		}
		presets = append(presets, Preset{
			Name:     record[0],
			X:        record[1],
			Y:        record[2],
			Z:        record[3],
			UseZ:     useZ,
			ZAsColor: zColor,
		})
	}
	return presets, nil
}

func (ps *PresetStore) store(presets []Preset) error {
	return writeAtomic(ps.path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"name", "x", "y", "z", "use_z", "z_as_color"}); err != nil {
			return err
		}
		for _, p := range presets {
			record := []string{
				p.Name, p.X, p.Y, p.Z,
				strconv.FormatBool(p.UseZ),
				strconv.FormatBool(p.ZAsColor),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}
