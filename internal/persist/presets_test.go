package persist

import (
	"path/filepath"
	"testing"

	"github.com/mizzou-racing/monolith/internal/errors"
)

func TestPresetStoreEmpty(t *testing.T) {
	ps := NewPresetStore(filepath.Join(t.TempDir(), PresetsFile))
	presets, err := ps.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(presets) != 0 {
		t.Fatalf("List = %v, want empty", presets)
	}
}

func TestPresetSaveAndGet(t *testing.T) {
	ps := NewPresetStore(filepath.Join(t.TempDir(), PresetsFile))

	p := Preset{Name: "track-map", X: "GPS_Long", Y: "GPS_Lat", Z: "Speed", UseZ: true, ZAsColor: true}
	if err := ps.Save(p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := ps.Get("track-map")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != p {
		t.Fatalf("Get = %+v, want %+v", got, p)
	}
}

func TestPresetSaveOverwritesByName(t *testing.T) {
	ps := NewPresetStore(filepath.Join(t.TempDir(), PresetsFile))

	if err := ps.Save(Preset{Name: "a", X: "Time", Y: "RPM"}); err != nil {
		t.Fatal(err)
	}
	if err := ps.Save(Preset{Name: "b", X: "Time", Y: "Coolant"}); err != nil {
		t.Fatal(err)
	}
	if err := ps.Save(Preset{Name: "a", X: "Time", Y: "Speed"}); err != nil {
		t.Fatal(err)
	}

	presets, err := ps.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(presets) != 2 {
		t.Fatalf("len = %d, want 2 (overwrite, not append)", len(presets))
	}
	// Overwrite keeps the original position.
	if presets[0].Name != "a" || presets[0].Y != "Speed" {
		t.Fatalf("presets[0] = %+v, want updated a", presets[0])
	}
}

func TestPresetSaveEmptyName(t *testing.T) {
	ps := NewPresetStore(filepath.Join(t.TempDir(), PresetsFile))
	if err := ps.Save(Preset{Name: "  "}); !errors.Is(err, errors.ErrFormat) {
		t.Fatalf("err = %v, want format error", err)
	}
}

func TestPresetDelete(t *testing.T) {
	ps := NewPresetStore(filepath.Join(t.TempDir(), PresetsFile))

	if err := ps.Save(Preset{Name: "a", X: "Time", Y: "RPM"}); err != nil {
		t.Fatal(err)
	}
	if err := ps.Delete("a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := ps.Get("a"); !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("Get after delete = %v, want not-found", err)
	}
	if err := ps.Delete("a"); !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("second Delete = %v, want not-found", err)
	}
}
