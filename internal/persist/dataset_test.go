package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mizzou-racing/monolith/internal/errors"
	"github.com/mizzou-racing/monolith/internal/frame"
	"github.com/mizzou-racing/monolith/internal/settings"
)

func buildTable(t *testing.T) *frame.UnifiedTable {
	t.Helper()
	table := frame.NewUnifiedTable([]float64{0, 0.01, 0.02})
	cols := []frame.Column{
		{Name: "RPM", SourceRate: 100, Values: []float64{800, 950.5, 1100.25}},
		{Name: "Coolant", SourceRate: 1, Values: []float64{82, 82, 82}},
	}
	for _, c := range cols {
		if err := table.AddColumn(c); err != nil {
			t.Fatalf("AddColumn(%s): %v", c.Name, err)
		}
	}
	return table
}

func TestDatasetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DatasetFile)

	table := buildTable(t)
	rpm := settings.Default()
	rpm.Unit = "rev/min"
	rpm.ConversionRate = 2
	rpm.StartPos = 5
	entries := map[string]settings.Settings{"RPM": rpm, "Coolant": settings.Default()}

	if err := SaveDataset(path, table, entries); err != nil {
		t.Fatalf("SaveDataset: %v", err)
	}

	loaded, loadedEntries, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}

	if loaded.Len() != table.Len() {
		t.Fatalf("Len = %d, want %d", loaded.Len(), table.Len())
	}
	for _, name := range []string{"RPM", "Coolant"} {
		want, _ := table.Values(name)
		got, err := loaded.Values(name)
		if err != nil {
			t.Fatalf("Values(%s): %v", name, err)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s[%d] = %v, want %v", name, i, got[i], want[i])
			}
		}
	}
	gotTime := loaded.Time()
	for i, v := range table.Time() {
		if gotTime[i] != v {
			t.Errorf("Time[%d] = %v, want %v", i, gotTime[i], v)
		}
	}

	if loadedEntries["RPM"] != rpm {
		t.Errorf("RPM settings = %+v, want %+v", loadedEntries["RPM"], rpm)
	}
	// The factory defaults carry the unbounded sentinels through exactly.
	if loadedEntries["Coolant"] != settings.Default() {
		t.Errorf("Coolant settings = %+v, want defaults", loadedEntries["Coolant"])
	}
}

func TestSaveDatasetNil(t *testing.T) {
	err := SaveDataset(filepath.Join(t.TempDir(), DatasetFile), nil, nil)
	if !errors.Is(err, errors.ErrNoDataset) {
		t.Fatalf("err = %v, want no-dataset", err)
	}
}

func TestLoadDatasetMissing(t *testing.T) {
	_, _, err := LoadDataset(filepath.Join(t.TempDir(), DatasetFile))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("err = %v, want not-found", err)
	}
}

func TestLoadDatasetTruncatedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), DatasetFile)
	if err := os.WriteFile(path, []byte("Time,RPM\nunknown,unknown\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := LoadDataset(path)
	if !errors.Is(err, errors.ErrCorruptFile) {
		t.Fatalf("err = %v, want corrupt-file", err)
	}
}

func TestLoadDatasetMalformedSettingsFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), DatasetFile)
	content := "Time,RPM\n" +
		"s,rev/min\n" +
		"1,oops\n" + // non-numeric conversion rate for RPM
		"1,1\n" +
		"-1.8446744073709552e+19,-1.8446744073709552e+19\n" +
		"1.8446744073709552e+19,1.8446744073709552e+19\n" +
		"1.8446744073709552e+19,1.8446744073709552e+19\n" +
		"0,0\n" +
		"0,800\n" +
		"0.01,900\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	table, entries, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2", table.Len())
	}
	if entries["RPM"] != settings.Default() {
		t.Errorf("RPM settings = %+v, want factory defaults", entries["RPM"])
	}
}

func TestLoadDatasetMalformedDataRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), DatasetFile)

	table := buildTable(t)
	if err := SaveDataset(path, table, nil); err != nil {
		t.Fatalf("SaveDataset: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("0.03,what,82\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, _, err = LoadDataset(path)
	if !errors.Is(err, errors.ErrCorruptFile) {
		t.Fatalf("err = %v, want corrupt-file", err)
	}
}

func TestSaveDatasetLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	if err := SaveDataset(filepath.Join(dir, DatasetFile), buildTable(t), nil); err != nil {
		t.Fatalf("SaveDataset: %v", err)
	}
	names, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0].Name() != DatasetFile {
		t.Fatalf("directory contents = %v, want just %s", names, DatasetFile)
	}
}
