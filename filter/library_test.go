package filter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/darkroom/cube"
)

const identityCube = `LUT_3D_SIZE 2
0 0 0
1 0 0
0 1 0
1 1 0
0 0 1
1 0 1
0 1 1
1 1 1
`

const catalogYAML = `
cache_size: 4
filters:
  - id: koto
    name: Koto
    file: luts/Koto.cube
  - id: plain
  - id: broken
  - id: short
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"filters.yaml":   {Data: []byte(catalogYAML)},
		"luts/Koto.cube": {Data: []byte("TITLE \"Koto\"\n" + identityCube)},
		"plain.cube":     {Data: []byte(identityCube)},
		"broken.cube":    {Data: []byte("0 0 0\n")},
		"short.cube":     {Data: []byte("LUT_3D_SIZE 2\n0 0 0\n")},
	}
}

func TestParseCatalogDefaults(t *testing.T) {
	c, err := ParseCatalog(strings.NewReader(catalogYAML))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}

	want := &Catalog{
		CacheSize: 4,
		Workers:   DefaultWorkers,
		Filters: []Entry{
			{ID: "koto", Name: "Koto", File: "luts/Koto.cube"},
			{ID: "plain", Name: "plain", File: "plain.cube"},
			{ID: "broken", Name: "broken", File: "broken.cube"},
			{ID: "short", Name: "short", File: "short.cube"},
		},
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("ParseCatalog mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing id", "filters:\n  - name: x\n"},
		{"duplicate id", "filters:\n  - id: a\n  - id: a\n"},
		{"not yaml", "filters: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCatalog(strings.NewReader(tt.yaml)); err == nil {
				t.Error("ParseCatalog() error = nil, want error")
			}
		})
	}
}

func openTestLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := Open(testFS(), "filters.yaml")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(lib.Close)
	return lib
}

func loadWithTimeout(t *testing.T, lib *Library, id string) (*cube.Table, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return lib.LoadContext(ctx, id)
}

func TestLibraryLoad(t *testing.T) {
	lib := openTestLibrary(t)

	tbl, err := loadWithTimeout(t, lib, "koto")
	if err != nil {
		t.Fatalf("Load(koto): %v", err)
	}
	if tbl.Size != 2 || tbl.Len() != 8 {
		t.Errorf("table = size %d, %d samples, want 2, 8", tbl.Size, tbl.Len())
	}
	if tbl.Title != "Koto" {
		t.Errorf("Title = %q, want %q", tbl.Title, "Koto")
	}

	again, err := loadWithTimeout(t, lib, "koto")
	if err != nil {
		t.Fatalf("second Load(koto): %v", err)
	}
	if again != tbl {
		t.Error("second load did not come from the cache")
	}
}

func TestLibraryLoadErrors(t *testing.T) {
	lib := openTestLibrary(t)

	tests := []struct {
		id   string
		want error
	}{
		{"missing", ErrUnknownFilter},
		{"broken", cube.ErrMalformedHeader},
		{"short", cube.ErrSizeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := loadWithTimeout(t, lib, tt.id)
			if !errors.Is(err, tt.want) {
				t.Errorf("Load(%q) error = %v, want %v", tt.id, err, tt.want)
			}
		})
	}
}

func TestLibraryConcurrentLoads(t *testing.T) {
	lib := openTestLibrary(t)

	var wg sync.WaitGroup
	tables := make([]*cube.Table, 8)
	for i := range tables {
		wg.Add(1)
		lib.Load("plain", func(tbl *cube.Table, err error) {
			defer wg.Done()
			if err != nil {
				t.Errorf("Load: %v", err)
			}
			tables[i] = tbl
		})
	}
	wg.Wait()

	for i, tbl := range tables {
		if tbl == nil || tbl != tables[0] {
			t.Errorf("tables[%d] = %p, want shared table %p", i, tbl, tables[0])
		}
	}
}

func TestLibraryClosed(t *testing.T) {
	lib, err := Open(testFS(), "filters.yaml")
	if err != nil {
		t.Fatal(err)
	}
	lib.Close()

	_, err = loadWithTimeout(t, lib, "plain")
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Load after Close error = %v, want ErrClosed", err)
	}
}

func TestLibraryFilters(t *testing.T) {
	lib := openTestLibrary(t)
	got := lib.Filters()
	if len(got) != 4 || got[0].ID != "koto" {
		t.Errorf("Filters() = %+v", got)
	}
	got[0].ID = "mutated"
	if e, ok := lib.Lookup("koto"); !ok || e.ID != "koto" {
		t.Error("Filters() result aliases the catalog")
	}
}
