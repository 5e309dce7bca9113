package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/goliatone/go-refdata/internal/storeinfra"
	"github.com/goliatone/go-refdata/refcache"
	"github.com/goliatone/go-refdata/registry"
	"github.com/goliatone/go-refdata/store"
	"github.com/google/go-cmp/cmp"
)

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
// The path is relative to the test package directory.
func LoadFixtureJSON(t testing.TB, path string, dest any) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// WriteGoldenJSON writes data as indented JSON, creating parent directories.
func WriteGoldenJSON(t testing.TB, path string, data any) {
	t.Helper()

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal JSON for %s: %v", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create directory %s: %v", dir, err)
	}
	if err := os.WriteFile(path, append(jsonData, '\n'), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// CompareWithGolden compares actual with the golden file at path. A missing
// golden file is created from actual.
func CompareWithGolden(t testing.TB, path string, actual []byte) {
	t.Helper()

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Logf("Golden file %s does not exist, creating it", path)
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				t.Fatalf("failed to create directory for %s: %v", path, err)
			}
			if err := os.WriteFile(path, actual, 0644); err != nil {
				t.Fatalf("failed to write golden file %s: %v", path, err)
			}
			return
		}
		t.Fatalf("failed to read golden file %s: %v", path, err)
	}

	if diff := cmp.Diff(string(expected), string(actual)); diff != "" {
		t.Errorf("output mismatch for %s (-golden +actual):\n%s", path, diff)
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// GoldenPath constructs a path to a golden file relative to the testdata directory.
func GoldenPath(filename string) string {
	return filepath.Join("testdata", "golden", filename)
}

// MirroredFixturePath returns the file MirrorFixtures writes for typeName.
func MirroredFixturePath(dir, typeName string) string {
	return filepath.Join(dir, typeName+".json")
}

// MirrorFixtures copies the rows of every mirrored type in reg into dir, one
// JSON object per type keyed by canonical code. Types are loaded if needed.
// It returns the written paths in registration order.
//
// Suites that run against isolated storage call this once against the
// shared database and then serve the files through FixtureStorage.
func MirrorFixtures(t testing.TB, ctx context.Context, reg *registry.Registry, dir string) []string {
	t.Helper()

	var paths []string
	for _, d := range reg.Mirrored() {
		exporter, ok := d.(registry.Exporter)
		if !ok {
			t.Fatalf("mirrored type %s cannot export its rows", d.Name())
		}

		rows, err := exporter.Export(ctx)
		if err != nil {
			t.Fatalf("failed to export %s: %v", d.Name(), err)
		}

		path := MirroredFixturePath(dir, d.Name())
		WriteGoldenJSON(t, path, rows)
		paths = append(paths, path)
	}
	return paths
}

// FixtureStorage serves the rows of a fixture written by MirrorFixtures. The
// file is read on every call, so tests may rewrite it between reloads.
// T must be a pointer to a struct.
func FixtureStorage[T refcache.Record](t testing.TB, path string) store.Storage[T] {
	t.Helper()

	read := func() (map[string]T, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		rows := map[string]T{}
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return rows, nil
	}

	return store.Funcs[T]{
		FindAllFn: func(ctx context.Context) ([]T, error) {
			rows, err := read()
			if err != nil {
				return nil, err
			}
			codes := make([]string, 0, len(rows))
			for code := range rows {
				codes = append(codes, code)
			}
			sort.Strings(codes)

			out := make([]T, 0, len(rows))
			for _, code := range codes {
				out = append(out, rows[code])
			}
			return out, nil
		},
		RefreshFn: func(ctx context.Context, record T) error {
			rows, err := read()
			if err != nil {
				return err
			}
			fresh, ok := rows[refcache.Canonical(record.GetCode())]
			if !ok {
				return store.ErrRecordNotFound
			}
			return storeinfra.CopyInto(record, fresh)
		},
	}
}
