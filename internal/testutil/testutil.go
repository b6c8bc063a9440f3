// Package testutil provides fixtures and store helpers shared by tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/srerickson/objpath"
)

// Fixture is the content of a container used by tests:
//
//	container
//	├── data
//	│  ├── alice
//	│  ├── alpha
//	│  └── subdir
//	│     ├── 1
//	│     ├── 2
//	│     └── 3
//	├── empty_dir/   (marker)
//	├── empty_file
//	└── foo
func Fixture() map[string][]byte {
	return map[string][]byte{
		"empty_dir/":    nil,
		"empty_file":    {},
		"foo":           []byte("foo"),
		"data/alice":    []byte("alice"),
		"data/alpha":    []byte("alpha"),
		"data/subdir/1": []byte("1"),
		"data/subdir/2": []byte("2"),
		"data/subdir/3": []byte("3"),
	}
}

// FixtureFiles returns the sorted keys in Fixture that aren't directory
// markers.
func FixtureFiles() []string {
	var files []string
	for _, k := range slices.Sorted(maps.Keys(Fixture())) {
		if !strings.HasSuffix(k, "/") {
			files = append(files, k)
		}
	}
	return files
}

// Seed writes objects to container in store.
func Seed(ctx context.Context, store objpath.Store, container string, objects map[string][]byte) error {
	for _, key := range slices.Sorted(maps.Keys(objects)) {
		if _, err := store.Put(ctx, container, key, bytes.NewReader(objects[key])); err != nil {
			return fmt.Errorf("seeding %s/%s: %w", container, key, err)
		}
	}
	return nil
}

// SeedFixture writes Fixture to container in store.
func SeedFixture(ctx context.Context, store objpath.Store, container string) error {
	return Seed(ctx, store, container, Fixture())
}
