package objpath_test

import (
	"context"
	"errors"
	"testing"

	"github.com/carlmjohnson/be"
	"github.com/srerickson/objpath"
	"github.com/srerickson/objpath/internal/testutil"
)

func walkKeys(t *testing.T, fsys *objpath.FS, root objpath.PathInfo) ([]string, error) {
	t.Helper()
	var keys []string
	for p, err := range fsys.WalkFiles(context.Background(), root) {
		if err != nil {
			return keys, err
		}
		be.Equal(t, root.Container(), p.Container())
		keys = append(keys, p.Key())
	}
	return keys, nil
}

func TestWalkFiles(t *testing.T) {
	fsys, _ := newTestFS(t)
	type testCase struct {
		root   string
		expect []string
	}
	table := map[string]testCase{
		"container root": {root: "", expect: []string{
			"data/alice", "data/alpha", "data/subdir/1", "data/subdir/2", "data/subdir/3",
			"empty_file", "foo",
		}},
		"container root fixture": {root: "", expect: testutil.FixtureFiles()},
		"directory": {root: "data", expect: []string{
			"data/alice", "data/alpha", "data/subdir/1", "data/subdir/2", "data/subdir/3",
		}},
		"directory with slash": {root: "data/subdir/", expect: []string{
			"data/subdir/1", "data/subdir/2", "data/subdir/3",
		}},
		"file":        {root: "foo", expect: []string{"foo"}},
		"empty file":  {root: "empty_file", expect: []string{"empty_file"}},
		"file slash":  {root: "foo/", expect: nil},
		"empty dir":   {root: "empty_dir", expect: nil},
		"key prefix":  {root: "data/al", expect: nil},
		"nonexistent": {root: "missing", expect: nil},
	}
	for name, tcase := range table {
		t.Run(name, func(t *testing.T) {
			keys, err := walkKeys(t, fsys, testPath(tcase.root))
			be.NilErr(t, err)
			be.AllEqual(t, tcase.expect, keys)
		})
	}
}

func TestWalkFilesRootFirst(t *testing.T) {
	ctx := context.Background()
	fsys, _ := newTestFS(t)
	be.NilErr(t, testutil.Seed(ctx, fsys.Store, otherContainer, map[string][]byte{
		"a":     []byte("a"),
		"a-b":   []byte("a-b"),
		"a/c":   []byte("a/c"),
		"a/d/e": []byte("a/d/e"),
	}))
	keys, err := walkKeys(t, fsys, objpath.NewPath(otherContainer, "a"))
	be.NilErr(t, err)
	be.AllEqual(t, []string{"a", "a/c", "a/d/e"}, keys)
}

func TestWalkFilesEarlyStop(t *testing.T) {
	fsys, _ := newTestFS(t)
	var keys []string
	for p, err := range fsys.WalkFiles(context.Background(), testPath("")) {
		be.NilErr(t, err)
		keys = append(keys, p.Key())
		if len(keys) == 2 {
			break
		}
	}
	be.AllEqual(t, []string{"data/alice", "data/alpha"}, keys)
}

func TestWalkFilesListError(t *testing.T) {
	fsys, fault := newTestFS(t)
	fault.ListErr = errUnavailable
	fault.ListErrAfter = 2
	keys, err := walkKeys(t, fsys, testPath("data"))
	be.True(t, errors.Is(err, objpath.ErrStoreUnavailable))
	be.True(t, errors.Is(err, errUnavailable))
	// paths before the error are still valid
	be.AllEqual(t, []string{"data/alice", "data/alpha"}, keys)
}

func TestWalkFilesCanceled(t *testing.T) {
	fsys, _ := newTestFS(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var gotErr error
	for _, err := range fsys.WalkFiles(ctx, testPath("data")) {
		if err != nil {
			gotErr = err
		}
	}
	be.True(t, errors.Is(gotErr, context.Canceled))
}

func TestWalk(t *testing.T) {
	fsys, _ := newTestFS(t)
	var sizes []int64
	for info, err := range fsys.Walk(context.Background(), testPath("data/subdir")) {
		be.NilErr(t, err)
		sizes = append(sizes, info.Size)
	}
	be.AllEqual(t, []int64{1, 1, 1}, sizes)
}

func TestWalkFilesSkipsMarkers(t *testing.T) {
	ctx := context.Background()
	fsys, _ := newTestFS(t)
	be.NilErr(t, fsys.Makedirs(ctx, testPath("data/newdir")))
	keys, err := walkKeys(t, fsys, testPath("data"))
	be.NilErr(t, err)
	be.AllEqual(t, []string{
		"data/alice", "data/alpha", "data/subdir/1", "data/subdir/2", "data/subdir/3",
	}, keys)
}
