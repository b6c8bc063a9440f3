package objpath_test

import (
	"context"
	"errors"
	"testing"

	"github.com/carlmjohnson/be"
	"github.com/srerickson/objpath"
	"github.com/srerickson/objpath/internal/testutil"
)

func TestMakedirs(t *testing.T) {
	ctx := context.Background()
	t.Run("new directory", func(t *testing.T) {
		fsys, _ := newTestFS(t)
		p := testPath("new/nested/dir")
		be.NilErr(t, fsys.Makedirs(ctx, p))
		exists, err := fsys.Exists(ctx, p)
		be.NilErr(t, err)
		be.True(t, exists)
		isDir, err := fsys.IsDir(ctx, p)
		be.NilErr(t, err)
		be.True(t, isDir)
		// one marker for the full path
		info, err := fsys.Store.Head(ctx, testContainer, "new/nested/dir/")
		be.NilErr(t, err)
		be.Equal(t, 0, info.Size)
		isDir, err = fsys.IsDir(ctx, testPath("new"))
		be.NilErr(t, err)
		be.True(t, isDir)
	})
	t.Run("existing directory", func(t *testing.T) {
		fsys, fault := newTestFS(t)
		be.NilErr(t, fsys.Makedirs(ctx, testPath("data")))
		be.NilErr(t, fsys.Makedirs(ctx, testPath("empty_dir")))
		be.NilErr(t, fsys.Makedirs(ctx, objpath.NewPath(testContainer)))
		be.Equal(t, 0, fault.Calls("Put"))
	})
	t.Run("over a file", func(t *testing.T) {
		fsys, _ := newTestFS(t)
		be.NilErr(t, fsys.Makedirs(ctx, testPath("foo")))
		isDir, err := fsys.IsDir(ctx, testPath("foo"))
		be.NilErr(t, err)
		be.True(t, isDir)
		body, err := fsys.ReadFile(ctx, testPath("foo"))
		be.NilErr(t, err)
		be.Equal(t, "foo", string(body))
	})
	t.Run("list fails", func(t *testing.T) {
		fsys, fault := newTestFS(t)
		fault.ListErr = errUnavailable
		err := fsys.Makedirs(ctx, testPath("new"))
		be.True(t, errors.Is(err, objpath.ErrStoreUnavailable))
		be.Equal(t, 0, fault.Calls("Put"))
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	t.Run("empty directory", func(t *testing.T) {
		fsys, _ := newTestFS(t)
		be.NilErr(t, fsys.Remove(ctx, testPath("empty_dir")))
		exists, err := fsys.Exists(ctx, testPath("empty_dir"))
		be.NilErr(t, err)
		be.False(t, exists)
	})
	t.Run("file", func(t *testing.T) {
		fsys, fault := newTestFS(t)
		be.NilErr(t, fsys.Remove(ctx, testPath("data/alice")))
		exists, err := fsys.Exists(ctx, testPath("data/alice"))
		be.NilErr(t, err)
		be.False(t, exists)
		be.Equal(t, 1, fault.Calls("Delete"))
		body, err := fsys.ReadFile(ctx, testPath("data/alpha"))
		be.NilErr(t, err)
		be.Equal(t, "alpha", string(body))
	})
	t.Run("directory tree", func(t *testing.T) {
		fsys, _ := newTestFS(t)
		be.NilErr(t, fsys.Makedirs(ctx, testPath("data/subdir/deeper")))
		be.NilErr(t, fsys.Remove(ctx, testPath("data")))
		exists, err := fsys.Exists(ctx, testPath("data"))
		be.NilErr(t, err)
		be.False(t, exists)
		keys, err := walkKeys(t, fsys, objpath.NewPath(testContainer))
		be.NilErr(t, err)
		be.AllEqual(t, []string{"empty_file", "foo"}, keys)
	})
	t.Run("container root", func(t *testing.T) {
		fsys, _ := newTestFS(t)
		be.NilErr(t, fsys.Remove(ctx, objpath.NewPath(testContainer)))
		remaining := 0
		for _, err := range fsys.Store.List(ctx, testContainer, objpath.ListOptions{}) {
			be.NilErr(t, err)
			remaining++
		}
		be.Equal(t, 0, remaining)
		exists, err := fsys.Exists(ctx, objpath.NewPath(testContainer))
		be.NilErr(t, err)
		be.True(t, exists)
	})
	t.Run("nonexistent", func(t *testing.T) {
		fsys, fault := newTestFS(t)
		be.NilErr(t, fsys.Remove(ctx, testPath("missing")))
		be.NilErr(t, fsys.Remove(ctx, testPath("data/al")))
		be.Equal(t, 0, fault.Calls("Delete"))
	})
	t.Run("file and directory", func(t *testing.T) {
		fsys, _ := newTestFS(t)
		be.NilErr(t, testutil.Seed(ctx, fsys.Store, testContainer, map[string][]byte{
			"both":       []byte("both"),
			"both/child": []byte("child"),
		}))
		// without a trailing separator only the file is removed
		be.NilErr(t, fsys.Remove(ctx, testPath("both")))
		isFile, err := fsys.IsFile(ctx, testPath("both"))
		be.NilErr(t, err)
		be.False(t, isFile)
		isDir, err := fsys.IsDir(ctx, testPath("both"))
		be.NilErr(t, err)
		be.True(t, isDir)
		be.NilErr(t, fsys.Remove(ctx, testPath("both/")))
		exists, err := fsys.Exists(ctx, testPath("both"))
		be.NilErr(t, err)
		be.False(t, exists)
	})
	t.Run("makedirs then remove", func(t *testing.T) {
		fsys, _ := newTestFS(t)
		p := objpath.NewPath(otherContainer, "a/b")
		be.NilErr(t, fsys.Makedirs(ctx, p))
		be.NilErr(t, fsys.Remove(ctx, p))
		exists, err := fsys.Exists(ctx, p)
		be.NilErr(t, err)
		be.False(t, exists)
	})
}

func TestRemovePartial(t *testing.T) {
	ctx := context.Background()
	t.Run("delete fails", func(t *testing.T) {
		fsys, fault := newTestFS(t)
		fault.DeleteErr = func(key string) error {
			if key == "data/subdir/2" {
				return errUnavailable
			}
			return nil
		}
		err := fsys.Remove(ctx, testPath("data"))
		be.True(t, errors.Is(err, objpath.ErrPartialDelete))
		var partial *objpath.PartialDeleteError
		be.True(t, errors.As(err, &partial))
		be.AllEqual(t, []string{"data/subdir/2"}, partial.Keys())
		be.True(t, errors.Is(partial.Failed["data/subdir/2"], errUnavailable))
		// other deletes went ahead
		keys, walkErr := walkKeys(t, fsys, testPath("data"))
		be.NilErr(t, walkErr)
		be.AllEqual(t, []string{"data/subdir/2"}, keys)
	})
	t.Run("markers kept after failure", func(t *testing.T) {
		fsys, fault := newTestFS(t)
		fault.DeleteErr = func(key string) error {
			if key == "foo" {
				return errUnavailable
			}
			return nil
		}
		err := fsys.Remove(ctx, objpath.NewPath(testContainer))
		var partial *objpath.PartialDeleteError
		be.True(t, errors.As(err, &partial))
		be.AllEqual(t, []string{"empty_dir/", "foo"}, partial.Keys())
		isDir, err := fsys.IsDir(ctx, testPath("empty_dir"))
		be.NilErr(t, err)
		be.True(t, isDir)
	})
	t.Run("listing fails", func(t *testing.T) {
		fsys, fault := newTestFS(t)
		fault.ListErr = errUnavailable
		fault.ListErrAfter = 1
		err := fsys.Remove(ctx, testPath("data"))
		be.True(t, errors.Is(err, objpath.ErrPartialDelete))
		be.True(t, errors.Is(err, objpath.ErrStoreUnavailable))
		var partial *objpath.PartialDeleteError
		be.True(t, errors.As(err, &partial))
		be.Nonzero(t, partial.Err)
	})
	t.Run("concurrency limit", func(t *testing.T) {
		fsys, fault := newTestFS(t)
		fsys.RemoveConcurrency = 1
		be.NilErr(t, fsys.Remove(ctx, testPath("data")))
		be.Equal(t, 5, fault.Calls("Delete"))
	})
}

func TestRemoveCanceled(t *testing.T) {
	fsys, fault := newTestFS(t)
	fsys.RemoveConcurrency = 1
	be.NilErr(t, testutil.Seed(context.Background(), fsys.Store, otherContainer, map[string][]byte{
		"tree/":      nil,
		"tree/sub/":  nil,
		"tree/sub/a": []byte("a"),
		"tree/sub/b": []byte("b"),
		"tree/z":     []byte("z"),
	}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fault.DeleteErr = func(key string) error {
		cancel()
		return ctx.Err()
	}
	err := fsys.Remove(ctx, objpath.NewPath(otherContainer, "tree"))
	be.True(t, errors.Is(err, objpath.ErrPartialDelete))
	var partial *objpath.PartialDeleteError
	be.True(t, errors.As(err, &partial))
	be.Equal(t, 1, fault.Calls("Delete"))
	for key, keyErr := range partial.Failed {
		if !errors.Is(keyErr, context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", key, keyErr)
		}
	}
	for _, key := range []string{"tree/", "tree/sub/", "tree/sub/a"} {
		_, ok := partial.Failed[key]
		be.True(t, ok)
	}
	// nothing was deleted
	remaining := 0
	for _, err := range fsys.Store.List(context.Background(), otherContainer, objpath.ListOptions{Prefix: "tree/"}) {
		be.NilErr(t, err)
		remaining++
	}
	be.Equal(t, 5, remaining)
}
