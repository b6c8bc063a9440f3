package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/carlmjohnson/be"
	"github.com/srerickson/objpath"
)

var (
	// parent directory for the test
	testPrefix = fmt.Sprintf("store-test-%d", time.Now().Unix())
	testKeys   = []string{
		"a.txt",
		"a/b.txt",
		"a/b/c.txt",
		"a/b/c/d.txt",
	}
)

// TestStore is a test suite for objpath.Store implementations. Objects are
// written under a unique prefix in container and removed afterwards. If
// other is not empty, it names a second container used for copies.
func TestStore(t *testing.T, store objpath.Store, container, other string) {
	t.Helper()
	ctx := context.Background()
	be.NilErr(t, buildTestDir(ctx, store, container))
	t.Cleanup(func() {
		be.NilErr(t, objpath.NewFS(store).Remove(ctx, objpath.NewPath(container, testPrefix)))
		if other != "" {
			be.NilErr(t, objpath.NewFS(store).Remove(ctx, objpath.NewPath(other, testPrefix)))
		}
	})
	t.Run("list", func(t *testing.T) { testList(t, store, container) })
	t.Run("head", func(t *testing.T) { testHead(t, store, container) })
	t.Run("get", func(t *testing.T) { testGet(t, store, container) })
	t.Run("put", func(t *testing.T) { testPut(t, store, container) })
	t.Run("copy", func(t *testing.T) { testCopy(t, store, container, container) })
	if other != "" {
		t.Run("copy to other container", func(t *testing.T) { testCopy(t, store, container, other) })
	}
	t.Run("delete", func(t *testing.T) { testDelete(t, store, container) })
}

func buildTestDir(ctx context.Context, store objpath.Store, container string) error {
	for _, k := range testKeys {
		k = testPrefix + "/" + k
		if _, err := store.Put(ctx, container, k, strings.NewReader(k)); err != nil {
			return fmt.Errorf("creating test objects: %w", err)
		}
	}
	return nil
}

func listKeys(ctx context.Context, store objpath.Store, container string, opts objpath.ListOptions) ([]string, error) {
	var keys []string
	for info, err := range store.List(ctx, container, opts) {
		if err != nil {
			return keys, err
		}
		keys = append(keys, strings.TrimPrefix(info.Key, testPrefix+"/"))
	}
	return keys, nil
}

func testList(t *testing.T, store objpath.Store, container string) {
	ctx := context.Background()
	type testCase struct {
		prefix string
		limit  int
		expect []string
	}
	table := map[string]testCase{
		"all":           {prefix: "", expect: testKeys},
		"directory":     {prefix: "a/", expect: testKeys[1:]},
		"partial name":  {prefix: "a", expect: testKeys},
		"nested":        {prefix: "a/b/c/", expect: testKeys[3:]},
		"limit":         {prefix: "a/", limit: 2, expect: testKeys[1:3]},
		"limit one":     {prefix: "", limit: 1, expect: testKeys[:1]},
		"no match":      {prefix: "z", expect: nil},
		"file as dir":   {prefix: "a.txt/", expect: nil},
		"limit no hits": {prefix: "z/", limit: 1, expect: nil},
	}
	for name, tcase := range table {
		t.Run(name, func(t *testing.T) {
			opts := objpath.ListOptions{Prefix: testPrefix + "/" + tcase.prefix, Limit: tcase.limit}
			keys, err := listKeys(ctx, store, container, opts)
			be.NilErr(t, err)
			be.AllEqual(t, tcase.expect, keys)
		})
	}
}

func testHead(t *testing.T, store objpath.Store, container string) {
	ctx := context.Background()
	key := testPrefix + "/a/b.txt"
	info, err := store.Head(ctx, container, key)
	be.NilErr(t, err)
	be.Equal(t, key, info.Key)
	be.Equal(t, int64(len(key)), info.Size)
	be.Nonzero(t, info.ETag)
	be.False(t, strings.Contains(info.ETag, `"`))
	for _, missing := range []string{"a/b", "a/b.txt/", "missing"} {
		_, err := store.Head(ctx, container, testPrefix+"/"+missing)
		be.True(t, errors.Is(err, fs.ErrNotExist))
	}
}

func testGet(t *testing.T, store objpath.Store, container string) {
	ctx := context.Background()
	key := testPrefix + "/a/b/c.txt"
	rc, err := store.Get(ctx, container, key)
	be.NilErr(t, err)
	b, err := io.ReadAll(rc)
	be.NilErr(t, err)
	be.NilErr(t, rc.Close())
	be.Equal(t, key, string(b))
	_, err = store.Get(ctx, container, testPrefix+"/missing")
	be.True(t, errors.Is(err, fs.ErrNotExist))
}

func testPut(t *testing.T, store objpath.Store, container string) {
	ctx := context.Background()
	type testCase struct {
		key  string
		body []byte
	}
	table := map[string]testCase{
		"new":        {key: "put/new.txt", body: []byte("new")},
		"replace":    {key: "a.txt", body: []byte("replaced")},
		"empty":      {key: "put/empty", body: []byte{}},
		"marker":     {key: "put/dir/", body: nil},
		"deep":       {key: "put/1/2/3/4/5/6.txt", body: []byte("6")},
		"with space": {key: "put/with space.txt", body: []byte("space")},
	}
	for name, tcase := range table {
		t.Run(name, func(t *testing.T) {
			key := testPrefix + "/" + tcase.key
			n, err := store.Put(ctx, container, key, bytes.NewReader(tcase.body))
			be.NilErr(t, err)
			be.Equal(t, int64(len(tcase.body)), n)
			info, err := store.Head(ctx, container, key)
			be.NilErr(t, err)
			be.Equal(t, int64(len(tcase.body)), info.Size)
			be.Equal(t, strings.HasSuffix(key, "/"), info.IsMarker())
		})
	}
}

func testCopy(t *testing.T, store objpath.Store, src, dst string) {
	ctx := context.Background()
	srcKey := testPrefix + "/a/b/c/d.txt"
	dstKey := testPrefix + "/copies/" + src + "/d.txt"
	be.NilErr(t, store.Copy(ctx, dst, dstKey, src, srcKey))
	srcInfo, err := store.Head(ctx, src, srcKey)
	be.NilErr(t, err)
	dstInfo, err := store.Head(ctx, dst, dstKey)
	be.NilErr(t, err)
	be.Equal(t, srcInfo.ETag, dstInfo.ETag)
	be.Equal(t, srcInfo.Size, dstInfo.Size)
	err = store.Copy(ctx, dst, dstKey, src, testPrefix+"/missing")
	be.True(t, errors.Is(err, fs.ErrNotExist))
}

func testDelete(t *testing.T, store objpath.Store, container string) {
	ctx := context.Background()
	key := testPrefix + "/delete/me"
	_, err := store.Put(ctx, container, key, strings.NewReader("me"))
	be.NilErr(t, err)
	be.NilErr(t, store.Delete(ctx, container, key))
	_, err = store.Head(ctx, container, key)
	be.True(t, errors.Is(err, fs.ErrNotExist))
	// deleting a missing key is not an error
	be.NilErr(t, store.Delete(ctx, container, key))
}
