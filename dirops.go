package objpath

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Makedirs ensures p is a directory. If p is not already a directory (by
// marker or by objects under it), a zero-length marker object is created
// with p's key and a trailing separator. Existing objects are never
// overwritten.
func (fsys *FS) Makedirs(ctx context.Context, p PathInfo) error {
	const op = "makedirs"
	fsys.debugLog(ctx, "objpath:makedirs", "path", p.String())
	if !p.valid() {
		return pathErr(op, p, fs.ErrInvalid)
	}
	isDir, err := fsys.isDir(ctx, p)
	if err != nil {
		return err
	}
	if isDir {
		return nil
	}
	if _, err := fsys.Store.Put(ctx, p.container, p.dirPrefix(), bytes.NewReader(nil)); err != nil {
		return storeErr(op, p, err)
	}
	return nil
}

// Remove deletes the file at p or, if p is a directory, every object under
// p including directory markers. If p is both a file and a directory, only
// the file is removed unless p has a trailing separator. Removing a path that
// doesn't exist is not an error. Removing a container root deletes every
// object in the container. Directory removal is not atomic: if any object
// can't be deleted, the returned *PartialDeleteError lists the keys that may
// remain. If ctx is canceled, no new deletes are started and listed keys
// that weren't deleted are reported with the context's error.
func (fsys *FS) Remove(ctx context.Context, p PathInfo) error {
	const op = "remove"
	fsys.debugLog(ctx, "objpath:remove", "path", p.String())
	if !p.valid() {
		return pathErr(op, p, fs.ErrInvalid)
	}
	if !p.IsRoot() && !p.TrailingSlash() {
		isFile, err := fsys.IsFile(ctx, p)
		if err != nil {
			return err
		}
		if isFile {
			if err := fsys.Store.Delete(ctx, p.container, p.key); err != nil {
				return storeErr(op, p, err)
			}
			return nil
		}
	}
	return fsys.removeAll(ctx, p)
}

// removeAll deletes all objects under the directory p. The listing itself
// determines whether p is a directory; an empty listing means there is
// nothing to remove.
func (fsys *FS) removeAll(ctx context.Context, p PathInfo) error {
	conc := fsys.RemoveConcurrency
	if conc < 1 {
		conc = defaultRemoveConcurrency
	}
	var (
		failedMx sync.Mutex
		failed   = map[string]error{}
		markers  []string
		listErr  error
	)
	fail := func(key string, err error) {
		failedMx.Lock()
		defer failedMx.Unlock()
		failed[key] = err
	}
	// errors are collected in failed, not returned to the group, so one
	// failed delete doesn't stop the others.
	var grp errgroup.Group
	grp.SetLimit(conc)
	for info, err := range fsys.Store.List(ctx, p.container, ListOptions{Prefix: p.dirPrefix()}) {
		if err != nil {
			listErr = storeErr("list", p, err)
			break
		}
		key := info.Key
		if info.IsMarker() {
			markers = append(markers, key)
			continue
		}
		if err := ctx.Err(); err != nil {
			fail(key, err)
			continue
		}
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				fail(key, err)
				return nil
			}
			if err := fsys.Store.Delete(ctx, p.container, key); err != nil {
				fail(key, err)
			}
			return nil
		})
	}
	grp.Wait()
	// markers go last, deepest first, so a partial failure leaves the tree
	// discoverable.
	slices.SortFunc(markers, func(a, b string) int {
		if c := strings.Count(b, Separator) - strings.Count(a, Separator); c != 0 {
			return c
		}
		return strings.Compare(b, a)
	})
	for _, key := range markers {
		if err := ctx.Err(); err != nil {
			fail(key, err)
			continue
		}
		if len(failed) > 0 || listErr != nil {
			fail(key, errors.New("not attempted: other deletes failed"))
			continue
		}
		if err := fsys.Store.Delete(ctx, p.container, key); err != nil {
			fail(key, err)
		}
	}
	if len(failed) > 0 || listErr != nil {
		return &PartialDeleteError{Path: p.String(), Failed: failed, Err: listErr}
	}
	return nil
}
