package objpath

import (
	"context"
	"errors"
	"io/fs"
	"iter"
)

// WalkFiles returns an iterator that yields the path of every file at or under
// root, in lexicographic key order. Directory markers are never yielded. If
// root is itself a file, it is yielded first. The iterator yields at most one
// error, after which iteration stops; paths yielded before the error remain
// valid. Each iteration starts a new listing. Keys with empty segments, like
// "a//b", are yielded as normalized paths ("a/b") that don't name the listed
// object; use Walk for the exact keys.
func (fsys *FS) WalkFiles(ctx context.Context, root PathInfo) iter.Seq2[PathInfo, error] {
	return func(yield func(PathInfo, error) bool) {
		for info, err := range fsys.Walk(ctx, root) {
			if err != nil {
				yield(PathInfo{}, err)
				return
			}
			if !yield(NewPath(root.container, info.Key), nil) {
				return
			}
		}
	}
}

// Walk is like WalkFiles, except it yields the *ObjectInfo from the listing
// for each file.
func (fsys *FS) Walk(ctx context.Context, root PathInfo) iter.Seq2[*ObjectInfo, error] {
	return func(yield func(*ObjectInfo, error) bool) {
		const op = "walk"
		fsys.debugLog(ctx, "objpath:walk", "path", root.String())
		if !root.valid() {
			yield(nil, pathErr(op, root, fs.ErrInvalid))
			return
		}
		if !root.IsRoot() && !root.TrailingSlash() {
			// Keys like "a-b" sort between "a" and "a/", so the file at
			// root is found with head rather than by listing "a".
			info, err := fsys.head(ctx, root)
			switch {
			case err == nil:
				if !yield(info, nil) {
					return
				}
			case !errors.Is(err, ErrNotFile):
				yield(nil, err)
				return
			}
		}
		opts := ListOptions{Prefix: root.dirPrefix()}
		for info, err := range fsys.Store.List(ctx, root.container, opts) {
			if err != nil {
				yield(nil, storeErr("list", root, err))
				return
			}
			if err := ctx.Err(); err != nil {
				yield(nil, pathErr(op, root, err))
				return
			}
			if info.IsMarker() {
				continue
			}
			if !yield(info, nil) {
				return
			}
		}
	}
}
