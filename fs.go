// Package objpath provides directory semantics for flat object stores. It
// answers existence and directory queries, enumerates files, copies objects
// with integrity-tag verification, and creates and removes pseudo-directories
// using only a Store's list, head, get, put, copy and delete primitives.
package objpath

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
)

const (
	defaultCopyAttempts      = 3
	defaultRemoveConcurrency = 8
)

// FS interprets paths in a Store as files and directories. An FS holds no
// state besides its configuration and is safe for concurrent use.
type FS struct {
	// Store is the underlying object store (required).
	Store Store
	// Logger logs method calls (using the debug log level), if set
	Logger *slog.Logger
	// CopyAttempts is the maximum number of times Copy tries to produce a
	// destination with a matching integrity tag. Defaults to 3.
	CopyAttempts int
	// RemoveConcurrency is the number of concurrent deletes used by Remove
	// for directories. Defaults to 8.
	RemoveConcurrency int
}

// NewFS returns a new FS for store.
func NewFS(store Store) *FS {
	return &FS{Store: store}
}

// Exists returns true if p is a file or a directory. The container root
// always exists. Paths with a trailing separator exist only as directories.
func (fsys *FS) Exists(ctx context.Context, p PathInfo) (bool, error) {
	fsys.debugLog(ctx, "objpath:exists", "path", p.String())
	if !p.valid() {
		return false, pathErr("exists", p, fs.ErrInvalid)
	}
	if p.IsRoot() {
		return true, nil
	}
	isFile, err := fsys.IsFile(ctx, p)
	if err != nil {
		return false, err
	}
	if isFile {
		return true, nil
	}
	return fsys.isDir(ctx, p)
}

// IsDir returns true if p is the container root, if a directory marker for p
// exists, or if any object has a key under p.
func (fsys *FS) IsDir(ctx context.Context, p PathInfo) (bool, error) {
	fsys.debugLog(ctx, "objpath:isdir", "path", p.String())
	if !p.valid() {
		return false, pathErr("isdir", p, fs.ErrInvalid)
	}
	return fsys.isDir(ctx, p)
}

// IsFile returns true if an object exists with exactly p's key. It is always
// false for the container root and for paths with a trailing separator.
func (fsys *FS) IsFile(ctx context.Context, p PathInfo) (bool, error) {
	if !p.valid() {
		return false, pathErr("isfile", p, fs.ErrInvalid)
	}
	_, err := fsys.head(ctx, p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFile):
		return false, nil
	default:
		return false, err
	}
}

// Stat returns the store's metadata for the file at p. If p is not a file,
// the error wraps ErrNotFile.
func (fsys *FS) Stat(ctx context.Context, p PathInfo) (*ObjectInfo, error) {
	fsys.debugLog(ctx, "objpath:stat", "path", p.String())
	if !p.valid() {
		return nil, pathErr("stat", p, fs.ErrInvalid)
	}
	return fsys.head(ctx, p)
}

func (fsys *FS) isDir(ctx context.Context, p PathInfo) (bool, error) {
	if p.IsRoot() {
		return true, nil
	}
	// a marker object (key + "/") also matches the prefix
	opts := ListOptions{Prefix: p.dirPrefix(), Limit: 1}
	for _, err := range fsys.Store.List(ctx, p.container, opts) {
		if err != nil {
			return false, storeErr("list", p, err)
		}
		return true, nil
	}
	return false, nil
}

// head returns metadata for the file at p. If p doesn't name a file, the
// error wraps ErrNotFile and, for missing keys, fs.ErrNotExist.
func (fsys *FS) head(ctx context.Context, p PathInfo) (*ObjectInfo, error) {
	if p.IsRoot() || p.TrailingSlash() {
		return nil, pathErr("head", p, ErrNotFile)
	}
	info, err := fsys.Store.Head(ctx, p.container, p.key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pathErr("head", p, errors.Join(ErrNotFile, fs.ErrNotExist))
		}
		return nil, storeErr("head", p, err)
	}
	return info, nil
}

func (fsys *FS) debugLog(ctx context.Context, msg string, args ...any) {
	if fsys.Logger != nil {
		fsys.Logger.DebugContext(ctx, msg, args...)
	}
}

// pathErr makes fs.PathError errors
func pathErr(op string, p PathInfo, err error) error {
	return &fs.PathError{Op: op, Path: p.String(), Err: err}
}
