package objpath

import (
	"context"
	"errors"
	"io"
	"io/fs"
)

// Open returns a reader for the contents of the file at p. The caller must
// close it.
func (fsys *FS) Open(ctx context.Context, p PathInfo) (io.ReadCloser, error) {
	const op = "open"
	fsys.debugLog(ctx, "objpath:open", "path", p.String())
	if !p.valid() {
		return nil, pathErr(op, p, fs.ErrInvalid)
	}
	if p.IsRoot() || p.TrailingSlash() {
		return nil, pathErr(op, p, ErrNotFile)
	}
	rc, err := fsys.Store.Get(ctx, p.container, p.key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pathErr(op, p, fs.ErrNotExist)
		}
		return nil, storeErr("get", p, err)
	}
	return rc, nil
}

// ReadFile returns the contents of the file at p.
func (fsys *FS) ReadFile(ctx context.Context, p PathInfo) (_ []byte, err error) {
	rc, err := fsys.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, storeErr("get", p, err)
	}
	return b, nil
}

// WriteFile creates or replaces the file at p with the contents of r and
// returns the number of bytes written.
func (fsys *FS) WriteFile(ctx context.Context, p PathInfo, r io.Reader) (int64, error) {
	const op = "write"
	fsys.debugLog(ctx, "objpath:write", "path", p.String())
	if !p.valid() {
		return 0, pathErr(op, p, fs.ErrInvalid)
	}
	if p.IsRoot() || p.TrailingSlash() {
		return 0, pathErr(op, p, ErrNotFile)
	}
	n, err := fsys.Store.Put(ctx, p.container, p.key, r)
	if err != nil {
		return n, storeErr("put", p, err)
	}
	return n, nil
}
