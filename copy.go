package objpath

import (
	"context"
	"io/fs"
)

// Copy copies the file at from to the path to, which may be in a different
// container. If to is a container root or has a trailing separator, the file
// is copied into that directory using from's name. After the store's copy,
// the destination's integrity tag is read back and compared to the source's.
// If the tags differ, the copy is repeated up to CopyAttempts times before
// Copy fails with an *IntegrityError. Copy does not copy directories.
func (fsys *FS) Copy(ctx context.Context, from, to PathInfo) error {
	const op = "copy"
	fsys.debugLog(ctx, "objpath:copy", "from", from.String(), "to", to.String())
	if !from.valid() {
		return pathErr(op, from, fs.ErrInvalid)
	}
	if !to.valid() {
		return pathErr(op, to, fs.ErrInvalid)
	}
	src, err := fsys.head(ctx, from)
	if err != nil {
		return err
	}
	if to.IsRoot() || to.TrailingSlash() {
		to = to.Join(from.Name())
	}
	if to.Equal(from) {
		return nil
	}
	attempts := fsys.CopyAttempts
	if attempts < 1 {
		attempts = defaultCopyAttempts
	}
	var got string
	for i := 1; i <= attempts; i++ {
		if err := fsys.Store.Copy(ctx, to.container, to.key, from.container, from.key); err != nil {
			return storeErr(op, from, err)
		}
		dst, err := fsys.Store.Head(ctx, to.container, to.key)
		if err != nil {
			return storeErr(op, to, err)
		}
		got = dst.ETag
		if got == src.ETag {
			return nil
		}
		if fsys.Logger != nil {
			fsys.Logger.WarnContext(ctx, "copied object has a different integrity tag",
				"from", from.String(), "to", to.String(),
				"want", src.ETag, "got", got, "attempt", i)
		}
	}
	return &IntegrityError{
		From:     from.String(),
		To:       to.String(),
		Want:     src.ETag,
		Got:      got,
		Attempts: attempts,
	}
}

// GetETag returns the integrity tag for the file at p.
func (fsys *FS) GetETag(ctx context.Context, p PathInfo) (string, error) {
	info, err := fsys.Stat(ctx, p)
	if err != nil {
		return "", err
	}
	return info.ETag, nil
}
