package objpath

import (
	"context"
	"io"
	"iter"
	"time"
)

// Store is the flat object store that an FS is layered on. Containers are
// named top-level namespaces (buckets) and keys are literal strings.
// Implementations handle authentication, retries, and pagination.
type Store interface {
	// List returns an iterator over objects in container whose keys begin
	// with opts.Prefix, in lexicographic key order. If an error is yielded,
	// iteration terminates. An empty listing is not an error.
	List(ctx context.Context, container string, opts ListOptions) iter.Seq2[*ObjectInfo, error]
	// Head returns metadata for the object at key. If the object doesn't
	// exist, the error wraps fs.ErrNotExist.
	Head(ctx context.Context, container, key string) (*ObjectInfo, error)
	// Get returns the object's contents. If the object doesn't exist, the
	// error wraps fs.ErrNotExist.
	Get(ctx context.Context, container, key string) (io.ReadCloser, error)
	// Put creates or replaces the object at key with the contents of r.
	Put(ctx context.Context, container, key string, r io.Reader) (int64, error)
	// Copy copies an object, possibly between containers. It may not
	// preserve the source's integrity tag.
	Copy(ctx context.Context, dstContainer, dstKey, srcContainer, srcKey string) error
	// Delete removes the object at key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, container, key string) error
}

// ListOptions configure Store.List
type ListOptions struct {
	// Prefix filters the listing to keys that start with Prefix.
	Prefix string
	// Limit is the maximum number of objects to list. Zero or less means no
	// limit.
	Limit int
}

// ObjectInfo is metadata for an object in a Store.
type ObjectInfo struct {
	Key     string    // full key from the container root
	ETag    string    // integrity tag assigned by the store, without quotes
	Size    int64     // size in bytes
	ModTime time.Time // last modified
}

// IsMarker reports whether the object is a directory marker.
func (o *ObjectInfo) IsMarker() bool {
	return len(o.Key) > 0 && o.Key[len(o.Key)-1] == '/'
}
