// Package cloud implements objpath.Store for gocloud.dev/blob buckets.
package cloud

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"strings"

	"github.com/srerickson/objpath"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// Store is an objpath.Store for a set of named blob buckets. The container
// name in each Store call selects the bucket.
type Store struct {
	// Logger logs method calls (using the debug log level), if set
	Logger *slog.Logger

	buckets    map[string]*blob.Bucket
	writerOpts *blob.WriterOptions
}

var _ objpath.Store = (*Store)(nil)

type storeOption func(*Store)

// New returns a Store for the buckets, keyed by container name.
func New(buckets map[string]*blob.Bucket, opts ...storeOption) *Store {
	s := &Store{buckets: make(map[string]*blob.Bucket, len(buckets))}
	for name, b := range buckets {
		s.buckets[name] = b
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens buckets for each container name using gocloud URLs
// ("mem://", "file:///path", "s3://bucket?region=us-east-1", ...). Drivers
// must be registered by importing them.
func Open(ctx context.Context, urls map[string]string, opts ...storeOption) (*Store, error) {
	buckets := make(map[string]*blob.Bucket, len(urls))
	for name, u := range urls {
		b, err := blob.OpenBucket(ctx, u)
		if err != nil {
			for _, opened := range buckets {
				opened.Close()
			}
			return nil, fmt.Errorf("opening bucket for container %q: %w", name, err)
		}
		buckets[name] = b
	}
	return New(buckets, opts...), nil
}

// WithLogger sets the Store's logger.
func WithLogger(l *slog.Logger) storeOption {
	return func(s *Store) {
		s.Logger = l
	}
}

// WithWriterOptions sets options used for writing blobs.
func WithWriterOptions(opts *blob.WriterOptions) storeOption {
	return func(s *Store) {
		s.writerOpts = opts
	}
}

// Close closes all buckets.
func (s *Store) Close() error {
	var errs []error
	for _, b := range s.buckets {
		errs = append(errs, b.Close())
	}
	return errors.Join(errs...)
}

func (s *Store) List(ctx context.Context, container string, opts objpath.ListOptions) iter.Seq2[*objpath.ObjectInfo, error] {
	s.debugLog(ctx, "cloud:list", "container", container, "prefix", opts.Prefix, "limit", opts.Limit)
	return func(yield func(*objpath.ObjectInfo, error) bool) {
		b, err := s.bucket("list", container)
		if err != nil {
			yield(nil, err)
			return
		}
		it := b.List(&blob.ListOptions{Prefix: opts.Prefix})
		count := 0
		for {
			obj, err := it.Next(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(nil, pathErr("list", opts.Prefix, err))
				return
			}
			info := &objpath.ObjectInfo{
				Key:     obj.Key,
				ETag:    objectTag(obj.MD5, ""),
				Size:    obj.Size,
				ModTime: obj.ModTime,
			}
			if info.ETag == "" {
				// listings don't include driver ETags
				attrs, err := b.Attributes(ctx, obj.Key)
				switch {
				case gcerrors.Code(err) == gcerrors.NotFound:
					continue
				case err != nil:
					yield(nil, pathErr("list", obj.Key, err))
					return
				}
				info.ETag = objectTag(attrs.MD5, attrs.ETag)
			}
			if !yield(info, nil) {
				return
			}
			count++
			if opts.Limit > 0 && count >= opts.Limit {
				return
			}
		}
	}
}

func (s *Store) Head(ctx context.Context, container, key string) (*objpath.ObjectInfo, error) {
	s.debugLog(ctx, "cloud:head", "container", container, "key", key)
	b, err := s.bucket("head", container)
	if err != nil {
		return nil, err
	}
	attrs, err := b.Attributes(ctx, key)
	if err != nil {
		return nil, pathErr("head", key, notExist(err))
	}
	return &objpath.ObjectInfo{
		Key:     key,
		ETag:    objectTag(attrs.MD5, attrs.ETag),
		Size:    attrs.Size,
		ModTime: attrs.ModTime,
	}, nil
}

// objectTag returns the hex-encoded MD5 if the driver reports one and
// otherwise the driver's ETag without quotes. MD5 is stable across buckets;
// driver ETags may not be.
func objectTag(md5 []byte, etag string) string {
	if len(md5) > 0 {
		return hex.EncodeToString(md5)
	}
	return strings.Trim(etag, `"`)
}

func (s *Store) Get(ctx context.Context, container, key string) (io.ReadCloser, error) {
	s.debugLog(ctx, "cloud:get", "container", container, "key", key)
	b, err := s.bucket("get", container)
	if err != nil {
		return nil, err
	}
	reader, err := b.NewReader(ctx, key, nil)
	if err != nil {
		return nil, pathErr("get", key, notExist(err))
	}
	return reader, nil
}

func (s *Store) Put(ctx context.Context, container, key string, r io.Reader) (int64, error) {
	s.debugLog(ctx, "cloud:put", "container", container, "key", key)
	b, err := s.bucket("put", container)
	if err != nil {
		return 0, err
	}
	writer, err := b.NewWriter(ctx, key, s.writerOpts)
	if err != nil {
		return 0, pathErr("put", key, err)
	}
	n, writeErr := writer.ReadFrom(r)
	closeErr := writer.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		return n, pathErr("put", key, err)
	}
	return n, nil
}

// Copy uses the bucket's server-side copy if both containers are the same
// bucket. Otherwise the object is streamed between buckets.
func (s *Store) Copy(ctx context.Context, dstContainer, dstKey, srcContainer, srcKey string) error {
	s.debugLog(ctx, "cloud:copy", "src_container", srcContainer, "src", srcKey, "dst_container", dstContainer, "dst", dstKey)
	srcBucket, err := s.bucket("copy", srcContainer)
	if err != nil {
		return err
	}
	dstBucket, err := s.bucket("copy", dstContainer)
	if err != nil {
		return err
	}
	if srcBucket == dstBucket {
		if err := srcBucket.Copy(ctx, dstKey, srcKey, nil); err != nil {
			return pathErr("copy", srcKey, notExist(err))
		}
		return nil
	}
	reader, err := srcBucket.NewReader(ctx, srcKey, nil)
	if err != nil {
		return pathErr("copy", srcKey, notExist(err))
	}
	defer reader.Close()
	writer, err := dstBucket.NewWriter(ctx, dstKey, s.writerOpts)
	if err != nil {
		return pathErr("copy", dstKey, err)
	}
	_, writeErr := writer.ReadFrom(reader)
	closeErr := writer.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		return pathErr("copy", dstKey, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, container, key string) error {
	s.debugLog(ctx, "cloud:delete", "container", container, "key", key)
	b, err := s.bucket("delete", container)
	if err != nil {
		return err
	}
	if err := b.Delete(ctx, key); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil
		}
		return pathErr("delete", key, err)
	}
	return nil
}

// ErrUnknownContainer is returned when a container name has no bucket.
var ErrUnknownContainer = errors.New("unknown container")

func (s *Store) bucket(op string, container string) (*blob.Bucket, error) {
	b, ok := s.buckets[container]
	if !ok {
		return nil, pathErr(op, container, ErrUnknownContainer)
	}
	return b, nil
}

func (s *Store) debugLog(ctx context.Context, msg string, args ...any) {
	if s.Logger != nil {
		s.Logger.DebugContext(ctx, msg, args...)
	}
}

// pathErr makes fs.PathError errors
func pathErr(op string, path string, err error) error {
	return &fs.PathError{Op: op, Path: path, Err: err}
}

func notExist(err error) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return errors.Join(fs.ErrNotExist, err)
	}
	return err
}
