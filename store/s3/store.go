// Package s3 implements objpath.Store for S3-compatible object stores using
// the AWS SDK for Go v2. Containers are buckets.
package s3

import (
	"context"
	"io"
	"iter"
	"log/slog"

	s3mgr "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/srerickson/objpath"
)

// Store implements objpath.Store for buckets accessible through an S3 API.
type Store struct {
	// S3 implementation (required).
	S3 S3API
	// Logger logs method calls (using the debug log level), if set
	Logger *slog.Logger

	// UploaderOption is used to configure the upload manager used in Put.
	UploaderOption func(*s3mgr.Uploader)

	// MultiPartCopyOption is used to configure multipart copies.
	MultiPartCopyOption func(*MultiCopier)
}

var _ objpath.Store = (*Store)(nil)

// New returns a new Store using api.
func New(api S3API) *Store {
	return &Store{S3: api}
}

func (s *Store) List(ctx context.Context, bucket string, opts objpath.ListOptions) iter.Seq2[*objpath.ObjectInfo, error] {
	s.debugLog(ctx, "s3:list", "bucket", bucket, "prefix", opts.Prefix, "limit", opts.Limit)
	return list(ctx, s.S3, bucket, opts.Prefix, opts.Limit)
}

func (s *Store) Head(ctx context.Context, bucket, key string) (*objpath.ObjectInfo, error) {
	s.debugLog(ctx, "s3:head", "bucket", bucket, "key", key)
	return head(ctx, s.S3, bucket, key)
}

func (s *Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	s.debugLog(ctx, "s3:get", "bucket", bucket, "key", key)
	return get(ctx, s.S3, bucket, key)
}

func (s *Store) Put(ctx context.Context, bucket, key string, r io.Reader) (int64, error) {
	s.debugLog(ctx, "s3:put", "bucket", bucket, "key", key)
	if s.UploaderOption == nil {
		return put(ctx, s.S3, bucket, key, r)
	}
	return put(ctx, s.S3, bucket, key, r, s.UploaderOption)
}

// Copy copies srcKey in srcBucket to dstKey in dstBucket using server-side
// copy operations. Objects with multipart ETags are copied part by part
// using the source's part size, so the destination has the same ETag.
func (s *Store) Copy(ctx context.Context, dstBucket, dstKey, srcBucket, srcKey string) error {
	s.debugLog(ctx, "s3:copy", "src_bucket", srcBucket, "src", srcKey, "dst_bucket", dstBucket, "dst", dstKey)
	copier := NewMultiCopier(s.S3, s.MultiPartCopyOption)
	return copyObject(ctx, s.S3, copier, dstBucket, dstKey, srcBucket, srcKey)
}

func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	s.debugLog(ctx, "s3:delete", "bucket", bucket, "key", key)
	return remove(ctx, s.S3, bucket, key)
}

type S3API interface {
	ListAPI
	HeadAPI
	GetAPI
	PutAPI
	CopyAPI
	DeleteAPI
}

// ListAPI includes S3 methods needed for List()
type ListAPI interface {
	ListObjectsV2(context.Context, *s3v2.ListObjectsV2Input, ...func(*s3v2.Options)) (*s3v2.ListObjectsV2Output, error)
}

// HeadAPI includes S3 methods needed for Head()
type HeadAPI interface {
	HeadObject(context.Context, *s3v2.HeadObjectInput, ...func(*s3v2.Options)) (*s3v2.HeadObjectOutput, error)
}

// GetAPI includes S3 methods needed for Get()
type GetAPI interface {
	GetObject(context.Context, *s3v2.GetObjectInput, ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error)
}

// PutAPI includes S3 methods needed for Put()
type PutAPI interface {
	PutObject(context.Context, *s3v2.PutObjectInput, ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error)
	UploadPart(context.Context, *s3v2.UploadPartInput, ...func(*s3v2.Options)) (*s3v2.UploadPartOutput, error)
	CreateMultipartUpload(context.Context, *s3v2.CreateMultipartUploadInput, ...func(*s3v2.Options)) (*s3v2.CreateMultipartUploadOutput, error)
	CompleteMultipartUpload(context.Context, *s3v2.CompleteMultipartUploadInput, ...func(*s3v2.Options)) (*s3v2.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(context.Context, *s3v2.AbortMultipartUploadInput, ...func(*s3v2.Options)) (*s3v2.AbortMultipartUploadOutput, error)
}

// CopyAPI includes S3 methods needed for Copy()
type CopyAPI interface {
	MultiCopyAPI
	CopyObject(context.Context, *s3v2.CopyObjectInput, ...func(*s3v2.Options)) (*s3v2.CopyObjectOutput, error)
}

// MultiCopyAPI includes S3 methods needed for multipart copies.
type MultiCopyAPI interface {
	HeadObject(context.Context, *s3v2.HeadObjectInput, ...func(*s3v2.Options)) (*s3v2.HeadObjectOutput, error)
	CreateMultipartUpload(context.Context, *s3v2.CreateMultipartUploadInput, ...func(*s3v2.Options)) (*s3v2.CreateMultipartUploadOutput, error)
	UploadPartCopy(context.Context, *s3v2.UploadPartCopyInput, ...func(*s3v2.Options)) (*s3v2.UploadPartCopyOutput, error)
	CompleteMultipartUpload(context.Context, *s3v2.CompleteMultipartUploadInput, ...func(*s3v2.Options)) (*s3v2.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(context.Context, *s3v2.AbortMultipartUploadInput, ...func(*s3v2.Options)) (*s3v2.AbortMultipartUploadOutput, error)
}

// DeleteAPI includes S3 methods needed for Delete()
type DeleteAPI interface {
	DeleteObject(context.Context, *s3v2.DeleteObjectInput, ...func(*s3v2.Options)) (*s3v2.DeleteObjectOutput, error)
}

func (s *Store) debugLog(ctx context.Context, msg string, args ...any) {
	if s.Logger != nil {
		s.Logger.DebugContext(ctx, msg, args...)
	}
}
