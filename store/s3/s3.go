package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"net/url"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3mgr "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/srerickson/objpath"
)

const (
	megabyte int64 = 1024 * 1024

	partSizeIncrement = 1 * megabyte

	copySrcTooLarge = "copy source is larger than the maximum allowable size"
)

var maxKeys int32 = 1000

func list(ctx context.Context, api ListAPI, buck string, prefix string, limit int) iter.Seq2[*objpath.ObjectInfo, error] {
	return func(yield func(*objpath.ObjectInfo, error) bool) {
		params := &s3v2.ListObjectsV2Input{
			Bucket:  &buck,
			MaxKeys: aws.Int32(maxKeys),
		}
		if prefix != "" {
			params.Prefix = aws.String(prefix)
		}
		if limit > 0 && limit < int(maxKeys) {
			params.MaxKeys = aws.Int32(int32(limit))
		}
		count := 0
		for {
			page, err := api.ListObjectsV2(ctx, params)
			if err != nil {
				yield(nil, pathErr("list", prefix, err))
				return
			}
			for _, obj := range page.Contents {
				info := &objpath.ObjectInfo{
					Key:     aws.ToString(obj.Key),
					ETag:    unquote(aws.ToString(obj.ETag)),
					Size:    aws.ToInt64(obj.Size),
					ModTime: aws.ToTime(obj.LastModified),
				}
				if !yield(info, nil) {
					return
				}
				count++
				if limit > 0 && count >= limit {
					return
				}
			}
			params.ContinuationToken = page.NextContinuationToken
			if params.ContinuationToken == nil {
				break
			}
		}
	}
}

func head(ctx context.Context, api HeadAPI, buck string, key string) (*objpath.ObjectInfo, error) {
	if key == "" {
		return nil, pathErr("head", key, fs.ErrInvalid)
	}
	obj, err := api.HeadObject(ctx, &s3v2.HeadObjectInput{Bucket: &buck, Key: &key})
	if err != nil {
		return nil, pathErr("head", key, notExist(err))
	}
	return &objpath.ObjectInfo{
		Key:     key,
		ETag:    unquote(aws.ToString(obj.ETag)),
		Size:    aws.ToInt64(obj.ContentLength),
		ModTime: aws.ToTime(obj.LastModified),
	}, nil
}

func get(ctx context.Context, api GetAPI, buck string, key string) (io.ReadCloser, error) {
	if key == "" {
		return nil, pathErr("get", key, fs.ErrInvalid)
	}
	obj, err := api.GetObject(ctx, &s3v2.GetObjectInput{Bucket: &buck, Key: &key})
	if err != nil {
		return nil, pathErr("get", key, notExist(err))
	}
	return obj.Body, nil
}

func put(ctx context.Context, api PutAPI, buck string, key string, r io.Reader, opts ...func(*s3mgr.Uploader)) (int64, error) {
	if key == "" {
		return 0, pathErr("put", key, fs.ErrInvalid)
	}
	uploader := s3mgr.NewUploader(api, opts...)
	countReader := &countReader{Reader: r}
	params := &s3v2.PutObjectInput{
		Bucket: &buck,
		Key:    &key,
		Body:   countReader,
	}
	if _, err := uploader.Upload(ctx, params); err != nil {
		return 0, pathErr("put", key, err)
	}
	return countReader.size, nil
}

func copyObject(ctx context.Context, api CopyAPI, copier *MultiCopier, dstBuck, dst, srcBuck, src string) error {
	if src == "" {
		return pathErr("copy", src, fs.ErrInvalid)
	}
	if dst == "" {
		return pathErr("copy", dst, fs.ErrInvalid)
	}
	srcHead, err := api.HeadObject(ctx, &s3v2.HeadObjectInput{Bucket: &srcBuck, Key: &src})
	if err != nil {
		return pathErr("copy", src, notExist(err))
	}
	if multipartETag(aws.ToString(srcHead.ETag)) {
		// A basic copy would give the destination an ETag for a single
		// part. Copying with the source's part size reproduces the
		// source's ETag.
		partHead, err := api.HeadObject(ctx, &s3v2.HeadObjectInput{
			Bucket:     &srcBuck,
			Key:        &src,
			PartNumber: aws.Int32(1),
		})
		if err != nil {
			return pathErr("copy", src, err)
		}
		psize := aws.ToInt64(partHead.ContentLength)
		return copier.CopyParts(ctx, dstBuck, dst, srcBuck, src, aws.ToInt64(srcHead.ContentLength), psize)
	}
	copySource := url.QueryEscape(srcBuck + "/" + src)
	params := &s3v2.CopyObjectInput{
		Bucket:     &dstBuck,
		CopySource: &copySource,
		Key:        &dst,
	}
	if _, err := api.CopyObject(ctx, params); err != nil {
		// if the source is too large, try multipart copy.
		// this error doesn't seem to have a specific type
		// associated with it.
		if strings.Contains(err.Error(), copySrcTooLarge) {
			_, err = copier.Copy(ctx, dstBuck, dst, srcBuck, src, srcHead)
			return err
		}
		return pathErr("copy", src, err)
	}
	return nil
}

func remove(ctx context.Context, api DeleteAPI, buck string, key string) error {
	if key == "" {
		return pathErr("delete", key, fs.ErrInvalid)
	}
	_, err := api.DeleteObject(ctx, &s3v2.DeleteObjectInput{
		Bucket: &buck,
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return pathErr("delete", key, err)
	}
	return nil
}

// countReader is a reader that updates a size counter with each read.
type countReader struct {
	io.Reader
	size int64
}

func (r *countReader) Read(p []byte) (int, error) {
	s, err := r.Reader.Read(p)
	r.size += int64(s)
	return s, err
}

// pathErr makes fs.PathError errors
func pathErr(op string, path string, err error) error {
	return &fs.PathError{Op: op, Path: path, Err: err}
}

// notExist joins fs.ErrNotExist to err if it is an S3 not found
// error.
func notExist(err error) error {
	if isNotFound(err) {
		return errors.Join(fs.ErrNotExist, err)
	}
	return err
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

func unquote(etag string) string {
	return strings.Trim(etag, `"`)
}

// multipartETag returns true if etag has the form of an ETag for an object
// uploaded in parts: "<md5 hex>-<part count>".
func multipartETag(etag string) bool {
	_, count, found := strings.Cut(unquote(etag), "-")
	if !found {
		return false
	}
	n, err := strconv.Atoi(count)
	return err == nil && n > 0
}

func adjustPartSize(total, defaultPartSize int64, maxParts int32) (psize int64, pcount int32) {
	psize = defaultPartSize
	for {
		pcount = int32(total / psize)
		if pcount < maxParts {
			break
		}
		psize += partSizeIncrement
	}
	if total%psize > 0 {
		pcount++
	}
	return
}

func byteRange(partNum int32, partSize, totalSize int64) string {
	// aws: The range of bytes to copy from the source object. The range value must
	// use the form bytes=first-last, where the first and last are the zero-based byte
	// offsets to copy.
	start := (int64(partNum) - 1) * partSize
	end := int64(partNum)*partSize - 1
	if max := totalSize - 1; end > max {
		end = max
	}
	return fmt.Sprintf("bytes=%d-%d", start, end)
}
