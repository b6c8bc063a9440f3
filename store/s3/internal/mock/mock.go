// Package mock provides an in-memory S3 API for testing.
package mock

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/srerickson/objpath/store/s3"
)

var byteRangeRE = regexp.MustCompile(`^bytes=\d+-\d+$`)

// New returns an S3API with the named buckets, which are initially empty.
func New(buckets ...string) *S3API {
	api := &S3API{
		buckets: make(map[string]map[string]*Object, len(buckets)),
		uploads: map[string]*upload{},
	}
	for _, b := range buckets {
		api.buckets[b] = map[string]*Object{}
	}
	return api
}

// S3API is an in-memory implementation of s3.S3API. It is safe for
// concurrent use.
type S3API struct {
	// CopyObjectFunc, if set, replaces the default CopyObject
	// implementation.
	CopyObjectFunc func(context.Context, *s3v2.CopyObjectInput, ...func(*s3v2.Options)) (*s3v2.CopyObjectOutput, error)
	// DeleteObjectFunc, if set, is called before each delete; a non-nil
	// error is returned instead of deleting.
	DeleteObjectFunc func(bucket, key string) error
	// ListErr, if set, is returned by ListObjectsV2.
	ListErr error

	mx       sync.Mutex
	buckets  map[string]map[string]*Object
	uploads  map[string]*upload
	nextID   int
	listReqs []s3v2.ListObjectsV2Input
	MPUCount int // completed multipart uploads
}

// Object is an object stored in a bucket.
type Object struct {
	Key          string
	Body         []byte
	ETag         string // quoted, as returned by S3
	LastModified time.Time
	// PartSizes are the sizes of each part for objects created by
	// multipart upload.
	PartSizes []int64
}

type upload struct {
	bucket string
	key    string
	parts  map[int32][]byte
}

// Put adds an object to bucket with an ETag computed from body. If partSize
// is given, the object is stored as though it were uploaded in parts of that
// size.
func (m *S3API) Put(bucket, key string, body []byte, partSize ...int64) *Object {
	obj := &Object{
		Key:          key,
		Body:         body,
		LastModified: time.Now(),
	}
	if len(partSize) > 0 && partSize[0] > 0 {
		psize := partSize[0]
		for off := int64(0); off < int64(len(body)); off += psize {
			obj.PartSizes = append(obj.PartSizes, min(psize, int64(len(body))-off))
		}
		obj.ETag = ETag(body, psize)
	} else {
		obj.ETag = `"` + md5hex(body) + `"`
	}
	m.mx.Lock()
	defer m.mx.Unlock()
	b, ok := m.buckets[bucket]
	if !ok {
		b = map[string]*Object{}
		m.buckets[bucket] = b
	}
	b[key] = obj
	return obj
}

// Object returns the object in bucket with key, or nil.
func (m *S3API) Object(bucket, key string) *Object {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.buckets[bucket][key]
}

// Keys returns all keys in bucket in sorted order
func (m *S3API) Keys(bucket string) []string {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.objectKeys(bucket)
}

// ListRequests returns copies of all ListObjectsV2 inputs received.
func (m *S3API) ListRequests() []s3v2.ListObjectsV2Input {
	m.mx.Lock()
	defer m.mx.Unlock()
	return slices.Clone(m.listReqs)
}

func (m *S3API) HeadObject(ctx context.Context, in *s3v2.HeadObjectInput, opts ...func(*s3v2.Options)) (*s3v2.HeadObjectOutput, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	obj, err := m.getObject(in.Bucket, in.Key)
	if err != nil {
		if errors.As(err, new(*types.NoSuchKey)) {
			// HEAD responses have no body, so S3 always reports NotFound
			return nil, &types.NotFound{}
		}
		return nil, err
	}
	out := &s3v2.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.Body))),
		ETag:          aws.String(obj.ETag),
		LastModified:  aws.Time(obj.LastModified),
	}
	if in.PartNumber != nil && len(obj.PartSizes) > 0 {
		num := *in.PartNumber
		if num < 1 || int(num) > len(obj.PartSizes) {
			return nil, errors.New("invalid part number")
		}
		out.ContentLength = aws.Int64(obj.PartSizes[num-1])
		out.PartsCount = aws.Int32(int32(len(obj.PartSizes)))
	}
	return out, nil
}

func (m *S3API) GetObject(ctx context.Context, in *s3v2.GetObjectInput, opts ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	obj, err := m.getObject(in.Bucket, in.Key)
	if err != nil {
		return nil, err
	}
	return &s3v2.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.Body)),
		ContentLength: aws.Int64(int64(len(obj.Body))),
		ETag:          aws.String(obj.ETag),
		LastModified:  aws.Time(obj.LastModified),
	}, nil
}

func (m *S3API) ListObjectsV2(ctx context.Context, in *s3v2.ListObjectsV2Input, opts ...func(*s3v2.Options)) (*s3v2.ListObjectsV2Output, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.listReqs = append(m.listReqs, *in)
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	if err := m.bucketOK(in.Bucket); err != nil {
		return nil, err
	}
	maxkeys := 1000
	if in.MaxKeys != nil && *in.MaxKeys > 0 {
		maxkeys = int(*in.MaxKeys)
	}
	prefix := aws.ToString(in.Prefix)
	out := &s3v2.ListObjectsV2Output{
		Name:              in.Bucket,
		Prefix:            in.Prefix,
		Delimiter:         in.Delimiter,
		MaxKeys:           in.MaxKeys,
		ContinuationToken: in.ContinuationToken,
		IsTruncated:       aws.Bool(false),
	}
	bucket := m.buckets[*in.Bucket]
	var matches []string
	for _, key := range m.objectKeys(*in.Bucket) {
		if in.ContinuationToken != nil && key <= *in.ContinuationToken {
			continue
		}
		if in.StartAfter != nil && key <= *in.StartAfter {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			matches = append(matches, key)
		}
	}
	for i, key := range matches {
		if len(out.Contents) >= maxkeys {
			out.IsTruncated = aws.Bool(true)
			out.NextContinuationToken = aws.String(matches[i-1])
			break
		}
		obj := bucket[key]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(key),
			ETag:         aws.String(obj.ETag),
			Size:         aws.Int64(int64(len(obj.Body))),
			LastModified: aws.Time(obj.LastModified),
		})
	}
	out.KeyCount = aws.Int32(int32(len(out.Contents)))
	return out, nil
}

func (m *S3API) PutObject(ctx context.Context, in *s3v2.PutObjectInput, opts ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error) {
	if in.Key == nil {
		return nil, errors.New("key is required")
	}
	var body []byte
	if in.Body != nil {
		var err error
		if body, err = io.ReadAll(in.Body); err != nil {
			return nil, err
		}
	}
	m.mx.Lock()
	defer m.mx.Unlock()
	if err := m.bucketOK(in.Bucket); err != nil {
		return nil, err
	}
	obj := &Object{
		Key:          *in.Key,
		Body:         body,
		ETag:         `"` + md5hex(body) + `"`,
		LastModified: time.Now(),
	}
	m.buckets[*in.Bucket][*in.Key] = obj
	return &s3v2.PutObjectOutput{ETag: aws.String(obj.ETag)}, nil
}

func (m *S3API) CreateMultipartUpload(ctx context.Context, in *s3v2.CreateMultipartUploadInput, opts ...func(*s3v2.Options)) (*s3v2.CreateMultipartUploadOutput, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	if err := m.bucketOK(in.Bucket); err != nil {
		return nil, err
	}
	if in.Key == nil {
		return nil, errors.New("key is required")
	}
	m.nextID++
	id := fmt.Sprintf("mock-mpu-%d", m.nextID)
	m.uploads[id] = &upload{bucket: *in.Bucket, key: *in.Key, parts: map[int32][]byte{}}
	return &s3v2.CreateMultipartUploadOutput{
		Bucket:   in.Bucket,
		Key:      in.Key,
		UploadId: aws.String(id),
	}, nil
}

func (m *S3API) UploadPart(ctx context.Context, in *s3v2.UploadPartInput, opts ...func(*s3v2.Options)) (*s3v2.UploadPartOutput, error) {
	if in.PartNumber == nil {
		return nil, errors.New("PartNumber is required")
	}
	var body []byte
	if in.Body != nil {
		var err error
		if body, err = io.ReadAll(in.Body); err != nil {
			return nil, err
		}
	}
	m.mx.Lock()
	defer m.mx.Unlock()
	up, err := m.getUpload(in.UploadId)
	if err != nil {
		return nil, err
	}
	up.parts[*in.PartNumber] = body
	return &s3v2.UploadPartOutput{ETag: aws.String(`"` + md5hex(body) + `"`)}, nil
}

func (m *S3API) UploadPartCopy(ctx context.Context, in *s3v2.UploadPartCopyInput, opts ...func(*s3v2.Options)) (*s3v2.UploadPartCopyOutput, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	up, err := m.getUpload(in.UploadId)
	if err != nil {
		return nil, err
	}
	if in.PartNumber == nil {
		return nil, errors.New("PartNumber is required")
	}
	srcObj, err := m.copySource(in.CopySource)
	if err != nil {
		return nil, err
	}
	part := srcObj.Body
	if in.CopySourceRange != nil {
		start, end, err := parseByteRange(*in.CopySourceRange)
		if err != nil {
			return nil, err
		}
		if end >= int64(len(srcObj.Body)) {
			return nil, errors.New("invalid range")
		}
		part = srcObj.Body[start : end+1]
	}
	up.parts[*in.PartNumber] = slices.Clone(part)
	return &s3v2.UploadPartCopyOutput{
		CopyPartResult: &types.CopyPartResult{ETag: aws.String(`"` + md5hex(part) + `"`)},
	}, nil
}

func (m *S3API) CompleteMultipartUpload(ctx context.Context, in *s3v2.CompleteMultipartUploadInput, opts ...func(*s3v2.Options)) (*s3v2.CompleteMultipartUploadOutput, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	up, err := m.getUpload(in.UploadId)
	if err != nil {
		return nil, err
	}
	if in.MultipartUpload == nil {
		return nil, errors.New("multipart upload is required")
	}
	var (
		body      []byte
		partSizes []int64
		digests   [][]byte
	)
	for _, p := range in.MultipartUpload.Parts {
		if p.PartNumber == nil {
			return nil, errors.New("nil partnumber")
		}
		if p.ETag == nil {
			return nil, errors.New("nil etag in upload parts")
		}
		part, ok := up.parts[*p.PartNumber]
		if !ok {
			return nil, fmt.Errorf("no part with number %d", *p.PartNumber)
		}
		if `"`+md5hex(part)+`"` != *p.ETag {
			return nil, fmt.Errorf("etags don't match for part number %d", *p.PartNumber)
		}
		sum := md5.Sum(part)
		digests = append(digests, sum[:])
		body = append(body, part...)
		partSizes = append(partSizes, int64(len(part)))
	}
	obj := &Object{
		Key:          up.key,
		Body:         body,
		ETag:         fmt.Sprintf(`"%s-%d"`, md5hex(bytes.Join(digests, nil)), len(digests)),
		LastModified: time.Now(),
		PartSizes:    partSizes,
	}
	bucket, ok := m.buckets[up.bucket]
	if !ok {
		return nil, &types.NoSuchBucket{}
	}
	bucket[up.key] = obj
	delete(m.uploads, *in.UploadId)
	m.MPUCount++
	return &s3v2.CompleteMultipartUploadOutput{
		Bucket: in.Bucket,
		Key:    in.Key,
		ETag:   aws.String(obj.ETag),
	}, nil
}

func (m *S3API) AbortMultipartUpload(ctx context.Context, in *s3v2.AbortMultipartUploadInput, opts ...func(*s3v2.Options)) (*s3v2.AbortMultipartUploadOutput, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	if _, err := m.getUpload(in.UploadId); err != nil {
		return nil, err
	}
	delete(m.uploads, *in.UploadId)
	return &s3v2.AbortMultipartUploadOutput{}, nil
}

// CopyObject copies an object between any of the mock's buckets. Like S3,
// the destination gets an ETag for a single part, even if the source was a
// multipart upload.
func (m *S3API) CopyObject(ctx context.Context, in *s3v2.CopyObjectInput, opts ...func(*s3v2.Options)) (*s3v2.CopyObjectOutput, error) {
	if m.CopyObjectFunc != nil {
		return m.CopyObjectFunc(ctx, in, opts...)
	}
	m.mx.Lock()
	defer m.mx.Unlock()
	if err := m.bucketOK(in.Bucket); err != nil {
		return nil, err
	}
	if in.Key == nil {
		return nil, errors.New("Key is required")
	}
	srcObj, err := m.copySource(in.CopySource)
	if err != nil {
		return nil, err
	}
	obj := &Object{
		Key:          *in.Key,
		Body:         slices.Clone(srcObj.Body),
		ETag:         `"` + md5hex(srcObj.Body) + `"`,
		LastModified: time.Now(),
	}
	m.buckets[*in.Bucket][*in.Key] = obj
	return &s3v2.CopyObjectOutput{
		CopyObjectResult: &types.CopyObjectResult{ETag: aws.String(obj.ETag)},
	}, nil
}

// DeleteObject removes the object. Like S3, deleting a missing key succeeds.
func (m *S3API) DeleteObject(ctx context.Context, in *s3v2.DeleteObjectInput, opts ...func(*s3v2.Options)) (*s3v2.DeleteObjectOutput, error) {
	if in.Key == nil {
		return nil, errors.New("object key is required")
	}
	if m.DeleteObjectFunc != nil {
		if err := m.DeleteObjectFunc(aws.ToString(in.Bucket), *in.Key); err != nil {
			return nil, err
		}
	}
	m.mx.Lock()
	defer m.mx.Unlock()
	if err := m.bucketOK(in.Bucket); err != nil {
		return nil, err
	}
	delete(m.buckets[*in.Bucket], *in.Key)
	return &s3v2.DeleteObjectOutput{}, nil
}

func (m *S3API) objectKeys(bucket string) []string {
	keys := make([]string, 0, len(m.buckets[bucket]))
	for k := range m.buckets[bucket] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (m *S3API) bucketOK(b *string) error {
	if b == nil {
		return errors.New("bucket is required")
	}
	if _, ok := m.buckets[*b]; !ok {
		return &types.NoSuchBucket{}
	}
	return nil
}

func (m *S3API) getObject(b, k *string) (*Object, error) {
	if err := m.bucketOK(b); err != nil {
		return nil, err
	}
	if k == nil {
		return nil, errors.New("object key is required")
	}
	obj, ok := m.buckets[*b][*k]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return obj, nil
}

func (m *S3API) getUpload(id *string) (*upload, error) {
	if id == nil {
		return nil, errors.New("UploadId is required")
	}
	up, ok := m.uploads[*id]
	if !ok {
		return nil, &types.NoSuchUpload{}
	}
	return up, nil
}

func (m *S3API) copySource(src *string) (*Object, error) {
	if src == nil {
		return nil, errors.New("CopySource is required")
	}
	decoded, err := url.QueryUnescape(*src)
	if err != nil {
		return nil, fmt.Errorf("parsing copy source: %w", err)
	}
	srcBucket, srcKey, _ := strings.Cut(decoded, "/")
	return m.getObject(&srcBucket, &srcKey)
}

var _ s3.S3API = (*S3API)(nil)

func md5hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

func parseByteRange(brange string) (start int64, end int64, err error) {
	if !byteRangeRE.MatchString(brange) {
		err = fmt.Errorf("invalid bytes range: %s", brange)
		return
	}
	brange = strings.TrimPrefix(brange, "bytes=")
	a, b, _ := strings.Cut(brange, "-")
	start, err = strconv.ParseInt(a, 10, 64)
	if err != nil {
		err = fmt.Errorf("invalid bytes range: %w", err)
		return
	}
	end, err = strconv.ParseInt(b, 10, 64)
	if err != nil {
		err = fmt.Errorf("invalid bytes range: %w", err)
		return
	}
	if start < 0 || start > end {
		err = fmt.Errorf("invalid bytes range: %s", brange)
	}
	return
}

// ETag returns the quoted ETag S3 assigns to b when it is uploaded in parts
// of size psize.
func ETag(b []byte, psize int64) string {
	var digests [][]byte
	for off := int64(0); off < int64(len(b)); off += psize {
		sum := md5.Sum(b[off:min(off+psize, int64(len(b)))])
		digests = append(digests, sum[:])
	}
	return fmt.Sprintf(`"%s-%d"`, md5hex(bytes.Join(digests, nil)), len(digests))
}
