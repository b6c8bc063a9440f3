package s3

import (
	"context"
	"errors"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"
)

const (
	defaultCopyPartConcurrency = 6
	defaultCopyPartSize        = 32 * megabyte
)

// MultiCopier copies objects, possibly between buckets, using multipart
// uploads with UploadPartCopy.
type MultiCopier struct {
	// PartSize sets the size of the object parts used
	// for multipart object copy. If the part size is too
	// small to be copied using the max number of parts,
	// the part size will be increased in 1 MiB increments
	// until it fits.
	PartSize int64
	// Concurrency sets the number of goroutines
	// per copy for copying object parts. defaults to 6.
	Concurrency int

	api MultiCopyAPI
}

func NewMultiCopier(api MultiCopyAPI, opts ...func(*MultiCopier)) *MultiCopier {
	copier := MultiCopier{
		api: api,
	}
	for _, o := range opts {
		if o != nil {
			o(&copier)
		}
	}
	return &copier
}

// Copy copies src in srcBucket to dst in dstBucket using the copier's part
// size. If given, srcHead is used instead of making a HeadObject request.
func (c *MultiCopier) Copy(ctx context.Context, dstBucket, dst, srcBucket, src string, srcHeads ...*s3.HeadObjectOutput) (srcSize int64, err error) {
	var srcHead *s3.HeadObjectOutput
	if len(srcHeads) > 0 {
		srcHead = srcHeads[0]
	}
	if srcHead == nil {
		headParams := &s3.HeadObjectInput{Bucket: &srcBucket, Key: &src}
		srcHead, err = c.api.HeadObject(ctx, headParams)
		if err != nil {
			err = pathErr("copy", src, err)
			return
		}
	}
	if srcHead.ContentLength == nil {
		err = pathErr("copy", src, errors.New("missing content length"))
		return
	}
	srcSize = *srcHead.ContentLength
	psize := c.PartSize
	if psize < manager.MinUploadPartSize {
		psize = defaultCopyPartSize
	}
	psize, partCount := adjustPartSize(srcSize, psize, manager.MaxUploadParts)
	err = c.copyParts(ctx, dstBucket, dst, srcBucket, src, srcSize, psize, partCount)
	return
}

// CopyParts copies src to dst using exactly partSize bytes for every part
// except the last. Copying with the part size of a multipart upload gives dst
// the same ETag as src.
func (c *MultiCopier) CopyParts(ctx context.Context, dstBucket, dst, srcBucket, src string, srcSize, partSize int64) error {
	if partSize < 1 {
		return pathErr("copy", src, errors.New("invalid part size"))
	}
	partCount := int32(srcSize / partSize)
	if srcSize%partSize > 0 || partCount == 0 {
		partCount++
	}
	return c.copyParts(ctx, dstBucket, dst, srcBucket, src, srcSize, partSize, partCount)
}

func (c *MultiCopier) copyParts(ctx context.Context, dstBucket, dst, srcBucket, src string, srcSize, psize int64, partCount int32) (err error) {
	conc := c.Concurrency
	if conc < 1 {
		conc = defaultCopyPartConcurrency
	}
	completedParts := make([]types.CompletedPart, partCount)
	uploadParams := &s3.CreateMultipartUploadInput{Bucket: &dstBucket, Key: &dst}
	newUp, err := c.api.CreateMultipartUpload(ctx, uploadParams)
	if err != nil {
		err = pathErr("copy", dst, err)
		return
	}
	defer func() {
		// complete or abort the multipart upload
		switch {
		case err != nil:
			params := &s3.AbortMultipartUploadInput{
				Bucket:   &dstBucket,
				Key:      &dst,
				UploadId: newUp.UploadId,
			}
			_, abortErr := c.api.AbortMultipartUpload(ctx, params)
			err = errors.Join(err, abortErr)
		default:
			upload := &types.CompletedMultipartUpload{
				Parts: completedParts,
			}
			params := &s3.CompleteMultipartUploadInput{
				Bucket:          &dstBucket,
				Key:             &dst,
				UploadId:        newUp.UploadId,
				MultipartUpload: upload,
			}
			_, err = c.api.CompleteMultipartUpload(ctx, params)
		}
	}()
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(conc)
	copySource := url.QueryEscape(srcBucket + "/" + src)
	for i := range partCount {
		grp.Go(func() error {
			partNum := i + 1
			params := &s3.UploadPartCopyInput{
				Bucket:     &dstBucket,
				CopySource: &copySource,
				Key:        &dst,
				UploadId:   newUp.UploadId,
				PartNumber: aws.Int32(partNum),
			}
			if srcSize > 0 {
				params.CopySourceRange = aws.String(byteRange(partNum, psize, srcSize))
			}
			result, err := c.api.UploadPartCopy(grpCtx, params)
			if err != nil {
				return err
			}
			completedParts[i] = types.CompletedPart{
				PartNumber: aws.Int32(partNum),
				ETag:       result.CopyPartResult.ETag,
			}
			return nil
		})
	}
	err = grp.Wait()
	return
}
