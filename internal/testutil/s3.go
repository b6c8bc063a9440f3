package testutil

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3EndpointEnv is the environment variable with the endpoint of an S3
// service (e.g., MinIO) used for live tests.
const S3EndpointEnv = "OBJPATH_TEST_S3"

// S3Enabled returns true if a test S3 endpoint is configured.
func S3Enabled() bool {
	return os.Getenv(S3EndpointEnv) != ""
}

// S3Client returns a client for the test S3 endpoint using MinIO's default
// credentials.
func S3Client() *s3.Client {
	return s3.NewFromConfig(aws.Config{Region: "us-east-1"}, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(os.Getenv(S3EndpointEnv))
		o.Credentials = credentials.NewStaticCredentialsProvider("minioadmin", "minioadmin", "")
		o.UsePathStyle = true
	})
}

// TmpBucket creates a uniquely named bucket that is emptied and removed when
// the test completes.
func TmpBucket(t *testing.T, cl *s3.Client) string {
	t.Helper()
	ctx := context.Background()
	name := "objpath-test-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	if _, err := cl.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(name)}); err != nil {
		t.Fatal("creating test bucket:", err)
	}
	t.Cleanup(func() {
		pager := s3.NewListObjectsV2Paginator(cl, &s3.ListObjectsV2Input{Bucket: aws.String(name)})
		for pager.HasMorePages() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				t.Error("cleaning up test bucket:", err)
				return
			}
			for _, obj := range page.Contents {
				if _, err := cl.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(name), Key: obj.Key}); err != nil {
					t.Error("cleaning up test bucket:", err)
					return
				}
			}
		}
		if _, err := cl.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(name)}); err != nil {
			t.Error("removing test bucket:", err)
		}
	})
	return name
}
