package run

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/srerickson/objpath"
	"github.com/srerickson/objpath/store/cloud"
	"github.com/srerickson/objpath/store/s3"
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// containerStore sends calls for containers named in the config to a
// gocloud store. All other containers are S3 buckets; the S3 client is
// created on first use.
type containerStore struct {
	cloud   *cloud.Store
	names   map[string]bool
	s3Store func() (*s3.Store, error)
}

var _ objpath.Store = (*containerStore)(nil)

// closingStore is a Store holding resources that are released by Close.
type closingStore interface {
	objpath.Store
	io.Closer
}

// openStore returns the store used by CLI commands.
var openStore = func(ctx context.Context, cfg *config, logger *slog.Logger) (closingStore, error) {
	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func newStore(ctx context.Context, cfg *config, logger *slog.Logger) (*containerStore, error) {
	cloudStore, err := cloud.Open(ctx, cfg.Containers, cloud.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(cfg.Containers))
	for name := range cfg.Containers {
		names[name] = true
	}
	return &containerStore{
		cloud: cloudStore,
		names: names,
		s3Store: sync.OnceValues(func() (*s3.Store, error) {
			return newS3Store(ctx, cfg, logger)
		}),
	}, nil
}

func newS3Store(ctx context.Context, cfg *config, logger *slog.Logger) (*s3.Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	client := awsS3.NewFromConfig(awsCfg, func(o *awsS3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	store := s3.New(client)
	store.Logger = logger
	return store, nil
}

func (s *containerStore) Close() error {
	return s.cloud.Close()
}

func (s *containerStore) store(container string) (objpath.Store, error) {
	if s.names[container] {
		return s.cloud, nil
	}
	return s.s3Store()
}

func (s *containerStore) List(ctx context.Context, container string, opts objpath.ListOptions) iter.Seq2[*objpath.ObjectInfo, error] {
	store, err := s.store(container)
	if err != nil {
		return func(yield func(*objpath.ObjectInfo, error) bool) {
			yield(nil, err)
		}
	}
	return store.List(ctx, container, opts)
}

func (s *containerStore) Head(ctx context.Context, container, key string) (*objpath.ObjectInfo, error) {
	store, err := s.store(container)
	if err != nil {
		return nil, err
	}
	return store.Head(ctx, container, key)
}

func (s *containerStore) Get(ctx context.Context, container, key string) (io.ReadCloser, error) {
	store, err := s.store(container)
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, container, key)
}

func (s *containerStore) Put(ctx context.Context, container, key string, r io.Reader) (int64, error) {
	store, err := s.store(container)
	if err != nil {
		return 0, err
	}
	return store.Put(ctx, container, key, r)
}

// Copy between a gocloud container and an S3 bucket streams the object
// through this process.
func (s *containerStore) Copy(ctx context.Context, dstContainer, dstKey, srcContainer, srcKey string) error {
	src, err := s.store(srcContainer)
	if err != nil {
		return err
	}
	dst, err := s.store(dstContainer)
	if err != nil {
		return err
	}
	if src == dst {
		return src.Copy(ctx, dstContainer, dstKey, srcContainer, srcKey)
	}
	reader, err := src.Get(ctx, srcContainer, srcKey)
	if err != nil {
		return err
	}
	defer reader.Close()
	_, err = dst.Put(ctx, dstContainer, dstKey, reader)
	return err
}

func (s *containerStore) Delete(ctx context.Context, container, key string) error {
	store, err := s.store(container)
	if err != nil {
		return err
	}
	return store.Delete(ctx, container, key)
}
