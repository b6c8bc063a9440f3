// Package metrics provides an objpath.Store that records Prometheus metrics
// for the calls it makes to another Store.
package metrics

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"iter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/srerickson/objpath"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Store wraps an objpath.Store, counting calls and observing their duration
// by operation. Listings are timed until the iterator finishes.
type Store struct {
	objpath.Store

	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	bytes      *prometheus.CounterVec
}

var _ objpath.Store = (*Store)(nil)

// New returns a Store that wraps store and registers its collectors with
// reg. It panics if the collectors are already registered with reg.
func New(store objpath.Store, reg prometheus.Registerer) *Store {
	factory := promauto.With(reg)
	return &Store{
		Store: store,
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "objpath_store_operations_total",
				Help: "Total number of store operations by operation type and status",
			},
			[]string{"operation", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "objpath_store_operation_duration_seconds",
				Help: "Duration of store operations in seconds",
				Buckets: []float64{
					0.005, // metadata operations
					0.01,
					0.05,
					0.1,
					0.5,
					1,
					5, // large objects
					30,
				},
			},
			[]string{"operation"},
		),
		bytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "objpath_store_bytes_total",
				Help: "Total bytes read from or written to the store",
			},
			[]string{"direction"},
		),
	}
}

func (s *Store) List(ctx context.Context, container string, opts objpath.ListOptions) iter.Seq2[*objpath.ObjectInfo, error] {
	return func(yield func(*objpath.ObjectInfo, error) bool) {
		start := time.Now()
		var listErr error
		defer func() { s.observe("list", start, listErr) }()
		for info, err := range s.Store.List(ctx, container, opts) {
			if err != nil {
				listErr = err
			}
			if !yield(info, err) {
				return
			}
		}
	}
}

func (s *Store) Head(ctx context.Context, container, key string) (*objpath.ObjectInfo, error) {
	start := time.Now()
	info, err := s.Store.Head(ctx, container, key)
	s.observe("head", start, ignoreNotExist(err))
	return info, err
}

func (s *Store) Get(ctx context.Context, container, key string) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := s.Store.Get(ctx, container, key)
	s.observe("get", start, ignoreNotExist(err))
	if err != nil {
		return nil, err
	}
	return &countingReader{ReadCloser: rc, counter: s.bytes.WithLabelValues("read")}, nil
}

func (s *Store) Put(ctx context.Context, container, key string, r io.Reader) (int64, error) {
	start := time.Now()
	n, err := s.Store.Put(ctx, container, key, r)
	s.observe("put", start, err)
	if n > 0 {
		s.bytes.WithLabelValues("write").Add(float64(n))
	}
	return n, err
}

func (s *Store) Copy(ctx context.Context, dstContainer, dstKey, srcContainer, srcKey string) error {
	start := time.Now()
	err := s.Store.Copy(ctx, dstContainer, dstKey, srcContainer, srcKey)
	s.observe("copy", start, err)
	return err
}

func (s *Store) Delete(ctx context.Context, container, key string) error {
	start := time.Now()
	err := s.Store.Delete(ctx, container, key)
	s.observe("delete", start, err)
	return err
}

func (s *Store) observe(op string, start time.Time, err error) {
	status := statusSuccess
	if err != nil {
		status = statusError
	}
	s.operations.WithLabelValues(op, status).Inc()
	s.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

type countingReader struct {
	io.ReadCloser
	counter prometheus.Counter
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if n > 0 {
		r.counter.Add(float64(n))
	}
	return n, err
}

// missing keys are counted as successful heads and gets
func ignoreNotExist(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
