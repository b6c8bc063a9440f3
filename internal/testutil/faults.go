package testutil

import (
	"context"
	"io"
	"iter"
	"sync"

	"github.com/srerickson/objpath"
)

// FaultStore wraps a Store, injecting errors and recording calls.
type FaultStore struct {
	objpath.Store

	// ListErr is yielded by List after ListErrAfter objects.
	ListErr      error
	ListErrAfter int
	// HeadErr is returned by Head for all keys.
	HeadErr error
	// DeleteErr, if set, is called for each key passed to Delete. A
	// non-nil result is returned instead of deleting.
	DeleteErr func(key string) error
	// CopyFunc, if set, replaces the wrapped store's Copy.
	CopyFunc func(ctx context.Context, dstContainer, dstKey, srcContainer, srcKey string) error

	mx    sync.Mutex
	calls map[string]int
	lists []objpath.ListOptions
}

// NewFaultStore returns a FaultStore wrapping store.
func NewFaultStore(store objpath.Store) *FaultStore {
	return &FaultStore{Store: store, calls: map[string]int{}}
}

// Calls returns the number of calls to the named method ("List", "Head", ...)
func (f *FaultStore) Calls(method string) int {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.calls[method]
}

// ListOptions returns the options passed to each call to List.
func (f *FaultStore) ListOptions() []objpath.ListOptions {
	f.mx.Lock()
	defer f.mx.Unlock()
	return append([]objpath.ListOptions(nil), f.lists...)
}

func (f *FaultStore) count(method string) {
	f.mx.Lock()
	defer f.mx.Unlock()
	f.calls[method]++
}

func (f *FaultStore) List(ctx context.Context, container string, opts objpath.ListOptions) iter.Seq2[*objpath.ObjectInfo, error] {
	f.count("List")
	f.mx.Lock()
	f.lists = append(f.lists, opts)
	f.mx.Unlock()
	return func(yield func(*objpath.ObjectInfo, error) bool) {
		n := 0
		for info, err := range f.Store.List(ctx, container, opts) {
			if f.ListErr != nil && n >= f.ListErrAfter {
				yield(nil, f.ListErr)
				return
			}
			if !yield(info, err) {
				return
			}
			n++
		}
		if f.ListErr != nil && n <= f.ListErrAfter {
			yield(nil, f.ListErr)
		}
	}
}

func (f *FaultStore) Head(ctx context.Context, container, key string) (*objpath.ObjectInfo, error) {
	f.count("Head")
	if f.HeadErr != nil {
		return nil, f.HeadErr
	}
	return f.Store.Head(ctx, container, key)
}

func (f *FaultStore) Get(ctx context.Context, container, key string) (io.ReadCloser, error) {
	f.count("Get")
	return f.Store.Get(ctx, container, key)
}

func (f *FaultStore) Put(ctx context.Context, container, key string, r io.Reader) (int64, error) {
	f.count("Put")
	return f.Store.Put(ctx, container, key, r)
}

func (f *FaultStore) Copy(ctx context.Context, dstContainer, dstKey, srcContainer, srcKey string) error {
	f.count("Copy")
	if f.CopyFunc != nil {
		return f.CopyFunc(ctx, dstContainer, dstKey, srcContainer, srcKey)
	}
	return f.Store.Copy(ctx, dstContainer, dstKey, srcContainer, srcKey)
}

func (f *FaultStore) Delete(ctx context.Context, container, key string) error {
	f.count("Delete")
	if f.DeleteErr != nil {
		if err := f.DeleteErr(key); err != nil {
			return err
		}
	}
	return f.Store.Delete(ctx, container, key)
}
