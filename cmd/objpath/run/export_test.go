package run

import (
	"context"
	"log/slog"
	"testing"

	"github.com/srerickson/objpath"
)

// SetStore makes CLI use store for every container until the test ends.
func SetStore(t testing.TB, store objpath.Store) {
	prev := openStore
	openStore = func(context.Context, *config, *slog.Logger) (closingStore, error) {
		return nopCloser{store}, nil
	}
	t.Cleanup(func() { openStore = prev })
}

type nopCloser struct{ objpath.Store }

func (nopCloser) Close() error { return nil }
