package objpath_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/carlmjohnson/be"
	"github.com/srerickson/objpath"
)

func TestErrors(t *testing.T) {
	cause := errors.New("timeout")
	storeErr := &objpath.StoreError{Op: "list", Path: "c/a", Err: cause}
	be.True(t, errors.Is(storeErr, objpath.ErrStoreUnavailable))
	be.True(t, errors.Is(storeErr, cause))
	be.True(t, strings.Contains(storeErr.Error(), "list c/a"))

	intErr := &objpath.IntegrityError{From: "a/x", To: "b/x", Want: "1", Got: "2", Attempts: 3}
	be.True(t, errors.Is(intErr, objpath.ErrIntegrityMismatch))
	be.False(t, errors.Is(intErr, objpath.ErrStoreUnavailable))
	be.True(t, strings.Contains(intErr.Error(), "3 attempt(s)"))

	partial := &objpath.PartialDeleteError{
		Path:   "c/dir",
		Failed: map[string]error{"dir/b": cause, "dir/a": cause},
	}
	be.True(t, errors.Is(partial, objpath.ErrPartialDelete))
	be.False(t, errors.Is(partial, cause))
	be.AllEqual(t, []string{"dir/a", "dir/b"}, partial.Keys())
	be.True(t, strings.Contains(partial.Error(), "2 object(s) not deleted"))
	partial.Err = storeErr
	be.True(t, errors.Is(partial, objpath.ErrStoreUnavailable))
}
