package objpath

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrStoreUnavailable is wrapped by errors from the underlying Store
	// (network, auth, service faults).
	ErrStoreUnavailable = errors.New("object store unavailable")
	// ErrNotFile indicates that a path is a directory or does not exist when
	// a file was required.
	ErrNotFile = errors.New("not a file")
	// ErrIntegrityMismatch indicates a copy's destination tag never matched
	// the source tag.
	ErrIntegrityMismatch = errors.New("integrity tag mismatch")
	// ErrPartialDelete indicates a recursive remove left objects behind.
	ErrPartialDelete = errors.New("partial delete")
)

// StoreError is returned when a Store operation fails for reasons other
// than a missing object. It matches ErrStoreUnavailable and the underlying
// error with errors.Is.
type StoreError struct {
	Op   string // operation that failed ("list", "head", ...)
	Path string // path the operation was acting on
	Err  error  // error returned by the Store
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, ErrStoreUnavailable, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

func storeErr(op string, p PathInfo, err error) error {
	return &StoreError{Op: op, Path: p.String(), Err: err}
}

// IntegrityError is returned by Copy when the destination's integrity tag
// doesn't match the source's after all attempts.
type IntegrityError struct {
	From     string
	To       string
	Want     string // source tag
	Got      string // destination tag after the last attempt
	Attempts int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("copy %s to %s: %s after %d attempt(s): want %q, got %q",
		e.From, e.To, ErrIntegrityMismatch, e.Attempts, e.Want, e.Got)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrityMismatch }

// PartialDeleteError is returned by Remove when some objects under a
// directory could not be deleted.
type PartialDeleteError struct {
	Path string
	// Failed maps keys that may still exist to the reason they weren't
	// deleted.
	Failed map[string]error
	// Err is set if the directory listing itself failed, in which case
	// unlisted objects may also remain.
	Err error
}

func (e *PartialDeleteError) Error() string {
	msg := fmt.Sprintf("remove %s: %s: %d object(s) not deleted", e.Path, ErrPartialDelete, len(e.Failed))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PartialDeleteError) Unwrap() []error {
	errs := []error{ErrPartialDelete}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Keys returns the sorted keys that failed to delete.
func (e *PartialDeleteError) Keys() []string {
	return slices.Sorted(maps.Keys(e.Failed))
}
