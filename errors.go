package whale

import (
	"errors"
	"fmt"
)

// Every sentinel is prefixed with "whale: " so messages are easy to grep.
// Subpackages wrap these with context (fmt.Errorf("layout: setup: %w", err));
// callers match with errors.Is.
var (
	// ErrNotSetUp is returned when a layout accessor is used before SetUp completed.
	ErrNotSetUp = errors.New("whale: layout not set up")

	// ErrSizeMismatch is returned when local sizes do not sum to the declared global size.
	ErrSizeMismatch = errors.New("whale: local sizes do not sum to global size")

	// ErrIndexOutOfRange is returned when a global or local index falls outside its domain.
	ErrIndexOutOfRange = errors.New("whale: index out of range")

	// ErrArgumentNull is returned when a required argument is nil.
	ErrArgumentNull = errors.New("whale: required argument is nil")

	// ErrOutOfMemory is returned when a memory reservation is refused during creation or setup.
	ErrOutOfMemory = errors.New("whale: out of memory")

	// ErrInvalidArgument is returned for arguments outside their documented domain
	// (negative sizes, block sizes that do not divide a size, non-permutations).
	ErrInvalidArgument = errors.New("whale: invalid argument")

	// ErrWrongState is returned when an object is used in a state that does not
	// allow the operation (destroyed handle, outstanding index acquisition,
	// broken communicator).
	ErrWrongState = errors.New("whale: object in wrong state")
)

// IndexOutOfRangeError reports an index outside the half-open interval [Low, High).
//
// It matches ErrIndexOutOfRange via errors.Is.
type IndexOutOfRangeError struct {
	Index int
	Low   int
	High  int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("whale: index %d is out of range [%d, %d)", e.Index, e.Low, e.High)
}

// Is reports whether target is ErrIndexOutOfRange.
func (e *IndexOutOfRangeError) Is(target error) bool { return target == ErrIndexOutOfRange }

// SizeMismatchError reports a declared global size that disagrees with the
// collective sum of local sizes.
//
// It matches ErrSizeMismatch via errors.Is.
type SizeMismatchError struct {
	Declared int
	Sum      int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("whale: sum of local sizes %d does not equal global size %d", e.Sum, e.Declared)
}

// Is reports whether target is ErrSizeMismatch.
func (e *SizeMismatchError) Is(target error) bool { return target == ErrSizeMismatch }

// OutOfRange builds an *IndexOutOfRangeError.
func OutOfRange(idx, low, high int) error {
	return &IndexOutOfRangeError{Index: idx, Low: low, High: high}
}
