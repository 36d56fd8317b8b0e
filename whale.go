package whale

import "fmt"

// Decide marks a size that is left for SetUp to determine.
const Decide = -1

// CopyMode determines how a slice passed to a constructor is retained.
type CopyMode int

const (
	// CopyValues copies the slice; the caller may reuse it immediately.
	CopyValues CopyMode = iota
	// OwnPointer transfers the slice to the object. The caller must not
	// touch it afterwards; the object releases it on Destroy.
	OwnPointer
	// UsePointer references the slice without copying. The caller keeps it
	// alive and unchanged for the lifetime of the object.
	UsePointer
)

func (m CopyMode) String() string {
	switch m {
	case CopyValues:
		return "copy-values"
	case OwnPointer:
		return "own-pointer"
	case UsePointer:
		return "use-pointer"
	default:
		return fmt.Sprintf("CopyMode(%d)", int(m))
	}
}

// Retain applies mode to idx and returns the slice the object should keep.
func Retain(idx []int, mode CopyMode) ([]int, error) {
	switch mode {
	case CopyValues:
		out := make([]int, len(idx))
		copy(out, idx)
		return out, nil
	case OwnPointer, UsePointer:
		return idx, nil
	default:
		return nil, fmt.Errorf("%w: unknown copy mode %d", ErrInvalidArgument, int(mode))
	}
}
