// Package resource implements the Controller for memory budgets and IO throttling.
//
// Two resource types are managed:
//
//   - Memory: reservations against an optional hard limit. Layouts and
//     mappings reserve the bytes of their index tables here; a refused
//     reservation surfaces as whale.ErrOutOfMemory.
//   - IO: a token bucket limiting snapshot upload/download throughput.
//
// # Memory
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20,
//	})
//	if err := rc.Reserve(8 * n); err != nil {
//	    return err // errors.Is(err, whale.ErrOutOfMemory)
//	}
//	defer rc.ReleaseMemory(8 * n)
//
// # IO Rate Limiting
//
//	rc := resource.NewController(resource.Config{
//	    IOLimitBytesPerSec: 10 << 20,
//	})
//	w := rc.Writer(ctx, blob)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully: reservations always
// succeed and IO is unthrottled.
package resource
