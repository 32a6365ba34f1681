package reactive

import "errors"

// ErrSchedulerOverflow is raised when consecutive re-flushes within a single
// tick exceed the configured cap. It almost always indicates a write performed
// unconditionally inside a render-triggered hook, which would otherwise
// oscillate forever. It is surfaced to the application as a fatal diagnostic.
var ErrSchedulerOverflow = errors.New("weft: scheduler overflow: re-flush cap exceeded")

// ErrStaleWrite is the advisory error logged when a write arrives through a
// store whose owning component has already been destroyed. The write is
// ignored; it is never fatal.
var ErrStaleWrite = errors.New("weft: write to destroyed store ignored")
