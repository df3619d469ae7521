package outputs

import (
	"errors"
	"fmt"
)

// ErrUnsupportedType is returned when an output type tag has no registered
// constructor.
var ErrUnsupportedType = errors.New("outputs: unsupported output type")

// ErrInvalidSpec is returned when an output spec is malformed (missing type,
// bad options, unparseable descriptor config).
var ErrInvalidSpec = errors.New("outputs: invalid output spec")

// ErrDescriptorVersion is returned when a job descriptor carries a version
// this build does not understand.
var ErrDescriptorVersion = errors.New("outputs: unsupported descriptor version")

// ExecError wraps a failure inside a runner's Execute. It marks the failure
// as local to that output: the pipeline logs it, skips the output, and moves
// on. Anything not wrapped in ExecError aborts the whole run.
type ExecError struct {
	Output string
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("outputs: %s: %v", e.Output, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }
