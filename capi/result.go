package capi

import "github.com/gogpu/spvcross/cross"

// Result is the status code returned by every call.
type Result int32

// Result codes.
const (
	Success               Result = 0
	ErrorInvalidSPIRV     Result = -1
	ErrorUnsupportedSPIRV Result = -2
	ErrorOutOfMemory      Result = -3
	ErrorInvalidArgument  Result = -4
)

// String returns the name of the result code.
func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case ErrorInvalidSPIRV:
		return "InvalidSPIRV"
	case ErrorUnsupportedSPIRV:
		return "UnsupportedSPIRV"
	case ErrorOutOfMemory:
		return "OutOfMemory"
	case ErrorInvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// resultOf maps the kind carried by err to a result code. Internal errors
// and recovered panics report ErrorUnsupportedSPIRV: the input could not be
// compiled.
func resultOf(err error) Result {
	switch cross.KindOf(err) {
	case cross.ErrInvalidInput:
		return ErrorInvalidSPIRV
	case cross.ErrAllocationFailure:
		return ErrorOutOfMemory
	case cross.ErrInvalidArgument:
		return ErrorInvalidArgument
	default:
		return ErrorUnsupportedSPIRV
	}
}
