package delta

import "errors"

// Every failure returned by this package wraps exactly one of these kinds.
var (
	// ErrMalformedData covers corrupt JSON, undecodable checkpoints and
	// duplicate checkpoint entries.
	ErrMalformedData = errors.New("malformed delta log data")
	// ErrUnsupported covers format features this reader does not implement.
	ErrUnsupported = errors.New("unsupported delta lake feature")
	// ErrInconsistentLog covers logs that contradict themselves.
	ErrInconsistentLog = errors.New("inconsistent delta log")
	// ErrInvalidArgument covers JSON values of an unexpected shape.
	ErrInvalidArgument = errors.New("invalid argument")
)
