package core

import "errors"

// Error taxonomy shared by every package. Callers wrap these with
// fmt.Errorf("...: %w", ...) and match with errors.Is.
var (
	ErrInvalidParam       = errors.New("invalid parameter")
	ErrBadSampleRate      = errors.New("bad sample rate")
	ErrBadAlignment       = errors.New("bad buffer alignment")
	ErrUninitialized      = errors.New("uninitialized")
	ErrBadVersion         = errors.New("bad version")
	ErrBadAlloc           = errors.New("allocation failure")
	ErrUnsupportedFeature = errors.New("unsupported feature")
	ErrUnknown            = errors.New("unknown error")
)
