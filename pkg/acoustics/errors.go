package acoustics

import (
	"errors"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// Sentinel errors returned by every Context operation. Match with errors.Is.
var (
	ErrInvalidParam       = core.ErrInvalidParam
	ErrBadSampleRate      = core.ErrBadSampleRate
	ErrBadAlignment       = core.ErrBadAlignment
	ErrUninitialized      = core.ErrUninitialized
	ErrBadVersion         = core.ErrBadVersion
	ErrBadAlloc           = core.ErrBadAlloc
	ErrUnsupportedFeature = core.ErrUnsupportedFeature
	ErrUnknown            = core.ErrUnknown
)

// Code is the numeric result code of an operation
type Code int

// Result codes
const (
	Success            Code = 0
	Unknown            Code = 2000
	InvalidParam       Code = 2001
	BadSampleRate      Code = 2002
	BadAlignment       Code = 2004
	Uninitialized      Code = 2005
	BadVersion         Code = 2007
	BadAlloc           Code = 2018
	UnsupportedFeature Code = 2019
)

var codes = []struct {
	err  error
	code Code
}{
	{ErrInvalidParam, InvalidParam},
	{ErrBadSampleRate, BadSampleRate},
	{ErrBadAlignment, BadAlignment},
	{ErrUninitialized, Uninitialized},
	{ErrBadVersion, BadVersion},
	{ErrBadAlloc, BadAlloc},
	{ErrUnsupportedFeature, UnsupportedFeature},
	{ErrUnknown, Unknown},
}

// CodeOf maps an error to its result code. nil is Success and errors
// outside the taxonomy are Unknown.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return Unknown
}

func (c Code) String() string {
	switch c {
	case Success:
		return "success"
	case Unknown:
		return "unknown"
	case InvalidParam:
		return "invalid parameter"
	case BadSampleRate:
		return "bad sample rate"
	case BadAlignment:
		return "bad alignment"
	case Uninitialized:
		return "uninitialized"
	case BadVersion:
		return "bad version"
	case BadAlloc:
		return "allocation failure"
	case UnsupportedFeature:
		return "unsupported feature"
	}
	return "unknown"
}
