// Package errors provides the typed error taxonomy for the Horizon runtime
// core. Every SVC, HIPC and CMIF failure path converts a raw ResultCode into
// one of a closed set of sentinel errors so that callers can branch on
// semantics instead of re-decoding the kernel's bit layout, while
// ToResultCode() lets the original code be reconstructed for ABI-preserving
// surfaces.
//
// All errors support the standard errors.Is() and errors.As() functions for
// error inspection.
package errors

import (
	"errors"
	"fmt"

	"nx-horizon-rt/resultcode"
)

// ErrorKind classifies a kernel or protocol error per the taxonomy in
// the error handling design: kernel-argument, kernel-resource, kernel-state,
// IPC-protocol, IPC-service, and generic.
type ErrorKind int

const (
	// ErrArgument covers InvalidHandle, InvalidAddress, InvalidSize,
	// InvalidCombination, InvalidPriority, InvalidCoreId and similar
	// programmer-error-shaped kernel failures.
	ErrArgument ErrorKind = iota
	// ErrResource covers OutOfMemory, OutOfResource, OutOfHandles,
	// OutOfSessions, LimitReached.
	ErrResource
	// ErrState covers InvalidState, InvalidCurrentMemory,
	// InvalidMemoryRegion, TerminationRequested, SessionClosed, Cancelled.
	ErrState
	// ErrIPCProtocol covers MessageTooLarge, ReceiveListBroken, and CMIF
	// magic-validation failures.
	ErrIPCProtocol
	// ErrIPCService covers a service-defined u32 passed through verbatim.
	ErrIPCService
	// ErrGeneric covers the 0xFFFF sentinel, returned for an inactive
	// service or a response that lacks a handle it is expected to carry,
	// and kernel descriptions FromResultCode does not recognize.
	ErrGeneric
)

// String returns a human-readable name for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrArgument:
		return "kernel argument error"
	case ErrResource:
		return "kernel resource error"
	case ErrState:
		return "kernel state error"
	case ErrIPCProtocol:
		return "IPC protocol error"
	case ErrIPCService:
		return "IPC service error"
	case ErrGeneric:
		return "generic error"
	default:
		return "unknown error"
	}
}

// KernelError is a typed error carrying the decoded kernel result, the
// operation that produced it, and (when applicable) the raw code it must
// round-trip back to via ToResultCode.
type KernelError struct {
	// Op is the operation that failed (e.g. "svc.SendSyncRequest").
	Op string
	// Kind is the error classification.
	Kind ErrorKind
	// Description names the matched kernel description (e.g.
	// "InvalidHandle"); empty for Unknown.
	Description string
	// Code is the original ResultCode, preserved so ToResultCode can
	// reproduce it exactly.
	Code resultcode.ResultCode
	// Err is an optional wrapped lower-level error.
	Err error
}

// Error returns the error message.
func (e *KernelError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := ""
	if e.Op != "" {
		msg = fmt.Sprintf("%s: ", e.Op)
	}
	if e.Description != "" {
		msg += e.Description
	} else {
		msg += e.Kind.String()
	}
	msg += fmt.Sprintf(" (result=0x%04x)", uint32(e.Code))
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the wrapped error, if any.
func (e *KernelError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether the error matches the target. It matches if the target
// is a *KernelError with the same Kind and Description.
func (e *KernelError) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	t, ok := target.(*KernelError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Description == t.Description
}

// ToResultCode reconstructs the original ResultCode. This is the round-trip
// contract every error enum in the typed layer must satisfy, because these
// codes are sometimes re-surfaced to a caller that expects raw HOS
// conventions.
func (e *KernelError) ToResultCode() resultcode.ResultCode {
	if e == nil {
		return resultcode.Success
	}
	return e.Code
}

// New creates a KernelError of the given kind, not tied to a specific raw
// code (used for caller-side validation errors such as CoreAffinity checks
// that never reach the kernel).
func New(kind ErrorKind, op, description string) *KernelError {
	return &KernelError{Op: op, Kind: kind, Description: description}
}

// Wrap attaches operation context to a raw ResultCode, classifying it via
// FromResultCode.
func Wrap(op string, code resultcode.ResultCode) *KernelError {
	e := FromResultCode(code)
	e.Op = op
	return e
}

// IsKind reports whether err is a *KernelError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var kerr *KernelError
	if errors.As(err, &kerr) {
		return kerr.Kind == kind
	}
	return false
}

// GetKind returns the error kind if err is a *KernelError.
func GetKind(err error) (ErrorKind, bool) {
	var kerr *KernelError
	if errors.As(err, &kerr) {
		return kerr.Kind, true
	}
	return 0, false
}

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)
