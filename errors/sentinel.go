package errors

import "nx-horizon-rt/resultcode"

// Description numbering for the closed set of kernel results this core
// matches against (module 1, the kernel's own module). Cancelled is pinned
// to the value called out explicitly in the concurrency model (0xec01); the
// rest follow the kernel's own numbering for argument, resource and state
// errors.
const (
	descInvalidHandle              = 114
	descInvalidAddress             = 102
	descInvalidSize                = 101
	descInvalidCombination         = 116
	descInvalidPriority            = 112
	descInvalidCoreId              = 113
	descOutOfMemory                = 104
	descOutOfResource              = 103
	descOutOfHandles               = 105
	descOutOfSessions              = 7
	descLimitReached                = 132
	descTerminationRequested        = 59
	descSessionClosed               = 131
	descCancelled                   = 118 // 0xec01
	descInvalidState                = 125
	descInvalidCurrentMemory        = 106
	descInvalidMemoryRegion         = 110
	descInvalidNewMemoryPermission  = 108
	descNotFound                    = 54
	descMessageTooLarge             = 258
	descReceiveListBroken           = 259
)

func code(description uint32) resultcode.ResultCode {
	return resultcode.Pack(resultcode.ModuleKernel, description)
}

// FromResultCode classifies a raw ResultCode against the closed set of known
// kernel descriptions, returning an Unknown-shaped KernelError (Description
// == "") when the code doesn't match anything recognized.
func FromResultCode(rc resultcode.ResultCode) *KernelError {
	if rc.IsSuccess() {
		return nil
	}
	if rc.Module() != resultcode.ModuleKernel {
		return &KernelError{Kind: ErrIPCService, Code: rc}
	}
	switch rc.Description() {
	case descInvalidHandle:
		return &KernelError{Kind: ErrArgument, Description: "InvalidHandle", Code: rc}
	case descInvalidAddress:
		return &KernelError{Kind: ErrArgument, Description: "InvalidAddress", Code: rc}
	case descInvalidSize:
		return &KernelError{Kind: ErrArgument, Description: "InvalidSize", Code: rc}
	case descInvalidCombination:
		return &KernelError{Kind: ErrArgument, Description: "InvalidCombination", Code: rc}
	case descInvalidPriority:
		return &KernelError{Kind: ErrArgument, Description: "InvalidPriority", Code: rc}
	case descInvalidCoreId:
		return &KernelError{Kind: ErrArgument, Description: "InvalidCoreId", Code: rc}
	case descOutOfMemory:
		return &KernelError{Kind: ErrResource, Description: "OutOfMemory", Code: rc}
	case descOutOfResource:
		return &KernelError{Kind: ErrResource, Description: "OutOfResource", Code: rc}
	case descOutOfHandles:
		return &KernelError{Kind: ErrResource, Description: "OutOfHandles", Code: rc}
	case descOutOfSessions:
		return &KernelError{Kind: ErrResource, Description: "OutOfSessions", Code: rc}
	case descLimitReached:
		return &KernelError{Kind: ErrResource, Description: "LimitReached", Code: rc}
	case descTerminationRequested:
		return &KernelError{Kind: ErrState, Description: "TerminationRequested", Code: rc}
	case descSessionClosed:
		return &KernelError{Kind: ErrState, Description: "SessionClosed", Code: rc}
	case descCancelled:
		return &KernelError{Kind: ErrState, Description: "Cancelled", Code: rc}
	case descInvalidState:
		return &KernelError{Kind: ErrState, Description: "InvalidState", Code: rc}
	case descInvalidCurrentMemory:
		return &KernelError{Kind: ErrState, Description: "InvalidCurrentMemory", Code: rc}
	case descInvalidMemoryRegion:
		return &KernelError{Kind: ErrState, Description: "InvalidMemoryRegion", Code: rc}
	case descInvalidNewMemoryPermission:
		return &KernelError{Kind: ErrArgument, Description: "InvalidNewMemoryPermission", Code: rc}
	case descNotFound:
		return &KernelError{Kind: ErrState, Description: "NotFound", Code: rc}
	case descMessageTooLarge:
		return &KernelError{Kind: ErrIPCProtocol, Description: "MessageTooLarge", Code: rc}
	case descReceiveListBroken:
		return &KernelError{Kind: ErrIPCProtocol, Description: "ReceiveListBroken", Code: rc}
	default:
		return &KernelError{Kind: ErrGeneric, Description: "", Code: rc}
	}
}

// ErrGenericSentinel is the 0xFFFF fallback returned for an inactive
// service or a response that lacks a handle it is expected to carry, with
// no more specific code to report (§7: "map to a generic sentinel"). A bad
// CMIF magic is reported as ErrBadMagic instead.
// The raw literal 0xFFFF, not a module/description-packed value.
var ErrGenericSentinel = &KernelError{Kind: ErrGeneric, Code: resultcode.ResultCode(0xFFFF)}

// Named sentinels so callers can errors.Is against a concrete value instead
// of re-deriving it through FromResultCode.
var (
	ErrInvalidHandle        = &KernelError{Kind: ErrArgument, Description: "InvalidHandle", Code: code(descInvalidHandle)}
	ErrInvalidAddress       = &KernelError{Kind: ErrArgument, Description: "InvalidAddress", Code: code(descInvalidAddress)}
	ErrInvalidSize          = &KernelError{Kind: ErrArgument, Description: "InvalidSize", Code: code(descInvalidSize)}
	ErrInvalidCombination   = &KernelError{Kind: ErrArgument, Description: "InvalidCombination", Code: code(descInvalidCombination)}
	ErrInvalidPriority      = &KernelError{Kind: ErrArgument, Description: "InvalidPriority", Code: code(descInvalidPriority)}
	ErrInvalidCoreId        = &KernelError{Kind: ErrArgument, Description: "InvalidCoreId", Code: code(descInvalidCoreId)}
	ErrOutOfMemory          = &KernelError{Kind: ErrResource, Description: "OutOfMemory", Code: code(descOutOfMemory)}
	ErrOutOfResource        = &KernelError{Kind: ErrResource, Description: "OutOfResource", Code: code(descOutOfResource)}
	ErrOutOfHandles         = &KernelError{Kind: ErrResource, Description: "OutOfHandles", Code: code(descOutOfHandles)}
	ErrOutOfSessions        = &KernelError{Kind: ErrResource, Description: "OutOfSessions", Code: code(descOutOfSessions)}
	ErrLimitReached         = &KernelError{Kind: ErrResource, Description: "LimitReached", Code: code(descLimitReached)}
	ErrTerminationRequested = &KernelError{Kind: ErrState, Description: "TerminationRequested", Code: code(descTerminationRequested)}
	ErrSessionClosed        = &KernelError{Kind: ErrState, Description: "SessionClosed", Code: code(descSessionClosed)}
	ErrCancelled            = &KernelError{Kind: ErrState, Description: "Cancelled", Code: code(descCancelled)}
	ErrInvalidState         = &KernelError{Kind: ErrState, Description: "InvalidState", Code: code(descInvalidState)}
	ErrMessageTooLarge      = &KernelError{Kind: ErrIPCProtocol, Description: "MessageTooLarge", Code: code(descMessageTooLarge)}
	ErrReceiveListBroken    = &KernelError{Kind: ErrIPCProtocol, Description: "ReceiveListBroken", Code: code(descReceiveListBroken)}
	ErrBadMagic             = &KernelError{Kind: ErrIPCProtocol, Description: "InvalidMagic"}
)
