package errors

import (
	"errors"
	"fmt"
	"testing"

	"nx-horizon-rt/resultcode"
)

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		expected string
	}{
		{ErrArgument, "kernel argument error"},
		{ErrResource, "kernel resource error"},
		{ErrState, "kernel state error"},
		{ErrIPCProtocol, "IPC protocol error"},
		{ErrIPCService, "IPC service error"},
		{ErrGeneric, "generic error"},
		{ErrorKind(999), "unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("ErrorKind.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestKernelError_Error(t *testing.T) {
	var nilErr *KernelError
	if got := nilErr.Error(); got != "<nil>" {
		t.Errorf("nil.Error() = %q, want %q", got, "<nil>")
	}

	err := &KernelError{
		Op:          "svc.SetHeapSize",
		Kind:        ErrArgument,
		Description: "InvalidSize",
		Code:        resultcode.Pack(resultcode.ModuleKernel, descInvalidSize),
	}
	if got, want := err.Error(), fmt.Sprintf("svc.SetHeapSize: InvalidSize (result=0x%04x)", uint32(err.Code)); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestKernelError_Unwrap(t *testing.T) {
	underlying := fmt.Errorf("underlying error")
	err := &KernelError{Op: "test", Kind: ErrGeneric, Err: underlying}
	if got := err.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	var nilErr *KernelError
	if got := nilErr.Unwrap(); got != nil {
		t.Errorf("nil.Unwrap() = %v, want nil", got)
	}
}

func TestKernelError_Is(t *testing.T) {
	err1 := &KernelError{Kind: ErrArgument, Description: "InvalidHandle", Op: "a"}
	err2 := &KernelError{Kind: ErrArgument, Description: "InvalidHandle", Op: "b"}
	err3 := &KernelError{Kind: ErrArgument, Description: "InvalidSize", Op: "c"}

	if !err1.Is(err2) {
		t.Error("err1.Is(err2) should be true (same kind+description)")
	}
	if err1.Is(err3) {
		t.Error("err1.Is(err3) should be false (different description)")
	}
	if err1.Is(fmt.Errorf("some error")) {
		t.Error("err1.Is(plain error) should be false")
	}

	var nilErr *KernelError
	if !nilErr.Is(nil) {
		t.Error("nil.Is(nil) should be true")
	}
}

func TestFromResultCode_RoundTrip(t *testing.T) {
	descriptions := []uint32{
		descInvalidHandle, descInvalidAddress, descInvalidSize,
		descInvalidCombination, descInvalidPriority, descInvalidCoreId,
		descOutOfMemory, descOutOfResource, descOutOfHandles, descOutOfSessions,
		descLimitReached, descTerminationRequested, descSessionClosed,
		descCancelled, descInvalidState, descInvalidCurrentMemory,
		descInvalidMemoryRegion, descInvalidNewMemoryPermission, descNotFound,
		descMessageTooLarge, descReceiveListBroken,
	}

	for _, d := range descriptions {
		rc := resultcode.Pack(resultcode.ModuleKernel, d)
		kerr := FromResultCode(rc)
		if kerr == nil {
			t.Fatalf("FromResultCode(%v) = nil", rc)
		}
		if kerr.Description == "" {
			t.Errorf("FromResultCode(description=%d) produced Unknown", d)
		}
		if got := kerr.ToResultCode(); got != rc {
			t.Errorf("ToResultCode() round-trip mismatch for description %d: got %v, want %v", d, got, rc)
		}
	}
}

func TestFromResultCode_Unknown(t *testing.T) {
	rc := resultcode.Pack(resultcode.ModuleKernel, 999)
	kerr := FromResultCode(rc)
	if kerr.Kind != ErrGeneric || kerr.Description != "" {
		t.Errorf("unknown description should classify as ErrGeneric with empty Description, got %+v", kerr)
	}
	if got := kerr.ToResultCode(); got != rc {
		t.Errorf("unknown code should still round-trip: got %v, want %v", got, rc)
	}
}

func TestFromResultCode_Success(t *testing.T) {
	if err := FromResultCode(resultcode.Success); err != nil {
		t.Errorf("FromResultCode(Success) = %v, want nil", err)
	}
}

func TestWrap(t *testing.T) {
	rc := resultcode.Pack(resultcode.ModuleKernel, descInvalidHandle)
	err := Wrap("svc.CloseHandle", rc)

	if err.Kind != ErrArgument {
		t.Errorf("Kind = %v, want %v", err.Kind, ErrArgument)
	}
	if err.Op != "svc.CloseHandle" {
		t.Errorf("Op = %q, want %q", err.Op, "svc.CloseHandle")
	}
	if err.ToResultCode() != rc {
		t.Errorf("ToResultCode() = %v, want %v", err.ToResultCode(), rc)
	}
}

func TestIsKind(t *testing.T) {
	err := &KernelError{Kind: ErrResource}
	wrapped := fmt.Errorf("wrapped: %w", err)

	if !IsKind(err, ErrResource) {
		t.Error("IsKind(err, ErrResource) should be true")
	}
	if !IsKind(wrapped, ErrResource) {
		t.Error("IsKind(wrapped, ErrResource) should be true")
	}
	if IsKind(err, ErrState) {
		t.Error("IsKind(err, ErrState) should be false")
	}
	if IsKind(fmt.Errorf("plain error"), ErrResource) {
		t.Error("IsKind(plain error, ErrResource) should be false")
	}
}

func TestGetKind(t *testing.T) {
	err := &KernelError{Kind: ErrIPCProtocol}

	kind, ok := GetKind(err)
	if !ok || kind != ErrIPCProtocol {
		t.Errorf("GetKind(err) = (%v, %v), want (%v, true)", kind, ok, ErrIPCProtocol)
	}

	_, ok = GetKind(fmt.Errorf("plain error"))
	if ok {
		t.Error("GetKind(plain error) should return false")
	}
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *KernelError
	}{
		{"ErrInvalidHandle", ErrInvalidHandle},
		{"ErrInvalidAddress", ErrInvalidAddress},
		{"ErrInvalidSize", ErrInvalidSize},
		{"ErrOutOfMemory", ErrOutOfMemory},
		{"ErrOutOfSessions", ErrOutOfSessions},
		{"ErrCancelled", ErrCancelled},
		{"ErrSessionClosed", ErrSessionClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			derived := FromResultCode(tt.err.Code)
			if !errors.Is(derived, tt.err) {
				t.Errorf("errors.Is(FromResultCode(%s.Code), %s) should be true", tt.name, tt.name)
			}
		})
	}
}

func TestErrorChain(t *testing.T) {
	rc := resultcode.Pack(resultcode.ModuleKernel, descNotFound)
	err1 := Wrap("connect_to_named_port", rc)
	err2 := fmt.Errorf("dispatch failed: %w", err1)

	var kerr *KernelError
	if !errors.As(err2, &kerr) {
		t.Error("errors.As should find KernelError in chain")
	}
	if kerr.Op != "connect_to_named_port" {
		t.Errorf("kerr.Op = %q, want %q", kerr.Op, "connect_to_named_port")
	}
}

func TestGenericSentinelWireValue(t *testing.T) {
	// Surfaces that re-expose HOS result codes must reproduce the raw
	// 0xFFFF literal, with no module/description packing applied.
	if got := uint32(ErrGenericSentinel.ToResultCode()); got != 0xFFFF {
		t.Errorf("ErrGenericSentinel.ToResultCode() = 0x%x, want 0xFFFF", got)
	}
}
