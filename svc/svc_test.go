package svc_test

import (
	"context"
	"testing"
	"time"

	nxerrors "nx-horizon-rt/errors"
	"nx-horizon-rt/handle"
	"nx-horizon-rt/svc"
	"nx-horizon-rt/svc/raw"
	"nx-horizon-rt/svc/raw/mock"
)

func TestSetHeapSizeRejectsZero(t *testing.T) {
	if _, err := svc.SetHeapSize(0); !nxerrors.IsKind(err, nxerrors.ErrArgument) {
		t.Fatalf("expected ErrArgument, got %v", err)
	}
}

func TestSetHeapSizeRejectsUnaligned(t *testing.T) {
	if _, err := svc.SetHeapSize(0x200000 + 1); !nxerrors.IsKind(err, nxerrors.ErrArgument) {
		t.Fatalf("expected ErrArgument, got %v", err)
	}
}

func TestSetHeapSizeSuccess(t *testing.T) {
	m := mock.New().On(raw.SetHeapSize, raw.Regs{0: 0, 1: 0x7f0000000000})
	restore := raw.SetBackend(m)
	defer restore()

	base, err := svc.SetHeapSize(0x200000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base != 0x7f0000000000 {
		t.Fatalf("base = 0x%x, want 0x7f0000000000", base)
	}
}

func TestCreateThreadRejectsBadPriority(t *testing.T) {
	if _, err := svc.CreateThread(0, 0, 0x1000, 0x40, 0); !nxerrors.IsKind(err, nxerrors.ErrArgument) {
		t.Fatalf("expected ErrArgument, got %v", err)
	}
}

func TestCreateThreadRejectsUnalignedStack(t *testing.T) {
	if _, err := svc.CreateThread(0, 0, 0x1001, 0x20, 0); !nxerrors.IsKind(err, nxerrors.ErrArgument) {
		t.Fatalf("expected ErrArgument, got %v", err)
	}
}

func TestCreateThreadPropagatesKernelError(t *testing.T) {
	m := mock.New().On(raw.CreateThread, raw.Regs{0: uint64(nxerrors.ErrOutOfResource.ToResultCode())})
	restore := raw.SetBackend(m)
	defer restore()

	_, err := svc.CreateThread(0x1000, 0, 0x2000, 0x20, 0)
	if !nxerrors.IsKind(err, nxerrors.ErrResource) {
		t.Fatalf("expected ErrResource, got %v", err)
	}
}

func TestConnectToNamedPortRejectsLongName(t *testing.T) {
	if _, err := svc.ConnectToNamedPort("this-name-is-too-long"); !nxerrors.IsKind(err, nxerrors.ErrArgument) {
		t.Fatalf("expected ErrArgument, got %v", err)
	}
}

func TestConnectToNamedPortSuccess(t *testing.T) {
	m := mock.New().On(raw.ConnectToNamedPort, raw.Regs{0: 0, 1: 0x1001})
	restore := raw.SetBackend(m)
	defer restore()

	h, err := svc.ConnectToNamedPort("sm:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != handle.Session(0x1001) {
		t.Fatalf("session = %v, want 0x1001", h)
	}
}

func TestConnectToNamedPortOutOfSessions(t *testing.T) {
	m := mock.New().On(raw.ConnectToNamedPort, raw.Regs{0: uint64(nxerrors.ErrOutOfSessions.ToResultCode())})
	restore := raw.SetBackend(m)
	defer restore()

	_, err := svc.ConnectToNamedPort("sm:")
	var kerr *nxerrors.KernelError
	if !nxerrors.As(err, &kerr) {
		t.Fatalf("expected *KernelError, got %v", err)
	}
	if kerr.ToResultCode() != nxerrors.ErrOutOfSessions.ToResultCode() {
		t.Fatalf("ToResultCode() did not round-trip: got 0x%x, want 0x%x",
			uint32(kerr.ToResultCode()), uint32(nxerrors.ErrOutOfSessions.ToResultCode()))
	}
}

func TestCreatePortSuccess(t *testing.T) {
	m := mock.New().On(raw.CreatePort, raw.Regs{0: 0, 1: 0x3001, 2: 0x3002})
	restore := raw.SetBackend(m)
	defer restore()

	server, client, err := svc.CreatePort(4, false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server != handle.Port(0x3001) || client != handle.Port(0x3002) {
		t.Fatalf("got (%v, %v), want (0x3001, 0x3002)", server, client)
	}
	if m.LastCall().Regs[2] != 4 {
		t.Fatalf("maxSessions arg = %d, want 4", m.LastCall().Regs[2])
	}
}

func TestManageNamedPortRejectsLongName(t *testing.T) {
	if _, err := svc.ManageNamedPort("this-name-is-too-long", 1); !nxerrors.IsKind(err, nxerrors.ErrArgument) {
		t.Fatalf("expected ErrArgument, got %v", err)
	}
}

func TestManageNamedPortSuccess(t *testing.T) {
	m := mock.New().On(raw.ManageNamedPort, raw.Regs{0: 0, 1: 0x3003})
	restore := raw.SetBackend(m)
	defer restore()

	h, err := svc.ManageNamedPort("test:", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != handle.Port(0x3003) {
		t.Fatalf("port = %v, want 0x3003", h)
	}
}

func TestManageNamedPortUnregister(t *testing.T) {
	m := mock.New().On(raw.ManageNamedPort, raw.Regs{0: 0})
	restore := raw.SetBackend(m)
	defer restore()

	if _, err := svc.ManageNamedPort("test:", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.LastCall().Regs[2] != 0 {
		t.Fatalf("maxSessions arg = %d, want 0", m.LastCall().Regs[2])
	}
}

func TestCoreAffinitySpecificValidation(t *testing.T) {
	if _, err := svc.Specific(2, svc.CoreMask(1<<0|1<<1)); err == nil {
		t.Fatal("expected error: core 2 not in mask")
	}
	a, err := svc.Specific(1, svc.CoreMask(1<<1|1<<2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	core, mask := a.ToCoreIDAndMask()
	if core != 1 || mask != 0b0110 {
		t.Fatalf("ToCoreIDAndMask() = (%d, %b), want (1, 0110)", core, mask)
	}
}

func TestCoreAffinityAnyRejectsEmptyMask(t *testing.T) {
	if _, err := svc.Any(0); err == nil {
		t.Fatal("expected error for empty mask")
	}
}

func TestCoreAffinityTranslations(t *testing.T) {
	any, _ := svc.Any(svc.CoreMask(0b1111))
	if core, mask := any.ToCoreIDAndMask(); core != -1 || mask != 0b1111 {
		t.Fatalf("Any() translation = (%d, %b)", core, mask)
	}
	if core, mask := svc.ProcessDefault().ToCoreIDAndMask(); core != -2 || mask != 0 {
		t.Fatalf("ProcessDefault() translation = (%d, %b)", core, mask)
	}
	nu, _ := svc.NoUpdate(svc.CoreMask(0b0011))
	if core, mask := nu.ToCoreIDAndMask(); core != -3 || mask != 0b0011 {
		t.Fatalf("NoUpdate() translation = (%d, %b)", core, mask)
	}
}

func TestWaitSynchronizationRejectsPseudoHandles(t *testing.T) {
	_, err := svc.WaitSynchronization(context.Background(), []handle.Handle{handle.CurrentThread}, time.Second)
	if !nxerrors.IsKind(err, nxerrors.ErrArgument) {
		t.Fatalf("expected ErrArgument, got %v", err)
	}
}

func TestSendSyncRequestWithUserBufferValidatesAlignment(t *testing.T) {
	buf := make([]byte, 5) // not a page multiple
	if err := svc.SendSyncRequestWithUserBuffer(buf, 0x1000); !nxerrors.IsKind(err, nxerrors.ErrArgument) {
		t.Fatalf("expected ErrArgument, got %v", err)
	}
}

func TestCloseHandleIsANoopErrorOnFailureButStillReturnsIt(t *testing.T) {
	m := mock.New().On(raw.CloseHandle, raw.Regs{0: uint64(nxerrors.ErrInvalidHandle.ToResultCode())})
	restore := raw.SetBackend(m)
	defer restore()

	err := svc.CloseHandle(0xDEAD)
	if !nxerrors.IsKind(err, nxerrors.ErrArgument) {
		t.Fatalf("expected ErrArgument, got %v", err)
	}
}
