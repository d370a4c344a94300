// Package svc is the typed SVC layer: memory-safe, typed wrappers around
// the raw register-passing syscall ABI in svc/raw. Every wrapper here
// translates a zero ResultCode into a nil error and a non-zero one into a
// *errors.KernelError from the closed taxonomy, classified by matching the
// description field the same way errors.FromResultCode does.
package svc

import (
	"context"
	"time"
	"unsafe"

	nxerrors "nx-horizon-rt/errors"
	"nx-horizon-rt/handle"
	"nx-horizon-rt/logging"
	"nx-horizon-rt/svc/raw"
)

// MaxPriority is the lowest-urgency thread priority; priorities run 0..=0x3F
// with lower numbers meaning higher priority.
const MaxPriority = 0x3F

// CreateThread creates a new thread in the created (suspended) state.
// stackTop must be 16-byte aligned and prio must be in 0..=MaxPriority.
func CreateThread(entry, arg, stackTop uintptr, prio uint32, coreID int32) (handle.Thread, error) {
	if prio > MaxPriority {
		return 0, nxerrors.New(nxerrors.ErrArgument, "svc.CreateThread", "InvalidPriority")
	}
	if stackTop%16 != 0 {
		return 0, nxerrors.New(nxerrors.ErrArgument, "svc.CreateThread", "InvalidAddress")
	}
	regs := raw.Regs{
		1: uint64(entry),
		2: uint64(arg),
		3: uint64(stackTop),
		4: uint64(prio),
		5: uint64(uint32(coreID)),
	}
	out := raw.Invoke(raw.CreateThread, regs)
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return 0, nxerrors.Wrap("svc.CreateThread", rc)
	}
	h := handle.Thread(out[1])
	logging.WithThread(logging.Default(), uint32(h)).Debug("thread created",
		"priority", prio, "core", coreID)
	return h, nil
}

// StartThread transitions a created thread to runnable.
func StartThread(h handle.Thread) error {
	return call1("svc.StartThread", raw.StartThread, uint64(h))
}

// pauseOrResume issues SetThreadActivity with the Paused/Runnable activity
// value (0 = Runnable, 1 = Paused per the design's enum).
func pauseOrResume(h handle.Thread, paused bool) error {
	activity := uint64(0)
	if paused {
		activity = 1
	}
	out := raw.Invoke(raw.SetThreadActivity, raw.Regs{1: uint64(h), 2: activity})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return nxerrors.Wrap("svc.SetThreadActivity", rc)
	}
	return nil
}

// PauseThread suspends a running thread.
func PauseThread(h handle.Thread) error { return pauseOrResume(h, true) }

// ResumeThread resumes a paused thread.
func ResumeThread(h handle.Thread) error { return pauseOrResume(h, false) }

// ExitThread terminates the calling thread; it never returns.
func ExitThread() {
	raw.Invoke(raw.ExitThread, raw.Regs{})
	panic("svc: ExitThread returned")
}

// ExitProcess terminates the calling process; it never returns.
func ExitProcess() {
	raw.Invoke(raw.ExitProcess, raw.Regs{})
	panic("svc: ExitProcess returned")
}

// Negative sleep values are yield hints rather than real sleeps; exposed as
// named functions instead of accepting negative durations.
const (
	yieldNoMigration   = 0
	yieldWithMigration = -1
	yieldToAnyThread   = -2
)

// Sleep blocks the calling thread for the given duration, capped at
// time.Duration's own max (which already fits under int64 nanoseconds).
func Sleep(d time.Duration) {
	raw.Invoke(raw.SleepThread, raw.Regs{0: uint64(int64(d))})
}

// YieldNoMigration yields without allowing the scheduler to migrate the
// calling thread to another core.
func YieldNoMigration() { raw.Invoke(raw.SleepThread, raw.Regs{0: uint64(int64(yieldNoMigration))}) }

// YieldWithMigration yields, allowing migration to another core.
func YieldWithMigration() {
	v := int64(yieldWithMigration)
	raw.Invoke(raw.SleepThread, raw.Regs{0: uint64(v)})
}

// YieldToAnyThread yields to any other runnable thread, load-balancing
// across cores.
func YieldToAnyThread() {
	v := int64(yieldToAnyThread)
	raw.Invoke(raw.SleepThread, raw.Regs{0: uint64(v)})
}

// GetThreadPriority returns a thread's scheduling priority.
func GetThreadPriority(h handle.Thread) (uint32, error) {
	out := raw.Invoke(raw.GetThreadPriority, raw.Regs{1: uint64(h)})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return 0, nxerrors.Wrap("svc.GetThreadPriority", rc)
	}
	return uint32(out[1]), nil
}

// SetThreadPriority changes a thread's scheduling priority.
func SetThreadPriority(h handle.Thread, prio uint32) error {
	if prio > MaxPriority {
		return nxerrors.New(nxerrors.ErrArgument, "svc.SetThreadPriority", "InvalidPriority")
	}
	return call1("svc.SetThreadPriority", raw.SetThreadPriority, uint64(h), uint64(prio))
}

// SetCoreMask applies a CoreAffinity to a thread.
func SetCoreMask(h handle.Thread, a CoreAffinity) error {
	coreID, mask := a.ToCoreIDAndMask()
	out := raw.Invoke(raw.SetThreadCoreMask, raw.Regs{1: uint64(h), 2: uint64(uint32(coreID)), 3: uint64(mask)})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return nxerrors.Wrap("svc.SetThreadCoreMask", rc)
	}
	return nil
}

// GetThreadID returns the kernel-wide unique thread ID (distinct from the
// process-scoped handle).
func GetThreadID(h handle.Thread) (uint64, error) {
	out := raw.Invoke(raw.GetThreadId, raw.Regs{1: uint64(h)})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return 0, nxerrors.Wrap("svc.GetThreadID", rc)
	}
	return out[1], nil
}

// GetCurrentProcessorNumber returns the core the calling thread is
// currently running on.
func GetCurrentProcessorNumber() uint32 {
	out := raw.Invoke(raw.GetCurrentProcessorNumber, raw.Regs{})
	return uint32(out[0])
}

// CloseHandle releases a kernel handle; it is the only way to decrement the
// kernel object's refcount. Per the error-handling design, failures here are
// typically ignored during shutdown paths, but the caller still gets the
// ResultCode to decide.
func CloseHandle(h handle.Handle) error {
	return call1("svc.CloseHandle", raw.CloseHandle, uint64(h))
}

// GetSystemTick returns the current value of the system tick counter.
func GetSystemTick() uint64 {
	out := raw.Invoke(raw.GetSystemTick, raw.Regs{})
	return out[0]
}

// GetProcessID returns the process ID that owns h, which must name a
// process or a debug object attached to one.
func GetProcessID(h handle.Handle) (uint64, error) {
	out := raw.Invoke(raw.GetProcessId, raw.Regs{1: uint64(h)})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return 0, nxerrors.Wrap("svc.GetProcessID", rc)
	}
	return out[1], nil
}

// call1 is the common shape for syscalls that take handle/value arguments
// starting at x1 and return only a ResultCode in x0.
func call1(op string, num raw.Number, args ...uint64) error {
	var regs raw.Regs
	for i, a := range args {
		regs[i+1] = a
	}
	out := raw.Invoke(num, regs)
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return nxerrors.Wrap(op, rc)
	}
	return nil
}

// WaitSynchronization blocks until one of the given handles is signaled or
// timeout elapses. A zero-length handle slice with a positive timeout
// simply sleeps for timeout and reports a timeout result; CUR_THREAD and
// CUR_PROCESS are never valid wait targets.
func WaitSynchronization(ctx context.Context, handles []handle.Handle, timeout time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		logging.FromContext(ctx).Debug("wait abandoned before syscall", "error", err)
		return 0, err
	}
	for _, h := range handles {
		if h == handle.CurrentThread || h == handle.CurrentProcess {
			return 0, nxerrors.New(nxerrors.ErrArgument, "svc.WaitSynchronization", "InvalidHandle")
		}
	}
	if len(handles) > 64 {
		return 0, nxerrors.New(nxerrors.ErrArgument, "svc.WaitSynchronization", "InvalidCombination")
	}
	var regs raw.Regs
	regs[1] = uint64(len(handles))
	if len(handles) > 0 {
		regs[2] = uint64(uintptr(unsafe.Pointer(&handles[0])))
	}
	regs[3] = uint64(int64(timeout))
	out := raw.Invoke(raw.WaitSynchronization, regs)
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return 0, nxerrors.Wrap("svc.WaitSynchronization", rc)
	}
	return int(out[1]), nil
}

// CancelSynchronization causes the pending or next blocking call on h to
// fail with the Cancelled result code.
func CancelSynchronization(h handle.Thread) error {
	return call1("svc.CancelSynchronization", raw.CancelSynchronization, uint64(h))
}
