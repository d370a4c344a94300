package svc

import (
	"unsafe"

	nxerrors "nx-horizon-rt/errors"
	"nx-horizon-rt/handle"
	"nx-horizon-rt/svc/raw"
)

// BreakReason selects the kind of debug break Break raises.
type BreakReason uint32

const (
	BreakPanic                BreakReason = 0
	BreakAssert                BreakReason = 1
	BreakUser                  BreakReason = 2
	BreakPreLoadDll             BreakReason = 3
	BreakPostLoadDll            BreakReason = 4
	BreakPreUnloadDll           BreakReason = 5
	BreakPostUnloadDll          BreakReason = 6
	BreakCppException           BreakReason = 7
)

// Break raises a debug break; if no debugger is attached the process
// terminates. arg carries reason-specific data, info a pointer/length pair.
func Break(reason BreakReason, arg uintptr, infoPtr uintptr, infoSize uint64) {
	raw.Invoke(raw.Break, raw.Regs{1: uint64(reason), 2: uint64(arg), 3: uint64(infoPtr), 4: infoSize})
}

// OutputDebugString writes s to the attached debugger's log, a no-op when
// no debugger is attached.
func OutputDebugString(s string) {
	if len(s) == 0 {
		return
	}
	b := []byte(s)
	raw.Invoke(raw.OutputDebugString, raw.Regs{1: uint64(uintptr(unsafe.Pointer(&b[0]))), 2: uint64(len(b))})
}

// Debug process attach/control. Scope per §1: these wrappers exist because
// the SVC layer carries them, but the debugger orchestration that would use
// them (breakpoint management, event loop) is out of scope for this core.

// DebugEventSize is the fixed size of the event record GetDebugEvent
// writes; callers provide a buffer at least this large.
const DebugEventSize = 0x98

// DebugActiveProcess attaches a debugger to the process named by pid,
// returning a debug handle used by the rest of this file's calls.
func DebugActiveProcess(pid uint64) (handle.Debug, error) {
	out := raw.Invoke(raw.DebugActiveProcess, raw.Regs{1: pid})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return 0, nxerrors.Wrap("svc.DebugActiveProcess", rc)
	}
	return handle.Debug(out[1]), nil
}

// BreakDebugProcess forces every thread in the debugged process into a
// debug-break exception, landing it in GetDebugEvent's stream.
func BreakDebugProcess(h handle.Debug) error {
	return call1("svc.BreakDebugProcess", raw.BreakDebugProcess, uint64(h))
}

// GetDebugEvent reads the oldest pending debug event for h into out, which
// must be at least DebugEventSize bytes.
func GetDebugEvent(h handle.Debug, out []byte) error {
	if len(out) < DebugEventSize {
		return nxerrors.New(nxerrors.ErrArgument, "svc.GetDebugEvent", "InvalidSize")
	}
	regs := raw.Regs{0: uint64(uintptr(unsafe.Pointer(&out[0]))), 2: uint64(h)}
	out2 := raw.Invoke(raw.GetDebugEvent, regs)
	if rc := raw.ResultOf(out2); !rc.IsSuccess() {
		return nxerrors.Wrap("svc.GetDebugEvent", rc)
	}
	return nil
}

// ContinueDebugEvent resumes a debugged process past its current event
// (3.0.0+ signature): flags selects which exception classes stay suspended,
// threadIDs optionally restricts which threads resume.
func ContinueDebugEvent(h handle.Debug, flags uint32, threadIDs []uint64) error {
	regs := raw.Regs{1: uint64(h), 2: uint64(flags)}
	if len(threadIDs) > 0 {
		regs[3] = uint64(uintptr(unsafe.Pointer(&threadIDs[0])))
		regs[4] = uint64(len(threadIDs))
	}
	out := raw.Invoke(raw.ContinueDebugEvent, regs)
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return nxerrors.Wrap("svc.ContinueDebugEvent", rc)
	}
	return nil
}

// LegacyContinueDebugEvent is ContinueDebugEvent's pre-3.0.0 signature: it
// has no per-thread resume list, only the flags word.
func LegacyContinueDebugEvent(h handle.Debug, flags uint32) error {
	regs := raw.Regs{1: uint64(flags), 2: uint64(h)}
	out := raw.Invoke(raw.LegacyContinueDebugEvent, regs)
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return nxerrors.Wrap("svc.LegacyContinueDebugEvent", rc)
	}
	return nil
}

// ThreadContextSize is the fixed size of the register dump GetThreadContext3
// writes.
const ThreadContextSize = 0x320

// GetThreadContext3 reads the full register context of threadID within the
// process debugged by h into out, which must be at least ThreadContextSize
// bytes.
func GetThreadContext3(h handle.Debug, threadID uint64, out []byte) error {
	if len(out) < ThreadContextSize {
		return nxerrors.New(nxerrors.ErrArgument, "svc.GetThreadContext3", "InvalidSize")
	}
	regs := raw.Regs{0: uint64(uintptr(unsafe.Pointer(&out[0]))), 1: uint64(h), 2: threadID}
	out2 := raw.Invoke(raw.GetThreadContext3, regs)
	if rc := raw.ResultOf(out2); !rc.IsSuccess() {
		return nxerrors.Wrap("svc.GetThreadContext3", rc)
	}
	return nil
}
