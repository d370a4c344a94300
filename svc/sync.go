package svc

import (
	"time"
	"unsafe"

	nxerrors "nx-horizon-rt/errors"
	"nx-horizon-rt/handle"
	"nx-horizon-rt/svc/raw"
)

// ArbitrateLock implements the kernel half of a userspace mutex: the
// calling thread attempts to become the owner recorded in *mutex, blocking
// if curThread's priority requires it. owner is the thread handle the
// mutex word currently or prospectively names.
func ArbitrateLock(owner handle.Thread, mutex *uint32, curThread handle.Thread) error {
	return call1("svc.ArbitrateLock", raw.ArbitrateLock, uint64(owner), uint64(uintptr(unsafe.Pointer(mutex))), uint64(curThread))
}

// ArbitrateUnlock releases a userspace mutex previously locked with
// ArbitrateLock, waking a waiter if one exists.
func ArbitrateUnlock(mutex *uint32) error {
	return call1("svc.ArbitrateUnlock", raw.ArbitrateUnlock, uint64(uintptr(unsafe.Pointer(mutex))))
}

// WaitProcessWideKeyAtomic implements the wait half of a userspace condvar:
// atomically unlocks mutex and waits on key until signaled or timeout.
func WaitProcessWideKeyAtomic(mutex, key *uint32, curThread handle.Thread, timeout time.Duration) error {
	regs := raw.Regs{
		1: uint64(uintptr(unsafe.Pointer(mutex))),
		2: uint64(uintptr(unsafe.Pointer(key))),
		3: uint64(curThread),
		4: uint64(int64(timeout)),
	}
	out := raw.Invoke(raw.WaitProcessWideKeyAtomic, regs)
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return nxerrors.Wrap("svc.WaitProcessWideKeyAtomic", rc)
	}
	return nil
}

// SignalProcessWideKey wakes up to count threads waiting on key via
// WaitProcessWideKeyAtomic. count == -1 wakes every waiter.
func SignalProcessWideKey(key *uint32, count int32) {
	raw.Invoke(raw.SignalProcessWideKey, raw.Regs{1: uint64(uintptr(unsafe.Pointer(key))), 2: uint64(uint32(count))})
}

// ArbitrationType selects WaitForAddress's comparison semantics.
type ArbitrationType uint32

const (
	ArbitrationWaitIfLessThan                        ArbitrationType = 0
	ArbitrationDecrementAndWaitIfLessThan             ArbitrationType = 1
	ArbitrationWaitIfEqual                            ArbitrationType = 2
)

// WaitForAddress implements the 4.0.0+ futex-like primitive: block while
// *addr compares to value per kind, until timeout or a matching
// SignalToAddress.
func WaitForAddress(addr *uint32, kind ArbitrationType, value int32, timeout time.Duration) error {
	regs := raw.Regs{
		0: uint64(uintptr(unsafe.Pointer(addr))),
		1: uint64(kind),
		2: uint64(uint32(value)),
		3: uint64(int64(timeout)),
	}
	out := raw.Invoke(raw.WaitForAddress, regs)
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return nxerrors.Wrap("svc.WaitForAddress", rc)
	}
	return nil
}

// SignalType selects SignalToAddress's side effect on *addr.
type SignalType uint32

const (
	SignalOnly                           SignalType = 0
	SignalAndIncrementIfEqual            SignalType = 1
	SignalAndModifyBasedOnWaitingCount   SignalType = 2
)

// SignalToAddress wakes up to count threads blocked in WaitForAddress on
// addr, applying the side effect kind describes.
func SignalToAddress(addr *uint32, kind SignalType, value int32, count int32) error {
	regs := raw.Regs{
		0: uint64(uintptr(unsafe.Pointer(addr))),
		1: uint64(kind),
		2: uint64(uint32(value)),
		3: uint64(uint32(count)),
	}
	out := raw.Invoke(raw.SignalToAddress, regs)
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return nxerrors.Wrap("svc.SignalToAddress", rc)
	}
	return nil
}
