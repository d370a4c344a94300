package svc

import (
	"unsafe"

	nxerrors "nx-horizon-rt/errors"
	"nx-horizon-rt/handle"
	"nx-horizon-rt/svc/raw"
)

// heapGranularity is the alignment the kernel requires of heap sizes (2 MiB).
const heapGranularity = 0x200000

// SetHeapSize resizes the process heap, returning its new base address.
// size must be non-zero and a multiple of 2 MiB.
func SetHeapSize(size uint64) (uintptr, error) {
	if size == 0 || size%heapGranularity != 0 {
		return 0, nxerrors.New(nxerrors.ErrArgument, "svc.SetHeapSize", "InvalidSize")
	}
	out := raw.Invoke(raw.SetHeapSize, raw.Regs{1: size})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return 0, nxerrors.Wrap("svc.SetHeapSize", rc)
	}
	return uintptr(out[1]), nil
}

// MemoryPermission mirrors the kernel's memory permission bits.
type MemoryPermission uint32

const (
	PermNone  MemoryPermission = 0
	PermRead  MemoryPermission = 1 << 0
	PermWrite MemoryPermission = 1 << 1
	PermExec  MemoryPermission = 1 << 2
)

// SetMemoryPermission changes the permission of an existing mapping.
func SetMemoryPermission(addr uintptr, size uint64, perm MemoryPermission) error {
	return call1("svc.SetMemoryPermission", raw.SetMemoryPermission, uint64(addr), size, uint64(perm))
}

// MemoryAttribute mirrors the kernel's memory attribute bits (uncached,
// device-mapped, ...).
type MemoryAttribute uint32

// SetMemoryAttribute changes a region's attribute bits.
func SetMemoryAttribute(addr uintptr, size uint64, mask, value MemoryAttribute) error {
	return call1("svc.SetMemoryAttribute", raw.SetMemoryAttribute, uint64(addr), size, uint64(mask), uint64(value))
}

// MapMemory aliases a source range into a destination range (used for stack
// allocation from the heap).
func MapMemory(dst, src uintptr, size uint64) error {
	return call1("svc.MapMemory", raw.MapMemory, uint64(dst), uint64(src), size)
}

// UnmapMemory reverses a MapMemory alias.
func UnmapMemory(dst, src uintptr, size uint64) error {
	return call1("svc.UnmapMemory", raw.UnmapMemory, uint64(dst), uint64(src), size)
}

// MemoryInfo mirrors the kernel's memory-query result.
type MemoryInfo struct {
	Addr       uintptr
	Size       uint64
	MemType    uint32
	Attr       uint32
	Perm       uint32
	IPCRefCount uint32
	DeviceRefCount uint32
}

// QueryMemory reports the memory mapping that contains addr.
func QueryMemory(addr uintptr) (MemoryInfo, uint32, error) {
	var info MemoryInfo
	out := raw.Invoke(raw.QueryMemory, raw.Regs{0: uint64(uintptr(unsafe.Pointer(&info))), 2: uint64(addr)})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return MemoryInfo{}, 0, nxerrors.Wrap("svc.QueryMemory", rc)
	}
	return info, uint32(out[1]), nil
}

// QueryProcessMemory reports the memory mapping that contains addr within
// another process, named by a debug handle (DebugActiveProcess produces
// one). It mirrors QueryMemory but crosses a process boundary.
func QueryProcessMemory(h handle.Debug, addr uintptr) (MemoryInfo, uint32, error) {
	var info MemoryInfo
	out := raw.Invoke(raw.QueryProcessMemory, raw.Regs{0: uint64(uintptr(unsafe.Pointer(&info))), 2: uint64(h), 3: uint64(addr)})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return MemoryInfo{}, 0, nxerrors.Wrap("svc.QueryProcessMemory", rc)
	}
	return info, uint32(out[1]), nil
}

// MapSharedMemory maps a shared-memory block owned by h into the caller's
// address space.
func MapSharedMemory(h handle.SharedMemory, addr uintptr, size uint64, perm MemoryPermission) error {
	return call1("svc.MapSharedMemory", raw.MapSharedMemory, uint64(h), uint64(addr), size, uint64(perm))
}

// UnmapSharedMemory reverses MapSharedMemory.
func UnmapSharedMemory(h handle.SharedMemory, addr uintptr, size uint64) error {
	return call1("svc.UnmapSharedMemory", raw.UnmapSharedMemory, uint64(h), uint64(addr), size)
}

// CreateSharedMemory creates a new shared-memory block of size bytes.
func CreateSharedMemory(size uint64, localPerm, remotePerm MemoryPermission) (handle.SharedMemory, error) {
	out := raw.Invoke(raw.CreateSharedMemory, raw.Regs{1: size, 2: uint64(localPerm), 3: uint64(remotePerm)})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return 0, nxerrors.Wrap("svc.CreateSharedMemory", rc)
	}
	return handle.SharedMemory(out[1]), nil
}

// CreateTransferMemory creates a transfer-memory block over an existing
// mapping, for handing contiguous memory to another process.
func CreateTransferMemory(addr uintptr, size uint64, perm MemoryPermission) (handle.TransferMemory, error) {
	out := raw.Invoke(raw.CreateTransferMemory, raw.Regs{1: uint64(addr), 2: size, 3: uint64(perm)})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return 0, nxerrors.Wrap("svc.CreateTransferMemory", rc)
	}
	return handle.TransferMemory(out[1]), nil
}

// MapTransferMemory maps a transfer-memory block into the caller.
func MapTransferMemory(h handle.TransferMemory, addr uintptr, size uint64, perm MemoryPermission) error {
	return call1("svc.MapTransferMemory", raw.MapTransferMemory, uint64(h), uint64(addr), size, uint64(perm))
}

// UnmapTransferMemory reverses MapTransferMemory.
func UnmapTransferMemory(h handle.TransferMemory, addr uintptr, size uint64) error {
	return call1("svc.UnmapTransferMemory", raw.UnmapTransferMemory, uint64(h), uint64(addr), size)
}
