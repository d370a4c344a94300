// Package tls models the 512-byte Thread Local Region (TLR) that the kernel
// points TPIDRRO_EL0 at before a thread first executes, and the bootstrap
// sequence that makes heaps, mutexes and language thread-locals safe to use.
//
// The exact byte layout here is load-bearing: compiler-generated thread-local
// accesses read ThreadVars.TLSPtr via a hardcoded offset (0x1F8) from the
// base the kernel wrote into TPIDRRO_EL0, and the kernel itself owns the
// first 0x108 bytes for IPC message marshaling. Nothing in this package may
// reorder or resize ThreadLocalRegion or ThreadVars.
package tls

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"nx-horizon-rt/handle"
	"nx-horizon-rt/logging"
)

const (
	// RegionSize is the kernel-enforced size of a thread's TLS block.
	RegionSize = 0x200

	// IPCBufferOffset is where the kernel-owned IPC message buffer begins.
	IPCBufferOffset = 0x000
	// IPCBufferSize is the size of the IPC message buffer.
	IPCBufferSize = 0x100

	// kernelReservedOffset is 8 bytes reserved by the kernel, not used by
	// userspace.
	kernelReservedOffset = 0x100
	kernelReservedSize   = 0x008

	// SlotsOffset is where the 27 userspace dynamic TLS slots begin.
	SlotsOffset = 0x108
	// NumSlots is the number of userspace dynamic TLS slots.
	NumSlots = 27
	// slotSize is the size in bytes of a single TLS slot (one pointer).
	slotSize = 8

	// ThreadVarsOffset is where the ThreadVars footer begins: TLR+0x1E0.
	ThreadVarsOffset = 0x1E0
	// ThreadVarsSize is the exact size of ThreadVars: 32 bytes.
	ThreadVarsSize = 0x20

	// TLSPtrOffset is the absolute TLR offset of ThreadVars.TLSPtr. The
	// compiler-emitted __aarch64_read_tp reads exactly this offset, so it
	// must equal ThreadVarsOffset + 0x18.
	TLSPtrOffset = 0x1F8

	// Magic is the value written into ThreadVars.Magic on bootstrap:
	// ASCII "!TV$" read little-endian as a u32.
	Magic uint32 = 0x21545624
)

func init() {
	// Static layout assertions, the Go analogue of static_assertions::const_assert_eq!.
	if SlotsOffset+NumSlots*slotSize != ThreadVarsOffset {
		panic("tls: slot array does not end exactly at ThreadVarsOffset")
	}
	if ThreadVarsOffset+ThreadVarsSize != RegionSize {
		panic("tls: ThreadVars does not end exactly at RegionSize")
	}
	if ThreadVarsOffset+0x18 != TLSPtrOffset {
		panic("tls: TLSPtr is not at the hardcoded __aarch64_read_tp offset")
	}
}

// ThreadVars is the 32-byte footer at TLR+0x1E0. Layout:
//
//	0x00 magic            u32
//	0x04 handle            u32 (thread handle)
//	0x08 thread_info_ptr   uintptr
//	0x10 reent             uintptr
//	0x18 tls_ptr           uintptr  (must sit at absolute offset 0x1F8)
type ThreadVars struct {
	Magic         uint32
	Handle        handle.Thread
	ThreadInfoPtr uintptr
	Reent         uintptr
	TLSPtr        uintptr
}

// IsInitialized reports whether the magic value has been written.
func (tv *ThreadVars) IsInitialized() bool {
	return tv != nil && tv.Magic == Magic
}

// ThreadLocalRegion models the full 512-byte per-thread block. Only the
// Slots and ThreadVars portions are userspace-owned; IPCBuffer is kernel
// scratch for syscall marshaling and KernelReserved is opaque.
type ThreadLocalRegion struct {
	IPCBuffer      [IPCBufferSize]byte
	KernelReserved [kernelReservedSize]byte
	Slots          [NumSlots]uintptr
	Vars           ThreadVars
}

// Region is a process-local simulation of a thread's TLR. Real Horizon code
// gets this block's address from TPIDRRO_EL0; since Go has no equivalent
// system register, callers pass a Region explicitly to Bootstrap and
// ReadTP, and tests construct one directly.
type Region struct {
	mem ThreadLocalRegion
}

// New allocates a zeroed TLR, as the loader does for the main thread or a
// spawned-thread bootstrap does for a new one.
func New() *Region {
	return &Region{}
}

// BaseAddr reports the address tp-reads would observe for this region. It
// stands in for `mrs x0, tpidrro_el0` plus `get_base_addr()`.
func (r *Region) BaseAddr() uintptr {
	return uintptr(unsafe.Pointer(&r.mem))
}

// IPCBuffer returns the kernel-owned IPC message buffer slice.
func (r *Region) IPCBuffer() []byte {
	return r.mem.IPCBuffer[:]
}

// Slots returns the 27-entry userspace dynamic slot array.
func (r *Region) Slots() *[NumSlots]uintptr {
	return &r.mem.Slots
}

// Vars returns the ThreadVars footer.
func (r *Region) Vars() *ThreadVars {
	return &r.mem.Vars
}

// BootstrapParams carries the values the loader or a spawning thread knows
// before the new thread executes any language-level code.
type BootstrapParams struct {
	// ThreadHandle is the kernel thread handle for the thread being
	// bootstrapped (read from the loader environment for the main thread,
	// or the handle just returned by svc.CreateThread for a spawned one).
	ThreadHandle handle.Thread
	// TLSPtr is the thread-pointer value compiler-generated thread-local
	// accesses must observe, normally derived from __tls_start adjusted by
	// the TLS model's thread-pointer bias.
	TLSPtr uintptr
	// Reent is a pointer to this thread's reentrant libc-style state block.
	Reent uintptr
}

// Bootstrap performs the main-thread or spawned-thread initialization
// sequence described in the design: write ThreadVars so that
// __aarch64_read_tp can resolve compiler-emitted thread-local accesses
// before any allocator or mutex runs.
//
// Callers must guarantee: this runs on the thread being initialized, runs
// exactly once per thread, and that no concurrent TLS access happens before
// it returns. Violating any of these is undefined behavior on real hardware;
// here it corrupts program state silently since Go enforces none of it for
// us.
func Bootstrap(r *Region, p BootstrapParams) {
	v := r.Vars()
	v.Magic = Magic
	v.Handle = p.ThreadHandle
	v.ThreadInfoPtr = 0
	v.Reent = p.Reent
	v.TLSPtr = p.TLSPtr
	// Logging only after the writes land: on real hardware nothing below
	// this point is safe to call until ThreadVars is in place.
	logging.WithThread(logging.Default(), uint32(p.ThreadHandle)).Debug("thread-local region bootstrapped",
		"tls_ptr", fmt.Sprintf("0x%x", p.TLSPtr))
}

// SegmentImage is the per-thread language TLS segment template: the
// initialized bytes the linker collected (.tdata) followed by BSSSize zero
// bytes (.tbss). InstantiateInto lays out one per-thread copy. Bootstrap
// neither copies nor zeroes a segment; it only publishes the TLSPtr it is
// given through ThreadVars.TLSPtr.
type SegmentImage struct {
	Data    []byte
	BSSSize int
}

// Size is the full instantiated length of the segment.
func (s SegmentImage) Size() int { return len(s.Data) + s.BSSSize }

// InstantiateInto copies the initialized portion into dst and zeroes the
// BSS portion after it. dst must be at least Size() bytes; the instantiated
// prefix of dst is returned.
func (s SegmentImage) InstantiateInto(dst []byte) []byte {
	n := copy(dst, s.Data)
	for i := n; i < s.Size(); i++ {
		dst[i] = 0
	}
	return dst[:s.Size()]
}

// ReadTP emulates the three-instruction __aarch64_read_tp contract:
//
//	mrs x0, tpidrro_el0
//	ldr x0, [x0, #0x1F8]
//	ret
//
// given a region that stands in for the value TPIDRRO_EL0 would hold.
func ReadTP(r *Region) uintptr {
	return r.Vars().TLSPtr
}

// SlotAllocator hands out indices into the 27-entry dynamic TLS slot array.
// Acquiring a slot is a brief process-wide critical section (real Horizon
// code protects the bitmask with a mutex built on arbitrate_lock); reads and
// writes to an acquired slot are lock-free afterward because each thread
// keeps its own copy of the slot array.
type SlotAllocator struct {
	mu   chan struct{}
	used [NumSlots]bool
}

// NewSlotAllocator returns an allocator with every slot free.
func NewSlotAllocator() *SlotAllocator {
	a := &SlotAllocator{mu: make(chan struct{}, 1)}
	a.mu <- struct{}{}
	return a
}

// Acquire reserves and returns the index of a free slot.
func (a *SlotAllocator) Acquire() (int, bool) {
	<-a.mu
	defer func() { a.mu <- struct{}{} }()
	for i := range a.used {
		if !a.used[i] {
			a.used[i] = true
			return i, true
		}
	}
	return 0, false
}

// Release frees a previously acquired slot.
func (a *SlotAllocator) Release(i int) {
	<-a.mu
	defer func() { a.mu <- struct{}{} }()
	a.used[i] = false
}

// EncodeThreadVars serializes ThreadVars to its exact 32-byte wire layout,
// for tests that want to assert on raw bytes the way §8's scenario 1 does
// (reading back *(A+0x1E0), *(A+0x1E4), *(A+0x1F8) from a mock memory image).
func EncodeThreadVars(v *ThreadVars) [ThreadVarsSize]byte {
	var buf [ThreadVarsSize]byte
	binary.LittleEndian.PutUint32(buf[0x00:], v.Magic)
	binary.LittleEndian.PutUint32(buf[0x04:], uint32(v.Handle))
	binary.LittleEndian.PutUint64(buf[0x08:], uint64(v.ThreadInfoPtr))
	binary.LittleEndian.PutUint64(buf[0x10:], uint64(v.Reent))
	binary.LittleEndian.PutUint64(buf[0x18:], uint64(v.TLSPtr))
	return buf
}
