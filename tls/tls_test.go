package tls

import (
	"testing"
	"unsafe"

	"nx-horizon-rt/handle"
)

func TestLayoutInvariants(t *testing.T) {
	var region ThreadLocalRegion
	if got := unsafe.Sizeof(region); got != RegionSize {
		t.Fatalf("ThreadLocalRegion size = %d, want %d", got, RegionSize)
	}
	if got := unsafe.Sizeof(region.Vars); got != ThreadVarsSize {
		t.Fatalf("ThreadVars size = %d, want %d", got, ThreadVarsSize)
	}
}

func TestThreadVarsOffset(t *testing.T) {
	r := New()
	base := r.BaseAddr()
	varsAddr := uintptr(unsafe.Pointer(r.Vars()))
	if got := varsAddr - base; got != ThreadVarsOffset {
		t.Fatalf("ThreadVars offset = 0x%x, want 0x%x", got, ThreadVarsOffset)
	}
}

func TestBootstrapWritesMagicAndTLSPtr(t *testing.T) {
	r := New()
	Bootstrap(r, BootstrapParams{
		ThreadHandle: handle.Thread(0xDEAD0001),
		TLSPtr:       0x7f0000001000,
		Reent:        0x7f0000002000,
	})

	v := r.Vars()
	if v.Magic != Magic {
		t.Errorf("Magic = 0x%x, want 0x%x", v.Magic, Magic)
	}
	if v.Handle != handle.Thread(0xDEAD0001) {
		t.Errorf("Handle = %v, want 0xDEAD0001", v.Handle)
	}
	if v.TLSPtr != 0x7f0000001000 {
		t.Errorf("TLSPtr = 0x%x, want 0x7f0000001000", v.TLSPtr)
	}
	if !v.IsInitialized() {
		t.Error("expected IsInitialized() after Bootstrap")
	}
	if got := ReadTP(r); got != v.TLSPtr {
		t.Errorf("ReadTP() = 0x%x, want 0x%x", got, v.TLSPtr)
	}
}

func TestEncodeThreadVarsLayout(t *testing.T) {
	v := &ThreadVars{
		Magic:  Magic,
		Handle: handle.Thread(0xDEAD0001),
		TLSPtr: 0x7f0000001000,
	}
	buf := EncodeThreadVars(v)
	if len(buf) != ThreadVarsSize {
		t.Fatalf("encoded length = %d, want %d", len(buf), ThreadVarsSize)
	}
	// magic at 0x00, handle at 0x04 (TLR offsets 0x1E0/0x1E4), tls_ptr at
	// the last 8 bytes (TLR offset 0x1F8).
	gotMagic := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	if gotMagic != Magic {
		t.Errorf("encoded magic = 0x%x, want 0x%x", gotMagic, Magic)
	}
	gotHandle := uint32(buf[4]) | uint32(buf[5])<<8 | uint32(buf[6])<<16 | uint32(buf[7])<<24
	if gotHandle != uint32(v.Handle) {
		t.Errorf("encoded handle = 0x%x, want 0x%x", gotHandle, uint32(v.Handle))
	}
	var gotTLS uint64
	for i := ThreadVarsSize - 1; i >= ThreadVarsSize-8; i-- {
		gotTLS = gotTLS<<8 | uint64(buf[i])
	}
	if gotTLS != uint64(v.TLSPtr) {
		t.Errorf("encoded tls_ptr = 0x%x, want 0x%x", gotTLS, uint64(v.TLSPtr))
	}
}

func TestSlotAllocator(t *testing.T) {
	a := NewSlotAllocator()
	seen := map[int]bool{}
	for i := 0; i < NumSlots; i++ {
		idx, ok := a.Acquire()
		if !ok {
			t.Fatalf("Acquire failed at iteration %d", i)
		}
		if seen[idx] {
			t.Fatalf("slot %d handed out twice", idx)
		}
		seen[idx] = true
	}
	if _, ok := a.Acquire(); ok {
		t.Fatal("expected Acquire to fail once all slots are taken")
	}
	a.Release(0)
	if idx, ok := a.Acquire(); !ok || idx != 0 {
		t.Fatalf("expected to reacquire slot 0, got %d, %v", idx, ok)
	}
}

func TestSegmentImageInstantiate(t *testing.T) {
	img := SegmentImage{Data: []byte{1, 2, 3}, BSSSize: 2}
	if img.Size() != 5 {
		t.Fatalf("Size() = %d, want 5", img.Size())
	}
	dst := []byte{9, 9, 9, 9, 9, 9}
	got := img.InstantiateInto(dst)
	want := []byte{1, 2, 3, 0, 0}
	if len(got) != len(want) {
		t.Fatalf("instantiated length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], want[i])
		}
	}
	if dst[5] != 9 {
		t.Fatal("InstantiateInto wrote past Size()")
	}
}
