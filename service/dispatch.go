package service

import (
	"unsafe"

	nxerrors "nx-horizon-rt/errors"
	"nx-horizon-rt/cmif"
	"nx-horizon-rt/hipc"
	"nx-horizon-rt/logging"
	"nx-horizon-rt/svc"
)

// MaxBuffers, MaxInObjects and MaxInHandles cap a single Dispatch's fixed
// arrays, mirroring the sizes libnx's Service.h reserves.
const (
	MaxBuffers   = 8
	MaxInObjects = 8
	MaxInHandles = 8
)

// BufferAttr is a bitset describing how a Dispatch buffer argument should
// be transferred.
type BufferAttr uint32

const (
	BufferIn                      BufferAttr = 1 << 0
	BufferOut                     BufferAttr = 1 << 1
	BufferHIPCMapAlias            BufferAttr = 1 << 2
	BufferHIPCPointer             BufferAttr = 1 << 3
	BufferFixedSize               BufferAttr = 1 << 4
	BufferHIPCAutoSelect          BufferAttr = 1 << 5
	BufferMapTransferNonSecure    BufferAttr = 1 << 6
	BufferMapTransferNonDevice    BufferAttr = 1 << 7
)

// Has reports whether flag is set in a.
func (a BufferAttr) Has(flag BufferAttr) bool { return a&flag != 0 }

// OutHandleAttr names what kind of handle (if any) a dispatch response slot
// carries.
type OutHandleAttr uint8

const (
	OutHandleNone OutHandleAttr = 0
	OutHandleCopy OutHandleAttr = 1
	OutHandleMove OutHandleAttr = 2
)

// dispatchBuffer pairs a buffer argument with its transfer attributes.
type dispatchBuffer struct {
	data []byte
	attr BufferAttr
}

// Dispatch builds and sends one CMIF command to a Service, the typed
// equivalent of libnx's serviceDispatch family: chain the builder methods
// (Context, InRaw, OutSize, Buffer, InObject, InHandle, OutObjects,
// OutHandle, SendPID) to describe the call, then Send it.
type Dispatch struct {
	svc       Service
	requestID uint32
	context   uint32
	inData    []byte
	outSize   int
	buffers   []dispatchBuffer
	inObjects []uint32
	inHandles []uint32
	outObjects int
	outHandles []OutHandleAttr
	sendPID   bool
}

// NewDispatch starts building a dispatch of requestID against svc.
func NewDispatch(s Service, requestID uint32) Dispatch {
	return Dispatch{svc: s, requestID: requestID}
}

// Context sets the context token used for versioned (5.0.0+) requests.
func (d Dispatch) Context(ctx uint32) Dispatch { d.context = ctx; return d }

// InRaw sets the raw input payload to copy into the request.
func (d Dispatch) InRaw(data []byte) Dispatch { d.inData = data; return d }

// OutSize sets the expected output payload size.
func (d Dispatch) OutSize(size int) Dispatch { d.outSize = size; return d }

// Buffer adds a buffer argument with the given transfer attributes, up to
// MaxBuffers.
func (d Dispatch) Buffer(data []byte, attr BufferAttr) Dispatch {
	if len(d.buffers) < MaxBuffers {
		buffers := make([]dispatchBuffer, len(d.buffers), len(d.buffers)+1)
		copy(buffers, d.buffers)
		d.buffers = append(buffers, dispatchBuffer{data: data, attr: attr})
	}
	return d
}

// InObject adds a domain input object ID, up to MaxInObjects.
func (d Dispatch) InObject(objectID uint32) Dispatch {
	if len(d.inObjects) < MaxInObjects {
		ids := make([]uint32, len(d.inObjects), len(d.inObjects)+1)
		copy(ids, d.inObjects)
		d.inObjects = append(ids, objectID)
	}
	return d
}

// InHandle adds an input copy handle, up to MaxInHandles.
func (d Dispatch) InHandle(h uint32) Dispatch {
	if len(d.inHandles) < MaxInHandles {
		hs := make([]uint32, len(d.inHandles), len(d.inHandles)+1)
		copy(hs, d.inHandles)
		d.inHandles = append(hs, h)
	}
	return d
}

// OutObjects sets the number of domain objects the response carries.
func (d Dispatch) OutObjects(count int) Dispatch { d.outObjects = count; return d }

// OutHandle declares that response handle slot idx carries a handle of the
// given kind. A declared slot the response turns out not to fill makes Send
// fail with the generic sentinel instead of handing back a zero handle.
func (d Dispatch) OutHandle(idx int, attr OutHandleAttr) Dispatch {
	if idx < 0 || idx >= MaxInHandles {
		return d
	}
	hs := make([]OutHandleAttr, len(d.outHandles))
	copy(hs, d.outHandles)
	for len(hs) <= idx {
		hs = append(hs, OutHandleNone)
	}
	hs[idx] = attr
	d.outHandles = hs
	return d
}

// SendPID marks the request to include the caller's process ID.
func (d Dispatch) SendPID() Dispatch { d.sendPID = true; return d }

// DispatchResult is a successfully parsed dispatch response.
type DispatchResult struct {
	Data        []byte
	Objects     []uint32
	CopyHandles []uint32
	MoveHandles []uint32
}

// bufferMode maps a BufferAttr's transfer-restriction bits onto a hipc
// BufferMode.
func bufferMode(attr BufferAttr) hipc.BufferMode {
	switch {
	case attr.Has(BufferMapTransferNonSecure):
		return hipc.BufferNonSecure
	case attr.Has(BufferMapTransferNonDevice):
		return hipc.BufferNonDevice
	default:
		return hipc.BufferNormal
	}
}

// Send lays out the request into buf, sends it over the service's session,
// and parses the response.
func (d Dispatch) Send(buf []byte) (DispatchResult, error) {
	if !d.svc.IsActive() {
		return DispatchResult{}, nxerrors.ErrGenericSentinel
	}
	isDomain := d.svc.IsDomain() || d.svc.IsDomainSubservice()

	var numInAuto, numOutAuto, numInBuf, numOutBuf, numInOutBuf, numInPtr, numOutPtr, numOutFixedPtr int
	for _, b := range d.buffers {
		isIn := b.attr.Has(BufferIn)
		isOut := b.attr.Has(BufferOut)
		switch {
		case b.attr.Has(BufferHIPCAutoSelect):
			if isIn {
				numInAuto++
			}
			if isOut {
				numOutAuto++
			}
		case b.attr.Has(BufferHIPCMapAlias):
			switch {
			case isIn && isOut:
				numInOutBuf++
			case isIn:
				numInBuf++
			case isOut:
				numOutBuf++
			}
		case b.attr.Has(BufferHIPCPointer):
			switch {
			case isIn:
				numInPtr++
			case isOut && b.attr.Has(BufferFixedSize):
				numOutFixedPtr++
			case isOut:
				numOutPtr++
			}
		}
	}

	objectID := uint32(0)
	if isDomain {
		objectID = d.svc.ObjectID
	}
	fmtReq := cmif.RequestFormat{
		ObjectID:            objectID,
		CommandID:           d.requestID,
		Context:             d.context,
		DataSize:            len(d.inData),
		ServerPointerSize:   int(d.svc.PointerBufferSize),
		NumInBuffers:        numInBuf + numInAuto,
		NumOutBuffers:       numOutBuf + numOutAuto,
		NumInOutBuffers:     numInOutBuf,
		NumInPointers:       numInPtr + numInAuto,
		NumOutPointers:      numOutPtr + numOutAuto,
		NumOutFixedPointers: numOutFixedPtr,
		NumObjects:          len(d.inObjects),
		NumHandles:          len(d.inHandles),
		SendPID:             d.sendPID,
	}

	req, err := cmif.BuildRequest(buf, fmtReq)
	if err != nil {
		return DispatchResult{}, err
	}
	copy(req.Payload, d.inData)
	for i, id := range d.inObjects {
		req.PutObject(i, id)
	}
	writeCopyHandles(buf, req.HIPCLayout, d.inHandles)
	writeBufferDescriptors(buf, req, fmtReq.ServerPointerSize, d.buffers)

	log := logging.WithCommand(logging.WithSession(logging.Default(), uint32(d.svc.Session)), d.requestID)
	log.Debug("dispatching", "domain", isDomain, "data_size", len(d.inData), "buffers", len(d.buffers))

	if err := svc.SendSyncRequest(d.svc.Session); err != nil {
		log.Debug("dispatch failed", "error", err)
		return DispatchResult{}, err
	}

	resp, err := cmif.ParseResponse(buf, isDomain, d.outSize)
	if err != nil {
		return DispatchResult{}, err
	}
	copyIdx, moveIdx := 0, 0
	for _, attr := range d.outHandles {
		switch attr {
		case OutHandleCopy:
			if copyIdx >= len(resp.CopyHandles) {
				return DispatchResult{}, nxerrors.ErrGenericSentinel
			}
			copyIdx++
		case OutHandleMove:
			if moveIdx >= len(resp.MoveHandles) {
				return DispatchResult{}, nxerrors.ErrGenericSentinel
			}
			moveIdx++
		}
	}
	return DispatchResult{
		Data:        resp.Data,
		Objects:     resp.Objects,
		CopyHandles: resp.CopyHandles,
		MoveHandles: resp.MoveHandles,
	}, nil
}

// writeBufferDescriptors encodes each dispatch buffer into its matching
// HIPC descriptor slot within buf, following the same send/recv/exch/static
// split the attribute bits selected when the request's metadata was built.
//
// BufferHIPCAutoSelect buffers pick their slot here, per-buffer, against a
// running server pointer-buffer budget: while budget remains and the buffer
// fits in it, it rides as an inline pointer (static descriptor for an
// in-buffer, recv-list entry + out-pointer-size-table entry for an
// out-buffer) and the budget shrinks by the buffer's size; once it no longer
// fits, it falls back to a mapped buffer descriptor instead. Either way both
// the pointer slot and the mapped-buffer slot were reserved in the request's
// metadata, so the unused one is always written with a null address and
// zero size rather than left holding whatever was already in buf.
func writeBufferDescriptors(buf []byte, req cmif.Request, serverPointerSize int, buffers []dispatchBuffer) {
	l := req.HIPCLayout
	sendStaticIdx, sendBufIdx, recvBufIdx, exchBufIdx := 0, 0, 0, 0
	recvListIdx, outSizeIdx := 0, 0
	remaining := serverPointerSize

	for _, b := range buffers {
		addr := bufferAddress(b.data)
		size := len(b.data)
		mode := bufferMode(b.attr)
		isIn := b.attr.Has(BufferIn)
		isOut := b.attr.Has(BufferOut)

		// Classification order must match Send's counting pass exactly:
		// auto-select, then map-alias, then pointer.
		switch {
		case b.attr.Has(BufferHIPCAutoSelect) && isIn:
			if remaining > 0 && size <= remaining {
				putStaticDescriptor(buf, l, sendStaticIdx, hipc.StaticDescriptor{Index: uint8(sendStaticIdx), Address: addr, Size: uint16(size)})
				putBufferDescriptor(buf, l.SendBuffersOff, sendBufIdx, hipc.BufferDescriptor{})
				remaining -= size
			} else {
				putStaticDescriptor(buf, l, sendStaticIdx, hipc.StaticDescriptor{Index: uint8(sendStaticIdx)})
				putBufferDescriptor(buf, l.SendBuffersOff, sendBufIdx, hipc.BufferDescriptor{Address: addr, Size: uint64(size), Mode: mode})
			}
			sendStaticIdx++
			sendBufIdx++
			// An in+out auto-select buffer also takes the out slots, as
			// Send counted it once as in-auto and once as out-auto.
			if !isOut {
				break
			}
			fallthrough

		case b.attr.Has(BufferHIPCAutoSelect) && isOut:
			if remaining > 0 && size <= remaining {
				putRecvListEntry(buf, l, recvListIdx, hipc.RecvListEntry{Address: addr, Size: uint16(size)})
				req.PutOutPointerSize(outSizeIdx, uint16(size))
				putBufferDescriptor(buf, l.RecvBuffersOff, recvBufIdx, hipc.BufferDescriptor{})
				remaining -= size
			} else {
				putRecvListEntry(buf, l, recvListIdx, hipc.RecvListEntry{})
				req.PutOutPointerSize(outSizeIdx, 0)
				putBufferDescriptor(buf, l.RecvBuffersOff, recvBufIdx, hipc.BufferDescriptor{Address: addr, Size: uint64(size), Mode: mode})
			}
			recvListIdx++
			outSizeIdx++
			recvBufIdx++

		case b.attr.Has(BufferHIPCMapAlias) && isIn && isOut:
			putBufferDescriptor(buf, l.ExchBuffersOff, exchBufIdx, hipc.BufferDescriptor{Address: addr, Size: uint64(size), Mode: mode})
			exchBufIdx++
		case b.attr.Has(BufferHIPCMapAlias) && isIn:
			putBufferDescriptor(buf, l.SendBuffersOff, sendBufIdx, hipc.BufferDescriptor{Address: addr, Size: uint64(size), Mode: mode})
			sendBufIdx++
		case b.attr.Has(BufferHIPCMapAlias) && isOut:
			putBufferDescriptor(buf, l.RecvBuffersOff, recvBufIdx, hipc.BufferDescriptor{Address: addr, Size: uint64(size), Mode: mode})
			recvBufIdx++

		case b.attr.Has(BufferHIPCPointer) && isIn:
			putStaticDescriptor(buf, l, sendStaticIdx, hipc.StaticDescriptor{Index: uint8(sendStaticIdx), Address: addr, Size: uint16(size)})
			sendStaticIdx++

		case b.attr.Has(BufferHIPCPointer) && isOut && b.attr.Has(BufferFixedSize):
			putRecvListEntry(buf, l, recvListIdx, hipc.RecvListEntry{Address: addr, Size: uint16(size)})
			recvListIdx++

		case b.attr.Has(BufferHIPCPointer) && isOut:
			putRecvListEntry(buf, l, recvListIdx, hipc.RecvListEntry{Address: addr, Size: uint16(size)})
			req.PutOutPointerSize(outSizeIdx, uint16(size))
			recvListIdx++
			outSizeIdx++
		}
	}
}

// writeCopyHandles fills the copy-handle slots the special header reserved.
func writeCopyHandles(buf []byte, l hipc.Layout, handles []uint32) {
	for i, h := range handles {
		off := l.CopyHandlesOff + i*4
		if off+4 > len(buf) {
			return
		}
		buf[off] = byte(h)
		buf[off+1] = byte(h >> 8)
		buf[off+2] = byte(h >> 16)
		buf[off+3] = byte(h >> 24)
	}
}

func bufferAddress(data []byte) uintptr {
	if len(data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&data[0]))
}

func putStaticDescriptor(buf []byte, l hipc.Layout, idx int, d hipc.StaticDescriptor) {
	off := l.SendStaticsOff + idx*hipc.StaticDescriptorSize
	if off+hipc.StaticDescriptorSize > len(buf) {
		return
	}
	enc := d.Encode()
	copy(buf[off:off+hipc.StaticDescriptorSize], enc[:])
}

func putBufferDescriptor(buf []byte, sectionOff, idx int, d hipc.BufferDescriptor) {
	off := sectionOff + idx*hipc.BufferDescriptorSize
	if off+hipc.BufferDescriptorSize > len(buf) {
		return
	}
	enc := d.Encode()
	copy(buf[off:off+hipc.BufferDescriptorSize], enc[:])
}

func putRecvListEntry(buf []byte, l hipc.Layout, idx int, e hipc.RecvListEntry) {
	off := l.RecvListOff + idx*hipc.RecvListEntrySize
	if off+hipc.RecvListEntrySize > len(buf) {
		return
	}
	enc := e.Encode()
	copy(buf[off:off+hipc.RecvListEntrySize], enc[:])
}
