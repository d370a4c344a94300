// Package hipc implements the HIPC wire format: the message framing and
// descriptor layout the kernel's IPC syscalls read from and write to a
// thread's TLS IPC buffer. It knows nothing about command semantics (that is
// cmif's job) - only how to lay out and parse the header, special header,
// handle lists and descriptor arrays that make up one message.
package hipc

import "encoding/binary"

// HeaderSize is the size in bytes of the packed message header.
const HeaderSize = 8

// SpecialHeaderSize is the size in bytes of the optional special header.
const SpecialHeaderSize = 4

// StaticDescriptorSize is the size in bytes of one Type-X static descriptor.
const StaticDescriptorSize = 8

// BufferDescriptorSize is the size in bytes of one Type-A/B/W buffer
// descriptor.
const BufferDescriptorSize = 12

// RecvListEntrySize is the size in bytes of one Type-C receive list entry.
const RecvListEntrySize = 8

// AutoRecvStatic is the sentinel recv-list count meaning "calculate from
// the number of send statics" (recv_static_mode == 2).
const AutoRecvStatic = 0xFF

// ResponseNoPID is the sentinel PID value a response carries when no PID
// was attached.
const ResponseNoPID uint64 = 0xFFFFFFFF

// Header is the 8-byte HIPC message header: message type plus the
// descriptor counts needed to compute the layout of everything after it.
//
//	bits 0-15   message_type
//	bits 16-19  num_send_statics
//	bits 20-23  num_send_buffers
//	bits 24-27  num_recv_buffers
//	bits 28-31  num_exch_buffers
//	bits 32-41  num_data_words
//	bits 42-45  recv_static_mode
//	bits 46-51  padding
//	bits 52-62  recv_list_offset
//	bit  63     has_special_header
type Header struct {
	MessageType      uint16
	NumSendStatics   uint8
	NumSendBuffers   uint8
	NumRecvBuffers   uint8
	NumExchBuffers   uint8
	NumDataWords     uint16
	RecvStaticMode   uint8
	RecvListOffset   uint16
	HasSpecialHeader bool
}

// Encode packs h into an 8-byte little-endian word pair.
func (h Header) Encode() [HeaderSize]byte {
	var lo, hi uint32
	lo = uint32(h.MessageType) |
		uint32(h.NumSendStatics&0xF)<<16 |
		uint32(h.NumSendBuffers&0xF)<<20 |
		uint32(h.NumRecvBuffers&0xF)<<24 |
		uint32(h.NumExchBuffers&0xF)<<28
	hi = uint32(h.NumDataWords&0x3FF) |
		uint32(h.RecvStaticMode&0xF)<<10 |
		uint32(h.RecvListOffset&0x7FF)<<20
	if h.HasSpecialHeader {
		hi |= 1 << 31
	}
	var out [HeaderSize]byte
	binary.LittleEndian.PutUint32(out[0:4], lo)
	binary.LittleEndian.PutUint32(out[4:8], hi)
	return out
}

// DecodeHeader unpacks an 8-byte HIPC header from buf.
func DecodeHeader(buf []byte) Header {
	lo := binary.LittleEndian.Uint32(buf[0:4])
	hi := binary.LittleEndian.Uint32(buf[4:8])
	return Header{
		MessageType:      uint16(lo & 0xFFFF),
		NumSendStatics:   uint8((lo >> 16) & 0xF),
		NumSendBuffers:   uint8((lo >> 20) & 0xF),
		NumRecvBuffers:   uint8((lo >> 24) & 0xF),
		NumExchBuffers:   uint8((lo >> 28) & 0xF),
		NumDataWords:     uint16(hi & 0x3FF),
		RecvStaticMode:   uint8((hi >> 10) & 0xF),
		RecvListOffset:   uint16((hi >> 20) & 0x7FF),
		HasSpecialHeader: hi&(1<<31) != 0,
	}
}

// SpecialHeader is the optional 4-byte header present when a message sends
// a PID or copy/move handles.
type SpecialHeader struct {
	SendPID        bool
	NumCopyHandles uint8
	NumMoveHandles uint8
}

// Encode packs the special header into 4 little-endian bytes.
func (s SpecialHeader) Encode() [SpecialHeaderSize]byte {
	var v uint32
	if s.SendPID {
		v |= 1
	}
	v |= uint32(s.NumCopyHandles&0xF) << 1
	v |= uint32(s.NumMoveHandles&0xF) << 5
	var out [SpecialHeaderSize]byte
	binary.LittleEndian.PutUint32(out[:], v)
	return out
}

// DecodeSpecialHeader unpacks a 4-byte special header from buf.
func DecodeSpecialHeader(buf []byte) SpecialHeader {
	v := binary.LittleEndian.Uint32(buf[:4])
	return SpecialHeader{
		SendPID:        v&1 != 0,
		NumCopyHandles: uint8((v >> 1) & 0xF),
		NumMoveHandles: uint8((v >> 5) & 0xF),
	}
}

// HasSpecialHeader reports whether a message carrying these fields needs a
// special header at all.
func HasSpecialHeader(sendPID bool, numCopyHandles, numMoveHandles int) bool {
	return sendPID || numCopyHandles > 0 || numMoveHandles > 0
}

// RecvStaticCount translates the packed recv_static_mode nibble into a
// descriptor count: 0/1 mean no receive list, 2 means "auto" (the sentinel
// AutoRecvStatic), 2+n means exactly n entries.
func RecvStaticCount(mode uint8) (count int, present bool) {
	switch {
	case mode < 2:
		return 0, false
	case mode == 2:
		return AutoRecvStatic, true
	default:
		return int(mode - 2), true
	}
}

// RecvStaticModeFor packs a receive-list descriptor count back into the
// recv_static_mode nibble; the inverse of RecvStaticCount.
func RecvStaticModeFor(count int, auto bool) uint8 {
	if auto {
		return 2
	}
	if count <= 0 {
		return 0
	}
	return uint8(count + 2)
}
