package hipc

import nxerrors "nx-horizon-rt/errors"

// Metadata describes the shape of a message to build, independent of the
// actual descriptor contents.
type Metadata struct {
	MessageType    uint16
	NumSendStatics int
	NumSendBuffers int
	NumRecvBuffers int
	NumExchBuffers int
	NumDataWords   int
	// RecvListCount > 0 or RecvListAuto requests a receive list; both zero
	// means no receive list is attached.
	RecvListCount int
	RecvListAuto  bool
	SendPID       bool
	NumCopyHandles int
	NumMoveHandles int
}

// HasSpecialHeader reports whether m requires a special header.
func (m Metadata) HasSpecialHeader() bool {
	return HasSpecialHeader(m.SendPID, m.NumCopyHandles, m.NumMoveHandles)
}

// Layout records the byte offset of every section within a built or parsed
// message, so a caller can slice the buffer itself rather than copy data
// through this package's types.
type Layout struct {
	Meta Metadata

	CopyHandlesOff int
	MoveHandlesOff int
	SendStaticsOff int
	SendBuffersOff int
	RecvBuffersOff int
	ExchBuffersOff int
	DataWordsOff   int
	RecvListOff    int
	PIDOff         int // -1 if no PID field
	End            int
}

// BuildLayout computes the section offsets a message with this metadata
// would occupy, starting immediately after the (special) header.
func BuildLayout(meta Metadata) Layout {
	off := HeaderSize
	pidOff := -1
	if meta.HasSpecialHeader() {
		off += SpecialHeaderSize
		if meta.SendPID {
			pidOff = off
			off += 8
		}
	}
	l := Layout{Meta: meta, PIDOff: pidOff}
	l.CopyHandlesOff = off
	off += meta.NumCopyHandles * 4
	l.MoveHandlesOff = off
	off += meta.NumMoveHandles * 4
	l.SendStaticsOff = off
	off += meta.NumSendStatics * StaticDescriptorSize
	l.SendBuffersOff = off
	off += meta.NumSendBuffers * BufferDescriptorSize
	l.RecvBuffersOff = off
	off += meta.NumRecvBuffers * BufferDescriptorSize
	l.ExchBuffersOff = off
	off += meta.NumExchBuffers * BufferDescriptorSize
	l.DataWordsOff = off
	off += meta.NumDataWords * 4
	l.RecvListOff = off
	count := meta.RecvListCount
	if meta.RecvListAuto {
		count = AutoRecvStatic
	}
	off += count * RecvListEntrySize
	l.End = off
	return l
}

// WriteHeader writes the message's (special) header into buf per meta,
// returning the Layout a caller uses to locate the rest of the message.
// buf must have at least BuildLayout(meta).End bytes.
func WriteHeader(buf []byte, meta Metadata) (Layout, error) {
	l := BuildLayout(meta)
	if len(buf) < l.End {
		return Layout{}, nxerrors.New(nxerrors.ErrIPCProtocol, "hipc.WriteHeader", "MessageTooLarge")
	}
	mode := RecvStaticModeFor(meta.RecvListCount, meta.RecvListAuto)
	h := Header{
		MessageType:      meta.MessageType,
		NumSendStatics:   uint8(meta.NumSendStatics),
		NumSendBuffers:   uint8(meta.NumSendBuffers),
		NumRecvBuffers:   uint8(meta.NumRecvBuffers),
		NumExchBuffers:   uint8(meta.NumExchBuffers),
		NumDataWords:     uint16(meta.NumDataWords),
		RecvStaticMode:   mode,
		HasSpecialHeader: meta.HasSpecialHeader(),
	}
	enc := h.Encode()
	copy(buf[0:HeaderSize], enc[:])
	if h.HasSpecialHeader {
		sh := SpecialHeader{
			SendPID:        meta.SendPID,
			NumCopyHandles: uint8(meta.NumCopyHandles),
			NumMoveHandles: uint8(meta.NumMoveHandles),
		}
		shEnc := sh.Encode()
		copy(buf[HeaderSize:HeaderSize+SpecialHeaderSize], shEnc[:])
	}
	return l, nil
}

// ParseHeader reads the header (and special header, if present) from buf,
// returning the resulting Metadata, Layout and any PID carried in the
// message (ResponseNoPID if none).
func ParseHeader(buf []byte) (Metadata, Layout, uint64, error) {
	if len(buf) < HeaderSize {
		return Metadata{}, Layout{}, 0, nxerrors.New(nxerrors.ErrIPCProtocol, "hipc.ParseHeader", "MessageTooLarge")
	}
	h := DecodeHeader(buf[:HeaderSize])
	meta := Metadata{
		MessageType:    h.MessageType,
		NumSendStatics: int(h.NumSendStatics),
		NumSendBuffers: int(h.NumSendBuffers),
		NumRecvBuffers: int(h.NumRecvBuffers),
		NumExchBuffers: int(h.NumExchBuffers),
		NumDataWords:   int(h.NumDataWords),
	}
	count, present := RecvStaticCount(h.RecvStaticMode)
	if present {
		if count == AutoRecvStatic {
			meta.RecvListAuto = true
		} else {
			meta.RecvListCount = count
		}
	}
	pid := ResponseNoPID
	off := HeaderSize
	if h.HasSpecialHeader {
		if len(buf) < off+SpecialHeaderSize {
			return Metadata{}, Layout{}, 0, nxerrors.New(nxerrors.ErrIPCProtocol, "hipc.ParseHeader", "ReceiveListBroken")
		}
		sh := DecodeSpecialHeader(buf[off : off+SpecialHeaderSize])
		meta.SendPID = sh.SendPID
		meta.NumCopyHandles = int(sh.NumCopyHandles)
		meta.NumMoveHandles = int(sh.NumMoveHandles)
	}
	l := BuildLayout(meta)
	if len(buf) < l.End {
		return Metadata{}, Layout{}, 0, nxerrors.New(nxerrors.ErrIPCProtocol, "hipc.ParseHeader", "MessageTooLarge")
	}
	if l.PIDOff >= 0 {
		pid = uint64(uint32le(buf[l.PIDOff:l.PIDOff+4])) | uint64(uint32le(buf[l.PIDOff+4:l.PIDOff+8]))<<32
	}
	return meta, l, pid, nil
}

func uint32le(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// CopyHandles returns the copy-handle slot slice within buf per l.
func CopyHandles(buf []byte, l Layout) []byte {
	return buf[l.CopyHandlesOff:l.MoveHandlesOff]
}

// MoveHandles returns the move-handle slot slice within buf per l.
func MoveHandles(buf []byte, l Layout) []byte {
	return buf[l.MoveHandlesOff:l.SendStaticsOff]
}

// DataWords returns the data-word region within buf per l.
func DataWords(buf []byte, l Layout) []byte {
	return buf[l.DataWordsOff:l.RecvListOff]
}
