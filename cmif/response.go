package cmif

import (
	nxerrors "nx-horizon-rt/errors"
	"nx-horizon-rt/hipc"
	"nx-horizon-rt/resultcode"
)

// Response is a parsed CMIF response: the payload past the OutHeader, plus
// any domain object IDs and handles the HIPC layer carried.
type Response struct {
	Data        []byte
	Objects     []uint32
	CopyHandles []uint32
	MoveHandles []uint32
	PID         uint64
}

// ParseResponse validates and parses a CMIF response out of buf. size is
// the expected payload length past the OutHeader. When isDomain is true, a
// DomainOutHeader is expected immediately before the CMIF OutHeader.
//
// A bad magic number yields errors.ErrBadMagic; a non-zero embedded result
// yields the classified KernelError for that code (errors.FromResultCode).
func ParseResponse(buf []byte, isDomain bool, size int) (Response, error) {
	meta, layout, pid, err := hipc.ParseHeader(buf)
	if err != nil {
		return Response{}, err
	}
	_ = meta

	start := alignUp16(layout.DataWordsOff)

	var numObjects int
	outHeaderOff := start
	if isDomain {
		if start+DomainOutHeaderSize > len(buf) {
			return Response{}, nxerrors.New(nxerrors.ErrIPCProtocol, "cmif.ParseResponse", "MessageTooLarge")
		}
		dh := DecodeDomainOutHeader(buf[start : start+DomainOutHeaderSize])
		numObjects = int(dh.NumOutObjects)
		outHeaderOff = start + DomainOutHeaderSize
	}

	if outHeaderOff+OutHeaderSize > len(buf) {
		return Response{}, nxerrors.New(nxerrors.ErrIPCProtocol, "cmif.ParseResponse", "MessageTooLarge")
	}
	oh := DecodeOutHeader(buf[outHeaderOff : outHeaderOff+OutHeaderSize])
	if oh.Magic != OutHeaderMagic {
		return Response{}, nxerrors.ErrBadMagic
	}
	if oh.Result != 0 {
		return Response{}, nxerrors.FromResultCode(resultcode.ResultCode(oh.Result))
	}

	dataOff := outHeaderOff + OutHeaderSize
	if dataOff+size > len(buf) {
		return Response{}, nxerrors.New(nxerrors.ErrIPCProtocol, "cmif.ParseResponse", "MessageTooLarge")
	}
	data := buf[dataOff : dataOff+size]

	var objects []uint32
	if isDomain && numObjects > 0 {
		objOff := dataOff + size
		if objOff+numObjects*4 <= len(buf) {
			objects = make([]uint32, numObjects)
			for i := 0; i < numObjects; i++ {
				objects[i] = uint32le(buf[objOff+i*4 : objOff+i*4+4])
			}
		}
	}

	copyHandles := decodeHandles(hipc.CopyHandles(buf, layout))
	moveHandles := decodeHandles(hipc.MoveHandles(buf, layout))

	return Response{
		Data:        data,
		Objects:     objects,
		CopyHandles: copyHandles,
		MoveHandles: moveHandles,
		PID:         pid,
	}, nil
}

func decodeHandles(raw []byte) []uint32 {
	n := len(raw) / 4
	if n == 0 {
		return nil
	}
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = uint32le(raw[i*4 : i*4+4])
	}
	return out
}

func uint32le(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// IsTIPCShaped reports whether buf looks like a TIPC (not CMIF) message:
// TIPC stores the command ID directly in the HIPC message type field and
// carries no "SFCI"/"SFCO" magic at all. This core does not implement
// TIPC's reduced command set, but recognizing the shape lets a caller fail
// with a clear error instead of misreading a CMIF magic that isn't there.
func IsTIPCShaped(buf []byte) bool {
	if len(buf) < hipc.HeaderSize+InHeaderSize {
		return false
	}
	h := hipc.DecodeHeader(buf[:hipc.HeaderSize])
	if h.MessageType == uint16(CommandRequest) || h.MessageType == uint16(CommandRequestWithContext) ||
		h.MessageType == uint16(CommandControl) || h.MessageType == uint16(CommandControlWithContext) ||
		h.MessageType == uint16(CommandClose) || h.MessageType == uint16(CommandLegacyRequest) ||
		h.MessageType == uint16(CommandLegacyControl) {
		return false
	}
	return true
}
