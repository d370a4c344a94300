package cmif

import (
	"encoding/binary"

	nxerrors "nx-horizon-rt/errors"
	"nx-horizon-rt/hipc"
)

// RequestFormat describes the shape of a CMIF request to build: how much
// payload it carries, whether it targets a domain object, and how many
// buffers/pointers/handles/objects it attaches.
type RequestFormat struct {
	ObjectID           uint32 // 0 for non-domain
	CommandID          uint32
	Context            uint32
	DataSize           int
	ServerPointerSize  int
	NumInBuffers       int
	NumOutBuffers      int
	NumInOutBuffers    int
	NumInPointers      int
	NumOutPointers     int
	NumOutFixedPointers int
	NumObjects         int
	NumHandles         int
	SendPID            bool
}

// isDomain reports whether f targets a domain sub-object.
func (f RequestFormat) isDomain() bool { return f.ObjectID != 0 }

// Request is a CMIF request under construction over a caller-provided
// buffer (normally the thread's TLS IPC buffer). Payload, pointer-size
// table and object-ID sections are exposed as plain byte/uint32 slices for
// the caller to populate directly.
type Request struct {
	HIPCLayout hipc.Layout

	DomainHeaderOff int // -1 when non-domain
	InHeaderOff     int
	PayloadOff      int
	Payload         []byte
	OutPointerSizes []byte // 2 bytes per entry, little-endian uint16
	Objects         []byte // 4 bytes per entry, little-endian uint32
}

// BuildRequest lays out a CMIF request for f into buf, writing the HIPC and
// CMIF headers and returning a Request describing where the caller-owned
// sections (payload, pointer-size table, object IDs) live.
func BuildRequest(buf []byte, f RequestFormat) (Request, error) {
	outTableEntries := f.NumOutPointers
	domainExtra := 0
	if f.isDomain() {
		domainExtra = DomainInHeaderSize + f.NumObjects*4
	}
	bodySize := domainExtra + InHeaderSize + f.DataSize
	totalBeforeTable := 16 + bodySize
	totalBeforeTable = (totalBeforeTable + 1) &^ 1
	total := totalBeforeTable + 2*outTableEntries
	numDataWords := (total + 3) / 4

	cmdType := CommandRequest
	if f.Context != 0 {
		cmdType = CommandRequestWithContext
	}

	meta := hipc.Metadata{
		MessageType:    uint16(cmdType),
		NumSendStatics: f.NumInPointers,
		NumSendBuffers: f.NumInBuffers,
		NumRecvBuffers: f.NumOutBuffers,
		NumExchBuffers: f.NumInOutBuffers,
		NumDataWords:   numDataWords,
		RecvListCount:  outTableEntries + f.NumOutFixedPointers,
		SendPID:        f.SendPID,
		NumCopyHandles: f.NumHandles,
	}
	layout, err := hipc.WriteHeader(buf, meta)
	if err != nil {
		return Request{}, err
	}

	dataStart := alignUp16(layout.DataWordsOff)
	if dataStart+bodySize+2*outTableEntries > len(buf) {
		return Request{}, nxerrors.New(nxerrors.ErrIPCProtocol, "cmif.BuildRequest", "MessageTooLarge")
	}

	domainOff := -1
	inHeaderOff := dataStart
	if f.isDomain() {
		domainOff = dataStart
		dh := DomainInHeader{
			RequestType:  DomainRequestSendMessage,
			NumInObjects: uint8(f.NumObjects),
			DataSize:     uint16(InHeaderSize + f.DataSize),
			ObjectID:     f.ObjectID,
			Token:        f.Context,
		}
		enc := dh.Encode()
		copy(buf[domainOff:domainOff+DomainInHeaderSize], enc[:])
		inHeaderOff = domainOff + DomainInHeaderSize
	}

	token := f.Context
	if f.isDomain() {
		token = 0
	}
	version := uint32(0)
	if f.Context != 0 {
		version = 1
	}
	ih := InHeader{Magic: InHeaderMagic, Version: version, CommandID: f.CommandID, Token: token}
	ihEnc := ih.Encode()
	copy(buf[inHeaderOff:inHeaderOff+InHeaderSize], ihEnc[:])

	payloadOff := inHeaderOff + InHeaderSize
	objOff := payloadOff + f.DataSize
	outTableOff := dataStart + totalBeforeTable - 16

	return Request{
		HIPCLayout:      layout,
		DomainHeaderOff: domainOff,
		InHeaderOff:     inHeaderOff,
		PayloadOff:      payloadOff,
		Payload:         buf[payloadOff : payloadOff+f.DataSize],
		OutPointerSizes: buf[outTableOff : outTableOff+2*outTableEntries],
		Objects:         objIfDomain(buf, objOff, f),
	}, nil
}

func objIfDomain(buf []byte, off int, f RequestFormat) []byte {
	if !f.isDomain() || f.NumObjects == 0 {
		return nil
	}
	return buf[off : off+f.NumObjects*4]
}

// PutOutPointerSize writes the i-th entry of the output pointer size table.
func (r Request) PutOutPointerSize(i int, size uint16) {
	binary.LittleEndian.PutUint16(r.OutPointerSizes[i*2:i*2+2], size)
}

// PutObject writes the i-th domain object ID this request carries.
func (r Request) PutObject(i int, objectID uint32) {
	binary.LittleEndian.PutUint32(r.Objects[i*4:i*4+4], objectID)
}

// BuildControlRequest lays out a control request (ConvertToDomain,
// CloneObject, QueryPointerBufferSize, ...) into buf, returning its payload
// area as a slice of buf for the caller to write request-specific data into.
func BuildControlRequest(buf []byte, cmd ControlCommand, payloadSize int) (payload []byte, err error) {
	total := 16 + InHeaderSize + payloadSize
	numDataWords := (total + 3) / 4
	meta := hipc.Metadata{MessageType: uint16(CommandControl), NumDataWords: numDataWords}
	layout, err := hipc.WriteHeader(buf, meta)
	if err != nil {
		return nil, err
	}
	start := alignUp16(layout.DataWordsOff)
	if start+InHeaderSize+payloadSize > len(buf) {
		return nil, nxerrors.New(nxerrors.ErrIPCProtocol, "cmif.BuildControlRequest", "MessageTooLarge")
	}
	ih := InHeader{Magic: InHeaderMagic, CommandID: uint32(cmd)}
	enc := ih.Encode()
	copy(buf[start:start+InHeaderSize], enc[:])
	payloadOff := start + InHeaderSize
	return buf[payloadOff : payloadOff+payloadSize], nil
}

// BuildCloseRequest lays out a close request into buf: a domain-object
// close when objectID is non-zero, otherwise a full session close.
func BuildCloseRequest(buf []byte, objectID uint32) error {
	if objectID != 0 {
		numDataWords := (16 + DomainInHeaderSize) / 4
		meta := hipc.Metadata{MessageType: uint16(CommandRequest), NumDataWords: numDataWords}
		layout, err := hipc.WriteHeader(buf, meta)
		if err != nil {
			return err
		}
		start := alignUp16(layout.DataWordsOff)
		if start+DomainInHeaderSize > len(buf) {
			return nxerrors.New(nxerrors.ErrIPCProtocol, "cmif.BuildCloseRequest", "MessageTooLarge")
		}
		dh := DomainInHeader{RequestType: DomainRequestClose, ObjectID: objectID}
		enc := dh.Encode()
		copy(buf[start:start+DomainInHeaderSize], enc[:])
		return nil
	}
	meta := hipc.Metadata{MessageType: uint16(CommandClose)}
	_, err := hipc.WriteHeader(buf, meta)
	return err
}
