// Package service implements the Service abstraction: a session handle
// wrapped with the bookkeeping CMIF dispatch needs (domain object ID,
// pointer-buffer size, handle ownership), matching libnx's Service layout
// closely enough that the four state combinations mean the same thing:
// override, non-domain, domain root, domain subservice.
package service

import (
	nxerrors "nx-horizon-rt/errors"
	"nx-horizon-rt/cmif"
	"nx-horizon-rt/handle"
	"nx-horizon-rt/logging"
	"nx-horizon-rt/svc"
)

// control request IDs for CMIF session management, sent as CommandControl.
const (
	ctrlConvertToDomain        = cmif.ControlConvertToDomain
	ctrlCloneObject            = cmif.ControlCloneObject
	ctrlQueryPointerBufferSize = cmif.ControlQueryPointerBufferSize
	ctrlCloneObjectEx          = cmif.ControlCloneObjectEx
)

// Service wraps an IPC session handle with the metadata CMIF dispatch
// needs. The zero value holds no session and is inactive. An active
// session that owns neither the handle nor a domain object is the Override
// state, used when a component reimplements a service locally instead of
// forwarding over IPC.
//
//	State             OwnHandle  ObjectID
//	Override          false      0
//	Non-domain        true       0
//	Domain root       true       != 0
//	Domain subservice false      != 0
type Service struct {
	Session           handle.Session
	OwnHandle         bool
	ObjectID          uint32
	PointerBufferSize uint16
}

// IsActive reports whether the service holds a non-invalid session handle.
func (s Service) IsActive() bool { return s.Session != handle.Session(handle.Invalid) }

// IsOverride reports whether s is a locally-served override: active, but
// owning neither the handle nor a domain object.
func (s Service) IsOverride() bool { return s.IsActive() && !s.OwnHandle && s.ObjectID == 0 }

// IsDomain reports whether s is a domain root: it owns the session handle
// and has converted it to a domain.
func (s Service) IsDomain() bool { return s.IsActive() && s.OwnHandle && s.ObjectID != 0 }

// IsDomainSubservice reports whether s shares a parent's session handle as
// one object within that domain.
func (s Service) IsDomainSubservice() bool { return s.IsActive() && !s.OwnHandle && s.ObjectID != 0 }

// New wraps handle h as a non-domain service, querying the server's
// pointer buffer size over buf (typically the caller's TLS IPC buffer).
// A failed query is not fatal; it leaves PointerBufferSize at 0, matching
// the always-Ok query_pointer_buffer_size.unwrap_or(0) fallback.
func New(buf []byte, h handle.Session) (Service, error) {
	size, err := queryPointerBufferSize(buf, h)
	if err != nil {
		size = 0
	}
	return Service{Session: h, OwnHandle: true, PointerBufferSize: size}, nil
}

// NewSubservice creates a non-domain subservice from a parent's pointer
// buffer size, with its own independently-owned session handle.
func NewSubservice(parent Service, h handle.Session) Service {
	return Service{Session: h, OwnHandle: true, PointerBufferSize: parent.PointerBufferSize}
}

// NewDomainSubservice creates a domain subservice sharing parent's session
// handle, identified within the domain by objectID.
func NewDomainSubservice(parent Service, objectID uint32) Service {
	return Service{Session: parent.Session, OwnHandle: false, ObjectID: objectID, PointerBufferSize: parent.PointerBufferSize}
}

// Close releases s's resources: for a domain subservice it sends a domain
// close request for its object ID; for a handle owner it additionally
// closes the kernel handle; either way s is reset to the zero Service.
func Close(buf []byte, s *Service) {
	if !s.IsActive() {
		return
	}
	if !s.OwnHandle && s.ObjectID == 0 {
		// Override: the external party owns the handle, so closing is a
		// pure local reset.
		*s = Service{}
		return
	}
	closeObjectID := uint32(0)
	if !s.OwnHandle {
		closeObjectID = s.ObjectID
	}
	logging.WithSession(logging.Default(), uint32(s.Session)).Debug("closing service",
		"object_id", s.ObjectID, "own_handle", s.OwnHandle)
	if err := cmif.BuildCloseRequest(buf, closeObjectID); err == nil {
		svc.SendSyncRequest(s.Session)
	}
	if s.OwnHandle {
		svc.CloseHandle(handle.Handle(s.Session))
	}
	*s = Service{}
}

// TryClone clones s's session over IPC (control request 2), returning a new
// independently-owned non-domain service.
func TryClone(buf []byte, s Service) (Service, error) {
	if !s.IsActive() {
		return Service{}, nxerrors.ErrGenericSentinel
	}
	h, err := cloneCurrentObject(buf, s.Session)
	if err != nil {
		return Service{}, err
	}
	return Service{Session: h, OwnHandle: true, PointerBufferSize: s.PointerBufferSize}, nil
}

// TryCloneEx is TryClone tagged with an application-defined value (control
// request 4).
func TryCloneEx(buf []byte, s Service, tag uint32) (Service, error) {
	if !s.IsActive() {
		return Service{}, nxerrors.ErrGenericSentinel
	}
	h, err := cloneCurrentObjectEx(buf, s.Session, tag)
	if err != nil {
		return Service{}, err
	}
	return Service{Session: h, OwnHandle: true, PointerBufferSize: s.PointerBufferSize}, nil
}

// ConvertToDomain converts s in place to a domain root (control request 0).
func ConvertToDomain(buf []byte, s *Service) error {
	if !s.IsActive() {
		return nxerrors.ErrGenericSentinel
	}
	objectID, err := convertCurrentObjectToDomain(buf, s.Session)
	if err != nil {
		return err
	}
	s.ObjectID = objectID
	return nil
}

func queryPointerBufferSize(buf []byte, session handle.Session) (uint16, error) {
	if _, err := cmif.BuildControlRequest(buf, ctrlQueryPointerBufferSize, 0); err != nil {
		return 0, err
	}
	if err := svc.SendSyncRequest(session); err != nil {
		return 0, err
	}
	resp, err := cmif.ParseResponse(buf, false, 2)
	if err != nil {
		return 0, err
	}
	return uint16(resp.Data[0]) | uint16(resp.Data[1])<<8, nil
}

func cloneCurrentObject(buf []byte, session handle.Session) (handle.Session, error) {
	if _, err := cmif.BuildControlRequest(buf, ctrlCloneObject, 0); err != nil {
		return 0, err
	}
	if err := svc.SendSyncRequest(session); err != nil {
		return 0, err
	}
	resp, err := cmif.ParseResponse(buf, false, 0)
	if err != nil {
		return 0, err
	}
	if len(resp.MoveHandles) == 0 {
		return 0, nxerrors.ErrGenericSentinel
	}
	return handle.Session(resp.MoveHandles[0]), nil
}

func cloneCurrentObjectEx(buf []byte, session handle.Session, tag uint32) (handle.Session, error) {
	payload, err := cmif.BuildControlRequest(buf, ctrlCloneObjectEx, 4)
	if err != nil {
		return 0, err
	}
	payload[0] = byte(tag)
	payload[1] = byte(tag >> 8)
	payload[2] = byte(tag >> 16)
	payload[3] = byte(tag >> 24)
	if err := svc.SendSyncRequest(session); err != nil {
		return 0, err
	}
	resp, err := cmif.ParseResponse(buf, false, 0)
	if err != nil {
		return 0, err
	}
	if len(resp.MoveHandles) == 0 {
		return 0, nxerrors.ErrGenericSentinel
	}
	return handle.Session(resp.MoveHandles[0]), nil
}

func convertCurrentObjectToDomain(buf []byte, session handle.Session) (uint32, error) {
	if _, err := cmif.BuildControlRequest(buf, ctrlConvertToDomain, 0); err != nil {
		return 0, err
	}
	if err := svc.SendSyncRequest(session); err != nil {
		return 0, err
	}
	resp, err := cmif.ParseResponse(buf, false, 4)
	if err != nil {
		return 0, err
	}
	return uint32(resp.Data[0]) | uint32(resp.Data[1])<<8 | uint32(resp.Data[2])<<16 | uint32(resp.Data[3])<<24, nil
}
