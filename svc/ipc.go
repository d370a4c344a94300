package svc

import (
	"unsafe"

	nxerrors "nx-horizon-rt/errors"
	"nx-horizon-rt/handle"
	"nx-horizon-rt/logging"
	"nx-horizon-rt/svc/raw"
)

// maxPortNameLen is the longest name (excluding the NUL terminator) the
// kernel accepts for ConnectToNamedPort.
const maxPortNameLen = 11

// ConnectToNamedPort opens a session to a service registered under name
// (e.g. "sm:"), returning a session handle on success.
func ConnectToNamedPort(name string) (handle.Session, error) {
	if len(name) > maxPortNameLen {
		return 0, nxerrors.New(nxerrors.ErrArgument, "svc.ConnectToNamedPort", "InvalidSize")
	}
	var buf [maxPortNameLen + 1]byte
	copy(buf[:], name)
	out := raw.Invoke(raw.ConnectToNamedPort, raw.Regs{1: uint64(uintptr(unsafe.Pointer(&buf[0])))})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return 0, nxerrors.Wrap("svc.ConnectToNamedPort", rc)
	}
	h := handle.Session(out[1])
	logging.WithSession(logging.WithOperation(logging.Default(), "svc.ConnectToNamedPort"), uint32(h)).
		Debug("connected", "port", name)
	return h, nil
}

// ConnectToPort opens a session to an already-resolved port handle.
func ConnectToPort(port handle.Port) (handle.Session, error) {
	out := raw.Invoke(raw.ConnectToPort, raw.Regs{1: uint64(port)})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return 0, nxerrors.Wrap("svc.ConnectToPort", rc)
	}
	return handle.Session(out[1]), nil
}

// CreatePort creates a new port with an anonymous client/server handle
// pair, accepting at most maxSessions concurrent connections. isLight picks
// the lightweight session variant (no buffer/handle transfer, only four
// data words) used by a few low-level system ports.
func CreatePort(maxSessions int32, isLight bool, name uint64) (server handle.Port, client handle.Port, err error) {
	isLightVal := uint64(0)
	if isLight {
		isLightVal = 1
	}
	out := raw.Invoke(raw.CreatePort, raw.Regs{2: uint64(maxSessions), 3: isLightVal, 4: name})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return 0, 0, nxerrors.Wrap("svc.CreatePort", rc)
	}
	return handle.Port(out[1]), handle.Port(out[2]), nil
}

// ManageNamedPort registers a server port under name, accepting at most
// maxSessions concurrent connections; passing maxSessions == 0 unregisters
// the name instead of creating a port.
func ManageNamedPort(name string, maxSessions int32) (handle.Port, error) {
	if len(name) > maxPortNameLen {
		return 0, nxerrors.New(nxerrors.ErrArgument, "svc.ManageNamedPort", "InvalidSize")
	}
	var buf [maxPortNameLen + 1]byte
	copy(buf[:], name)
	out := raw.Invoke(raw.ManageNamedPort, raw.Regs{1: uint64(uintptr(unsafe.Pointer(&buf[0]))), 2: uint64(maxSessions)})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return 0, nxerrors.Wrap("svc.ManageNamedPort", rc)
	}
	return handle.Port(out[1]), nil
}

// SendSyncRequest issues a blocking IPC request using the calling thread's
// TLS IPC buffer (TLR+0x000) as the message. It blocks until the server
// replies or the request is cancelled via CancelSynchronization.
func SendSyncRequest(session handle.Session) error {
	return call1("svc.SendSyncRequest", raw.SendSyncRequest, uint64(session))
}

// SendSyncRequestLight is SendSyncRequest for the fixed small message
// format that never needs descriptors.
func SendSyncRequestLight(session handle.Session) error {
	return call1("svc.SendSyncRequestLight", raw.SendSyncRequestLight, uint64(session))
}

// SendSyncRequestWithUserBuffer issues a blocking IPC request using an
// explicit message buffer instead of the thread's TLS IPC buffer. buf must
// be page-aligned with a non-zero, page-aligned length.
func SendSyncRequestWithUserBuffer(buf []byte, session handle.Session) error {
	const pageSize = 0x1000
	if len(buf) == 0 || len(buf)%pageSize != 0 {
		return nxerrors.New(nxerrors.ErrArgument, "svc.SendSyncRequestWithUserBuffer", "InvalidSize")
	}
	addr := uintptr(unsafe.Pointer(&buf[0]))
	if addr%pageSize != 0 {
		return nxerrors.New(nxerrors.ErrArgument, "svc.SendSyncRequestWithUserBuffer", "InvalidAddress")
	}
	return call1("svc.SendSyncRequestWithUserBuffer", raw.SendSyncRequestWithUserBuffer,
		uint64(addr), uint64(len(buf)), uint64(session))
}

// SendAsyncRequestWithUserBuffer is the non-blocking counterpart: it
// returns immediately with an event the caller can wait on to learn when
// the reply has landed in buf.
func SendAsyncRequestWithUserBuffer(buf []byte, session handle.Session) (handle.Event, error) {
	const pageSize = 0x1000
	if len(buf) == 0 || len(buf)%pageSize != 0 {
		return 0, nxerrors.New(nxerrors.ErrArgument, "svc.SendAsyncRequestWithUserBuffer", "InvalidSize")
	}
	addr := uintptr(unsafe.Pointer(&buf[0]))
	if addr%pageSize != 0 {
		return 0, nxerrors.New(nxerrors.ErrArgument, "svc.SendAsyncRequestWithUserBuffer", "InvalidAddress")
	}
	out := raw.Invoke(raw.SendAsyncRequestWithUserBuffer, raw.Regs{1: uint64(addr), 2: uint64(len(buf)), 3: uint64(session)})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return 0, nxerrors.Wrap("svc.SendAsyncRequestWithUserBuffer", rc)
	}
	return handle.Event(out[1]), nil
}

// CreateSession creates a new server/client session pair, returning the
// server-side handle the caller Accepts on and the client-side handle its
// peer connects through.
func CreateSession(isLight bool, name uint64) (server handle.Session, client handle.Session, err error) {
	isLightVal := uint64(0)
	if isLight {
		isLightVal = 1
	}
	out := raw.Invoke(raw.CreateSession, raw.Regs{2: isLightVal, 3: name})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return 0, 0, nxerrors.Wrap("svc.CreateSession", rc)
	}
	return handle.Session(out[1]), handle.Session(out[2]), nil
}

// AcceptSession accepts a pending connection on a port, returning a server
// session handle.
func AcceptSession(port handle.Port) (handle.Session, error) {
	out := raw.Invoke(raw.AcceptSession, raw.Regs{1: uint64(port)})
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return 0, nxerrors.Wrap("svc.AcceptSession", rc)
	}
	return handle.Session(out[1]), nil
}

// ReplyAndReceive replies to a request (if replyTarget is valid) and blocks
// waiting for the next request on any of handles.
func ReplyAndReceive(handles []handle.Handle, replyTarget handle.Session, timeoutNanos int64) (int, error) {
	var regs raw.Regs
	regs[1] = uint64(len(handles))
	if len(handles) > 0 {
		regs[2] = uint64(uintptr(unsafe.Pointer(&handles[0])))
	}
	regs[3] = uint64(replyTarget)
	regs[4] = uint64(timeoutNanos)
	out := raw.Invoke(raw.ReplyAndReceive, regs)
	if rc := raw.ResultOf(out); !rc.IsSuccess() {
		return 0, nxerrors.Wrap("svc.ReplyAndReceive", rc)
	}
	return int(out[1]), nil
}
