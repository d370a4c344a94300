package raw

import "nx-horizon-rt/resultcode"

// Regs is the x0..x7 register file a supervisor call reads its arguments
// from and writes its results to. The raw layer never interprets these
// values; scattering multi-output results into typed out-pointers is the
// typed SVC layer's job (svc package), mirroring how the reference assembly
// stashes output pointers on the stack with STR/STP before the `svc`
// instruction and restores them with LDR/LDP after.
type Regs [8]uint64

// Backend executes one supervisor call. Production code runs on the
// assembly trampoline in trampoline_arm64.s; tests and non-arm64
// development builds substitute svc/raw/mock, which records the call and
// returns a scripted register file instead of trapping into a kernel that
// doesn't exist here.
type Backend interface {
	Supervisor(num Number, regs Regs) Regs
}

var current Backend = defaultBackend{}

// SetBackend swaps the active Backend. Tests restore the previous backend
// with the returned function.
func SetBackend(b Backend) (restore func()) {
	prev := current
	current = b
	return func() { current = prev }
}

// Invoke issues one supervisor call through the active Backend.
func Invoke(num Number, regs Regs) Regs {
	return current.Supervisor(num, regs)
}

// ResultOf reads the primary ResultCode convention: x0 holds it for every
// syscall that returns one (exceptions are the non-returning Exit* and
// ReturnFromException syscalls, and the handful of syscalls that return a
// bare value such as GetSystemTick).
func ResultOf(regs Regs) resultcode.ResultCode {
	return resultcode.ResultCode(uint32(regs[0]))
}
