//go:build arm64

package raw

// svcDispatch is implemented in trampoline_arm64.s: it loads regs[0:8] into
// x0..x7, branches to the `svc #imm` stub selected by num, then writes
// x0..x7 back into regs.
//
//go:noescape
func svcDispatch(num uint32, regs *uint64)

// defaultBackend issues a real supervisor call. It is only meaningful when
// actually executing on a Horizon AArch64 thread; elsewhere the trap simply
// isn't implemented by any kernel and the instruction faults.
type defaultBackend struct{}

func (defaultBackend) Supervisor(num Number, regs Regs) Regs {
	svcDispatch(uint32(num), &regs[0])
	return regs
}
