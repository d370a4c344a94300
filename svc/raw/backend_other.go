//go:build !arm64

package raw

import "nx-horizon-rt/resultcode"

// defaultBackend on non-arm64 builds (dev machines, CI) has no `svc`
// instruction to issue. It reports every call as unimplemented rather than
// silently returning success, so a test that forgets to install a mock
// backend fails loudly instead of reading zeroed registers.
type defaultBackend struct{}

func (defaultBackend) Supervisor(num Number, regs Regs) Regs {
	out := regs
	out[0] = uint64(resultcode.Pack(resultcode.ModuleKernel, 0xFFFF))
	return out
}
