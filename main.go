// Command nxrtctl inspects the nx-horizon-rt HIPC/CMIF wire format: it
// builds requests, decodes captured messages, and prints the thread-local
// storage layout the runtime core assumes, all without a Horizon kernel
// underneath.
package main

import (
	"fmt"
	"os"

	"nx-horizon-rt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "nxrtctl:", err)
		os.Exit(1)
	}
}
