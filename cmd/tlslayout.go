package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nx-horizon-rt/tls"
)

var tlsLayoutCmd = &cobra.Command{
	Use:   "tls-layout",
	Short: "Print the thread-local-region layout this core assumes",
	Args:  cobra.NoArgs,
	Run:   runTLSLayout,
}

func init() {
	rootCmd.AddCommand(tlsLayoutCmd)
}

func runTLSLayout(cmd *cobra.Command, args []string) {
	fmt.Printf("region_size:        0x%03x\n", tls.RegionSize)
	fmt.Printf("ipc_buffer:         0x%03x .. 0x%03x\n", tls.IPCBufferOffset, tls.IPCBufferOffset+tls.IPCBufferSize)
	fmt.Printf("slots:              0x%03x, %d entries\n", tls.SlotsOffset, tls.NumSlots)
	fmt.Printf("thread_vars:        0x%03x .. 0x%03x\n", tls.ThreadVarsOffset, tls.ThreadVarsOffset+tls.ThreadVarsSize)
	fmt.Printf("tls_ptr (tp-read):  0x%03x\n", tls.TLSPtrOffset)
	fmt.Printf("magic:              0x%08x\n", tls.Magic)
}
