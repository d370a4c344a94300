package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"nx-horizon-rt/cmif"
	"nx-horizon-rt/hipc"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Parse a captured HIPC/CMIF message and print its structure",
	Long: `decode reads a hex-encoded message buffer, prints the HIPC header
fields (message type, descriptor counts, receive-list mode), and then the
CMIF header layered on top of it, if the bytes carry one. A message shaped
like TIPC (no "SFCI"/"SFCO" magic) is reported as such rather than
misparsed as CMIF.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	buf, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("argument: %w", err)
	}

	meta, layout, pid, err := hipc.ParseHeader(buf)
	if err != nil {
		return err
	}

	fmt.Printf("message_type:      %d\n", meta.MessageType)
	fmt.Printf("send_statics:      %d\n", meta.NumSendStatics)
	fmt.Printf("send_buffers:      %d\n", meta.NumSendBuffers)
	fmt.Printf("recv_buffers:      %d\n", meta.NumRecvBuffers)
	fmt.Printf("exch_buffers:      %d\n", meta.NumExchBuffers)
	fmt.Printf("data_words:        %d\n", meta.NumDataWords)
	fmt.Printf("copy_handles:      %d\n", meta.NumCopyHandles)
	fmt.Printf("move_handles:      %d\n", meta.NumMoveHandles)
	if meta.RecvListAuto {
		fmt.Println("recv_list:         auto")
	} else if meta.RecvListCount > 0 {
		fmt.Printf("recv_list:         %d entries\n", meta.RecvListCount)
	} else {
		fmt.Println("recv_list:         none")
	}
	if pid != hipc.ResponseNoPID {
		fmt.Printf("pid:               %d\n", pid)
	}

	if cmif.IsTIPCShaped(buf) {
		fmt.Println("cmif:              not present (message is TIPC-shaped)")
		return nil
	}

	off := alignUp16(layout.DataWordsOff)
	switch {
	case off+cmif.InHeaderSize <= len(buf):
		if ih := cmif.DecodeInHeader(buf[off : off+cmif.InHeaderSize]); ih.Magic == cmif.InHeaderMagic {
			fmt.Printf("cmif:              request command_id=%d token=0x%x\n", ih.CommandID, ih.Token)
			break
		}
		if off+cmif.OutHeaderSize <= len(buf) {
			if oh := cmif.DecodeOutHeader(buf[off : off+cmif.OutHeaderSize]); oh.Magic == cmif.OutHeaderMagic {
				fmt.Printf("cmif:              response result=0x%x\n", oh.Result)
				break
			}
		}
		fmt.Println("cmif:              unrecognized magic")
	default:
		fmt.Println("cmif:              message too short for a CMIF header")
	}
	return nil
}

func alignUp16(n int) int { return (n + 15) &^ 15 }
