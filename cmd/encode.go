package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"nx-horizon-rt/cmif"
)

var (
	encodeObjectID  uint32
	encodeCommandID uint32
	encodeContext   uint32
	encodeData      string
	encodeSendPID   bool
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Build a CMIF request and print its wire bytes as hex",
	Long: `encode lays out a CMIF request the way service.Dispatch.Send would,
then prints the resulting HIPC message buffer as hex. A non-zero --object-id
builds a domain request; otherwise the request targets the session directly.`,
	Args: cobra.NoArgs,
	RunE: runEncode,
}

func init() {
	encodeCmd.Flags().Uint32Var(&encodeObjectID, "object-id", 0, "domain object ID (0 for a non-domain request)")
	encodeCmd.Flags().Uint32Var(&encodeCommandID, "command-id", 0, "CMIF command ID")
	encodeCmd.Flags().Uint32Var(&encodeContext, "context", 0, "version context token (nonzero selects RequestWithContext)")
	encodeCmd.Flags().StringVar(&encodeData, "data", "", "input payload as hex")
	encodeCmd.Flags().BoolVar(&encodeSendPID, "send-pid", false, "include the caller's process ID")
	rootCmd.AddCommand(encodeCmd)
}

func runEncode(cmd *cobra.Command, args []string) error {
	data, err := hex.DecodeString(encodeData)
	if err != nil {
		return fmt.Errorf("--data: %w", err)
	}

	buf := make([]byte, 0x200)
	f := cmif.RequestFormat{
		ObjectID:  encodeObjectID,
		CommandID: encodeCommandID,
		Context:   encodeContext,
		DataSize:  len(data),
		SendPID:   encodeSendPID,
	}
	req, err := cmif.BuildRequest(buf, f)
	if err != nil {
		return err
	}
	copy(req.Payload, data)

	fmt.Println(hex.EncodeToString(buf[:req.HIPCLayout.End]))
	return nil
}
