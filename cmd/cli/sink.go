package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"geo3hgc/core"
)

var sinkCmd = &cobra.Command{
	Use:   "sink",
	Short: "Interact with the CAS upload and registry submission sinks",
}

var sinkUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload an epoch directory to the mock content-addressed sink",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir, _ := cmd.Flags().GetString("base-dir")
		epoch, _ := cmd.Flags().GetInt64("epoch")
		registryPath, _ := cmd.Flags().GetString("registry")

		dir := filepath.Join(baseDir, "data", fmt.Sprintf("epoch_%d", epoch))
		sink := core.NewMockSink(registryPath, logrus.New())
		cidStr, err := sink.UploadFolder(context.Background(), dir)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cidStr)
		return nil
	},
}

var sinkRegisterCmd = &cobra.Command{
	Use:   "register <geoBatchId> <cid>",
	Short: "Register a single batch's merkle root and CID",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir, _ := cmd.Flags().GetString("base-dir")
		epoch, _ := cmd.Flags().GetInt64("epoch")
		registryPath, _ := cmd.Flags().GetString("registry")

		geoBatchID := core.CellID(args[0])
		cidStr := args[1]

		batchPath := filepath.Join(baseDir, "data", fmt.Sprintf("epoch_%d", epoch), string(geoBatchID)+".json")
		raw, err := os.ReadFile(batchPath)
		if err != nil {
			return err
		}
		var b core.Batch
		if err := json.Unmarshal(raw, &b); err != nil {
			return err
		}

		sink := core.NewMockSink(registryPath, logrus.New())
		if err := sink.RegisterBatch(context.Background(), epoch, geoBatchID, b.MerkleRoot, cidStr); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "registered")
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{sinkUploadCmd, sinkRegisterCmd} {
		c.Flags().String("base-dir", ".", "persistence root directory")
		c.Flags().Int64("epoch", 0, "epoch number")
		c.Flags().String("registry", "registry.jsonl", "registry JSONL file path")
	}
	sinkCmd.AddCommand(sinkUploadCmd, sinkRegisterCmd)
}

// RegisterSink wires the sink commands into root.
func RegisterSink(root *cobra.Command) { root.AddCommand(sinkCmd) }
