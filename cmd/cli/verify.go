package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"geo3hgc/core"
)

func verifyHandle(cmd *cobra.Command, args []string) error {
	baseDir, _ := cmd.Flags().GetString("base-dir")
	epoch, _ := cmd.Flags().GetInt64("epoch")

	dir := filepath.Join(baseDir, "data", fmt.Sprintf("epoch_%d", epoch))
	results, ok, err := core.VerifyEpoch(dir)
	if err != nil {
		return err
	}
	for _, r := range results {
		status := "OK"
		if !r.OK {
			status = "FAIL: " + r.Error
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", r.Path, status)
	}
	if !ok {
		os.Exit(1)
	}
	return nil
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Recompute batch hashes and the epoch super-root and compare against disk",
	Args:  cobra.NoArgs,
	RunE:  verifyHandle,
}

func init() {
	verifyCmd.Flags().String("base-dir", ".", "persistence root directory")
	verifyCmd.Flags().Int64("epoch", 0, "epoch number")
}

// RegisterVerify wires the verify command into root.
func RegisterVerify(root *cobra.Command) { root.AddCommand(verifyCmd) }
