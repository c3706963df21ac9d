package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"geo3hgc/core"
	"geo3hgc/internal/simulator"
	cmdconfig "geo3hgc/cmd/config"
)

func runHandleRun(cmd *cobra.Command, args []string) error {
	env, _ := cmd.Flags().GetString("config")
	cmdconfig.LoadConfig(env)
	cfg := cmdconfig.AppConfig

	epoch, _ := cmd.Flags().GetInt64("epoch")
	baseDir, _ := cmd.Flags().GetString("base-dir")
	samplesFile, _ := cmd.Flags().GetString("samples-file")

	grid := core.NewH3Grid()

	var samples []core.Sample
	if samplesFile != "" {
		raw, err := os.ReadFile(samplesFile)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &samples); err != nil {
			return err
		}
	} else {
		var err error
		samples, err = simulator.GenerateSamples(simulator.Config{
			Seed:     cfg.Simulator.RNGSeed,
			NumNodes: cfg.Simulator.NumNodes,
			NSamples: cfg.Simulator.NSamples,
			BaseRes:  cfg.HGC.BaseRes,
			Epoch:    epoch,
		})
		if err != nil {
			return err
		}
	}

	lg := logrus.New()
	result, invalid, err := core.RunEpoch(grid, samples, core.RunConfig{
		Epoch:         epoch,
		Params:        cfg.ToHGCParams(),
		OnInvalid:     core.OnInvalidMode(cfg.OnInvalid),
		SchemaVersion: 1,
	}, lg)
	if err != nil {
		return err
	}

	persist := core.NewPersistence(baseDir, lg)
	if err := persist.WriteEpoch(result); err != nil {
		return err
	}
	if _, err := persist.MergeCrossEpochMap(epoch, result.Map); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "epoch %d: %d batches, %d rejected, superRoot=%s\n",
		epoch, len(result.Batches), len(invalid), result.SuperRoot)

	publish, _ := cmd.Flags().GetBool("publish")
	if publish {
		registryPath, _ := cmd.Flags().GetString("registry")
		sink := core.NewMockSink(registryPath, lg)
		ctx := context.Background()
		cidStr, err := sink.UploadFolder(ctx, persist.EpochDir(epoch))
		if err != nil {
			return err
		}
		for _, b := range result.Batches {
			if err := sink.RegisterBatch(ctx, epoch, b.GeoBatchID, b.MerkleRoot, cidStr); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s cid=%s\n", b.GeoBatchID, cidStr)
		}
	}
	return nil
}

var (
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run one epoch: validate, compress, and persist geoBatches",
		Args:  cobra.NoArgs,
		RunE:  runHandleRun,
	}
)

func init() {
	runCmd.Flags().Int64("epoch", 0, "epoch number")
	runCmd.Flags().String("base-dir", ".", "persistence root directory")
	runCmd.Flags().String("samples-file", "", "JSON array of samples to ingest; simulated if empty")
	runCmd.Flags().String("config", "", "named config override environment")
	runCmd.Flags().Bool("publish", false, "upload the written epoch directory and register every batch with the mock sinks")
	runCmd.Flags().String("registry", "registry.jsonl", "registry JSONL file path, used with --publish")
}

// RunCmd is the "run" command.
var RunCmd = runCmd

// RegisterRun wires the run command into root.
func RegisterRun(root *cobra.Command) { root.AddCommand(RunCmd) }
