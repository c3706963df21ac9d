package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"geo3hgc/cmd/cli"
)

func main() {
	rootCmd := &cobra.Command{Use: "geo3hgc"}

	cli.RegisterCell(rootCmd)
	cli.RegisterRun(rootCmd)
	cli.RegisterVerify(rootCmd)
	cli.RegisterSink(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
