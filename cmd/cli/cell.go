package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"geo3hgc/core"
)

var cellCmd = &cobra.Command{
	Use:   "cell",
	Short: "Inspect hex grid cells via the HexGrid oracle",
}

var cellCenterCmd = &cobra.Command{
	Use:   "center <cell>",
	Short: "Print a cell's center coordinate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		grid := core.NewH3Grid()
		loc, err := grid.Center(core.CellID(args[0]))
		if err != nil {
			return err
		}
		fmt.Println(core.PrettyLocation(loc))
		return nil
	},
}

var cellBoundaryCmd = &cobra.Command{
	Use:   "boundary <cell>",
	Short: "Print a cell's boundary polygon",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		grid := core.NewH3Grid()
		bnd, err := grid.Boundary(core.CellID(args[0]))
		if err != nil {
			return err
		}
		for _, loc := range bnd {
			fmt.Println(core.PrettyLocation(loc))
		}
		return nil
	},
}

var cellParentCmd = &cobra.Command{
	Use:   "parent <cell> <res>",
	Short: "Print a cell's ancestor at the given resolution",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		grid := core.NewH3Grid()
		parent, err := grid.Parent(core.CellID(args[0]), res)
		if err != nil {
			return err
		}
		fmt.Println(parent)
		return nil
	},
}

var cellValidateCmd = &cobra.Command{
	Use:   "validate <cell>",
	Short: "Check whether a cell id is valid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		grid := core.NewH3Grid()
		if !grid.IsValidCell(core.CellID(args[0])) {
			return fmt.Errorf("invalid cell id: %s", args[0])
		}
		fmt.Println("valid")
		return nil
	},
}

func init() {
	cellCmd.AddCommand(cellCenterCmd, cellBoundaryCmd, cellParentCmd, cellValidateCmd)
}

// RegisterCell wires the cell inspection commands into root.
func RegisterCell(root *cobra.Command) { root.AddCommand(cellCmd) }
