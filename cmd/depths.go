package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/eernst/rarefy/rarefaction"

	"github.com/grailbio/base/errors"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(depthsCmd)
}

func runDepths(w io.Writer, arg string) error {
	total, err := strconv.Atoi(arg)
	if err != nil {
		return errors.E(errors.Invalid, fmt.Sprintf("total read count %q is not an integer", arg))
	}
	depths, err := rarefaction.Depths(total)
	if err != nil {
		return err
	}
	for _, d := range depths {
		if _, err := fmt.Fprintln(w, d); err != nil {
			return err
		}
	}
	return nil
}

var depthsCmd = &cobra.Command{
	Use:   "depths TOTAL",
	Short: "Print the depths a curve over TOTAL reads is evaluated at.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		check(runDepths(os.Stdout, args[0]))
	},
}
