package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	MAJOR    = 1
	MINOR    = 0
	REVISION = 0
)

func init() {
	RootCmd.AddCommand(versionCmd)
}

// Set with -ldflags "-X github.com/eernst/rarefy/cmd.commitHash=..."
var (
	commitHash string
	buildDate  string
)

func versionString() string {
	v := fmt.Sprintf("rarefy version %v.%v.%v", MAJOR, MINOR, REVISION)
	if commitHash != "" {
		v += " (" + commitHash
		if buildDate != "" {
			v += ", built " + buildDate
		}
		v += ")"
	}
	return v
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number.",
	Long:  `Output the version number of this binary. What more can be said?`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(versionString())
	},
}
