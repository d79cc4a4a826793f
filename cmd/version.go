package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func RunVersion(version, commit, date string) *cobra.Command {
	var command = &cobra.Command{
		Use:     "version",
		Short:   "Print the version",
		Example: `  trc version`,
	}
	command.Run = func(cmd *cobra.Command, args []string) {
		fmt.Printf("trc %s\n", version)
		fmt.Println("Commit:", commit)
		fmt.Println("Built:", date)
	}
	return command
}
