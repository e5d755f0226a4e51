package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fabricdump",
	Short: "Inspect FabricDB graph files",
	Long: `fabricdump reads a FabricDB graph file and prints its header,
entity counts, or raw bytes. It never modifies the file.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
