package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fabricdb/fabric"
)

var headerCmd = &cobra.Command{
	Use:   "header <file.fdb>",
	Short: "Print the graph file header",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := fabric.Open(args[0])
		if err != nil {
			return err
		}
		defer g.Close()
		return g.DumpHeader(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(headerCmd)
}
