package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fabricdb/fabric"
)

var statsCmd = &cobra.Command{
	Use:   "stats <file.fdb>",
	Short: "Print entity counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := fabric.Open(args[0])
		if err != nil {
			return err
		}
		defer g.Close()

		fmt.Printf("Classes: %d\n", g.NumClasses())
		fmt.Printf("Vertices: %d\n", g.NumVertices())
		fmt.Printf("Edges: %d\n", g.NumEdges())
		fmt.Printf("Labels: %d\n", g.NumLabels())
		fmt.Printf("Change Counter: %d\n", g.ChangeCounter())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
