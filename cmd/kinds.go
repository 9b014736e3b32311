package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nanospice/nanospice/pkg/quantity"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the quantity kinds used to tag result vectors",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%-3s %-20s %-18s %s\n", "ord", "name", "rawfile type", "unit")
		for _, k := range quantity.Kinds() {
			fmt.Printf("%-3d %-20s %-18s %s\n", int(k), k.String(), k.RawName(), k.Unit())
		}
	},
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}
