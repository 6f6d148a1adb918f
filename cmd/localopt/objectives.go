package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/localopt/internal/optimization/objectives"
)

var objectivesCmd = &cobra.Command{
	Use:   "objectives",
	Short: "List the named objectives",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tDIM\tSTART\tFORMULA")
		for _, o := range objectives.All() {
			dim := "any"
			if o.Dim() > 0 {
				dim = fmt.Sprint(o.Dim())
			}
			fmt.Fprintf(tw, "%s\t%s\t%v\t%s\n", o.Name(), dim, o.Start(), o.Description())
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(objectivesCmd)
}
