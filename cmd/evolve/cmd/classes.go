package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/go-drift/evolve/pkg/widgets"
)

func init() {
	RegisterCommand(newClassesCommand)
}

func newClassesCommand(opts *options) *cobra.Command {
	var props bool
	cmd := &cobra.Command{
		Use:   "classes",
		Short: "List widget classes and their current backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CLASS\tSUPER\tEMBEDDABLE\tRESOLVES")
			for _, c := range widgets.Classes() {
				if c.IsAbstract() {
					continue
				}
				super := "-"
				if s := c.Super(); s != nil {
					super = s.Name()
				}
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", c.Name(), super, c.Embeddable(), opts.registry.Resolve(c))
				if props {
					for _, p := range c.Schema() {
						fmt.Fprintf(tw, "  .%s\t\t\t%v\n", p.Name, p.Default)
					}
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&props, "props", false, "also list each class's properties and defaults")
	return cmd
}
