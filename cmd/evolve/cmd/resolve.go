package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-drift/evolve/pkg/config"
	"github.com/go-drift/evolve/pkg/widgets"
)

func init() {
	RegisterCommand(newResolveCommand)
}

func newResolveCommand(opts *options) *cobra.Command {
	var (
		path   string
		parent string
	)
	cmd := &cobra.Command{
		Use:   "resolve <Class>...",
		Short: "Show which backend a class resolves to",
		Long: `Show which backend each class resolves to under the current
configuration.

With --parent the class is resolved as a child of a widget on that backend,
so parent inheritance applies. With --path instance overrides for that path
are consulted.`,
		Example: `  evolve resolve Button Table
  evolve resolve Label --parent embedded
  evolve resolve Button --path /Shell/-1/Composite/0`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := config.Context{Path: path}
			if parent != "" {
				v, err := config.ParseVariant(parent)
				if err != nil {
					return err
				}
				ctx.HasParent = true
				ctx.ParentVariant = v
			}
			out := cmd.OutOrStdout()
			for _, name := range args {
				class, ok := widgets.LookupClass(name)
				if !ok {
					return fmt.Errorf("unknown class %q", name)
				}
				v := opts.registry.ResolveFor(class, ctx)
				line := fmt.Sprintf("%-14s %s", class.Name(), v)
				if !class.Embeddable() {
					line += "  (native only)"
				}
				if group := opts.registry.DependencyGroup(class.Name()); len(group) > 0 {
					line += "  group=" + strings.Join(group, ",")
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "instance path, e.g. /Shell/-1/Composite/0")
	cmd.Flags().StringVar(&parent, "parent", "", "backend of the parent widget (native or embedded)")
	return cmd
}
