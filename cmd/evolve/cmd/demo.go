package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/go-drift/evolve/pkg/bridge"
	"github.com/go-drift/evolve/pkg/config"
	"github.com/go-drift/evolve/pkg/graphics"
	"github.com/go-drift/evolve/pkg/widgets"
)

func init() {
	RegisterCommand(newDemoCommand)
}

func newDemoCommand(opts *options) *cobra.Command {
	var (
		mode   string
		tree   bool
		bounds string
		font   string
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Build a sample window and print what the renderer would receive",
		Long: `Build a small login window under the current configuration, flush it
and print every message sent to the embedded renderer. Native widgets produce
no renderer messages.`,
		Example: `  evolve demo --mode embedded
  EVOLVE_CLASS_Button=embedded evolve demo --tree
  evolve demo --mode embedded --bounds 0,0,640,480 --font "Sans,10,bold"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != "" {
				m, err := config.ParseMode(mode)
				if err != nil {
					return err
				}
				opts.registry.SetDefault(m)
			}
			layout := defaultDemoLayout
			if bounds != "" {
				r, err := graphics.ParseRectangle(bounds)
				if err != nil {
					return err
				}
				layout.bounds = r
			}
			if font != "" {
				f, err := graphics.ParseFont(font)
				if err != nil {
					return err
				}
				layout.font = &f
			}
			transport := bridge.NewMemoryTransport()
			d, err := widgets.NewDisplay(
				widgets.WithRegistry(opts.registry),
				widgets.WithTransport(transport),
				widgets.WithLogger(opts.logger),
				widgets.WithBridgeOptions(bridge.WithFlags(opts.file.Flags)),
			)
			if err != nil {
				return err
			}
			defer d.Dispose()

			shell, err := buildDemo(d, layout)
			if err != nil {
				return err
			}
			n, err := d.Flush(cmd.Context())
			if err != nil {
				return err
			}
			opts.logger.Debug("flushed", "documents", n)

			out := cmd.OutOrStdout()
			if tree {
				if err := writeJSON(out, widgets.Describe(shell)); err != nil {
					return err
				}
			}
			for _, m := range transport.Messages() {
				fmt.Fprintf(out, "%s\n", m.Event)
				if err := writeJSON(out, json.RawMessage(m.Payload)); err != nil {
					return err
				}
			}
			if len(transport.Messages()) == 0 {
				fmt.Fprintln(out, "no embedded widgets; nothing sent to the renderer")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "default mode override: native, embedded or force_embedded")
	cmd.Flags().BoolVar(&tree, "tree", false, "also print the widget tree with each widget's backend")
	cmd.Flags().StringVar(&bounds, "bounds", "", "shell bounds as x,y,width,height (default 100,100,320,200)")
	cmd.Flags().StringVar(&font, "font", "", "shell font as name,height[,bold][,italic]")
	return cmd
}

type demoLayout struct {
	bounds graphics.Rectangle
	font   *graphics.FontData
}

var defaultDemoLayout = demoLayout{bounds: graphics.Rectangle{X: 100, Y: 100, Width: 320, Height: 200}}

// buildDemo creates shell{form{label, text, button}, tabs{item}}.
func buildDemo(d *widgets.Display, layout demoLayout) (*widgets.Widget, error) {
	shell, err := d.NewShell(widgets.StyleBorder)
	if err != nil {
		return nil, err
	}
	if err := shell.SetText("Sign in"); err != nil {
		return nil, err
	}
	if err := shell.SetBounds(layout.bounds); err != nil {
		return nil, err
	}
	if err := shell.SetFont(layout.font); err != nil {
		return nil, err
	}

	form, err := widgets.Create(widgets.CompositeClass, shell, widgets.StyleNone)
	if err != nil {
		return nil, err
	}
	label, err := widgets.Create(widgets.LabelClass, form, widgets.StyleNone)
	if err != nil {
		return nil, err
	}
	if err := label.SetText("User:"); err != nil {
		return nil, err
	}
	text, err := widgets.Create(widgets.TextClass, form, widgets.StyleBorder)
	if err != nil {
		return nil, err
	}
	if err := text.SetMessage("name@example.com"); err != nil {
		return nil, err
	}
	button, err := widgets.Create(widgets.ButtonClass, form, widgets.StylePush)
	if err != nil {
		return nil, err
	}
	if err := button.SetText("OK"); err != nil {
		return nil, err
	}
	accent, err := graphics.ParseColor("steelblue")
	if err != nil {
		return nil, err
	}
	if err := button.SetBackground(&accent); err != nil {
		return nil, err
	}

	tabs, err := widgets.Create(widgets.CTabFolderClass, shell, widgets.StyleClose)
	if err != nil {
		return nil, err
	}
	item, err := widgets.Create(widgets.CTabItemClass, tabs, widgets.StyleNone)
	if err != nil {
		return nil, err
	}
	if err := item.SetText("Advanced"); err != nil {
		return nil, err
	}
	return shell, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
