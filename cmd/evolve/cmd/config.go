package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/evolve/pkg/config"
)

func init() {
	RegisterCommand(newConfigCommand)
}

// effective is what "evolve config" prints.
type effective struct {
	Source   string          `json:"source" yaml:"source" toml:"source"`
	Settings config.Settings `json:"settings" yaml:"settings" toml:"settings"`
	Groups   [][]string      `json:"groups,omitempty" yaml:"groups,omitempty" toml:"groups,omitempty"`
	Flags    config.Flags    `json:"flags" yaml:"flags" toml:"flags"`
	Renderer string          `json:"renderer,omitempty" yaml:"renderer,omitempty" toml:"renderer,omitempty"`
}

func newConfigCommand(opts *options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective backend configuration",
		Long: `Print the backend configuration after the configuration file and
EVOLVE_* environment overrides have been applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := effective{
				Source:   opts.filePath,
				Settings: opts.registry.Snapshot(),
				Groups:   opts.file.Groups,
				Flags:    opts.file.Flags,
				Renderer: opts.file.Renderer.Addr,
			}
			if e.Source == "" {
				e.Source = "(defaults)"
			}
			return encode(cmd.OutOrStdout(), format, e)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml, json or toml")
	cmd.AddCommand(newConfigValidateCommand())
	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check configuration files for errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, path := range args {
				if _, err := config.Load(path); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files invalid", failed, len(args))
			}
			return nil
		},
	}
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "toml":
		return toml.NewEncoder(w).Encode(v)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
