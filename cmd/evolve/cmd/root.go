// Package cmd implements the evolve CLI commands.
//
// Every command shares the root's --config and --verbose flags. The
// configuration file and EVOLVE_* environment overrides are loaded into a
// fresh Registry before the command runs.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/go-drift/evolve/pkg/config"
	evolveerrors "github.com/go-drift/evolve/pkg/errors"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// options is the state shared by every command.
type options struct {
	configPath string
	verbose    bool

	logger   *slog.Logger
	registry *config.Registry
	file     *config.File
	filePath string
}

var commands []func(*options) *cobra.Command

// RegisterCommand adds a subcommand constructor to the CLI.
func RegisterCommand(fn func(*options) *cobra.Command) {
	commands = append(commands, fn)
}

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "evolve",
		Short: "Evolve - native and embedded widget backends side by side",
		Long: `Evolve binds every widget either to the native toolkit or to an
embedded renderer, chosen per class, per instance path or per process.

Use "evolve <command> --help" for more information about a command.`,
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"configuration file (default: evolve.yaml, evolve.yml or evolve.toml in the working directory)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging with stack traces")

	for _, fn := range commands {
		root.AddCommand(fn(opts))
	}
	return root
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func (o *options) load(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	evolveerrors.SetHandler(&evolveerrors.LogHandler{Verbose: o.verbose, Logger: o.logger})

	o.registry = config.NewRegistry()
	var err error
	if o.configPath != "" {
		o.filePath = o.configPath
		o.file, err = config.Load(o.configPath)
	} else {
		o.file, o.filePath, err = config.LoadOptional(".")
	}
	if err != nil {
		return err
	}
	if err := o.file.Apply(o.registry); err != nil {
		return err
	}
	if err := config.ApplyEnv(o.registry, nil); err != nil {
		return err
	}
	if o.filePath != "" {
		o.logger.Debug("configuration loaded", "path", o.filePath)
	}
	return nil
}
