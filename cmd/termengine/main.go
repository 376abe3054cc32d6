// Package main is the entry point for the termengine CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dshills/termengine/internal/config"
	"github.com/dshills/termengine/internal/logx"
)

const programName = "termengine"

// app carries state shared by subcommands, filled in before any of them run.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *log.Logger
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	root := newRootCmd(a)
	if err := root.ExecuteContext(ctx); err != nil {
		if a.logger != nil {
			a.logger.Error("command failed", "err", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           programName,
		Short:         "Run shells on pseudo-terminals and render their screens",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a TOML or YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd(a))
	root.AddCommand(newSnapshotCmd(a))
	root.AddCommand(newEnvCmd(a))
	root.AddCommand(newVersionCmd())

	return root
}

// setup loads configuration and builds the logger. Flags override the file
// and the environment.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.NewLoader().Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	a.cfg = cfg
	a.logger = logx.New(cmd.ErrOrStderr(), cfg.Level())
	a.logger.Debug("config loaded", "path", a.configPath, "shell", cfg.Shell, "preset", cfg.Environment.Preset)
	return nil
}
