package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/termengine/internal/integration"
	"github.com/dshills/termengine/internal/integration/pane"
	"github.com/dshills/termengine/internal/integration/pty"
	"github.com/dshills/termengine/internal/integration/terminal"
	"github.com/dshills/termengine/internal/version"
)

type runOptions struct {
	rows, cols uint16
	quiet      time.Duration
	timeout    time.Duration
	exit       bool
	scrollback bool
	raw        bool
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [command-line...]",
		Short: "Start a shell, send it command lines and print the resulting screen",
		Long: `Start the configured shell on a new pseudo-terminal, type each argument
as a command line, wait until the output goes quiet (or the shell exits)
and print the rendered screen.`,
		Example: `  termengine run 'ls -la' 'echo done'
  termengine run --exit --scrollback 'make test'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.rows, opts.cols = a.screenSize(cmd.OutOrStdout(), opts.rows, opts.cols)
			return a.runShell(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, opts)
		},
	}

	f := cmd.Flags()
	f.Uint16Var(&opts.rows, "rows", 0, "screen rows (default: terminal size, then config)")
	f.Uint16Var(&opts.cols, "cols", 0, "screen columns (default: terminal size, then config)")
	f.DurationVar(&opts.quiet, "quiet", 300*time.Millisecond, "stop after no output for this long")
	f.DurationVar(&opts.timeout, "timeout", 30*time.Second, "give up after this long")
	f.BoolVar(&opts.exit, "exit", false, "send exit after the commands and wait for the shell to finish")
	f.BoolVar(&opts.scrollback, "scrollback", false, "print scrollback above the screen")
	f.BoolVar(&opts.raw, "raw", false, "copy raw PTY output to stderr as it arrives")

	return cmd
}

func (a *app) runShell(ctx context.Context, out, errOut io.Writer, lines []string, opts runOptions) error {
	bus := integration.NewBus(a.logger)
	defer bus.Close()
	bus.Subscribe("pty.*", func(e integration.Event) {
		a.logger.Debug("session event", "event", e.Type, "id", e.Data["id"])
	})

	mgrOpts := append(a.cfg.ManagerOptions(a.logger, programName, version.Current()), pty.WithEventPublisher(bus))
	mgr := pty.NewManager(mgrOpts...)
	defer mgr.Shutdown()

	paneOpts := []pane.Option{
		pane.WithScrollback(a.cfg.Scrollback),
		pane.WithLogger(a.logger),
	}
	if opts.raw {
		paneOpts = append(paneOpts, pane.WithOutputHandler(func(b []byte) {
			_, _ = errOut.Write(b)
		}))
	}

	p, err := pane.New(mgr, opts.rows, opts.cols, paneOpts...)
	if err != nil {
		return fmt.Errorf("starting shell: %w", err)
	}
	defer p.Close()
	a.logger.Info("shell started", "shell", mgr.Shell(), "session", p.ID())

	for _, line := range lines {
		if err := p.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("sending %q: %w", line, err)
		}
	}
	if opts.exit {
		if err := p.WriteString("exit\n"); err != nil {
			return fmt.Errorf("sending exit: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	interval := time.Duration(a.cfg.PollInterval)
	if opts.exit {
		err = p.Run(ctx, interval)
	} else {
		err = p.Settle(ctx, interval, opts.quiet)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		a.logger.Warn("timed out waiting for shell", "timeout", opts.timeout)
	} else if err != nil {
		return err
	}

	printScreen(out, p, opts.scrollback)

	if code, err := p.Exited(); err == nil && code != nil {
		a.logger.Info("shell exited", "code", *code)
		if *code != 0 {
			return fmt.Errorf("shell exited with status %d", *code)
		}
	}
	return nil
}

func printScreen(out io.Writer, p *pane.Pane, withScrollback bool) {
	p.View(func(s *terminal.Screen) {
		if withScrollback && s.ScrollbackLen() > 0 {
			fmt.Fprintln(out, s.ScrollbackText())
		}
		fmt.Fprintln(out, s.Text())
	})
}
