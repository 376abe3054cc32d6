package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/termengine/internal/integration/terminal"
)

type snapshotOptions struct {
	rows, cols uint16
	scrollback bool
	info       bool
}

func newSnapshotCmd(a *app) *cobra.Command {
	var opts snapshotOptions

	cmd := &cobra.Command{
		Use:   "snapshot [file]",
		Short: "Render recorded terminal output without running a shell",
		Long: `Feed a recording of terminal output (for example from script(1)) through
the screen model and print the final screen. Reads stdin when no file is
given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			opts.rows, opts.cols = a.screenSize(cmd.OutOrStdout(), opts.rows, opts.cols)

			screen := terminal.NewScreen(int(opts.rows), int(opts.cols), terminal.WithScrollback(a.cfg.Scrollback))
			n, err := renderStream(screen, in)
			if err != nil {
				return err
			}
			a.logger.Debug("rendered recording", "bytes", n)

			out := cmd.OutOrStdout()
			if opts.scrollback && screen.ScrollbackLen() > 0 {
				fmt.Fprintln(out, screen.ScrollbackText())
			}
			fmt.Fprintln(out, screen.Text())
			if opts.info {
				printInfo(out, screen)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.Uint16Var(&opts.rows, "rows", 0, "screen rows (default: terminal size, then config)")
	f.Uint16Var(&opts.cols, "cols", 0, "screen columns (default: terminal size, then config)")
	f.BoolVar(&opts.scrollback, "scrollback", false, "print scrollback above the screen")
	f.BoolVar(&opts.info, "info", false, "print cursor, title and mode state after the screen")

	return cmd
}

// renderStream feeds r into screen in chunks, as a PTY reader would.
func renderStream(screen *terminal.Screen, r io.Reader) (int64, error) {
	var total int64
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			screen.Process(buf[:n])
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, fmt.Errorf("reading recording: %w", err)
		}
	}
}

func printInfo(out io.Writer, s *terminal.Screen) {
	rows, cols := s.Size()
	row, col := s.CursorPosition()
	prompt := s.Prompt()

	fmt.Fprintln(out, "---")
	fmt.Fprintf(out, "size:       %dx%d\n", rows, cols)
	fmt.Fprintf(out, "cursor:     %d,%d visible=%t\n", row, col, s.CursorVisible())
	fmt.Fprintf(out, "alternate:  %t\n", s.IsAlternateScreen())
	fmt.Fprintf(out, "title:      %q\n", s.Title())
	fmt.Fprintf(out, "cwd:        %q\n", s.ShellCwd())
	fmt.Fprintf(out, "mouse:      %s\n", s.MouseMode())
	fmt.Fprintf(out, "prompt:     %s commands=%d\n", prompt.Phase, prompt.Commands)
	if prompt.HasExitCode {
		fmt.Fprintf(out, "last exit:  %d\n", prompt.ExitCode)
	}
	fmt.Fprintf(out, "scrollback: %d lines\n", s.ScrollbackLen())
	fmt.Fprintf(out, "bells:      %d\n", s.Bells())
}
