// Package cli holds the flag and output plumbing shared by the commands.
package cli

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/VladMinzatu/perf-debug-tools/internal/symbolizer"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type CommonFlags struct {
	Verbose bool
	Color   string
}

// AddCommonFlags registers --verbose and --color and installs a pre-run hook
// that configures logging and colors from them.
func AddCommonFlags(cmd *cobra.Command, f *CommonFlags) {
	cmd.PersistentFlags().BoolVarP(&f.Verbose, "verbose", "v", false, "enable debug logging on stderr")
	cmd.PersistentFlags().StringVar(&f.Color, "color", "auto", "colorize output (auto|always|never)")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		SetupLogging(cmd.ErrOrStderr(), f.Verbose)
		return ConfigureColor(f.Color)
	}
}

func SetupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func ConfigureColor(mode string) error {
	switch mode {
	case "auto":
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		return errors.Errorf("invalid --color value %q (want auto, always or never)", mode)
	}
	return nil
}

// ParseAddress accepts hex with or without a 0x prefix.
func ParseAddress(s string) (uint64, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if h == "" {
		return 0, errors.Errorf("invalid address %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid address %q", s)
	}
	return v, nil
}

func ParseTargets(args []string) ([]symbolizer.Target, error) {
	targets := make([]symbolizer.Target, 0, len(args))
	for _, a := range args {
		addr, err := ParseAddress(a)
		if err != nil {
			return nil, err
		}
		targets = append(targets, symbolizer.Target{Arg: a, Addr: addr})
	}
	return targets, nil
}

// WarnIfTerminal logs a hint when r is an interactive terminal, since the
// commands would otherwise sit waiting for input without explanation.
func WarnIfTerminal(r io.Reader) {
	f, ok := r.(*os.File)
	if !ok {
		return
	}
	if term.IsTerminal(int(f.Fd())) {
		slog.Warn("Reading from an interactive terminal; pipe input in or pass --input", "fd", f.Fd())
	}
}

var (
	Label   = color.New(color.Bold).SprintFunc()
	Warning = color.New(color.FgYellow).SprintFunc()
	Missing = color.New(color.FgRed).SprintFunc()
)

// Execute runs cmd and exits with status 1 on error.
func Execute(cmd *cobra.Command) {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		slog.Error("Command failed", "command", cmd.Name(), "error", err)
		os.Exit(1)
	}
}
