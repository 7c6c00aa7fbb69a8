// Command check-kallsyms finds the kernel symbols bracketing an address.
//
//	check-kallsyms ffffffff81001010 < /proc/kallsyms
package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/VladMinzatu/perf-debug-tools/internal/cli"
	"github.com/VladMinzatu/perf-debug-tools/internal/symbolizer"
	"github.com/spf13/cobra"
)

func main() {
	cli.Execute(newRootCmd())
}

func newRootCmd() *cobra.Command {
	var (
		common cli.CommonFlags
		input  string
	)
	cmd := &cobra.Command{
		Use:   "check-kallsyms [flags] <hex-address>",
		Short: "Find the nearest symbols around an address in a kallsyms table",
		Long: `Reads a symbol table sorted by address (e.g. /proc/kallsyms) and prints the
closest symbol at or below the address and the first symbol above it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], input)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "symbol table to read, - for stdin")
	cli.AddCommonFlags(cmd, &common)
	return cmd
}

func run(cmd *cobra.Command, arg, input string) error {
	addr, err := cli.ParseAddress(arg)
	if err != nil {
		return err
	}

	loader := symbolizer.NewDataLoader(input, cmd.InOrStdin())
	if loader.IsStdin() {
		cli.WarnIfTerminal(cmd.InOrStdin())
	}
	rc, err := loader.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "looking for", arg)

	res, err := symbolizer.Lookup(rc, addr, func(line string) {
		fmt.Fprintln(out, cli.Warning("no match: "), line)
	})
	if err != nil {
		return err
	}
	slog.Debug("Scanned symbol table", "input", input, "records", res.Scanned, "unparsed", res.NoMatch)
	printResult(out, addr, res)
	return nil
}

func printResult(out io.Writer, addr uint64, res *symbolizer.LookupResult) {
	if res.Best != nil {
		fmt.Fprintln(out, cli.Label("best match sym:"), res.Best.Record.Raw, "diff is:", fmt.Sprintf("0x%x", res.Best.Diff))
	} else {
		fmt.Fprintln(out, cli.Label("best match sym:"), cli.Missing(fmt.Sprintf("none (no symbol at or below 0x%x)", addr)))
	}
	if res.Next != nil {
		fmt.Fprintln(out, cli.Label("next sym is:"), res.Next.Record.Raw, "diff is:", fmt.Sprintf("0x%x", res.Next.Diff))
	} else {
		fmt.Fprintln(out, cli.Label("next sym is:"), cli.Missing(fmt.Sprintf("none (no symbol above 0x%x)", addr)))
	}
}
