// Command split-clang-tidy-fixits splits a clang-tidy -export-fixes file into
// one fixits.yaml per check, so each check can be reviewed and applied with
// clang-apply-replacements on its own.
package main

import (
	"fmt"

	"github.com/VladMinzatu/perf-debug-tools/internal/cli"
	"github.com/VladMinzatu/perf-debug-tools/internal/fixits"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func main() {
	cli.Execute(newRootCmd(afero.NewOsFs()))
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	var (
		common cli.CommonFlags
		opts   fixits.Options
	)
	cmd := &cobra.Command{
		Use:   "split-clang-tidy-fixits [flags] <fixits.yaml>",
		Short: "Split clang-tidy exported fixes into one file per diagnostic",
		Long: `Writes <dir>/<DiagnosticName>/fixits.yaml for every check found in the
report. Each message gets a "# FileLine: N" comment with the line its
FileOffset points at.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := fixits.Split(fs, args[0], opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, w := range written {
				fmt.Fprintf(out, "%s: %d %s -> %s\n", cli.Label(w.Name), w.Entries, plural(w.Entries, "entry", "entries"), w.Path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "base directory for the per-diagnostic folders (default: directory of the report)")
	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "print the groups without writing anything")
	cmd.Flags().IntVar(&opts.CacheSize, "source-cache", fixits.DefaultSourceCacheSize, "number of source files kept in memory for line lookups")
	cli.AddCommonFlags(cmd, &common)
	return cmd
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
