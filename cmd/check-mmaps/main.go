// Command check-mmaps reports which recorded memory mappings contain the given
// addresses.
//
//	perf script --show-mmap-events | check-mmaps 0x55d4b2000100 0x7f8a9b000100
package main

import (
	"fmt"
	"io"

	"github.com/VladMinzatu/perf-debug-tools/internal/cli"
	"github.com/VladMinzatu/perf-debug-tools/internal/otlp"
	"github.com/VladMinzatu/perf-debug-tools/internal/pprof"
	"github.com/VladMinzatu/perf-debug-tools/internal/symbolizer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	formatPerf       = "perf"
	formatMaps       = "maps"
	formatPprof      = "pprof"
	formatOTLP       = "otlp"
	formatOTLPExport = "otlp-export"
)

func main() {
	cli.Execute(newRootCmd())
}

func newRootCmd() *cobra.Command {
	var (
		common cli.CommonFlags
		input  string
		format string
	)
	cmd := &cobra.Command{
		Use:   "check-mmaps [flags] <hex-address>...",
		Short: "Report the memory mappings that contain the given addresses",
		Long: `Reads mmap records and prints every record whose [start, start+length)
interval contains one of the addresses.

Formats:
  perf         PERF_RECORD_MMAP/MMAP2 lines from perf script or perf report -D
  maps         /proc/<pid>/maps lines
  pprof        a pprof profile, its mapping table is used
  otlp         an OTLP ProfilesData protobuf
  otlp-export  an OTLP ExportProfilesServiceRequest protobuf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, input, format)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "input to read, - for stdin")
	cmd.Flags().StringVarP(&format, "format", "f", formatPerf, "input format (perf|maps|pprof|otlp|otlp-export)")
	cli.AddCommonFlags(cmd, &common)
	return cmd
}

func run(cmd *cobra.Command, args []string, input, format string) error {
	targets, err := cli.ParseTargets(args)
	if err != nil {
		return err
	}

	loader := symbolizer.NewDataLoader(input, cmd.InOrStdin())
	if loader.IsStdin() {
		cli.WarnIfTerminal(cmd.InOrStdin())
	}

	out := cmd.OutOrStdout()
	hits := make(map[symbolizer.Target]int, len(targets))
	onHit := func(h symbolizer.MappingHit) {
		hits[h.Target]++
		fmt.Fprintln(out, h.Target.Arg, cli.Label("matched in:"), h.Region.String())
	}
	onNoMatch := func(line string) {
		fmt.Fprintln(out, cli.Warning("no match: "), line)
	}

	switch format {
	case formatPerf, formatMaps:
		rc, err := loader.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		if format == formatPerf {
			err = symbolizer.ScanPerfMmaps(rc, targets, onHit, onNoMatch)
		} else {
			err = symbolizer.ScanProcMaps(rc, targets, onHit, onNoMatch)
		}
		if err != nil {
			return err
		}
	case formatPprof, formatOTLP, formatOTLPExport:
		data, err := loader.ReadAll()
		if err != nil {
			return err
		}
		var regions []symbolizer.MapRegion
		switch format {
		case formatPprof:
			regions, err = pprof.ReadMappings(data)
		case formatOTLP:
			regions, err = otlp.ReadProfilesData(data)
		default:
			regions, err = otlp.ReadExportRequest(data)
		}
		if err != nil {
			return err
		}
		for _, h := range symbolizer.MatchRegions(regions, targets) {
			onHit(h)
		}
	default:
		return errors.Errorf("unknown format %q", format)
	}

	printMisses(out, targets, hits)
	return nil
}

func printMisses(out io.Writer, targets []symbolizer.Target, hits map[symbolizer.Target]int) {
	for _, t := range targets {
		if hits[t] == 0 {
			fmt.Fprintln(out, t.Arg, cli.Missing("not matched"))
		}
	}
}
