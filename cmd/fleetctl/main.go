// fleetctl computes fleet views offline from saved endpoint reports.
//
// Each report file holds one endpoint report or a list of them, as JSON
// (comments allowed), YAML or CBOR. Reports are validated on load and
// arranged by --order before any view is computed.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"fleetbench/internal/codec"
	"fleetbench/internal/collector"
	"fleetbench/internal/config"
	"fleetbench/internal/fleet"
	"fleetbench/internal/logutil"
	"fleetbench/internal/model"
	"fleetbench/internal/render"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var commands = map[string]func(fleet.Round, *pflag.FlagSet, io.Writer) error{
	"index":       runIndex,
	"ranking":     runRanking,
	"leaderboard": runLeaderboard,
	"extrema":     runExtrema,
	"host":        runHost,
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		return nil
	}
	if args[0] == "--version" || args[0] == "version" {
		fmt.Fprintf(stdout, "fleetctl %s\n", config.HardcodedVersion)
		return nil
	}

	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", name)
	}

	flagSet := pflag.NewFlagSet("fleetctl "+name, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	orderFlag := flagSet.String("order", string(fleet.OrderByAddress), "endpoint order before indexing: address, hostname or arrival")
	if name == "ranking" {
		flagSet.Int("top", 0, "show only the K best samples (0 shows the full ascending ranking)")
	}
	if err := flagSet.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	order, err := fleet.ParseOrder(*orderFlag)
	if err != nil {
		return err
	}
	if name != "host" && flagSet.NArg() == 0 {
		return fmt.Errorf("%s: at least one report file is required", name)
	}
	reports, err := loadReports(flagSet.Args())
	if err != nil {
		return err
	}
	return cmd(fleet.NewRound(reports, order), flagSet, stdout)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: fleetctl <command> [flags] <report-file>...

Commands:
  index        dense core index: each endpoint's slot span and fleet totals
  ranking      every sample in the fleet, ascending by result (--top K for the best K)
  leaderboard  each endpoint's best sample, best first
  extrema      min and max sample per endpoint and across the fleet
  host         host snapshot of each report, or of this machine when no file is given

Flags:
  --order      address (default), hostname or arrival
`)
}

// loadReports reads every file in order. A file may hold a single report
// or a list; when it parses as neither, both errors are returned.
func loadReports(paths []string) ([]model.EndpointReport, error) {
	var out []model.EndpointReport
	for _, path := range paths {
		var list []model.EndpointReport
		if listErr := codec.DecodeFile(path, &list); listErr != nil {
			var one model.EndpointReport
			if err := codec.DecodeFile(path, &one); err != nil {
				return nil, errors.Join(listErr, err)
			}
			list = []model.EndpointReport{one}
		}
		for i, r := range list {
			r.Address = r.Address.Unmap()
			if err := r.Validate(); err != nil {
				return nil, fmt.Errorf("%s: report %d: %w", path, i, err)
			}
			out = append(out, r)
		}
	}
	return out, nil
}

func runIndex(round fleet.Round, _ *pflag.FlagSet, w io.Writer) error {
	idx, err := round.Index()
	if err != nil {
		return err
	}
	return render.Index(w, idx)
}

func runRanking(round fleet.Round, flagSet *pflag.FlagSet, w io.Writer) error {
	top, err := flagSet.GetInt("top")
	if err != nil {
		return err
	}
	ranking := round.Ranking()
	if top > 0 {
		ranking = fleet.TopK(ranking, top)
	}
	return render.Ranking(w, ranking)
}

func runLeaderboard(round fleet.Round, _ *pflag.FlagSet, w io.Writer) error {
	return render.Leaderboard(w, round.Leaderboard())
}

func runExtrema(round fleet.Round, _ *pflag.FlagSet, w io.Writer) error {
	return render.Extrema(w, round.Reports())
}

func runHost(round fleet.Round, _ *pflag.FlagSet, w io.Writer) error {
	reports := round.Reports()
	if len(reports) == 0 {
		snap, err := collector.NewProcHostCollector(logutil.Discard()).Collect(context.Background())
		if err != nil {
			return err
		}
		return render.Host(w, snap)
	}
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		notes := []model.KeyValue{{Key: "Endpoint", Value: r.String()}}
		if r.AppVersion != "" {
			notes = append(notes, model.KeyValue{Key: "App Version", Value: r.AppVersion})
		}
		if err := render.Host(w, r.Host, notes...); err != nil {
			return err
		}
	}
	return nil
}
