// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

// quarry-workers is the operator tool for Quarry's live worker
// registry. "list" shows the workers the orchestrator is keeping
// alive; "match" evaluates a build request against each of them and
// reports, per worker, whether it would be reused and why not
// otherwise — the same decision the dispatcher makes, as a dry run.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/quarry-build/quarry/lib/compat"
	"github.com/quarry-build/quarry/lib/config"
	"github.com/quarry-build/quarry/lib/invocation"
	"github.com/quarry-build/quarry/lib/registry"
	"github.com/quarry-build/quarry/lib/runtimeid"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage(os.Stderr)
		return fmt.Errorf("subcommand required")
	}

	switch args[0] {
	case "list":
		return runList(args[1:])
	case "match":
		return runMatch(args[1:])
	case "help", "--help", "-h":
		printUsage(os.Stdout)
		return nil
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage(w *os.File) {
	fmt.Fprintln(w, `Usage: quarry-workers <command> [flags]

Commands:
  list    show the live workers in the registry
  match   dry-run a build request against each live worker

Configuration is read from --config or the QUARRY_CONFIG environment
variable.`)
}

// loadConfig resolves the configuration from the --config flag value
// or QUARRY_CONFIG.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openRegistry opens the configured registry, attaching a text-format
// slog handler when verbose output is requested.
func openRegistry(cfg *config.Config, verbose bool) (*registry.Registry, error) {
	reg, err := registry.Open(cfg.Paths.Registry)
	if err != nil {
		return nil, err
	}
	if verbose {
		reg.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}
	return reg, nil
}

func runList(args []string) error {
	flagSet := pflag.NewFlagSet("quarry-workers list", pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "path to quarry.yaml")
	verbose := flagSet.Bool("verbose", false, "log registry activity to stderr")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	reg, err := openRegistry(cfg, *verbose)
	if err != nil {
		return err
	}

	entries := reg.List()
	if len(entries) == 0 {
		fmt.Println("no live workers")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WORKER\tPID\tSTATE\tRUNTIME\tARGS\tIDLE")
	now := time.Now()
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
			entry.ID.String()[:8],
			entry.PID,
			entry.State,
			entry.Identity.Short(),
			formatArgs(entry.Config),
			now.Sub(entry.LastActivity).Round(time.Second),
		)
	}
	return w.Flush()
}

func formatArgs(cfg invocation.Config) string {
	args := cfg.StartupArgs()
	if len(args) == 0 {
		return "-"
	}
	const limit = 4
	if len(args) > limit {
		return fmt.Sprintf("%v +%d more", args[:limit], len(args)-limit)
	}
	return fmt.Sprintf("%v", args)
}

func runMatch(args []string) error {
	flagSet := pflag.NewFlagSet("quarry-workers match", pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "path to quarry.yaml")
	explicit := flagSet.StringArray("arg", nil, "explicit startup argument (repeatable; omit entirely to inherit defaults)")
	noArgs := flagSet.Bool("no-args", false, "explicitly empty argument list (suppresses catalog defaults)")
	properties := flagSet.StringToString("property", nil, "extra property key=value (repeatable)")
	version := flagSet.String("runtime-version", "", "runtime version hint for catalog defaults")
	pin := flagSet.String("pin-identity", "", "require this runtime installation (hex identity)")
	verbose := flagSet.Bool("verbose", false, "log registry activity to stderr")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	req := invocation.Request{
		ExtraProperties: *properties,
		Version:         *version,
	}
	switch {
	case *noArgs && len(*explicit) > 0:
		return fmt.Errorf("--no-args and --arg are mutually exclusive")
	case *noArgs:
		req.Args = invocation.ExplicitArgs()
	case len(*explicit) > 0:
		req.Args = invocation.ExplicitArgs(*explicit...)
	}
	if *pin != "" {
		identity, err := runtimeid.Parse(*pin)
		if err != nil {
			return err
		}
		req.RequiredIdentity = identity
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	table := cfg.Table()
	cat, err := cfg.Catalog(table)
	if err != nil {
		return err
	}
	reg, err := openRegistry(cfg, *verbose)
	if err != nil {
		return err
	}

	matcher := compat.NewMatcher(invocation.NewBuilder(cat, table))

	entries := reg.List()
	if len(entries) == 0 {
		fmt.Println("no live workers")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WORKER\tSTATE\tVERDICT\tDETAIL")
	for _, entry := range entries {
		verdict := matcher.Match(entry.Identity, entry.Config, req)
		detail := verdict.Reason
		if verdict.Compatible {
			detail = fmt.Sprintf("%d mutable update(s)", len(verdict.MutableUpdates))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			entry.ID.String()[:8],
			entry.State,
			verdictWord(verdict.Compatible),
			detail,
		)
	}
	return w.Flush()
}

func verdictWord(compatible bool) string {
	if compatible {
		return "compatible"
	}
	return "no-match"
}
