// routeguard-sync registers the protected routes declared in a manifest
// with a running routeguard server.
//
// Connection settings come from the environment (ROUTEGUARD_URL,
// ROUTEGUARD_TOKEN, ROUTEGUARD_TIMEOUT) and can be overridden by flags:
//
//	routeguard-sync --file routes.yaml --dry-run
//	routeguard-sync --file routes.yaml --force --url https://auth.internal/routeguard
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"

	"github.com/xraph/routeguard/manifest"
)

// Config is the environment configuration.
type Config struct {
	URL     string        `envconfig:"URL" default:"http://localhost:8080/routeguard"`
	Token   string        `envconfig:"TOKEN"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var cfg Config
	if err := envconfig.Process("ROUTEGUARD", &cfg); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	var (
		file   string
		dryRun bool
		force  bool
		quiet  bool
	)
	flagSet := pflag.NewFlagSet("routeguard-sync", pflag.ContinueOnError)
	flagSet.SetOutput(stdout)
	flagSet.StringVarP(&file, "file", "f", "routes.yaml", "path to the route manifest")
	flagSet.BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	flagSet.BoolVar(&force, "force", false, "overwrite names and descriptions of existing permissions")
	flagSet.BoolVarP(&quiet, "quiet", "q", false, "print only the summary")
	flagSet.StringVar(&cfg.URL, "url", cfg.URL, "routeguard base URL (env ROUTEGUARD_URL)")
	flagSet.StringVar(&cfg.Token, "token", cfg.Token, "bearer token (env ROUTEGUARD_TOKEN)")
	flagSet.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "request timeout (env ROUTEGUARD_TIMEOUT)")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	m, err := manifest.Load(file)
	if err != nil {
		return err
	}

	client := NewClient(cfg.URL, cfg.Token, cfg.Timeout)
	report, err := client.Sync(ctx, m, manifest.SyncOptions{DryRun: dryRun, Force: force})
	if err != nil {
		return err
	}

	printReport(stdout, report, quiet)
	if report.Failed > 0 {
		return fmt.Errorf("%d route(s) failed", report.Failed)
	}
	return nil
}

func printReport(w io.Writer, r *manifest.Report, quiet bool) {
	if !quiet {
		for _, o := range r.Outcomes {
			pattern := o.Pattern
			if pattern == "" {
				pattern = "/"
			}
			switch {
			case o.Error != "":
				fmt.Fprintf(w, "%-9s %s: %s\n", o.Action, pattern, o.Error)
			case o.Name != "":
				fmt.Fprintf(w, "%-9s %s (%s)\n", o.Action, pattern, o.Name)
			default:
				fmt.Fprintf(w, "%-9s %s\n", o.Action, pattern)
			}
		}
	}
	if r.DryRun {
		fmt.Fprint(w, "dry run: ")
	}
	fmt.Fprintf(w, "created %d, updated %d, skipped %d, failed %d, total %d\n",
		r.Created, r.Updated, r.Skipped, r.Failed, r.Total())
}
