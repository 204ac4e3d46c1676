package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"visaprep/internal/config"
	"visaprep/internal/pipeline"
	"visaprep/pkg/records"

	// register all backends with the storage factory.
	_ "visaprep/internal/storage/all"
)

// previewRows is the number of rows printed after the shape.
const previewRows = 5

// main loads the pipeline (flags, env, optional pipeline file), cleans the
// case file, prints its shape and a short preview, and persists it when a
// storage sink is configured.
func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("dotenv: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, flag.CommandLine, os.Getenv, os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the process globals. It returns the exit code.
func run(ctx context.Context, fs *flag.FlagSet, getenv func(string) string, args []string, stdout, stderr io.Writer) int {
	validate := fs.Bool("validate", false, "validate the configuration and exit")
	cli, err := config.LoadFromArgs(fs, getenv, args)
	if err != nil {
		return 2
	}
	p, err := cli.Resolve(config.Default())
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("Configuration is invalid: job=%s", p.Job)
		return 1
	}
	if *validate {
		log.Printf("Configuration is valid: job=%s", p.Job)
		return 0
	}

	flush, err := pipeline.SetupMetrics(p.Metrics, p.Job)
	if err != nil {
		log.Printf("%v; metrics disabled", err)
		flush = func() {}
	}
	defer flush()

	start := time.Now()
	res, err := pipeline.Run(ctx, p)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	printShape(stdout, res.Table)
	if err := printPreview(stdout, res.Table.Head(previewRows)); err != nil {
		fmt.Fprintf(stderr, "preview: %v\n", err)
		return 1
	}

	if _, err := pipeline.Persist(ctx, p, res.Table); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	if cli.Verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	return 0
}

func printShape(w io.Writer, t records.Table) {
	r, c := t.Shape()
	fmt.Fprintf(w, "Final dataset shape: (%d, %d)\n", r, c)
}

// printPreview writes t as aligned columns, one line per row.
func printPreview(w io.Writer, t records.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
	cells := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, c := range t.Columns {
			cells[i] = records.Format(r[c])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
