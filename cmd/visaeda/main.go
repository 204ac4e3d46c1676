package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"visaprep/internal/config"
	"visaprep/internal/pipeline"
	"visaprep/internal/report"
	"visaprep/internal/transformer/builtin"

	_ "visaprep/internal/storage/all"
)

// Defaults of the exploratory run when no pipeline file is given.
const (
	defaultJob       = "visa_eda"
	defaultOutputDir = "outputs"
)

// edaDefaults is the fallback pipeline: the EDA chain over the default
// case file, writing into ./outputs.
func edaDefaults() config.Pipeline {
	p := config.Pipeline{
		Job:       defaultJob,
		Transform: config.EDATransforms(),
		Report:    config.Report{OutputDir: defaultOutputDir},
	}
	p.ApplyDefaults()
	return p
}

// main runs the EDA chain over the case file and writes the summary,
// per-analysis CSV files, the workbook and the data-quality report.
func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("dotenv: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, flag.CommandLine, os.Getenv, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, fs *flag.FlagSet, getenv func(string) string, args []string, stdout, stderr io.Writer) int {
	seed := fs.Uint64("seed", 42, "seed of the pairplot sample")
	cli, err := config.LoadFromArgs(fs, getenv, args)
	if err != nil {
		return 2
	}
	p, err := cli.Resolve(edaDefaults())
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if p.Report.OutputDir == "" {
		p.Report.OutputDir = defaultOutputDir
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return 1
	}

	flush, err := pipeline.SetupMetrics(p.Metrics, p.Job)
	if err != nil {
		log.Printf("%v; metrics disabled", err)
		flush = func() {}
	}
	defer flush()

	res, err := pipeline.Run(ctx, p)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	rep, err := report.Build(res.Table, report.Options{
		Duration:   p.Columns.Duration,
		Received:   p.Columns.Received,
		Month:      builtin.DefaultMonthColumn,
		Status:     p.Report.StatusColumn,
		Dimensions: p.Report.Dimensions,
		Seed:       *seed,
	})
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	paths, err := report.Write(ctx, rep, report.WriteOptions{
		Dir:      p.Report.OutputDir,
		Workbook: p.Report.WorkbookEnabled(),
		Quality:  res.Quality,
	})
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	if _, err := pipeline.Persist(ctx, p, res.Table); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	r, c := res.Table.Shape()
	fmt.Fprintf(stdout, "Final dataset shape: (%d, %d)\n", r, c)
	fmt.Fprintf(stdout, "EDA complete. %d files saved to %s\n", len(paths), p.Report.OutputDir)
	return 0
}
