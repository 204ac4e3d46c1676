package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"unicode/utf8"

	"visaprep/internal/probe"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, flag.CommandLine, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, fs *flag.FlagSet, args []string, stdout, stderr io.Writer) int {
	var (
		src      = fs.String("source", "data/VisaFile.csv", "Path or http(s) URL of the case file to sample")
		n        = fs.Int("bytes", probe.DefaultMaxBytes, "Number of bytes to sample from the start of the file")
		delim    = fs.String("delimiter", ",", "CSV field delimiter (single character)")
		enc      = fs.String("encoding", "latin1", "Encoding of the file")
		name     = fs.String("name", "", "Job name of the suggested pipeline")
		asJSON   = fs.Bool("json", false, "Output a suggested pipeline file instead of the column profile")
		datePref = fs.String("datepref", "eu", "Reading of ambiguous numeric dates: eu (day first) or us (month first)")
		backend  = fs.String("backend", "", "Add a storage sink of this kind to the suggested pipeline")
		save     = fs.String("save", "", "Write the sampled bytes to this path")
		insecure = fs.Bool("insecure", false, "Skip TLS certificate verification")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	opt := probe.Options{
		Source:           *src,
		MaxBytes:         *n,
		Delimiter:        decodeDelimiter(*delim),
		Encoding:         *enc,
		DayFirst:         *datePref != "us",
		Name:             *name,
		Backend:          *backend,
		SaveSample:       *save,
		AllowInsecureTLS: *insecure,
	}
	prof, err := probe.Run(ctx, opt)
	if err != nil {
		fmt.Fprintf(stderr, "probe: %v\n", err)
		return 1
	}

	var body []byte
	if *asJSON {
		body, err = probe.JSON(probe.Suggest(prof, opt))
	} else {
		body, err = probe.Text(prof)
	}
	if err != nil {
		fmt.Fprintf(stderr, "probe: %v\n", err)
		return 1
	}
	_, _ = stdout.Write(body)
	return 0
}

// decodeDelimiter converts a user-supplied string into a single rune
// delimiter. "\t" and "tab" select a tab.
func decodeDelimiter(s string) rune {
	switch s {
	case "":
		return ','
	case `\t`, "tab":
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return ','
	}
	return r
}
