// Package pipeline runs the visa-case cleaning pipeline described by a
// config.Pipeline: load the case file, normalize its headers, apply the
// configured transform chain, and account for every row and cell the chain
// removes or fills.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"

	"visaprep/internal/config"
	"visaprep/internal/datasource/file"
	"visaprep/internal/datasource/httpds"
	csvparser "visaprep/internal/parser/csv"
	"visaprep/pkg/records"
)

// Source describes the input a table was loaded from.
type Source struct {
	Path     string          `json:"path"`
	URL      string          `json:"url,omitempty"`
	Bytes    int64           `json:"bytes"`
	Checksum string          `json:"checksum"`
	Parse    csvparser.Stats `json:"parse"`
}

// Function variables used as test seams.
var (
	downloadFn = func(ctx context.Context, h config.SourceHTTP) (string, error) {
		cfg := httpds.Config{MaxRetries: h.MaxRetries, InsecureSkipVerify: h.InsecureSkipVerify}
		if h.Timeout != "" {
			d, err := time.ParseDuration(h.Timeout)
			if err != nil {
				return "", fmt.Errorf("source.http.timeout: %w", err)
			}
			cfg.Timeout = d
		}
		return httpds.NewClient(cfg).Download(ctx, h.URL, h.CacheDir, h.Refresh)
	}
)

// resolvePath returns the local path of the configured input, downloading
// remote sources into their cache first.
func resolvePath(ctx context.Context, s config.Source) (string, error) {
	switch s.Kind {
	case "", "file":
		return s.File.Path, nil
	case "http":
		return downloadFn(ctx, s.HTTP)
	default:
		return "", fmt.Errorf("unsupported source.kind=%s", s.Kind)
	}
}

// ParserOptions maps the parser options bag onto csv.Options.
func ParserOptions(p config.Parser) csvparser.Options {
	opt := csvparser.Options{
		Comma:     p.Options.Rune("comma", ','),
		Encoding:  p.Options.String("encoding", csvparser.DefaultEncoding),
		TrimSpace: p.Options.Bool("trim_space", false),
	}
	if p.Options.Has("na_values") {
		opt.NAValues = p.Options.StringSlice("na_values")
		if opt.NAValues == nil {
			opt.NAValues = []string{}
		}
	}
	if raw, ok := p.Options.Any("scrub").([]any); ok {
		for _, x := range raw {
			m, ok := x.(map[string]any)
			if !ok {
				continue
			}
			o := config.Options(m)
			if from := o.String("from", ""); from != "" {
				opt.Scrub = append(opt.Scrub, csvparser.Replacement{From: from, To: o.String("to", "")})
			}
		}
	}
	return opt
}

// Load reads the configured case file into a table. Nothing is parsed
// before the file is known to exist: a missing input fails fast with
// *file.NotFoundError. Header names are returned as they appear in the
// file (minus a BOM); Run normalizes them.
func Load(ctx context.Context, p config.Pipeline) (records.Table, Source, error) {
	var src Source
	if p.Source.Kind == "http" {
		src.URL = p.Source.HTTP.URL
	}

	path, err := resolvePath(ctx, p.Source)
	if err != nil {
		return records.Table{}, src, err
	}
	src.Path = path

	local := file.NewLocal(path)
	fi, err := local.Stat()
	if err != nil {
		return records.Table{}, src, err
	}
	src.Bytes = fi.Size()

	if src.Checksum, err = file.Checksum(path); err != nil {
		return records.Table{}, src, err
	}

	rc, err := local.Open(ctx)
	if err != nil {
		return records.Table{}, src, err
	}
	defer rc.Close()

	opt := ParserOptions(p.Parser)
	start := time.Now()
	t, st, err := csvparser.NewParser(opt).Parse(rc)
	if err != nil {
		return records.Table{}, src, fmt.Errorf("parse %s: %w", path, err)
	}
	src.Parse = st

	rows, cols := t.Shape()
	log.Printf("loader: path=%s size=%s encoding=%s rows=%s cols=%d padded=%d skipped=%d elapsed=%s",
		path, humanize.Bytes(uint64(src.Bytes)), opt.Encoding, humanize.Comma(int64(rows)), cols,
		st.Padded, st.Skipped, time.Since(start).Truncate(time.Millisecond))
	return t, src, nil
}
