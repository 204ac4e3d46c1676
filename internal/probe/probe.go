// Package probe samples the head of a case file and profiles its columns:
// the normalized name each header will get, a guessed type, the share of
// missing cells and, for date columns, the layout that parses them. It can
// also turn a profile into a starter pipeline file.
package probe

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"visaprep/internal/datasource/file"
	"visaprep/internal/datasource/httpds"
	csvparser "visaprep/internal/parser/csv"
	"visaprep/internal/schema"
	"visaprep/internal/transformer/builtin"
	"visaprep/pkg/records"
)

// DefaultMaxBytes is the sample size used when Options.MaxBytes is unset.
const DefaultMaxBytes = 64 * 1024

// Options control sampling and the suggested pipeline.
type Options struct {
	// Source is a local path, a file:// URL or an http(s) URL.
	Source string
	// MaxBytes to sample from the start of the file.
	MaxBytes int
	// Delimiter (single rune). Zero means ','.
	Delimiter rune
	// Encoding of the file. Empty means latin1.
	Encoding string
	// DayFirst reads ambiguous numeric dates such as 01/05/2020 as 1 May.
	DayFirst bool
	// Name is the job name of the suggested pipeline. Empty means the
	// default job.
	Name string
	// Backend, when set, adds a storage sink of that kind to the suggested
	// pipeline: postgres, mssql, mysql or sqlite.
	Backend string
	// SaveSample writes the sampled bytes to this path when non-empty.
	SaveSample string
	// AllowInsecureTLS skips certificate verification for https sources.
	AllowInsecureTLS bool
}

// Column is the profile of one sampled column.
type Column struct {
	Header  string `json:"header"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Present int    `json:"present"`
	Missing int    `json:"missing"`
	// Layout is the Go time layout that parses most samples of a date column.
	Layout string `json:"layout,omitempty"`
	// Sparse marks columns the default drop_sparse stage would remove if the
	// sample were the whole file.
	Sparse bool `json:"sparse"`
}

// MissingRatio is the share of sampled rows missing this column.
func (c Column) MissingRatio() float64 {
	n := c.Present + c.Missing
	if n == 0 {
		return 0
	}
	return float64(c.Missing) / float64(n)
}

// Profile is the result of one probe.
type Profile struct {
	Source  string          `json:"source"`
	Bytes   int             `json:"bytes"`
	Rows    int             `json:"rows"`
	Parse   csvparser.Stats `json:"parse"`
	Columns []Column        `json:"columns"`
}

// Column returns the profile of the normalized column name.
func (p Profile) Column(name string) (Column, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// peekFn fetches the first n bytes of src. Local paths and file:// URLs are
// read through file.Local, http(s) URLs through httpds. Tests replace it to
// avoid real I/O.
var peekFn = func(ctx context.Context, src string, n int, insecure bool) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("peek: n must be > 0")
	}
	if isRemote(src) {
		client := httpds.NewClient(httpds.Config{InsecureSkipVerify: insecure})
		return client.FetchFirstBytes(ctx, src, n)
	}

	rc, err := file.NewLocal(strings.TrimPrefix(src, "file://")).Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(io.LimitReader(rc, int64(n))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Run samples opt.Source and profiles every column of the sample.
func Run(ctx context.Context, opt Options) (Profile, error) {
	if opt.Source == "" {
		return Profile{}, fmt.Errorf("probe: source is required")
	}
	n := opt.MaxBytes
	if n <= 0 {
		n = DefaultMaxBytes
	}

	data, err := peekFn(ctx, opt.Source, n, opt.AllowInsecureTLS)
	if err != nil {
		return Profile{}, err
	}
	// A full sample almost always ends inside a record; drop the partial line.
	if len(data) == n {
		if i := bytes.LastIndexByte(data, '\n'); i > 0 {
			data = data[:i+1]
		}
	}

	if opt.SaveSample != "" {
		if err := os.WriteFile(opt.SaveSample, data, 0o644); err != nil {
			return Profile{}, fmt.Errorf("probe: save sample: %w", err)
		}
		log.Printf("probe: sample saved path=%s bytes=%d", opt.SaveSample, len(data))
	}

	t, st, err := csvparser.NewParser(csvparser.Options{
		Comma:    opt.Delimiter,
		Encoding: opt.Encoding,
	}).Parse(bytes.NewReader(data))
	if err != nil {
		return Profile{}, fmt.Errorf("probe: %w", err)
	}

	prof := Profile{Source: opt.Source, Bytes: len(data), Rows: t.Len(), Parse: st}
	names := schema.NormalizeNames(t.Columns)
	dates := schema.NewDateParser(opt.DayFirst)
	missing := t.MissingCounts()
	for i, h := range t.Columns {
		vals := presentStrings(t, h)
		c := Column{
			Header:  h,
			Name:    names[i],
			Type:    schema.ProbeType(vals),
			Present: len(vals),
			Missing: missing[h],
		}
		if c.Type == "date" || c.Type == "timestamp" {
			c.Layout = dates.DetectLayout(vals)
		}
		c.Sparse = float64(c.Present) < builtin.DefaultSparseThreshold*float64(t.Len())
		prof.Columns = append(prof.Columns, c)
	}
	log.Printf("probe: source=%s bytes=%d rows=%d columns=%d", opt.Source, prof.Bytes, prof.Rows, len(prof.Columns))
	return prof, nil
}

func presentStrings(t records.Table, col string) []string {
	out := make([]string, 0, t.Len())
	for _, v := range t.Column(col) {
		if !records.IsMissing(v) {
			out = append(out, records.Format(v))
		}
	}
	return out
}

// Text renders the profile as CSV lines: header, normalized name, type,
// missing percentage and date layout.
func Text(p Profile) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"header", "normalized", "type", "missing_pct", "layout"}); err != nil {
		return nil, err
	}
	for _, c := range p.Columns {
		pct := strconv.FormatFloat(100*c.MissingRatio(), 'f', 1, 64)
		if err := w.Write([]string{c.Header, c.Name, c.Type, pct, c.Layout}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
