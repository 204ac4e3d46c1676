// Package csv parses a delimited text file into a records.Table. It decodes
// legacy single-byte codepages on the fly, tolerates dirty quoting and ragged
// rows, and never coerces cell types: every present cell stays a string and
// NA tokens become nil.
package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"visaprep/pkg/records"
)

// Options configures the CSV parser behavior. Zero values select defaults.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// Encoding is the IANA name of the input codepage ("latin1",
	// "windows-1252", "utf-8", ...). Empty means ISO-8859-1.
	Encoding string

	// NAValues lists the cell spellings treated as missing. Nil selects
	// DefaultNAValues; an empty non-nil slice treats only "" as missing.
	NAValues []string

	// TrimSpace trims leading/trailing spaces from each cell before the NA
	// check. Off by default so cells are kept verbatim.
	TrimSpace bool

	// Scrub lists byte sequences rewritten before the bytes reach
	// encoding/csv, applied in order. Used for known broken quoting in
	// real-world exports.
	Scrub []Replacement
}

// Replacement is a single streaming find/replace rule.
type Replacement struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// DefaultNAValues is the pandas read_csv default NA token list.
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// Stats describes what the parser saw.
type Stats struct {
	Rows    int `json:"rows"`    // data rows kept
	Padded  int `json:"padded"`  // short rows padded with missing cells
	Skipped int `json:"skipped"` // rows dropped (too wide or unreadable)
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct {
	opt Options
	na  map[string]struct{}
}

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser {
	vals := opt.NAValues
	if vals == nil {
		vals = DefaultNAValues
	}
	na := make(map[string]struct{}, len(vals)+1)
	na[""] = struct{}{}
	for _, v := range vals {
		na[v] = struct{}{}
	}
	return &Parser{opt: opt, na: na}
}

// skipLogLimit caps per-row skip messages; the total still lands in Stats.
const skipLogLimit = 50

// Parse decodes r and returns the table built from its header row and data
// rows. A missing header is an error; anything wrong with an individual data
// row is soft-failed and counted.
func (p *Parser) Parse(r io.Reader) (records.Table, Stats, error) {
	var st Stats

	dec, err := Decoder(p.opt.Encoding)
	if err != nil {
		return records.Table{}, st, err
	}
	if dec != nil {
		r = dec(r)
	}
	for _, rep := range p.opt.Scrub {
		r = newStreamingRewriter(r, []byte(rep.From), []byte(rep.To))
	}

	cr := csv.NewReader(bufio.NewReaderSize(r, 256*1024))
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if err == io.EOF {
		return records.Table{}, st, fmt.Errorf("read csv header: empty input")
	}
	if err != nil {
		return records.Table{}, st, fmt.Errorf("read csv header: %w", err)
	}
	headers := uniqueHeaders(StripHeaderBOM(append([]string(nil), h...)))
	t := records.NewTable(headers)

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if st.Skipped < skipLogLimit {
				log.Printf("csv: skipping line %d: %v", line, err)
			}
			st.Skipped++
			continue
		}
		if len(row) > len(headers) {
			if st.Skipped < skipLogLimit {
				log.Printf("csv: skipping line %d: expected %d fields, got %d", line, len(headers), len(row))
			}
			st.Skipped++
			continue
		}
		if len(row) < len(headers) {
			st.Padded++
		}

		rec := make(records.Record, len(headers))
		for i, col := range headers {
			if i >= len(row) {
				rec[col] = nil
				continue
			}
			rec[col] = p.cell(row[i])
		}
		t.Rows = append(t.Rows, rec)
	}
	st.Rows = len(t.Rows)
	if st.Skipped > skipLogLimit {
		log.Printf("csv: %d rows skipped in total (first %d logged)", st.Skipped, skipLogLimit)
	}
	return t, st, nil
}

// cell converts a raw field into a record value.
func (p *Parser) cell(s string) any {
	if p.opt.TrimSpace {
		s = strings.TrimSpace(s)
	}
	if _, ok := p.na[s]; ok {
		return nil
	}
	return s
}

// uniqueHeaders keeps raw header names but guarantees uniqueness, so two
// columns never share a record key. Later duplicates get a ".N" suffix.
func uniqueHeaders(h []string) []string {
	seen := make(map[string]int, len(h))
	out := make([]string, len(h))
	for i, name := range h {
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		n := seen[name]
		seen[name] = n + 1
		if n > 0 {
			name = fmt.Sprintf("%s.%d", name, n)
		}
		out[i] = name
	}
	return out
}

// streamingRewriter is an io.Reader that performs a streaming, rolling
// find/replace: it replaces all occurrences of pat with repl without buffering
// the entire stream. To match sequences that span chunk boundaries it retains
// the last len(pat)-1 bytes (carry) from each processed block and prepends
// them to the next block before replacement.
type streamingRewriter struct {
	br    *bufio.Reader
	pat   []byte
	repl  []byte
	carry []byte
	buf   bytes.Buffer
	eof   bool
}

func newStreamingRewriter(r io.Reader, pat, repl []byte) *streamingRewriter {
	capacity := 0
	if n := len(pat) - 1; n > 0 {
		capacity = n
	}
	return &streamingRewriter{
		br:    bufio.NewReaderSize(r, 64*1024),
		pat:   pat,
		repl:  repl,
		carry: make([]byte, 0, capacity),
	}
}

// Read implements io.Reader.
func (sr *streamingRewriter) Read(p []byte) (int, error) {
	if sr.buf.Len() > 0 {
		return sr.buf.Read(p)
	}
	if sr.eof {
		return 0, io.EOF
	}

	tmp := make([]byte, 64*1024)
	n, rerr := sr.br.Read(tmp)
	if n > 0 {
		block := tmp[:n]
		if len(sr.carry) > 0 {
			joined := make([]byte, 0, len(sr.carry)+len(block))
			joined = append(joined, sr.carry...)
			joined = append(joined, block...)
			block = joined
		}
		if len(sr.pat) > 0 && !bytes.Equal(sr.pat, sr.repl) {
			block = bytes.ReplaceAll(block, sr.pat, sr.repl)
		}

		k := len(sr.pat) - 1
		if k < 0 {
			k = 0
		}
		if k > 0 && len(block) > k {
			sr.buf.Write(block[:len(block)-k])
			sr.carry = append(sr.carry[:0], block[len(block)-k:]...)
		} else if k > 0 {
			sr.carry = append(sr.carry[:0], block...)
		} else {
			sr.buf.Write(block)
		}
	}

	if rerr == io.EOF {
		if len(sr.carry) > 0 {
			sr.buf.Write(sr.carry)
			sr.carry = sr.carry[:0]
		}
		sr.eof = true
	} else if rerr != nil {
		return 0, rerr
	}

	if sr.buf.Len() > 0 {
		return sr.buf.Read(p)
	}
	if sr.eof {
		return 0, io.EOF
	}
	return 0, nil
}
