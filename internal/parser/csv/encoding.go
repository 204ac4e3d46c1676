package csv

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// DefaultEncoding is used when Options.Encoding is empty.
const DefaultEncoding = "latin1"

// aliases covers spellings common in data tooling that the IANA registry
// does not list.
var aliases = map[string]encoding.Encoding{
	"latin1":  charmap.ISO8859_1,
	"latin-1": charmap.ISO8859_1,
	"l1":      charmap.ISO8859_1,
	"cp1252":  charmap.Windows1252,
	"cp1250":  charmap.Windows1250,
	"cp437":   charmap.CodePage437,
	"cp850":   charmap.CodePage850,
}

// LookupEncoding resolves an encoding name. It returns (nil, nil) for UTF-8,
// which needs no decoding.
func LookupEncoding(name string) (encoding.Encoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		n = DefaultEncoding
	}
	switch n {
	case "utf-8", "utf8":
		return nil, nil
	}
	if enc, ok := aliases[n]; ok {
		return enc, nil
	}
	enc, err := ianaindex.IANA.Encoding(n)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}

// Decoder returns a wrapper that transcodes a reader from the named encoding
// into UTF-8. A nil wrapper means the input is already UTF-8.
func Decoder(name string) (func(io.Reader) io.Reader, error) {
	enc, err := LookupEncoding(name)
	if err != nil || enc == nil {
		return nil, err
	}
	return func(r io.Reader) io.Reader {
		return transform.NewReader(r, enc.NewDecoder())
	}, nil
}
