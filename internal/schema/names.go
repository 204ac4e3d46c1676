package schema

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName converts arbitrary header text into a lowercase ASCII
// identifier:
//  1. trim and lowercase
//  2. strip accents (NFD → remove Mn → NFC)
//  3. whitespace becomes '_'; keep [a-z0-9_]; drop everything else
//
// The result may be empty. Applying NormalizeName twice gives the same
// result as applying it once.
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte('_')
		}
	}
	return b.String()
}

// NormalizeNames normalizes every header and resolves the collisions the
// folding can create. An empty result becomes "col_<index>"; a repeated
// result gets "_<n>" appended, n counting from 1.
func NormalizeNames(headers []string) []string {
	out := make([]string, len(headers))
	used := make(map[string]bool, len(headers))
	for i, h := range headers {
		name := NormalizeName(h)
		if name == "" {
			name = "col_" + strconv.Itoa(i)
		}
		base := name
		for n := 1; used[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// TruncateName keeps identifiers within PostgreSQL's 63-byte limit,
// returning the first 10 and last 53 bytes of longer names.
func TruncateName(s string) string {
	if len(s) > 63 {
		return s[:10] + s[len(s)-53:]
	}
	return s
}
