package httpds

import (
	"net/url"
	"path"
	"regexp"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

var filenameCleaner = regexp.MustCompile(`[^a-zA-Z0-9.]+`)

// HashString returns a stable hex xxhash64 digest of s.
func HashString(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 16)
}

// CacheName derives the cache file name of a download. The last path
// segment is kept (cleaned) so the file stays recognisable, prefixed with a
// hash of the whole URL so two URLs never share a file. A URL without a
// usable segment gets "<hash>.csv".
func CacheName(rawURL string) string {
	h := HashString(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil {
		return h + ".csv"
	}
	base := filenameCleaner.ReplaceAllString(path.Base(u.Path), "_")
	switch base {
	case "", ".", "_", "/":
		return h + ".csv"
	}
	return h + "_" + base
}
