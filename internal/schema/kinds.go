package schema

import (
	"math"
	"strconv"
	"strings"
	"time"

	"visaprep/pkg/records"
)

// ParseNumber reports whether v holds a finite number and returns it.
// Strings are trimmed and parsed as base-10 decimal or scientific notation;
// "inf" and "nan" spellings are not numbers.
func ParseNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// InferKind classifies a column from its values. Missing values are ignored.
// A column is numeric only if every present value is a number; a column with
// no present value is text.
func InferKind(values []any) records.Kind {
	var present, nums, ints, dates int
	for _, v := range values {
		if records.IsMissing(v) {
			continue
		}
		present++
		switch v.(type) {
		case int64:
			ints++
			nums++
			continue
		case time.Time:
			dates++
			continue
		}
		if _, ok := ParseNumber(v); ok {
			nums++
		}
	}
	switch {
	case present == 0:
		return records.KindText
	case ints == present:
		return records.KindInteger
	case nums == present:
		return records.KindNumber
	case dates == present:
		return records.KindDate
	default:
		return records.KindText
	}
}

// ProbeType guesses a SQL-friendly type for raw sample strings among:
// boolean, integer, real, date, timestamp, text.
// Every non-empty value must satisfy the narrower type.
func ProbeType(values []string) string {
	nonEmpty := nonEmptyTrimmed(values)
	if len(nonEmpty) == 0 {
		return "text"
	}
	if allMatch(nonEmpty, isInt) {
		return "integer"
	}
	if allMatch(nonEmpty, isBool) {
		return "boolean"
	}
	if allMatch(nonEmpty, isNumber) {
		return "real"
	}
	anyTime := false
	for _, v := range nonEmpty {
		ok, hasTime := parseDateOrTimestamp(v)
		if !ok {
			return "text"
		}
		anyTime = anyTime || hasTime
	}
	if anyTime {
		return "timestamp"
	}
	return "date"
}

func nonEmptyTrimmed(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

// isBool accepts common textual booleans, including the Y/N flags of the
// case files.
func isBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false", "t", "f", "yes", "no", "y", "n":
		return true
	default:
		return false
	}
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil
}

func isNumber(s string) bool {
	_, ok := ParseNumber(s)
	return ok
}
