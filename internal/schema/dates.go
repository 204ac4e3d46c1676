package schema

import (
	"strings"
	"time"
)

// Date layouts use the unpadded day/month verbs so "1/5/2020" and
// "01/05/2020" both match.
var (
	dmyLayouts = []string{
		"2/1/2006",
		"2.1.2006",
		"2-1-2006",
		"2 Jan 2006",
		"2-Jan-2006",
		"2 January 2006",
		"2/1/06",
	}
	isoLayouts = []string{
		"2006-1-2",
		"2006/1/2",
		"20060102",
	}
	mdyLayouts = []string{
		"1/2/2006",
		"1.2.2006",
		"1-2-2006",
		"Jan 2, 2006",
		"January 2, 2006",
		"1/2/06",
	}

	timestampISO = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-1-2 15:04:05",
		"2006-1-2 15:04",
		"2006/1/2 15:04:05",
		"2006-01-02 15:04:05 -0700",
	}
	timestampDMY = []string{
		"2/1/2006 15:04:05",
		"2/1/2006 15:04",
		"2.1.2006 15:04:05",
	}
	timestampMDY = []string{
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
		"1/2/2006 3:04:05 PM",
		"1/2/2006 3:04 PM",
	}
)

// DateParser parses date strings that may mix several formats within one
// column. Ambiguous numeric dates such as 01/05/2020 are read day-first
// unless the parser was built with dayFirst=false.
type DateParser struct {
	layouts []string // all layouts, most preferred first
	pref    map[string]int
}

// NewDateParser returns a parser over the built-in layouts. Extra layouts
// are tried before the built-in ones.
func NewDateParser(dayFirst bool, extra ...string) *DateParser {
	first, second := dmyLayouts, mdyLayouts
	tsFirst, tsSecond := timestampDMY, timestampMDY
	if !dayFirst {
		first, second = mdyLayouts, dmyLayouts
		tsFirst, tsSecond = timestampMDY, timestampDMY
	}

	p := &DateParser{pref: map[string]int{}}
	add := func(weight int, ls []string) {
		for _, l := range ls {
			if _, dup := p.pref[l]; dup {
				continue
			}
			p.pref[l] = weight
			p.layouts = append(p.layouts, l)
		}
	}
	add(5, extra)
	add(4, tsFirst)
	add(4, timestampISO)
	add(3, first)
	add(2, isoLayouts)
	add(1, second)
	add(1, tsSecond)
	return p
}

// DetectLayout scores each layout by how many samples it parses and returns
// the best one. Ties go to the preferred convention, then to declaration
// order. It returns "" when no layout parses any sample.
func (p *DateParser) DetectLayout(samples []string) string {
	if len(samples) == 0 {
		return ""
	}
	scores := make([]int, len(p.layouts))
	for _, s := range samples {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		for i, lay := range p.layouts {
			if _, err := time.Parse(lay, s); err == nil {
				scores[i]++
			}
		}
	}

	best, bestScore, bestPref := -1, 0, -1
	for i, lay := range p.layouts {
		sc := scores[i]
		if sc == 0 || sc < bestScore {
			continue
		}
		if sc > bestScore || p.pref[lay] > bestPref {
			best, bestScore, bestPref = i, sc, p.pref[lay]
		}
	}
	if best < 0 {
		return ""
	}
	return p.layouts[best]
}

// Parse reads s, trying layout first when it is non-empty and then every
// known layout. The returned time is in UTC.
func (p *DateParser) Parse(s, layout string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if layout != "" {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	for _, lay := range p.layouts {
		if lay == layout {
			continue
		}
		if t, err := time.Parse(lay, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseDateOrTimestamp reports whether s parses as a date or a timestamp
// with the default day-first parser, and whether it carried a time part.
func parseDateOrTimestamp(s string) (ok bool, hasTime bool) {
	lay := defaultParser.DetectLayout([]string{s})
	if lay == "" {
		return false, false
	}
	return true, isTimestampLayout(lay)
}

var defaultParser = NewDateParser(true)

var timestampSet = func() map[string]bool {
	m := map[string]bool{}
	for _, group := range [][]string{timestampISO, timestampDMY, timestampMDY} {
		for _, l := range group {
			m[l] = true
		}
	}
	return m
}()

func isTimestampLayout(l string) bool { return timestampSet[l] }
