package utils

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// ISODate is the layout every extractor emits dates in
const ISODate = "2006-01-02"

var dateLayouts = []string{
	"02/01/2006", "2/1/2006", "02-01-2006", "2-1-2006", "02.01.2006", "2.1.2006",
	ISODate,
	"02 Jan 2006", "2 Jan 2006", "02 January 2006", "2 January 2006",
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}[/.\-]\d{1,2}[/.\-]\d{4}\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}\s+[a-z]{3,9}\.?\s+\d{4}\b`),
}

// ParseDate parses the date formats printed on travel documents:
// DD/MM/YYYY (also with - or .), ISO YYYY-MM-DD and DD MMM YYYY.
func ParseDate(dateStr string) (time.Time, error) {
	s := strings.Join(strings.Fields(strings.TrimSuffix(strings.TrimSpace(dateStr), ".")), " ")
	s = strings.Replace(s, ". ", " ", 1)
	for _, format := range dateLayouts {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unknown date format %q", dateStr)
}

// NormalizeDate returns the ISO form of any date ParseDate understands
func NormalizeDate(dateStr string) (string, bool) {
	t, err := ParseDate(dateStr)
	if err != nil {
		return "", false
	}
	return t.Format(ISODate), true
}

// DateMatch is a date found inside free text
type DateMatch struct {
	ISO   string
	Raw   string
	Index int
}

// FindDates returns every parseable date in s ordered by position
func FindDates(s string) []DateMatch {
	var out []DateMatch
	taken := make([]bool, len(s))
	for _, re := range datePatterns {
		for _, loc := range re.FindAllStringIndex(s, -1) {
			if overlaps(taken, loc[0], loc[1]) {
				continue
			}
			raw := s[loc[0]:loc[1]]
			iso, ok := NormalizeDate(raw)
			if !ok {
				continue
			}
			for i := loc[0]; i < loc[1]; i++ {
				taken[i] = true
			}
			out = append(out, DateMatch{ISO: iso, Raw: raw, Index: loc[0]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// FindDate returns the first date in s
func FindDate(s string) (DateMatch, bool) {
	dates := FindDates(s)
	if len(dates) == 0 {
		return DateMatch{}, false
	}
	return dates[0], true
}

func overlaps(taken []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if taken[i] {
			return true
		}
	}
	return false
}
