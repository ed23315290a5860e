package mrz

import (
	"strings"
	"time"

	"github.com/Aashish23092/travel-document-verification/dto"
)

// clock is the reference for resolving two-digit years
var clock = time.Now

const minLineLength = 9

// Locate scans OCR lines for MRZ-shaped runs, classifies every window that
// matches a known line-length signature and returns the preferred block:
// checksum-valid first, then the longest format, then the earliest in the
// text. When nothing qualifies the block has format unknown.
func Locate(lines []string) *dto.MrzBlock {
	var best *dto.MrzBlock
	for _, run := range findRuns(lines) {
		for _, l := range layouts {
			for start := 0; start+len(l.lengths) <= len(run); start++ {
				window := run[start : start+len(l.lengths)]
				if !fits(l, window) {
					continue
				}
				block := Decode(l.format, window)
				if best == nil || Better(block, best) {
					best = block
				}
			}
		}
	}
	if best == nil {
		return Unknown()
	}
	return best
}

// Unknown is the block returned when no MRZ was found
func Unknown() *dto.MrzBlock {
	return &dto.MrzBlock{
		Format: dto.MrzUnknown,
		Lines:  []string{},
		Fields: map[string]dto.ExtractedField{},
		Issues: []string{},
	}
}

// IsMRZLine reports whether a line, once whitespace is removed, is made only
// of MRZ characters and is long enough to belong to a known layout.
func IsMRZLine(line string) bool {
	cleaned := compact(line)
	if len(cleaned) < minLineLength {
		return false
	}
	for i := 0; i < len(cleaned); i++ {
		c := cleaned[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') && c != Filler {
			return false
		}
	}
	return true
}

func compact(line string) string {
	return strings.Join(strings.Fields(line), "")
}

// findRuns groups contiguous MRZ-shaped lines. Blank lines do not break a run.
func findRuns(lines []string) [][]string {
	var runs [][]string
	var current []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if IsMRZLine(line) {
			current = append(current, compact(line))
			continue
		}
		if len(current) > 0 {
			runs = append(runs, current)
			current = nil
		}
	}
	if len(current) > 0 {
		runs = append(runs, current)
	}
	return runs
}

func fits(l layout, window []string) bool {
	for i, n := range l.lengths {
		if len(window[i]) != n {
			return false
		}
	}
	return l.discriminator(window)
}

func layoutFor(format dto.MrzFormat) (layout, bool) {
	for _, l := range layouts {
		if l.format == format {
			return l, true
		}
	}
	return layout{}, false
}
