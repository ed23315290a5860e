package mrz

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Aashish23092/travel-document-verification/dto"
)

// Confidence levels for MRZ fields. Fields of layouts with check digits are
// either fully trusted or capped; layouts without check digits get a fixed
// heuristic level.
const (
	ValidConfidence     = 100
	InvalidConfidence   = 40
	UncheckedConfidence = 80
)

var digitConfusions = strings.NewReplacer("O", "0", "I", "1", "S", "5")

// Decode slices lines into the zones of format and verifies every check
// digit the format defines. Decoded values are kept even when a check fails.
func Decode(format dto.MrzFormat, lines []string) *dto.MrzBlock {
	l, ok := layoutFor(format)
	if !ok || !fits(l, lines) {
		return Unknown()
	}

	normalized := normalizeDigits(l, lines)
	block := &dto.MrzBlock{
		Format:         l.format,
		Lines:          normalized,
		Fields:         map[string]dto.ExtractedField{},
		HasCheckDigits: l.hasChecks(),
		Issues:         []string{},
	}

	failed := map[string][]string{}
	valid := true
	for _, seg := range l.checks {
		data := seg.extract(normalized)
		check := normalized[seg.line][seg.pos]
		if Verify(data, check) {
			continue
		}
		valid = false
		issue := mismatchIssue(seg.name, data, check)
		block.Issues = append(block.Issues, issue)
		for _, f := range seg.covers {
			failed[f] = append(failed[f], issue)
		}
	}
	block.ChecksumValid = valid

	now := clock()
	values := map[string]string{}
	dateIssues := map[string]string{}
	for _, z := range l.zones {
		raw := normalized[z.line][z.start:z.end]
		switch z.kind {
		case zoneName:
			surname, given := splitName(raw)
			values[dto.FieldSurname] = surname
			values[dto.FieldGivenNames] = given
		case zoneDate:
			if strings.Trim(raw, "<") == "" {
				continue
			}
			iso, ok := decodeDate(raw, z.date, now)
			if !ok {
				dateIssues[z.field] = fmt.Sprintf("unparseable MRZ date %q", raw)
				iso = raw
			}
			values[z.field] = iso
		case zoneSex:
			if raw == "<" {
				values[z.field] = "X"
			} else {
				values[z.field] = raw
			}
		default:
			values[z.field] = fillerToSpace(raw)
		}
	}

	for id, value := range values {
		if value == "" {
			continue
		}
		field := dto.NewField(id, value, confidenceFor(l, id, failed, valid), dto.SourceMRZ)
		for _, issue := range failed[id] {
			field = field.WithIssue(issue)
		}
		if issue, ok := dateIssues[id]; ok {
			field = field.WithIssue(issue)
		}
		block.Fields[id] = field
	}
	return block
}

func confidenceFor(l layout, id string, failed map[string][]string, blockValid bool) int {
	if !l.hasChecks() {
		return UncheckedConfidence
	}
	if len(failed[id]) > 0 {
		return InvalidConfidence
	}
	if l.covers(id) || blockValid {
		return ValidConfidence
	}
	return InvalidConfidence
}

func (l layout) covers(id string) bool {
	for _, seg := range l.checks {
		for _, f := range seg.covers {
			if f == id {
				return true
			}
		}
	}
	return false
}

func (seg checkSegment) extract(lines []string) string {
	var sb strings.Builder
	for _, s := range seg.data {
		sb.WriteString(lines[s.line][s.start:s.end])
	}
	return sb.String()
}

func mismatchIssue(segment, data string, check byte) string {
	want, err := CheckDigit(data)
	if err != nil {
		return fmt.Sprintf("check digit mismatch on %s segment: %v", segment, err)
	}
	return fmt.Sprintf("check digit mismatch on %s segment: expected %d, found %q", segment, want, check)
}

// normalizeDigits fixes O/0, I/1 and S/5 confusions in digit-only positions
// (dates and check digits). Name and number zones are left untouched.
func normalizeDigits(l layout, lines []string) []string {
	buf := make([][]byte, len(lines))
	for i, line := range lines {
		buf[i] = []byte(line)
	}
	fix := func(line, start, end int) {
		fixed := digitConfusions.Replace(string(buf[line][start:end]))
		copy(buf[line][start:end], fixed)
	}
	for _, z := range l.zones {
		if z.kind == zoneDate {
			fix(z.line, z.start, z.end)
		}
	}
	for _, seg := range l.checks {
		fix(seg.line, seg.pos, seg.pos+1)
	}
	out := make([]string, len(buf))
	for i, b := range buf {
		out[i] = string(b)
	}
	return out
}

// decodeDate turns YYMMDD into an ISO date. Birth and issue dates never lie
// in the future; expiry dates are assumed to be in the current century unless
// that would put them more than 50 years ahead.
func decodeDate(raw string, kind dateKind, now time.Time) (string, bool) {
	if len(raw) != 6 {
		return "", false
	}
	yy, err1 := strconv.Atoi(raw[0:2])
	mm, err2 := strconv.Atoi(raw[2:4])
	dd, err3 := strconv.Atoi(raw[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}

	pivot := now.Year() % 100
	century := 2000
	switch kind {
	case dateExpiry:
		if yy > pivot+50 {
			century = 1900
		}
	default:
		if yy > pivot {
			century = 1900
		}
	}

	t := time.Date(century+yy, time.Month(mm), dd, 0, 0, 0, 0, time.UTC)
	if int(t.Month()) != mm || t.Day() != dd {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

func splitName(raw string) (string, string) {
	parts := strings.SplitN(strings.TrimRight(raw, "<"), "<<", 2)
	surname := fillerToSpace(parts[0])
	given := ""
	if len(parts) == 2 {
		given = fillerToSpace(parts[1])
	}
	return surname, given
}

func fillerToSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == Filler }), " ")
}
