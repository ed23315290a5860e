package utils

import (
	"math"
	"regexp"
	"strings"

	"github.com/Aashish23092/travel-document-verification/dto"
	"github.com/Aashish23092/travel-document-verification/utils/mrz"
)

// Label match strengths used as the upper bound of free-text confidence.
const (
	ExactLabelConfidence   = 90
	PartialLabelConfidence = 70
	PositionalConfidence   = 40
)

type valueParser func(text string) (value, raw string, ok bool)

type fieldRule struct {
	id       string
	synonyms []string
	parse    valueParser
}

// Label synonyms are compared against folded text, so they are lower case
// and free of accents and punctuation.
var fieldRules = []fieldRule{
	{dto.FieldSurname, []string{"surname", "last name", "family name", "nom", "apellidos"}, parseName},
	{dto.FieldGivenNames, []string{"given names", "given name", "first name", "first names", "forenames", "prenoms", "nombres"}, parseName},
	{dto.FieldFullName, []string{"name", "full name", "name of holder", "holder"}, parseName},
	{dto.FieldDateOfBirth, []string{"date of birth", "birth date", "dob", "d o b", "date de naissance", "born"}, parseDateValue},
	{dto.FieldExpiryDate, []string{"date of expiry", "expiry date", "expiry", "expires", "valid until", "date of expiration", "expiration date", "date d expiration"}, parseDateValue},
	{dto.FieldIssueDate, []string{"date of issue", "issue date", "issued", "date of issuance", "date de delivrance"}, parseDateValue},
	{dto.FieldDocumentNumber, []string{"passport no", "passport number", "document no", "document number", "passport", "card no", "licence no", "license no", "no du passeport"}, parseDocumentNumber},
	{dto.FieldNationality, []string{"nationality", "nationalite", "citizenship"}, parseNationality},
	{dto.FieldSex, []string{"sex", "gender", "sexe"}, parseSex},
	{dto.FieldPlaceOfBirth, []string{"place of birth", "birth place", "lieu de naissance"}, parseName},
	{dto.FieldAddress, []string{"address", "residence", "domicile", "adresse"}, parseText},
	{dto.FieldIssuingState, []string{"issuing state", "issuing country", "country code", "code of issuing state"}, parseNationality},
}

var (
	documentNumberPattern = regexp.MustCompile(`^[A-Z0-9]{5,12}$`)
	positionalDocPattern  = regexp.MustCompile(`^[A-Z]{1,2}[0-9]{6,8}$`)
	hasDigit              = regexp.MustCompile(`[0-9]`)
	nameValuePattern      = regexp.MustCompile(`^[\p{L}][\p{L}'\- ]*$`)
)

// labelMatch is the best synonym found on one line
type labelMatch struct {
	rule  fieldRule
	exact bool
	words int
	value string
}

// ExtractFreeTextFields locates identity fields in OCR lines by their printed
// labels. Each found field has source ocr and a confidence bounded by both the
// label match strength and the OCR engine's token confidence. Fields that are
// not found are absent from the result.
func ExtractFreeTextFields(lines []string, tokenConfidences map[string]float64) map[string]dto.ExtractedField {
	tokens := normalizeTokenConfidences(tokenConfidences)
	fields := map[string]dto.ExtractedField{}

	text := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" || isMRZText(line) {
			continue
		}
		text = append(text, strings.TrimSpace(line))
	}

	matches := make([]*labelMatch, len(text))
	consumed := make([]bool, len(text))
	for i, line := range text {
		matches[i] = matchLabel(line)
		consumed[i] = matches[i] != nil
	}

	for i, m := range matches {
		if m == nil {
			continue
		}
		if _, done := fields[m.rule.id]; done {
			continue
		}

		strength := PartialLabelConfidence
		if m.exact {
			strength = ExactLabelConfidence
		}
		value, raw, ok := m.rule.parse(m.value)
		if !ok && i+1 < len(text) && !consumed[i+1] {
			value, raw, ok = m.rule.parse(text[i+1])
			strength = PartialLabelConfidence
			consumed[i+1] = ok
		}
		if !ok {
			continue
		}
		fields[m.rule.id] = dto.NewField(m.rule.id, value, combine(strength, raw, tokens), dto.SourceOCR)
	}

	positionalFields(text, consumed, tokens, fields)
	return fields
}

// matchLabel finds the longest label synonym at the head of a line. A line
// whose label part is exactly a synonym is an exact match; a label part
// that merely contains one (bilingual labels, numbering) is partial.
func matchLabel(line string) *labelMatch {
	labelPart, value, hasSep := splitLabel(line)
	folded := strings.Fields(FoldName(labelPart))
	if len(folded) == 0 {
		return nil
	}

	var best *labelMatch
	for _, rule := range fieldRules {
		for _, syn := range rule.synonyms {
			sw := strings.Fields(syn)
			pos := indexWords(folded, sw)
			if pos < 0 {
				continue
			}
			if !hasSep && pos != 0 {
				continue
			}
			if best != nil && len(sw) <= best.words {
				continue
			}
			m := &labelMatch{rule: rule, words: len(sw)}
			if hasSep {
				m.exact = len(folded) == len(sw)
				m.value = value
			} else {
				m.exact = true
				m.value = dropWords(line, len(sw))
				if isSynonym(rule, m.value) {
					// bilingual label such as "Surname / Nom", value follows below
					m.exact = false
					m.value = ""
				}
			}
			best = m
		}
	}
	return best
}

// splitLabel separates "Label: value". Without a separator the whole line
// is returned as the label part.
func splitLabel(line string) (label, value string, ok bool) {
	for _, sep := range []string{":", "："} {
		if l, v, found := strings.Cut(line, sep); found {
			return l, strings.TrimSpace(v), true
		}
	}
	return line, "", false
}

func isSynonym(rule fieldRule, text string) bool {
	folded := FoldName(text)
	for _, syn := range rule.synonyms {
		if folded == syn {
			return true
		}
	}
	return false
}

func indexWords(haystack, needle []string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// dropWords removes the first n label words from the original line,
// skipping punctuation-only tokens such as "/" or "-".
func dropWords(line string, n int) string {
	words := strings.Fields(line)
	dropped := 0
	for len(words) > 0 && dropped < n {
		if FoldName(words[0]) != "" {
			dropped += len(strings.Fields(FoldName(words[0])))
		}
		words = words[1:]
	}
	for len(words) > 0 && FoldName(words[0]) == "" {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

// positionalFields fills dates and the document number from unlabelled text
// when no label produced them.
func positionalFields(text []string, consumed []bool, tokens map[string]int, fields map[string]dto.ExtractedField) {
	_, hasDOB := fields[dto.FieldDateOfBirth]
	_, hasExpiry := fields[dto.FieldExpiryDate]
	_, hasNumber := fields[dto.FieldDocumentNumber]
	if hasDOB && hasExpiry && hasNumber {
		return
	}

	var dates []DateMatch
	var number, numberRaw string
	for i, line := range text {
		if consumed[i] {
			continue
		}
		dates = append(dates, FindDates(line)...)
		if number == "" {
			for _, tok := range strings.Fields(line) {
				if positionalDocPattern.MatchString(tok) {
					number, numberRaw = tok, tok
					break
				}
			}
		}
	}

	if !hasNumber && number != "" {
		fields[dto.FieldDocumentNumber] = dto.NewField(dto.FieldDocumentNumber, number,
			combine(PositionalConfidence, numberRaw, tokens), dto.SourceOCR)
	}

	if len(dates) < 2 {
		return
	}
	earliest, latest := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.ISO < earliest.ISO {
			earliest = d
		}
		if d.ISO > latest.ISO {
			latest = d
		}
	}
	if earliest.ISO == latest.ISO {
		return
	}
	if !hasDOB {
		fields[dto.FieldDateOfBirth] = dto.NewField(dto.FieldDateOfBirth, earliest.ISO,
			combine(PositionalConfidence, earliest.Raw, tokens), dto.SourceOCR)
	}
	if !hasExpiry {
		fields[dto.FieldExpiryDate] = dto.NewField(dto.FieldExpiryDate, latest.ISO,
			combine(PositionalConfidence, latest.Raw, tokens), dto.SourceOCR)
	}
}

// combine bounds the label strength by the weakest OCR token of raw.
// Tokens the engine did not report leave the label strength unchanged.
func combine(strength int, raw string, tokens map[string]int) int {
	conf := strength
	for _, tok := range strings.Fields(raw) {
		if c, ok := tokens[tok]; ok && c < conf {
			conf = c
		}
	}
	return dto.ClampConfidence(conf)
}

// normalizeTokenConfidences maps engine confidences to 0-100. Engines that
// report fractions (every value <= 1) are scaled up.
func normalizeTokenConfidences(in map[string]float64) map[string]int {
	out := make(map[string]int, len(in))
	if len(in) == 0 {
		return out
	}
	fractional := true
	for _, c := range in {
		if c > 1 {
			fractional = false
			break
		}
	}
	for tok, c := range in {
		if fractional {
			c *= 100
		}
		out[tok] = dto.ClampConfidence(int(math.Round(c)))
	}
	return out
}

func isMRZText(line string) bool {
	return strings.ContainsRune(line, mrz.Filler) && mrz.IsMRZLine(line)
}

func parseName(text string) (string, string, bool) {
	v := firstAlternative(text)
	if v == "" || !nameValuePattern.MatchString(v) {
		return "", "", false
	}
	return strings.Join(strings.Fields(v), " "), v, true
}

func parseText(text string) (string, string, bool) {
	v := strings.Join(strings.Fields(text), " ")
	if v == "" || FoldName(v) == "" {
		return "", "", false
	}
	return v, v, true
}

func parseDateValue(text string) (string, string, bool) {
	d, ok := FindDate(text)
	if !ok {
		return "", "", false
	}
	return d.ISO, d.Raw, true
}

func parseDocumentNumber(text string) (string, string, bool) {
	for _, tok := range strings.Fields(strings.ToUpper(text)) {
		tok = strings.Trim(tok, ".,;")
		if documentNumberPattern.MatchString(tok) && hasDigit.MatchString(tok) {
			return tok, tok, true
		}
	}
	return "", "", false
}

func parseNationality(text string) (string, string, bool) {
	v := firstAlternative(text)
	if v == "" || !nameValuePattern.MatchString(v) {
		return "", "", false
	}
	return strings.ToUpper(strings.Join(strings.Fields(v), " ")), v, true
}

func parseSex(text string) (string, string, bool) {
	fields := strings.Fields(strings.ToUpper(text))
	if len(fields) == 0 {
		return "", "", false
	}
	raw := fields[0]
	head := strings.SplitN(raw, "/", 2)[0]
	switch head {
	case "M", "MALE", "H":
		return "M", raw, true
	case "F", "FEMALE":
		return "F", raw, true
	case "X":
		return "X", raw, true
	}
	return "", "", false
}

// firstAlternative keeps the first language of a bilingual value such as
// "UTOPIAN / UTOPIENNE".
func firstAlternative(text string) string {
	return strings.TrimSpace(strings.SplitN(text, "/", 2)[0])
}
