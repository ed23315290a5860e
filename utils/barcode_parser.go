package utils

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/Aashish23092/travel-document-verification/dto"
	"github.com/Aashish23092/travel-document-verification/utils/mrz"
)

// Barcode payload formats
const (
	BarcodeFormatMRZ   = "mrz"
	BarcodeFormatAAMVA = "aamva"
	BarcodeFormatJSON  = "json"
	BarcodeFormatRaw   = "raw"
)

// BarcodeConfidence applies to values read from a digitally encoded payload
// that carries no check digits of its own.
const BarcodeConfidence = 95

var aamvaElement = regexp.MustCompile(`^(?:DL|ID)?(D[A-Z]{2})(.*)$`)

var aamvaFields = map[string]string{
	"DAQ": dto.FieldDocumentNumber,
	"DCS": dto.FieldSurname,
	"DAB": dto.FieldSurname,
	"DAC": dto.FieldGivenNames,
	"DCT": dto.FieldGivenNames,
	"DAA": dto.FieldFullName,
	"DBB": dto.FieldDateOfBirth,
	"DBA": dto.FieldExpiryDate,
	"DBD": dto.FieldIssueDate,
	"DBC": dto.FieldSex,
	"DCG": dto.FieldIssuingState,
	"DAG": dto.FieldAddress,
}

// ParseBarcodeFields turns pre-decoded barcode text into barcode-sourced field
// candidates. It recognises an embedded MRZ, an AAMVA driving licence payload
// and a flat JSON object keyed by field id. Unrecognised text yields a raw
// result without fields; empty text yields nil.
func ParseBarcodeFields(text string) *dto.BarcodeResult {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	result := &dto.BarcodeResult{
		Format:        BarcodeFormatRaw,
		RawText:       text,
		Fields:        map[string]dto.ExtractedField{},
		ChecksumValid: true,
	}

	if block := mrz.Locate(splitLines(text)); block.Found() {
		result.Format = BarcodeFormatMRZ
		result.Fields = barcodeFields(block)
		result.ChecksumValid = block.ChecksumValid
	} else if fields, ok := parseJSONPayload(text); ok {
		result.Format = BarcodeFormatJSON
		result.Fields = fields
	} else if fields, ok := parseAAMVAPayload(text); ok {
		result.Format = BarcodeFormatAAMVA
		result.Fields = fields
	}
	return result
}

// barcodeFields re-labels decoded MRZ fields as barcode sourced
func barcodeFields(block *dto.MrzBlock) map[string]dto.ExtractedField {
	fields := make(map[string]dto.ExtractedField, len(block.Fields))
	for id, f := range block.Fields {
		f.Source = dto.SourceBarcode
		fields[id] = f
	}
	return fields
}

func parseJSONPayload(text string) (map[string]dto.ExtractedField, bool) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &payload); err != nil {
		return nil, false
	}
	fields := map[string]dto.ExtractedField{}
	for key, raw := range payload {
		value, ok := raw.(string)
		if !ok || !dto.IsKnownField(key) || strings.TrimSpace(value) == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if isDateField(key) {
			iso, ok := NormalizeDate(value)
			if !ok {
				fields[key] = dto.NewField(key, value, BarcodeConfidence, dto.SourceBarcode).
					WithIssue("unparseable date in barcode payload")
				continue
			}
			value = iso
		}
		fields[key] = dto.NewField(key, value, BarcodeConfidence, dto.SourceBarcode)
	}
	return fields, true
}

func parseAAMVAPayload(text string) (map[string]dto.ExtractedField, bool) {
	if !strings.Contains(text, "ANSI") && !strings.Contains(text, "AAMVA") {
		return nil, false
	}

	elements := map[string]string{}
	for _, line := range splitLines(text) {
		m := aamvaElement.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		if _, seen := elements[m[1]]; !seen {
			elements[m[1]] = strings.TrimSpace(m[2])
		}
	}

	canadian := elements["DCG"] == "CAN"
	fields := map[string]dto.ExtractedField{}
	for code, value := range elements {
		id, ok := aamvaFields[code]
		if !ok || value == "" || value == "NONE" || value == "unavl" {
			continue
		}
		if _, done := fields[id]; done && (code == "DAB" || code == "DCT") {
			continue
		}
		switch {
		case isDateField(id):
			iso, ok := aamvaDate(value, canadian)
			if !ok {
				fields[id] = dto.NewField(id, value, BarcodeConfidence, dto.SourceBarcode).
					WithIssue("unparseable date in barcode payload")
				continue
			}
			value = iso
		case id == dto.FieldSex:
			value = aamvaSex(value)
		case id == dto.FieldGivenNames:
			value = strings.Join(strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' }), " ")
		}
		fields[id] = dto.NewField(id, value, BarcodeConfidence, dto.SourceBarcode)
	}
	if len(fields) == 0 {
		return nil, false
	}
	return fields, true
}

// aamvaDate reads MMDDYYYY (US) or YYYYMMDD (Canada)
func aamvaDate(value string, canadian bool) (string, bool) {
	layouts := []string{"01022006", "20060102"}
	if canadian {
		layouts[0], layouts[1] = layouts[1], layouts[0]
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(ISODate), true
		}
	}
	return "", false
}

func aamvaSex(value string) string {
	switch value {
	case "1", "M":
		return "M"
	case "2", "F":
		return "F"
	}
	return "X"
}

func isDateField(id string) bool {
	return id == dto.FieldDateOfBirth || id == dto.FieldExpiryDate || id == dto.FieldIssueDate
}

func splitLines(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' || r == '\x1e' })
}
