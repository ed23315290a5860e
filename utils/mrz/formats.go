package mrz

import (
	"strings"

	"github.com/Aashish23092/travel-document-verification/dto"
)

type zoneKind int

const (
	// zoneAlpha holds state codes and names; OCR confusions are never corrected here
	zoneAlpha zoneKind = iota
	// zoneAlnum holds document numbers and optional data
	zoneAlnum
	// zoneDate holds YYMMDD dates; digit-only
	zoneDate
	// zoneName holds SURNAME<<GIVEN<NAMES and yields two fields
	zoneName
	// zoneSex holds a single M, F or < character
	zoneSex
)

type dateKind int

const (
	dateBirth dateKind = iota
	dateExpiry
	dateIssue
)

type span struct {
	line, start, end int
}

type zone struct {
	field string
	span
	kind zoneKind
	date dateKind
}

type checkSegment struct {
	name   string
	data   []span
	line   int
	pos    int
	covers []string
}

type layout struct {
	format  dto.MrzFormat
	lengths []int
	// discriminator returns true when the window belongs to this format
	discriminator func(lines []string) bool
	rank          int
	zones         []zone
	checks        []checkSegment
}

func (l layout) hasChecks() bool {
	return len(l.checks) > 0
}

func startsWith(prefix string) func([]string) bool {
	return func(lines []string) bool {
		return strings.HasPrefix(lines[0], prefix)
	}
}

func notStartsWith(prefixes ...string) func([]string) bool {
	return func(lines []string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(lines[0], p) {
				return false
			}
		}
		return true
	}
}

var (
	td3CheckedFields = []string{dto.FieldDocumentNumber, dto.FieldDateOfBirth, dto.FieldExpiryDate, dto.FieldPersonalNumber}
	td2CheckedFields = []string{dto.FieldDocumentNumber, dto.FieldDateOfBirth, dto.FieldExpiryDate, dto.FieldOptionalData}
)

// twoLineBody is the second line shared by TD3/MRVA (44) and TD2/MRVB (36)
func twoLineBody() []zone {
	return []zone{
		{field: dto.FieldDocumentNumber, span: span{1, 0, 9}, kind: zoneAlnum},
		{field: dto.FieldNationality, span: span{1, 10, 13}, kind: zoneAlpha},
		{field: dto.FieldDateOfBirth, span: span{1, 13, 19}, kind: zoneDate, date: dateBirth},
		{field: dto.FieldSex, span: span{1, 20, 21}, kind: zoneSex},
		{field: dto.FieldExpiryDate, span: span{1, 21, 27}, kind: zoneDate, date: dateExpiry},
	}
}

func twoLineHeader(width int) []zone {
	return []zone{
		{field: dto.FieldDocumentType, span: span{0, 0, 2}, kind: zoneAlpha},
		{field: dto.FieldIssuingState, span: span{0, 2, 5}, kind: zoneAlpha},
		{field: "name", span: span{0, 5, width}, kind: zoneName},
	}
}

func twoLineChecks() []checkSegment {
	return []checkSegment{
		{name: dto.FieldDocumentNumber, data: []span{{1, 0, 9}}, line: 1, pos: 9, covers: []string{dto.FieldDocumentNumber}},
		{name: dto.FieldDateOfBirth, data: []span{{1, 13, 19}}, line: 1, pos: 19, covers: []string{dto.FieldDateOfBirth}},
		{name: dto.FieldExpiryDate, data: []span{{1, 21, 27}}, line: 1, pos: 27, covers: []string{dto.FieldExpiryDate}},
	}
}

func concatZones(parts ...[]zone) []zone {
	var out []zone
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func concatChecks(parts ...[]checkSegment) []checkSegment {
	var out []checkSegment
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// layouts is the format table. Each format is data: line lengths, a
// discriminator, zone offsets and check digit segments.
var layouts = []layout{
	{
		format:        dto.MrzTD3,
		lengths:       []int{44, 44},
		discriminator: notStartsWith("V"),
		rank:          6,
		zones: concatZones(twoLineHeader(44), twoLineBody(), []zone{
			{field: dto.FieldPersonalNumber, span: span{1, 28, 42}, kind: zoneAlnum},
		}),
		checks: concatChecks(twoLineChecks(), []checkSegment{
			{name: dto.FieldPersonalNumber, data: []span{{1, 28, 42}}, line: 1, pos: 42, covers: []string{dto.FieldPersonalNumber}},
			{name: "composite", data: []span{{1, 0, 10}, {1, 13, 20}, {1, 21, 43}}, line: 1, pos: 43, covers: td3CheckedFields},
		}),
	},
	{
		format:        dto.MrzTD2,
		lengths:       []int{36, 36},
		discriminator: notStartsWith("V", "IDFRA"),
		rank:          5,
		zones: concatZones(twoLineHeader(36), twoLineBody(), []zone{
			{field: dto.FieldOptionalData, span: span{1, 28, 35}, kind: zoneAlnum},
		}),
		checks: concatChecks(twoLineChecks(), []checkSegment{
			{name: "composite", data: []span{{1, 0, 10}, {1, 13, 20}, {1, 21, 35}}, line: 1, pos: 35, covers: td2CheckedFields},
		}),
	},
	{
		format:        dto.MrzMRVB,
		lengths:       []int{36, 36},
		discriminator: startsWith("V"),
		rank:          5,
		zones: concatZones(twoLineHeader(36), twoLineBody(), []zone{
			{field: dto.FieldOptionalData, span: span{1, 28, 36}, kind: zoneAlnum},
		}),
		checks: twoLineChecks(),
	},
	{
		format:        dto.MrzTD1,
		lengths:       []int{30, 30, 30},
		discriminator: func([]string) bool { return true },
		rank:          4,
		zones: []zone{
			{field: dto.FieldDocumentType, span: span{0, 0, 2}, kind: zoneAlpha},
			{field: dto.FieldIssuingState, span: span{0, 2, 5}, kind: zoneAlpha},
			{field: dto.FieldDocumentNumber, span: span{0, 5, 14}, kind: zoneAlnum},
			{field: dto.FieldOptionalData, span: span{0, 15, 30}, kind: zoneAlnum},
			{field: dto.FieldDateOfBirth, span: span{1, 0, 6}, kind: zoneDate, date: dateBirth},
			{field: dto.FieldSex, span: span{1, 7, 8}, kind: zoneSex},
			{field: dto.FieldExpiryDate, span: span{1, 8, 14}, kind: zoneDate, date: dateExpiry},
			{field: dto.FieldNationality, span: span{1, 15, 18}, kind: zoneAlpha},
			{field: "name", span: span{2, 0, 30}, kind: zoneName},
		},
		checks: []checkSegment{
			{name: dto.FieldDocumentNumber, data: []span{{0, 5, 14}}, line: 0, pos: 14, covers: []string{dto.FieldDocumentNumber}},
			{name: dto.FieldDateOfBirth, data: []span{{1, 0, 6}}, line: 1, pos: 6, covers: []string{dto.FieldDateOfBirth}},
			{name: dto.FieldExpiryDate, data: []span{{1, 8, 14}}, line: 1, pos: 14, covers: []string{dto.FieldExpiryDate}},
			{
				name: "composite", data: []span{{0, 5, 30}, {1, 0, 7}, {1, 8, 15}, {1, 18, 29}}, line: 1, pos: 29,
				covers: []string{dto.FieldDocumentNumber, dto.FieldOptionalData, dto.FieldDateOfBirth, dto.FieldExpiryDate},
			},
		},
	},
	{
		format:        dto.MrzMRVA,
		lengths:       []int{44, 44},
		discriminator: startsWith("V"),
		rank:          4,
		zones: concatZones(twoLineHeader(44), twoLineBody(), []zone{
			{field: dto.FieldOptionalData, span: span{1, 28, 44}, kind: zoneAlnum},
		}),
		checks: twoLineChecks(),
	},
	{
		format:        dto.MrzFrenchNationalID,
		lengths:       []int{36, 36},
		discriminator: startsWith("IDFRA"),
		rank:          3,
		zones: []zone{
			{field: dto.FieldDocumentType, span: span{0, 0, 2}, kind: zoneAlpha},
			{field: dto.FieldIssuingState, span: span{0, 2, 5}, kind: zoneAlpha},
			{field: dto.FieldSurname, span: span{0, 5, 30}, kind: zoneAlpha},
			{field: dto.FieldOptionalData, span: span{0, 30, 36}, kind: zoneAlnum},
			{field: dto.FieldDocumentNumber, span: span{1, 0, 12}, kind: zoneAlnum},
			{field: dto.FieldGivenNames, span: span{1, 13, 27}, kind: zoneAlpha},
			{field: dto.FieldDateOfBirth, span: span{1, 27, 33}, kind: zoneDate, date: dateBirth},
			{field: dto.FieldSex, span: span{1, 34, 35}, kind: zoneSex},
		},
		checks: []checkSegment{
			{name: dto.FieldDocumentNumber, data: []span{{1, 0, 12}}, line: 1, pos: 12, covers: []string{dto.FieldDocumentNumber}},
			{name: dto.FieldDateOfBirth, data: []span{{1, 27, 33}}, line: 1, pos: 33, covers: []string{dto.FieldDateOfBirth}},
			{
				name: "composite", data: []span{{0, 0, 36}, {1, 0, 35}}, line: 1, pos: 35,
				covers: []string{dto.FieldDocumentNumber, dto.FieldDateOfBirth, dto.FieldSurname, dto.FieldGivenNames, dto.FieldSex},
			},
		},
	},
	{
		format:  dto.MrzSwissDrivingLicense,
		lengths: []int{9, 30, 30},
		discriminator: func(lines []string) bool {
			return lines[1][2:5] == "CHE"
		},
		rank: 2,
		zones: []zone{
			{field: dto.FieldDocumentNumber, span: span{0, 0, 9}, kind: zoneAlnum},
			{field: dto.FieldDocumentType, span: span{1, 0, 2}, kind: zoneAlpha},
			{field: dto.FieldIssuingState, span: span{1, 2, 5}, kind: zoneAlpha},
			{field: dto.FieldPersonalNumber, span: span{1, 5, 14}, kind: zoneAlnum},
			{field: dto.FieldOptionalData, span: span{1, 14, 24}, kind: zoneAlnum},
			{field: dto.FieldDateOfBirth, span: span{1, 24, 30}, kind: zoneDate, date: dateBirth},
			{field: "name", span: span{2, 0, 30}, kind: zoneName},
		},
	},
	{
		format:        dto.MrzFrenchDrivingLicense,
		lengths:       []int{30},
		discriminator: startsWith("D1FRA"),
		rank:          1,
		zones: []zone{
			{field: dto.FieldDocumentType, span: span{0, 0, 2}, kind: zoneAlnum},
			{field: dto.FieldIssuingState, span: span{0, 2, 5}, kind: zoneAlpha},
			{field: dto.FieldDocumentNumber, span: span{0, 5, 17}, kind: zoneAlnum},
			{field: dto.FieldIssueDate, span: span{0, 17, 23}, kind: zoneDate, date: dateIssue},
		},
		checks: []checkSegment{
			{
				name: "composite", data: []span{{0, 0, 29}}, line: 0, pos: 29,
				covers: []string{dto.FieldDocumentNumber, dto.FieldIssueDate},
			},
		},
	},
}

// Rank orders formats for tie-breaking: TD3 > TD2/MRVB > TD1/MRVA > national layouts.
func Rank(format dto.MrzFormat) int {
	for _, l := range layouts {
		if l.format == format {
			return l.rank
		}
	}
	return 0
}

// Better reports whether block a should be preferred over block b:
// checksum-valid first, then the higher ranked format.
func Better(a, b *dto.MrzBlock) bool {
	if !a.Found() {
		return false
	}
	if !b.Found() {
		return true
	}
	if a.ChecksumValid != b.ChecksumValid {
		return a.ChecksumValid
	}
	return Rank(a.Format) > Rank(b.Format)
}
