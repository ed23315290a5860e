package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Aashish23092/travel-document-verification/dto"
	"github.com/Aashish23092/travel-document-verification/utils"
)

// Check identifiers. Their order in Rules is the audit trail order.
const (
	CheckMrzChecksum        = "mrz_checksum"
	CheckPassportValidity   = "passport_validity"
	CheckApplicantAge       = "applicant_age"
	CheckVisaTypeSupported  = "visa_type_supported"
	CheckNationalityBlocked = "nationality_blacklist"
	CheckNameMatch          = "name_match"
	CheckPassportNumber     = "passport_number_match"
)

// RuleInput is everything a rule may read. Rules never modify it.
type RuleInput struct {
	Fields     map[string]dto.ExtractedField
	Mrz        *dto.MrzBlock
	Applicant  dto.ApplicantProfile
	Policy     dto.EligibilityPolicy
	TravelDate time.Time
}

// Rule is one row of the validation table
type Rule struct {
	ID    string
	Label string
	Eval  func(in RuleInput) (status dto.CheckStatus, details string, confidence int)
}

// Rules is the ordered validation table
var Rules = []Rule{
	{CheckMrzChecksum, "MRZ checksum", evalMrzChecksum},
	{CheckPassportValidity, "Passport validity", evalPassportValidity},
	{CheckApplicantAge, "Applicant age", evalApplicantAge},
	{CheckVisaTypeSupported, "Visa type supported", evalVisaType},
	{CheckNationalityBlocked, "Nationality not blacklisted", evalNationality},
	{CheckNameMatch, "Name match", evalNameMatch},
	{CheckPassportNumber, "Passport number match", evalPassportNumber},
}

const budgetExceeded = "evaluation budget exceeded before this check ran"

// RunChecks evaluates every rule in order. Once ctx is done the remaining
// rules are reported as unknown instead of being evaluated.
func RunChecks(ctx context.Context, rules []Rule, in RuleInput) []dto.ValidationCheck {
	checks := make([]dto.ValidationCheck, 0, len(rules))
	for _, r := range rules {
		if ctx.Err() != nil {
			checks = append(checks, dto.ValidationCheck{
				ID: r.ID, Label: r.Label, Status: dto.CheckUnknown, Details: budgetExceeded,
			})
			continue
		}
		status, details, confidence := r.Eval(in)
		checks = append(checks, dto.ValidationCheck{
			ID:         r.ID,
			Label:      r.Label,
			Status:     status,
			Details:    details,
			Confidence: dto.ClampConfidence(confidence),
		})
	}
	return checks
}

func evalMrzChecksum(in RuleInput) (dto.CheckStatus, string, int) {
	if !in.Mrz.Found() {
		if !in.Policy.RequireMrz {
			return dto.CheckPass, "No machine readable zone detected; not required by policy", 100
		}
		return dto.CheckWarning, "No machine readable zone detected", 100
	}

	confidence := minConfidence(in.Mrz.Fields)
	switch {
	case !in.Mrz.HasCheckDigits:
		return dto.CheckPass, fmt.Sprintf("%s zone decoded; layout defines no check digits", in.Mrz.Format), confidence
	case !in.Mrz.ChecksumValid:
		return dto.CheckFail, fmt.Sprintf("%s zone failed validation: %s", in.Mrz.Format, strings.Join(in.Mrz.Issues, "; ")), confidence
	}
	return dto.CheckPass, fmt.Sprintf("All %s check digits are valid", in.Mrz.Format), confidence
}

func evalPassportValidity(in RuleInput) (dto.CheckStatus, string, int) {
	expiry, ok := in.Fields[dto.FieldExpiryDate]
	if !ok || !expiry.Present() {
		return dto.CheckUnknown, "Expiry date was not found on the document", 0
	}
	date, err := time.Parse(utils.ISODate, expiry.StringValue())
	if err != nil {
		return dto.CheckWarning, fmt.Sprintf("Expiry date %q could not be read", expiry.StringValue()), expiry.Confidence
	}

	days := daysBetween(in.TravelDate, date)
	if expiry.Confidence < in.Policy.MinFieldConfidence {
		return dto.CheckWarning, fmt.Sprintf("Expiry date %s has low confidence (%d)", expiry.StringValue(), expiry.Confidence), expiry.Confidence
	}
	details := fmt.Sprintf("Document expires %s, %d days after travel on %s; policy requires %d",
		expiry.StringValue(), days, in.TravelDate.Format(utils.ISODate), in.Policy.MinPassportValidityDays)
	if days < in.Policy.MinPassportValidityDays {
		return dto.CheckFail, details, expiry.Confidence
	}
	return dto.CheckPass, details, expiry.Confidence
}

func evalApplicantAge(in RuleInput) (dto.CheckStatus, string, int) {
	dob, ok := in.Fields[dto.FieldDateOfBirth]
	if !ok || !dob.Present() {
		return dto.CheckUnknown, "Date of birth was not found on the document", 0
	}
	date, err := time.Parse(utils.ISODate, dob.StringValue())
	if err != nil {
		return dto.CheckWarning, fmt.Sprintf("Date of birth %q could not be read", dob.StringValue()), dob.Confidence
	}
	if dob.Confidence < in.Policy.MinFieldConfidence {
		return dto.CheckWarning, fmt.Sprintf("Date of birth %s has low confidence (%d)", dob.StringValue(), dob.Confidence), dob.Confidence
	}

	age := ageAt(date, in.TravelDate)
	details := fmt.Sprintf("Applicant born %s is %d on %s; policy requires %d",
		dob.StringValue(), age, in.TravelDate.Format(utils.ISODate), in.Policy.MinApplicantAge)
	if age < in.Policy.MinApplicantAge {
		return dto.CheckFail, details, dob.Confidence
	}
	return dto.CheckPass, details, dob.Confidence
}

func evalVisaType(in RuleInput) (dto.CheckStatus, string, int) {
	visa := strings.TrimSpace(in.Applicant.VisaType)
	if visa == "" {
		return dto.CheckUnknown, "No visa type was declared", 100
	}
	for _, supported := range in.Policy.SupportedVisaTypes {
		if strings.EqualFold(strings.TrimSpace(supported), visa) {
			return dto.CheckPass, fmt.Sprintf("Visa type %q is supported", visa), 100
		}
	}
	return dto.CheckFail, fmt.Sprintf("Visa type %q is not one of %s", visa, strings.Join(in.Policy.SupportedVisaTypes, ", ")), 100
}

func evalNationality(in RuleInput) (dto.CheckStatus, string, int) {
	declared := strings.ToUpper(strings.TrimSpace(in.Applicant.Nationality))
	doc := in.Fields[dto.FieldNationality]
	printed := strings.ToUpper(strings.TrimSpace(doc.StringValue()))

	if declared == "" && printed == "" {
		return dto.CheckUnknown, "Nationality was neither declared nor found on the document", 0
	}
	if declared != "" && isListed(declared, in.Policy.BlacklistedNationalities) {
		return dto.CheckFail, fmt.Sprintf("Declared nationality %s is blacklisted", declared), 100
	}
	if printed != "" && isListed(printed, in.Policy.BlacklistedNationalities) {
		return dto.CheckFail, fmt.Sprintf("Document nationality %s is blacklisted", printed), doc.Confidence
	}
	if declared == "" {
		return dto.CheckPass, fmt.Sprintf("Document nationality %s is not blacklisted", printed), doc.Confidence
	}
	if printed != "" {
		return dto.CheckPass, fmt.Sprintf("Nationality %s (document %s) is not blacklisted", declared, printed), min(100, doc.Confidence)
	}
	return dto.CheckPass, fmt.Sprintf("Nationality %s is not blacklisted", declared), 100
}

func evalNameMatch(in RuleInput) (dto.CheckStatus, string, int) {
	declared := strings.TrimSpace(in.Applicant.FullName)
	printed, confidence, ok := documentName(in.Fields)
	if declared == "" || !ok {
		return dto.CheckUnknown, "Applicant name or document name is missing", confidence
	}

	if utils.CompareNames(declared, printed) {
		return dto.CheckPass, fmt.Sprintf("Applicant name %q matches document name %q", declared, printed), confidence
	}
	details := fmt.Sprintf("Applicant name %q does not match document name %q", declared, printed)
	if in.Policy.RequireNameMatch {
		return dto.CheckFail, details, confidence
	}
	return dto.CheckWarning, details, confidence
}

func evalPassportNumber(in RuleInput) (dto.CheckStatus, string, int) {
	declared := normalizeDocumentNumber(in.Applicant.PassportNumber)
	doc, ok := in.Fields[dto.FieldDocumentNumber]
	if declared == "" || !ok || !doc.Present() {
		return dto.CheckUnknown, "Applicant passport number or document number is missing", doc.Confidence
	}

	printed := normalizeDocumentNumber(doc.StringValue())
	if declared == printed {
		return dto.CheckPass, fmt.Sprintf("Passport number %s matches the document", printed), doc.Confidence
	}
	details := fmt.Sprintf("Applicant passport number %s does not match document number %s", declared, printed)
	if in.Policy.RequirePassportMatch {
		return dto.CheckFail, details, doc.Confidence
	}
	return dto.CheckWarning, details, doc.Confidence
}

// documentName prefers surname plus given names, falling back to the full name line
func documentName(fields map[string]dto.ExtractedField) (string, int, bool) {
	surname := fields[dto.FieldSurname]
	if surname.Present() {
		given := fields[dto.FieldGivenNames]
		if given.Present() {
			return surname.StringValue() + " " + given.StringValue(), min(surname.Confidence, given.Confidence), true
		}
		return surname.StringValue(), surname.Confidence, true
	}
	full := fields[dto.FieldFullName]
	if full.Present() {
		return full.StringValue(), full.Confidence, true
	}
	return "", 0, false
}

func normalizeDocumentNumber(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '<', '-', '\t':
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(s)))
}

func isListed(value string, list []string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), value) {
			return true
		}
	}
	return false
}

func minConfidence(fields map[string]dto.ExtractedField) int {
	lowest := 100
	for _, f := range fields {
		if f.Present() && f.Confidence < lowest {
			lowest = f.Confidence
		}
	}
	return lowest
}

func daysBetween(from, to time.Time) int {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// ageAt returns completed years between birth and on
func ageAt(birth, on time.Time) int {
	age := on.Year() - birth.Year()
	if on.Month() < birth.Month() || (on.Month() == birth.Month() && on.Day() < birth.Day()) {
		age--
	}
	return age
}
