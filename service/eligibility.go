package service

import (
	"fmt"
	"math"

	"github.com/Aashish23092/travel-document-verification/dto"
)

// ManualReviewConfidence is the lowest check confidence an approval accepts
const ManualReviewConfidence = 60

// Decide aggregates the check sequence into a decision. It is a pure function:
// any fail rejects; any warning, unknown or low confidence check sends the
// application to manual review; otherwise it is approved.
func Decide(checks []dto.ValidationCheck) dto.EligibilityDecision {
	if len(checks) == 0 {
		return dto.EligibilityDecision{
			Status:     dto.DecisionUnknown,
			Reasons:    []string{"No validation checks could be executed"},
			Confidence: 0,
		}
	}

	var failed, uncertain []string
	total := 0
	lowest := math.MaxInt
	for _, c := range checks {
		total += c.Confidence
		lowest = min(lowest, c.Confidence)
		switch c.Status {
		case dto.CheckFail:
			failed = append(failed, c.Label)
		case dto.CheckWarning, dto.CheckUnknown:
			uncertain = append(uncertain, c.Label)
		}
	}
	confidence := int(math.Round(float64(total) / float64(len(checks))))

	switch {
	case len(failed) > 0:
		return dto.EligibilityDecision{Status: dto.DecisionRejected, Reasons: failed, Confidence: confidence}
	case len(uncertain) > 0 || lowest < ManualReviewConfidence:
		reasons := append([]string{}, uncertain...)
		if lowest < ManualReviewConfidence {
			reasons = append(reasons, fmt.Sprintf("Low confidence: weakest check scored %d, below %d", lowest, ManualReviewConfidence))
		}
		return dto.EligibilityDecision{Status: dto.DecisionManualReview, Reasons: reasons, Confidence: confidence}
	}
	return dto.EligibilityDecision{Status: dto.DecisionApproved, Reasons: []string{}, Confidence: confidence}
}

type actionKey struct {
	id     string
	status dto.CheckStatus
}

var remediation = map[actionKey]string{
	{CheckMrzChecksum, dto.CheckFail}:         "Re-scan document with a sharper, glare-free MRZ image",
	{CheckMrzChecksum, dto.CheckWarning}:      "Upload an image that shows the full machine readable zone",
	{CheckPassportValidity, dto.CheckFail}:    "Renew the passport so it stays valid for the required period after travel",
	{CheckPassportValidity, dto.CheckWarning}: "Confirm the passport expiry date against the original document",
	{CheckApplicantAge, dto.CheckFail}:        "Applicant is below the minimum age; submit a guardian-supported application",
	{CheckApplicantAge, dto.CheckWarning}:     "Confirm the date of birth against the original document",
	{CheckVisaTypeSupported, dto.CheckFail}:   "Select one of the supported visa types",
	{CheckNationalityBlocked, dto.CheckFail}:  "Refer the application to the compliance team",
	{CheckNameMatch, dto.CheckFail}:           "Correct the applicant name so it matches the travel document",
	{CheckNameMatch, dto.CheckWarning}:        "Verify the applicant name against the travel document",
	{CheckPassportNumber, dto.CheckFail}:      "Correct the passport number so it matches the travel document",
	{CheckPassportNumber, dto.CheckWarning}:   "Verify the passport number against the travel document",
}

// RecommendedActions maps failing and warning checks to remediation steps,
// in check order and without duplicates.
func RecommendedActions(checks []dto.ValidationCheck) []string {
	actions := []string{}
	seen := map[string]bool{}
	for _, c := range checks {
		if c.Status != dto.CheckFail && c.Status != dto.CheckWarning {
			continue
		}
		action, ok := remediation[actionKey{c.ID, c.Status}]
		if !ok || seen[action] {
			continue
		}
		seen[action] = true
		actions = append(actions, action)
	}
	return actions
}
