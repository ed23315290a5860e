package service

import (
	"testing"

	"github.com/Aashish23092/travel-document-verification/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing(id string, confidence int) dto.ValidationCheck {
	return dto.ValidationCheck{ID: id, Label: id, Status: dto.CheckPass, Confidence: confidence}
}

func TestDecideNoChecks(t *testing.T) {
	d := Decide(nil)
	assert.Equal(t, dto.DecisionUnknown, d.Status)
	assert.Equal(t, 0, d.Confidence)
	assert.NotEmpty(t, d.Reasons)
}

func TestDecideApproved(t *testing.T) {
	d := Decide([]dto.ValidationCheck{passing("a", 100), passing("b", 61), passing("c", 60)})
	assert.Equal(t, dto.DecisionApproved, d.Status)
	assert.Empty(t, d.Reasons)
	assert.Equal(t, 74, d.Confidence)
}

func TestDecideLowConfidenceNeedsReview(t *testing.T) {
	d := Decide([]dto.ValidationCheck{passing("a", 100), passing("b", 59)})
	assert.Equal(t, dto.DecisionManualReview, d.Status)
	require.Len(t, d.Reasons, 1)
	assert.Contains(t, d.Reasons[0], "59")
}

func TestDecideWarningAndUnknownNeedReview(t *testing.T) {
	checks := []dto.ValidationCheck{
		passing("a", 100),
		{ID: "b", Label: "Name match", Status: dto.CheckWarning, Confidence: 90},
		{ID: "c", Label: "Applicant age", Status: dto.CheckUnknown, Confidence: 80},
	}
	d := Decide(checks)
	assert.Equal(t, dto.DecisionManualReview, d.Status)
	assert.Equal(t, []string{"Name match", "Applicant age"}, d.Reasons)
}

func TestDecideAnyFailRejects(t *testing.T) {
	checks := []dto.ValidationCheck{
		{ID: "a", Label: "Passport validity", Status: dto.CheckFail, Confidence: 100},
		{ID: "b", Label: "Name match", Status: dto.CheckWarning, Confidence: 10},
		{ID: "c", Label: "Nationality not blacklisted", Status: dto.CheckFail, Confidence: 100},
	}
	d := Decide(checks)
	assert.Equal(t, dto.DecisionRejected, d.Status)
	assert.Equal(t, []string{"Passport validity", "Nationality not blacklisted"}, d.Reasons)
	assert.Equal(t, 70, d.Confidence)
}

func TestDecideIsMonotonic(t *testing.T) {
	base := []dto.ValidationCheck{passing("a", 100), passing("b", 90)}
	require.Equal(t, dto.DecisionApproved, Decide(base).Status)

	for _, conf := range []int{0, 50, 100} {
		withFail := append(append([]dto.ValidationCheck{}, base...),
			dto.ValidationCheck{ID: "c", Label: "c", Status: dto.CheckFail, Confidence: conf})
		assert.Equal(t, dto.DecisionRejected, Decide(withFail).Status)
	}
}

func TestRecommendedActions(t *testing.T) {
	checks := []dto.ValidationCheck{
		{ID: CheckMrzChecksum, Status: dto.CheckFail},
		{ID: CheckPassportValidity, Status: dto.CheckPass},
		{ID: CheckNameMatch, Status: dto.CheckWarning},
		{ID: CheckApplicantAge, Status: dto.CheckUnknown},
		{ID: CheckMrzChecksum, Status: dto.CheckFail},
	}

	actions := RecommendedActions(checks)
	assert.Equal(t, []string{
		"Re-scan document with a sharper, glare-free MRZ image",
		"Verify the applicant name against the travel document",
	}, actions)
}

func TestRecommendedActionsAllPass(t *testing.T) {
	actions := RecommendedActions([]dto.ValidationCheck{passing(CheckMrzChecksum, 100)})
	assert.NotNil(t, actions)
	assert.Empty(t, actions)
}
