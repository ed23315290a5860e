package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Aashish23092/travel-document-verification/dto"
	"github.com/Aashish23092/travel-document-verification/metrics"
	"github.com/Aashish23092/travel-document-verification/utils/mrz/mrztest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(opts Options) *VerificationService {
	svc := NewVerificationService(opts, metrics.New(prometheus.NewRegistry()))
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC) }
	return svc
}

func erikssonApplicant() dto.ApplicantProfile {
	return dto.ApplicantProfile{
		FullName:           "Anna Maria Eriksson",
		PassportNumber:     "L898902C3",
		Nationality:        "UTO",
		VisaType:           "tourist",
		IntendedTravelDate: "2025-06-01",
	}
}

func passportDoc(p mrztest.Passport) dto.RawDocument {
	lines := append([]string{"UTOPIA", "PASSPORT"}, mrztest.TD3(p)...)
	return dto.RawDocument{OCRText: lines}
}

func checkByID(t *testing.T, resp *dto.VerificationResponse, id string) dto.ValidationCheck {
	t.Helper()
	for _, c := range resp.Checks {
		if c.ID == id {
			return c
		}
	}
	require.FailNow(t, "check not found", id)
	return dto.ValidationCheck{}
}

func TestEvaluateApprovesValidPassport(t *testing.T) {
	svc := newTestService(DefaultOptions())

	resp := svc.EvaluateDocuments(context.Background(), []dto.RawDocument{passportDoc(eriksson)}, erikssonApplicant(), nil)

	assert.Equal(t, dto.DecisionApproved, resp.Decision.Status, resp.Checks)
	assert.Equal(t, 100, resp.Decision.Confidence)
	assert.Empty(t, resp.RecommendedActions)
	require.NotNil(t, resp.Mrz)
	assert.Equal(t, dto.MrzTD3, resp.Mrz.Format)
	assert.True(t, resp.Mrz.ChecksumValid)
	assert.Len(t, resp.Checks, len(Rules))
	assert.Equal(t, []dto.DocumentSummary{{Index: 0, Status: dto.DocumentOK, MrzFormat: dto.MrzTD3}}, resp.Documents)
	assert.Equal(t, "ERIKSSON", resp.Fields[dto.FieldSurname].StringValue())
	assert.Equal(t, "1974-08-12", resp.Fields[dto.FieldDateOfBirth].StringValue())
}

func TestEvaluateRejectsPassportExpiredBeforeTravel(t *testing.T) {
	p := eriksson
	p.ExpiryDate = "240101"
	svc := newTestService(DefaultOptions())
	policy := dto.DefaultEligibilityPolicy()
	policy.MinPassportValidityDays = 180

	resp := svc.EvaluateDocuments(context.Background(), []dto.RawDocument{passportDoc(p)}, erikssonApplicant(), &policy)

	assert.Equal(t, dto.CheckFail, checkByID(t, resp, CheckPassportValidity).Status)
	assert.Equal(t, dto.DecisionRejected, resp.Decision.Status)
	assert.Contains(t, resp.Decision.Reasons, "Passport validity")
	assert.Contains(t, resp.RecommendedActions, "Renew the passport so it stays valid for the required period after travel")
}

func TestEvaluateRejectsBlacklistedNationality(t *testing.T) {
	applicant := erikssonApplicant()
	applicant.Nationality = "IRN"
	policy := dto.DefaultEligibilityPolicy()
	policy.BlacklistedNationalities = []string{"IRN", "PRK"}

	resp := newTestService(DefaultOptions()).
		EvaluateDocuments(context.Background(), []dto.RawDocument{passportDoc(eriksson)}, applicant, &policy)

	assert.Equal(t, dto.CheckFail, checkByID(t, resp, CheckNationalityBlocked).Status)
	assert.Equal(t, dto.DecisionRejected, resp.Decision.Status)
}

func TestEvaluateApprovesWithoutMRZWhenNotRequired(t *testing.T) {
	doc := dto.RawDocument{
		OCRText: []string{
			"REPUBLIC OF UTOPIA",
			"Name: John Smith",
			"Passport No: X1234567",
			"Nationality: UTO",
			"Date of birth: 14/03/1990",
			"Date of expiry: 2031-01-31",
		},
		OCRTokenConfidences: map[string]float64{"John": 70, "Smith": 88, "X1234567": 97},
	}
	applicant := dto.ApplicantProfile{
		FullName:           "John Smith",
		PassportNumber:     "X1234567",
		Nationality:        "UTO",
		VisaType:           "business",
		IntendedTravelDate: "2025-06-01",
	}
	policy := dto.DefaultEligibilityPolicy()
	policy.RequireMrz = false

	resp := newTestService(DefaultOptions()).EvaluateDocuments(context.Background(), []dto.RawDocument{doc}, applicant, &policy)

	name := checkByID(t, resp, CheckNameMatch)
	assert.Equal(t, dto.CheckPass, name.Status)
	assert.Equal(t, 70, name.Confidence)
	assert.Equal(t, dto.CheckPass, checkByID(t, resp, CheckMrzChecksum).Status)
	assert.Equal(t, dto.DecisionApproved, resp.Decision.Status, resp.Checks)
	require.NotNil(t, resp.Mrz)
	assert.False(t, resp.Mrz.Found())
}

func TestEvaluateNameMismatchNotRequiredNeedsReview(t *testing.T) {
	applicant := erikssonApplicant()
	applicant.FullName = "Johanna Berg"
	policy := dto.DefaultEligibilityPolicy()
	policy.RequireNameMatch = false

	resp := newTestService(DefaultOptions()).
		EvaluateDocuments(context.Background(), []dto.RawDocument{passportDoc(eriksson)}, applicant, &policy)

	assert.Equal(t, dto.CheckWarning, checkByID(t, resp, CheckNameMatch).Status)
	assert.Equal(t, dto.DecisionManualReview, resp.Decision.Status)
	assert.Equal(t, []string{"Name match"}, resp.Decision.Reasons)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	svc := newTestService(DefaultOptions())
	docs := []dto.RawDocument{
		{OCRText: []string{"Surname: ERIKSON", "Date of birth: 12/08/1974"}},
		passportDoc(eriksson),
	}

	first := svc.EvaluateDocuments(context.Background(), docs, erikssonApplicant(), nil)
	second := svc.EvaluateDocuments(context.Background(), docs, erikssonApplicant(), nil)
	first.TimingMs, second.TimingMs = 0, 0

	assert.Equal(t, first, second)
}

func TestEvaluateMergesDocuments(t *testing.T) {
	docs := []dto.RawDocument{
		{OCRText: []string{"Surname: ERIKSON", "Place of birth: ZENITH"}},
		passportDoc(eriksson),
	}

	resp := newTestService(DefaultOptions()).EvaluateDocuments(context.Background(), docs, erikssonApplicant(), nil)

	require.Len(t, resp.Documents, 2)
	assert.Equal(t, dto.MrzUnknown, resp.Documents[0].MrzFormat)
	assert.Equal(t, dto.MrzTD3, resp.Documents[1].MrzFormat)

	surname := resp.Fields[dto.FieldSurname]
	assert.Equal(t, "ERIKSSON", surname.StringValue())
	assert.Len(t, surname.Issues, 1)
	assert.Equal(t, "ZENITH", resp.Fields[dto.FieldPlaceOfBirth].StringValue())
	assert.Contains(t, resp.RawText, "ZENITH\n\nUTOPIA")
}

func TestEvaluateUsesBarcodeWhenNoMRZ(t *testing.T) {
	doc := dto.RawDocument{
		OCRText:            []string{"UTOPIA RESIDENCE PERMIT"},
		DecodedBarcodeText: `{"surname":"ERIKSSON","givenNames":"ANNA MARIA","documentNumber":"L898902C3","expiryDate":"2030-04-15","dateOfBirth":"1974-08-12","nationality":"UTO"}`,
	}
	policy := dto.DefaultEligibilityPolicy()
	policy.RequireMrz = false

	resp := newTestService(DefaultOptions()).EvaluateDocuments(context.Background(), []dto.RawDocument{doc}, erikssonApplicant(), &policy)

	require.NotNil(t, resp.Barcode)
	assert.Equal(t, "json", resp.Barcode.Format)
	assert.Equal(t, dto.SourceBarcode, resp.Fields[dto.FieldDocumentNumber].Source)
	assert.Equal(t, dto.DecisionApproved, resp.Decision.Status, resp.Checks)
}

func TestEvaluateEmptyDocumentIsUnknown(t *testing.T) {
	resp := newTestService(DefaultOptions()).
		EvaluateDocuments(context.Background(), []dto.RawDocument{{OCRText: []string{" ", ""}}}, erikssonApplicant(), nil)

	assert.Equal(t, dto.DecisionUnknown, resp.Decision.Status)
	assert.Empty(t, resp.Checks)
	assert.Nil(t, resp.Mrz)
	assert.Equal(t, dto.DocumentEmpty, resp.Documents[0].Status)
	assert.Len(t, resp.Fields, len(dto.RequiredFields))
}

type blockingSource struct {
	release chan struct{}
}

// Acquire ignores its context like a stuck OCR engine would
func (b blockingSource) Acquire(context.Context) (dto.RawDocument, error) {
	<-b.release
	return dto.RawDocument{OCRText: []string{"Surname: LATE"}}, nil
}

type failingSource struct{}

func (failingSource) Acquire(context.Context) (dto.RawDocument, error) {
	return dto.RawDocument{}, errors.New("engine unavailable")
}

func TestEvaluateDocumentTimeoutDegradesGracefully(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	opts := DefaultOptions()
	opts.DocumentTimeout = 20 * time.Millisecond
	svc := newTestService(opts)

	sources := []DocumentSource{
		blockingSource{release: release},
		StaticDocument{Doc: passportDoc(eriksson)},
		failingSource{},
	}
	resp := svc.Evaluate(context.Background(), sources, erikssonApplicant(), nil)

	require.Len(t, resp.Documents, 3)
	assert.Equal(t, dto.DocumentTimeout, resp.Documents[0].Status)
	assert.Equal(t, dto.DocumentOK, resp.Documents[1].Status)
	assert.Equal(t, dto.DocumentError, resp.Documents[2].Status)
	assert.Equal(t, "engine unavailable", resp.Documents[2].Error)
	assert.Equal(t, "ERIKSSON", resp.Fields[dto.FieldSurname].StringValue())
	assert.Equal(t, dto.DecisionApproved, resp.Decision.Status)
}

func TestEvaluateRequestBudget(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	opts := Options{RequestBudget: 30 * time.Millisecond, MaxConcurrent: 1}
	svc := newTestService(opts)

	start := time.Now()
	resp := svc.Evaluate(context.Background(), []DocumentSource{
		blockingSource{release: release},
		StaticDocument{Doc: passportDoc(eriksson)},
	}, erikssonApplicant(), nil)

	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, resp.Documents, 2)
	assert.Equal(t, dto.DocumentTimeout, resp.Documents[0].Status)
	assert.Equal(t, dto.DocumentTimeout, resp.Documents[1].Status)
	assert.Equal(t, dto.DecisionUnknown, resp.Decision.Status)
}

func TestEvaluateDefaultsTravelDateToToday(t *testing.T) {
	p := eriksson
	p.ExpiryDate = "251101"
	applicant := erikssonApplicant()
	applicant.IntendedTravelDate = ""

	resp := newTestService(DefaultOptions()).
		EvaluateDocuments(context.Background(), []dto.RawDocument{passportDoc(p)}, applicant, nil)

	validity := checkByID(t, resp, CheckPassportValidity)
	assert.Equal(t, dto.CheckFail, validity.Status)
	assert.Contains(t, validity.Details, "travel on 2025-06-01")
}

func TestEvaluateRecordsMetrics(t *testing.T) {
	svc := newTestService(DefaultOptions())
	svc.EvaluateDocuments(context.Background(), []dto.RawDocument{passportDoc(eriksson)}, erikssonApplicant(), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.DecisionOutcome.WithLabelValues("approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.MrzBlocks.WithLabelValues("TD3", "valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.CheckOutcome.WithLabelValues(CheckNameMatch, "pass")))
}
