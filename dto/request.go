package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"slices"
	"strings"
)

// DocumentUploadRequest represents the multipart upload of document images
type DocumentUploadRequest struct {
	Files     []*multipart.FileHeader `form:"files[]" binding:"required"`
	Applicant string                  `form:"applicant" binding:"required"`
	Policy    string                  `form:"policy"`
	Barcodes  string                  `form:"barcodes"`
}

// Validate performs basic validation on the request
func (r *DocumentUploadRequest) Validate() error {
	if len(r.Files) == 0 {
		return ErrNoDocuments
	}
	if strings.TrimSpace(r.Applicant) == "" {
		return ErrInvalidApplicant
	}
	return nil
}

// ParseApplicant decodes the applicant form field
func (r *DocumentUploadRequest) ParseApplicant() (ApplicantProfile, error) {
	var applicant ApplicantProfile
	if err := json.Unmarshal([]byte(r.Applicant), &applicant); err != nil {
		return applicant, errors.Join(ErrInvalidApplicant, err)
	}
	return applicant, nil
}

// ParseBarcodes decodes the optional barcodes form field, a JSON array of
// pre-decoded barcode text aligned with the uploaded files.
func (r *DocumentUploadRequest) ParseBarcodes() ([]string, error) {
	barcodes := make([]string, len(r.Files))
	if strings.TrimSpace(r.Barcodes) == "" {
		return barcodes, nil
	}
	var decoded []string
	if err := json.Unmarshal([]byte(r.Barcodes), &decoded); err != nil {
		return nil, errors.Join(ErrInvalidBarcodes, err)
	}
	if len(decoded) > len(r.Files) {
		return nil, ErrInvalidBarcodes
	}
	copy(barcodes, decoded)
	return barcodes, nil
}

// EvaluateRequest carries already OCR'd documents, the applicant and an optional policy
type EvaluateRequest struct {
	Documents []RawDocument    `json:"documents"`
	Applicant ApplicantProfile `json:"applicant"`
	Policy    json.RawMessage  `json:"policy,omitempty"`
}

// Validate performs basic validation on the request
func (r *EvaluateRequest) Validate() error {
	if len(r.Documents) == 0 {
		return ErrNoDocuments
	}
	return nil
}

// ParsePolicyJSON decodes a policy over base so that absent keys keep the
// base values. An empty or null payload yields base unchanged.
func ParsePolicyJSON(raw []byte, base EligibilityPolicy) (EligibilityPolicy, error) {
	policy := base.Clone()
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return policy, nil
	}
	if err := json.Unmarshal(raw, &policy); err != nil {
		return base.Clone(), errors.Join(ErrInvalidPolicy, err)
	}
	if err := policy.Validate(); err != nil {
		return base.Clone(), err
	}
	return policy, nil
}

// Clone returns a copy that shares no slices with p
func (p EligibilityPolicy) Clone() EligibilityPolicy {
	p.SupportedVisaTypes = slices.Clone(p.SupportedVisaTypes)
	p.BlacklistedNationalities = slices.Clone(p.BlacklistedNationalities)
	return p
}

// Validate rejects thresholds no evaluation could satisfy
func (p EligibilityPolicy) Validate() error {
	switch {
	case p.MinPassportValidityDays < 0:
		return fmt.Errorf("%w: minPassportValidityDays must not be negative", ErrInvalidPolicy)
	case p.MinApplicantAge < 0:
		return fmt.Errorf("%w: minApplicantAge must not be negative", ErrInvalidPolicy)
	case p.MinFieldConfidence < 0 || p.MinFieldConfidence > 100:
		return fmt.Errorf("%w: minFieldConfidence must be within 0-100", ErrInvalidPolicy)
	}
	return nil
}
