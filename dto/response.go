package dto

import "errors"

// Custom errors
var (
	ErrNoDocuments      = errors.New("at least one document is required")
	ErrInvalidApplicant = errors.New("applicant profile is missing or malformed")
	ErrInvalidPolicy    = errors.New("eligibility policy is malformed")
	ErrInvalidBarcodes  = errors.New("barcodes must be a JSON array of strings, one per file")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
