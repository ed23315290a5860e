package dto

// FieldSource identifies where an extracted value came from
type FieldSource string

const (
	SourceMRZ      FieldSource = "mrz"
	SourceOCR      FieldSource = "ocr"
	SourceBarcode  FieldSource = "barcode"
	SourceInferred FieldSource = "inferred"
	SourceManual   FieldSource = "manual"
	SourceUnknown  FieldSource = "unknown"
)

// Stable field identifiers shared by every extractor and the rule engine
const (
	FieldDocumentType   = "documentType"
	FieldIssuingState   = "issuingState"
	FieldDocumentNumber = "documentNumber"
	FieldSurname        = "surname"
	FieldGivenNames     = "givenNames"
	FieldFullName       = "fullName"
	FieldNationality    = "nationality"
	FieldDateOfBirth    = "dateOfBirth"
	FieldSex            = "sex"
	FieldExpiryDate     = "expiryDate"
	FieldIssueDate      = "issueDate"
	FieldPersonalNumber = "personalNumber"
	FieldOptionalData   = "optionalData"
	FieldPlaceOfBirth   = "placeOfBirth"
	FieldAddress        = "address"
)

// RequiredFields are always present in a response, with value=null when no
// source produced them.
var RequiredFields = []string{
	FieldDocumentType,
	FieldIssuingState,
	FieldDocumentNumber,
	FieldSurname,
	FieldGivenNames,
	FieldNationality,
	FieldDateOfBirth,
	FieldSex,
	FieldExpiryDate,
}

var fieldLabels = map[string]string{
	FieldDocumentType:   "Document type",
	FieldIssuingState:   "Issuing state",
	FieldDocumentNumber: "Document number",
	FieldSurname:        "Surname",
	FieldGivenNames:     "Given names",
	FieldFullName:       "Full name",
	FieldNationality:    "Nationality",
	FieldDateOfBirth:    "Date of birth",
	FieldSex:            "Sex",
	FieldExpiryDate:     "Date of expiry",
	FieldIssueDate:      "Date of issue",
	FieldPersonalNumber: "Personal number",
	FieldOptionalData:   "Optional data",
	FieldPlaceOfBirth:   "Place of birth",
	FieldAddress:        "Address",
}

// FieldLabel returns the human readable label for a field id
func FieldLabel(id string) string {
	if l, ok := fieldLabels[id]; ok {
		return l
	}
	return id
}

// IsKnownField reports whether id is one of the stable field identifiers
func IsKnownField(id string) bool {
	_, ok := fieldLabels[id]
	return ok
}

// ExtractedField is one value produced by one source (or by reconciliation).
// Value is nil when the field is absent.
type ExtractedField struct {
	Label      string      `json:"label"`
	Value      *string     `json:"value"`
	Confidence int         `json:"confidence"`
	Source     FieldSource `json:"source"`
	Issues     []string    `json:"issues"`
}

// NewField builds a present field with a clamped confidence
func NewField(id, value string, confidence int, source FieldSource) ExtractedField {
	v := value
	return ExtractedField{
		Label:      FieldLabel(id),
		Value:      &v,
		Confidence: ClampConfidence(confidence),
		Source:     source,
		Issues:     []string{},
	}
}

// MissingField is the placeholder emitted when no source produced a field
func MissingField(id string) ExtractedField {
	return ExtractedField{
		Label:      FieldLabel(id),
		Source:     SourceUnknown,
		Confidence: 0,
		Issues:     []string{},
	}
}

// StringValue returns the value or "" when absent
func (f ExtractedField) StringValue() string {
	if f.Value == nil {
		return ""
	}
	return *f.Value
}

// Present reports whether the field carries a value
func (f ExtractedField) Present() bool {
	return f.Value != nil
}

// WithIssue returns a copy of the field with one more issue appended.
// The receiver's issue slice is never shared with the copy.
func (f ExtractedField) WithIssue(issue string) ExtractedField {
	issues := make([]string, 0, len(f.Issues)+1)
	issues = append(issues, f.Issues...)
	f.Issues = append(issues, issue)
	return f
}

// ClampConfidence keeps a confidence inside [0,100]
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// MrzFormat is the closed set of supported machine readable zone layouts
type MrzFormat string

const (
	MrzTD1                  MrzFormat = "TD1"
	MrzTD2                  MrzFormat = "TD2"
	MrzTD3                  MrzFormat = "TD3"
	MrzMRVA                 MrzFormat = "MRVA"
	MrzMRVB                 MrzFormat = "MRVB"
	MrzFrenchNationalID     MrzFormat = "FRENCH_NATIONAL_ID"
	MrzFrenchDrivingLicense MrzFormat = "FRENCH_DRIVING_LICENSE"
	MrzSwissDrivingLicense  MrzFormat = "SWISS_DRIVING_LICENSE"
	MrzUnknown              MrzFormat = "unknown"
)

// MrzBlock is a classified and decoded MRZ
type MrzBlock struct {
	Format        MrzFormat                 `json:"format"`
	Lines         []string                  `json:"lines"`
	Fields        map[string]ExtractedField `json:"fields"`
	ChecksumValid bool                      `json:"checksumValid"`
	// HasCheckDigits is false for layouts that define no check digit at all
	HasCheckDigits bool     `json:"hasCheckDigits"`
	Issues         []string `json:"issues"`
}

// Found reports whether a block was located at all
func (b *MrzBlock) Found() bool {
	return b != nil && b.Format != MrzUnknown
}

// BarcodeResult is the parsed form of pre-decoded barcode text.
// ChecksumValid is false only when the payload carried check digits that failed.
type BarcodeResult struct {
	Format        string                    `json:"format"`
	RawText       string                    `json:"rawText"`
	Fields        map[string]ExtractedField `json:"fields"`
	ChecksumValid bool                      `json:"checksumValid"`
}

// RawDocument is the OCR output for one uploaded image
type RawDocument struct {
	OCRText             []string           `json:"ocrText"`
	OCRTokenConfidences map[string]float64 `json:"ocrTokenConfidences,omitempty"`
	DecodedBarcodeText  string             `json:"decodedBarcodeText,omitempty"`
}

// ApplicantProfile is the identity and travel intent declared by the applicant
type ApplicantProfile struct {
	FullName           string `json:"fullName" yaml:"fullName"`
	DateOfBirth        string `json:"dateOfBirth,omitempty" yaml:"dateOfBirth"`
	PassportNumber     string `json:"passportNumber" yaml:"passportNumber"`
	Nationality        string `json:"nationality" yaml:"nationality"`
	VisaType           string `json:"visaType" yaml:"visaType"`
	IntendedTravelDate string `json:"intendedTravelDate" yaml:"intendedTravelDate"`
}

// EligibilityPolicy holds the thresholds the rule engine applies
type EligibilityPolicy struct {
	MinPassportValidityDays  int      `json:"minPassportValidityDays" yaml:"minPassportValidityDays"`
	MinApplicantAge          int      `json:"minApplicantAge" yaml:"minApplicantAge"`
	SupportedVisaTypes       []string `json:"supportedVisaTypes" yaml:"supportedVisaTypes"`
	BlacklistedNationalities []string `json:"blacklistedNationalities" yaml:"blacklistedNationalities"`
	RequireNameMatch         bool     `json:"requireNameMatch" yaml:"requireNameMatch"`
	RequirePassportMatch     bool     `json:"requirePassportMatch" yaml:"requirePassportMatch"`
	RequireMrz               bool     `json:"requireMrz" yaml:"requireMrz"`
	MinFieldConfidence       int      `json:"minFieldConfidence" yaml:"minFieldConfidence"`
}

// DefaultEligibilityPolicy returns a fresh copy of the fallback policy.
func DefaultEligibilityPolicy() EligibilityPolicy {
	return EligibilityPolicy{
		MinPassportValidityDays:  180,
		MinApplicantAge:          18,
		SupportedVisaTypes:       []string{"tourist", "business", "student", "work", "transit"},
		BlacklistedNationalities: []string{},
		RequireNameMatch:         true,
		RequirePassportMatch:     true,
		RequireMrz:               true,
		MinFieldConfidence:       60,
	}
}

// CheckStatus is the outcome of one validation rule
type CheckStatus string

const (
	CheckPass    CheckStatus = "pass"
	CheckFail    CheckStatus = "fail"
	CheckWarning CheckStatus = "warning"
	CheckUnknown CheckStatus = "unknown"
)

// ValidationCheck is one entry of the audit trail
type ValidationCheck struct {
	ID         string      `json:"id"`
	Label      string      `json:"label"`
	Status     CheckStatus `json:"status"`
	Details    string      `json:"details"`
	Confidence int         `json:"confidence"`
}

// DecisionStatus is the final eligibility outcome
type DecisionStatus string

const (
	DecisionApproved     DecisionStatus = "approved"
	DecisionManualReview DecisionStatus = "manual_review"
	DecisionRejected     DecisionStatus = "rejected"
	DecisionUnknown      DecisionStatus = "unknown"
)

// EligibilityDecision is derived from the check sequence, never edited by hand
type EligibilityDecision struct {
	Status     DecisionStatus `json:"status"`
	Reasons    []string       `json:"reasons"`
	Confidence int            `json:"confidence"`
}

// DocumentStatus reports how acquisition went for one uploaded document
type DocumentStatus string

const (
	DocumentOK      DocumentStatus = "ok"
	DocumentEmpty   DocumentStatus = "empty"
	DocumentTimeout DocumentStatus = "timeout"
	DocumentError   DocumentStatus = "error"
)

// DocumentSummary is the per-document acquisition report
type DocumentSummary struct {
	Index     int            `json:"index"`
	Status    DocumentStatus `json:"status"`
	MrzFormat MrzFormat      `json:"mrzFormat"`
	Error     string         `json:"error,omitempty"`
}

// VerificationResponse is the aggregate returned by Evaluate
type VerificationResponse struct {
	Fields             map[string]ExtractedField `json:"fields"`
	Mrz                *MrzBlock                 `json:"mrz,omitempty"`
	Barcode            *BarcodeResult            `json:"barcode,omitempty"`
	Checks             []ValidationCheck         `json:"checks"`
	Decision           EligibilityDecision       `json:"decision"`
	RecommendedActions []string                  `json:"recommendedActions"`
	Documents          []DocumentSummary         `json:"documents"`
	RawText            string                    `json:"rawText"`
	TimingMs           int64                     `json:"timingMs"`
}
