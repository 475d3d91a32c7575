package domain

import "time"

// ImagePayload carries either a remote URL or inline bytes.
type ImagePayload struct {
	URL      string
	Data     []byte
	MimeType string
}

// ReferenceValues are the declared mover facts the provider is asked to
// cross-check against the document.
type ReferenceValues struct {
	CompanyName string `json:"company_name,omitempty"`
	SIRET       string `json:"siret,omitempty"`
	ManagerName string `json:"manager_name,omitempty"`
	Address     string `json:"address,omitempty"`
}

type ExtractionRequest struct {
	DocumentType DocumentType
	Image        ImagePayload
	Reference    ReferenceValues
}

// ExtractedFields is the canonical field set, whatever the provider returned.
type ExtractedFields struct {
	DocumentNumber   string     `json:"document_number,omitempty"`
	FirstName        string     `json:"first_name,omitempty"`
	LastName         string     `json:"last_name,omitempty"`
	HolderName       string     `json:"holder_name,omitempty"`
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`
	Nationality      string     `json:"nationality,omitempty"`
	IssueDate        *time.Time `json:"issue_date,omitempty"`
	ExpiryDate       *time.Time `json:"expiry_date,omitempty"`
	BusinessName     string     `json:"business_name,omitempty"`
	SIRET            string     `json:"siret,omitempty"`
	LegalStatus      string     `json:"legal_status,omitempty"`
	Address          string     `json:"address,omitempty"`
	ManagerName      string     `json:"manager_name,omitempty"`
	PolicyNumber     string     `json:"policy_number,omitempty"`
	InsuranceCompany string     `json:"insurance_company,omitempty"`
	InsuredName      string     `json:"insured_name,omitempty"`
	CoverageAmount   string     `json:"coverage_amount,omitempty"`
	Categories       []string   `json:"categories,omitempty"`
	LicensePlate     string     `json:"license_plate,omitempty"`
	OwnerName        string     `json:"owner_name,omitempty"`
}

// FullName prefers the explicit holder name over first/last name parts.
func (f ExtractedFields) FullName() string {
	if f.HolderName != "" {
		return f.HolderName
	}
	switch {
	case f.FirstName != "" && f.LastName != "":
		return f.FirstName + " " + f.LastName
	case f.FirstName != "":
		return f.FirstName
	default:
		return f.LastName
	}
}

// DiscriminatingValue returns the value compared across owners for duplicate
// detection, empty when the type carries none.
func (f ExtractedFields) DiscriminatingValue(docType DocumentType) string {
	switch {
	case docType.IsIdentityClass():
		return f.DocumentNumber
	case docType == DocumentKBIS:
		return f.SIRET
	default:
		return ""
	}
}

type ExtractionResult struct {
	DocumentType DocumentType    `json:"document_type"`
	Fields       ExtractedFields `json:"fields"`
	Verified     bool            `json:"verified"`
	Confidence   float64         `json:"confidence"`
	IsValid      bool            `json:"is_valid"`
	Findings     []string        `json:"findings,omitempty"`
	Anomalies    []string        `json:"anomalies,omitempty"`
	Warnings     []string        `json:"warnings"`
	Degraded     bool            `json:"degraded"`
}

const (
	DefaultExtractionConfidence = 0.95
	ExpiredDocumentConfidence   = 0.3
)
