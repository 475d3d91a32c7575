package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/mover-verification/internal/core/domain"
	"github.com/kirillkom/mover-verification/internal/core/ports"
)

var _ ports.DocumentExtractor = (*Extractor)(nil)

type Extractor struct {
	client *Client
}

func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

func (e *Extractor) Extract(ctx context.Context, req domain.ExtractionRequest) (domain.ExtractionResult, error) {
	image, err := imageReference(req.Image)
	if err != nil {
		return domain.ExtractionResult{}, err
	}

	messages := []chatMessage{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: []contentPart{
			{Type: "text", Text: buildExtractionPrompt(req.DocumentType, req.Reference)},
			{Type: "image_url", ImageURL: &imageURL{URL: image}},
		}},
	}
	content, err := e.client.completeJSON(ctx, "extract_document", e.client.visionModel, messages)
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	return parseExtraction(req.DocumentType, content)
}

// imageReference returns the URL passed to the vision model, inlining bytes
// as a data URL.
func imageReference(img domain.ImagePayload) (string, error) {
	if strings.TrimSpace(img.URL) != "" {
		return img.URL, nil
	}
	if len(img.Data) == 0 {
		return "", errEmptyImage
	}
	mime := img.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data), nil
}

type extractionPayload struct {
	IsValid        *bool          `json:"isValid"`
	Findings       []string       `json:"findings"`
	Anomalies      []string       `json:"anomalies"`
	ExpirationDate flexString     `json:"expirationDate"`
	Confidence     *float64       `json:"confidence"`
	Fields         map[string]any `json:"fields"`
}

// flexString accepts strings, numbers and null.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexString(strings.TrimSpace(str))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("unsupported value %s", data)
	}
	*s = flexString(num.String())
	return nil
}

func parseExtraction(docType domain.DocumentType, content string) (domain.ExtractionResult, error) {
	raw := []byte(strings.TrimSpace(content))

	var payload extractionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("%w: decode extraction: %v", errMalformedOutput, err)
	}
	// Some models answer with a flat object instead of a nested "fields" one.
	if payload.Fields == nil {
		var flat map[string]any
		if err := json.Unmarshal(raw, &flat); err == nil {
			payload.Fields = flat
		}
	}

	fields, err := canonicalFields(payload.Fields)
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	if fields.ExpiryDate == nil && payload.ExpirationDate != "" {
		d, err := parseDate(string(payload.ExpirationDate))
		if err != nil {
			return domain.ExtractionResult{}, fmt.Errorf("%w: expirationDate: %v", errMalformedOutput, err)
		}
		fields.ExpiryDate = d
	}

	res := domain.ExtractionResult{
		DocumentType: docType,
		Fields:       fields,
		IsValid:      true,
		Confidence:   domain.DefaultExtractionConfidence,
		Findings:     payload.Findings,
		Anomalies:    payload.Anomalies,
	}
	if payload.IsValid != nil {
		res.IsValid = *payload.IsValid
	}
	if payload.Confidence != nil {
		res.Confidence = *payload.Confidence
	}
	return res, nil
}

// fieldAliases lists the provider keys mapped onto each canonical field,
// in priority order: the first alias carrying a value wins.
var fieldAliases = []struct {
	key       string
	canonical string
}{
	{"documentNumber", "document_number"},
	{"passportNumber", "document_number"},
	{"licenseNumber", "document_number"},
	{"idNumber", "document_number"},
	{"firstName", "first_name"},
	{"lastName", "last_name"},
	{"holderName", "holder_name"},
	{"fullName", "holder_name"},
	{"dateOfBirth", "date_of_birth"},
	{"nationality", "nationality"},
	{"issueDate", "issue_date"},
	{"startDate", "issue_date"},
	{"registrationDate", "issue_date"},
	{"expiryDate", "expiry_date"},
	{"expirationDate", "expiry_date"},
	{"endDate", "expiry_date"},
	{"businessName", "business_name"},
	{"companyName", "business_name"},
	{"siret", "siret"},
	{"legalStatus", "legal_status"},
	{"address", "address"},
	{"managerName", "manager_name"},
	{"policyNumber", "policy_number"},
	{"insuranceCompany", "insurance_company"},
	{"insurer", "insurance_company"},
	{"insuredName", "insured_name"},
	{"coverageAmount", "coverage_amount"},
	{"categories", "categories"},
	{"licensePlate", "license_plate"},
	{"ownerName", "owner_name"},
}

func canonicalFields(raw map[string]any) (domain.ExtractedFields, error) {
	var f domain.ExtractedFields
	filled := make(map[string]bool, len(fieldAliases))
	for _, alias := range fieldAliases {
		key, canonical := alias.key, alias.canonical
		value, ok := raw[key]
		if !ok || filled[canonical] {
			continue
		}
		if canonical == "categories" {
			f.Categories = stringList(value)
			filled[canonical] = len(f.Categories) > 0
			continue
		}
		text := scalarString(value)
		if text == "" {
			continue
		}
		filled[canonical] = true
		switch canonical {
		case "date_of_birth", "issue_date", "expiry_date":
			d, err := parseDate(text)
			if err != nil {
				return domain.ExtractedFields{}, fmt.Errorf("%w: %s: %v", errMalformedOutput, key, err)
			}
			switch canonical {
			case "date_of_birth":
				f.DateOfBirth = d
			case "issue_date":
				f.IssueDate = d
			default:
				f.ExpiryDate = d
			}
		case "document_number":
			f.DocumentNumber = text
		case "first_name":
			f.FirstName = text
		case "last_name":
			f.LastName = text
		case "holder_name":
			f.HolderName = text
		case "nationality":
			f.Nationality = text
		case "business_name":
			f.BusinessName = text
		case "siret":
			f.SIRET = text
		case "legal_status":
			f.LegalStatus = text
		case "address":
			f.Address = text
		case "manager_name":
			f.ManagerName = text
		case "policy_number":
			f.PolicyNumber = text
		case "insurance_company":
			f.InsuranceCompany = text
		case "insured_name":
			f.InsuredName = text
		case "coverage_amount":
			f.CoverageAmount = text
		case "license_plate":
			f.LicensePlate = text
		case "owner_name":
			f.OwnerName = text
		}
	}
	return f, nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", time.RFC3339, "2006-01-02T15:04:05"}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", raw)
}
