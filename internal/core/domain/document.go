package domain

import (
	"strings"
	"time"
)

type DocumentType string

const (
	DocumentKBIS              DocumentType = "kbis"
	DocumentInsurance         DocumentType = "insurance"
	DocumentIdentity          DocumentType = "identity"
	DocumentPassport          DocumentType = "passport"
	DocumentDriverLicense     DocumentType = "driver_license"
	DocumentTransportLicense  DocumentType = "transport_license"
	DocumentTruckRegistration DocumentType = "truck_registration"
)

// IsIdentityClass reports whether documents of this type are compared by document number.
func (t DocumentType) IsIdentityClass() bool {
	switch t {
	case DocumentIdentity, DocumentPassport, DocumentDriverLicense:
		return true
	default:
		return false
	}
}

// Label is the French name used in user-facing messages.
func (t DocumentType) Label() string {
	switch t {
	case DocumentKBIS:
		return "KBIS"
	case DocumentInsurance:
		return "assurance RC PRO"
	case DocumentIdentity:
		return "pièce d'identité"
	case DocumentPassport:
		return "passeport"
	case DocumentDriverLicense:
		return "permis de conduire"
	case DocumentTransportLicense:
		return "licence de transport"
	case DocumentTruckRegistration:
		return "carte grise"
	default:
		return string(t)
	}
}

type DocumentSide string

const (
	SideNone  DocumentSide = ""
	SideRecto DocumentSide = "recto"
	SideVerso DocumentSide = "verso"
)

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentApproved DocumentStatus = "approved"
	DocumentRejected DocumentStatus = "rejected"
)

// DocumentSource names the table a document row was read from.
type DocumentSource string

const (
	SourceMoverDocuments        DocumentSource = "mover_documents"
	SourceVerificationDocuments DocumentSource = "verification_documents"
)

type Document struct {
	ID                 string         `json:"id"`
	OwnerID            string         `json:"owner_id"`
	Type               DocumentType   `json:"document_type"`
	Side               DocumentSide   `json:"side,omitempty"`
	Name               string         `json:"document_name"`
	StoragePath        string         `json:"storage_path,omitempty"`
	URL                string         `json:"document_url,omitempty"`
	VerificationStatus DocumentStatus `json:"verification_status"`
	ExpirationDate     *time.Time     `json:"expiration_date,omitempty"`
	Source             DocumentSource `json:"source"`
	CreatedAt          time.Time      `json:"created_at"`
}

// Location returns the URL when present, the storage key otherwise.
func (d Document) Location() string {
	if strings.TrimSpace(d.URL) != "" {
		return d.URL
	}
	return d.StoragePath
}

// NormalizeDocumentType maps the raw vocabularies of both document tables and
// of the verification API onto the canonical type. The side is derived from
// the raw type or, for bare identity types, from the document location.
func NormalizeDocumentType(raw, location string) (DocumentType, DocumentSide, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "kbis", "business_license":
		return DocumentKBIS, SideNone, true
	case "insurance", "rc_pro":
		return DocumentInsurance, SideNone, true
	case "identity_recto":
		return DocumentIdentity, SideRecto, true
	case "identity_verso":
		return DocumentIdentity, SideVerso, true
	case "identity", "id_card":
		return DocumentIdentity, sideFromLocation(location), true
	case "passport":
		return DocumentPassport, sideFromLocation(location), true
	case "driver_license":
		return DocumentDriverLicense, SideNone, true
	case "license", "transport_license":
		return DocumentTransportLicense, SideNone, true
	case "truck_registration", "registration_card", "carte_grise":
		return DocumentTruckRegistration, SideNone, true
	default:
		return "", SideNone, false
	}
}

func sideFromLocation(location string) DocumentSide {
	if strings.Contains(strings.ToLower(location), "verso") {
		return SideVerso
	}
	return SideRecto
}
