package openai

import (
	"fmt"
	"strings"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

const extractionSystemPrompt = "Tu es un expert en vérification de documents administratifs français. " +
	"Tu réponds uniquement avec un objet JSON valide, sans texte autour."

const answerShape = `Réponds en JSON avec:
{
  "isValid": boolean,
  "findings": string[],
  "anomalies": string[],
  "expirationDate": "YYYY-MM-DD" ou null,
  "confidence": number entre 0 et 1,
  "fields": { %s }
}`

func buildExtractionPrompt(docType domain.DocumentType, ref domain.ReferenceValues) string {
	var b strings.Builder
	switch docType {
	case domain.DocumentKBIS:
		b.WriteString("Analyse ce document KBIS et vérifie les éléments suivants:\n")
		writeReference(&b, "Nom de l'entreprise", ref.CompanyName)
		writeReference(&b, "SIRET", ref.SIRET)
		writeReference(&b, "Nom du gérant", ref.ManagerName)
		writeReference(&b, "Adresse", ref.Address)
		b.WriteString("Vérifie aussi que le document a moins de 3 mois.\n\n")
		fmt.Fprintf(&b, answerShape, `"businessName", "siret", "managerName", "address", "legalStatus", "registrationDate"`)
	case domain.DocumentInsurance:
		b.WriteString("Analyse cette attestation d'assurance RC Pro et vérifie les éléments suivants:\n")
		writeReference(&b, "Nom de l'assuré", ref.CompanyName)
		writeReference(&b, "SIRET", ref.SIRET)
		b.WriteString("Vérifie que l'assurance couvre bien l'activité de déménagement et qu'elle est en cours de validité.\n\n")
		fmt.Fprintf(&b, answerShape, `"policyNumber", "insuranceCompany", "insuredName", "coverageAmount", "startDate", "expiryDate"`)
	case domain.DocumentIdentity, domain.DocumentPassport, domain.DocumentDriverLicense:
		fmt.Fprintf(&b, "Analyse ce document (%s) et vérifie les éléments suivants:\n", docType.Label())
		writeReference(&b, "Nom du titulaire attendu", ref.ManagerName)
		b.WriteString("Vérifie que le document est authentique et en cours de validité.\n\n")
		fmt.Fprintf(&b, answerShape, `"documentNumber", "firstName", "lastName", "dateOfBirth", "nationality", "issueDate", "expiryDate", "categories"`)
	case domain.DocumentTransportLicense:
		b.WriteString("Analyse cette licence de transport de marchandises et vérifie les éléments suivants:\n")
		writeReference(&b, "Nom de l'entreprise", ref.CompanyName)
		writeReference(&b, "SIRET", ref.SIRET)
		b.WriteString("\n")
		fmt.Fprintf(&b, answerShape, `"licenseNumber", "businessName", "issueDate", "expiryDate"`)
	case domain.DocumentTruckRegistration:
		b.WriteString("Analyse ce certificat d'immatriculation (carte grise) et vérifie les éléments suivants:\n")
		writeReference(&b, "Titulaire attendu", ref.CompanyName)
		b.WriteString("\n")
		fmt.Fprintf(&b, answerShape, `"licensePlate", "ownerName", "registrationDate"`)
	default:
		fmt.Fprintf(&b, "Analyse ce document (%s).\n\n", docType)
		fmt.Fprintf(&b, answerShape, `"documentNumber", "expiryDate"`)
	}
	b.WriteString("\nLes dates sont au format YYYY-MM-DD. Les champs absents valent null.")
	return b.String()
}

func writeReference(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "- %s: \"%s\"\n", label, value)
}

const sentimentSystemPrompt = "You classify customer feedback. Return ONLY JSON."

func buildSentimentPrompt(comments string) string {
	return fmt.Sprintf(`Analyze these client comments about a moving service.
Return ONLY JSON: {"hasNegativeComments": boolean, "sentiment": "positive"|"neutral"|"negative", "issues": string[], "summary": string}

Comments:
"""
%s
"""`, strings.TrimSpace(comments))
}
