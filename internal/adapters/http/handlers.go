package httpadapter

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

type cardValidationRequest struct {
	CardNumber     string           `json:"cardNumber" validate:"max=256"`
	CardholderName string           `json:"cardholderName" validate:"max=256"`
	ExpiryDate     string           `json:"expiryDate" validate:"max=256"`
	CVV            string           `json:"cvv" validate:"max=256"`
	CustomerID     string           `json:"customerId" validate:"max=256"`
	Amount         *decimal.Decimal `json:"amount"`
}

// validateCard answers incomplete cards with the refusal body and a 400,
// like any other screening result.
func (rt *Router) validateCard(w http.ResponseWriter, r *http.Request) {
	var req cardValidationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := rt.services.Cards.Validate(r.Context(), domain.CardInput{
		CardNumber:     req.CardNumber,
		CardholderName: req.CardholderName,
		ExpiryDate:     req.ExpiryDate,
		CVV:            req.CVV,
		CustomerID:     req.CustomerID,
		Amount:         req.Amount,
	})
	if err != nil {
		if domain.IsKind(err, domain.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, result)
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type documentVerificationRequest struct {
	DocumentURL  string `json:"documentUrl" validate:"required_without=StoragePath,max=2048"`
	StoragePath  string `json:"storagePath" validate:"max=512"`
	DocumentType string `json:"documentType" validate:"required,max=64"`
	UserID       string `json:"userId" validate:"required,max=64"`
	DocumentID   string `json:"documentId" validate:"max=64"`
}

func (rt *Router) verifyDocument(w http.ResponseWriter, r *http.Request) {
	var req documentVerificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := rt.services.Documents.Verify(r.Context(), domain.DocumentVerificationInput{
		OwnerID:      req.UserID,
		DocumentType: req.DocumentType,
		DocumentURL:  req.DocumentURL,
		StoragePath:  req.StoragePath,
		DocumentID:   req.DocumentID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) verifyMover(w http.ResponseWriter, r *http.Request) {
	moverID := chi.URLParam(r, "moverID")
	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		if err := rt.services.Movers.RequestAsync(r.Context(), moverID); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "mover_id": moverID})
		return
	}

	report, err := rt.services.Movers.Verify(r.Context(), moverID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) latestReport(w http.ResponseWriter, r *http.Request) {
	report, err := rt.services.Movers.GetLatest(r.Context(), chi.URLParam(r, "moverID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) listReports(w http.ResponseWriter, r *http.Request) {
	limit := defaultReportsLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer", RequestID: requestIDFromContext(r.Context())})
			return
		}
		limit = n
	}

	reports, err := rt.services.Movers.ListReports(r.Context(), chi.URLParam(r, "moverID"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (rt *Router) exportReports(w http.ResponseWriter, r *http.Request) {
	moverID := chi.URLParam(r, "moverID")
	var buf bytes.Buffer
	if err := rt.services.Movers.ExportReports(r.Context(), moverID, &buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "verification-"+moverID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type missionLetterRequest struct {
	PaymentID       string `json:"paymentId" validate:"required,max=64"`
	Content         string `json:"missionLetterContent" validate:"required"`
	ClientComments  string `json:"clientComments"`
	ClientSignature bool   `json:"clientSignature"`
}

func (rt *Router) analyzeMissionLetter(w http.ResponseWriter, r *http.Request) {
	var req missionLetterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	analysis, err := rt.services.Letters.Analyze(r.Context(), domain.MissionLetterInput{
		PaymentID:       req.PaymentID,
		Content:         req.Content,
		ClientComments:  req.ClientComments,
		ClientSignature: req.ClientSignature,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

type missionLetterFileForm struct {
	PaymentID       string `json:"paymentId" validate:"required,max=64"`
	ClientComments  string `json:"clientComments"`
	ClientSignature bool   `json:"clientSignature"`
}

func (rt *Router) analyzeMissionLetterFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form", RequestID: requestIDFromContext(r.Context())})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "multipart field 'file' is required", RequestID: requestIDFromContext(r.Context())})
		return
	}
	defer file.Close()

	signed, _ := strconv.ParseBool(r.FormValue("clientSignature"))
	form := missionLetterFileForm{
		PaymentID:       strings.TrimSpace(r.FormValue("paymentId")),
		ClientComments:  r.FormValue("clientComments"),
		ClientSignature: signed,
	}
	if !validateRequest(w, r, &form) {
		return
	}

	analysis, err := rt.services.Letters.AnalyzeFile(r.Context(), domain.MissionLetterInput{
		PaymentID:       form.PaymentID,
		ClientComments:  form.ClientComments,
		ClientSignature: form.ClientSignature,
	}, header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (rt *Router) runExpirationSweep(w http.ResponseWriter, r *http.Request) {
	summary, err := rt.services.Sweeper.Run(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
