package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/kirillkom/mover-verification/internal/core/domain"
	"github.com/kirillkom/mover-verification/internal/core/ports"
)

var errExtractorNotConfigured = errors.New("extractor not configured")

// ExtractDocument runs the extractor and folds every provider failure into a
// degraded result. It never returns an error and has no side effects.
func ExtractDocument(ctx context.Context, extractor ports.DocumentExtractor, req domain.ExtractionRequest, now time.Time) domain.ExtractionResult {
	if extractor == nil {
		return degradedExtraction(req.DocumentType, errExtractorNotConfigured)
	}
	res, err := extractor.Extract(ctx, req)
	if err != nil {
		return degradedExtraction(req.DocumentType, err)
	}

	res.DocumentType = req.DocumentType
	res.Verified = true
	res.Degraded = false
	res.Confidence = clampConfidence(res.Confidence)
	if res.Fields.ExpiryDate != nil && domain.DaysUntil(*res.Fields.ExpiryDate, now) < 0 {
		res.Verified = false
		res.Confidence = min(res.Confidence, domain.ExpiredDocumentConfidence)
		res.Warnings = append(res.Warnings, "Document expiré")
	}
	if res.Warnings == nil {
		res.Warnings = []string{}
	}
	return res
}

func degradedExtraction(docType domain.DocumentType, cause error) domain.ExtractionResult {
	return domain.ExtractionResult{
		DocumentType: docType,
		Verified:     false,
		Confidence:   0,
		Warnings:     []string{fmt.Sprintf("OCR failed: %s", cause.Error())},
		Degraded:     true,
	}
}

func clampConfidence(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// loadImage turns a document location into a provider payload. Remote URLs
// are passed through, storage keys are inlined.
func loadImage(ctx context.Context, storage ports.ObjectStorage, location string) (domain.ImagePayload, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return domain.ImagePayload{}, domain.WrapError(domain.ErrInvalidInput, "load image", errors.New("empty document location"))
	}
	if strings.HasPrefix(location, "https://") || strings.HasPrefix(location, "http://") {
		return domain.ImagePayload{URL: location}, nil
	}
	if storage == nil {
		return domain.ImagePayload{}, errors.New("object storage not configured")
	}

	rc, err := storage.Open(ctx, location)
	if err != nil {
		return domain.ImagePayload{}, fmt.Errorf("open stored document: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return domain.ImagePayload{}, fmt.Errorf("read stored document: %w", err)
	}
	return domain.ImagePayload{Data: data, MimeType: mimeTypeFor(location)}, nil
}

func mimeTypeFor(location string) string {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}

// extractLocation loads the document and extracts it. A document that cannot
// be loaded degrades the same way a provider failure does.
func extractLocation(
	ctx context.Context,
	extractor ports.DocumentExtractor,
	storage ports.ObjectStorage,
	docType domain.DocumentType,
	location string,
	ref domain.ReferenceValues,
	now time.Time,
) domain.ExtractionResult {
	img, err := loadImage(ctx, storage, location)
	if err != nil {
		return degradedExtraction(docType, err)
	}
	return ExtractDocument(ctx, extractor, domain.ExtractionRequest{
		DocumentType: docType,
		Image:        img,
		Reference:    ref,
	}, now)
}
