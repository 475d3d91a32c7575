package lettertext

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

func TestExtractPlainText(t *testing.T) {
	text, err := NewExtractor().Extract(context.Background(), "lettre.txt", strings.NewReader("  Lettre de mission du 12/09/2026\n"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "Lettre de mission du 12/09/2026" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractHTMLDropsMarkupAndScripts(t *testing.T) {
	page := `<html><head><title>x</title><style>p{color:red}</style></head>
<body><h1>Lettre de mission</h1><p>Adresse: 12 rue de la Paix</p><script>alert(1)</script><p>Prestation: déménagement</p></body></html>`
	text, err := NewExtractor().Extract(context.Background(), "lettre.HTML", strings.NewReader(page))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := "Lettre de mission\nAdresse: 12 rue de la Paix\nPrestation: déménagement"
	if text != want {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractRejectsBinary(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), "scan.bin", bytes.NewReader([]byte{0xff, 0xfe, 0x00, 0x81}))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestExtractRejectsCorruptPDF(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), "lettre.pdf", strings.NewReader("%PDF-1.4 not really"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
