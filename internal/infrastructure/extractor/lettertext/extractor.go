package lettertext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"

	"github.com/kirillkom/mover-verification/internal/core/domain"
	"github.com/kirillkom/mover-verification/internal/core/ports"
)

// maxLetterSize bounds uploaded mission letters.
const maxLetterSize = 10 << 20

var _ ports.TextExtractor = (*Extractor)(nil)

// Extractor reads mission letters uploaded as PDF, HTML or plain text.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, filename string, body io.Reader) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxLetterSize+1))
	if err != nil {
		return "", fmt.Errorf("read letter: %w", err)
	}
	if len(raw) > maxLetterSize {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract letter", errors.New("letter exceeds 10MB"))
	}

	var text string
	switch {
	case isPDF(filename, raw):
		text, err = pdfText(raw)
	case isHTML(filename):
		text, err = htmlText(raw)
	default:
		if !utf8.Valid(raw) {
			return "", domain.WrapError(domain.ErrInvalidInput, "extract letter", fmt.Errorf("unsupported binary format: %s", filename))
		}
		text = string(raw)
	}
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract letter", err)
	}
	return strings.TrimSpace(text), nil
}

func isPDF(filename string, raw []byte) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf") || bytes.HasPrefix(raw, []byte("%PDF-"))
}

func isHTML(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".html", ".htm":
		return true
	default:
		return false
	}
}

func pdfText(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

// htmlText keeps visible text nodes, one per line.
func htmlText(raw []byte) (string, error) {
	z := html.NewTokenizer(bytes.NewReader(raw))
	var (
		lines []string
		skip  int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return strings.Join(lines, "\n"), nil
			}
			return "", fmt.Errorf("parse html: %w", z.Err())
		case html.StartTagToken:
			if name, _ := z.TagName(); isHiddenTag(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isHiddenTag(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			if line := strings.TrimSpace(string(z.Text())); line != "" {
				lines = append(lines, line)
			}
		}
	}
}

func isHiddenTag(name []byte) bool {
	switch string(name) {
	case "script", "style", "head":
		return true
	default:
		return false
	}
}
