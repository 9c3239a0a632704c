package services

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// ContactInfo is the contact triple extracted from an uploaded resume, plus
// the raw text it came from.
type ContactInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	RawText string `json:"raw_text"`
}

// ResumeService extracts candidate contact details from uploaded resume
// files. PDF and DOCX are supported; anything else is rejected with
// ErrUnsupportedFormat.
type ResumeService struct {
	emailRe *regexp.Regexp
	phoneRe *regexp.Regexp
}

func NewResumeService() *ResumeService {
	return &ResumeService{
		emailRe: regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
		phoneRe: regexp.MustCompile(`(\+?1[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})`),
	}
}

// ExtractContactInfo parses the uploaded file and pulls name, email and
// phone out of its text. ext is the lowercase file extension including the
// dot, e.g. ".pdf".
func (s *ResumeService) ExtractContactInfo(data []byte, ext string) (*ContactInfo, error) {
	var (
		text string
		err  error
	)

	switch strings.ToLower(ext) {
	case ".pdf":
		text, err = extractPDFText(data)
	case ".docx":
		text, err = extractDocxText(data)
	default:
		return nil, fmt.Errorf("%w: %q, please upload a PDF or DOCX file", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		slog.Error("Resume text extraction failed", "error", err, "ext", ext, "size", len(data))
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	info := &ContactInfo{
		Name:    s.extractName(text),
		Email:   s.extractEmail(text),
		Phone:   s.extractPhone(text),
		RawText: text,
	}

	slog.Info("Resume parsed", "ext", ext, "text_length", len(text), "email_found", info.Email != "")
	return info, nil
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var textBuilder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, _ := page.GetPlainText(nil)
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return doc.Editable().GetContent(), nil
}

// extractName takes the first of the opening ten lines that looks like a
// person's name: short, no digits, no email.
func (s *ResumeService) extractName(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) <= 2 || len(line) >= 50 {
			continue
		}
		if strings.ContainsAny(line, "0123456789") || strings.Contains(line, "@") {
			continue
		}
		return line
	}
	return ""
}

func (s *ResumeService) extractEmail(text string) string {
	return s.emailRe.FindString(text)
}

func (s *ResumeService) extractPhone(text string) string {
	match := s.phoneRe.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return strings.Join(match[1:], "")
}
