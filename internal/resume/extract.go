// Package resume extracts plain text from uploaded resume files so
// the model service only ever sees text over the bus.
package resume

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MaxFileSize caps uploads; anything bigger is rejected at intake.
const MaxFileSize = 10 << 20 // 10 MiB

var ErrUnsupportedType = errors.New("unsupported resume file type")

// ExtractText returns the text content of an uploaded resume. PDF and
// plain text are supported; the content type decides the path.
func ExtractText(r io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}
	if len(data) > MaxFileSize {
		return "", fmt.Errorf("resume exceeds %d bytes", MaxFileSize)
	}

	switch {
	case strings.Contains(contentType, "pdf"):
		return extractPDF(data)
	case strings.HasPrefix(contentType, "text/"), contentType == "":
		return strings.TrimSpace(string(data)), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// skip unreadable pages rather than failing the upload
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", errors.New("no extractable text in pdf")
	}
	return out, nil
}
