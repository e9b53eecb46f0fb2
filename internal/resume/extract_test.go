package resume

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractPlainText(t *testing.T) {
	got, err := ExtractText(strings.NewReader("  hello resume  \n"), "text/plain")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != "hello resume" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractNoContentTypeFallsBackToText(t *testing.T) {
	got, err := ExtractText(strings.NewReader("raw bytes"), "")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != "raw bytes" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	_, err := ExtractText(strings.NewReader("GIF89a"), "image/gif")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestExtractRejectsOversizedUpload(t *testing.T) {
	huge := strings.NewReader(strings.Repeat("a", MaxFileSize+1))
	if _, err := ExtractText(huge, "text/plain"); err == nil {
		t.Fatal("oversized upload accepted")
	}
}

func TestExtractBadPDF(t *testing.T) {
	if _, err := ExtractText(strings.NewReader("not a pdf"), "application/pdf"); err == nil {
		t.Fatal("garbage pdf accepted")
	}
}
