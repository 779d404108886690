package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tgassist/tgassist/internal/domain"
)

func TestSupported(t *testing.T) {
	tests := map[string]bool{
		"a.txt":         true,
		"b.PDF":         true,
		"c.docx":        false,
		"noext":         false,
		"dir/lesson.md": false,
	}
	for name, want := range tests {
		if got := Supported(name); got != want {
			t.Errorf("Supported(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestStem(t *testing.T) {
	if got := Stem("/data/pdf/lesson_01.pdf"); got != "lesson_01" {
		t.Errorf("unexpected stem %q", got)
	}
	if got := Stem("notes.v2.txt"); got != "notes.v2" {
		t.Errorf("unexpected stem %q", got)
	}
}

func TestText_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lesson.txt")
	if err := os.WriteFile(path, []byte("Дыхательная практика"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := Text(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Дыхательная практика" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestText_InvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0xfd}, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Text(path); !errors.Is(err, domain.ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile, got %v", err)
	}
}

func TestText_Unsupported(t *testing.T) {
	if _, err := Text("slides.pptx"); !errors.Is(err, domain.ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile, got %v", err)
	}
}

func TestText_BrokenPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("not a pdf at all"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Text(path); err == nil {
		t.Fatal("expected error for a broken pdf")
	}
}

func TestText_MissingFile(t *testing.T) {
	if _, err := Text(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error")
	}
}
