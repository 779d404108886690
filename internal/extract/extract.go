// Package extract reads plain text out of content files.
package extract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/tgassist/tgassist/internal/domain"
)

// Supported extensions.
const (
	ExtText = ".txt"
	ExtPDF  = ".pdf"
)

// Supported reports whether the file extension can be extracted.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtText, ExtPDF:
		return true
	default:
		return false
	}
}

// Stem returns the file name without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Text returns the text content of a .txt or .pdf file.
func Text(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtText:
		return readText(path)
	case ExtPDF:
		return readPDF(path)
	default:
		return "", fmt.Errorf("%s: %w", path, domain.ErrUnsupportedFile)
	}
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not valid UTF-8: %w", path, domain.ErrUnsupportedFile)
	}
	return string(data), nil
}

func readPDF(path string) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", path, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return buf.String(), nil
}
