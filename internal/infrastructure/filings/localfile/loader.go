// Package localfile loads filings from a directory instead of EDGAR, for
// offline runs and batch analysis of files already on disk. The file name
// stands in for the accession.
package localfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

type Loader struct {
	dir string
}

func New(dir string) *Loader {
	return &Loader{dir: dir}
}

// Fetch reads one file. The identifier is a file name relative to the
// loader's directory, or an absolute path.
func (l *Loader) Fetch(_ context.Context, identifier, filingTypeHint string) (*domain.Filing, error) {
	name := strings.TrimSpace(identifier)
	if name == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "load local filing", errors.New("empty file name"))
	}

	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.dir, name)
	}

	text, err := readFiling(path)
	if err != nil {
		return nil, err
	}

	form := strings.TrimSpace(filingTypeHint)
	if form == "" {
		form = "10-K"
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	return &domain.Filing{
		CIK:         domain.NormalizeCIK("0"),
		Accession:   accessionFromStem(stem),
		FilingType:  form,
		CompanyName: stem,
		SourceURL:   "file://" + path,
		RawText:     text,
	}, nil
}

func readFiling(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".htm", ".html":
		return readTextFile(path)
	case ".pdf":
		return readPDFFile(path)
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "load local filing",
			fmt.Errorf("unsupported file type %q", filepath.Ext(path)))
	}
}

func readTextFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.WrapError(domain.ErrFilingNotFound, "load local filing", err)
		}
		return "", fmt.Errorf("read local filing: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", domain.WrapError(domain.ErrInvalidInput, "load local filing",
			fmt.Errorf("%s is not valid UTF-8", filepath.Base(path)))
	}
	return string(raw), nil
}

func readPDFFile(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.WrapError(domain.ErrFilingNotFound, "load local filing", err)
		}
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

// accessionFromStem keeps the stem recognizable while squeezing it into an
// identifier that is safe in URLs, payloads and file names.
func accessionFromStem(stem string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, stem)
	return strings.Trim(cleaned, "-")
}
