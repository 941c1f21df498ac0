package parser

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
)

// ErrUnsupported is returned for documents whose extension has no parser.
var ErrUnsupported = errors.New("unsupported file type")

// Parser converts raw document bytes into plain text.
type Parser interface {
	Parse(r io.Reader) (string, error)
}

// Registry maps lowercase file extensions (".pdf") to parsers.
type Registry map[string]Parser

// DefaultRegistry returns the parsers for the document types this service accepts.
func DefaultRegistry(pdfFallbackPdftotext bool) Registry {
	return Registry{
		".pdf":  &PDFParser{FallbackPdftotext: pdfFallbackPdftotext},
		".docx": &DOCXParser{},
	}
}

// ForReference returns the parser for a document reference, chosen by the
// extension of its path.
func (r Registry) ForReference(ref string) (Parser, error) {
	ext := Extension(ref)
	if p, ok := r[ext]; ok {
		return p, nil
	}
	if ext == "" {
		return nil, fmt.Errorf("%w: no file extension", ErrUnsupported)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
}

// Extension returns the lowercase extension of a document reference.
// For URLs the query string and fragment are ignored.
func Extension(ref string) string {
	p := ref
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.ToLower(path.Ext(p))
}
