package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/scrollnav/internal/outline"
	"golang.org/x/net/html"
)

// ErrUnsupported is returned for file extensions no parser handles.
var ErrUnsupported = errors.New("unsupported file extension")

// Parser converts a non-HTML source into an outline.
type Parser interface {
	Parse(r io.Reader, filename string) (*outline.Outline, error)
}

// Options tune how sources are split into sections.
type Options struct {
	// SectionLevel is the deepest heading level that opens a new section.
	SectionLevel int
	// PDFFallbackPdftotext retries PDF extraction with the pdftotext binary.
	PDFFallbackPdftotext bool
}

func (o Options) sectionLevel() int {
	if o.SectionLevel < 1 || o.SectionLevel > 6 {
		return 2
	}
	return o.SectionLevel
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the outline parser for a filename. HTML has none: it is
// parsed directly by Document.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return &MarkdownParser{SectionLevel: opts.sectionLevel()}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{SectionLevel: opts.sectionLevel()}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// IsHTML reports whether filename is an HTML page.
func IsHTML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".html" || ext == ".htm"
}

// Document parses any supported source into an HTML document tree.
func Document(r io.Reader, filename string, opts Options, render outline.RenderOptions) (*html.Node, error) {
	if IsHTML(filename) {
		return ParseHTML(r)
	}
	p, err := ForFile(filename, opts)
	if err != nil {
		return nil, err
	}
	o, err := p.Parse(r, filename)
	if err != nil {
		return nil, err
	}
	return o.Render(render)
}

// titleFromFilename strips the directory and extension.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
