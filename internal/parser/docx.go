package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/scrollnav/internal/outline"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Paragraphs styled Heading1..SectionLevel
// open labelled sections.
type DOCXParser struct {
	SectionLevel int
}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*outline.Outline, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "scrollnav-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	sectionLevel := p.SectionLevel
	if sectionLevel <= 0 {
		sectionLevel = 2
	}

	o := &outline.Outline{Title: titleFromFilename(filename)}
	current := &outline.Section{}
	var body strings.Builder

	flush := func() {
		current.Body = body.String()
		if current.Label != "" || current.Body != "" {
			o.Sections = append(o.Sections, current)
		}
		body.Reset()
	}

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}

		level := docxHeadingLevel(para)
		switch {
		case level > 0 && level <= sectionLevel:
			flush()
			current = &outline.Section{Label: text}
			body.WriteString(outline.Heading(level, text))
		case level > 0:
			body.WriteString(outline.Heading(level, text))
		default:
			body.WriteString(outline.Paragraphs(text))
		}
	}
	flush()

	return o, nil
}

// docxHeadingLevel maps "Heading1" / "heading 1" styles to 1..6.
func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") || len(style) != len("heading")+1 {
		return 0
	}
	d := style[len(style)-1]
	if d < '1' || d > '6' {
		return 0
	}
	return int(d - '0')
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
