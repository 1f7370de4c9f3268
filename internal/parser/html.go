package parser

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// ParseHTML parses a full HTML page. Markup is kept as authored.
func ParseHTML(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}
