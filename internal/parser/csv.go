package parser

import (
	"encoding/csv"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/dgallion1/scrollnav/internal/outline"
)

// csvBatchSize is the number of data rows per section.
const csvBatchSize = 20

// CSVParser handles CSV files. The first row is the header; data rows are
// grouped into "Rows a-b" sections, each rendered as a table.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*outline.Outline, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	o := &outline.Outline{Title: titleFromFilename(filename)}
	if len(records) == 0 {
		return o, nil
	}

	headers := records[0]
	dataRows := records[1:]

	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))
		o.Sections = append(o.Sections, &outline.Section{
			Label: fmt.Sprintf("Rows %d-%d", i+2, end+1), // 1-indexed, skip header
			Body:  csvTable(headers, dataRows[i:end]),
		})
	}

	return o, nil
}

func csvTable(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("<table>\n<thead><tr>")
	for _, h := range headers {
		b.WriteString("<th>" + html.EscapeString(h) + "</th>")
	}
	b.WriteString("</tr></thead>\n<tbody>\n")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>" + html.EscapeString(cell) + "</td>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>\n")
	return b.String()
}
