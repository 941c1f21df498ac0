package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Each paragraph becomes one line; empty
// paragraphs stay as blank lines so section breaks survive. Table cells
// are read row by row, one line per cell paragraph.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}

	var lines []string
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			lines = append(lines, docxParagraphText(v))
		case *docx.Table:
			lines = append(lines, docxTableLines(v)...)
		}
	}
	return strings.Join(lines, "\n"), nil
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

func docxTableLines(tbl *docx.Table) []string {
	var lines []string
	for _, row := range tbl.TableRows {
		for _, cell := range row.TableCells {
			for _, para := range cell.Paragraphs {
				if t := docxParagraphText(para); t != "" {
					lines = append(lines, t)
				}
			}
		}
	}
	return lines
}
