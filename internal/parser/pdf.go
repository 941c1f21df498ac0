package parser

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if enabled.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	text, err := extractPDFText(data)
	if err != nil && p.FallbackPdftotext {
		text, err = extractPdftotext(data)
	}
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	return text, nil
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var pages []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		lines, err := pageLines(page)
		if err != nil {
			continue
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return strings.Join(pages, "\n"), nil
}

const (
	// Glyphs whose baselines differ by less than this many points share a line.
	baselineTolerance = 2.0
	// A horizontal gap wider than this fraction of the font size separates words.
	wordGapRatio = 0.25
)

type textLine struct {
	y      float64
	glyphs []pdflib.Text
}

// pageLines rebuilds the page's lines from glyph positions, top to bottom.
// Within a line glyphs keep content-stream order.
func pageLines(page pdflib.Page) (lines []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read page content: %v", r)
		}
	}()

	var rows []*textLine
	for _, g := range page.Content().Text {
		if g.S == "\n" {
			continue
		}
		var row *textLine
		for _, r := range rows {
			if math.Abs(r.y-g.Y) < baselineTolerance {
				row = r
				break
			}
		}
		if row == nil {
			row = &textLine{y: g.Y}
			rows = append(rows, row)
		}
		row.glyphs = append(row.glyphs, g)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	lines = make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, joinGlyphs(r.glyphs))
	}
	return lines, nil
}

func joinGlyphs(glyphs []pdflib.Text) string {
	var b strings.Builder
	for i, g := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			gap := g.X - (prev.X + prev.W)
			if gap > wordGapRatio*g.FontSize && prev.S != " " && g.S != " " {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
	}
	return strings.TrimRight(b.String(), " ")
}

// extractPdftotext shells out to poppler's pdftotext, which needs a file path.
func extractPdftotext(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "cvparse-pdf-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmpPath, "-").Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return strings.ReplaceAll(string(out), "\f", "\n"), nil
}
