package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Boundary selects how a labeled list section is terminated.
type Boundary int

const (
	// BoundaryHeading ends a section at a blank line or at a line that
	// opens another labeled section.
	BoundaryHeading Boundary = iota
	// BoundaryLegacy ends a section at "\n\n" or at a newline followed by
	// an uppercase ASCII letter. Multi-line sections whose lines are
	// capitalised get truncated to their first line.
	BoundaryLegacy
)

// ParseBoundary maps a configuration value to a Boundary.
func ParseBoundary(s string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "heading":
		return BoundaryHeading, nil
	case "legacy":
		return BoundaryLegacy, nil
	}
	return 0, fmt.Errorf("unknown section boundary %q", s)
}

func (b Boundary) String() string {
	if b == BoundaryLegacy {
		return "legacy"
	}
	return "heading"
}

// Strategy extracts one field value from the full document text.
// It returns "" when it finds nothing.
type Strategy func(text string) string

// Extractor turns plain résumé text into a Record. Each field has an
// ordered list of strategies and the first non-empty result wins.
// An Extractor holds no mutable state and is safe for concurrent use.
type Extractor struct {
	name           []Strategy
	email          []Strategy
	phone          []Strategy
	education      []Strategy
	qualifications []Strategy
	projects       []Strategy
}

// New builds an Extractor using the given section boundary rule.
func New(b Boundary) *Extractor {
	block := headingBlock
	if b == BoundaryLegacy {
		block = legacyBlock
	}
	return &Extractor{
		name:           []Strategy{labeledLine("Name"), firstLine},
		email:          []Strategy{labeledLine("Email"), emailShape},
		phone:          []Strategy{labeledLine("Phone"), labeledLine("Tel(?:ephone)?"), labeledLine("Mobile"), labeledLine("Contact")},
		education:      []Strategy{block("Education"), block("Academic Background")},
		qualifications: []Strategy{block("Qualifications"), block("Skills")},
		projects:       []Strategy{block("Projects"), block("Experience")},
	}
}

var defaultExtractor = New(BoundaryHeading)

// Extract runs the default (heading boundary) extractor over text.
func Extract(text string) Record {
	return defaultExtractor.Extract(text)
}

// Extract never fails: fields without a match get NotAvailable or an
// empty list.
func (e *Extractor) Extract(text string) Record {
	text = normalizeNewlines(text)
	return Record{
		Name:           scalar(text, e.name),
		Email:          scalar(text, e.email),
		Phone:          scalar(text, e.phone),
		Education:      list(text, e.education),
		Qualifications: list(text, e.qualifications),
		Projects:       list(text, e.projects),
	}
}

func first(text string, strategies []Strategy) string {
	for _, s := range strategies {
		if v := strings.TrimSpace(s(text)); v != "" {
			return v
		}
	}
	return ""
}

func scalar(text string, strategies []Strategy) string {
	if v := first(text, strategies); v != "" {
		return v
	}
	return NotAvailable
}

func list(text string, strategies []Strategy) []string {
	return splitLines(first(text, strategies))
}

// splitLines trims each line and drops blank ones, keeping order.
func splitLines(block string) []string {
	out := []string{}
	for _, line := range strings.Split(block, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// labeledLine captures the rest of the line after "Label:". The colon may
// be spaced ("Name :") and the value may sit on a following line.
func labeledLine(label string) Strategy {
	re := regexp.MustCompile(`\b` + label + `\s*:\s*(.+)`)
	return func(text string) string {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
		return ""
	}
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}

var emailRe = regexp.MustCompile(`[a-zA-Z0-9._-]+@[a-zA-Z0-9._-]+\.[a-zA-Z0-9_-]+`)

func emailShape(text string) string {
	return emailRe.FindString(text)
}

func labelPattern(label string) string {
	return `\b` + regexp.QuoteMeta(label) + `\s*:`
}

func legacyBlock(label string) Strategy {
	re := regexp.MustCompile(labelPattern(label) + `\s*((?s:.*?))(?:\n\n|\n[A-Z]|$)`)
	return func(text string) string {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
		return ""
	}
}

// headingBlock takes the lines after the first "Label:" up to a blank
// line or the next section heading. Leading whitespace after the colon is
// skipped, so the block may start on the label's own line.
func headingBlock(label string) Strategy {
	re := regexp.MustCompile(labelPattern(label))
	return func(text string) string {
		loc := re.FindStringIndex(text)
		if loc == nil {
			return ""
		}
		rest := strings.TrimLeftFunc(text[loc[1]:], unicode.IsSpace)
		var lines []string
		for _, line := range strings.Split(rest, "\n") {
			if strings.TrimSpace(line) == "" || isHeading(line) {
				break
			}
			lines = append(lines, line)
		}
		return strings.Join(lines, "\n")
	}
}

var sectionLabelRe = regexp.MustCompile(`^(?:Name|Email|Phone|Tel(?:ephone)?|Mobile|Contact|Education|Academic Background|Qualifications|Skills|Projects|Experience)\s*:`)

// maxHeadingWords bounds how long an unknown "Title:" line may be and
// still count as a section heading.
const maxHeadingWords = 3

func isHeading(line string) bool {
	t := strings.TrimSpace(line)
	if sectionLabelRe.MatchString(t) {
		return true
	}
	if !strings.HasSuffix(t, ":") {
		return false
	}
	r, _ := utf8.DecodeRuneInString(t)
	if !unicode.IsUpper(r) {
		return false
	}
	return len(strings.Fields(t)) <= maxHeadingWords
}
