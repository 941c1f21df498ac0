package notify

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

// FollowUpSubject is the subject line of the follow-up email.
const FollowUpSubject = "Follow-Up: Your CV is Under Review"

const followUpBody = `Hello %s,

Thank you for submitting your CV. We are reviewing your application and will get back to you soon.

Best regards,
Team
`

// FollowUpComposer renders the follow-up email from a Markdown template.
type FollowUpComposer struct {
	md goldmark.Markdown
}

func NewFollowUpComposer() *FollowUpComposer {
	return &FollowUpComposer{md: goldmark.New()}
}

// Compose returns the subject and the HTML and plain text bodies for an
// applicant. An empty name becomes "there".
func (c *FollowUpComposer) Compose(name string) (subject, htmlBody, textBody string, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "there"
	}
	src := fmt.Sprintf(followUpBody, escapeMarkdown(name))

	var buf bytes.Buffer
	if err := c.md.Convert([]byte(src), &buf); err != nil {
		return "", "", "", fmt.Errorf("render follow-up: %w", err)
	}
	htmlBody = buf.String()

	textBody, err = htmlToText(htmlBody)
	if err != nil {
		return "", "", "", err
	}
	return FollowUpSubject, htmlBody, textBody, nil
}

// escapeMarkdown backslash-escapes ASCII punctuation so a name is never
// read as Markdown syntax.
func escapeMarkdown(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 128 && strings.ContainsRune("\\`*_{}[]()<>#+-.!|~&", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// htmlToText flattens rendered HTML to plain text: one blank line between
// blocks, soft line breaks kept.
func htmlToText(src string) (string, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
		case html.CommentNode:
			return
		case html.ElementNode:
			if n.Data == "br" {
				buf.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlockElement(n.Data) {
			buf.WriteString("\n\n")
		}
	}
	walk(doc)

	var lines []string
	blank := false
	for _, line := range strings.Split(buf.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = len(lines) > 0
			continue
		}
		if blank {
			lines = append(lines, "")
			blank = false
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func isBlockElement(tag string) bool {
	switch tag {
	case "p", "div", "li", "ul", "ol", "blockquote", "pre",
		"h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}
