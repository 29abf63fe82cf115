// Package content turns generated markdown into material ready for a
// draft: title, digest and sanitized HTML.
package content

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultTitle is used when the markdown carries no top-level heading.
const DefaultTitle = "每日资讯"

const digestLimit = 100

var (
	boldRe    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe  = regexp.MustCompile(`\*(.+?)\*`)
	linkRe    = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)

	sanitizePolicy = newPolicy()
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("style").OnElements("p", "span", "h1", "h2", "h3", "h4", "h5", "h6", "img", "a", "section")
	p.AllowElements("section")
	return p
}

// ExtractTitle returns the first top-level heading, or DefaultTitle.
func ExtractTitle(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			if title := strings.TrimSpace(line[2:]); title != "" {
				return title
			}
		}
	}
	return DefaultTitle
}

// ExtractDigest returns the first non-heading paragraph truncated to
// 100 runes with an ellipsis.
func ExtractDigest(markdown string) string {
	for _, block := range strings.Split(markdown, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" || strings.HasPrefix(block, "#") {
			continue
		}
		text := strings.Join(strings.Fields(plainText(block)), " ")
		if text == "" {
			continue
		}
		runes := []rune(text)
		if len(runes) <= digestLimit {
			return text
		}
		return string(runes[:digestLimit-3]) + "..."
	}
	return ""
}

// ToHTML renders a small markdown subset: headings, bold, italic,
// links and paragraphs. It covers what the generator actually emits.
func ToHTML(markdown string) string {
	var b strings.Builder
	for _, block := range strings.Split(markdown, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if m := headingRe.FindStringSubmatch(firstLine(block)); m != nil {
			level := len(m[1])
			b.WriteString(fmt.Sprintf("<h%d>%s</h%d>\n", level, inline(m[2]), level))
			rest := strings.TrimSpace(strings.TrimPrefix(block, firstLine(block)))
			if rest != "" {
				writeParagraph(&b, rest)
			}
			continue
		}
		writeParagraph(&b, block)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Sanitize strips markup the draft endpoint rejects while keeping
// inline styles.
func Sanitize(html string) string {
	return sanitizePolicy.Sanitize(html)
}

func writeParagraph(b *strings.Builder, block string) {
	text := strings.Join(strings.Fields(block), " ")
	fmt.Fprintf(b, "<p>%s</p>\n", inline(text))
}

func inline(text string) string {
	text = linkRe.ReplaceAllString(text, `<a href="$2">$1</a>`)
	text = boldRe.ReplaceAllString(text, "<strong>$1</strong>")
	text = italicRe.ReplaceAllString(text, "<em>$1</em>")
	return text
}

func plainText(block string) string {
	text := linkRe.ReplaceAllString(block, "$1")
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "*", "")
	return text
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
