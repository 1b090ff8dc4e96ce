package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag and attribute. The policy is read-only after
// construction; never mutate it at runtime.
var strict = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// Clean strips HTML from user supplied text and normalizes whitespace.
//
// Post titles, post content, comment text and user names pass through Clean
// before they are persisted. Newlines survive so multi-paragraph content
// keeps its shape; runs of spaces inside a line collapse to one.
//
// Examples:
//   - "<p>hi</p>" -> "hi"
//   - "<b>a</b> <b>b</b>" -> "a b"
//   - "Fish &amp; chips" -> "Fish & chips"
//   - "&lt;b&gt;" -> "<b>"
//
// The result is plain text with entities decoded, so it is not HTML-safe.
// Escape it before writing it into an HTML page.
func Clean(s string) string {
	out := strings.TrimSpace(strict.Sanitize(s))
	out = html.UnescapeString(out)
	out = strings.ReplaceAll(out, " ", " ")

	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}

// Line is Clean for single-line fields such as titles and names: newlines
// are folded into spaces.
func Line(s string) string {
	return strings.Join(strings.Fields(Clean(s)), " ")
}
