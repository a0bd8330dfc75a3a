package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes.
var StrictPolicy = bluemonday.StrictPolicy()

// Text strips all HTML from free text typed into the editor. The policy
// escapes what it keeps, so the result is unescaped again before it is
// stored and the templates escape it once on output. Entity-encoded markup
// turns into tags once unescaped, so stripping repeats until nothing changes.
func Text(input string) string {
	text := input
	for {
		stripped := html.UnescapeString(StrictPolicy.Sanitize(text))
		if stripped == text {
			break
		}
		text = stripped
	}
	return strings.TrimSpace(text)
}
