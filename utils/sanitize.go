package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripper = bluemonday.StrictPolicy()

// PlainText strips every tag and returns trimmed text, used for chat lines and display names.
func PlainText(input string) string {
	return strings.TrimSpace(html.UnescapeString(stripper.Sanitize(input)))
}
