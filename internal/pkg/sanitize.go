package pkg

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()
	ugc    = bluemonday.UGCPolicy()
)

// SanitizeText strips all markup and returns plain text for titles, names
// and tags. The policy's entity escaping is undone, so "R&B" stays "R&B";
// callers rendering the value into HTML escape it themselves.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// SanitizeRich keeps the safe subset of HTML users may write in bodies. The
// result is an HTML fragment: a literal "<" or "&" is stored as an entity.
func SanitizeRich(s string) string {
	return strings.TrimSpace(ugc.Sanitize(s))
}
