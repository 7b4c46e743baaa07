package tracker

import (
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy removes all HTML from user text before it is stored
var strictPolicy = bluemonday.StrictPolicy()

var (
	filenameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// sanitizeText strips markup and collapses whitespace. Entities escaped by
// the policy are decoded again since the result is stored as plain text.
func sanitizeText(s string) string {
	s = html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// sanitizeFilename cleans up phone-generated upload names for storage
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if filenameUnsafe.MatchString(strings.TrimPrefix(ext, ".")) {
		ext = ""
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = filenameUnsafe.ReplaceAllString(base, "")
	base = strings.TrimSpace(whitespaceRun.ReplaceAllString(base, " "))

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "document"
	}

	return base + ext
}
