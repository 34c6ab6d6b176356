// Package sanitizer cleans user-supplied catalog text before it is stored.
package sanitizer

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	richPolicy   *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		richPolicy = bluemonday.NewPolicy()
		richPolicy.AllowStandardURLs()
		richPolicy.AllowElements(
			"p", "br",
			"strong", "b", "em", "i",
			"ul", "ol", "li",
		)
		richPolicy.AllowAttrs("href").OnElements("a")
		richPolicy.RequireNoFollowOnLinks(true)
	})
}

// StripHTML removes all markup and returns the trimmed text.
// Use for single-line fields such as product names.
func StripHTML(s string) string {
	initPolicies()
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// Description keeps basic formatting (paragraphs, emphasis, lists, links)
// and drops everything else, including scripts, event handlers and
// javascript: URLs.
func Description(s string) string {
	initPolicies()
	return strings.TrimSpace(richPolicy.Sanitize(s))
}
