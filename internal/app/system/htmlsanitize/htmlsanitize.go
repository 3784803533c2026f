// internal/app/system/htmlsanitize/htmlsanitize.go
// Package htmlsanitize cleans admin-supplied HTML before it is stored.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	emailOnce   sync.Once
	emailPolicy *bluemonday.Policy
)

// policy allows the markup an HTML email template needs: the UGC set plus
// inline styles and layout attributes, since mail clients ignore <style>.
func policy() *bluemonday.Policy {
	emailOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("style").Globally()
		p.AllowAttrs("align", "valign", "width", "height", "bgcolor", "cellpadding", "cellspacing", "border", "role").
			OnElements("table", "tr", "td", "th", "div", "img")
		p.AllowElements("center", "font")
		emailPolicy = p
	})
	return emailPolicy
}

// EmailTemplate sanitises an email body template. Placeholders such as
// {{code}} are plain text and pass through unchanged.
func EmailTemplate(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return policy().Sanitize(s)
}

// Text strips all markup from s and returns plain text, for values such
// as email subjects that are never rendered as HTML.
func Text(s string) string {
	return html.UnescapeString(bluemonday.StrictPolicy().Sanitize(s))
}
