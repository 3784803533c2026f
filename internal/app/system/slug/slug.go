// internal/app/system/slug/slug.go
// Package slug derives URL-safe identifiers from clan names.
package slug

import (
	"regexp"
	"strings"
)

var (
	nonWord    = regexp.MustCompile(`[^\w\s-]`)
	whitespace = regexp.MustCompile(`\s+`)
	dashes     = regexp.MustCompile(`-+`)
)

// Make lower-cases and trims name, strips everything except word
// characters, whitespace and hyphens, turns whitespace runs into hyphens
// and collapses repeated hyphens. The result is deterministic, so it can
// be recomputed whenever the name changes.
func Make(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	if s == "" {
		return ""
	}
	s = nonWord.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	return dashes.ReplaceAllString(s, "-")
}
