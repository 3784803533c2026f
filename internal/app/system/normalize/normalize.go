// internal/app/system/normalize/normalize.go
// Package normalize canonicalises user-supplied strings before they are
// stored or compared.
package normalize

import "strings"

// Email trims and lower-cases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Label trims a clan label and collapses internal whitespace runs.
func Label(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Code strips all whitespace from a submitted verification code.
func Code(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// Status trims and lower-cases a status filter value. "all" becomes empty.
func Status(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "all" {
		return ""
	}
	return s
}

// QueryParam trims a query parameter, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
