// internal/app/system/clanmatch/clanmatch.go
// Package clanmatch resolves free-text clan labels, as they appear in
// imported rolls and mentee records, to canonical clans.
package clanmatch

import (
	"sort"
	"strings"

	"github.com/devweekends/clanverify/internal/app/system/slug"
	"github.com/devweekends/clanverify/internal/domain/models"
)

// Resolve maps label to one of clans. Matching is tried in order:
//  1. slug(label) equals a clan slug
//  2. the trimmed, lower-cased label equals a lower-cased clan name
//  3. the label contains a clan name; the longest such name wins
//
// It returns false when nothing matches.
func Resolve(label string, clans []models.Clan) (models.Clan, bool) {
	text := strings.ToLower(strings.TrimSpace(label))
	if text == "" || len(clans) == 0 {
		return models.Clan{}, false
	}

	s := slug.Make(label)
	for _, c := range clans {
		if c.Slug != "" && c.Slug == s {
			return c, true
		}
	}

	for _, c := range clans {
		if strings.ToLower(strings.TrimSpace(c.Name)) == text {
			return c, true
		}
	}

	byLength := make([]models.Clan, len(clans))
	copy(byLength, clans)
	sort.SliceStable(byLength, func(i, j int) bool {
		return len(byLength[i].Name) > len(byLength[j].Name)
	})
	for _, c := range byLength {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name != "" && strings.Contains(text, name) {
			return c, true
		}
	}

	return models.Clan{}, false
}

// Resolver caches a clan set for repeated lookups during one import.
type Resolver struct {
	clans []models.Clan
}

// NewResolver returns a Resolver over clans.
func NewResolver(clans []models.Clan) *Resolver {
	return &Resolver{clans: clans}
}

// Resolve is Resolve(label, r.clans).
func (r *Resolver) Resolve(label string) (models.Clan, bool) {
	return Resolve(label, r.clans)
}
