// Package slug maps human titles to stable, URL-safe identifiers scoped to a
// user. Slugs are the join key between record files and store records.
package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	nonWordRe   = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	separatorRe = regexp.MustCompile(`[\s_-]+`)
)

// maxProbes bounds unique-slug generation so a pathological title cannot
// spin forever against the store.
const maxProbes = 1000

// Slugify normalizes text into a slug: lowercase, strip punctuation, collapse
// runs of whitespace/underscores/hyphens into single hyphens, trim edge
// hyphens. Unicode letters and digits are preserved, not transliterated.
func Slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = nonWordRe.ReplaceAllString(s, "")
	s = separatorRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Checker reports whether a live (non-deleted) record with the given slug
// already exists for the user. excludeID, when non-empty, names a record to
// ignore (the record being renamed).
type Checker interface {
	SlugExists(ctx context.Context, userID, slug, excludeID string) (bool, error)
}

// Unique returns base if it is free, otherwise the first of base-2, base-3,
// and so on with no live match.
func Unique(ctx context.Context, c Checker, userID, base, excludeID string) (string, error) {
	exists, err := c.SlugExists(ctx, userID, base, excludeID)
	if err != nil {
		return "", fmt.Errorf("slug: probe %q: %w", base, err)
	}
	if !exists {
		return base, nil
	}

	for suffix := 2; suffix <= maxProbes; suffix++ {
		candidate := fmt.Sprintf("%s-%d", base, suffix)
		exists, err := c.SlugExists(ctx, userID, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("slug: probe %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("slug: no free candidate for %q after %d probes", base, maxProbes)
}
