// Package slug builds and parses the restaurant URL segments used across the
// site: "<slug>-<uuid>". The slug half is derived from the display name and is
// purely cosmetic; the trailing UUID is what resolution keys on, so links keep
// working after a restaurant is renamed.
package slug

import (
	"errors"
	"regexp"
	"strings"
)

// ErrMalformedIdentifier is returned by Decode when no trailing UUID is found.
var ErrMalformedIdentifier = errors.New("malformed identifier: no trailing UUID")

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	runs       = regexp.MustCompile(`[\s-]+`)

	// UUID anchored at the end of the path. Matching by pattern rather than
	// position keeps Decode correct even when the slug itself contains
	// hyphen-separated hex-looking tokens.
	trailingUUID = regexp.MustCompile(`(?i)([a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12})$`)
)

// Slugify lowercases the name, strips everything outside [a-z0-9\s-], collapses
// whitespace and hyphen runs into single hyphens and trims leading/trailing
// hyphens. Idempotent: Slugify(Slugify(x)) == Slugify(x).
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = disallowed.ReplaceAllString(s, "")
	s = runs.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Encode joins the slugified name and the canonical UUID with a single hyphen.
func Encode(name, id string) string {
	return Slugify(name) + "-" + id
}

// Decode splits a path segment into its slug and identifier. The UUID is
// located at the end of the string; everything before it, minus the connecting
// hyphen, is the slug. An empty slug is valid (names can slugify to nothing).
func Decode(path string) (slug, id string, err error) {
	m := trailingUUID.FindString(path)
	if m == "" {
		return "", "", ErrMalformedIdentifier
	}

	slug = path[:len(path)-len(m)]
	slug = strings.TrimSuffix(slug, "-")
	return slug, m, nil
}
