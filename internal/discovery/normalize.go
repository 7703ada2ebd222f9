// Package discovery implements trail search, filtering and ordering over a
// loaded trail list.
package discovery

import "strings"

// Normalize folds simple English plurals so "waterfalls" finds "waterfall".
//
//	berries -> berry, bushes -> bush, trails -> trail, axes -> axe
func Normalize(term string) string {
	t := strings.ToLower(strings.TrimSpace(term))

	switch {
	case strings.HasSuffix(t, "ies"):
		return strings.TrimSuffix(t, "ies") + "y"
	case strings.HasSuffix(t, "es") && len(t) > 3:
		if stem := t[:len(t)-2]; len(stem) >= 3 {
			return stem
		}
		return t[:len(t)-1]
	case strings.HasSuffix(t, "s") && len(t) > 2:
		return t[:len(t)-1]
	}
	return t
}

// TextContains reports whether text contains term as typed or in its
// normalized form. Empty text never matches.
func TextContains(text, term string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	raw := strings.ToLower(term)
	return strings.Contains(lower, raw) || strings.Contains(lower, Normalize(term))
}

// TagsContain matches term against each tag in both directions: the tag may
// contain the raw or normalized term, or the normalized term may contain the
// whole tag.
func TagsContain(tags []string, term string) bool {
	if tags == nil {
		return false
	}
	raw := strings.ToLower(term)
	norm := Normalize(term)
	for _, tag := range tags {
		t := strings.ToLower(tag)
		if strings.Contains(t, raw) || strings.Contains(t, norm) || strings.Contains(norm, t) {
			return true
		}
	}
	return false
}
