package compiler

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lower applies full Unicode lowercasing, including context-sensitive
// mappings such as word-final sigma that strings.ToLower does not handle.
// A cases.Caser is stateful, so one is built per call.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// NormalizeLabel canonicalizes a concept label:
//   - trim surrounding whitespace
//   - lowercase
//   - replace '_' and '.' with '-'
//   - collapse runs of whitespace into a single space
//
// NormalizeLabel is total; every input has a canonical form.
func NormalizeLabel(raw string) string {
	s := lower(strings.TrimSpace(raw))

	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !prevSpace {
				b.WriteByte(' ')
			}
			prevSpace = true
			continue
		case r == '_' || r == '.':
			b.WriteByte('-')
		default:
			b.WriteRune(r)
		}
		prevSpace = false
	}
	return b.String()
}

// NormalizePredicate canonicalizes a predicate:
//   - trim surrounding whitespace
//   - lowercase
//   - collapse runs of spaces, hyphens and dots into a single '_'
//
// "is a", "Is-A" and "is.a" all become "is_a". Existing underscores are kept.
func NormalizePredicate(raw string) string {
	s := lower(strings.TrimSpace(raw))

	var b strings.Builder
	b.Grow(len(s))
	prevSep := false
	for _, r := range s {
		if unicode.IsSpace(r) || r == '-' || r == '.' {
			if !prevSep {
				b.WriteByte('_')
			}
			prevSep = true
			continue
		}
		prevSep = false
		b.WriteRune(r)
	}
	return b.String()
}
