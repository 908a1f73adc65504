// Package slug derives deterministic repository names from notebook titles.
package slug

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// turkish maps Latin-extended letters to their ASCII base. The table runs
// before the generic Unicode fallback because dotless ı and dotted İ do not
// decompose to plain i under NFD.
var turkish = map[rune]rune{
	'ş': 's', 'Ş': 'S',
	'ç': 'c', 'Ç': 'C',
	'ğ': 'g', 'Ğ': 'G',
	'ü': 'u', 'Ü': 'U',
	'ö': 'o', 'Ö': 'O',
	'ı': 'i', 'İ': 'I',
}

var (
	combining = runes.Remove(runes.In(unicode.Mn))
	nonAlnum  = regexp.MustCompile(`[^a-z0-9]+`)
)

// Make converts a notebook title into a repository-name slug. It is pure and
// total: the same title always yields the same slug, and any input, including
// an empty or all-symbol title, produces a usable name.
func Make(title string) string {
	s := strings.Map(func(r rune) rune {
		if base, ok := turkish[r]; ok {
			return base
		}
		return r
	}, title)

	s = stripMarks(s)
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if s == "" {
		return fallback(title)
	}
	return s
}

// stripMarks decomposes accented letters and drops the combining marks, so
// arbitrary diacritics degrade to their base letter instead of vanishing.
func stripMarks(s string) string {
	out, _, err := transform.String(transform.Chain(norm.NFD, combining, norm.NFC), s)
	if err != nil {
		return s
	}
	return out
}

// fallback names titles that slug to nothing. The suffix is a hash of the
// original title so the name is stable across runs and distinct titles do
// not collide on the placeholder.
func fallback(title string) string {
	h := fnv.New32a()
	h.Write([]byte(title))
	return fmt.Sprintf("untitled-%08x", h.Sum32())
}
