package refcache

import (
	"strings"
	"unicode"
)

// predicatePrefix is prepended to accessor names to form predicate names.
const predicatePrefix = "Is"

// AccessorName folds a code into an exported Go identifier: separators split
// words, each word is title-cased, and a leading digit gets a "Code" prefix.
//
//	"bar"         -> "Bar"
//	"IN_PROGRESS" -> "InProgress"
//	"on-hold 2"   -> "OnHold2"
//	"3D"          -> "Code3d"
//
// It returns "" when the code has no letters or digits.
func AccessorName(code string) string {
	runes := []rune(Canonical(code))
	var b strings.Builder
	b.Grow(len(runes) + 4)

	startOfWord := true
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r):
			if startOfWord {
				b.WriteRune(unicode.ToUpper(r))
			} else {
				b.WriteRune(unicode.ToLower(r))
			}
			startOfWord = false

		case unicode.IsDigit(r):
			b.WriteRune(r)
			startOfWord = false

		default:
			// Separators and punctuation only break words.
			startOfWord = true
		}
	}

	name := b.String()
	if name == "" {
		return ""
	}
	if unicode.IsDigit([]rune(name)[0]) {
		return "Code" + name
	}
	return name
}

// PredicateName returns the predicate name for a code, e.g. "IsInProgress".
func PredicateName(code string) string {
	name := AccessorName(code)
	if name == "" {
		return ""
	}
	return predicatePrefix + name
}
