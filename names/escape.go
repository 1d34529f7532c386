package names

import (
	"strings"
	"unicode/utf8"

	"github.com/brettbedarf/namefs/contract"
)

const (
	// EscapeCharacter marks the rune that follows it as literal
	EscapeCharacter = '\\'
	// DefaultDelimiter separates components unless configured otherwise
	DefaultDelimiter = '.'
)

// ValidateDelimiter rejects delimiters that cannot separate components.
func ValidateDelimiter(delim rune) error {
	switch {
	case delim == 0:
		return contract.InvalidArgument("delimiter must not be empty")
	case delim == EscapeCharacter:
		return contract.InvalidArgument("delimiter must differ from the escape character")
	case !utf8.ValidRune(delim):
		return contract.InvalidArgument("delimiter %U is not a valid character", delim)
	}
	return nil
}

// Escape prefixes every delimiter in s that is not already preceded by the
// escape character. Already escaped delimiters are left alone.
func Escape(s string, delim rune) string {
	if !strings.ContainsRune(s, delim) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	var prev rune
	for _, r := range s {
		if r == delim && prev != EscapeCharacter {
			b.WriteRune(EscapeCharacter)
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// Unescape drops the escape character in front of every delimiter.
func Unescape(s string, delim rune) string {
	return strings.ReplaceAll(s, string(EscapeCharacter)+string(delim), string(delim))
}

// IsEscaped reports whether s is a properly escaped component: every escape
// character starts an escaped escape character or an escaped delimiter, and
// no bare delimiter remains.
func IsEscaped(s string, delim rune) bool {
	escaping := false
	for _, r := range s {
		if escaping {
			if r != EscapeCharacter && r != delim {
				return false
			}
			escaping = false
			continue
		}
		switch r {
		case EscapeCharacter:
			escaping = true
		case delim:
			return false
		}
	}
	return !escaping
}

// Split cuts an escaped data string at every unescaped delimiter. Escape
// sequences are kept as-is in the returned components. The empty string
// yields one empty component.
func Split(s string, delim rune) []string {
	parts := make([]string, 0, strings.Count(s, string(delim))+1)
	start := 0
	escaping := false
	for i, r := range s {
		switch {
		case escaping:
			escaping = false
		case r == EscapeCharacter:
			escaping = true
		case r == delim:
			parts = append(parts, s[start:i])
			start = i + utf8.RuneLen(r)
		}
	}
	return append(parts, s[start:])
}

// Join is the inverse of [Split] for escaped components.
func Join(components []string, delim rune) string {
	return strings.Join(components, string(delim))
}
