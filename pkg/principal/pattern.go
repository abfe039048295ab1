package principal

import (
	"fmt"
	"regexp"
	"strings"
)

// compileGlob translates a glob into an anchored, case-insensitive regexp.
// '*' matches any run of characters including separators, '?' one character,
// and [...] a character class ([!...] negates). An unterminated '[' is literal.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?is)^")

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			end := classEnd(runes, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			b.WriteString(translateClass(runes[i+1 : end]))
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}

// classEnd returns the index of the ']' closing the class opened at start, or -1
func classEnd(runes []rune, start int) int {
	j := start + 1
	if j < len(runes) && runes[j] == '!' {
		j++
	}
	// A ']' right after the opening bracket is part of the class
	if j < len(runes) && runes[j] == ']' {
		j++
	}
	for ; j < len(runes); j++ {
		if runes[j] == ']' {
			return j
		}
	}
	return -1
}

func translateClass(body []rune) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, c := range body {
		switch {
		case i == 0 && c == '!':
			b.WriteByte('^')
		case c == '\\' || c == '[' || c == ']' || (c == '^' && i == 0):
			b.WriteByte('\\')
			b.WriteRune(c)
		default:
			b.WriteRune(c)
		}
	}
	b.WriteByte(']')
	return b.String()
}
