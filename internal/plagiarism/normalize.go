package plagiarism

import (
	"strings"
	"unicode"
)

// Normalize strips comments from source text and splits it into tokens.
// Identifier and number runs become one token each, every punctuation or
// operator rune is its own token, and string/char literals are kept whole.
// Whitespace never produces a token.
func Normalize(text string) []string {
	runes := []rune(StripComments(text))
	tokens := make([]string, 0, len(runes)/4)

	start := -1
	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, string(runes[start:end]))
			start = -1
		}
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			flush(i)
		case isQuote(r):
			flush(i)
			end := literalEnd(runes, i)
			tokens = append(tokens, string(runes[i:end]))
			i = end - 1
		case isWordRune(r):
			if start < 0 {
				start = i
			}
		default:
			flush(i)
			tokens = append(tokens, string(r))
		}
	}
	flush(len(runes))

	return tokens
}

// NormalizeText returns text with comments and all whitespace removed,
// lower-cased. It is the character-level form used for edit distance.
func NormalizeText(text string) string {
	stripped := StripComments(text)

	var sb strings.Builder
	sb.Grow(len(stripped))
	for _, r := range stripped {
		if unicode.IsSpace(r) {
			continue
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}

// StripComments removes // line comments and /* */ block comments.
// Comment markers inside string and char literals are left alone.
func StripComments(text string) string {
	runes := []rune(text)
	n := len(runes)

	var sb strings.Builder
	sb.Grow(len(text))

	for i := 0; i < n; i++ {
		r := runes[i]
		switch {
		case r == '/' && i+1 < n && runes[i+1] == '/':
			for i < n && runes[i] != '\n' {
				i++
			}
			if i < n {
				sb.WriteRune('\n')
			}
		case r == '/' && i+1 < n && runes[i+1] == '*':
			i += 2
			for i < n && !(runes[i] == '*' && i+1 < n && runes[i+1] == '/') {
				i++
			}
			i++ // closing '/'
			sb.WriteRune(' ')
		case isQuote(r):
			end := literalEnd(runes, i)
			sb.WriteString(string(runes[i:end]))
			i = end - 1
		default:
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

func isQuote(r rune) bool {
	return r == '"' || r == '\'' || r == '`'
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// literalEnd returns the index just past the literal opened at start.
// Unterminated '"' and '\'' literals end at the newline, backtick literals
// may span lines.
func literalEnd(runes []rune, start int) int {
	quote := runes[start]
	for i := start + 1; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		case '\n':
			if quote != '`' {
				return i
			}
		}
	}
	return len(runes)
}
