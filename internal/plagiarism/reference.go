package plagiarism

import (
	"strings"
	"unicode"

	"github.com/RishiKendai/codesim/internal/models"
)

const (
	// WholeFileDefaultThreshold marks the whole file as starter code and
	// skips per-function checks.
	WholeFileDefaultThreshold = 95

	// FunctionDefaultThreshold is lower than the whole-file bar because short
	// functions match by coincidence more often. It is a policy knob.
	FunctionDefaultThreshold = 90

	// NotComparable is recorded for a function the reference does not define.
	NotComparable = -1
)

// keywords that can precede "name(...) {" without it being a declaration
var controlKeywords = map[string]bool{
	"if": true, "else": true, "for": true, "while": true, "switch": true,
	"return": true, "case": true, "go": true, "defer": true, "match": true,
	"new": true, "await": true, "throw": true, "catch": true,
}

// DetectDefaultImplementation compares studentCode against the reference
// implementation and reports which of functionNames were left unmodified.
// The returned finding has no StudentID; the caller owns that.
func DetectDefaultImplementation(studentCode, referenceCode string, functionNames []string) models.DefaultImplementationFinding {
	finding := models.DefaultImplementationFinding{
		MatchedFunctions: []string{},
	}

	finding.Score = CompareArtifact(studentCode, referenceCode)
	if finding.Score >= WholeFileDefaultThreshold {
		finding.WholeFile = true
		finding.MatchedFunctions = append(finding.MatchedFunctions, functionNames...)
		return finding
	}

	finding.FunctionScores = make(map[string]int, len(functionNames))
	for _, name := range functionNames {
		referenceBody := ExtractFunction(referenceCode, name)
		if referenceBody == "" {
			finding.FunctionScores[name] = NotComparable
			continue
		}

		score := CompareArtifact(referenceBody, ExtractFunction(studentCode, name))
		finding.FunctionScores[name] = score
		if score >= FunctionDefaultThreshold {
			finding.MatchedFunctions = append(finding.MatchedFunctions, name)
		}
	}

	return finding
}

// ExtractFunction returns the source of the function called name, from the
// start of its declaration line through the brace that closes its body.
// Braces are counted so nested blocks are kept; braces inside comments and
// literals are ignored. Returns "" when no declaration is found.
func ExtractFunction(code, name string) string {
	if name == "" {
		return ""
	}

	runes := []rune(StripComments(code))
	target := []rune(name)

	for i := 0; i+len(target) <= len(runes); i++ {
		if isQuote(runes[i]) {
			i = literalEnd(runes, i) - 1
			continue
		}
		if !matchesWord(runes, i, target) || precededByCall(runes, i) {
			continue
		}

		open := bodyStart(runes, i+len(target), atStatementStart(runes, i))
		if open < 0 {
			continue
		}

		end := closingBrace(runes, open)
		return strings.TrimSpace(string(runes[lineStart(runes, i):end]))
	}

	return ""
}

func matchesWord(runes []rune, at int, target []rune) bool {
	for k, r := range target {
		if runes[at+k] != r {
			return false
		}
	}
	if at > 0 && isWordRune(runes[at-1]) {
		return false
	}
	end := at + len(target)
	return end == len(runes) || !isWordRune(runes[end])
}

// precededByCall reports whether the identifier at pos sits in an expression
// (after an operator, a member access or a control keyword) rather than
// starting a declaration.
func precededByCall(runes []rune, pos int) bool {
	i := pos - 1
	for i >= 0 && (runes[i] == ' ' || runes[i] == '\t') {
		i--
	}
	if i < 0 {
		return false
	}

	switch runes[i] {
	case '=', '(', ',', '!', '|', '+', '-', '/', '%', '?', '.', '[', '^', '~':
		return true
	case '&':
		return i > 0 && runes[i-1] == '&'
	}

	if !isWordRune(runes[i]) {
		return false
	}
	end := i + 1
	for i >= 0 && isWordRune(runes[i]) {
		i--
	}
	return controlKeywords[string(runes[i+1:end])]
}

// atStatementStart reports whether nothing but indentation separates pos
// from the start of a line or statement. A name there is either a method
// declaration without a keyword or a call statement.
func atStatementStart(runes []rune, pos int) bool {
	i := pos - 1
	for i >= 0 && (runes[i] == ' ' || runes[i] == '\t') {
		i--
	}
	return i < 0 || strings.ContainsRune("\n\r{};", runes[i])
}

// bodyStart checks that a parameter list follows pos and returns the index
// of the opening brace of the body, or -1 if this is not a declaration.
// Return types, receivers and qualifiers between ")" and "{" are allowed; a
// line break is allowed only directly before the brace. bare marks a name at
// statement start, which may carry only a ": type" annotation.
func bodyStart(runes []rune, pos int, bare bool) int {
	pos = skipSpace(runes, pos)
	if pos >= len(runes) || runes[pos] != '(' {
		return -1
	}
	pos = skipGroup(runes, pos)

	if bare {
		next := skipBlank(runes, pos)
		if next < len(runes) && !strings.ContainsRune("{:\n\r", runes[next]) {
			return -1
		}
	}

	for pos < len(runes) {
		r := runes[pos]
		switch {
		case r == '{':
			return pos
		case r == '\n':
			next := skipSpace(runes, pos)
			if next >= len(runes) || runes[next] != '{' {
				return -1
			}
			return next
		case r == '(':
			pos = skipGroup(runes, pos)
		case isWordRune(r):
			end := pos
			for end < len(runes) && isWordRune(runes[end]) {
				end++
			}
			if controlKeywords[string(runes[pos:end])] {
				return -1
			}
			pos = end
		case r == ' ', r == '\t', r == '\r':
			pos++
		case strings.ContainsRune(":<>*&[],-.", r):
			pos++
		default:
			return -1
		}
	}
	return -1
}

// skipGroup returns the index just past the parenthesis matching runes[open]
func skipGroup(runes []rune, open int) int {
	depth := 0
	for i := open; i < len(runes); i++ {
		switch {
		case isQuote(runes[i]):
			i = literalEnd(runes, i) - 1
		case runes[i] == '(':
			depth++
		case runes[i] == ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(runes)
}

// closingBrace returns the index just past the brace matching runes[open].
// An unbalanced body runs to the end of the text.
func closingBrace(runes []rune, open int) int {
	depth := 0
	for i := open; i < len(runes); i++ {
		switch {
		case isQuote(runes[i]):
			i = literalEnd(runes, i) - 1
		case runes[i] == '{':
			depth++
		case runes[i] == '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(runes)
}

func skipSpace(runes []rune, pos int) int {
	for pos < len(runes) && unicode.IsSpace(runes[pos]) {
		pos++
	}
	return pos
}

func skipBlank(runes []rune, pos int) int {
	for pos < len(runes) && (runes[pos] == ' ' || runes[pos] == '\t') {
		pos++
	}
	return pos
}

func lineStart(runes []rune, pos int) int {
	for pos > 0 && runes[pos-1] != '\n' {
		pos--
	}
	return pos
}
