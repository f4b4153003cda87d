package triples

import (
	"fmt"
	"strconv"
	"strings"
)

// Literal extracts the lexical value of an N-Triples literal such as
// "Rock Band"@en or "42"^^<http://www.w3.org/2001/XMLSchema#integer>.
// Escapes are decoded; the language tag or datatype is dropped.
func Literal(object string) (string, error) {
	if !strings.HasPrefix(object, `"`) {
		return "", fmt.Errorf("not a literal")
	}

	end := closingQuote(object)
	if end < 0 {
		return "", fmt.Errorf("unterminated literal")
	}

	switch suffix := object[end+1:]; {
	case suffix == "", strings.HasPrefix(suffix, "@"), strings.HasPrefix(suffix, "^^"):
	default:
		return "", fmt.Errorf("unexpected text after literal: %q", suffix)
	}

	quoted := object[:end+1]
	if !strings.Contains(quoted, `\`) {
		return quoted[1 : len(quoted)-1], nil
	}

	// N-Triples allows \' inside double quotes; Go does not.
	value, err := strconv.Unquote(strings.ReplaceAll(quoted, `\'`, `'`))
	if err != nil {
		return "", fmt.Errorf("bad escape in literal: %w", err)
	}
	return value, nil
}

// closingQuote returns the index of the quote ending the literal that opens at
// s[0], or -1.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
