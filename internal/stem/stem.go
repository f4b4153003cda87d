// Package stem reduces words to the canonical form used as index keys.
//
// The same Stemmer must be used to build and to query an index: a keyword only
// matches a label word that reduces to the same stem.
package stem

import (
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
)

// Stemmer maps a word to its stem. Implementations are deterministic and total.
type Stemmer interface {
	Stem(word string) string
}

// Porter lowercases a word rune by rune and applies the Porter algorithm.
// It is safe for concurrent use.
type Porter struct {
	porter *porter.PorterStemmer
}

// Verify interface implementation at compile time
var _ Stemmer = (*Porter)(nil)

// NewPorter returns a Porter stemmer.
func NewPorter() *Porter {
	return &Porter{porter: porter.NewPorterStemmer()}
}

// Stem returns the lowercase Porter stem of word, or "" for an empty word.
func (p *Porter) Stem(word string) string {
	if word == "" {
		return ""
	}

	// Lowercasing may change the byte length (İ, ẞ), so it happens on the
	// string before the token is built.
	word = strings.ToLower(word)
	stream := analysis.TokenStream{
		&analysis.Token{
			Term:     []byte(word),
			Start:    0,
			End:      len(word),
			Position: 1,
			Type:     analysis.AlphaNumeric,
		},
	}
	stream = p.porter.Filter(stream)
	if len(stream) == 0 {
		return ""
	}
	return string(stream[0].Term)
}
