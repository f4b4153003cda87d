// Package triples streams (subject, object) pairs out of N-Triples dumps.
//
// Each input line has the form
//
//	<subject> <predicate> <object> .
//
// The first line of every stream is a header and is always skipped. A Parser
// yields the pairs whose predicate matches the one it was built for, optionally
// restricted to subjects whose last path segment starts with a prefix.
package triples

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Aman-CERP/wikimg/internal/errors"
)

// Predicates of the DBpedia image and label dumps.
const (
	ImagePredicate = "<http://xmlns.com/foaf/0.1/depiction>"
	LabelPredicate = "<http://www.w3.org/2000/01/rdf-schema#label>"
)

// MaxLineSize is the longest input line accepted.
const MaxLineSize = 4 * 1024 * 1024

// Pair is one (subject, object) match with IRI delimiters removed.
type Pair struct {
	Subject string
	Object  string
}

// Parser is a lazy, single-pass cursor over the matching pairs of a stream.
// Use it like bufio.Scanner:
//
//	for p.Next() {
//		pair := p.Pair()
//	}
//	if err := p.Err(); err != nil { ... }
//
// Malformed lines are skipped and counted, never returned as errors.
type Parser struct {
	scanner   *bufio.Scanner
	closer    io.Closer
	predicate string
	prefix    string
	object    func(string) (string, error)

	line    int
	pair    Pair
	skipped int
	err     error
	done    bool
}

// New returns a Parser yielding pairs with the given predicate (including its
// angle brackets). An empty prefix disables subject filtering. If r is an
// io.Closer it is closed once the stream is exhausted or fails.
func New(r io.Reader, predicate, prefix string) *Parser {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxLineSize)

	p := &Parser{
		scanner:   scanner,
		predicate: predicate,
		prefix:    prefix,
		object:    stripIRI,
	}
	if c, ok := r.(io.Closer); ok {
		p.closer = c
	}
	return p
}

// Images returns a Parser over depiction triples: (category, image URL).
func Images(r io.Reader, prefix string) *Parser {
	return New(r, ImagePredicate, prefix)
}

// Labels returns a Parser over label triples: (category, label text).
// The label literal is unescaped and its language tag or datatype dropped.
func Labels(r io.Reader, prefix string) *Parser {
	p := New(r, LabelPredicate, prefix)
	p.object = Literal
	return p
}

// Open opens an input file for parsing.
func Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("cannot open triples file %s", path), err).
			WithDetail("path", path)
	}
	return f, nil
}

// Next advances to the next matching pair. It returns false at the end of the
// stream or on a read failure, after which Err reports the failure.
func (p *Parser) Next() bool {
	if p.done {
		return false
	}

	for p.scanner.Scan() {
		p.line++
		if p.line == 1 {
			continue
		}

		pair, ok, err := p.parseLine(p.scanner.Text())
		if err != nil {
			p.skipped++
			slog.Debug("triples_malformed_line",
				slog.Int("line", p.line),
				slog.String("predicate", p.predicate),
				slog.String("error", err.Error()))
			continue
		}
		if ok {
			p.pair = pair
			return true
		}
	}

	if err := p.scanner.Err(); err != nil {
		p.err = errors.ReadError("failed to read triples", err).
			WithDetail("line", fmt.Sprint(p.line+1))
	}
	p.finish()
	return false
}

// Pair returns the pair found by the last successful call to Next.
func (p *Parser) Pair() Pair {
	return p.pair
}

// Err returns the first read failure, if any. Malformed lines are not failures.
func (p *Parser) Err() error {
	return p.err
}

// Skipped returns the number of malformed lines seen so far.
func (p *Parser) Skipped() int {
	return p.skipped
}

// Lines returns the number of lines read so far, including the header.
func (p *Parser) Lines() int {
	return p.line
}

func (p *Parser) finish() {
	p.done = true
	if p.closer != nil {
		if err := p.closer.Close(); err != nil && p.err == nil {
			p.err = errors.ReadError("failed to close triples stream", err)
		}
		p.closer = nil
	}
}

// parseLine decomposes one line. ok is false for lines that are well formed
// but do not match; err is a MalformedRecord.
func (p *Parser) parseLine(raw string) (pair Pair, ok bool, err error) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return Pair{}, false, nil
	}

	subject, rest, err := nextTerm(line)
	if err != nil {
		return Pair{}, false, errors.MalformedRecord(p.line, "subject: "+err.Error())
	}
	predicate, rest, err := nextTerm(rest)
	if err != nil {
		return Pair{}, false, errors.MalformedRecord(p.line, "predicate: "+err.Error())
	}

	object, rest, err := objectTerm(rest)
	if err != nil {
		return Pair{}, false, errors.MalformedRecord(p.line, "object: "+err.Error())
	}
	if predicate == "" || object == "" {
		return Pair{}, false, errors.MalformedRecord(p.line, "fewer than three terms")
	}
	if tail := strings.TrimSpace(rest); tail != "" && tail != "." {
		return Pair{}, false, errors.MalformedRecord(p.line, "unexpected term after object")
	}

	if predicate != p.predicate {
		return Pair{}, false, nil
	}

	subject = stripBrackets(subject)
	if subject == "" {
		return Pair{}, false, errors.MalformedRecord(p.line, "subject: empty IRI")
	}
	if p.prefix != "" && !strings.HasPrefix(lastSegment(subject), p.prefix) {
		return Pair{}, false, nil
	}

	value, err := p.object(object)
	if err != nil {
		return Pair{}, false, errors.MalformedRecord(p.line, "object: "+err.Error())
	}

	return Pair{Subject: subject, Object: value}, true, nil
}

// nextTerm splits the leading IRI or bare token off s.
func nextTerm(s string) (term, rest string, err error) {
	s = strings.TrimLeft(s, " \t")
	if s == "" {
		return "", "", nil
	}

	if s[0] == '<' {
		end := strings.IndexAny(s, "> \t")
		if end < 0 || s[end] != '>' {
			return "", "", fmt.Errorf("unterminated IRI")
		}
		return s[:end+1], s[end+1:], nil
	}

	end := strings.IndexAny(s, " \t")
	if end < 0 {
		return s, "", nil
	}
	return s[:end], s[end:], nil
}

// objectTerm splits the leading object off s. A literal object keeps its
// closing quote and any @lang or ^^<datatype> suffix.
func objectTerm(s string) (term, rest string, err error) {
	s = strings.TrimLeft(s, " \t")
	if s == "" || s == "." {
		return "", "", nil
	}
	if s[0] != '"' {
		return nextTerm(s)
	}

	end := closingQuote(s)
	if end < 0 {
		return "", "", fmt.Errorf("unterminated literal")
	}
	i := end + 1

	switch {
	case strings.HasPrefix(s[i:], "@"):
		if n := strings.IndexAny(s[i:], " \t"); n >= 0 {
			i += n
		} else {
			i = len(s)
		}
	case strings.HasPrefix(s[i:], "^^"):
		if !strings.HasPrefix(s[i+2:], "<") {
			return "", "", fmt.Errorf("datatype is not an IRI")
		}
		datatype, _, err := nextTerm(s[i+2:])
		if err != nil {
			return "", "", fmt.Errorf("datatype: %w", err)
		}
		i += 2 + len(datatype)
	}

	return s[:i], s[i:], nil
}

func stripBrackets(s string) string {
	if len(s) >= 2 && s[0] == '<' && s[len(s)-1] == '>' {
		return s[1 : len(s)-1]
	}
	return s
}

func stripIRI(object string) (string, error) {
	iri := stripBrackets(object)
	if iri == "" {
		return "", fmt.Errorf("empty IRI")
	}
	return iri, nil
}

// lastSegment returns the part of an IRI after its final slash.
func lastSegment(iri string) string {
	return iri[strings.LastIndexByte(iri, '/')+1:]
}
