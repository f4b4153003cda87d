package triples

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteral(t *testing.T) {
	tests := []struct {
		name   string
		object string
		want   string
	}{
		{"language tag", `"Rock Band"@en`, "Rock Band"},
		{"plain", `"Albedo"`, "Albedo"},
		{"datatype", `"42"^^<http://www.w3.org/2001/XMLSchema#integer>`, "42"},
		{"escaped quote", `"The \"Boss\""@en`, `The "Boss"`},
		{"escaped backslash", `"a\\b"@en`, `a\b`},
		{"unicode escape", `"Azhar Dulaymi \u2013 Killed"@en`, "Azhar Dulaymi \u2013 Killed"},
		{"single quote escape", `"O\'Brien"@en`, "O'Brien"},
		{"at sign inside", `"user@example"@en`, "user@example"},
		{"empty", `""@en`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Literal(tt.object)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLiteral_Invalid(t *testing.T) {
	tests := []string{
		"<http://x/iri>",
		`"unterminated@en`,
		`"trailing" junk`,
		`"bad \q escape"@en`,
	}

	for _, object := range tests {
		t.Run(object, func(t *testing.T) {
			_, err := Literal(object)
			assert.Error(t, err)
		})
	}
}
