package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		ident string
		want  Token
	}{
		{"def", DEF},
		{"extern", EXTERN},
		{"ext", EXTERN},
		{"if", IF},
		{"then", THEN},
		{"else", ELSE},
		{"for", FOR},
		{"in", IN},
		{"fib", IDENT},
		{"Def", IDENT},
		{"inx", IDENT},
	}

	for _, tt := range tests {
		t.Run(tt.ident, func(t *testing.T) {
			assert.Equal(t, tt.want, LookupIdent(tt.ident))
		})
	}
}

func TestTokenClasses(t *testing.T) {
	for _, tok := range []Token{DEF, EXTERN, IF, THEN, ELSE, FOR, IN} {
		assert.True(t, tok.IsKeyword(), tok.String())
		assert.False(t, tok.IsLiteral(), tok.String())
	}
	assert.True(t, IDENT.IsLiteral())
	assert.True(t, NUMBER.IsLiteral())
	assert.False(t, CHAR.IsKeyword())
	assert.False(t, EOF.IsKeyword())
}

func TestTokenString(t *testing.T) {
	assert.Equal(t, "end of input", EOF.String())
	assert.Equal(t, "then", THEN.String())
	assert.Equal(t, "identifier", IDENT.String())
	assert.Equal(t, "token(200)", Token(200).String())
}

func TestPosition(t *testing.T) {
	p := Position{Line: 2, Column: 5}
	assert.Equal(t, "2:5", p.String())
	assert.True(t, p.IsValid())
	assert.False(t, NoPos.IsValid())

	p.Filename = "fib.div"
	assert.Equal(t, "fib.div:2:5", p.String())
	assert.True(t, Position{Line: 1, Column: 9}.Before(p))
	assert.False(t, p.Before(Position{Line: 2, Column: 1}))
}
