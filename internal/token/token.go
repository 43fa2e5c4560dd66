// Package token defines lexical tokens for div.
package token

import "strconv"

// Token represents a lexical token type.
type Token uint8

const (
	// Special tokens
	ILLEGAL Token = iota // <illegal>
	EOF                  // EOF

	// Keywords
	keywordStart
	DEF    // def
	EXTERN // extern
	IF     // if
	THEN   // then
	ELSE   // else
	FOR    // for
	IN     // in
	keywordEnd

	// Literals
	IDENT  // identifier
	NUMBER // number

	// CHAR is any other single character: operators and punctuation.
	// The character itself is carried in the token value.
	CHAR // char
)

var names = [...]string{
	ILLEGAL: "illegal",
	EOF:     "end of input",
	DEF:     "def",
	EXTERN:  "extern",
	IF:      "if",
	THEN:    "then",
	ELSE:    "else",
	FOR:     "for",
	IN:      "in",
	IDENT:   "identifier",
	NUMBER:  "number",
	CHAR:    "char",
}

// String returns a human-readable name for the token type.
func (t Token) String() string {
	if int(t) < len(names) && names[t] != "" {
		return names[t]
	}
	return "token(" + strconv.Itoa(int(t)) + ")"
}

// IsKeyword returns true if the token is a keyword.
func (t Token) IsKeyword() bool {
	return t > keywordStart && t < keywordEnd
}

// IsLiteral returns true if the token is an identifier or a number.
func (t Token) IsLiteral() bool {
	return t == IDENT || t == NUMBER
}

// keywords maps reserved words to their token types.
// "ext" is accepted as a short form of "extern".
var keywords = map[string]Token{
	"def":    DEF,
	"extern": EXTERN,
	"ext":    EXTERN,
	"if":     IF,
	"then":   THEN,
	"else":   ELSE,
	"for":    FOR,
	"in":     IN,
}

// LookupIdent returns the keyword token for ident, or IDENT.
func LookupIdent(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
