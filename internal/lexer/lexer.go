// Package lexer provides div source code tokenization.
//
// The lexer reads its input one character at a time and keeps exactly one
// character of lookahead, so it can sit directly on top of a terminal or a
// pipe. It never backtracks and never fails: anything it does not recognize
// becomes a CHAR token.
package lexer

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/kolkov/div/internal/token"
)

// eof is the sentinel character stored in Lexer.ch once input is exhausted.
const eof = -1

// Lexer tokenizes div source code.
type Lexer struct {
	r       *bufio.Reader
	ch      rune           // Current character (eof at end of input)
	pos     token.Position // Position of ch
	nextPos token.Position // Position of the character after ch
}

// New creates a new Lexer reading from r.
func New(r io.Reader) *Lexer {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	l := &Lexer{
		r: br,
		nextPos: token.Position{
			Line:   1,
			Column: 1,
		},
	}
	l.next() // Initialize first character
	return l
}

// NewFromString creates a new Lexer from a string.
func NewFromString(src string) *Lexer {
	return New(strings.NewReader(src))
}

// SetFilename sets the filename reported in token positions.
func (l *Lexer) SetFilename(name string) {
	l.pos.Filename = name
	l.nextPos.Filename = name
}

// Token represents a scanned token with its position and payload.
type Token struct {
	Type  token.Token
	Pos   token.Position
	Value string  // Identifier text, number text or the character of a CHAR token
	Num   float64 // Numeric value of a NUMBER token
}

// Is reports whether t is the CHAR token for ch.
func (t Token) Is(ch rune) bool {
	return t.Type == token.CHAR && t.Value == string(ch)
}

// Char returns the character of a CHAR token, or 0 for other tokens.
func (t Token) Char() rune {
	if t.Type != token.CHAR {
		return 0
	}
	for _, r := range t.Value {
		return r
	}
	return 0
}

// Next consumes characters from the input and returns the next token.
// At end of input it returns EOF, and keeps returning EOF afterwards.
func (l *Lexer) Next() Token {
	for {
		l.skipWhitespace()
		if l.ch != '#' {
			break
		}
		l.skipComment()
	}

	pos := l.pos

	switch {
	case l.ch == eof:
		return Token{Type: token.EOF, Pos: pos}
	case isLetter(l.ch):
		return l.scanIdent(pos)
	case isDigit(l.ch) || l.ch == '.':
		return l.scanNumber(pos)
	}

	ch := l.ch
	l.next()
	return Token{Type: token.CHAR, Pos: pos, Value: string(ch)}
}

func (l *Lexer) scanIdent(pos token.Position) Token {
	var sb strings.Builder
	for isLetter(l.ch) || isDigit(l.ch) {
		sb.WriteRune(l.ch)
		l.next()
	}
	name := sb.String()
	return Token{Type: token.LookupIdent(name), Pos: pos, Value: name}
}

// scanNumber consumes a maximal run of digits and dots. Malformed runs such
// as "1.2.3" are accepted; the value is the longest prefix that parses as a
// float, which mirrors strtod.
func (l *Lexer) scanNumber(pos token.Position) Token {
	var sb strings.Builder
	for isDigit(l.ch) || l.ch == '.' {
		sb.WriteRune(l.ch)
		l.next()
	}
	raw := sb.String()
	return Token{Type: token.NUMBER, Pos: pos, Value: raw, Num: parseNumber(raw)}
}

func parseNumber(raw string) float64 {
	s := raw
	if i := strings.IndexByte(s, '.'); i >= 0 {
		if j := strings.IndexByte(s[i+1:], '.'); j >= 0 {
			s = s[:i+1+j]
		}
	}
	if s == "." || s == "" {
		return 0
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return n
}

func (l *Lexer) skipWhitespace() {
	for isSpace(l.ch) {
		l.next()
	}
}

func (l *Lexer) skipComment() {
	for l.ch != eof && l.ch != '\n' && l.ch != '\r' {
		l.next()
	}
}

func (l *Lexer) next() {
	if l.ch == eof {
		return
	}

	r, size, err := l.r.ReadRune()
	if err != nil {
		// Read errors end the stream like EOF does.
		l.ch = eof
		l.pos = l.nextPos
		return
	}

	l.pos = l.nextPos
	l.ch = r
	l.nextPos.Offset += size
	l.nextPos.Column++
	if r == '\n' {
		l.nextPos.Line++
		l.nextPos.Column = 1
	}
}

// Helper functions

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isSpace(ch rune) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
