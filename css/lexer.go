// seehuhn.de/go/svgfonts - embed fonts into SVG documents
// Copyright (C) 2025  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package css

import (
	"strings"
	"unicode/utf8"
)

// A lexer splits CSS source text into tokens.  Comments are skipped,
// runs of white space are merged into a single TokWhitespace token.
type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekAt(k int) byte {
	if l.pos+k >= len(l.src) {
		return 0
	}
	return l.src[l.pos+k]
}

// next returns the next token.  At the end of input it returns TokEOF
// forever.
func (l *lexer) next() Token {
	l.skipComments()
	if l.pos >= len(l.src) {
		return Token{Type: TokEOF}
	}

	c := l.src[l.pos]
	switch {
	case isSpace(c):
		start := l.pos
		for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
			l.pos++
		}
		return Token{Type: TokWhitespace, Value: l.src[start:l.pos]}

	case c == '"' || c == '\'':
		return l.stringToken(c)

	case c == '#':
		l.pos++
		name := l.name()
		return Token{Type: TokHash, Value: name}

	case c == '@':
		if isNameStart(l.peekAt(1)) {
			l.pos++
			return Token{Type: TokAtKeyword, Value: l.name()}
		}
		l.pos++
		return Token{Type: TokDelim, Value: "@"}

	case c >= '0' && c <= '9',
		(c == '.' || c == '+' || c == '-') && l.startsNumber():
		return l.numberToken()

	case isNameStart(c) || c == '\\':
		name := l.name()
		if strings.EqualFold(name, "url") && l.peek() == '(' {
			l.pos++
			return l.urlToken()
		}
		if l.peek() == '(' {
			l.pos++
			return Token{Type: TokFunction, Value: name}
		}
		return Token{Type: TokIdent, Value: name}

	case c == ':':
		l.pos++
		return Token{Type: TokColon, Value: ":"}
	case c == ';':
		l.pos++
		return Token{Type: TokSemicolon, Value: ";"}
	case c == ',':
		l.pos++
		return Token{Type: TokComma, Value: ","}
	case c == '{':
		l.pos++
		return Token{Type: TokLBrace, Value: "{"}
	case c == '}':
		l.pos++
		return Token{Type: TokRBrace, Value: "}"}
	case c == '(':
		l.pos++
		return Token{Type: TokLParen, Value: "("}
	case c == ')':
		l.pos++
		return Token{Type: TokRParen, Value: ")"}
	case c == '[':
		l.pos++
		return Token{Type: TokLBracket, Value: "["}
	case c == ']':
		l.pos++
		return Token{Type: TokRBracket, Value: "]"}

	default:
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		l.pos += size
		return Token{Type: TokDelim, Value: string(r)}
	}
}

func (l *lexer) skipComments() {
	for l.pos+1 < len(l.src) && l.src[l.pos] == '/' && l.src[l.pos+1] == '*' {
		end := strings.Index(l.src[l.pos+2:], "*/")
		if end < 0 {
			l.pos = len(l.src)
			return
		}
		l.pos += 2 + end + 2
	}
}

// startsNumber reports whether the input at the current position begins
// a numeric token.  The current byte is '.', '+' or '-'.
func (l *lexer) startsNumber() bool {
	c1 := l.peekAt(1)
	if l.peek() == '.' {
		return c1 >= '0' && c1 <= '9'
	}
	if c1 >= '0' && c1 <= '9' {
		return true
	}
	return c1 == '.' && l.peekAt(2) >= '0' && l.peekAt(2) <= '9'
}

func (l *lexer) numberToken() Token {
	start := l.pos
	if c := l.peek(); c == '+' || c == '-' {
		l.pos++
	}
	for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
		l.pos++
	}
	if l.peek() == '.' && l.peekAt(1) >= '0' && l.peekAt(1) <= '9' {
		l.pos++
		for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
			l.pos++
		}
	}
	num := l.src[start:l.pos]
	// A trailing unit or percent sign is consumed but not needed for
	// font properties; the numeric value is kept.
	if isNameStart(l.peek()) {
		l.name()
	} else if l.peek() == '%' {
		l.pos++
	}
	return Token{Type: TokNumber, Value: num}
}

func (l *lexer) stringToken(quote byte) Token {
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case quote:
			l.pos++
			return Token{Type: TokString, Value: sb.String()}
		case '\n':
			// unterminated string
			return Token{Type: TokString, Value: sb.String()}
		case '\\':
			l.pos++
			sb.WriteRune(l.escape())
		default:
			r, size := utf8.DecodeRuneInString(l.src[l.pos:])
			l.pos += size
			sb.WriteRune(r)
		}
	}
	return Token{Type: TokString, Value: sb.String()}
}

// urlToken reads the contents of a url(...) token.  The opening "url("
// has already been consumed.
func (l *lexer) urlToken() Token {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
	if c := l.peek(); c == '"' || c == '\'' {
		tok := l.stringToken(c)
		for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
			l.pos++
		}
		if l.peek() == ')' {
			l.pos++
		}
		return Token{Type: TokURL, Value: tok.Value}
	}

	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ')' {
			l.pos++
			break
		}
		if isSpace(c) {
			l.pos++
			continue
		}
		if c == '\\' {
			l.pos++
			sb.WriteRune(l.escape())
			continue
		}
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		l.pos += size
		sb.WriteRune(r)
	}
	return Token{Type: TokURL, Value: sb.String()}
}

// name reads an identifier, decoding backslash escapes.
func (l *lexer) name() string {
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if isNameChar(c) {
			sb.WriteByte(c)
			l.pos++
		} else if c == '\\' {
			l.pos++
			sb.WriteRune(l.escape())
		} else if c >= 0x80 {
			r, size := utf8.DecodeRuneInString(l.src[l.pos:])
			sb.WriteRune(r)
			l.pos += size
		} else {
			break
		}
	}
	return sb.String()
}

// escape decodes a backslash escape.  The backslash has already been
// consumed.
func (l *lexer) escape() rune {
	if l.pos >= len(l.src) {
		return utf8.RuneError
	}
	c := l.src[l.pos]
	if isHex(c) {
		var val rune
		n := 0
		for n < 6 && l.pos < len(l.src) && isHex(l.src[l.pos]) {
			val = val<<4 | rune(hexVal(l.src[l.pos]))
			l.pos++
			n++
		}
		if l.pos < len(l.src) && isSpace(l.src[l.pos]) {
			l.pos++
		}
		if val == 0 || val > utf8.MaxRune {
			return utf8.RuneError
		}
		return val
	}
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	return r
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c >= 0x80
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c >= '0' && c <= '9' || c == '-'
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}
