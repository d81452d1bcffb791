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

// TokenType enumerates the kinds of tokens produced by the lexer.
type TokenType uint8

// The token types used by the parser.
const (
	TokEOF TokenType = iota
	TokIdent
	TokAtKeyword
	TokString
	TokHash
	TokNumber
	TokURL
	TokFunction
	TokWhitespace
	TokColon
	TokSemicolon
	TokComma
	TokLBrace
	TokRBrace
	TokLParen
	TokRParen
	TokLBracket
	TokRBracket
	TokDelim
)

// A Token is a single lexical unit of a style sheet.
type Token struct {
	Type  TokenType
	Value string
}

func (tok Token) isEOF() bool {
	return tok.Type == TokEOF
}

func (t TokenType) String() string {
	switch t {
	case TokEOF:
		return "EOF"
	case TokIdent:
		return "ident"
	case TokAtKeyword:
		return "at-keyword"
	case TokString:
		return "string"
	case TokHash:
		return "hash"
	case TokNumber:
		return "number"
	case TokURL:
		return "url"
	case TokFunction:
		return "function"
	case TokWhitespace:
		return "whitespace"
	case TokColon:
		return "colon"
	case TokSemicolon:
		return "semicolon"
	case TokComma:
		return "comma"
	case TokLBrace:
		return "{"
	case TokRBrace:
		return "}"
	case TokLParen:
		return "("
	case TokRParen:
		return ")"
	case TokLBracket:
		return "["
	case TokRBracket:
		return "]"
	case TokDelim:
		return "delim"
	default:
		return "unknown"
	}
}
