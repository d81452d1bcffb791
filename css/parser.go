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

// Package css implements the subset of CSS needed to find and rewrite
// font references in SVG documents: style sheets with @import and
// @font-face rules, style rules using tag, class, id and descendant
// selectors, and the font-family, font-style and font-weight
// properties.
package css

import (
	"fmt"
	"strings"
)

// A Stylesheet is a parsed style sheet.  Rules appear in document
// order.
type Stylesheet struct {
	Rules []Rule
}

// A Rule is one top-level rule of a style sheet.  The concrete types
// are [*ImportRule], [*FontFaceRule] and [*StyleRule].
type Rule interface {
	isRule()
}

// An ImportRule represents an "@import url(...)" rule.
type ImportRule struct {
	URL string
}

// A FontFaceRule represents an "@font-face { ... }" rule.
type FontFaceRule struct {
	Decls []Declaration
}

// A StyleRule is an ordinary rule with selectors and a declaration
// block.
type StyleRule struct {
	Selectors []Selector
	Decls     []Declaration
}

func (*ImportRule) isRule()   {}
func (*FontFaceRule) isRule() {}
func (*StyleRule) isRule()    {}

// A Declaration is a single "property: value" pair.  Value holds the
// component tokens of the value, with any "!important" suffix removed
// and recorded in Important.
type Declaration struct {
	Property  string
	Value     []Token
	Important bool
}

// Parse parses a style sheet.  Unknown at-rules and malformed
// constructs are skipped; a description of each skipped construct is
// returned as a warning.
func Parse(src string) (*Stylesheet, []string) {
	p := &parser{lex: newLexer(src)}
	p.advance()

	sheet := &Stylesheet{}
	for p.tok.Type != TokEOF {
		if p.tok.Type == TokWhitespace {
			p.advance()
			continue
		}
		rule := p.parseRule()
		if rule != nil {
			sheet.Rules = append(sheet.Rules, rule)
		}
	}
	return sheet, p.warnings
}

// ParseDeclarations parses the contents of a declaration block, as
// found in a style attribute.
func ParseDeclarations(src string) []Declaration {
	p := &parser{lex: newLexer(src)}
	p.advance()
	return p.parseDeclarations()
}

// ParseValue tokenizes a single property value, as found in an SVG
// presentation attribute.  White space tokens are dropped.
func ParseValue(src string) []Token {
	l := newLexer(src)
	var toks []Token
	for {
		tok := l.next()
		switch tok.Type {
		case TokEOF:
			return toks
		case TokWhitespace:
			// skip
		default:
			toks = append(toks, tok)
		}
	}
}

type parser struct {
	lex      *lexer
	tok      Token
	warnings []string
}

func (p *parser) advance() {
	p.tok = p.lex.next()
}

func (p *parser) skipSpace() {
	for p.tok.Type == TokWhitespace {
		p.advance()
	}
}

func (p *parser) warn(format string, args ...interface{}) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *parser) parseRule() Rule {
	if p.tok.Type == TokAtKeyword {
		return p.parseAtRule()
	}
	return p.parseStyleRule()
}

func (p *parser) parseAtRule() Rule {
	name := strings.ToLower(p.tok.Value)
	p.advance()
	switch name {
	case "import":
		return p.parseImport()
	case "font-face":
		p.skipSpace()
		if p.tok.Type != TokLBrace {
			p.warn("@font-face: expected '{', got %s", p.tok.Type)
			p.skipToEndOfRule()
			return nil
		}
		p.advance()
		decls := p.parseDeclarations()
		if p.tok.Type == TokRBrace {
			p.advance()
		}
		return &FontFaceRule{Decls: decls}
	default:
		p.warn("skipping unsupported @%s rule", name)
		p.skipToEndOfRule()
		return nil
	}
}

func (p *parser) parseImport() Rule {
	p.skipSpace()
	var url string
	switch p.tok.Type {
	case TokURL, TokString:
		url = p.tok.Value
		p.advance()
	default:
		p.warn("@import: expected url, got %s", p.tok.Type)
		p.skipToEndOfRule()
		return nil
	}
	// Media queries after the URL are not supported; skip to the end
	// of the rule.
	for p.tok.Type != TokSemicolon && p.tok.Type != TokEOF {
		if p.tok.Type == TokLBrace {
			p.skipBlock()
			return &ImportRule{URL: url}
		}
		p.advance()
	}
	if p.tok.Type == TokSemicolon {
		p.advance()
	}
	return &ImportRule{URL: url}
}

func (p *parser) parseStyleRule() Rule {
	selectors, ok := p.parseSelectors()
	if !ok {
		p.skipToEndOfRule()
		return nil
	}
	if p.tok.Type != TokLBrace {
		p.warn("expected '{' after selector, got %s", p.tok.Type)
		p.skipToEndOfRule()
		return nil
	}
	p.advance()
	decls := p.parseDeclarations()
	if p.tok.Type == TokRBrace {
		p.advance()
	}
	if len(selectors) == 0 {
		return nil
	}
	return &StyleRule{Selectors: selectors, Decls: decls}
}

// parseSelectors parses a comma-separated selector list, up to the
// opening brace.  Selectors using unsupported syntax are dropped from
// the list; if all selectors are dropped, ok is still true and the
// rule matches nothing.
func (p *parser) parseSelectors() (selectors []Selector, ok bool) {
	var current Selector
	var part *SimpleSelector
	flush := func() {
		if part != nil {
			current.Parts = append(current.Parts, *part)
			part = nil
		}
	}
	endSelector := func() {
		flush()
		if len(current.Parts) > 0 {
			selectors = append(selectors, current)
		}
		current = Selector{}
	}

	for {
		switch p.tok.Type {
		case TokWhitespace:
			// descendant combinator
			flush()
			p.advance()
		case TokIdent:
			if part == nil {
				part = &SimpleSelector{}
			}
			if part.Tag != "" || part.ID != "" || len(part.Classes) > 0 {
				// tag after other parts is invalid
				p.warn("unsupported selector near %q", p.tok.Value)
				return nil, false
			}
			part.Tag = p.tok.Value
			p.advance()
		case TokHash:
			if part == nil {
				part = &SimpleSelector{}
			}
			part.ID = p.tok.Value
			p.advance()
		case TokDelim:
			switch p.tok.Value {
			case ".":
				p.advance()
				if p.tok.Type != TokIdent {
					p.warn("expected class name after '.'")
					return nil, false
				}
				if part == nil {
					part = &SimpleSelector{}
				}
				part.Classes = append(part.Classes, p.tok.Value)
				p.advance()
			case "*":
				if part == nil {
					part = &SimpleSelector{}
				}
				p.advance()
			default:
				// child/sibling combinators, attribute selectors etc.
				p.warn("unsupported selector syntax %q", p.tok.Value)
				return nil, false
			}
		case TokComma:
			endSelector()
			p.advance()
		case TokLBrace:
			endSelector()
			return selectors, true
		case TokEOF:
			return nil, false
		default:
			p.warn("unsupported selector syntax %q", p.tok.Value)
			return nil, false
		}
	}
}

// parseDeclarations parses declarations up to (but not including) the
// closing brace.
func (p *parser) parseDeclarations() []Declaration {
	var decls []Declaration
	for {
		p.skipSpace()
		switch p.tok.Type {
		case TokRBrace, TokEOF:
			return decls
		case TokSemicolon:
			p.advance()
			continue
		case TokIdent:
			// ok
		default:
			p.warn("skipping malformed declaration near %q", p.tok.Value)
			p.skipDeclaration()
			continue
		}

		property := strings.ToLower(p.tok.Value)
		p.advance()
		p.skipSpace()
		if p.tok.Type != TokColon {
			p.warn("missing ':' after property %q", property)
			p.skipDeclaration()
			continue
		}
		p.advance()

		var value []Token
		important := false
	valueLoop:
		for {
			switch p.tok.Type {
			case TokSemicolon, TokRBrace, TokEOF:
				break valueLoop
			case TokWhitespace:
				p.advance()
				continue
			case TokDelim:
				if p.tok.Value == "!" {
					p.advance()
					p.skipSpace()
					if p.tok.Type == TokIdent && strings.EqualFold(p.tok.Value, "important") {
						important = true
						p.advance()
						continue
					}
				}
				value = append(value, p.tok)
				p.advance()
			case TokLBrace:
				// malformed; abandon this declaration
				p.skipBlock()
				break valueLoop
			default:
				value = append(value, p.tok)
				p.advance()
			}
		}
		decls = append(decls, Declaration{
			Property:  property,
			Value:     value,
			Important: important,
		})
	}
}

// skipDeclaration advances past the next ';' at nesting level zero.
func (p *parser) skipDeclaration() {
	for {
		switch p.tok.Type {
		case TokSemicolon:
			p.advance()
			return
		case TokRBrace, TokEOF:
			return
		case TokLBrace:
			p.skipBlock()
		default:
			p.advance()
		}
	}
}

// skipToEndOfRule advances past the end of the current rule, either a
// ';' or a balanced block.
func (p *parser) skipToEndOfRule() {
	for {
		switch p.tok.Type {
		case TokSemicolon:
			p.advance()
			return
		case TokLBrace:
			p.skipBlock()
			return
		case TokEOF:
			return
		default:
			p.advance()
		}
	}
}

// skipBlock consumes a balanced {...} block, including the braces.
func (p *parser) skipBlock() {
	depth := 0
	for {
		switch p.tok.Type {
		case TokLBrace:
			depth++
		case TokRBrace:
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		case TokEOF:
			return
		}
		p.advance()
	}
}
