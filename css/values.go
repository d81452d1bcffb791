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
	"strconv"
	"strings"
)

// FontFamilies parses the value of a font-family property and returns
// the list of family names, in order of preference.  Unquoted
// multi-word names are joined with single spaces.
func FontFamilies(value []Token) []string {
	var families []string
	var words []string
	flush := func() {
		if len(words) > 0 {
			families = append(families, strings.Join(words, " "))
			words = nil
		}
	}
	for _, tok := range value {
		switch tok.Type {
		case TokString:
			flush()
			if tok.Value != "" {
				families = append(families, tok.Value)
			}
		case TokIdent:
			words = append(words, tok.Value)
		case TokComma:
			flush()
		}
	}
	flush()
	return families
}

// genericFamilies are the CSS generic family keywords.  They name
// renderer-chosen fallbacks rather than concrete fonts and are never
// resolved or embedded.
var genericFamilies = map[string]bool{
	"serif":         true,
	"sans-serif":    true,
	"monospace":     true,
	"cursive":       true,
	"fantasy":       true,
	"system-ui":     true,
	"math":          true,
	"emoji":         true,
	"fangsong":      true,
	"ui-serif":      true,
	"ui-sans-serif": true,
	"ui-monospace":  true,
	"ui-rounded":    true,
}

// IsGenericFamily reports whether name is a CSS generic font family
// keyword such as "serif" or "monospace".
func IsGenericFamily(name string) bool {
	return genericFamilies[strings.ToLower(name)]
}

// FontWeight parses a font-weight value.  The parent weight is used
// to resolve the relative keywords "bolder" and "lighter".  The
// second return value is false if the value cannot be interpreted.
func FontWeight(value []Token, parent int) (int, bool) {
	if len(value) == 0 {
		return 0, false
	}
	tok := value[0]
	switch tok.Type {
	case TokNumber:
		w, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil || w < 1 || w > 1000 {
			return 0, false
		}
		return int(w + 0.5), true
	case TokIdent:
		switch strings.ToLower(tok.Value) {
		case "normal":
			return 400, true
		case "bold":
			return 700, true
		case "bolder":
			return bolder(parent), true
		case "lighter":
			return lighter(parent), true
		}
	}
	return 0, false
}

// bolder implements the CSS relative weight mapping.
func bolder(parent int) int {
	switch {
	case parent < 350:
		return 400
	case parent < 550:
		return 700
	default:
		return 900
	}
}

func lighter(parent int) int {
	switch {
	case parent < 550:
		return 100
	case parent < 750:
		return 400
	default:
		return 700
	}
}

// FontStyle parses a font-style value and returns one of "normal",
// "italic" or "oblique".  The second return value is false if the
// value cannot be interpreted.
func FontStyle(value []Token) (string, bool) {
	if len(value) == 0 || value[0].Type != TokIdent {
		return "", false
	}
	switch s := strings.ToLower(value[0].Value); s {
	case "normal", "italic", "oblique":
		return s, true
	}
	return "", false
}

// A SrcEntry is one alternative from the src descriptor of an
// @font-face rule.  Either URL or Local is set.
type SrcEntry struct {
	URL    string
	Format string
	Local  string
}

// FontFaceSrc parses the src descriptor of an @font-face rule into
// its comma-separated alternatives.
func FontFaceSrc(value []Token) []SrcEntry {
	var entries []SrcEntry
	var cur *SrcEntry
	flush := func() {
		if cur != nil && (cur.URL != "" || cur.Local != "") {
			entries = append(entries, *cur)
		}
		cur = nil
	}

	for i := 0; i < len(value); i++ {
		tok := value[i]
		switch tok.Type {
		case TokURL:
			flush()
			cur = &SrcEntry{URL: tok.Value}
		case TokFunction:
			name := strings.ToLower(tok.Value)
			// collect tokens up to the closing parenthesis
			var inner []Token
			for i++; i < len(value) && value[i].Type != TokRParen; i++ {
				inner = append(inner, value[i])
			}
			switch name {
			case "format":
				if cur != nil && len(inner) > 0 {
					cur.Format = strings.ToLower(inner[0].Value)
				}
			case "local":
				flush()
				var words []string
				for _, t := range inner {
					if t.Type == TokIdent || t.Type == TokString {
						words = append(words, t.Value)
					}
				}
				if len(words) > 0 {
					cur = &SrcEntry{Local: strings.Join(words, " ")}
				}
			}
		case TokComma:
			flush()
		}
	}
	flush()
	return entries
}

// Text reconstructs an approximate textual form of a token sequence.
// This is used for diagnostics only.
func Text(value []Token) string {
	var parts []string
	for _, tok := range value {
		switch tok.Type {
		case TokString:
			parts = append(parts, strconv.Quote(tok.Value))
		case TokURL:
			parts = append(parts, "url("+tok.Value+")")
		case TokComma:
			parts = append(parts, ",")
		default:
			parts = append(parts, tok.Value)
		}
	}
	return strings.Join(parts, " ")
}
