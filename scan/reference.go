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

package scan

import (
	"fmt"
	"sort"
	"strings"
)

// Style is the slant of a font face.
type Style uint8

// The font styles distinguished by CSS.
const (
	StyleNormal Style = iota
	StyleItalic
	StyleOblique
)

func (s Style) String() string {
	switch s {
	case StyleItalic:
		return "italic"
	case StyleOblique:
		return "oblique"
	default:
		return "normal"
	}
}

// ParseStyle converts a CSS font-style keyword to a Style.
func ParseStyle(s string) Style {
	switch strings.ToLower(s) {
	case "italic":
		return StyleItalic
	case "oblique":
		return StyleOblique
	default:
		return StyleNormal
	}
}

// SourceKind describes where the binary data for a font reference
// comes from.
type SourceKind uint8

// The possible source kinds of a font reference.
const (
	// SourceUnknown means the document gives no usable source for the
	// font.
	SourceUnknown SourceKind = iota

	// SourceRemote means the font is referenced by URL, typically via
	// an @font-face src descriptor or an imported style sheet.
	SourceRemote

	// SourceLocal means the font is referenced by family name only
	// and must be found in a font registry or the local system font
	// index.
	SourceLocal

	// SourceDataURI means the font data is already inlined in the
	// document.
	SourceDataURI
)

func (k SourceKind) String() string {
	switch k {
	case SourceRemote:
		return "remote"
	case SourceLocal:
		return "local"
	case SourceDataURI:
		return "data"
	default:
		return "unknown"
	}
}

// A Reference identifies one font face used by a document.  A
// Reference is immutable after creation.
type Reference struct {
	Family  string
	Style   Style
	Weight  int
	Kind    SourceKind
	Locator string
}

// A Key identifies a font face within a document.  Family names are
// compared case-insensitively.
type Key struct {
	Family string
	Style  Style
	Weight int
}

// Key returns the identity of the reference.
func (r Reference) Key() Key {
	return Key{
		Family: foldFamily(r.Family),
		Style:  r.Style,
		Weight: r.Weight,
	}
}

func (r Reference) String() string {
	return fmt.Sprintf("%s %d %s", r.Family, r.Weight, r.Style)
}

// foldFamily normalizes a font family name for comparison.
func foldFamily(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// A CodeSet is a set of Unicode code points.
type CodeSet struct {
	m map[rune]struct{}
}

// NewCodeSet creates a code set containing the given runes.
func NewCodeSet(runes ...rune) *CodeSet {
	s := &CodeSet{m: make(map[rune]struct{})}
	for _, r := range runes {
		s.m[r] = struct{}{}
	}
	return s
}

// Add inserts a code point into the set.
func (s *CodeSet) Add(r rune) {
	s.m[r] = struct{}{}
}

// Has reports whether the set contains the given code point.
func (s *CodeSet) Has(r rune) bool {
	_, ok := s.m[r]
	return ok
}

// Len returns the number of code points in the set.
func (s *CodeSet) Len() int {
	return len(s.m)
}

// Runes returns the code points in the set, sorted in increasing
// order.
func (s *CodeSet) Runes() []rune {
	res := make([]rune, 0, len(s.m))
	for r := range s.m {
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}
