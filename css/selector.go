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

// A Node is an element in the document tree, as seen by the selector
// matcher.  The caller adapts its document representation to this
// interface.
type Node interface {
	// Tag returns the local element name, e.g. "text".
	Tag() string

	// ID returns the value of the id attribute, or "".
	ID() string

	// Classes returns the class names of the element.
	Classes() []string

	// Parent returns the parent element, or nil for the root.
	Parent() Node
}

// A SimpleSelector matches a single element by tag name, id and/or
// class names.  Empty fields match anything, so the zero value is the
// universal selector "*".
type SimpleSelector struct {
	Tag     string
	ID      string
	Classes []string
}

func (s *SimpleSelector) matches(n Node) bool {
	if s.Tag != "" && s.Tag != n.Tag() {
		return false
	}
	if s.ID != "" && s.ID != n.ID() {
		return false
	}
	if len(s.Classes) > 0 {
		have := n.Classes()
	classLoop:
		for _, want := range s.Classes {
			for _, c := range have {
				if c == want {
					continue classLoop
				}
			}
			return false
		}
	}
	return true
}

// A Selector is a chain of simple selectors joined by descendant
// combinators.  The last element of Parts is the subject of the
// selector.
type Selector struct {
	Parts []SimpleSelector
}

// Specificity returns the specificity of the selector as
// (id, class, tag) counts, most significant first.
func (s Selector) Specificity() [3]int {
	var spec [3]int
	for _, part := range s.Parts {
		if part.ID != "" {
			spec[0]++
		}
		spec[1] += len(part.Classes)
		if part.Tag != "" {
			spec[2]++
		}
	}
	return spec
}

// Matches reports whether the selector matches the given element.
func (s Selector) Matches(n Node) bool {
	if len(s.Parts) == 0 {
		return false
	}
	last := len(s.Parts) - 1
	if !s.Parts[last].matches(n) {
		return false
	}

	// The remaining parts must match ancestors, in order but not
	// necessarily consecutively.
	anc := n.Parent()
	for i := last - 1; i >= 0; i-- {
		for {
			if anc == nil {
				return false
			}
			if s.Parts[i].matches(anc) {
				anc = anc.Parent()
				break
			}
			anc = anc.Parent()
		}
	}
	return true
}

// compareSpecificity returns -1, 0 or +1 depending on whether a is
// less specific than, equal to, or more specific than b.
func compareSpecificity(a, b [3]int) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return +1
		}
	}
	return 0
}
