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

// A Cascade resolves declared property values for document elements,
// applying the style rules of one or more sheets in document order.
type Cascade struct {
	rules []cascadeRule
}

type cascadeRule struct {
	sel   Selector
	decl  Declaration
	order int
}

// NewCascade creates a cascade from the given style sheets.  The
// sheets must be passed in document order; rules from later sheets
// win ties against earlier ones.
func NewCascade(sheets ...*Stylesheet) *Cascade {
	c := &Cascade{}
	order := 0
	for _, sheet := range sheets {
		for _, rule := range sheet.Rules {
			styleRule, ok := rule.(*StyleRule)
			if !ok {
				continue
			}
			for _, sel := range styleRule.Selectors {
				for _, decl := range styleRule.Decls {
					c.rules = append(c.rules, cascadeRule{
						sel:   sel,
						decl:  decl,
						order: order,
					})
					order++
				}
			}
		}
	}
	return c
}

// Declared returns the winning declared value for each property on
// the given element.  The inline declarations come from the
// element's style attribute and take part in the cascade with
// style-attribute priority.  Inherited values are not included; the
// caller is responsible for inheritance.
func (c *Cascade) Declared(n Node, inline []Declaration) map[string]Declaration {
	type candidate struct {
		decl   Declaration
		inline bool
		spec   [3]int
		order  int
	}
	best := make(map[string]candidate)

	better := func(a, b candidate) bool {
		if a.decl.Important != b.decl.Important {
			return a.decl.Important
		}
		if a.inline != b.inline {
			return a.inline
		}
		if d := compareSpecificity(a.spec, b.spec); d != 0 {
			return d > 0
		}
		return a.order >= b.order
	}

	for _, rule := range c.rules {
		if !rule.sel.Matches(n) {
			continue
		}
		cand := candidate{
			decl:  rule.decl,
			spec:  rule.sel.Specificity(),
			order: rule.order,
		}
		if prev, ok := best[rule.decl.Property]; !ok || better(cand, prev) {
			best[rule.decl.Property] = cand
		}
	}

	for i, decl := range inline {
		cand := candidate{decl: decl, inline: true, order: i}
		if prev, ok := best[decl.Property]; !ok || better(cand, prev) {
			best[decl.Property] = cand
		}
	}

	res := make(map[string]Declaration, len(best))
	for prop, cand := range best {
		res[prop] = cand.decl
	}
	return res
}
