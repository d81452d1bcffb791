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

// Package scan finds font references in SVG documents and records
// which code points are rendered with each referenced font.
package scan

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/unicode/norm"

	"seehuhn.de/go/svgfonts/css"
)

// maxImportDepth limits recursion through nested @import rules.
const maxImportDepth = 5

// A Loader fetches the contents of a style sheet referenced by an
// @import rule.  The location has already been resolved against the
// document location; it is either an absolute URL or a file path.
type Loader func(location string) ([]byte, error)

// An Import records one @import rule found in the document, together
// with the font families declared by @font-face rules in the imported
// sheet.  The rewriter uses this to drop @import rules which have
// become redundant after embedding.
type Import struct {
	URL      string
	Families []Key
}

// A Result holds everything the scanner found in one document.
type Result struct {
	// Refs lists the discovered font references in the order of first
	// discovery.  Each Key appears at most once.
	Refs []Reference

	// Usage maps each reference to the set of code points rendered
	// with it.
	Usage map[Key]*CodeSet

	// Imports lists the @import rules of the document.
	Imports []Import

	// Warnings lists non-fatal problems encountered while scanning.
	Warnings []string
}

// Scan parses the style information of an SVG document and determines
// which font faces are referenced and which code points are rendered
// with each face.
//
// The base location (a file path or URL, possibly empty) is used to
// resolve relative @import targets.  The loader is called for each
// imported style sheet; a nil loader disables @import expansion.
func Scan(doc *etree.Document, base string, load Loader) (*Result, error) {
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}

	s := &scanner{
		base: base,
		load: load,
		res: &Result{
			Usage: make(map[Key]*CodeSet),
		},
		refIndex: make(map[Key]int),
	}

	// Pass 1: collect style sheets in document order, expanding
	// @import rules.
	var sheets []*css.Stylesheet
	for _, styleElem := range findElements(root, "style") {
		sheet, warnings := css.Parse(elementText(styleElem))
		s.res.Warnings = append(s.res.Warnings, warnings...)
		sheets = append(sheets, s.expand(sheet, base, 0)...)
	}
	s.sheets = sheets

	// Pass 2: register @font-face rules.
	for _, sheet := range sheets {
		for _, rule := range sheet.Rules {
			if ff, ok := rule.(*css.FontFaceRule); ok {
				s.addFontFace(ff)
			}
		}
	}

	// Pass 3: walk the element tree, resolving the cascade for each
	// text element.
	s.cascade = css.NewCascade(sheets...)
	s.walk(root, nil, inherited{
		weight: 400,
		style:  "normal",
	})

	return s.res, nil
}

type inherited struct {
	families []string
	weight   int
	style    string
}

type face struct {
	ref Reference
}

type scanner struct {
	base     string
	load     Loader
	sheets   []*css.Stylesheet
	cascade  *css.Cascade
	faces    []face
	res      *Result
	refIndex map[Key]int
}

// expand returns the given sheet together with all sheets pulled in
// by its @import rules, in cascade order (imported sheets first, as
// if their rules stood at the position of the @import rule).
func (s *scanner) expand(sheet *css.Stylesheet, base string, depth int) []*css.Stylesheet {
	var res []*css.Stylesheet
	for _, rule := range sheet.Rules {
		imp, ok := rule.(*css.ImportRule)
		if !ok {
			continue
		}
		location := resolveRef(base, imp.URL)
		rec := Import{URL: imp.URL}

		if s.load == nil || depth >= maxImportDepth {
			s.res.Imports = append(s.res.Imports, rec)
			continue
		}
		data, err := s.load(location)
		if err != nil {
			s.warn("cannot load imported style sheet %q: %v", imp.URL, err)
			s.res.Imports = append(s.res.Imports, rec)
			continue
		}
		imported, warnings := css.Parse(string(data))
		s.res.Warnings = append(s.res.Warnings, warnings...)

		for _, r := range imported.Rules {
			if ff, ok := r.(*css.FontFaceRule); ok {
				if key, ok := fontFaceKey(ff); ok {
					rec.Families = append(rec.Families, key)
				}
			}
		}
		s.res.Imports = append(s.res.Imports, rec)
		res = append(res, s.expand(imported, location, depth+1)...)
	}
	res = append(res, sheet)
	return res
}

// fontFaceKey extracts the identity of the face declared by an
// @font-face rule.
func fontFaceKey(ff *css.FontFaceRule) (Key, bool) {
	var family string
	style := StyleNormal
	weight := 400
	for _, decl := range ff.Decls {
		switch decl.Property {
		case "font-family":
			if ss := css.FontFamilies(decl.Value); len(ss) > 0 {
				family = ss[0]
			}
		case "font-style":
			if v, ok := css.FontStyle(decl.Value); ok {
				style = ParseStyle(v)
			}
		case "font-weight":
			if w, ok := css.FontWeight(decl.Value, 400); ok {
				weight = w
			}
		}
	}
	if family == "" {
		return Key{}, false
	}
	return Key{Family: foldFamily(family), Style: style, Weight: weight}, true
}

// addFontFace registers an @font-face rule as a font reference.
func (s *scanner) addFontFace(ff *css.FontFaceRule) {
	key, ok := fontFaceKey(ff)
	if !ok {
		s.warn("@font-face rule without font-family ignored")
		return
	}

	var familyName string
	var srcDecl []css.Token
	for _, decl := range ff.Decls {
		switch decl.Property {
		case "font-family":
			if ss := css.FontFamilies(decl.Value); len(ss) > 0 {
				familyName = ss[0]
			}
		case "src":
			srcDecl = decl.Value
		}
	}

	kind := SourceUnknown
	locator := ""
	if srcDecl != nil {
		entries := css.FontFaceSrc(srcDecl)
		if len(entries) == 0 {
			s.warn("@font-face for %q: unparsable src descriptor", familyName)
		}
		for _, e := range entries {
			switch {
			case strings.HasPrefix(e.URL, "data:"):
				kind = SourceDataURI
				locator = e.URL
			case e.URL != "":
				kind = SourceRemote
				locator = resolveRef(s.base, e.URL)
			case e.Local != "":
				kind = SourceLocal
				locator = e.Local
			default:
				continue
			}
			break
		}
	}

	ref := Reference{
		Family:  familyName,
		Style:   key.Style,
		Weight:  key.Weight,
		Kind:    kind,
		Locator: locator,
	}
	s.addRef(ref)
	s.faces = append(s.faces, face{ref: ref})
}

// addRef records a reference, keeping the first discovery and its
// order.
func (s *scanner) addRef(ref Reference) Reference {
	key := ref.Key()
	if i, ok := s.refIndex[key]; ok {
		return s.res.Refs[i]
	}
	s.refIndex[key] = len(s.res.Refs)
	s.res.Refs = append(s.res.Refs, ref)
	s.res.Usage[key] = NewCodeSet()
	return ref
}

func (s *scanner) warn(format string, args ...interface{}) {
	s.res.Warnings = append(s.res.Warnings, fmt.Sprintf(format, args...))
}

// textElements can directly contain rendered character data.
var textElements = map[string]bool{
	"text":     true,
	"tspan":    true,
	"textPath": true,
}

func (s *scanner) walk(elem *etree.Element, ancestors []*etree.Element, inh inherited) {
	computed := s.computeStyle(elem, ancestors, inh)

	if textElements[elem.Tag] {
		var text strings.Builder
		for _, child := range elem.Child {
			if cd, ok := child.(*etree.CharData); ok {
				text.WriteString(cd.Data)
			}
		}
		s.recordUsage(computed, text.String())
	}

	ancestors = append(ancestors, elem)
	for _, child := range elem.ChildElements() {
		s.walk(child, ancestors, computed)
	}
}

// computeStyle determines the computed font properties for an
// element: cascade result if declared, else presentation attribute,
// else the inherited value.
func (s *scanner) computeStyle(elem *etree.Element, ancestors []*etree.Element, inh inherited) inherited {
	node := &etreeNode{elem: elem, ancestors: ancestors}
	inline := css.ParseDeclarations(elem.SelectAttrValue("style", ""))
	decls := s.cascade.Declared(node, inline)

	out := inh

	if decl, ok := decls["font-family"]; ok {
		out.families = css.FontFamilies(decl.Value)
	} else if attr := elem.SelectAttrValue("font-family", ""); attr != "" {
		out.families = css.FontFamilies(css.ParseValue(attr))
	}

	if decl, ok := decls["font-weight"]; ok {
		if w, ok := css.FontWeight(decl.Value, inh.weight); ok {
			out.weight = w
		}
	} else if attr := elem.SelectAttrValue("font-weight", ""); attr != "" {
		if w, ok := css.FontWeight(css.ParseValue(attr), inh.weight); ok {
			out.weight = w
		}
	}

	if decl, ok := decls["font-style"]; ok {
		if v, ok := css.FontStyle(decl.Value); ok {
			out.style = v
		}
	} else if attr := elem.SelectAttrValue("font-style", ""); attr != "" {
		if v, ok := css.FontStyle(css.ParseValue(attr)); ok {
			out.style = v
		}
	}

	return out
}

// recordUsage assigns the code points of text to the font reference
// active under the computed style.
func (s *scanner) recordUsage(computed inherited, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	ref, ok := s.activeReference(computed)
	if !ok {
		return
	}
	set := s.res.Usage[ref.Key()]
	for _, r := range norm.NFC.String(text) {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		set.Add(r)
	}
}

// activeReference finds the font reference selected by the computed
// font properties: the first family in the list that is backed by an
// @font-face rule, or the first non-generic family as a bare system
// font reference.
func (s *scanner) activeReference(computed inherited) (Reference, bool) {
	style := ParseStyle(computed.style)
	for _, family := range computed.families {
		if css.IsGenericFamily(family) {
			// the renderer picks a default font; nothing to embed
			return Reference{}, false
		}
		if ref, ok := s.matchFace(family, style, computed.weight); ok {
			return ref, true
		}
		// A family without @font-face backing is a system font
		// reference.
		ref := Reference{
			Family: family,
			Style:  style,
			Weight: computed.weight,
			Kind:   SourceLocal,
		}
		return s.addRef(ref), true
	}
	return Reference{}, false
}

// matchFace finds the @font-face declared face best matching the
// requested style and weight: exact style preferred, then nearest
// weight with ties broken toward the heavier face.
func (s *scanner) matchFace(family string, style Style, weight int) (Reference, bool) {
	fold := foldFamily(family)
	var best *Reference
	bestScore := -1 << 30
	for i := range s.faces {
		ref := &s.faces[i].ref
		if foldFamily(ref.Family) != fold {
			continue
		}
		score := 0
		if ref.Style == style {
			score += 1 << 20
		}
		d := ref.Weight - weight
		if d < 0 {
			d = -d
			score -= 2*d + 1 // prefer the heavier face on ties
		} else {
			score -= 2 * d
		}
		if score > bestScore {
			bestScore = score
			best = ref
		}
	}
	if best == nil {
		return Reference{}, false
	}
	return *best, true
}

// resolveRef resolves a possibly relative style sheet or font
// location against the document location.
func resolveRef(base, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if refURL.IsAbs() {
		return ref
	}

	if base == "" {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err == nil && baseURL.IsAbs() {
		return baseURL.ResolveReference(refURL).String()
	}
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(filepath.Dir(base), ref)
}

// findElements returns all descendant elements with the given tag, in
// document order.
func findElements(root *etree.Element, tag string) []*etree.Element {
	var res []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		if e.Tag == tag {
			res = append(res, e)
		}
		for _, child := range e.ChildElements() {
			walk(child)
		}
	}
	walk(root)
	return res
}

// elementText returns the concatenated character data of an element,
// including CDATA sections.
func elementText(e *etree.Element) string {
	var sb strings.Builder
	for _, child := range e.Child {
		if cd, ok := child.(*etree.CharData); ok {
			sb.WriteString(cd.Data)
		}
	}
	return sb.String()
}

// etreeNode adapts an etree element to the css.Node interface.
type etreeNode struct {
	elem      *etree.Element
	ancestors []*etree.Element
}

func (n *etreeNode) Tag() string { return n.elem.Tag }

func (n *etreeNode) ID() string {
	return n.elem.SelectAttrValue("id", "")
}

func (n *etreeNode) Classes() []string {
	attr := n.elem.SelectAttrValue("class", "")
	if attr == "" {
		return nil
	}
	return strings.Fields(attr)
}

func (n *etreeNode) Parent() css.Node {
	if len(n.ancestors) == 0 {
		return nil
	}
	return &etreeNode{
		elem:      n.ancestors[len(n.ancestors)-1],
		ancestors: n.ancestors[:len(n.ancestors)-1],
	}
}
