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

// Package rewrite installs resolved fonts into an SVG document.
//
// Embedded fonts live in a single <style> element with a fixed id,
// owned by this package.  Re-running the rewriter replaces the rules
// for fonts which were resolved again and leaves all other document
// content untouched, so embedding is idempotent.
package rewrite

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"seehuhn.de/go/svgfonts/css"
	"seehuhn.de/go/svgfonts/scan"
	"seehuhn.de/go/svgfonts/woff"
)

// StyleID is the id attribute of the <style> element managed by this
// package.
const StyleID = "svgfonts-embedded"

// An Asset is one font binary ready for embedding.
type Asset struct {
	Ref    scan.Reference
	Data   []byte
	Format woff.Format
}

// Embed writes the given assets into the document.
//
// Each asset becomes one @font-face rule in the managed <style>
// element, in the order given.  Rules from a previous run whose face
// was not resolved this time are kept, so that fonts embedded earlier
// survive partial failures.  @import rules are removed from the
// document where every face the imported sheet declared is now
// embedded; the listing comes from a prior [scan.Scan] of the same
// document.
func Embed(doc *etree.Document, assets []Asset, imports []scan.Import) error {
	root := doc.Root()
	if root == nil {
		return errors.New("document has no root element")
	}

	embedded := make(map[scan.Key]bool)
	var rules []string
	for _, asset := range assets {
		key := asset.Ref.Key()
		if embedded[key] {
			continue
		}
		embedded[key] = true
		b64 := base64.StdEncoding.EncodeToString(asset.Data)
		rules = append(rules, fontFaceRule(asset.Ref, asset.Format.MimeType(), asset.Format.CSSFormat(), b64))
	}

	managed := findStyle(root, StyleID)
	if managed != nil {
		rules = append(rules, keptRules(managed.Text(), embedded)...)
	}

	if len(rules) == 0 {
		if managed != nil && managed.Parent() != nil {
			managed.Parent().RemoveChild(managed)
		}
	} else {
		if managed == nil {
			managed = etree.NewElement("style")
			managed.CreateAttr("id", StyleID)
			managed.CreateAttr("type", "text/css")
			root.InsertChildAt(0, managed)
		}
		managed.SetText("\n" + strings.Join(rules, "\n") + "\n")
	}

	dropImports(root, managed, embedded, imports)
	return nil
}

// fontFaceRule formats one @font-face rule with a base64 data URI
// source.  The family name keeps the spelling used in the document.
func fontFaceRule(ref scan.Reference, mime, format, b64 string) string {
	var b strings.Builder
	b.WriteString("@font-face {\n")
	fmt.Fprintf(&b, "  font-family: %q;\n", ref.Family)
	fmt.Fprintf(&b, "  font-style: %s;\n", ref.Style)
	fmt.Fprintf(&b, "  font-weight: %d;\n", ref.Weight)
	fmt.Fprintf(&b, "  src: url(data:%s;base64,%s) format(%q);\n", mime, b64, format)
	b.WriteString("}")
	return b.String()
}

// keptRules re-emits the @font-face rules of the previous managed
// block whose face is not being replaced.
func keptRules(src string, replaced map[scan.Key]bool) []string {
	sheet, _ := css.Parse(src)
	var kept []string
	for _, rule := range sheet.Rules {
		ff, ok := rule.(*css.FontFaceRule)
		if !ok {
			continue
		}
		ref, entry, ok := faceIdentity(ff)
		if !ok || replaced[ref.Key()] {
			continue
		}
		format := entry.Format
		var b strings.Builder
		b.WriteString("@font-face {\n")
		fmt.Fprintf(&b, "  font-family: %q;\n", ref.Family)
		fmt.Fprintf(&b, "  font-style: %s;\n", ref.Style)
		fmt.Fprintf(&b, "  font-weight: %d;\n", ref.Weight)
		if format != "" {
			fmt.Fprintf(&b, "  src: url(%s) format(%q);\n", entry.URL, format)
		} else {
			fmt.Fprintf(&b, "  src: url(%s);\n", entry.URL)
		}
		b.WriteString("}")
		kept = append(kept, b.String())
	}
	return kept
}

// faceIdentity extracts the face reference and the first URL source of
// an @font-face rule.
func faceIdentity(ff *css.FontFaceRule) (scan.Reference, css.SrcEntry, bool) {
	ref := scan.Reference{Weight: 400}
	var entry css.SrcEntry
	for _, decl := range ff.Decls {
		switch decl.Property {
		case "font-family":
			if ss := css.FontFamilies(decl.Value); len(ss) > 0 {
				ref.Family = ss[0]
			}
		case "font-style":
			if s, ok := css.FontStyle(decl.Value); ok {
				ref.Style = scan.ParseStyle(s)
			}
		case "font-weight":
			if w, ok := css.FontWeight(decl.Value, 400); ok {
				ref.Weight = w
			}
		case "src":
			for _, e := range css.FontFaceSrc(decl.Value) {
				if e.URL != "" {
					entry = e
					break
				}
			}
		}
	}
	if ref.Family == "" || entry.URL == "" {
		return scan.Reference{}, css.SrcEntry{}, false
	}
	return ref, entry, true
}

// dropImports removes @import rules which have become redundant.
func dropImports(root *etree.Element, managed *etree.Element, embedded map[scan.Key]bool, imports []scan.Import) {
	redundant := make(map[string]bool)
	for _, imp := range imports {
		if len(imp.Families) == 0 {
			continue
		}
		all := true
		for _, key := range imp.Families {
			if !embedded[key] {
				all = false
				break
			}
		}
		if all {
			redundant[imp.URL] = true
		}
	}
	if len(redundant) == 0 {
		return
	}

	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		if e.Tag == "style" && e != managed {
			if text, changed := removeImports(e.Text(), redundant); changed {
				e.SetText(text)
			}
		}
		for _, child := range e.ChildElements() {
			walk(child)
		}
	}
	walk(root)
}

// removeImports deletes the @import statements for the given URLs
// from a style sheet source, leaving everything else byte for byte
// unchanged.
func removeImports(src string, urls map[string]bool) (string, bool) {
	var out strings.Builder
	changed := false
	i := 0
	for i < len(src) {
		if src[i] == '@' && hasFoldPrefix(src[i:], "@import") {
			j := statementEnd(src, i)
			seg := src[i:j]
			if u, ok := importURL(seg); ok && urls[u] {
				changed = true
				for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
					j++
				}
				if j < len(src) && src[j] == '\n' {
					j++
				}
				i = j
				continue
			}
			out.WriteString(seg)
			i = j
			continue
		}
		out.WriteByte(src[i])
		i++
	}
	return out.String(), changed
}

// statementEnd returns the index just past the semicolon terminating
// the statement starting at pos, skipping over string literals.
func statementEnd(src string, pos int) int {
	i := pos
	for i < len(src) {
		switch c := src[i]; c {
		case ';':
			return i + 1
		case '"', '\'':
			for i++; i < len(src) && src[i] != c; i++ {
				if src[i] == '\\' {
					i++
				}
			}
			if i < len(src) {
				i++
			}
		default:
			i++
		}
	}
	return i
}

func importURL(stmt string) (string, bool) {
	sheet, _ := css.Parse(stmt)
	if len(sheet.Rules) != 1 {
		return "", false
	}
	imp, ok := sheet.Rules[0].(*css.ImportRule)
	if !ok {
		return "", false
	}
	return imp.URL, true
}

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// findStyle locates the <style> element with the given id, if any.
func findStyle(root *etree.Element, id string) *etree.Element {
	var found *etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		if found != nil {
			return
		}
		if e.Tag == "style" && e.SelectAttrValue("id", "") == id {
			found = e
			return
		}
		for _, child := range e.ChildElements() {
			walk(child)
		}
	}
	walk(root)
	return found
}
