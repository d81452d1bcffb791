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
	"testing"

	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"
)

func parseSVG(t *testing.T, src string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(src); err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestScanSimple(t *testing.T) {
	doc := parseSVG(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<style>text { font-family: "Alpha" }</style>
		<text>abc</text>
	</svg>`)
	res, err := Scan(doc, "", nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Refs) != 1 {
		t.Fatalf("got %d references, want 1", len(res.Refs))
	}
	ref := res.Refs[0]
	if ref.Family != "Alpha" || ref.Weight != 400 || ref.Style != StyleNormal {
		t.Errorf("unexpected reference %v", ref)
	}
	if ref.Kind != SourceLocal {
		t.Errorf("got kind %v, want SourceLocal", ref.Kind)
	}

	got := res.Usage[ref.Key()].Runes()
	want := []rune{'a', 'b', 'c'}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("unexpected usage (-want +got):\n%s", d)
	}
}

func TestScanFontFace(t *testing.T) {
	doc := parseSVG(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<style>
			@font-face {
				font-family: "Alpha";
				font-weight: 700;
				src: url(https://example.com/alpha-bold.woff2);
			}
			@font-face {
				font-family: "Alpha";
				src: local("Alpha Regular");
			}
			text { font-family: Alpha }
		</style>
		<text font-weight="bold">x</text>
	</svg>`)
	res, err := Scan(doc, "", nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Refs) != 2 {
		t.Fatalf("got %d references, want 2", len(res.Refs))
	}
	bold := res.Refs[0]
	if bold.Kind != SourceRemote || bold.Locator != "https://example.com/alpha-bold.woff2" {
		t.Errorf("unexpected bold face: %v", bold)
	}
	regular := res.Refs[1]
	if regular.Kind != SourceLocal || regular.Locator != "Alpha Regular" {
		t.Errorf("unexpected regular face: %v", regular)
	}

	// the bold text must be attributed to the weight 700 face
	if got := res.Usage[bold.Key()].Len(); got != 1 {
		t.Errorf("bold face has %d code points, want 1", got)
	}
	if got := res.Usage[regular.Key()].Len(); got != 0 {
		t.Errorf("regular face has %d code points, want 0", got)
	}
}

func TestScanNearestWeight(t *testing.T) {
	// A declared weight between two faces picks the nearest, with the
	// tie going to the heavier face.
	doc := parseSVG(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<style>
			@font-face { font-family: A; font-weight: 400; src: url(https://x/a.ttf); }
			@font-face { font-family: A; font-weight: 700; src: url(https://x/b.ttf); }
		</style>
		<text style="font-family: A; font-weight: 550">q</text>
	</svg>`)
	res, err := Scan(doc, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	heavy := Reference{Family: "A", Weight: 700}.Key()
	if got := res.Usage[heavy].Len(); got != 1 {
		t.Errorf("weight 550 resolved to %v", usageKeys(res))
	}
}

func usageKeys(res *Result) []Key {
	var keys []Key
	for k, cs := range res.Usage {
		if cs.Len() > 0 {
			keys = append(keys, k)
		}
	}
	return keys
}

func TestScanCascadeAndInheritance(t *testing.T) {
	doc := parseSVG(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<style>
			g { font-family: "Outer" }
			.special { font-style: italic }
		</style>
		<g>
			<text>plain</text>
			<text class="special">slanted</text>
		</g>
	</svg>`)
	res, err := Scan(doc, "", nil)
	if err != nil {
		t.Fatal(err)
	}

	plain := Reference{Family: "Outer", Weight: 400}.Key()
	italic := Reference{Family: "Outer", Style: StyleItalic, Weight: 400}.Key()
	if res.Usage[plain] == nil || !res.Usage[plain].Has('p') {
		t.Error("inherited family not applied to plain text")
	}
	if res.Usage[italic] == nil || !res.Usage[italic].Has('s') {
		t.Error("class style not applied to italic text")
	}
}

func TestScanGenericFamily(t *testing.T) {
	doc := parseSVG(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<text font-family="sans-serif">x</text>
	</svg>`)
	res, err := Scan(doc, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Refs) != 0 {
		t.Errorf("generic family produced references: %v", res.Refs)
	}
}

func TestScanDataURI(t *testing.T) {
	doc := parseSVG(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<style>
			@font-face {
				font-family: "Embedded";
				src: url(data:font/woff2;base64,AAAA) format("woff2");
			}
			text { font-family: "Embedded" }
		</style>
		<text>x</text>
	</svg>`)
	res, err := Scan(doc, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Refs) != 1 {
		t.Fatalf("got %d references, want 1", len(res.Refs))
	}
	if res.Refs[0].Kind != SourceDataURI {
		t.Errorf("got kind %v, want SourceDataURI", res.Refs[0].Kind)
	}
}

func TestScanImport(t *testing.T) {
	loaded := make(map[string]int)
	load := func(location string) ([]byte, error) {
		loaded[location]++
		switch location {
		case "https://example.com/fonts.css":
			return []byte(`@font-face {
				font-family: "Imported";
				src: url(https://example.com/imported.ttf);
			}`), nil
		default:
			return nil, fmt.Errorf("unexpected load of %q", location)
		}
	}

	doc := parseSVG(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<style>
			@import url(fonts.css);
			text { font-family: "Imported" }
		</style>
		<text>hi</text>
	</svg>`)
	res, err := Scan(doc, "https://example.com/image.svg", load)
	if err != nil {
		t.Fatal(err)
	}

	if loaded["https://example.com/fonts.css"] != 1 {
		t.Errorf("imported sheet loaded %d times", loaded["https://example.com/fonts.css"])
	}
	if len(res.Imports) != 1 {
		t.Fatalf("got %d imports, want 1", len(res.Imports))
	}
	imp := res.Imports[0]
	if imp.URL != "fonts.css" {
		t.Errorf("got import URL %q, want %q", imp.URL, "fonts.css")
	}
	wantKey := Reference{Family: "Imported", Weight: 400}.Key()
	if len(imp.Families) != 1 || imp.Families[0] != wantKey {
		t.Errorf("unexpected import families %v", imp.Families)
	}

	if len(res.Refs) != 1 || res.Refs[0].Kind != SourceRemote {
		t.Fatalf("unexpected references %v", res.Refs)
	}
	if res.Usage[wantKey].Len() != 2 {
		t.Errorf("imported face has %d code points, want 2", res.Usage[wantKey].Len())
	}
}

func TestScanImportCycle(t *testing.T) {
	// Self-importing sheets must terminate at the depth limit.
	load := func(location string) ([]byte, error) {
		return []byte(`@import url(self.css);`), nil
	}
	doc := parseSVG(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<style>@import url(self.css);</style>
		<text font-family="X">x</text>
	</svg>`)
	if _, err := Scan(doc, "", load); err != nil {
		t.Fatal(err)
	}
}

func TestFoldFamily(t *testing.T) {
	a := Reference{Family: "Noto Sans", Weight: 400}.Key()
	b := Reference{Family: "noto sans", Weight: 400}.Key()
	if a != b {
		t.Error("family names are not case-folded")
	}
}

func TestCodeSet(t *testing.T) {
	cs := NewCodeSet()
	for _, r := range "hello, 世界" {
		cs.Add(r)
	}
	if !cs.Has('e') || cs.Has('x') {
		t.Error("membership is wrong")
	}
	runes := cs.Runes()
	for i := 1; i < len(runes); i++ {
		if runes[i-1] >= runes[i] {
			t.Fatalf("runes not sorted and unique: %q", string(runes))
		}
	}
	if cs.Len() != len(runes) {
		t.Errorf("Len() = %d, want %d", cs.Len(), len(runes))
	}
}
