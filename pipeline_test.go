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

package svgfonts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"seehuhn.de/go/svgfonts/internal/fonttest"
	"seehuhn.de/go/svgfonts/resolver"
	"seehuhn.de/go/svgfonts/woff"
)

// googleMock serves the Go fonts under the family name used by the
// fonttest fixtures, in the shape of the Google Fonts CSS API.
func googleMock(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/fonts/regular.ttf", func(w http.ResponseWriter, r *http.Request) {
		w.Write(fonttest.Regular())
	})
	mux.HandleFunc("/fonts/bold.ttf", func(w http.ResponseWriter, r *http.Request) {
		w.Write(fonttest.Bold())
	})
	mux.HandleFunc("/fonts/italic.ttf", func(w http.ResponseWriter, r *http.Request) {
		w.Write(fonttest.Italic())
	})
	mux.HandleFunc("/css2", func(w http.ResponseWriter, r *http.Request) {
		// the family spec contains semicolons, which r.URL.Query()
		// rejects, so the raw query is decoded by hand
		family, _ := url.QueryUnescape(strings.TrimPrefix(r.URL.RawQuery, "family="))
		if !strings.HasPrefix(family, "Go Regular:") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `
@font-face {
  font-family: 'Go Regular';
  font-style: normal;
  font-weight: 400;
  src: url(%[1]s/fonts/regular.ttf) format('truetype');
}
@font-face {
  font-family: 'Go Regular';
  font-style: normal;
  font-weight: 700;
  src: url(%[1]s/fonts/bold.ttf) format('truetype');
}
@font-face {
  font-family: 'Go Regular';
  font-style: italic;
  font-weight: 400;
  src: url(%[1]s/fonts/italic.ttf) format('truetype');
}
`, server.URL)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testOptions(server *httptest.Server) *Options {
	return &Options{
		Source:    resolver.SourceGoogle,
		GoogleURL: server.URL,
		Subset:    true,
	}
}

func TestEmbedSimple(t *testing.T) {
	server := googleMock(t)
	doc, err := ParseString(fonttest.SimpleSVG)
	if err != nil {
		t.Fatal(err)
	}

	result, err := Embed(context.Background(), doc, testOptions(server))
	if err != nil {
		t.Fatal(err)
	}
	if result.EmbeddedCount != 1 {
		t.Errorf("embedded %d fonts, want 1", result.EmbeddedCount)
	}
	if len(result.Skipped) != 0 {
		t.Errorf("unexpected skips: %v", result.Skipped)
	}

	out := doc.String()
	if !strings.Contains(out, `id="svgfonts-embedded"`) {
		t.Error("managed style element missing from output")
	}
	if !strings.Contains(out, "data:font/woff2;base64,") {
		t.Error("no WOFF2 data URI in output")
	}
	if !strings.Contains(out, `font-family: "Go Regular";`) {
		t.Error("no @font-face for the document family")
	}
	// the original content is untouched
	if !strings.Contains(out, ">Hello</text>") {
		t.Error("text content was damaged")
	}
}

func TestEmbedStyled(t *testing.T) {
	server := googleMock(t)
	doc, err := ParseString(fonttest.StyledSVG)
	if err != nil {
		t.Fatal(err)
	}

	result, err := Embed(context.Background(), doc, testOptions(server))
	if err != nil {
		t.Fatal(err)
	}
	// bold title, italic body and the bold tspan: three faces, but the
	// bold faces share one rule
	if result.EmbeddedCount < 2 {
		t.Errorf("embedded %d fonts, want at least 2", result.EmbeddedCount)
	}

	out := doc.String()
	if !strings.Contains(out, "font-weight: 700;") {
		t.Error("bold face missing")
	}
	if !strings.Contains(out, "font-style: italic;") {
		t.Error("italic face missing")
	}
}

func TestEmbedIdempotent(t *testing.T) {
	server := googleMock(t)
	doc, err := ParseString(fonttest.SimpleSVG)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Embed(context.Background(), doc, testOptions(server)); err != nil {
		t.Fatal(err)
	}
	first := doc.String()

	if _, err := Embed(context.Background(), doc, testOptions(server)); err != nil {
		t.Fatal(err)
	}
	second := doc.String()

	if first != second {
		t.Error("second embedding run changed the document")
	}
}

func TestEmbedWOFFTarget(t *testing.T) {
	server := googleMock(t)
	doc, err := ParseString(fonttest.SimpleSVG)
	if err != nil {
		t.Fatal(err)
	}

	opts := testOptions(server)
	opts.Target = woff.WOFF
	if _, err := Embed(context.Background(), doc, opts); err != nil {
		t.Fatal(err)
	}

	out := doc.String()
	if !strings.Contains(out, "data:font/woff;base64,") {
		t.Error("no WOFF data URI in output")
	}
	if strings.Contains(out, "font/woff2") {
		t.Error("output contains WOFF2 despite WOFF target")
	}
}

func TestEmbedBadTarget(t *testing.T) {
	server := googleMock(t)
	doc, err := ParseString(fonttest.SimpleSVG)
	if err != nil {
		t.Fatal(err)
	}

	opts := testOptions(server)
	opts.Target = woff.TrueType
	_, err = Embed(context.Background(), doc, opts)
	var fmtErr *woff.UnsupportedFormatError
	if !errors.As(err, &fmtErr) {
		t.Errorf("got %v, want *woff.UnsupportedFormatError", err)
	}
}

func TestEmbedSkipsUnresolvable(t *testing.T) {
	server := googleMock(t)
	const src = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10">
<style>text { font-family: "No Such Family"; }</style>
<text>hi</text>
</svg>`
	doc, err := ParseString(src)
	if err != nil {
		t.Fatal(err)
	}

	result, err := Embed(context.Background(), doc, testOptions(server))
	if err != nil {
		t.Fatal(err)
	}
	if result.EmbeddedCount != 0 {
		t.Errorf("embedded %d fonts, want 0", result.EmbeddedCount)
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("got %d skipped fonts, want 1", len(result.Skipped))
	}
	if result.Skipped[0].Family != "No Such Family" {
		t.Errorf("skipped %q", result.Skipped[0].Family)
	}
	if len(result.Warnings) == 0 {
		t.Error("skipping a font must produce a warning")
	}
}

func TestEmbedStrict(t *testing.T) {
	server := googleMock(t)
	const src = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10">
<style>text { font-family: "No Such Family"; }</style>
<text>hi</text>
</svg>`
	doc, err := ParseString(src)
	if err != nil {
		t.Fatal(err)
	}

	opts := testOptions(server)
	opts.Strict = true
	if _, err := Embed(context.Background(), doc, opts); err == nil {
		t.Error("strict mode accepted an unresolvable font")
	}
}

func TestEmbedInvalidDocument(t *testing.T) {
	server := googleMock(t)
	doc, err := ParseString(`<svg xmlns="http://example.com/not-svg"><text>hi</text></svg>`)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Embed(context.Background(), doc, testOptions(server))
	var malErr *MalformedSVGError
	if !errors.As(err, &malErr) {
		t.Errorf("got %v, want *MalformedSVGError", err)
	}
}

func TestEmbedCancelled(t *testing.T) {
	server := googleMock(t)
	doc, err := ParseString(fonttest.SimpleSVG)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Embed(ctx, doc, testOptions(server))
	var tErr *TimeoutError
	if !errors.As(err, &tErr) {
		t.Errorf("got %v, want *TimeoutError", err)
	}
}

func TestList(t *testing.T) {
	server := googleMock(t)
	doc, err := ParseString(fonttest.SimpleSVG)
	if err != nil {
		t.Fatal(err)
	}

	infos, err := List(context.Background(), doc, testOptions(server))
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 {
		t.Fatalf("got %d fonts, want 1", len(infos))
	}

	info := infos[0]
	if info.Ref.Family != "Go Regular" {
		t.Errorf("family = %q", info.Ref.Family)
	}
	if info.Glyphs != 4 { // H, e, l, o
		t.Errorf("glyphs = %d, want 4", info.Glyphs)
	}
	if info.Embedded {
		t.Error("unembedded font reported as embedded")
	}
	if info.Status != "ok (google)" {
		t.Errorf("status = %q", info.Status)
	}
	if info.Format != woff.TrueType || info.Size == 0 {
		t.Errorf("format = %v, size = %d", info.Format, info.Size)
	}
}

func TestListAfterEmbed(t *testing.T) {
	server := googleMock(t)
	doc, err := ParseString(fonttest.SimpleSVG)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Embed(context.Background(), doc, testOptions(server)); err != nil {
		t.Fatal(err)
	}

	infos, err := List(context.Background(), doc, testOptions(server))
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, info := range infos {
		if info.Embedded {
			found = true
			if !strings.HasPrefix(info.Status, "ok") {
				t.Errorf("embedded font has status %q", info.Status)
			}
		}
	}
	if !found {
		t.Error("no embedded font in the listing after embedding")
	}
}
