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

package resolver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"seehuhn.de/go/svgfonts/internal/fonttest"
	"seehuhn.de/go/svgfonts/scan"
	"seehuhn.de/go/svgfonts/woff"
)

// quickRetry avoids long test runs when a request is retried.
func quickRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestPickVariant(t *testing.T) {
	vars := []variant{
		{Style: scan.StyleNormal, Weight: 400, URL: "regular"},
		{Style: scan.StyleNormal, Weight: 700, URL: "bold"},
		{Style: scan.StyleItalic, Weight: 400, URL: "italic"},
	}
	cases := []struct {
		style  scan.Style
		weight int
		want   string
	}{
		{scan.StyleNormal, 400, "regular"},
		{scan.StyleNormal, 700, "bold"},
		{scan.StyleNormal, 500, "regular"},
		{scan.StyleNormal, 550, "bold"}, // ties go to the heavier face
		{scan.StyleNormal, 560, "bold"},
		{scan.StyleNormal, 900, "bold"},
		{scan.StyleItalic, 700, "italic"},
	}
	for _, test := range cases {
		v, ok := pickVariant(vars, test.style, test.weight)
		if !ok || v.URL != test.want {
			t.Errorf("pickVariant(%v, %d) = %q, want %q",
				test.style, test.weight, v.URL, test.want)
		}
	}

	if _, ok := pickVariant(nil, scan.StyleNormal, 400); ok {
		t.Error("pickVariant found a variant in an empty list")
	}
}

// fontServer serves font binaries and registry metadata for tests.
func fontServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/fonts/regular.ttf", func(w http.ResponseWriter, r *http.Request) {
		w.Write(fonttest.Regular())
	})
	mux.HandleFunc("/fonts/bold.ttf", func(w http.ResponseWriter, r *http.Request) {
		w.Write(fonttest.Bold())
	})
	mux.HandleFunc("/css2", func(w http.ResponseWriter, r *http.Request) {
		// the family spec contains semicolons, which r.URL.Query()
		// rejects, so the raw query is decoded by hand
		family, _ := url.QueryUnescape(strings.TrimPrefix(r.URL.RawQuery, "family="))
		if !strings.HasPrefix(family, "Go:") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `
@font-face {
  font-family: 'Go';
  font-style: normal;
  font-weight: 400;
  src: url(%s/fonts/regular.ttf) format('truetype');
}
@font-face {
  font-family: 'Go';
  font-style: normal;
  font-weight: 700;
  src: url(%s/fonts/bold.ttf) format('truetype');
}
`, server.URL, server.URL)
	})
	mux.HandleFunc("/v1/families/Go", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
  "family": "Go",
  "variants": [
    {"style": "normal", "weight": 400, "url": "%s/fonts/regular.ttf"},
    {"style": "normal", "weight": 700, "url": "%s/fonts/bold.ttf"}
  ]
}`, server.URL, server.URL)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestResolver(t *testing.T, cfg Config) *Resolver {
	t.Helper()
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = quickRetry()
	}
	if cfg.FontDirs == nil {
		cfg.FontDirs = []string{t.TempDir()}
	}
	r, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestGoogleBackend(t *testing.T) {
	server := fontServer(t)
	r := newTestResolver(t, Config{
		Source:    SourceGoogle,
		GoogleURL: server.URL,
	})

	ref := scan.Reference{Family: "Go", Weight: 700, Kind: scan.SourceLocal}
	font, err := r.Resolve(context.Background(), ref)
	if err != nil {
		t.Fatal(err)
	}
	if font.From != FromGoogle {
		t.Errorf("got backend %v, want google", font.From)
	}
	if font.Format != woff.TrueType {
		t.Errorf("got format %v, want ttf", font.Format)
	}
	if len(font.Binary) != len(fonttest.Bold()) {
		t.Error("wrong variant served")
	}
}

func TestFontGetBackend(t *testing.T) {
	server := fontServer(t)
	r := newTestResolver(t, Config{
		Source:     SourceFontGet,
		FontGetURL: server.URL,
	})

	ref := scan.Reference{Family: "Go", Weight: 400, Kind: scan.SourceLocal}
	font, err := r.Resolve(context.Background(), ref)
	if err != nil {
		t.Fatal(err)
	}
	if font.From != FromFontGet {
		t.Errorf("got backend %v, want fontget", font.From)
	}
	if len(font.Binary) != len(fonttest.Regular()) {
		t.Error("wrong variant served")
	}
}

func TestWeightFallback(t *testing.T) {
	// Between the served weights 400 and 700, a request for 550 must
	// pick the heavier one.
	server := fontServer(t)
	r := newTestResolver(t, Config{
		Source:    SourceGoogle,
		GoogleURL: server.URL,
	})

	ref := scan.Reference{Family: "Go", Weight: 550, Kind: scan.SourceLocal}
	font, err := r.Resolve(context.Background(), ref)
	if err != nil {
		t.Fatal(err)
	}
	if len(font.Binary) != len(fonttest.Bold()) {
		t.Error("weight 550 did not fall back to 700")
	}
}

func TestDirectBackend(t *testing.T) {
	server := fontServer(t)
	r := newTestResolver(t, Config{})

	ref := scan.Reference{
		Family:  "Go",
		Weight:  400,
		Kind:    scan.SourceRemote,
		Locator: server.URL + "/fonts/regular.ttf",
	}
	font, err := r.Resolve(context.Background(), ref)
	if err != nil {
		t.Fatal(err)
	}
	if font.From != FromDirect {
		t.Errorf("got backend %v, want direct", font.From)
	}
}

func TestDataURI(t *testing.T) {
	r := newTestResolver(t, Config{})

	uri := "data:font/ttf;base64," +
		base64.StdEncoding.EncodeToString(fonttest.Regular())
	ref := scan.Reference{
		Family:  "Embedded",
		Weight:  400,
		Kind:    scan.SourceDataURI,
		Locator: uri,
	}
	font, err := r.Resolve(context.Background(), ref)
	if err != nil {
		t.Fatal(err)
	}
	if font.Format != woff.TrueType {
		t.Errorf("got format %v, want ttf", font.Format)
	}
	if len(font.Binary) != len(fonttest.Regular()) {
		t.Error("data URI decoded incorrectly")
	}
}

func TestLocalBackend(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "go-regular.ttf"), fonttest.Regular(), 0o666)
	if err != nil {
		t.Fatal(err)
	}

	r := newTestResolver(t, Config{
		Source:   SourceLocal,
		FontDirs: []string{dir},
	})

	family := fonttest.Font().FamilyName
	ref := scan.Reference{Family: family, Weight: 400, Kind: scan.SourceLocal}
	font, err := r.Resolve(context.Background(), ref)
	if err != nil {
		t.Fatal(err)
	}
	if font.From != FromLocal {
		t.Errorf("got backend %v, want local", font.From)
	}

	// the local index is exact-match only
	missing := scan.Reference{Family: family, Weight: 600, Kind: scan.SourceLocal}
	_, err = r.Resolve(context.Background(), missing)
	var nfErr *FontNotFoundError
	if !errors.As(err, &nfErr) {
		t.Errorf("got %v, want *FontNotFoundError", err)
	}
}

func TestRetryTransient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write(fonttest.Regular())
	}))
	defer server.Close()

	r := newTestResolver(t, Config{})
	ref := scan.Reference{
		Family:  "Flaky",
		Weight:  400,
		Kind:    scan.SourceRemote,
		Locator: server.URL + "/font.ttf",
	}
	if _, err := r.Resolve(context.Background(), ref); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestNoRetryPermanent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	r := newTestResolver(t, Config{})
	ref := scan.Reference{
		Family:  "Gone",
		Weight:  400,
		Kind:    scan.SourceRemote,
		Locator: server.URL + "/font.ttf",
	}
	_, err := r.Resolve(context.Background(), ref)
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("got %v, want *ResolutionError", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server called %d times for a 404, want 1", got)
	}
}

func TestResolveUsesCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write(fonttest.Regular())
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	ref := scan.Reference{
		Family:  "Cached",
		Weight:  400,
		Kind:    scan.SourceRemote,
		Locator: server.URL + "/font.ttf",
	}

	// two resolvers sharing a cache directory: the second run must
	// not hit the network
	for i := 0; i < 2; i++ {
		r := newTestResolver(t, Config{CacheDir: cacheDir})
		font, err := r.Resolve(context.Background(), ref)
		if err != nil {
			t.Fatal(err)
		}
		if i == 1 && font.From != FromCache {
			t.Errorf("second run: got backend %v, want cache", font.From)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server called %d times, want 1", got)
	}
}

func TestResolveAll(t *testing.T) {
	server := fontServer(t)
	r := newTestResolver(t, Config{
		Source:    SourceGoogle,
		GoogleURL: server.URL,
	})

	refs := []scan.Reference{
		{Family: "Go", Weight: 400, Kind: scan.SourceLocal},
		{Family: "No Such Family", Weight: 400, Kind: scan.SourceLocal},
		{Family: "Go", Weight: 700, Kind: scan.SourceLocal},
	}
	resolved, failures, err := r.ResolveAll(context.Background(), refs)
	if err != nil {
		t.Fatal(err)
	}
	if len(resolved) != 2 {
		t.Errorf("got %d resolved fonts, want 2", len(resolved))
	}
	if len(failures) != 1 || failures[0].Ref.Family != "No Such Family" {
		t.Errorf("unexpected failures %v", failures)
	}
}

func TestResolveAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestResolver(t, Config{Source: SourceLocal})
	refs := []scan.Reference{
		{Family: "X", Weight: 400, Kind: scan.SourceLocal},
	}
	_, _, err := r.ResolveAll(ctx, refs)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
