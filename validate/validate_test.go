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

package validate

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
)

func check(t *testing.T, src string) *Report {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(src); err != nil {
		t.Fatal(err)
	}
	return Check(doc)
}

func hasIssue(rep *Report, sev Severity, substr string) bool {
	for _, iss := range rep.Issues {
		if iss.Severity == sev && strings.Contains(iss.Message, substr) {
			return true
		}
	}
	return false
}

func TestCheckValid(t *testing.T) {
	rep := check(t, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><text>hi</text></svg>`)
	if !rep.Valid {
		t.Errorf("valid document rejected: %v", rep.Issues)
	}
	if len(rep.Issues) != 0 {
		t.Errorf("unexpected issues: %v", rep.Issues)
	}
}

func TestCheckRoot(t *testing.T) {
	rep := check(t, `<html xmlns="http://www.w3.org/1999/xhtml"></html>`)
	if rep.Valid {
		t.Error("non-SVG document accepted")
	}
	if !hasIssue(rep, Error, "expected <svg>") {
		t.Errorf("missing root element issue, got %v", rep.Issues)
	}

	doc := etree.NewDocument()
	rep = Check(doc)
	if rep.Valid {
		t.Error("empty document accepted")
	}
}

func TestCheckNamespace(t *testing.T) {
	rep := check(t, `<svg viewBox="0 0 10 10"></svg>`)
	if !rep.Valid {
		t.Error("missing xmlns must only be a warning")
	}
	if !hasIssue(rep, Warning, "xmlns") {
		t.Errorf("missing xmlns warning, got %v", rep.Issues)
	}

	rep = check(t, `<svg xmlns="http://example.com/not-svg" viewBox="0 0 10 10"></svg>`)
	if rep.Valid || !hasIssue(rep, Error, "namespace") {
		t.Errorf("wrong namespace not flagged, got %v", rep.Issues)
	}
}

func TestCheckDimensions(t *testing.T) {
	rep := check(t, `<svg xmlns="http://www.w3.org/2000/svg"></svg>`)
	if !hasIssue(rep, Warning, "viewBox") {
		t.Errorf("missing dimensions not flagged, got %v", rep.Issues)
	}

	rep = check(t, `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"></svg>`)
	if hasIssue(rep, Warning, "viewBox") {
		t.Error("width/height should satisfy the dimension check")
	}
}

func TestCheckDataURIs(t *testing.T) {
	const tmpl = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><style>
@font-face { font-family: "X"; src: url(%URI%); }
</style></svg>`

	cases := []struct {
		uri     string
		valid   bool
		sev     Severity
		message string
	}{
		{"data:font/woff2;base64,AAAA", true, Warning, ""},
		{"data:font/ttf;base64,AAAA", true, Warning, ""},
		{"data:font/woff2;base64,not*base64*", false, Error, "base64"},
		{"data:font/woff2", false, Error, "malformed"},
		{"data:text/plain;base64,AAAA", true, Warning, "media type"},
	}
	for i, test := range cases {
		rep := check(t, strings.Replace(tmpl, "%URI%", test.uri, 1))
		if rep.Valid != test.valid {
			t.Errorf("case %d: Valid = %t, want %t (%v)",
				i, rep.Valid, test.valid, rep.Issues)
		}
		if test.message != "" && !hasIssue(rep, test.sev, test.message) {
			t.Errorf("case %d: missing %v issue about %q, got %v",
				i, test.sev, test.message, rep.Issues)
		}
	}
}

func TestIssueString(t *testing.T) {
	iss := Issue{Severity: Error, Message: "broken"}
	if got := iss.String(); got != "error: broken" {
		t.Errorf("Issue.String() = %q", got)
	}
	iss = Issue{Severity: Warning, Message: "odd"}
	if got := iss.String(); got != "warning: odd" {
		t.Errorf("Issue.String() = %q", got)
	}
}
