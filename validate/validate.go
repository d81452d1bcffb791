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

// Package validate performs structural checks on SVG documents.
// The checks never modify the document.
package validate

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// svgNamespace is the XML namespace of SVG documents.
const svgNamespace = "http://www.w3.org/2000/svg"

// Severity classifies validation issues.
type Severity int

const (
	// Warning marks issues which do not prevent embedding.
	Warning Severity = iota

	// Error marks issues which make the document unusable.
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// An Issue is one problem found in a document.
type Issue struct {
	Severity Severity
	Message  string
}

func (iss Issue) String() string {
	return iss.Severity.String() + ": " + iss.Message
}

// A Report is the outcome of validating one document.
type Report struct {
	// Valid is true if no error-level issues were found.
	Valid bool

	Issues []Issue
}

// Check validates the structure of an SVG document.
func Check(doc *etree.Document) *Report {
	rep := &Report{}

	root := doc.Root()
	if root == nil {
		rep.add(Error, "document has no root element")
		rep.Valid = false
		return rep
	}
	if root.Tag != "svg" {
		rep.add(Error, fmt.Sprintf("root element is <%s>, expected <svg>", root.Tag))
	}
	if ns := root.SelectAttrValue("xmlns", ""); ns != "" && ns != svgNamespace {
		rep.add(Error, fmt.Sprintf("unexpected root namespace %q", ns))
	} else if ns == "" {
		rep.add(Warning, "missing xmlns attribute on root element")
	}

	hasViewBox := root.SelectAttrValue("viewBox", "") != ""
	hasSize := root.SelectAttrValue("width", "") != "" &&
		root.SelectAttrValue("height", "") != ""
	if !hasViewBox && !hasSize {
		rep.add(Warning, "root element has neither viewBox nor width/height")
	}

	checkDataURIs(root, rep)

	rep.Valid = true
	for _, iss := range rep.Issues {
		if iss.Severity == Error {
			rep.Valid = false
			break
		}
	}
	return rep
}

func (rep *Report) add(sev Severity, msg string) {
	rep.Issues = append(rep.Issues, Issue{Severity: sev, Message: msg})
}

// checkDataURIs verifies that base64 data URIs inside <style> elements
// decode and carry a recognized font media type.
func checkDataURIs(root *etree.Element, rep *Report) {
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		if e.Tag == "style" {
			checkStyleText(e.Text(), rep)
		}
		for _, child := range e.ChildElements() {
			walk(child)
		}
	}
	walk(root)
}

var fontMimeTypes = map[string]bool{
	"font/ttf":              true,
	"font/otf":              true,
	"font/woff":             true,
	"font/woff2":            true,
	"font/sfnt":             true,
	"application/font-woff": true,
}

func checkStyleText(src string, rep *Report) {
	rest := src
	for {
		idx := strings.Index(rest, "url(data:")
		if idx < 0 {
			return
		}
		rest = rest[idx+len("url("):]
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			rep.add(Error, "unterminated url() in style sheet")
			return
		}
		uri := strings.TrimSpace(rest[:end])
		rest = rest[end:]

		body := strings.TrimPrefix(uri, "data:")
		comma := strings.IndexByte(body, ',')
		if comma < 0 {
			rep.add(Error, "malformed data URI in style sheet")
			continue
		}
		meta := body[:comma]
		payload := body[comma+1:]

		mime, _, _ := strings.Cut(meta, ";")
		if mime != "" && !fontMimeTypes[strings.ToLower(mime)] {
			rep.add(Warning, fmt.Sprintf("data URI has unrecognized media type %q", mime))
		}
		if strings.Contains(meta, "base64") {
			if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
				rep.add(Error, fmt.Sprintf("data URI payload is not valid base64: %v", err))
			}
		}
	}
}
