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

// Package svgfonts makes SVG documents self-contained by embedding
// the fonts they use.
//
// The package scans a document for font references, fetches the font
// data from a web registry, the local system, or the URLs given in
// the document, optionally subsets each font to the glyphs actually
// rendered, and writes the fonts back into the document as base64
// data URIs in @font-face rules:
//
//	doc, err := svgfonts.ReadFile("in.svg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := svgfonts.Embed(ctx, doc, &svgfonts.Options{Subset: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = doc.WriteFile("out.svg")
//
// Embedding is idempotent: running it again on the output replaces
// the embedded fonts instead of duplicating them.
package svgfonts
