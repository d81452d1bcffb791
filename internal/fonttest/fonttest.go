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

// Package fonttest provides font binaries and SVG fixtures for tests.
package fonttest

import (
	"bytes"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"

	"seehuhn.de/go/sfnt"
)

// Regular returns the Go Regular font as raw TrueType data.
func Regular() []byte {
	return clone(goregular.TTF)
}

// Bold returns the Go Bold font as raw TrueType data.
func Bold() []byte {
	return clone(gobold.TTF)
}

// Italic returns the Go Italic font as raw TrueType data.
func Italic() []byte {
	return clone(goitalic.TTF)
}

// Font parses the Go Regular font.
func Font() *sfnt.Font {
	info, err := sfnt.Read(bytes.NewReader(goregular.TTF))
	if err != nil {
		panic(err)
	}
	return info
}

func clone(data []byte) []byte {
	res := make([]byte, len(data))
	copy(res, data)
	return res
}

// SimpleSVG is a minimal document using one remote font family.
const SimpleSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 100">
  <style>
    text { font-family: "Go Regular"; }
  </style>
  <text x="10" y="50">Hello</text>
</svg>`

// StyledSVG uses inline styles and nested tspans with weight and
// style changes.
const StyledSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="200" height="100">
  <style>
    .title { font-family: "Go Regular"; font-weight: bold; }
  </style>
  <text class="title" x="10" y="30">Title</text>
  <text x="10" y="60" style="font-family: 'Go Regular'; font-style: italic">body
    <tspan font-weight="700">bold part</tspan>
  </text>
</svg>`
