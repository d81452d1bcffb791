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

// Package woff converts font binaries between the sfnt container
// formats used on the web: raw TrueType/OpenType, WOFF 1.0 and
// WOFF 2.0.
//
// WOFF2 output uses the null table transform for glyf and loca, so
// decompressing an encoded font always reproduces the input tables
// bit for bit.
package woff

import (
	"encoding/binary"
)

// Format identifies a font container format.
type Format int

// The supported container formats.
const (
	Unknown Format = iota
	TrueType
	OpenType
	WOFF
	WOFF2
)

func (f Format) String() string {
	switch f {
	case TrueType:
		return "ttf"
	case OpenType:
		return "otf"
	case WOFF:
		return "woff"
	case WOFF2:
		return "woff2"
	default:
		return "unknown"
	}
}

// MimeType returns the media type for fonts in this container format.
func (f Format) MimeType() string {
	switch f {
	case TrueType:
		return "font/ttf"
	case OpenType:
		return "font/otf"
	case WOFF:
		return "font/woff"
	case WOFF2:
		return "font/woff2"
	default:
		return "application/octet-stream"
	}
}

// CSSFormat returns the identifier used in the format() hint of a CSS
// @font-face src descriptor.
func (f Format) CSSFormat() string {
	switch f {
	case TrueType:
		return "truetype"
	case OpenType:
		return "opentype"
	case WOFF:
		return "woff"
	case WOFF2:
		return "woff2"
	default:
		return ""
	}
}

const (
	sfntVersionTrueType = 0x00010000
	sfntVersionAppleTT  = 0x74727565 // 'true'
	sfntVersionOpenType = 0x4F54544F // 'OTTO'
	signatureWOFF       = 0x774F4646 // 'wOFF'
	signatureWOFF2      = 0x774F4632 // 'wOF2'
)

// Sniff determines the container format of a font binary by its
// leading magic number.
func Sniff(data []byte) Format {
	if len(data) < 4 {
		return Unknown
	}
	switch binary.BigEndian.Uint32(data) {
	case sfntVersionTrueType, sfntVersionAppleTT:
		return TrueType
	case sfntVersionOpenType:
		return OpenType
	case signatureWOFF:
		return WOFF
	case signatureWOFF2:
		return WOFF2
	default:
		return Unknown
	}
}

// IsValidTarget reports whether transcoding from one format to
// another is allowed.  Downgrades (e.g. WOFF2 to WOFF) and identity
// conversions of compressed formats are rejected.
func IsValidTarget(from, to Format) bool {
	switch to {
	case WOFF:
		return from == TrueType || from == OpenType
	case WOFF2:
		return from == TrueType || from == OpenType || from == WOFF
	case TrueType, OpenType:
		return from == to
	default:
		return false
	}
}

// An UnsupportedFormatError is returned for corrupt font data, for an
// unrecognized container format, or for a transcoding direction which
// is not allowed.
type UnsupportedFormatError struct {
	Reason string
}

func (err *UnsupportedFormatError) Error() string {
	return "font format: " + err.Reason
}

func errFormat(reason string) error {
	return &UnsupportedFormatError{Reason: reason}
}
