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

package woff

// Transcode converts a font binary from one container format to
// another.  The source format is determined from the data itself; the
// from argument is checked against it.  Only compression upgrades are
// allowed, see [IsValidTarget].
func Transcode(data []byte, from, to Format) ([]byte, error) {
	if actual := Sniff(data); actual != from {
		return nil, errFormat("font data is " + actual.String() + ", not " + from.String())
	}
	if from == to {
		return data, nil
	}
	if !IsValidTarget(from, to) {
		return nil, errFormat("cannot convert " + from.String() + " to " + to.String())
	}

	raw := data
	if from == WOFF {
		var err error
		raw, err = decodeWOFF(data)
		if err != nil {
			return nil, err
		}
	}

	switch to {
	case WOFF:
		return encodeWOFF(raw)
	case WOFF2:
		return encodeWOFF2(raw)
	default:
		return nil, errFormat("cannot convert " + from.String() + " to " + to.String())
	}
}

// ToSFNT decodes any supported container to a raw sfnt file.  For raw
// TrueType and OpenType input the data is returned unchanged.
func ToSFNT(data []byte) ([]byte, Format, error) {
	switch f := Sniff(data); f {
	case TrueType, OpenType:
		return data, f, nil
	case WOFF:
		raw, err := decodeWOFF(data)
		return raw, f, err
	case WOFF2:
		raw, err := decodeWOFF2(data)
		return raw, f, err
	default:
		return nil, Unknown, errFormat("unrecognized font container")
	}
}
