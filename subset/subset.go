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

// Package subset reduces fonts to the glyphs needed for a given set
// of code points.
package subset

import (
	"bytes"
	"sort"

	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cmap"
	"seehuhn.de/go/sfnt/glyf"
	"seehuhn.de/go/sfnt/glyph"

	"seehuhn.de/go/svgfonts/woff"
)

// An Error indicates an inconsistency in the font tables which
// prevented subsetting.
type Error struct {
	Reason string
}

func (err *Error) Error() string {
	return "subset: " + err.Reason
}

// Info describes the outcome of a subsetting operation.
type Info struct {
	// NumGlyphs is the number of glyphs in the subsetted font,
	// including .notdef and glyphs pulled in as components of
	// composite glyphs.
	NumGlyphs int

	// Missing lists requested code points which the original font
	// cannot render.  These are omitted from the subset.
	Missing []rune
}

// Subset reduces a font to the glyphs needed to render the given code
// points, plus the glyphs these depend on as components.  The input
// may be in any supported container format; the result is a raw
// TrueType or OpenType file with a rebuilt character mapping.
//
// An empty rune set produces a structurally valid font containing
// only the .notdef glyph.
func Subset(data []byte, runes []rune) ([]byte, *Info, error) {
	raw, _, err := woff.ToSFNT(data)
	if err != nil {
		return nil, nil, err
	}
	font, err := sfnt.Read(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, &woff.UnsupportedFormatError{Reason: err.Error()}
	}

	sorted := make([]rune, len(runes))
	copy(sorted, runes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	info := &Info{}

	// Glyph 0 (.notdef) always comes first.  Further glyphs are added
	// in rune order, so the result is deterministic.
	gids := []glyph.ID{0}
	newGID := map[glyph.ID]glyph.ID{0: 0}
	runeGID := make(map[rune]glyph.ID)

	if len(sorted) > 0 {
		cmapTable, err := font.CMapTable.GetBest()
		if err != nil {
			return nil, nil, &Error{Reason: "no usable cmap subtable"}
		}
		for _, r := range sorted {
			origGID := cmapTable.Lookup(r)
			if origGID == 0 {
				info.Missing = append(info.Missing, r)
				continue
			}
			if _, ok := newGID[origGID]; !ok {
				newGID[origGID] = glyph.ID(len(gids))
				gids = append(gids, origGID)
			}
			runeGID[r] = newGID[origGID]
		}
	}

	// For TrueType outlines, composite glyphs pull in their component
	// glyphs.
	if outlines, ok := font.Outlines.(*glyf.Outlines); ok {
		todo := make(map[glyph.ID]bool)
		addComponents := func(gid glyph.ID) {
			if int(gid) >= len(outlines.Glyphs) {
				return
			}
			for _, gid2 := range outlines.Glyphs[gid].Components() {
				if _, ok := newGID[gid2]; !ok {
					todo[gid2] = true
				}
			}
		}
		for _, gid := range gids {
			addComponents(gid)
		}
		for len(todo) > 0 {
			gid := pop(todo)
			newGID[gid] = glyph.ID(len(gids))
			gids = append(gids, gid)
			addComponents(gid)
		}
	}

	font = font.Clone()
	font.Gdef = nil
	font.Gsub = nil
	font.Gpos = nil
	font.CMapTable = nil

	sub := font.Subset(gids)
	info.NumGlyphs = sub.NumGlyphs()

	sub.CMapTable = makeCMap(runeGID)

	buf := &bytes.Buffer{}
	if _, err := sub.Write(buf); err != nil {
		return nil, nil, &Error{Reason: err.Error()}
	}
	return buf.Bytes(), info, nil
}

// makeCMap builds a cmap table mapping the requested code points to
// their new glyph IDs.  Code points in the basic multilingual plane
// go into a format 4 subtable; if any code point lies outside the
// BMP, a format 12 subtable is added as well.
func makeCMap(runeGID map[rune]glyph.ID) cmap.Table {
	f4 := cmap.Format4{}
	needFull := false
	for r, gid := range runeGID {
		if r <= 0xffff {
			f4[uint16(r)] = gid
		} else {
			needFull = true
		}
	}
	table := cmap.Table{
		{PlatformID: 3, EncodingID: 1}: f4.Encode(0),
	}
	if needFull {
		f12 := cmap.Format12{}
		for r, gid := range runeGID {
			f12[uint32(r)] = gid
		}
		table[cmap.Key{PlatformID: 3, EncodingID: 10}] = f12.Encode(0)
	}
	return table
}

func pop(todo map[glyph.ID]bool) glyph.ID {
	// take the smallest ID, for deterministic output
	first := true
	var best glyph.ID
	for gid := range todo {
		if first || gid < best {
			best = gid
			first = false
		}
	}
	delete(todo, best)
	return best
}
