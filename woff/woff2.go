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

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/andybalholm/brotli"
)

// https://www.w3.org/TR/WOFF2/

// knownTags is the table of known table tags from the WOFF2 standard.
// A table whose tag appears here is identified in the directory by
// its index instead of the four-byte tag.
var knownTags = []string{
	"cmap", "head", "hhea", "hmtx",
	"maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca",
	"prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern",
	"LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS",
	"GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL",
	"SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar",
	"fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar",
	"mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat",
	"Gloc", "Feat", "Sill",
}

const (
	woff2HeaderSize = 48

	// arbitraryTag in the flags byte means the four-byte tag follows
	// explicitly.
	arbitraryTag = 63

	// nullTransformGlyf is the transformation version meaning "no
	// transform" for the glyf and loca tables.  For all other tables
	// the null transform is version 0.
	nullTransformGlyf = 3
)

func knownTagIndex(tag string) int {
	for i, t := range knownTags {
		if t == tag {
			return i
		}
	}
	return arbitraryTag
}

// encodeWOFF2 converts a raw TrueType or OpenType font to WOFF 2.0.
// All tables are stored with the null transform and compressed as a
// single Brotli stream, so the original table data can be recovered
// exactly.
func encodeWOFF2(data []byte) ([]byte, error) {
	sfnt, err := parseSFNT(data)
	if err != nil {
		return nil, err
	}
	tables := sfnt.Tables

	// table directory
	dir := &bytes.Buffer{}
	for _, t := range tables {
		idx := knownTagIndex(t.Tag)
		flags := byte(idx)
		if t.Tag == "glyf" || t.Tag == "loca" {
			flags |= nullTransformGlyf << 6
		}
		dir.WriteByte(flags)
		if idx == arbitraryTag {
			dir.WriteString(t.Tag)
		}
		writeUintBase128(dir, uint32(len(t.Data)))
	}

	// compressed data block
	stream := &bytes.Buffer{}
	for _, t := range tables {
		stream.Write(t.Data)
	}
	compressed := &bytes.Buffer{}
	bw := brotli.NewWriterLevel(compressed, brotli.BestCompression)
	if _, err := bw.Write(stream.Bytes()); err != nil {
		return nil, err
	}
	if err := bw.Close(); err != nil {
		return nil, err
	}

	totalLength := uint32(woff2HeaderSize+dir.Len()) + pad4(uint32(compressed.Len()))

	out := &bytes.Buffer{}
	binary.Write(out, binary.BigEndian, uint32(signatureWOFF2))
	binary.Write(out, binary.BigEndian, sfnt.Flavor)
	binary.Write(out, binary.BigEndian, totalLength)
	binary.Write(out, binary.BigEndian, uint16(len(tables)))
	binary.Write(out, binary.BigEndian, uint16(0)) // reserved
	binary.Write(out, binary.BigEndian, sfntTotalSize(tables))
	binary.Write(out, binary.BigEndian, uint32(compressed.Len()))
	binary.Write(out, binary.BigEndian, uint16(1)) // majorVersion
	binary.Write(out, binary.BigEndian, uint16(0)) // minorVersion
	binary.Write(out, binary.BigEndian, uint32(0)) // metaOffset
	binary.Write(out, binary.BigEndian, uint32(0)) // metaLength
	binary.Write(out, binary.BigEndian, uint32(0)) // metaOrigLength
	binary.Write(out, binary.BigEndian, uint32(0)) // privOffset
	binary.Write(out, binary.BigEndian, uint32(0)) // privLength
	out.Write(dir.Bytes())
	out.Write(compressed.Bytes())
	if k := compressed.Len() % 4; k != 0 {
		out.Write(make([]byte, 4-k))
	}
	return out.Bytes(), nil
}

// decodeWOFF2 converts a WOFF 2.0 font back to a raw sfnt file.  Only
// fonts using the null transform for glyf and loca are supported;
// this includes all output of [encodeWOFF2].
func decodeWOFF2(data []byte) ([]byte, error) {
	if len(data) < woff2HeaderSize {
		return nil, errFormat("WOFF2 file too short")
	}
	if binary.BigEndian.Uint32(data) != signatureWOFF2 {
		return nil, errFormat("missing WOFF2 signature")
	}
	flavor := binary.BigEndian.Uint32(data[4:])
	numTables := int(binary.BigEndian.Uint16(data[12:]))
	totalCompressedSize := binary.BigEndian.Uint32(data[20:])
	if numTables == 0 {
		return nil, errFormat("WOFF2 file contains no tables")
	}

	type dirEntry struct {
		tag        string
		origLength uint32
		transform  int
	}
	pos := woff2HeaderSize
	entries := make([]dirEntry, numTables)
	for i := range entries {
		if pos >= len(data) {
			return nil, errFormat("truncated WOFF2 table directory")
		}
		flags := data[pos]
		pos++
		idx := int(flags & 0x3f)
		transform := int(flags >> 6)

		var tag string
		if idx == arbitraryTag {
			if pos+4 > len(data) {
				return nil, errFormat("truncated WOFF2 table directory")
			}
			tag = string(data[pos : pos+4])
			pos += 4
		} else {
			tag = knownTags[idx]
		}

		origLength, n, err := readUintBase128(data[pos:])
		if err != nil {
			return nil, err
		}
		pos += n

		isGlyfLoca := tag == "glyf" || tag == "loca"
		nullTransform := transform == 0
		if isGlyfLoca {
			nullTransform = transform == nullTransformGlyf
		}
		if !nullTransform {
			return nil, errFormat("transformed WOFF2 tables not supported")
		}

		entries[i] = dirEntry{tag: tag, origLength: origLength, transform: transform}
	}

	if uint64(pos)+uint64(totalCompressedSize) > uint64(len(data)) {
		return nil, errFormat("WOFF2 data block out of range")
	}
	br := brotli.NewReader(bytes.NewReader(data[pos : pos+int(totalCompressedSize)]))

	res := &sfntFile{Flavor: flavor}
	for _, e := range entries {
		tableData := make([]byte, e.origLength)
		if _, err := io.ReadFull(br, tableData); err != nil {
			return nil, errFormat("short WOFF2 data stream")
		}
		res.Tables = append(res.Tables, table{Tag: e.tag, Data: tableData})
	}
	return encodeSFNT(res), nil
}

// writeUintBase128 encodes a value in the variable-length UIntBase128
// format of the WOFF2 standard: 7 bits per byte, most significant
// first, with the high bit of each byte except the last set.
func writeUintBase128(buf *bytes.Buffer, v uint32) {
	var tmp [5]byte
	n := 0
	for {
		tmp[n] = byte(v & 0x7f)
		v >>= 7
		n++
		if v == 0 {
			break
		}
	}
	for i := n - 1; i >= 0; i-- {
		b := tmp[i]
		if i > 0 {
			b |= 0x80
		}
		buf.WriteByte(b)
	}
}

func readUintBase128(data []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < 5 && i < len(data); i++ {
		b := data[i]
		if i == 0 && b == 0x80 {
			return 0, 0, errFormat("leading zeros in UIntBase128")
		}
		if v&0xfe000000 != 0 {
			return 0, 0, errFormat("UIntBase128 overflow")
		}
		v = v<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, errFormat("UIntBase128 exceeds 5 bytes")
}
