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
	"compress/zlib"
	"encoding/binary"
	"io"
	"sort"
)

// https://www.w3.org/TR/WOFF/

const woffHeaderSize = 44
const woffDirEntrySize = 20

// encodeWOFF converts a raw TrueType or OpenType font to WOFF 1.0.
// Each table is compressed individually with zlib; tables which do
// not shrink are stored uncompressed, as required by the WOFF
// standard.
func encodeWOFF(data []byte) ([]byte, error) {
	sfnt, err := parseSFNT(data)
	if err != nil {
		return nil, err
	}

	// WOFF directory entries must be sorted by tag.
	tables := make([]table, len(sfnt.Tables))
	copy(tables, sfnt.Tables)
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].Tag < tables[j].Tag
	})

	type compressed struct {
		table
		comp []byte
	}
	cc := make([]compressed, len(tables))
	for i, t := range tables {
		buf := &bytes.Buffer{}
		zw := zlib.NewWriter(buf)
		if _, err := zw.Write(t.Data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		cc[i].table = t
		if buf.Len() < len(t.Data) {
			cc[i].comp = buf.Bytes()
		} else {
			cc[i].comp = t.Data
		}
	}

	numTables := len(tables)
	offset := uint32(woffHeaderSize + woffDirEntrySize*numTables)
	totalLength := offset
	for _, c := range cc {
		totalLength += pad4(uint32(len(c.comp)))
	}

	out := &bytes.Buffer{}
	binary.Write(out, binary.BigEndian, uint32(signatureWOFF))
	binary.Write(out, binary.BigEndian, sfnt.Flavor)
	binary.Write(out, binary.BigEndian, totalLength)
	binary.Write(out, binary.BigEndian, uint16(numTables))
	binary.Write(out, binary.BigEndian, uint16(0)) // reserved
	binary.Write(out, binary.BigEndian, sfntTotalSize(tables))
	binary.Write(out, binary.BigEndian, uint16(1)) // majorVersion
	binary.Write(out, binary.BigEndian, uint16(0)) // minorVersion
	binary.Write(out, binary.BigEndian, uint32(0)) // metaOffset
	binary.Write(out, binary.BigEndian, uint32(0)) // metaLength
	binary.Write(out, binary.BigEndian, uint32(0)) // metaOrigLength
	binary.Write(out, binary.BigEndian, uint32(0)) // privOffset
	binary.Write(out, binary.BigEndian, uint32(0)) // privLength

	for _, c := range cc {
		out.WriteString(c.Tag)
		binary.Write(out, binary.BigEndian, offset)
		binary.Write(out, binary.BigEndian, uint32(len(c.comp)))
		binary.Write(out, binary.BigEndian, uint32(len(c.Data)))
		binary.Write(out, binary.BigEndian, tableChecksum(c.Data))
		offset += pad4(uint32(len(c.comp)))
	}
	for _, c := range cc {
		out.Write(c.comp)
		if k := len(c.comp) % 4; k != 0 {
			out.Write(make([]byte, 4-k))
		}
	}
	return out.Bytes(), nil
}

// decodeWOFF converts a WOFF 1.0 font back to a raw sfnt file.
func decodeWOFF(data []byte) ([]byte, error) {
	if len(data) < woffHeaderSize {
		return nil, errFormat("WOFF file too short")
	}
	if binary.BigEndian.Uint32(data) != signatureWOFF {
		return nil, errFormat("missing WOFF signature")
	}
	flavor := binary.BigEndian.Uint32(data[4:])
	numTables := int(binary.BigEndian.Uint16(data[12:]))
	if numTables == 0 || len(data) < woffHeaderSize+woffDirEntrySize*numTables {
		return nil, errFormat("truncated WOFF table directory")
	}

	res := &sfntFile{Flavor: flavor}
	for i := 0; i < numTables; i++ {
		rec := data[woffHeaderSize+woffDirEntrySize*i:]
		tag := string(rec[:4])
		offset := binary.BigEndian.Uint32(rec[4:])
		compLength := binary.BigEndian.Uint32(rec[8:])
		origLength := binary.BigEndian.Uint32(rec[12:])
		if uint64(offset)+uint64(compLength) > uint64(len(data)) {
			return nil, errFormat("WOFF table data out of range")
		}

		raw := data[offset : offset+compLength]
		var tableData []byte
		if compLength == origLength {
			tableData = raw
		} else {
			zr, err := zlib.NewReader(bytes.NewReader(raw))
			if err != nil {
				return nil, errFormat("bad zlib stream in table " + tag)
			}
			tableData = make([]byte, origLength)
			if _, err := io.ReadFull(zr, tableData); err != nil {
				return nil, errFormat("short zlib stream in table " + tag)
			}
			zr.Close()
		}
		res.Tables = append(res.Tables, table{Tag: tag, Data: tableData})
	}
	return encodeSFNT(res), nil
}
