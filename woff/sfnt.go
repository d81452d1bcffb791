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
	"fmt"
	"math/bits"
	"sort"
)

// A table is one table of an sfnt font file.
type table struct {
	Tag  string
	Data []byte
}

// sfntFile is the decoded form of an sfnt font file: the version
// ("flavor") from the offset table, plus the contained tables.
type sfntFile struct {
	Flavor uint32
	Tables []table
}

func (f *sfntFile) find(tag string) []byte {
	for _, t := range f.Tables {
		if t.Tag == tag {
			return t.Data
		}
	}
	return nil
}

// parseSFNT decodes the offset table and table directory of a raw
// TrueType or OpenType file.  Table data is sliced from data without
// copying.
func parseSFNT(data []byte) (*sfntFile, error) {
	if len(data) < 12 {
		return nil, errFormat("sfnt file too short")
	}
	flavor := binary.BigEndian.Uint32(data)
	switch flavor {
	case sfntVersionTrueType, sfntVersionAppleTT, sfntVersionOpenType:
		// pass
	default:
		return nil, errFormat(fmt.Sprintf("unknown sfnt version 0x%08x", flavor))
	}
	numTables := int(binary.BigEndian.Uint16(data[4:]))
	if numTables == 0 || len(data) < 12+16*numTables {
		return nil, errFormat("truncated table directory")
	}

	res := &sfntFile{Flavor: flavor}
	for i := 0; i < numTables; i++ {
		rec := data[12+16*i:]
		tag := string(rec[:4])
		offset := binary.BigEndian.Uint32(rec[8:])
		length := binary.BigEndian.Uint32(rec[12:])
		if uint64(offset)+uint64(length) > uint64(len(data)) {
			return nil, errFormat(fmt.Sprintf("table %q extends beyond end of file", tag))
		}
		res.Tables = append(res.Tables, table{
			Tag:  tag,
			Data: data[offset : offset+length],
		})
	}
	return res, nil
}

// encodeSFNT assembles a raw sfnt file from the given tables.  Table
// records are sorted by tag as required by the OpenType standard, and
// table data is aligned to 4-byte boundaries.
func encodeSFNT(f *sfntFile) []byte {
	tables := make([]table, len(f.Tables))
	copy(tables, f.Tables)
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].Tag < tables[j].Tag
	})

	numTables := len(tables)
	entrySelector := bits.Len(uint(numTables)) - 1
	searchRange := 16 << entrySelector

	buf := &bytes.Buffer{}
	binary.Write(buf, binary.BigEndian, f.Flavor)
	binary.Write(buf, binary.BigEndian, uint16(numTables))
	binary.Write(buf, binary.BigEndian, uint16(searchRange))
	binary.Write(buf, binary.BigEndian, uint16(entrySelector))
	binary.Write(buf, binary.BigEndian, uint16(numTables*16-searchRange))

	offset := uint32(12 + 16*numTables)
	for _, t := range tables {
		buf.WriteString(t.Tag)
		binary.Write(buf, binary.BigEndian, tableChecksum(t.Data))
		binary.Write(buf, binary.BigEndian, offset)
		binary.Write(buf, binary.BigEndian, uint32(len(t.Data)))
		offset += pad4(uint32(len(t.Data)))
	}
	for _, t := range tables {
		buf.Write(t.Data)
		if k := len(t.Data) % 4; k != 0 {
			buf.Write(make([]byte, 4-k))
		}
	}
	return buf.Bytes()
}

// tableChecksum computes the checksum of table data as defined in the
// OpenType standard: the sum of the data interpreted as big-endian
// uint32 values, zero-padded to a multiple of four bytes.
func tableChecksum(data []byte) uint32 {
	var sum uint32
	n := len(data) / 4 * 4
	for i := 0; i < n; i += 4 {
		sum += binary.BigEndian.Uint32(data[i:])
	}
	if n < len(data) {
		var last [4]byte
		copy(last[:], data[n:])
		sum += binary.BigEndian.Uint32(last[:])
	}
	return sum
}

func pad4(n uint32) uint32 {
	return (n + 3) &^ 3
}

// sfntTotalSize returns the size of the raw sfnt file equivalent to
// the given tables, as needed for the totalSfntSize header fields of
// WOFF and WOFF2.
func sfntTotalSize(tables []table) uint32 {
	size := uint32(12 + 16*len(tables))
	for _, t := range tables {
		size += pad4(uint32(len(t.Data)))
	}
	return size
}
