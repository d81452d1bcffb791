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
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

// normalize re-encodes a raw sfnt file in the canonical form produced
// by encodeSFNT, so that round trips can be compared byte for byte.
func normalize(t *testing.T, data []byte) []byte {
	t.Helper()
	f, err := parseSFNT(data)
	if err != nil {
		t.Fatal(err)
	}
	return encodeSFNT(f)
}

func TestSniff(t *testing.T) {
	cases := []struct {
		data []byte
		want Format
	}{
		{goregular.TTF, TrueType},
		{[]byte("OTTO    "), OpenType},
		{[]byte("wOFF    "), WOFF},
		{[]byte("wOF2    "), WOFF2},
		{[]byte("<svg"), Unknown},
		{[]byte{1}, Unknown},
		{nil, Unknown},
	}
	for i, test := range cases {
		if got := Sniff(test.data); got != test.want {
			t.Errorf("case %d: Sniff = %v, want %v", i, got, test.want)
		}
	}
}

func TestIsValidTarget(t *testing.T) {
	cases := []struct {
		from, to Format
		want     bool
	}{
		{TrueType, WOFF, true},
		{TrueType, WOFF2, true},
		{OpenType, WOFF2, true},
		{WOFF, WOFF2, true},
		{WOFF2, WOFF, false},
		{WOFF, WOFF, false},
		{WOFF2, TrueType, false},
		{Unknown, WOFF2, false},
	}
	for _, test := range cases {
		if got := IsValidTarget(test.from, test.to); got != test.want {
			t.Errorf("IsValidTarget(%v, %v) = %t, want %t",
				test.from, test.to, got, test.want)
		}
	}
}

func TestWOFFRoundTrip(t *testing.T) {
	orig := normalize(t, goregular.TTF)

	woff, err := encodeWOFF(orig)
	if err != nil {
		t.Fatal(err)
	}
	if Sniff(woff) != WOFF {
		t.Fatal("encoder output has no WOFF signature")
	}
	if len(woff) >= len(orig) {
		t.Errorf("WOFF not smaller than input: %d >= %d", len(woff), len(orig))
	}

	back, err := decodeWOFF(woff)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(back, orig) {
		t.Error("WOFF round trip does not reproduce the input")
	}
}

func TestWOFF2RoundTrip(t *testing.T) {
	orig := normalize(t, goregular.TTF)

	woff2, err := encodeWOFF2(orig)
	if err != nil {
		t.Fatal(err)
	}
	if Sniff(woff2) != WOFF2 {
		t.Fatal("encoder output has no WOFF2 signature")
	}
	if len(woff2) >= len(orig) {
		t.Errorf("WOFF2 not smaller than input: %d >= %d", len(woff2), len(orig))
	}

	back, err := decodeWOFF2(woff2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(back, orig) {
		t.Error("WOFF2 round trip does not reproduce the input")
	}
}

func TestTranscode(t *testing.T) {
	ttf := normalize(t, goregular.TTF)

	// identity
	same, err := Transcode(ttf, TrueType, TrueType)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(same, ttf) {
		t.Error("identity transcode changed the data")
	}

	// ttf -> woff -> woff2
	w1, err := Transcode(ttf, TrueType, WOFF)
	if err != nil {
		t.Fatal(err)
	}
	w2, err := Transcode(w1, WOFF, WOFF2)
	if err != nil {
		t.Fatal(err)
	}
	back, err := decodeWOFF2(w2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(back, ttf) {
		t.Error("ttf -> woff -> woff2 does not preserve the tables")
	}

	// downgrades are refused
	if _, err := Transcode(w2, WOFF2, WOFF); err == nil {
		t.Error("WOFF2 -> WOFF downgrade accepted")
	}
	// mismatched from argument is refused
	if _, err := Transcode(ttf, WOFF, WOFF2); err == nil {
		t.Error("wrong source format accepted")
	}
}

func TestToSFNT(t *testing.T) {
	ttf := normalize(t, goregular.TTF)

	for _, encode := range []func([]byte) ([]byte, error){encodeWOFF, encodeWOFF2} {
		enc, err := encode(ttf)
		if err != nil {
			t.Fatal(err)
		}
		raw, _, err := ToSFNT(enc)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(raw, ttf) {
			t.Error("ToSFNT does not reproduce the input tables")
		}
	}

	if _, _, err := ToSFNT([]byte("garbage data here")); err == nil {
		t.Error("ToSFNT accepted garbage")
	}
}

func TestUintBase128(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 16383, 16384, 1<<32 - 1} {
		buf := &bytes.Buffer{}
		writeUintBase128(buf, v)
		got, n, err := readUintBase128(buf.Bytes())
		if err != nil {
			t.Fatalf("%d: %v", v, err)
		}
		if got != v || n != buf.Len() {
			t.Errorf("%d: got %d (%d bytes), want %d (%d bytes)",
				v, got, n, v, buf.Len())
		}
	}

	// leading zero bytes are invalid
	if _, _, err := readUintBase128([]byte{0x80, 0x01}); err == nil {
		t.Error("leading zero byte accepted")
	}
}

func TestWOFFDirectorySorted(t *testing.T) {
	woff, err := encodeWOFF(normalize(t, goregular.TTF))
	if err != nil {
		t.Fatal(err)
	}
	numTables := int(woff[12])<<8 | int(woff[13])
	var prev string
	for i := 0; i < numTables; i++ {
		tag := string(woff[woffHeaderSize+woffDirEntrySize*i:][:4])
		if tag < prev {
			t.Fatalf("directory not sorted: %q after %q", tag, prev)
		}
		prev = tag
	}
}
