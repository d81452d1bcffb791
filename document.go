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

package svgfonts

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"
)

// A Document is a parsed SVG file.
type Document struct {
	// Path is the location the document was read from.  It is used
	// to resolve relative @import references and may be empty.
	Path string

	xml *etree.Document
}

// Read parses an SVG document from a reader.
func Read(r io.Reader) (*Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, &MalformedSVGError{Err: err}
	}
	return newDocument(doc, "")
}

// ReadFile parses the SVG document stored in the named file.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(f); err != nil {
		return nil, &MalformedSVGError{Path: path, Err: err}
	}
	d, err := newDocument(doc, path)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ParseString parses an SVG document from a string.
func ParseString(src string) (*Document, error) {
	return Read(strings.NewReader(src))
}

func newDocument(doc *etree.Document, path string) (*Document, error) {
	root := doc.Root()
	if root == nil {
		return nil, &MalformedSVGError{
			Path: path,
			Err:  errors.New("no root element"),
		}
	}
	if root.Tag != "svg" {
		return nil, &MalformedSVGError{
			Path: path,
			Err:  errors.New("root element is not <svg>"),
		}
	}
	return &Document{Path: path, xml: doc}, nil
}

// XML returns the underlying DOM of the document.  Modifications made
// through the returned value are visible in the document.
func (d *Document) XML() *etree.Document {
	return d.xml
}

// Write serializes the document.
func (d *Document) Write(w io.Writer) error {
	_, err := d.xml.WriteTo(w)
	return err
}

// WriteFile writes the document to the named file.
func (d *Document) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// String returns the serialized form of the document.
func (d *Document) String() string {
	s, err := d.xml.WriteToString()
	if err != nil {
		return ""
	}
	return s
}
