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

// A MalformedSVGError indicates that the input is not a usable SVG
// document.
type MalformedSVGError struct {
	Path string
	Err  error
}

func (err *MalformedSVGError) Error() string {
	msg := "malformed SVG document"
	if err.Path != "" {
		msg += " " + err.Path
	}
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func (err *MalformedSVGError) Unwrap() error {
	return err.Err
}

// A TimeoutError indicates that an embedding run was aborted because
// its deadline passed or its context was cancelled.
type TimeoutError struct {
	Err error
}

func (err *TimeoutError) Error() string {
	return "font embedding aborted: " + err.Err.Error()
}

func (err *TimeoutError) Unwrap() error {
	return err.Err
}
