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

package resolver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"seehuhn.de/go/sfnt"

	"seehuhn.de/go/svgfonts/scan"
	"seehuhn.de/go/svgfonts/woff"
)

// localBackend finds fonts installed on the system.  The font
// directories are scanned once, on first use; the index maps
// (family, style, weight) to file paths.
//
// Matching is exact: a missing weight or style is an error, never a
// silent substitution.
type localBackend struct {
	dirs []string

	once  sync.Once
	index map[scan.Key]string
}

// defaultFontDirs returns the system font directories for the current
// platform.
func defaultFontDirs() []string {
	var dirs []string
	switch runtime.GOOS {
	case "darwin":
		dirs = []string{
			"/System/Library/Fonts",
			"/Library/Fonts",
		}
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		dirs = []string{filepath.Join(windir, "Fonts")}
	default:
		dirs = []string{
			"/usr/share/fonts",
			"/usr/local/share/fonts",
		}
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs,
				filepath.Join(home, ".fonts"),
				filepath.Join(home, ".local", "share", "fonts"))
		}
	}
	return dirs
}

func (b *localBackend) buildIndex() {
	dirs := b.dirs
	if len(dirs) == 0 {
		dirs = defaultFontDirs()
	}
	b.index = make(map[scan.Key]string)

	for _, dir := range dirs {
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".ttf", ".otf":
				// pass
			default:
				return nil
			}
			info, err := sfnt.ReadFile(path)
			if err != nil {
				return nil
			}
			key := scan.Reference{
				Family: info.FamilyName,
				Style:  fontStyle(info),
				Weight: int(info.Weight),
			}.Key()
			if _, ok := b.index[key]; !ok {
				b.index[key] = path
			}
			return nil
		})
	}
}

func fontStyle(info *sfnt.Font) scan.Style {
	switch {
	case info.IsOblique:
		return scan.StyleOblique
	case info.IsItalic:
		return scan.StyleItalic
	default:
		return scan.StyleNormal
	}
}

func (b *localBackend) resolve(ctx context.Context, ref scan.Reference) (*ResolvedFont, error) {
	b.once.Do(b.buildIndex)

	key := ref.Key()
	path, ok := b.index[key]
	if !ok && ref.Locator != "" {
		// An @font-face src local(...) name may differ from the
		// family name used in the document.
		alt := scan.Reference{
			Family: ref.Locator,
			Style:  ref.Style,
			Weight: ref.Weight,
		}
		path, ok = b.index[alt.Key()]
	}
	if !ok {
		return nil, &FontNotFoundError{Ref: ref}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := woff.Sniff(data)
	if format == woff.Unknown {
		return nil, &FontNotFoundError{Ref: ref}
	}
	return &ResolvedFont{
		Ref:    ref,
		Binary: data,
		Format: format,
		From:   FromLocal,
	}, nil
}

// directBackend fetches a font from the URL given in the document.
type directBackend struct {
	r *Resolver
}

func (b *directBackend) resolve(ctx context.Context, ref scan.Reference) (*ResolvedFont, error) {
	location := ref.Locator
	var data []byte
	var err error
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		data, err = b.r.fetchURL(ctx, location)
	} else {
		data, err = readLocalFile(location)
	}
	if err != nil {
		return nil, err
	}
	format := woff.Sniff(data)
	if format == woff.Unknown {
		return nil, &woff.UnsupportedFormatError{
			Reason: "no recognized font container at " + location,
		}
	}
	return &ResolvedFont{
		Ref:    ref,
		Binary: data,
		Format: format,
		From:   FromDirect,
	}, nil
}
