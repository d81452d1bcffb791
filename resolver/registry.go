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
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"seehuhn.de/go/svgfonts/css"
	"seehuhn.de/go/svgfonts/scan"
	"seehuhn.de/go/svgfonts/woff"
)

// A variant is one font file offered by a registry for a family.
type variant struct {
	Style  scan.Style
	Weight int
	URL    string
}

// A registry answers "which font files exist for this family?".
type registry interface {
	variants(ctx context.Context, family string) ([]variant, error)
}

// registryBackend resolves references through a font registry:
// the registry lists the variants of the family, the best-matching
// variant is picked by weight and style, and its binary is fetched.
type registryBackend struct {
	r    *Resolver
	kind BackendKind
	reg  registry
}

func (b *registryBackend) resolve(ctx context.Context, ref scan.Reference) (*ResolvedFont, error) {
	vars, err := b.reg.variants(ctx, ref.Family)
	if err != nil {
		return nil, err
	}
	v, ok := pickVariant(vars, ref.Style, ref.Weight)
	if !ok {
		return nil, fmt.Errorf("registry has no variants for %q", ref.Family)
	}

	data, err := b.r.fetchURL(ctx, v.URL)
	if err != nil {
		return nil, err
	}
	format := woff.Sniff(data)
	if format == woff.Unknown {
		return nil, fmt.Errorf("registry returned unrecognized font data for %q", ref.Family)
	}
	return &ResolvedFont{
		Ref:    ref,
		Binary: data,
		Format: format,
		From:   b.kind,
	}, nil
}

// pickVariant chooses the variant best matching the requested style
// and weight.  Variants with the requested style are preferred; among
// those, the nearest weight by absolute distance wins, with ties
// broken toward the heavier weight.
func pickVariant(vars []variant, style scan.Style, weight int) (variant, bool) {
	var best variant
	found := false
	bestScore := -1 << 30
	for _, v := range vars {
		score := 0
		if v.Style == style {
			score += 1 << 20
		}
		d := v.Weight - weight
		if d < 0 {
			d = -d
			score -= 2*d + 1
		} else {
			score -= 2 * d
		}
		if !found || score > bestScore {
			best = v
			bestScore = score
			found = true
		}
	}
	return best, found
}

// googleRegistry queries the Google Fonts CSS API.  The returned
// style sheet contains one @font-face rule per served variant; the
// rules are parsed with the css package to find the binary URLs.
type googleRegistry struct {
	r    *Resolver
	base string
}

func (g *googleRegistry) variants(ctx context.Context, family string) ([]variant, error) {
	// Request the full weight range for both slants; the API answers
	// with the variants which actually exist.
	spec := strings.ReplaceAll(family, " ", "+") +
		":ital,wght@0,100..900;1,100..900"
	cssURL := g.base + "/css2?family=" + spec

	data, err := g.r.fetchURL(ctx, cssURL)
	if err != nil {
		return nil, err
	}
	sheet, _ := css.Parse(string(data))

	var vars []variant
	for _, rule := range sheet.Rules {
		ff, ok := rule.(*css.FontFaceRule)
		if !ok {
			continue
		}
		v := variant{Weight: 400}
		for _, decl := range ff.Decls {
			switch decl.Property {
			case "font-style":
				if s, ok := css.FontStyle(decl.Value); ok {
					v.Style = scan.ParseStyle(s)
				}
			case "font-weight":
				if w, ok := css.FontWeight(decl.Value, 400); ok {
					v.Weight = w
				}
			case "src":
				for _, e := range css.FontFaceSrc(decl.Value) {
					if e.URL != "" {
						v.URL = e.URL
						break
					}
				}
			}
		}
		if v.URL != "" {
			vars = append(vars, v)
		}
	}
	if len(vars) == 0 {
		return nil, fmt.Errorf("%w: %q not found in Google Fonts", errPermanent, family)
	}
	return vars, nil
}

// fontgetRegistry queries the FontGet metadata API, which describes
// each family as a JSON record listing its variants.
type fontgetRegistry struct {
	r    *Resolver
	base string
}

type fontgetFamily struct {
	Family   string `json:"family"`
	Variants []struct {
		Style  string `json:"style"`
		Weight int    `json:"weight"`
		URL    string `json:"url"`
	} `json:"variants"`
}

func (f *fontgetRegistry) variants(ctx context.Context, family string) ([]variant, error) {
	metaURL := f.base + "/v1/families/" + url.PathEscape(family)
	data, err := f.r.fetchURL(ctx, metaURL)
	if err != nil {
		return nil, err
	}

	var meta fontgetFamily
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("bad registry response for %q: %v", family, err)
	}

	var vars []variant
	for _, v := range meta.Variants {
		if v.URL == "" {
			continue
		}
		weight := v.Weight
		if weight == 0 {
			weight = 400
		}
		vars = append(vars, variant{
			Style:  scan.ParseStyle(v.Style),
			Weight: weight,
			URL:    v.URL,
		})
	}
	if len(vars) == 0 {
		return nil, fmt.Errorf("%w: %q not found in registry", errPermanent, family)
	}
	return vars, nil
}
