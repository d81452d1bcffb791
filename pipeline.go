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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"seehuhn.de/go/svgfonts/resolver"
	"seehuhn.de/go/svgfonts/rewrite"
	"seehuhn.de/go/svgfonts/scan"
	"seehuhn.de/go/svgfonts/subset"
	"seehuhn.de/go/svgfonts/validate"
	"seehuhn.de/go/svgfonts/woff"
)

// Options controls font embedding.  The zero value embeds complete
// fonts as WOFF2, trying all font sources.
type Options struct {
	// Target is the container format for embedded fonts, either
	// [woff.WOFF] or [woff.WOFF2].  The zero value selects WOFF2.
	Target woff.Format

	// Subset reduces each font to the glyphs used in the document
	// before embedding.
	Subset bool

	// Source restricts which font sources are consulted for fonts
	// referenced by family name only.
	Source resolver.Source

	// Strict aborts the run on the first font which cannot be
	// embedded.  Otherwise failed fonts are skipped and reported in
	// [Result.Skipped].
	Strict bool

	// MaxConcurrent bounds the number of fonts resolved in parallel.
	// Zero means 4.
	MaxConcurrent int

	// Timeout bounds the whole run.  Zero means no limit.
	Timeout time.Duration

	// CacheDir enables the on-disk font cache when non-empty.
	CacheDir string

	// CacheTTL is the maximum age of cache entries.  Zero means
	// entries never expire.
	CacheTTL time.Duration

	// FontDirs overrides the system font directories searched by the
	// local source.
	FontDirs []string

	// GoogleURL and FontGetURL override the registry endpoints.
	// These are used by tests.
	GoogleURL  string
	FontGetURL string

	// Client is the HTTP client used for all network access.
	Client *http.Client

	// Log receives debug messages.  If nil, messages are discarded.
	Log *slog.Logger

	// Clock is used for cache expiry and retry delays.  If nil, the
	// real time clock is used.
	Clock clockwork.Clock
}

// A Result describes the outcome of one embedding run.
type Result struct {
	// EmbeddedCount is the number of fonts written into the document.
	EmbeddedCount int

	// Skipped lists the references which could not be embedded.
	Skipped []scan.Reference

	// Warnings lists non-fatal problems, in the order encountered.
	Warnings []string
}

// Embed resolves all fonts referenced by the document and embeds them
// as data URIs in a managed <style> element.
//
// Unless opts.Strict is set, references which cannot be resolved do
// not abort the run; they are reported in the result and the
// corresponding document content is left unchanged.
func Embed(ctx context.Context, doc *Document, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	target := opts.Target
	if target == woff.Unknown {
		target = woff.WOFF2
	}
	if target != woff.WOFF && target != woff.WOFF2 {
		return nil, &woff.UnsupportedFormatError{
			Reason: "embedding target must be WOFF or WOFF2",
		}
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	result := &Result{}

	rep := validate.Check(doc.xml)
	if !rep.Valid {
		return nil, &MalformedSVGError{
			Path: doc.Path,
			Err:  errors.New(firstError(rep)),
		}
	}
	for _, iss := range rep.Issues {
		result.Warnings = append(result.Warnings, "input: "+iss.String())
	}

	res, err := resolver.New(resolverConfig(opts))
	if err != nil {
		return nil, err
	}

	scanRes, err := scan.Scan(doc.xml, doc.Path, func(location string) ([]byte, error) {
		return res.Fetch(ctx, location)
	})
	if err != nil {
		return nil, err
	}
	result.Warnings = append(result.Warnings, scanRes.Warnings...)

	// Fonts already present as data URIs need no work.
	var refs []scan.Reference
	for _, ref := range scanRes.Refs {
		if ref.Kind != scan.SourceDataURI {
			refs = append(refs, ref)
		}
	}

	resolved, failures, err := res.ResolveAll(ctx, refs)
	if err != nil {
		return nil, timeoutOr(err)
	}
	for _, f := range failures {
		if opts.Strict {
			return nil, f.Err
		}
		result.Skipped = append(result.Skipped, f.Ref)
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("skipping font %s: %v", f.Ref, f.Err))
	}

	var assets []rewrite.Asset
	for _, ref := range refs {
		font, ok := resolved[ref.Key()]
		if !ok {
			continue
		}
		data, format, err := prepare(font, scanRes.Usage[ref.Key()], target, opts.Subset)
		if err != nil {
			if opts.Strict {
				return nil, fmt.Errorf("font %s: %w", ref, err)
			}
			result.Skipped = append(result.Skipped, ref)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("skipping font %s: %v", ref, err))
			continue
		}
		assets = append(assets, rewrite.Asset{Ref: ref, Data: data, Format: format})
	}

	if err := rewrite.Embed(doc.xml, assets, scanRes.Imports); err != nil {
		return nil, err
	}
	result.EmbeddedCount = len(assets)

	if rep := validate.Check(doc.xml); !rep.Valid {
		return nil, fmt.Errorf("document invalid after embedding: %s", firstError(rep))
	}

	return result, nil
}

// prepare turns resolved font data into the payload for one
// @font-face rule, subsetting and transcoding as requested.
func prepare(font *resolver.ResolvedFont, usage *scan.CodeSet, target woff.Format, doSubset bool) ([]byte, woff.Format, error) {
	if doSubset {
		var runes []rune
		if usage != nil {
			runes = usage.Runes()
		}
		raw, _, err := subset.Subset(font.Binary, runes)
		if err != nil {
			return nil, woff.Unknown, err
		}
		out, err := woff.Transcode(raw, woff.Sniff(raw), target)
		if err != nil {
			return nil, woff.Unknown, err
		}
		return out, target, nil
	}

	if font.Format == target {
		return font.Binary, target, nil
	}
	if woff.IsValidTarget(font.Format, target) {
		out, err := woff.Transcode(font.Binary, font.Format, target)
		if err != nil {
			return nil, woff.Unknown, err
		}
		return out, target, nil
	}
	// The source is already compressed more tightly than the target
	// allows (WOFF2 input, WOFF target).  Keep it as is.
	return font.Binary, font.Format, nil
}

func resolverConfig(opts *Options) resolver.Config {
	return resolver.Config{
		Source:        opts.Source,
		CacheDir:      opts.CacheDir,
		CacheTTL:      opts.CacheTTL,
		MaxConcurrent: opts.MaxConcurrent,
		Client:        opts.Client,
		Clock:         opts.Clock,
		Log:           opts.Log,
		GoogleURL:     opts.GoogleURL,
		FontGetURL:    opts.FontGetURL,
		FontDirs:      opts.FontDirs,
	}
}

func timeoutOr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &TimeoutError{Err: err}
	}
	return err
}

func firstError(rep *validate.Report) string {
	for _, iss := range rep.Issues {
		if iss.Severity == validate.Error {
			return iss.Message
		}
	}
	return "invalid document"
}

// A FontInfo describes one font reference of a document, for the
// "list" command.
type FontInfo struct {
	Ref scan.Reference

	// Glyphs is the number of distinct code points rendered with
	// this font.
	Glyphs int

	// Embedded is true if the font is already stored in the document
	// as a data URI.
	Embedded bool

	// Status describes the resolution outcome, e.g. "ok (google)".
	Status string

	// Format and Size describe the resolved font data.  They are
	// zero when resolution failed.
	Format woff.Format
	Size   int
}

// List reports the font references of a document together with their
// resolution status.  The document is not modified.
func List(ctx context.Context, doc *Document, opts *Options) ([]FontInfo, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	res, err := resolver.New(resolverConfig(opts))
	if err != nil {
		return nil, err
	}
	scanRes, err := scan.Scan(doc.xml, doc.Path, func(location string) ([]byte, error) {
		return res.Fetch(ctx, location)
	})
	if err != nil {
		return nil, err
	}

	resolved, failures, err := res.ResolveAll(ctx, scanRes.Refs)
	if err != nil {
		return nil, timeoutOr(err)
	}
	failed := make(map[scan.Key]error)
	for _, f := range failures {
		failed[f.Ref.Key()] = f.Err
	}

	var infos []FontInfo
	for _, ref := range scanRes.Refs {
		info := FontInfo{
			Ref:      ref,
			Embedded: ref.Kind == scan.SourceDataURI,
		}
		if cs := scanRes.Usage[ref.Key()]; cs != nil {
			info.Glyphs = cs.Len()
		}
		if font, ok := resolved[ref.Key()]; ok {
			info.Status = "ok (" + font.From.String() + ")"
			info.Format = font.Format
			info.Size = len(font.Binary)
		} else if err, ok := failed[ref.Key()]; ok {
			info.Status = "error: " + err.Error()
		}
		infos = append(infos, info)
	}
	return infos, nil
}
