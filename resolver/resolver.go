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

// Package resolver locates binary font data for font references,
// using remote font registries, the local system font index, and
// direct URL fetches.
package resolver

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"seehuhn.de/go/svgfonts/scan"
	"seehuhn.de/go/svgfonts/woff"
)

// Source selects which backends are used to resolve font references
// given by family name only.
type Source int

// The possible source preferences.
const (
	SourceAuto Source = iota
	SourceGoogle
	SourceLocal
	SourceFontGet
)

func (s Source) String() string {
	switch s {
	case SourceGoogle:
		return "google"
	case SourceLocal:
		return "local"
	case SourceFontGet:
		return "fontget"
	default:
		return "auto"
	}
}

// ParseSource converts a source name from the command line or a
// configuration file to a Source.
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return SourceAuto, nil
	case "google":
		return SourceGoogle, nil
	case "local":
		return SourceLocal, nil
	case "fontget":
		return SourceFontGet, nil
	default:
		return SourceAuto, fmt.Errorf("unknown font source %q", s)
	}
}

// BackendKind records which backend produced a resolved font.
type BackendKind int

// The possible origins of a resolved font.
const (
	FromCache BackendKind = iota
	FromGoogle
	FromFontGet
	FromLocal
	FromDirect
)

func (k BackendKind) String() string {
	switch k {
	case FromCache:
		return "cache"
	case FromGoogle:
		return "google"
	case FromFontGet:
		return "fontget"
	case FromLocal:
		return "local"
	default:
		return "url"
	}
}

// A ResolvedFont is the binary font data located for a reference.
type ResolvedFont struct {
	Ref    scan.Reference
	Binary []byte
	Format woff.Format
	From   BackendKind
}

// A ResolutionError indicates that a font reference could not be
// resolved to binary font data.
type ResolutionError struct {
	Ref scan.Reference
	Err error
}

func (err *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve font %s: %v", err.Ref, err.Err)
}

func (err *ResolutionError) Unwrap() error {
	return err.Err
}

// A FontNotFoundError indicates that the local system font index has
// no exact match for a reference.
type FontNotFoundError struct {
	Ref scan.Reference
}

func (err *FontNotFoundError) Error() string {
	return fmt.Sprintf("font %s not installed", err.Ref)
}

// Config collects the options for creating a Resolver.  The zero
// value is usable; see the field comments for defaults.
type Config struct {
	// Source selects the backends tried for fonts referenced by
	// family name only.
	Source Source

	// CacheDir enables the on-disk resolution cache when non-empty.
	CacheDir string

	// CacheTTL is the maximum age of cache entries.  Zero means
	// entries never expire.
	CacheTTL time.Duration

	// MaxConcurrent bounds the number of parallel fetches in
	// ResolveAll.  Zero means 4.
	MaxConcurrent int

	// Client is the HTTP client used for all network access.  If
	// nil, a client with a 30 second timeout is used.
	Client *http.Client

	// Clock is used for cache expiry and retry delays.  If nil, the
	// real time clock is used.
	Clock clockwork.Clock

	// Log receives debug messages about fetches and cache activity.
	// If nil, messages are discarded.
	Log *slog.Logger

	// Retry configures retries for failed network requests.
	Retry RetryConfig

	// GoogleURL overrides the base URL of the Google Fonts CSS API.
	// This is used by tests.
	GoogleURL string

	// FontGetURL overrides the base URL of the FontGet metadata API.
	FontGetURL string

	// FontDirs overrides the list of system font directories.
	FontDirs []string
}

// A Resolver locates binary font data for font references.  A
// Resolver is safe for concurrent use.
type Resolver struct {
	source  Source
	client  *http.Client
	clock   clockwork.Clock
	log     *slog.Logger
	retry   RetryConfig
	cache   *diskCache
	maxConc int

	google  *registryBackend
	fontget *registryBackend
	local   *localBackend
	direct  *directBackend
}

// New creates a Resolver.
func New(cfg Config) (*Resolver, error) {
	r := &Resolver{
		source:  cfg.Source,
		client:  cfg.Client,
		clock:   cfg.Clock,
		log:     cfg.Log,
		retry:   cfg.Retry,
		maxConc: cfg.MaxConcurrent,
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: 30 * time.Second}
	}
	if r.clock == nil {
		r.clock = clockwork.NewRealClock()
	}
	if r.log == nil {
		r.log = slog.New(slog.DiscardHandler)
	}
	if r.retry.MaxAttempts == 0 {
		r.retry = DefaultRetryConfig()
	}
	if r.maxConc <= 0 {
		r.maxConc = 4
	}

	if cfg.CacheDir != "" {
		cache, err := newDiskCache(cfg.CacheDir, cfg.CacheTTL, r.clock)
		if err != nil {
			return nil, err
		}
		r.cache = cache
	}

	googleURL := cfg.GoogleURL
	if googleURL == "" {
		googleURL = "https://fonts.googleapis.com"
	}
	fontgetURL := cfg.FontGetURL
	if fontgetURL == "" {
		fontgetURL = "https://api.fontget.org"
	}
	r.google = &registryBackend{
		r:    r,
		kind: FromGoogle,
		reg:  &googleRegistry{r: r, base: googleURL},
	}
	r.fontget = &registryBackend{
		r:    r,
		kind: FromFontGet,
		reg:  &fontgetRegistry{r: r, base: fontgetURL},
	}
	r.local = &localBackend{dirs: cfg.FontDirs}
	r.direct = &directBackend{r: r}

	return r, nil
}

// backend is implemented by the resolution strategies.
type backend interface {
	resolve(ctx context.Context, ref scan.Reference) (*ResolvedFont, error)
}

// order returns the backends to try for a reference given by family
// name only, according to the configured source preference.
func (r *Resolver) order() []backend {
	switch r.source {
	case SourceGoogle:
		return []backend{r.google}
	case SourceLocal:
		return []backend{r.local}
	case SourceFontGet:
		return []backend{r.fontget}
	default:
		return []backend{r.google, r.local, r.fontget}
	}
}

// Resolve locates the binary font data for one reference.
func (r *Resolver) Resolve(ctx context.Context, ref scan.Reference) (*ResolvedFont, error) {
	if ref.Kind == scan.SourceDataURI {
		return resolveDataURI(ref)
	}

	key := cacheKey(ref)
	if r.cache != nil {
		if data, ok := r.cache.get(key); ok {
			format := woff.Sniff(data)
			if format != woff.Unknown {
				r.log.Debug("font from cache", "font", ref.String())
				return &ResolvedFont{
					Ref:    ref,
					Binary: data,
					Format: format,
					From:   FromCache,
				}, nil
			}
		}
	}

	var res *ResolvedFont
	var err error
	if ref.Kind == scan.SourceRemote {
		res, err = r.direct.resolve(ctx, ref)
		if err != nil {
			// If the URL points into a known registry, the registry
			// metadata API may still find the font.
			if reg := r.registryForHost(ref.Locator); reg != nil {
				var err2 error
				res, err2 = reg.resolve(ctx, ref)
				if err2 != nil {
					err = fmt.Errorf("%v; registry lookup: %v", err, err2)
				} else {
					err = nil
				}
			}
		}
	} else {
		for _, b := range r.order() {
			res, err = b.resolve(ctx, ref)
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				break
			}
		}
	}
	if err != nil {
		if _, ok := err.(*FontNotFoundError); ok {
			return nil, err
		}
		return nil, &ResolutionError{Ref: ref, Err: err}
	}

	if r.cache != nil {
		if err := r.cache.put(key, res); err != nil {
			r.log.Warn("cannot write font cache entry",
				"font", ref.String(), "error", err)
		}
	}
	return res, nil
}

func (r *Resolver) registryForHost(location string) *registryBackend {
	switch {
	case strings.Contains(location, "fonts.googleapis.com"),
		strings.Contains(location, "fonts.gstatic.com"):
		return r.google
	default:
		return nil
	}
}

// A Failure pairs a reference with the error which prevented its
// resolution.
type Failure struct {
	Ref scan.Reference
	Err error
}

// ResolveAll resolves all references concurrently, using a bounded
// worker pool.  It returns when every reference has either been
// resolved or definitively failed.  Failures are returned separately
// and do not abort the other resolutions.
//
// If the context is cancelled, in-flight fetches are abandoned and
// the context error is returned.
func (r *Resolver) ResolveAll(ctx context.Context, refs []scan.Reference) (map[scan.Key]*ResolvedFont, []Failure, error) {
	type job struct {
		idx int
		ref scan.Reference
	}
	type outcome struct {
		idx  int
		font *ResolvedFont
		err  error
	}

	jobs := make(chan job)
	outcomes := make(chan outcome)

	numWorkers := r.maxConc
	if numWorkers > len(refs) {
		numWorkers = len(refs)
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				font, err := r.Resolve(ctx, j.ref)
				outcomes <- outcome{idx: j.idx, font: font, err: err}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for i, ref := range refs {
			select {
			case jobs <- job{idx: i, ref: ref}:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	resolved := make(map[scan.Key]*ResolvedFont)
	failureByIdx := make(map[int]error)
	for out := range outcomes {
		if out.err != nil {
			failureByIdx[out.idx] = out.err
		} else {
			resolved[out.font.Ref.Key()] = out.font
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	// report failures in discovery order
	var failures []Failure
	for i, ref := range refs {
		if err, ok := failureByIdx[i]; ok {
			failures = append(failures, Failure{Ref: ref, Err: err})
		} else if _, ok := resolved[ref.Key()]; !ok {
			// job was never scheduled (cancelled context)
			failures = append(failures, Failure{Ref: ref, Err: context.Canceled})
		}
	}
	return resolved, failures, nil
}

// Fetch retrieves the contents of a style sheet or other auxiliary
// resource, from the network for URLs and from the file system
// otherwise.  This is used to load @import targets during scanning.
func (r *Resolver) Fetch(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return r.fetchURL(ctx, location)
	}
	return readLocalFile(location)
}

func resolveDataURI(ref scan.Reference) (*ResolvedFont, error) {
	payload := ref.Locator
	idx := strings.Index(payload, ",")
	if !strings.HasPrefix(payload, "data:") || idx < 0 {
		return nil, &ResolutionError{Ref: ref, Err: fmt.Errorf("malformed data URI")}
	}
	meta, body := payload[5:idx], payload[idx+1:]
	var data []byte
	var err error
	if strings.HasSuffix(meta, ";base64") {
		data, err = base64.StdEncoding.DecodeString(body)
	} else {
		data = []byte(body)
	}
	if err != nil {
		return nil, &ResolutionError{Ref: ref, Err: fmt.Errorf("bad base64 in data URI: %v", err)}
	}
	format := woff.Sniff(data)
	if format == woff.Unknown {
		return nil, &ResolutionError{Ref: ref, Err: fmt.Errorf("data URI does not contain a recognized font")}
	}
	return &ResolvedFont{
		Ref:    ref,
		Binary: data,
		Format: format,
		From:   FromDirect,
	}, nil
}
