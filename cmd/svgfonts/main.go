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

// Command svgfonts embeds fonts into SVG documents.
//
// Usage:
//
//	svgfonts <command> [options] <args>
//
// Commands:
//
//	embed    Embed the referenced fonts into an SVG file
//	list     Show the font references of an SVG file
//	version  Show version information
//	help     Show help message
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"seehuhn.de/go/svgfonts"
	"seehuhn.de/go/svgfonts/config"
	"seehuhn.de/go/svgfonts/resolver"
	"seehuhn.de/go/svgfonts/woff"
)

// These variables are set at build time using ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/svgfonts
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "embed":
		embedCommand(os.Args[2:])
	case "list":
		listCommand(os.Args[2:])
	case "version":
		fmt.Printf("svgfonts version %s\n", version)
		fmt.Printf("build time: %s\n", buildTime)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Printf("svgfonts - embed fonts into SVG documents\n\n")
	fmt.Printf("Usage: %s <command> [options] <file.svg>\n\n", os.Args[0])
	fmt.Println("Commands:")
	fmt.Println("  embed    Embed the referenced fonts into an SVG file")
	fmt.Println("  list     Show the font references of an SVG file")
	fmt.Println("  version  Show version information")
	fmt.Println("  help     Show this help message")
	fmt.Println("")
	fmt.Printf("Use '%s <command> -h' for command-specific help\n", os.Args[0])
}

// commonFlags are the flags shared between embed and list.
type commonFlags struct {
	source     string
	cacheDir   string
	timeout    time.Duration
	maxConc    int
	configPath string
}

func (c *commonFlags) register(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&c.source, "source", cfg.Source,
		"font source: auto, google, fontget or local")
	fs.StringVar(&c.cacheDir, "cache-dir", cfg.CacheDir,
		"directory for the font cache (empty disables caching)")
	fs.DurationVar(&c.timeout, "timeout", time.Duration(cfg.Timeout),
		"time limit for the whole run (0 = no limit)")
	fs.IntVar(&c.maxConc, "max-concurrent", cfg.MaxConcurrent,
		"number of fonts fetched in parallel")
	fs.StringVar(&c.configPath, "config", "",
		"configuration file (ignored for other flags already given)")
}

func (c *commonFlags) options(cfg *config.Config) (*svgfonts.Options, error) {
	source, err := resolver.ParseSource(c.source)
	if err != nil {
		return nil, err
	}
	opts := &svgfonts.Options{
		Source:        source,
		MaxConcurrent: c.maxConc,
		Timeout:       c.timeout,
		CacheDir:      c.cacheDir,
		CacheTTL:      time.Duration(cfg.CacheTTL),
		FontDirs:      cfg.FontDirs,
		GoogleURL:     cfg.GoogleURL,
		FontGetURL:    cfg.FontGetURL,
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		opts.Log = slog.New(slog.NewTextHandler(os.Stderr,
			&slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	return opts, nil
}

// loadConfig reads the configuration file, if one is given.
func loadConfig(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func embedCommand(args []string) {
	fs := flag.NewFlagSet("embed", flag.ExitOnError)

	cfg := config.Default()
	var common commonFlags
	common.register(fs, cfg)
	useWOFF2 := fs.Bool("woff2", true, "embed fonts as WOFF2")
	useWOFF := fs.Bool("woff", false, "embed fonts as WOFF instead of WOFF2")
	doSubset := fs.Bool("subset", true, "subset fonts to the glyphs used")
	full := fs.Bool("full", false, "embed complete fonts (same as -subset=false)")
	strict := fs.Bool("strict", false, "abort on the first font which cannot be embedded")
	output := fs.String("o", "", "output file (default: overwrite the input)")

	fs.Usage = func() {
		fmt.Printf("Usage: %s embed [options] <file.svg>\n\n", os.Args[0])
		fmt.Println("Embed the referenced fonts into an SVG file.")
		fmt.Println("")
		fmt.Println("Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	if common.configPath != "" {
		cfg = loadConfig(common.configPath)
	}
	opts, err := common.options(cfg)
	if err != nil {
		fatal(err)
	}
	opts.Strict = *strict
	opts.Subset = *doSubset && !*full
	switch {
	case *useWOFF:
		opts.Target = woff.WOFF
	case *useWOFF2:
		opts.Target = woff.WOFF2
	}

	inPath := fs.Arg(0)
	outPath := *output
	if outPath == "" {
		outPath = inPath
	}

	doc, err := svgfonts.ReadFile(inPath)
	if err != nil {
		fatal(err)
	}
	res, err := svgfonts.Embed(context.Background(), doc, opts)
	if err != nil {
		var tErr *svgfonts.TimeoutError
		if errors.As(err, &tErr) {
			fatal(fmt.Errorf("timed out: %w", err))
		}
		fatal(err)
	}
	if err := doc.WriteFile(outPath); err != nil {
		fatal(err)
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	fmt.Printf("%s: %d font(s) embedded", outPath, res.EmbeddedCount)
	if len(res.Skipped) > 0 {
		fmt.Printf(", %d skipped", len(res.Skipped))
	}
	fmt.Println()
}

func listCommand(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)

	cfg := config.Default()
	var common commonFlags
	common.register(fs, cfg)

	fs.Usage = func() {
		fmt.Printf("Usage: %s list [options] <file.svg>\n\n", os.Args[0])
		fmt.Println("Show the font references of an SVG file, with resolution status.")
		fmt.Println("")
		fmt.Println("Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	if common.configPath != "" {
		cfg = loadConfig(common.configPath)
	}
	opts, err := common.options(cfg)
	if err != nil {
		fatal(err)
	}

	doc, err := svgfonts.ReadFile(fs.Arg(0))
	if err != nil {
		fatal(err)
	}
	infos, err := svgfonts.List(context.Background(), doc, opts)
	if err != nil {
		fatal(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "FAMILY\tSTYLE\tWEIGHT\tGLYPHS\tFORMAT\tSIZE\tSTATUS")
	for _, info := range infos {
		status := info.Status
		if info.Embedded {
			status = "embedded"
		}
		size := ""
		if info.Size > 0 {
			size = fmt.Sprintf("%d", info.Size)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			info.Ref.Family, info.Ref.Style, info.Ref.Weight,
			info.Glyphs, info.Format, size, status)
	}
	w.Flush()
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
