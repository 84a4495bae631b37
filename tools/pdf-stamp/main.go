// seehuhn.de/go/stamp - place text and images on PDF pages
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
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

// Pdf-stamp places text, dates, images and signatures on the pages of a
// PDF file.
//
// Annotations can be given on the command line:
//
//	pdf-stamp -p 2 -at 350,650 -text "Aprobado" -date -o out.pdf in.pdf
//
// With -i, an interactive shell is started instead, where annotations can
// be placed, moved and resized before the document is saved.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/stamp/annotation"
	"seehuhn.de/go/stamp/config"
	"seehuhn.de/go/stamp/editor"
	"seehuhn.de/go/stamp/export"
	"seehuhn.de/go/stamp/logging"
	"seehuhn.de/go/stamp/pdfdoc"
	"seehuhn.de/go/stamp/raster"
	"seehuhn.de/go/stamp/shell"
	"seehuhn.de/go/stamp/tools/internal/buildinfo"
	"seehuhn.de/go/stamp/tools/internal/profile"
)

// placement is one annotation requested on the command line.
type placement struct {
	kind  string // "text", "date", "image" or "signature"
	value string // text, or image file name
}

type placements []placement

func (p *placements) add(kind string) func(string) error {
	return func(s string) error {
		if s == "" {
			return errors.New("empty value")
		}
		*p = append(*p, placement{kind: kind, value: s})
		return nil
	}
}

var (
	out         = flag.String("o", "", "output file name (default: <input>-stamped.pdf)")
	force       = flag.Bool("f", false, "overwrite the output file if it exists")
	configFile  = flag.String("config", config.DefaultPath(), "configuration file")
	writeConfig = flag.Bool("write-config", false, "write the current configuration and exit")
	interactive = flag.Bool("i", false, "start the interactive shell")
	pageNo      = flag.Int("p", 1, "page for the annotations given on the command line")
	at          = flag.String("at", "", "position `x,y` of the first annotation, in points from the top-left corner")
	date        = flag.Bool("date", false, "add the current date")
	dateFormat  = flag.String("date-format", "", "date format name (default from configuration)")
	all         = flag.Bool("all", false, "repeat the annotations on every page")
	workers     = flag.Int("workers", 0, "number of pages processed in parallel (default from configuration)")
	verbose     = flag.Bool("v", false, "show progress information")
	version     = flag.Bool("version", false, "print version information and exit")
	cpuprofile  = flag.String("cpuprofile", "", "write cpu profile to `file`")
	memprofile  = flag.String("memprofile", "", "write memory profile to `file`")
)

func main() {
	var items placements
	flag.Func("text", "add a text annotation (repeatable)", items.add("text"))
	flag.Func("image", "add an image from `file` (repeatable)", items.add("image"))
	flag.Func("signature", "add a signature image from `file` (repeatable)", items.add("signature"))
	flag.Parse()

	if *version {
		fmt.Println(buildinfo.Read().String("pdf-stamp"))
		return
	}

	err := run(items)
	if err != nil {
		log.Fatal(err)
	}
}

func run(items placements) error {
	cfg, err := config.LoadOrDefault(*configFile)
	if err != nil {
		return err
	}
	if *writeConfig {
		return cfg.Save(*configFile)
	}

	level := cfg.LogLevel()
	if *verbose {
		level = slog.LevelInfo
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if flag.NArg() != 1 {
		flag.Usage()
		return errors.New("expected exactly one input file")
	}
	inName := flag.Arg(0)
	outName := *out
	if outName == "" {
		outName = strings.TrimSuffix(inName, filepath.Ext(inName)) + "-stamped.pdf"
	}
	if !*force {
		if _, err := os.Stat(outName); !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("output file %q already exists", outName)
		}
	}

	stop, err := profile.Start(*cpuprofile, *memprofile)
	if err != nil {
		return err
	}
	defer func() {
		if err := stop(); err != nil {
			logging.Logger().Error("profiling failed", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	doc, err := pdfdoc.Open(inName, &pdfdoc.Options{ReadPassword: passwordPrompt(inName)})
	if err != nil {
		return err
	}
	defer doc.Close()

	ed := editor.New(doc.NumPages(), &editor.Options{
		Viewport:   cfg.Viewport(),
		Font:       cfg.FontSpec(),
		Locale:     cfg.Locale(),
		DateFormat: cfg.Date.Format,
	})
	if *dateFormat != "" {
		if err := ed.SetDateFormat(*dateFormat); err != nil {
			return err
		}
	}

	exportOpt := export.Options{
		Workers: cfg.Export.Workers,
		Overlay: cfg.OverlayOptions(),
	}
	if *workers > 0 {
		exportOpt.Workers = *workers
	}

	if *interactive {
		sh, err := shell.New(ed, doc, shell.Config{
			HistoryFile: cfg.Shell.HistoryFile,
			Output:      outName,
			Export:      exportOpt,
		})
		if err != nil {
			return err
		}
		return sh.Run(ctx)
	}

	if *date {
		items = append(items, placement{kind: "date"})
	}
	if len(items) == 0 {
		return errors.New("no annotations given, use -text, -date, -image, -signature or -i")
	}
	pages := []int{*pageNo - 1}
	if *all {
		pages = pages[:0]
		for i := 0; i < doc.NumPages(); i++ {
			pages = append(pages, i)
		}
	}
	for _, page := range pages {
		if err := ed.SetPage(page); err != nil {
			return err
		}
		if err := place(ed, items); err != nil {
			return err
		}
	}

	res, err := ed.SaveFile(ctx, doc, outName, &editor.SaveOptions{Export: exportOpt})
	if err != nil {
		return err
	}
	logging.Logger().Info("document written",
		"file", outName, "pages", res.Pages, "annotations", res.Drawn)
	if res.Fallbacks > 0 || res.Skipped > 0 {
		fmt.Fprintf(os.Stderr, "%d annotations used the fallback font, %d were skipped\n",
			res.Fallbacks, res.Skipped)
	}
	return nil
}

// place adds the annotations to the active page.  They are stacked
// vertically, starting at the position given by -at.
func place(ed *editor.Session, items placements) error {
	pos := annotation.DefaultPos
	if *at != "" {
		var err error
		pos, err = parsePos(*at)
		if err != nil {
			return err
		}
	}

	for _, item := range items {
		var a annotation.Annotation
		var err error
		switch item.kind {
		case "text":
			a, err = ed.AddText(item.value)
		case "date":
			a, err = ed.AddDate(time.Now())
		default:
			var r *annotation.Raster
			r, err = raster.Open(item.value)
			if err != nil {
				return err
			}
			if item.kind == "image" {
				a, err = ed.AddImage(r)
			} else {
				a, err = ed.AddSignature(r)
			}
		}
		if err != nil {
			return err
		}

		p := pos
		a, err = ed.Store().Update(a.ID, func(a *annotation.Annotation) {
			a.Pos = p
		})
		if err != nil {
			return err
		}
		pos.Y += a.Height + 6
	}
	return nil
}

func parsePos(s string) (vec.Vec2, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return vec.Vec2{}, fmt.Errorf("invalid position %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return vec.Vec2{}, fmt.Errorf("invalid position %q", s)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return vec.Vec2{}, fmt.Errorf("invalid position %q", s)
	}
	return vec.Vec2{X: x, Y: y}, nil
}

// passwordPrompt asks for the password of an encrypted file on the
// terminal.  If stdin is not a terminal, decryption is not attempted.
func passwordPrompt(fname string) func(try int) string {
	fd := int(os.Stdin.Fd())
	return func(try int) string {
		if !term.IsTerminal(fd) || try > 3 {
			return ""
		}
		if try > 0 {
			fmt.Fprintln(os.Stderr, "wrong password")
		}
		fmt.Fprintf(os.Stderr, "password for %s: ", fname)
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return ""
		}
		return string(pw)
	}
}
