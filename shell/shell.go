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

// Package shell provides an interactive command line for placing
// annotations on a document.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/stamp/annotation"
	"seehuhn.de/go/stamp/dates"
	"seehuhn.de/go/stamp/editor"
	"seehuhn.de/go/stamp/export"
	"seehuhn.de/go/stamp/fonts"
	"seehuhn.de/go/stamp/pdfdoc"
	"seehuhn.de/go/stamp/raster"
	"seehuhn.de/go/stamp/signature"
)

// Config holds shell configuration.
type Config struct {
	HistoryFile string
	Output      string // default file name for "save"
	Export      export.Options

	// Now gives the date used by the "date" command.  If nil, time.Now
	// is used.
	Now func() time.Time
}

// Shell is the interactive command line.
type Shell struct {
	ed  *editor.Session
	doc *pdfdoc.Document
	cfg Config

	rl      *readline.Instance
	out     io.Writer
	confirm func(question string) bool
}

var errQuit = errors.New("quit")

// New creates a new interactive shell reading from the terminal.
func New(ed *editor.Session, doc *pdfdoc.Document, cfg Config) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt(ed),
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		AutoComplete:    NewCompleter(),
	})
	if err != nil {
		return nil, err
	}
	s := newShell(ed, doc, cfg, rl.Stdout())
	s.rl = rl
	s.confirm = s.ask
	return s, nil
}

func newShell(ed *editor.Session, doc *pdfdoc.Document, cfg Config, out io.Writer) *Shell {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Shell{
		ed:      ed,
		doc:     doc,
		cfg:     cfg,
		out:     out,
		confirm: func(string) bool { return false },
	}
}

func prompt(ed *editor.Session) string {
	return fmt.Sprintf("\033[32mstamp %d/%d %d%%>\033[0m ",
		ed.Page()+1, ed.NumPages(), int(ed.Zoom()*100+0.5))
}

// Run reads and executes commands until the user quits or ctx is
// cancelled.
func (s *Shell) Run(ctx context.Context) error {
	defer s.rl.Close()

	fmt.Fprintln(s.out, `Type "help" for a list of commands.`)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.rl.SetPrompt(prompt(s.ed))
		line, err := s.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}

		err = s.Execute(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		} else if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
	}
}

func (s *Shell) ask(question string) bool {
	s.rl.SetPrompt(question + " [y/N] ")
	line, err := s.rl.Readline()
	if err != nil {
		return false
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes" || line == "s" || line == "si" || line == "sí"
}

// Execute runs a single command line.
func (s *Shell) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch cmd {
	case "quit", "exit", "q":
		return errQuit
	case "help", "h", "?":
		s.printHelp()

	case "page":
		if len(args) == 0 {
			fmt.Fprintf(s.out, "page %d of %d\n", s.ed.Page()+1, s.ed.NumPages())
			return nil
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid page number %q", args[0])
		}
		return s.ed.SetPage(n - 1)
	case "first":
		s.ed.FirstPage()
	case "last":
		s.ed.LastPage()
	case "next", "n":
		s.ed.NextPage()
	case "prev", "p":
		s.ed.PrevPage()

	case "zoom":
		return s.zoom(args)

	case "text":
		if rest == "" {
			return errors.New("usage: text <string>")
		}
		return s.report(s.ed.AddText(rest))
	case "date":
		if rest != "" {
			if err := s.ed.SetDateFormat(rest); err != nil {
				return err
			}
		}
		return s.report(s.ed.AddDate(s.cfg.Now()))
	case "formats":
		s.printFormats()
	case "image":
		if rest == "" {
			return errors.New("usage: image <file>")
		}
		r, err := raster.Open(rest)
		if err != nil {
			return err
		}
		return s.report(s.ed.AddImage(r))
	case "sign":
		return s.sign(rest)

	case "list", "ls":
		s.list()
	case "select":
		if len(args) != 1 {
			return errors.New("usage: select <id>")
		}
		id, err := s.findID(args[0])
		if err != nil {
			return err
		}
		return s.ed.Select(id)
	case "edit":
		a, ok := s.ed.Selected()
		if !ok {
			return editor.ErrNothingSelected
		}
		return s.report(s.ed.EditText(a.ID, rest))
	case "delete", "del", "rm":
		a, err := s.ed.DeleteSelected()
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "deleted %s %s\n", a.Kind, shortID(a.ID))

	case "size":
		if len(args) != 1 {
			return errors.New("usage: size <points>")
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid font size %q", args[0])
		}
		size, err := s.ed.SetFontSize(v)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "font size %g\n", size)
	case "font":
		if rest == "" {
			fmt.Fprintf(s.out, "font %s (available: %s)\n",
				s.ed.Font().Family, strings.Join(fonts.Families(), ", "))
			return nil
		}
		return s.ed.SetFontFamily(rest)
	case "color", "colour":
		if len(args) != 1 {
			return errors.New("usage: color #rrggbb")
		}
		c, err := annotation.ParseColor(args[0])
		if err != nil {
			return err
		}
		return s.ed.SetColor(c)

	case "press":
		return s.press(args)
	case "move":
		p, err := parsePoint(args)
		if err != nil {
			return err
		}
		return s.ed.PointerMove(p)
	case "release":
		s.ed.PointerUp()

	case "save", "w":
		return s.save(ctx, rest)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (s *Shell) zoom(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "in", "+":
			s.ed.ZoomIn()
		case "out", "-":
			s.ed.ZoomOut()
		case "reset", "0":
			s.ed.ZoomReset()
		default:
			return errors.New("usage: zoom [in|out|reset]")
		}
	}
	fmt.Fprintf(s.out, "zoom %d%%\n", int(s.ed.Zoom()*100+0.5))
	return nil
}

// press simulates a pointer press at a display position.  The optional
// word "shift" locks the aspect ratio of a resize.
func (s *Shell) press(args []string) error {
	lock := false
	if len(args) == 3 && args[2] == "shift" {
		lock = true
		args = args[:2]
	}
	p, err := parsePoint(args)
	if err != nil {
		return err
	}
	act, err := s.ed.PointerDown(p, lock)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, act)
	return nil
}

func parsePoint(args []string) (vec.Vec2, error) {
	if len(args) != 2 {
		return vec.Vec2{}, errors.New("expected two coordinates")
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return vec.Vec2{}, fmt.Errorf("invalid coordinate %q", args[0])
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return vec.Vec2{}, fmt.Errorf("invalid coordinate %q", args[1])
	}
	return vec.Vec2{X: x, Y: y}, nil
}

// sign draws a signature from strokes given as canvas points, for example
// "10,40 60,20 90,45 ; 20,60 100,60".  Strokes are separated by ";".
func (s *Shell) sign(strokes string) error {
	pad := &signature.Pad{}
	for _, stroke := range strings.Split(strokes, ";") {
		for i, field := range strings.Fields(stroke) {
			xs, ys, ok := strings.Cut(field, ",")
			if !ok {
				return fmt.Errorf("invalid point %q", field)
			}
			p, err := parsePoint([]string{xs, ys})
			if err != nil {
				return err
			}
			if i == 0 {
				pad.Begin(p)
			} else {
				pad.Extend(p)
			}
		}
	}
	r, err := pad.Raster()
	if err != nil {
		return err
	}
	return s.report(s.ed.AddSignature(r))
}

func (s *Shell) save(ctx context.Context, fname string) error {
	if s.doc == nil {
		return errors.New("no document loaded")
	}
	if fname == "" {
		fname = s.cfg.Output
	}
	if fname == "" {
		return errors.New("usage: save <file>")
	}
	opt := &editor.SaveOptions{
		Export: s.cfg.Export,
		Confirm: func() bool {
			return s.confirm("No annotations were added.  Save an unchanged copy?")
		},
	}
	res, err := s.ed.SaveFile(ctx, s.doc, fname, opt)
	if errors.Is(err, editor.ErrCancelled) {
		fmt.Fprintln(s.out, "not saved")
		return nil
	} else if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "saved %s: %d pages, %d annotations", fname, res.Pages, res.Drawn)
	if res.Fallbacks > 0 {
		fmt.Fprintf(s.out, ", %d with fallback font", res.Fallbacks)
	}
	if res.Skipped > 0 {
		fmt.Fprintf(s.out, ", %d skipped", res.Skipped)
	}
	fmt.Fprintln(s.out)
	return nil
}

// report prints a one-line description of a placed or changed annotation.
func (s *Shell) report(a annotation.Annotation, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, describe(&a))
	return nil
}

func describe(a *annotation.Annotation) string {
	mark := " "
	if a.Selected {
		mark = "*"
	}
	desc := fmt.Sprintf("%s %s %-9s at (%.1f, %.1f) size %.1f×%.1f",
		mark, shortID(a.ID), a.Kind, a.Pos.X, a.Pos.Y, a.Width, a.Height)
	if a.Kind == annotation.Text {
		desc += fmt.Sprintf(" %q %s %gpt %s", a.Text, a.Font.Family, a.Font.Size, a.Font.Color)
	}
	return desc
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (s *Shell) list() {
	list := s.ed.Store().ForPage(s.ed.Page())
	if len(list) == 0 {
		fmt.Fprintln(s.out, "no annotations on this page")
		return
	}
	for i := range list {
		fmt.Fprintln(s.out, describe(&list[i]))
	}
}

// findID resolves a (possibly abbreviated) annotation id on the active
// page.
func (s *Shell) findID(prefix string) (string, error) {
	var found []string
	for _, a := range s.ed.Store().ForPage(s.ed.Page()) {
		if strings.HasPrefix(a.ID, prefix) {
			found = append(found, a.ID)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no annotation %q on this page", prefix)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("annotation id %q is ambiguous", prefix)
	}
}

func (s *Shell) printFormats() {
	now := s.cfg.Now()
	for _, f := range dates.Formats {
		mark := " "
		if f.Name == s.ed.DateFormat() {
			mark = "*"
		}
		example, _ := s.ed.Locale().Format(now, f.Name)
		fmt.Fprintf(s.out, "%s %-24s %s\n", mark, f.Name, example)
	}
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, `Pages:       page [N], first, prev, next, last, zoom [in|out|reset]
Placing:     text <string>, date [format], formats, image <file>,
             sign <x,y x,y ...; x,y ...>
Selection:   list, select <id>, edit <text>, delete
Text style:  size <points>, font [family], color #rrggbb
Pointer:     press <x> <y> [shift], move <x> <y>, release
Output:      save [file], quit
`)
}

