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

package shell

import (
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"seehuhn.de/go/stamp/dates"
	"seehuhn.de/go/stamp/fonts"
)

var commands = []string{
	"help", "quit", "exit",
	"page", "first", "last", "next", "prev", "zoom",
	"text", "date", "formats", "image", "sign",
	"list", "select", "edit", "delete",
	"size", "font", "color",
	"press", "move", "release",
	"save",
}

// Completer completes command names and the arguments of some commands.
type Completer struct {
	args map[string][]string
}

var _ readline.AutoCompleter = (*Completer)(nil)

// NewCompleter returns a completer for the shell commands.
func NewCompleter() *Completer {
	formats := make([]string, len(dates.Formats))
	for i, f := range dates.Formats {
		formats[i] = f.Name
	}
	return &Completer{
		args: map[string][]string{
			"zoom": {"in", "out", "reset"},
			"font": fonts.Families(),
			"date": formats,
		},
	}
}

// Do implements readline.AutoCompleter.
// It returns the candidate suffixes for the word under the cursor,
// together with the length of the part already typed.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	if pos > len(line) {
		pos = len(line)
	}
	if pos < 0 {
		return nil, 0
	}
	s := string(line[:pos])

	start := findWordStart(s)
	word := s[start:]
	before := strings.Fields(s[:start])

	var candidates []string
	switch len(before) {
	case 0:
		candidates = commands
	default:
		cands, ok := c.args[before[0]]
		if !ok {
			return nil, 0
		}
		// Arguments such as date format names may contain spaces, so the
		// whole argument typed so far is matched.
		word = strings.TrimLeft(s[len(before[0]):], " \t")
		candidates = cands
	}

	var res [][]rune
	for _, cand := range candidates {
		if strings.HasPrefix(cand, word) && cand != word {
			res = append(res, []rune(cand[len(word):]))
		}
	}
	sort.Slice(res, func(i, j int) bool { return string(res[i]) < string(res[j]) })
	return res, len([]rune(word))
}

// findWordStart returns the index after the last space or tab in s.
func findWordStart(s string) int {
	return strings.LastIndexAny(s, " \t") + 1
}
