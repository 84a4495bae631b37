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

// Package dates formats calendar dates for date annotations.
//
// The formatted string becomes the content of a text annotation; the date
// itself is not stored.
package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Format is a named date format.  The pattern uses strftime conversions.
type Format struct {
	Name    string
	Pattern string
}

// Formats lists the available date formats, in the order in which they are
// offered to the user.
var Formats = []Format{
	{"dd/mm/yyyy", "%d/%m/%Y"},
	{"mm/dd/yyyy", "%m/%d/%Y"},
	{"yyyy-mm-dd", "%Y-%m-%d"},
	{"dd-mm-yyyy", "%d-%m-%Y"},
	{"dd de Mes de yyyy", "%d de %B de %Y"},
	{"Día, dd de Mes de yyyy", "%A, %d de %B de %Y"},
	{"dd/mm/yy", "%d/%m/%y"},
	{"Mes dd, yyyy", "%B %d, %Y"},
	{"dd.mm.yyyy", "%d.%m.%Y"},
	{"yyyy/mm/dd", "%Y/%m/%d"},
}

// DefaultFormat is the name of the format which is preselected.
const DefaultFormat = "dd/mm/yyyy"

// ErrUnknownFormat is returned for format names not listed in [Formats].
var ErrUnknownFormat = errors.New("unknown date format")

// Lookup returns the format with the given name.
func Lookup(name string) (Format, bool) {
	for _, f := range Formats {
		if f.Name == name {
			return f, true
		}
	}
	return Format{}, false
}

// names holds the month and weekday names of one language.
type names struct {
	months   [12]string
	weekdays [7]string // starting with Sunday
}

var spanish = &names{
	months: [12]string{"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"},
	weekdays: [7]string{"domingo", "lunes", "martes", "miércoles", "jueves",
		"viernes", "sábado"},
}

var english = &names{
	months: [12]string{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
	weekdays: [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday",
		"Friday", "Saturday"},
}

// The first entry is used when nothing matches.
var (
	supported = []language.Tag{language.Spanish, language.English}
	localised = []*names{spanish, english}
	matcher   = language.NewMatcher(supported)
)

// Locale selects the month and weekday names used for dates.
type Locale struct {
	Tag   language.Tag
	names *names
}

// NewLocale returns the best supported locale for the given language
// preferences, for example "es-MX" or "en-GB, en;q=0.8".
// Spanish is used if none of the preferences is supported.
func NewLocale(prefs ...string) Locale {
	_, idx := language.MatchStrings(matcher, prefs...)
	return Locale{Tag: supported[idx], names: localised[idx]}
}

// Format renders t using the named format.
func (l Locale) Format(t time.Time, name string) (string, error) {
	f, ok := Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return l.Strftime(f.Pattern, t), nil
}

// Strftime formats t according to a strftime pattern.
// The conversions %d, %m, %Y, %y, %B, %b, %A, %a and %% are supported;
// all other conversions are copied to the output unchanged.
func (l Locale) Strftime(pattern string, t time.Time) string {
	n := l.names
	if n == nil {
		n = localised[0]
	}

	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' || i+1 == len(pattern) {
			b.WriteByte(c)
			continue
		}
		i++
		switch pattern[i] {
		case 'd':
			fmt.Fprintf(&b, "%02d", t.Day())
		case 'm':
			fmt.Fprintf(&b, "%02d", int(t.Month()))
		case 'Y':
			fmt.Fprintf(&b, "%04d", t.Year())
		case 'y':
			fmt.Fprintf(&b, "%02d", t.Year()%100)
		case 'B':
			b.WriteString(n.months[t.Month()-1])
		case 'b':
			b.WriteString(abbrev(n.months[t.Month()-1]))
		case 'A':
			b.WriteString(n.weekdays[t.Weekday()])
		case 'a':
			b.WriteString(abbrev(n.weekdays[t.Weekday()]))
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(pattern[i])
		}
	}
	return b.String()
}

func abbrev(s string) string {
	r := []rune(s)
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r)
}
