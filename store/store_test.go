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

package store

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/stamp/annotation"
)

func newText(page int, text string) annotation.Annotation {
	return annotation.NewText(page, text, annotation.DefaultFont(), vec.Vec2{X: 60, Y: 20})
}

func ids(list []annotation.Annotation) []string {
	var res []string
	for _, a := range list {
		res = append(res, a.ID)
	}
	return res
}

func TestAddRemove(t *testing.T) {
	s := New(3)
	a := newText(0, "a")
	b := newText(1, "b")
	c := newText(0, "c")
	for _, x := range []annotation.Annotation{a, b, c} {
		if err := s.Add(x); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Add(a); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("duplicate Add: %v", err)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d", s.Len())
	}

	if d := cmp.Diff([]string{a.ID, c.ID}, ids(s.ForPage(0))); d != "" {
		t.Errorf("ForPage(0) (-want +got):\n%s", d)
	}

	got, err := s.Remove(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "a" {
		t.Errorf("Remove returned %+v", got)
	}
	if _, err := s.Remove(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove: %v", err)
	}

	// the index must still work after compaction
	if x, err := s.Get(c.ID); err != nil || x.Text != "c" {
		t.Errorf("Get(c) = %+v, %v", x, err)
	}
	if d := cmp.Diff([]string{b.ID, c.ID}, ids(s.All())); d != "" {
		t.Errorf("All() (-want +got):\n%s", d)
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	s := New(2)

	bad := newText(0, "x")
	bad.Width = 10
	if err := s.Add(bad); !errors.Is(err, annotation.ErrInvalid) {
		t.Errorf("narrow annotation: %v", err)
	}

	outside := newText(2, "x")
	if err := s.Add(outside); !errors.Is(err, ErrPageRange) {
		t.Errorf("page out of range: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("store not empty after rejected adds")
	}
}

func TestSelection(t *testing.T) {
	s := New(2)
	a := newText(0, "a")
	b := newText(1, "b")
	s.Add(a)
	s.Add(b)

	if _, ok := s.Selected(); ok {
		t.Error("new store has a selection")
	}

	if err := s.Select(a.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Select("no such id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Select(unknown) = %v", err)
	}
	sel, ok := s.Selected()
	if !ok || sel.ID != a.ID || !sel.Selected {
		t.Errorf("selection lost after rejected Select: %+v %t", sel, ok)
	}

	// selection is global, not per page
	s.Select(b.ID)
	if x, _ := s.Get(a.ID); x.Selected {
		t.Error("a still selected after selecting b")
	}

	s.DeselectAll()
	if _, ok := s.Selected(); ok {
		t.Error("selection after DeselectAll")
	}

	s.Select(b.ID)
	if _, err := s.Remove(b.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Selected(); ok {
		t.Error("removed annotation is still selected")
	}
	if _, ok := s.RemoveSelected(); ok {
		t.Error("RemoveSelected without a selection")
	}

	s.Select(a.ID)
	if x, ok := s.RemoveSelected(); !ok || x.ID != a.ID {
		t.Errorf("RemoveSelected() = %+v, %t", x, ok)
	}
}

func TestSelectionExclusive(t *testing.T) {
	s := New(4)
	var all []string
	for i := 0; i < 20; i++ {
		a := newText(i%4, fmt.Sprint(i))
		if i == 7 {
			a.Selected = true
		}
		s.Add(a)
		all = append(all, a.ID)
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		switch rng.Intn(4) {
		case 0:
			s.DeselectAll()
		case 1:
			s.Select("missing")
		default:
			s.Select(all[rng.Intn(len(all))])
		}

		n := 0
		for _, a := range s.All() {
			if a.Selected {
				n++
			}
		}
		if n > 1 {
			t.Fatalf("%d annotations selected", n)
		}
	}
}

func TestPageScoping(t *testing.T) {
	s := New(5)
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 50; i++ {
		s.Add(newText(rng.Intn(5), "x"))
	}
	total := 0
	for page := 0; page < 5; page++ {
		for _, a := range s.ForPage(page) {
			if a.Page != page {
				t.Fatalf("ForPage(%d) returned annotation for page %d", page, a.Page)
			}
			total++
		}
	}
	if total != 50 {
		t.Errorf("found %d annotations, want 50", total)
	}
	if n := len(s.ForPage(7)); n != 0 {
		t.Errorf("ForPage(7) returned %d annotations", n)
	}
}

func TestUpdate(t *testing.T) {
	s := New(2)
	a := newText(0, "a")
	s.Add(a)

	got, err := s.Update(a.ID, func(x *annotation.Annotation) {
		x.Pos = vec.Vec2{X: 5, Y: 6}
		x.Page = 1     // ignored
		x.ID = "other" // ignored
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Pos != (vec.Vec2{X: 5, Y: 6}) || got.Page != 0 || got.ID != a.ID {
		t.Errorf("Update result: %+v", got)
	}

	_, err = s.Update(a.ID, func(x *annotation.Annotation) {
		x.Pos = vec.Vec2{X: 99, Y: 99}
		x.Font.Size = 2
	})
	if !errors.Is(err, annotation.ErrInvalid) {
		t.Errorf("invalid Update: %v", err)
	}
	if x, _ := s.Get(a.ID); x.Pos != (vec.Vec2{X: 5, Y: 6}) {
		t.Errorf("rejected update was committed: %+v", x)
	}

	if _, err := s.Update("missing", func(*annotation.Annotation) {}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) = %v", err)
	}
}

func TestCopies(t *testing.T) {
	s := New(1)
	a := newText(0, "original")
	s.Add(a)

	list := s.ForPage(0)
	list[0].Text = "changed"
	if x, _ := s.Get(a.ID); x.Text != "original" {
		t.Error("ForPage exposes internal state")
	}
}

func TestSnapshot(t *testing.T) {
	s := New(3)
	a := newText(0, "a")
	b := newText(2, "b")
	s.Add(a)
	s.Add(b)

	snap := s.Snapshot()
	s.Remove(a.ID)
	s.Add(newText(0, "c"))

	if snap.NumPages() != 3 || snap.Len() != 2 {
		t.Errorf("snapshot: %d pages, %d annotations", snap.NumPages(), snap.Len())
	}
	if d := cmp.Diff([]string{a.ID}, ids(snap.ForPage(0))); d != "" {
		t.Errorf("snapshot changed (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]string{b.ID}, ids(snap.ForPage(2))); d != "" {
		t.Errorf("snapshot page 2 (-want +got):\n%s", d)
	}
}
