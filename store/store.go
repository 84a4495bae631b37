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

// Package store keeps the annotations of a multi-page document.
//
// The store owns all annotations.  Callers only ever see copies, and all
// changes go through the methods of [Store].  At most one annotation in the
// whole document is selected at any time.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"seehuhn.de/go/stamp/annotation"
)

var (
	// ErrNotFound indicates that no annotation with the given id exists.
	ErrNotFound = errors.New("annotation not found")

	// ErrDuplicateID indicates that an annotation with the same id has
	// already been added.
	ErrDuplicateID = errors.New("duplicate annotation id")

	// ErrPageRange indicates a page index outside the document.
	ErrPageRange = errors.New("page index out of range")
)

// Store holds the annotations of a document with a fixed number of pages.
// A Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	numPages int

	// items holds the annotations in insertion order.  Removed entries are
	// compacted away, so index values in byID must be refreshed after
	// removal.
	items    []annotation.Annotation
	byID     map[string]int
	selected string
}

// New returns an empty store for a document with numPages pages.
func New(numPages int) *Store {
	if numPages < 0 {
		numPages = 0
	}
	return &Store{
		numPages: numPages,
		byID:     make(map[string]int),
	}
}

// NumPages returns the number of pages of the document.
func (s *Store) NumPages() int {
	return s.numPages
}

// Len returns the number of annotations in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) check(a *annotation.Annotation) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.Page >= s.numPages {
		return fmt.Errorf("%w: page %d of %d", ErrPageRange, a.Page, s.numPages)
	}
	return nil
}

// Add appends a copy of a to the store.
// If a is marked as selected, it becomes the selected annotation.
func (s *Store) Add(a annotation.Annotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(&a); err != nil {
		return err
	}
	if _, exists := s.byID[a.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, a.ID)
	}
	s.byID[a.ID] = len(s.items)
	s.items = append(s.items, a)
	if a.Selected {
		s.selectLocked(a.ID)
	}
	return nil
}

// Get returns a copy of the annotation with the given id.
func (s *Store) Get(id string) (annotation.Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return annotation.Annotation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.items[idx], nil
}

// Remove deletes the annotation with the given id and returns it.
// Removing the selected annotation clears the selection.
func (s *Store) Remove(id string) (annotation.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

func (s *Store) removeLocked(id string) (annotation.Annotation, error) {
	idx, ok := s.byID[id]
	if !ok {
		return annotation.Annotation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	a := s.items[idx]
	s.items = slices.Delete(s.items, idx, idx+1)
	delete(s.byID, id)
	for i := idx; i < len(s.items); i++ {
		s.byID[s.items[i].ID] = i
	}
	if s.selected == id {
		s.selected = ""
	}
	a.Selected = false
	return a, nil
}

// RemoveSelected deletes the selected annotation.
// The boolean result is false if nothing was selected.
func (s *Store) RemoveSelected() (annotation.Annotation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == "" {
		return annotation.Annotation{}, false
	}
	a, err := s.removeLocked(s.selected)
	return a, err == nil
}

// Update applies fn to a copy of the annotation with the given id and
// stores the result.  The change is only committed if the modified
// annotation satisfies all invariants.  The id, page and selection state
// cannot be changed by fn.
func (s *Store) Update(id string, fn func(a *annotation.Annotation)) (annotation.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[id]
	if !ok {
		return annotation.Annotation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	orig := s.items[idx]
	a := orig
	fn(&a)
	a.ID = orig.ID
	a.Page = orig.Page
	a.Selected = orig.Selected
	if err := s.check(&a); err != nil {
		return orig, err
	}
	s.items[idx] = a
	return a, nil
}

// ForPage returns copies of the annotations on the given page, in the order
// in which they were added.
func (s *Store) ForPage(page int) []annotation.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []annotation.Annotation
	for _, a := range s.items {
		if a.Page == page {
			res = append(res, a)
		}
	}
	return res
}

// All returns copies of all annotations, in insertion order.
func (s *Store) All() []annotation.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Select makes the annotation with the given id the only selected one.
// If the id is unknown, an error is returned and the selection is left
// unchanged.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.selectLocked(id)
	return nil
}

func (s *Store) selectLocked(id string) {
	for i := range s.items {
		s.items[i].Selected = s.items[i].ID == id
	}
	s.selected = id
}

// DeselectAll clears the selection.
func (s *Store) DeselectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		s.items[i].Selected = false
	}
	s.selected = ""
}

// Selected returns a copy of the selected annotation, if any.
func (s *Store) Selected() (annotation.Annotation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == "" {
		return annotation.Annotation{}, false
	}
	return s.items[s.byID[s.selected]], true
}

// Snapshot returns an immutable view of the current contents of the store.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		numPages: s.numPages,
		pages:    make(map[int][]annotation.Annotation),
	}
	for _, a := range s.items {
		snap.pages[a.Page] = append(snap.pages[a.Page], a)
		snap.total++
	}
	return snap
}

// Snapshot is a frozen copy of the annotations of a document.
// Its methods may be called concurrently.
type Snapshot struct {
	numPages int
	total    int
	pages    map[int][]annotation.Annotation
}

// NumPages returns the number of pages of the document.
func (s *Snapshot) NumPages() int {
	return s.numPages
}

// Len returns the total number of annotations.
func (s *Snapshot) Len() int {
	return s.total
}

// ForPage returns copies of the annotations on the given page, in
// insertion order.
func (s *Snapshot) ForPage(page int) []annotation.Annotation {
	return slices.Clone(s.pages[page])
}
