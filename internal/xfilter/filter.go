// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xfilter implements a small multi-dimensional filtering and
// grouping index in the style of crossfilter.
//
// A Filter holds a fixed set of records. Each Dimension extracts a
// Key from every record and keeps the records sorted by that key, so
// that range and exact filters can be applied by bisection. A record
// is included if no dimension currently filters it out. Groups
// partition the included records by key and maintain a reduced value
// per key incrementally: when a filter changes, only the records
// whose inclusion flipped are added to or removed from each live
// group.
//
// Filters are not safe for concurrent use.
package xfilter

import "sort"

// A Filter is a set of records and the dimensions and groups over
// them.
type Filter[T any] struct {
	records []T

	// excluded[i] is the number of dimensions currently
	// filtering out record i.
	excluded []int32

	dims      []*Dimension[T]
	listeners map[int]listener
	nextID    int
}

// A listener is notified when the set of included records changes.
type listener interface {
	update(added, removed []int)
}

// New returns a Filter over records. The slice is retained, not
// copied.
func New[T any](records []T) *Filter[T] {
	return &Filter[T]{
		records:   records,
		excluded:  make([]int32, len(records)),
		listeners: make(map[int]listener),
	}
}

// Len returns the total number of records, included or not.
func (f *Filter[T]) Len() int {
	return len(f.records)
}

// Record returns record i.
func (f *Filter[T]) Record(i int) T {
	return f.records[i]
}

// Included reports whether record i passes every dimension's filter.
func (f *Filter[T]) Included(i int) bool {
	return f.excluded[i] == 0
}

// NumIncluded returns the number of records that pass every filter.
func (f *Filter[T]) NumIncluded() int {
	n := 0
	for _, x := range f.excluded {
		if x == 0 {
			n++
		}
	}
	return n
}

func (f *Filter[T]) register(l listener) int {
	id := f.nextID
	f.nextID++
	f.listeners[id] = l
	return id
}

func (f *Filter[T]) unregister(id int) {
	delete(f.listeners, id)
}

func (f *Filter[T]) notify(added, removed []int) {
	if len(added) == 0 && len(removed) == 0 {
		return
	}
	ids := make([]int, 0, len(f.listeners))
	for id := range f.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		f.listeners[id].update(added, removed)
	}
}

// A Dimension indexes the records of a Filter by a Key.
type Dimension[T any] struct {
	f *Filter[T]

	keys   []Key // keys[i] is the key of record i
	order  []int // record indexes sorted by key
	sorted []Key // sorted[j] == keys[order[j]]

	// out[i] is true if this dimension filters out record i. out
	// is nil if this dimension has no filter.
	out []bool
}

// NewDimension adds a dimension to f that indexes each record by
// value(record). value is called exactly once per record.
func (f *Filter[T]) NewDimension(value func(T) Key) *Dimension[T] {
	n := len(f.records)
	d := &Dimension[T]{
		f:      f,
		keys:   make([]Key, n),
		order:  make([]int, n),
		sorted: make([]Key, n),
	}
	for i, rec := range f.records {
		d.keys[i] = value(rec)
		d.order[i] = i
	}
	sort.SliceStable(d.order, func(a, b int) bool {
		return Compare(d.keys[d.order[a]], d.keys[d.order[b]]) < 0
	})
	for j, i := range d.order {
		d.sorted[j] = d.keys[i]
	}
	f.dims = append(f.dims, d)
	return d
}

// Key returns the key of record i in d.
func (d *Dimension[T]) Key(i int) Key {
	return d.keys[i]
}

// Filtered reports whether d currently has a filter applied.
func (d *Dimension[T]) Filtered() bool {
	return d.out != nil
}

// FilterExact restricts d to records whose key is equal to k.
func (d *Dimension[T]) FilterExact(k Key) {
	d.filterSpan(BisectLeft(d.sorted, k), BisectRight(d.sorted, k))
}

// FilterRange restricts d to records whose key is in [lo, hi).
func (d *Dimension[T]) FilterRange(lo, hi Key) {
	j0, j1 := BisectLeft(d.sorted, lo), BisectLeft(d.sorted, hi)
	if j1 < j0 {
		j1 = j0
	}
	d.filterSpan(j0, j1)
}

// filterSpan restricts d to the records order[j0:j1].
func (d *Dimension[T]) filterSpan(j0, j1 int) {
	out := make([]bool, len(d.keys))
	for i := range out {
		out[i] = true
	}
	for _, i := range d.order[j0:j1] {
		out[i] = false
	}
	d.setOut(out)
}

// FilterFunc restricts d to records whose key satisfies pred. pred is
// called once per record.
func (d *Dimension[T]) FilterFunc(pred func(Key) bool) {
	out := make([]bool, len(d.keys))
	for i, k := range d.keys {
		out[i] = !pred(k)
	}
	d.setOut(out)
}

// FilterAll clears d's filter.
func (d *Dimension[T]) FilterAll() {
	d.setOut(nil)
}

func (d *Dimension[T]) setOut(out []bool) {
	f := d.f
	var added, removed []int
	for i := range d.keys {
		was := d.out != nil && d.out[i]
		now := out != nil && out[i]
		if was == now {
			continue
		}
		if now {
			f.excluded[i]++
			if f.excluded[i] == 1 {
				removed = append(removed, i)
			}
		} else {
			f.excluded[i]--
			if f.excluded[i] == 0 {
				added = append(added, i)
			}
		}
	}
	d.out = out
	f.notify(added, removed)
}
