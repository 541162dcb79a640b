// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xfilter

import "sort"

// A Reducer maintains a value per group as records enter and leave
// the group. Remove must undo Add.
type Reducer[T, V any] struct {
	Init   func() V
	Add    func(V, T) V
	Remove func(V, T) V
}

// ReduceCount returns a Reducer that counts records.
func ReduceCount[T any]() Reducer[T, int] {
	return Reducer[T, int]{
		Init:   func() int { return 0 },
		Add:    func(n int, _ T) int { return n + 1 },
		Remove: func(n int, _ T) int { return n - 1 },
	}
}

// An Entry is one key of a Group and its reduced value.
type Entry[V any] struct {
	Key   Key
	Value V
}

// A Group partitions the included records of a Filter by key and
// reduces each partition. A Group stays registered with its Filter,
// and is updated on every filter change, until it is disposed.
type Group[T, V any] struct {
	f       *Filter[T]
	id      int
	r       Reducer[T, V]
	keyOf   []Key
	entries map[Key]*groupEntry[V]
}

type groupEntry[V any] struct {
	key   Key
	value V
	n     int
}

// NewGroup groups the records of d's Filter by key(d.Key(i)). If key
// is nil, records are grouped by their dimension key.
func NewGroup[T, V any](d *Dimension[T], key func(Key) Key, r Reducer[T, V]) *Group[T, V] {
	keyOf := make([]Key, len(d.keys))
	for i, k := range d.keys {
		if key != nil {
			k = key(k)
		}
		keyOf[i] = normalKey(k)
	}
	return newGroup(d.f, keyOf, r)
}

// GroupBy groups the records of f by key(i) for each record index i.
func GroupBy[T, V any](f *Filter[T], key func(i int) Key, r Reducer[T, V]) *Group[T, V] {
	keyOf := make([]Key, len(f.records))
	for i := range keyOf {
		keyOf[i] = normalKey(key(i))
	}
	return newGroup(f, keyOf, r)
}

// GroupAll reduces all included records of f into a single group
// with a nil key.
func GroupAll[T, V any](f *Filter[T], r Reducer[T, V]) *Group[T, V] {
	return newGroup(f, make([]Key, len(f.records)), r)
}

func newGroup[T, V any](f *Filter[T], keyOf []Key, r Reducer[T, V]) *Group[T, V] {
	g := &Group[T, V]{
		f:       f,
		r:       r,
		keyOf:   keyOf,
		entries: make(map[Key]*groupEntry[V]),
	}
	for i := range f.records {
		if f.excluded[i] == 0 {
			g.add(i)
		}
	}
	g.id = f.register(g)
	return g
}

func (g *Group[T, V]) add(i int) {
	k := g.keyOf[i]
	ck := Canonical(k)
	e := g.entries[ck]
	if e == nil {
		e = &groupEntry[V]{key: k, value: g.r.Init()}
		g.entries[ck] = e
	}
	e.value = g.r.Add(e.value, g.f.records[i])
	e.n++
}

func (g *Group[T, V]) remove(i int) {
	e := g.entries[Canonical(g.keyOf[i])]
	if e == nil || e.n == 0 {
		panic("xfilter: removing record that is not in its group")
	}
	e.value = g.r.Remove(e.value, g.f.records[i])
	e.n--
}

func (g *Group[T, V]) update(added, removed []int) {
	for _, i := range removed {
		g.remove(i)
	}
	for _, i := range added {
		g.add(i)
	}
}

func (g *Group[T, V]) check() {
	if g.entries == nil {
		panic("xfilter: use of disposed group")
	}
}

// All returns the keys that currently have at least one included
// record, with their reduced values, in ascending key order.
func (g *Group[T, V]) All() []Entry[V] {
	g.check()
	out := make([]Entry[V], 0, len(g.entries))
	for _, e := range g.entries {
		if e.n > 0 {
			out = append(out, Entry[V]{e.key, e.value})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return Compare(out[i].Key, out[j].Key) < 0
	})
	return out
}

// Size returns the number of keys that currently have at least one
// included record.
func (g *Group[T, V]) Size() int {
	g.check()
	n := 0
	for _, e := range g.entries {
		if e.n > 0 {
			n++
		}
	}
	return n
}

// Value returns the reduced value of the nil key. This is the only
// key of a group created by GroupAll. If no records are included, it
// returns a freshly initialized value.
func (g *Group[T, V]) Value() V {
	g.check()
	if e := g.entries[nil]; e != nil && e.n > 0 {
		return e.value
	}
	return g.r.Init()
}

// Dispose unregisters g from its Filter and releases its values. g
// must not be used after Dispose. Dispose is idempotent.
func (g *Group[T, V]) Dispose() {
	if g.entries == nil {
		return
	}
	g.f.unregister(g.id)
	g.entries = nil
	g.keyOf = nil
}
