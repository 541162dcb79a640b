// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"fmt"
	"sort"

	"github.com/aclements/go-measure/internal/xfilter"
	"github.com/maruel/natural"
)

// A Series is the row-by-column arrangement of a grouping by both a
// row and a column dimension.
type Series struct {
	// RowKeys and ColKeys are the members of the row and column
	// dimensions, in display order. Composite members are
	// []string.
	RowKeys, ColKeys []interface{}

	// Cells[i][j] is the entry for RowKeys[i] and ColKeys[j], or
	// nil if no record has that combination.
	Cells [][]*Entry
}

// seriesMembers returns the members of d in series order: natural
// order if any of them is a string and key order otherwise. It also
// returns each member's key as a string in the form it takes within a
// joined key, and a map from each member's canonical key to its
// position.
func (s *Store) seriesMembers(d Dim) (keys []interface{}, strs []string, pos map[interface{}]int, err error) {
	keys, dim, err := s.memberKeys(d)
	if err != nil {
		return nil, nil, nil, err
	}
	strs = make([]string, len(keys))
	for i, k := range keys {
		strs[i] = keyString(k)
	}
	for _, k := range keys {
		if _, ok := k.(string); ok {
			// Stable keeps nil ahead of "".
			sort.Stable(naturalOrder{keys, strs})
			break
		}
	}
	pos = make(map[interface{}]int, len(keys))
	for i, k := range keys {
		pos[xfilter.Canonical(k)] = i
	}
	if dim.Composite() {
		for i, k := range keys {
			keys[i] = SplitKey(k.(string))
		}
	}
	return keys, strs, pos, nil
}

type naturalOrder struct {
	keys []interface{}
	strs []string
}

func (o naturalOrder) Len() int           { return len(o.keys) }
func (o naturalOrder) Less(i, j int) bool { return natural.Less(o.strs[i], o.strs[j]) }
func (o naturalOrder) Swap(i, j int) {
	o.keys[i], o.keys[j] = o.keys[j], o.keys[i]
	o.strs[i], o.strs[j] = o.strs[j], o.strs[i]
}

// A cellKey groups records by their canonical row and column keys.
type cellKey struct {
	row, col interface{}
}

func (s *Store) series(rows, cols Dim) (*Series, error) {
	if len(rows) == 0 || len(cols) == 0 {
		return nil, fmt.Errorf("series requires row and column dimensions")
	}
	rowKeys, rowStrs, rowPos, err := s.seriesMembers(rows)
	if err != nil {
		return nil, err
	}
	colKeys, colStrs, colPos, err := s.seriesMembers(cols)
	if err != nil {
		return nil, err
	}
	rowDim, err := s.Dimension(rows)
	if err != nil {
		return nil, err
	}
	colDim, err := s.Dimension(cols)
	if err != nil {
		return nil, err
	}

	key := func(i int) xfilter.Key {
		return cellKey{xfilter.Canonical(rowDim.x.Key(i)), xfilter.Canonical(colDim.x.Key(i))}
	}
	g := &Group{s, xfilter.GroupBy(s.xf, key, s.reducer())}
	defer g.Dispose()

	cells := make([][]*Entry, len(rowKeys))
	for i := range cells {
		cells[i] = make([]*Entry, len(colKeys))
	}
	for _, e := range g.All() {
		ck := e.Key.(cellKey)
		r, ok1 := rowPos[ck.row]
		c, ok2 := colPos[ck.col]
		if !ok1 || !ok2 {
			panic(fmt.Sprintf("measure: series cell %v is not a member of the row and column dimensions", ck))
		}
		cells[r][c] = &Entry{rowStrs[r] + Delimiter + colStrs[c], e.Aggs}
	}
	return &Series{rowKeys, colKeys, cells}, nil
}

// SelectSeries returns a matrix of rows indexed by the members of the
// row dimension and then the members of the column dimension.
// Members are in natural order if any of them is a string and key order
// otherwise. A combination that has no records is a nil Row.
func (s *Store) SelectSeries(rows, cols Dim) ([][]*Row, error) {
	ser, err := s.series(rows, cols)
	if err != nil {
		return nil, err
	}
	out := make([][]*Row, len(ser.Cells))
	for i, cells := range ser.Cells {
		out[i] = make([]*Row, len(cells))
		for j, e := range cells {
			if e != nil {
				out[i][j] = s.row(*e)
			}
		}
	}
	return out, nil
}

// SelectSeriesArray is like SelectSeries, but returns agg of column
// measure for each cell. Cells with no records are nil, not zero.
func (s *Store) SelectSeriesArray(rows, cols Dim, measure string, agg Aggregate) ([][]interface{}, error) {
	index, err := s.measureIndex(measure)
	if err != nil {
		return nil, err
	}
	if err := s.checkAggregate(index, agg); err != nil {
		return nil, err
	}
	ser, err := s.series(rows, cols)
	if err != nil {
		return nil, err
	}
	out := make([][]interface{}, len(ser.Cells))
	for i, cells := range ser.Cells {
		if out[i], err = s.array(cells, index, agg); err != nil {
			return nil, err
		}
	}
	return out, nil
}
