// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
)

// SelectTable returns a table with one row per key of d. The table
// has a column for each column of d and a column for each agg of
// column measure, named like "MEAN measure".
func (s *Store) SelectTable(d Dim, measure string, aggs ...Aggregate) (*table.Table, error) {
	index, err := s.measureIndex(measure)
	if err != nil {
		return nil, err
	}
	dim, err := s.Dimension(d)
	if err != nil {
		return nil, err
	}
	g := s.group(dim, nil)
	defer g.Dispose()
	entries := entryPtrs(g.All())

	tab := new(table.Builder)
	keys := make([]interface{}, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	addKeyColumns(tab, dim, keys)
	for _, agg := range aggs {
		vals, err := s.array(entries, index, agg)
		if err != nil {
			return nil, err
		}
		tab.Add(string(agg)+" "+measure, column(vals))
	}
	return tab.Done(), nil
}

// SeriesTable returns the SelectSeriesArray matrix of rows and cols as
// a table. The table has a column for each column of rows, followed by
// one column per member of cols. Members with the same printed name
// get distinct column names. Missing cells are NaN in numeric columns
// and nil otherwise.
func (s *Store) SeriesTable(rows, cols Dim, measure string, agg Aggregate) (*table.Table, error) {
	index, err := s.measureIndex(measure)
	if err != nil {
		return nil, err
	}
	if err := s.checkAggregate(index, agg); err != nil {
		return nil, err
	}
	rowDim, err := s.Dimension(rows)
	if err != nil {
		return nil, err
	}
	ser, err := s.series(rows, cols)
	if err != nil {
		return nil, err
	}

	tab := new(table.Builder)
	rowKeys := make([]interface{}, len(ser.RowKeys))
	for i, k := range ser.RowKeys {
		if parts, ok := k.([]string); ok {
			k = JoinKey(parts)
		}
		rowKeys[i] = k
	}
	addKeyColumns(tab, rowDim, rowKeys)

	cells := make([][]interface{}, len(ser.Cells))
	for i, row := range ser.Cells {
		if cells[i], err = s.array(row, index, agg); err != nil {
			return nil, err
		}
	}
	used := make(map[string]bool)
	for _, name := range rowDim.Columns() {
		used[name] = true
	}
	for j, k := range ser.ColKeys {
		name := keyString(k)
		if parts, ok := k.([]string); ok {
			name = strings.Join(parts, " ")
		}
		name = uniqueName(name, used)
		col := make([]interface{}, len(cells))
		for i := range cells {
			col[i] = cells[i][j]
		}
		tab.Add(name, column(col))
	}
	return tab.Done(), nil
}

// uniqueName returns name, or name with a " (n)" suffix if name is
// already used, and marks the result used.
func uniqueName(name string, used map[string]bool) string {
	out := name
	for n := 2; used[out]; n++ {
		out = fmt.Sprintf("%s (%d)", name, n)
	}
	used[out] = true
	return out
}

// addKeyColumns adds one column per column of dim holding the
// components of keys.
func addKeyColumns(tab *table.Builder, dim *Dimension, keys []interface{}) {
	if !dim.Composite() {
		tab.Add(dim.cols[0], column(keys))
		return
	}
	comps := make([][]interface{}, len(dim.cols))
	for j := range comps {
		comps[j] = make([]interface{}, len(keys))
	}
	for i, k := range keys {
		for j, part := range SplitKey(k.(string)) {
			if j < len(comps) {
				comps[j][i] = part
			}
		}
	}
	for j, name := range dim.cols {
		tab.Add(name, column(comps[j]))
	}
}

// column returns vals as a typed slice if every non-nil value has the
// same type. Nil numbers become NaN. Otherwise it returns vals.
func column(vals []interface{}) interface{} {
	var typ reflect.Type
	for _, v := range vals {
		if v == nil {
			continue
		}
		t := reflect.TypeOf(v)
		if typ == nil {
			typ = t
		} else if typ != t {
			return vals
		}
	}
	if typ == nil {
		return vals
	}
	if typ.Kind() == reflect.Float64 {
		out := make([]float64, len(vals))
		for i, v := range vals {
			if v == nil {
				out[i] = math.NaN()
			} else {
				out[i] = v.(float64)
			}
		}
		return out
	}
	for _, v := range vals {
		if v == nil {
			return vals
		}
	}
	seq := reflect.MakeSlice(reflect.SliceOf(typ), len(vals), len(vals))
	for i, v := range vals {
		seq.Index(i).Set(reflect.ValueOf(v))
	}
	return seq.Interface()
}

// RecordsFromTable returns one record per row of every table in g.
func RecordsFromTable(g table.Grouping) []Record {
	var recs []Record
	for _, gid := range g.Tables() {
		t := g.Table(gid)
		cols := make(map[string][]interface{})
		for _, name := range t.Columns() {
			var vals []interface{}
			slice.Convert(&vals, t.MustColumn(name))
			cols[name] = vals
		}
		for i := 0; i < t.Len(); i++ {
			rec := make(Record, len(cols))
			for name, vals := range cols {
				rec[name] = normalize(vals[i])
			}
			recs = append(recs, rec)
		}
	}
	return recs
}

// FromTable returns a store over the rows of g. Its columns are the
// columns of g.
func FromTable(g table.Grouping, measures []Measure) (*Store, error) {
	cols := g.Columns()
	for _, m := range measures {
		if !hasString(cols, m.Name) {
			return nil, fmt.Errorf("measure %q: %w in table", m.Name, ErrColumnNotFound)
		}
	}
	return New(Config{
		Columns:  cols,
		Measures: measures,
		Records:  RecordsFromTable(g),
	})
}

func hasString(xs []string, x string) bool {
	for _, y := range xs {
		if x == y {
			return true
		}
	}
	return false
}
