// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"fmt"
	"sort"

	"github.com/aclements/go-measure/internal/xfilter"
)

// An Axis is a plot axis of an AxisStore.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ

	numAxes
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// An AxisFilter restricts an axis's store to records whose key in Dim
// is one of Values.
type AxisFilter struct {
	Dim    Dim
	Values []interface{}
}

type axisMeasure struct {
	store   *Store
	measure string
	filters []AxisFilter
}

// An AxisStore joins measures from different stores, or the same
// measure under different filters, on a shared dimension. This
// handles plotting a measure against itself, such as a count where
// one column is "a" on the x axis against the same count where it is
// "b" on the y axis.
type AxisStore struct {
	axes [numAxes]*axisMeasure
}

// SetMeasure sets the measure of axis to column measure of store,
// restricted by filters.
func (a *AxisStore) SetMeasure(axis Axis, store *Store, measure string, filters ...AxisFilter) {
	if axis < 0 || axis >= numAxes {
		panic(fmt.Sprintf("measure: bad axis %d", int(axis)))
	}
	a.axes[axis] = &axisMeasure{store, measure, filters}
}

// An AxisRow is one joined key of an AxisStore.
type AxisRow struct {
	Key interface{}

	// Dims maps each column of the dimension to its component
	// of Key.
	Dims map[string]interface{}

	// Axes holds the aggregator of each axis's measure for this
	// key, or nil if the axis has no measure or the axis's store
	// has no records with this key.
	Axes [numAxes]Aggregator
}

// Get returns the aggregator of axis.
func (r *AxisRow) Get(axis Axis) Aggregator {
	return r.Axes[axis]
}

// Select groups each axis's store by d and joins the results by key.
// Axis filters are cleared afterwards. Rows are in key order.
func (a *AxisStore) Select(d Dim) ([]*AxisRow, error) {
	joined := make(map[interface{}]*AxisRow)
	var keys []interface{}
	for axis, m := range a.axes {
		if m == nil {
			continue
		}
		if m.store.Column(m.measure) == nil {
			return nil, fmt.Errorf("axis %s: column name %w: %s", Axis(axis), ErrColumnNotFound, m.measure)
		}
		rows, err := m.selectFiltered(d)
		if err != nil {
			return nil, fmt.Errorf("axis %s: %w", Axis(axis), err)
		}
		for _, row := range rows {
			ck := xfilter.Canonical(row.Key)
			jr, ok := joined[ck]
			if !ok {
				jr = &AxisRow{Key: row.Key, Dims: splitDims(d, row.Key)}
				joined[ck] = jr
				keys = append(keys, row.Key)
			}
			jr.Axes[axis] = row.Aggs[m.measure]
		}
	}

	sort.Slice(keys, func(i, j int) bool { return xfilter.Compare(keys[i], keys[j]) < 0 })
	out := make([]*AxisRow, len(keys))
	for i, k := range keys {
		out[i] = joined[xfilter.Canonical(k)]
	}
	return out, nil
}

func (m *axisMeasure) selectFiltered(d Dim) ([]*Row, error) {
	s := m.store
	defer func() {
		for _, f := range m.filters {
			s.FilterAll(f.Dim)
		}
	}()
	for _, f := range m.filters {
		if err := s.FilterIn(f.Dim, f.Values...); err != nil {
			return nil, err
		}
	}
	return s.Select(d)
}

func splitDims(d Dim, key interface{}) map[string]interface{} {
	dims := make(map[string]interface{}, len(d))
	if len(d) == 1 {
		dims[d[0]] = key
		return dims
	}
	parts := SplitKey(key.(string))
	for i, col := range d {
		if i < len(parts) {
			dims[col] = parts[i]
		} else {
			dims[col] = nil
		}
	}
	return dims
}
