// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"fmt"
	"math"
)

// A Row is one key of a grouping with the aggregator of each column.
type Row struct {
	// Key is the dimension key. For a composite dimension it is
	// the joined key string.
	Key interface{}

	// Aggs maps column names to aggregators. Skipped columns are
	// not present.
	Aggs map[string]Aggregator
}

// Agg returns the result of reader agg on column name.
func (r *Row) Agg(name string, agg Aggregate) (interface{}, error) {
	a, ok := r.Aggs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	return aggregate(a, name, agg)
}

func (s *Store) row(e Entry) *Row {
	r := &Row{Key: e.Key, Aggs: make(map[string]Aggregator, len(s.columns))}
	for i, col := range s.columns {
		if e.Aggs[i] != nil {
			r.Aggs[col.Name] = e.Aggs[i]
		}
	}
	return r
}

// Select returns one row per key of d, in key order.
func (s *Store) Select(d Dim) ([]*Row, error) {
	g, err := s.Group(d, nil)
	if err != nil {
		return nil, err
	}
	defer g.Dispose()

	all := g.All()
	rows := make([]*Row, len(all))
	for i, e := range all {
		rows[i] = s.row(e)
	}
	return rows, nil
}

// aggregate reads agg from a, which aggregates column name.
func aggregate(a Aggregator, name string, agg Aggregate) (interface{}, error) {
	if !agg.Known() {
		return nil, fmt.Errorf("%w %q", ErrUnknownAggregate, string(agg))
	}
	if a == nil {
		return nil, fmt.Errorf("column %s is not aggregated: %w %s", name, ErrUnsupportedAggregate, agg)
	}
	v, ok := a.Aggregate(agg)
	if !ok {
		return nil, fmt.Errorf("column %s: %w %s", name, ErrUnsupportedAggregate, agg)
	}
	return v, nil
}

// measureIndex returns the index of column name, reported the way
// Select methods report it.
func (s *Store) measureIndex(name string) (int, error) {
	i, ok := s.columnMap[name]
	if !ok {
		return -1, fmt.Errorf("column name %w: %s", ErrColumnNotFound, name)
	}
	return i, nil
}

// checkAggregate returns an error if agg is not a reader of column
// index's aggregator. It does not depend on any group existing.
func (s *Store) checkAggregate(index int, agg Aggregate) error {
	col := s.columns[index]
	_, err := aggregate(s.newAggregator(col), col.Name, agg)
	return err
}

// array reads agg of column index from each entry. A nil entry yields
// a nil element.
func (s *Store) array(entries []*Entry, index int, agg Aggregate) ([]interface{}, error) {
	if err := s.checkAggregate(index, agg); err != nil {
		return nil, err
	}
	out := make([]interface{}, len(entries))
	name := s.columns[index].Name
	for i, e := range entries {
		if e == nil {
			continue
		}
		v, err := aggregate(e.Aggs[index], name, agg)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func entryPtrs(all []Entry) []*Entry {
	out := make([]*Entry, len(all))
	for i := range all {
		out[i] = &all[i]
	}
	return out
}

// SelectArray returns agg of column measure for each key of d, in key
// order.
func (s *Store) SelectArray(d Dim, measure string, agg Aggregate) ([]interface{}, error) {
	index, err := s.measureIndex(measure)
	if err != nil {
		return nil, err
	}
	g, err := s.Group(d, nil)
	if err != nil {
		return nil, err
	}
	defer g.Dispose()
	return s.array(entryPtrs(g.All()), index, agg)
}

// SelectFloats is like SelectArray, but converts the results to
// float64. Results that are not numbers are NaN.
func (s *Store) SelectFloats(d Dim, measure string, agg Aggregate) ([]float64, error) {
	vs, err := s.SelectArray(d, measure, agg)
	if err != nil {
		return nil, err
	}
	xs := make([]float64, len(vs))
	for i, v := range vs {
		if v == nil {
			xs[i] = math.NaN()
			continue
		}
		xs[i] = toFloat(v)
	}
	return xs, nil
}

// SelectXYArray returns parallel arrays of xAgg of column xMeasure and
// yAgg of column yMeasure for each key of d. Both come from the same
// grouping, so xs[i] and ys[i] are for the same key.
func (s *Store) SelectXYArray(d Dim, xMeasure string, xAgg Aggregate, yMeasure string, yAgg Aggregate) (xs, ys []interface{}, err error) {
	xi, err := s.measureIndex(xMeasure)
	if err != nil {
		return nil, nil, err
	}
	yi, err := s.measureIndex(yMeasure)
	if err != nil {
		return nil, nil, err
	}
	g, err := s.Group(d, nil)
	if err != nil {
		return nil, nil, err
	}
	defer g.Dispose()

	entries := entryPtrs(g.All())
	if xs, err = s.array(entries, xi, xAgg); err != nil {
		return nil, nil, err
	}
	if ys, err = s.array(entries, yi, yAgg); err != nil {
		return nil, nil, err
	}
	return xs, ys, nil
}
