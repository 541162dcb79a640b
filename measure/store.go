// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package measure aggregates flat query results by dimension for
// charting.
//
// A Store holds a fixed set of records. Every column of the records
// gets an Aggregator strategy: plain columns track whether they have a
// single value per group, measures collect their values (or combine
// pre-aggregated partial results), and the synthetic "*" column counts
// records. Grouping a store by a dimension (one or more columns)
// produces one set of aggregators per distinct key. Filters on any
// dimension restrict every grouping, and live groups are maintained
// incrementally as filters change.
//
// The Select methods flatten groupings into rows, parallel arrays, or
// row-by-column series matrices.
//
// A Store is not safe for concurrent use. Groups returned by
// Store.Group must be disposed.
package measure

import (
	"fmt"
	"sort"

	"github.com/aclements/go-measure/internal/xfilter"
	"github.com/go-logr/logr"
	"golang.org/x/exp/maps"
)

// A Measure configures a column to be aggregated as a measure.
//
// If CountColumn or SumColumn is set, the records carry partial
// aggregates of the measure in those columns and the measure uses a
// PreAggregated aggregator. Otherwise the measure's own values are
// collected with a CollectNonNull aggregator.
type Measure struct {
	Name string

	CountColumn        string
	SumColumn          string
	SumOfSquaresColumn string
	MinColumn          string
	MaxColumn          string
}

// Measures returns plain measures with the given names.
func Measures(names ...string) []Measure {
	ms := make([]Measure, len(names))
	for i, name := range names {
		ms[i].Name = name
	}
	return ms
}

// A Dim names a dimension by its columns. A Dim with more than one
// column is a composite dimension whose keys are joined with
// Delimiter. The column "*" stands for RowNumberColumn.
type Dim []string

// D returns the Dim of cols.
func D(cols ...string) Dim {
	return Dim(cols)
}

func (d Dim) String() string {
	return JoinKey(d)
}

// A Config describes the records and columns of a Store.
type Config struct {
	// Columns lists the columns to aggregate. If empty, it is
	// every column of the first record.
	Columns []string

	// Measures configures columns as measures.
	Measures []Measure

	// Dimensions are indexed when the store is created.
	Dimensions []Dim

	// Records are the input rows. The store adds
	// RowNumberColumn to each record.
	Records []Record

	// Skip lists columns that are carried but not aggregated.
	Skip []string

	// ResponseMetadata is stored for callers and not interpreted.
	ResponseMetadata map[string]interface{}

	// Logger receives debug logging. The zero Logger discards.
	Logger logr.Logger
}

// A Column is one aggregated column of a Store.
type Column struct {
	Name  string
	Index int
	Kind  Kind

	// Measure is the measure configuration of this column, or nil
	// if it is not a measure.
	Measure *Measure

	// Field is the query metadata for this column, if known.
	Field *Field
}

// A Store aggregates a fixed set of records by dimension.
type Store struct {
	records []Record
	format  Format
	value   func(Record, string) interface{}

	columns   []*Column
	columnMap map[string]int

	xf   *xfilter.Filter[Record]
	dims map[string]*Dimension

	meta map[string]interface{}
	log  logr.Logger
}

// A Dimension is a cached index of a Store's records by key.
type Dimension struct {
	name string
	cols []string
	x    *xfilter.Dimension[Record]
}

// Name returns the name the dimension is cached under.
func (d *Dimension) Name() string { return d.name }

// Columns returns the columns making up the dimension's key.
func (d *Dimension) Columns() []string { return d.cols }

// Composite reports whether the dimension's keys are joined from
// several columns.
func (d *Dimension) Composite() bool { return len(d.cols) > 1 }

// New returns a Store over cfg.Records.
func New(cfg Config) (*Store, error) {
	s := &Store{
		records:   cfg.Records,
		columnMap: make(map[string]int),
		dims:      make(map[string]*Dimension),
		meta:      cfg.ResponseMetadata,
		log:       cfg.Logger,
	}
	if s.log.GetSink() == nil {
		s.log = logr.Discard()
	}

	s.format = detectFormat(s.records)
	if s.format == FormatSimple {
		s.value = simpleValue
	} else {
		s.value = wrappedValue
	}

	names := cfg.Columns
	if len(names) == 0 && len(s.records) > 0 {
		names = maps.Keys(s.records[0])
		sort.Strings(names)
	}
	for i, rec := range s.records {
		rec[RowNumberColumn] = i
	}

	skip := make(map[string]bool)
	for _, name := range cfg.Skip {
		skip[name] = true
	}
	s.addColumn(&Column{Name: "*", Kind: KindCountStar})
	for _, name := range names {
		if name == "*" || name == RowNumberColumn {
			continue
		}
		if _, ok := s.columnMap[name]; ok {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		kind := KindUniqueValue
		if skip[name] {
			kind = KindNone
		}
		s.addColumn(&Column{Name: name, Kind: kind})
	}

	for _, m := range cfg.Measures {
		idx, ok := s.columnMap[m.Name]
		if !ok && len(names) == 0 {
			// No data to check against.
			s.addColumn(&Column{Name: m.Name})
			idx, ok = len(s.columns)-1, true
		}
		if !ok || idx == 0 {
			return nil, fmt.Errorf("measure %q: %w in data", m.Name, ErrColumnNotFound)
		}
		col := s.columns[idx]
		m := m
		col.Measure = &m
		if m.CountColumn != "" || m.SumColumn != "" {
			col.Kind = KindPreAggregated
		} else {
			col.Kind = KindCollectNonNull
		}
	}

	s.xf = xfilter.New(s.records)
	s.log.V(1).Info("created measure store", "records", len(s.records), "columns", len(s.columns), "format", s.format.String())

	for _, d := range cfg.Dimensions {
		if _, err := s.Dimension(d); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) addColumn(c *Column) {
	c.Index = len(s.columns)
	s.columns = append(s.columns, c)
	s.columnMap[c.Name] = c.Index
}

// Records returns the store's records.
func (s *Store) Records() []Record {
	return s.records
}

// Format returns the record format detected from the first record.
func (s *Store) Format() Format {
	return s.format
}

// Columns returns the store's columns. Column 0 is always "*".
func (s *Store) Columns() []*Column {
	return s.columns
}

// Column returns the column called name, or nil.
func (s *Store) Column(name string) *Column {
	if i, ok := s.columnMap[name]; ok {
		return s.columns[i]
	}
	return nil
}

// ResponseMetadata returns the metadata the store was created with.
func (s *Store) ResponseMetadata() map[string]interface{} {
	return s.meta
}

// Dimension returns the dimension indexing the store by the columns
// of d, creating it on first use. Every column must be present in
// the first record.
func (s *Store) Dimension(d Dim) (*Dimension, error) {
	if len(d) == 0 {
		return nil, fmt.Errorf("empty dimension")
	}
	cols := make([]string, len(d))
	for i, c := range d {
		if c == "*" {
			c = RowNumberColumn
		}
		cols[i] = c
	}
	name := JoinKey(cols)
	if dim, ok := s.dims[name]; ok {
		return dim, nil
	}

	for _, c := range cols {
		if c == "" {
			return nil, fmt.Errorf("column is undefined")
		}
		if len(s.records) > 0 {
			if _, ok := s.records[0][c]; !ok {
				return nil, fmt.Errorf("%w in data: %s", ErrColumnNotFound, c)
			}
		}
	}

	var key func(Record) xfilter.Key
	if len(cols) == 1 {
		col := cols[0]
		key = func(rec Record) xfilter.Key {
			return s.value(rec, col)
		}
	} else {
		key = func(rec Record) xfilter.Key {
			parts := make([]string, len(cols))
			for i, col := range cols {
				parts[i] = keyString(s.value(rec, col))
			}
			return JoinKey(parts)
		}
	}

	dim := &Dimension{name: name, cols: cols, x: s.xf.NewDimension(key)}
	s.dims[name] = dim
	s.log.V(1).Info("created dimension", "columns", cols)
	return dim, nil
}

// A KeyFunc maps dimension keys to group keys.
type KeyFunc func(key interface{}) interface{}

// A Group is a grouping of a store's records with one aggregator per
// column per key. It is kept up to date as filters change until it
// is disposed.
type Group struct {
	s *Store
	g *xfilter.Group[Record, []Aggregator]
}

// An Entry is one key of a Group. Aggs is indexed like
// Store.Columns; the aggregator of a KindNone column is nil.
type Entry struct {
	Key  interface{}
	Aggs []Aggregator
}

// Group groups the store by d, or by key(k) of each dimension key k
// if key is non-nil. If d is empty, the whole store is a single group
// with a nil key. The caller must Dispose the group.
func (s *Store) Group(d Dim, key KeyFunc) (*Group, error) {
	if len(d) == 0 {
		return &Group{s, xfilter.GroupAll(s.xf, s.reducer())}, nil
	}
	dim, err := s.Dimension(d)
	if err != nil {
		return nil, err
	}
	return s.group(dim, key), nil
}

func (s *Store) group(dim *Dimension, key KeyFunc) *Group {
	var kf func(xfilter.Key) xfilter.Key
	if key != nil {
		kf = func(k xfilter.Key) xfilter.Key { return key(k) }
	}
	return &Group{s, xfilter.NewGroup(dim.x, kf, s.reducer())}
}

// All returns the group's keys and aggregators, sorted by key.
func (g *Group) All() []Entry {
	all := g.g.All()
	out := make([]Entry, len(all))
	for i, e := range all {
		out[i] = Entry{e.Key, e.Value}
	}
	return out
}

// Size returns the number of keys in the group.
func (g *Group) Size() int {
	return g.g.Size()
}

// Total returns the aggregators of a group created with an empty
// Dim.
func (g *Group) Total() []Aggregator {
	return g.g.Value()
}

// Dispose releases the group.
func (g *Group) Dispose() {
	g.g.Dispose()
}

func (s *Store) reducer() xfilter.Reducer[Record, []Aggregator] {
	return xfilter.Reducer[Record, []Aggregator]{
		Init:   s.newAggregators,
		Add:    s.reduceAdd,
		Remove: s.reduceRemove,
	}
}

func (s *Store) newAggregators() []Aggregator {
	aggs := make([]Aggregator, len(s.columns))
	for i, col := range s.columns {
		aggs[i] = s.newAggregator(col)
	}
	return aggs
}

func (s *Store) newAggregator(col *Column) Aggregator {
	switch col.Kind {
	case KindCountStar:
		return new(CountStar)
	case KindUniqueValue:
		return new(UniqueValue)
	case KindCollectNonNull:
		return new(CollectNonNull)
	case KindPreAggregated:
		return NewPreAggregated(*col.Measure, s.value)
	}
	return nil
}

// columnValue returns the value of column i in rec. The "*" column's
// value is the record's row number.
func (s *Store) columnValue(rec Record, i int) interface{} {
	if i == 0 {
		return normalize(rec[RowNumberColumn])
	}
	return s.value(rec, s.columns[i].Name)
}

func (s *Store) reduceAdd(aggs []Aggregator, rec Record) []Aggregator {
	for i, a := range aggs {
		if a != nil {
			a.AddTo(s.columnValue(rec, i), rec)
		}
	}
	return aggs
}

func (s *Store) reduceRemove(aggs []Aggregator, rec Record) []Aggregator {
	for i, a := range aggs {
		if a != nil {
			a.RemoveFrom(s.columnValue(rec, i), rec)
		}
	}
	return aggs
}

// Filter restricts the store to records whose key in d is in
// [lo, hi). Filters apply to every grouping of the store, including
// groupings by d itself.
func (s *Store) Filter(d Dim, lo, hi interface{}) error {
	dim, err := s.Dimension(d)
	if err != nil {
		return err
	}
	dim.x.FilterRange(normalize(lo), normalize(hi))
	return nil
}

// FilterExact restricts the store to records whose key in d equals v.
func (s *Store) FilterExact(d Dim, v interface{}) error {
	dim, err := s.Dimension(d)
	if err != nil {
		return err
	}
	dim.x.FilterExact(normalize(v))
	return nil
}

// FilterIn restricts the store to records whose key in d is one of
// values.
func (s *Store) FilterIn(d Dim, values ...interface{}) error {
	dim, err := s.Dimension(d)
	if err != nil {
		return err
	}
	set := make(map[interface{}]bool, len(values))
	for _, v := range values {
		set[xfilter.Canonical(normalize(v))] = true
	}
	dim.x.FilterFunc(func(k xfilter.Key) bool {
		return set[xfilter.Canonical(k)]
	})
	return nil
}

// FilterFunc restricts the store to records whose key in d satisfies
// pred.
func (s *Store) FilterFunc(d Dim, pred func(key interface{}) bool) error {
	dim, err := s.Dimension(d)
	if err != nil {
		return err
	}
	dim.x.FilterFunc(func(k xfilter.Key) bool { return pred(k) })
	return nil
}

// FilterAll clears the filter on d.
func (s *Store) FilterAll(d Dim) error {
	dim, err := s.Dimension(d)
	if err != nil {
		return err
	}
	dim.x.FilterAll()
	return nil
}

// Members returns the distinct keys of d among the records that pass
// the current filters, in ascending order. The members of a composite
// dimension are []string of the component keys.
func (s *Store) Members(d Dim) ([]interface{}, error) {
	keys, dim, err := s.memberKeys(d)
	if err != nil {
		return nil, err
	}
	if dim.Composite() {
		for i, k := range keys {
			keys[i] = SplitKey(k.(string))
		}
	}
	return keys, nil
}

// memberKeys returns the raw distinct keys of d.
func (s *Store) memberKeys(d Dim) ([]interface{}, *Dimension, error) {
	dim, err := s.Dimension(d)
	if err != nil {
		return nil, nil, err
	}
	g := xfilter.NewGroup(dim.x, nil, xfilter.ReduceCount[Record]())
	defer g.Dispose()
	all := g.All()
	keys := make([]interface{}, len(all))
	for i, e := range all {
		keys[i] = e.Key
	}
	return keys, dim, nil
}
