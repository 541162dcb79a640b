// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func seriesStore(t *testing.T) *Store {
	return mustNew(t, Config{
		Records: []Record{
			{"r": "a10", "c": 1, "v": 1},
			{"r": "a2", "c": 2, "v": 2},
			{"r": "a1", "c": 1, "v": 3},
			{"r": "a1", "c": 2, "v": 4},
			{"r": "a10", "c": 1, "v": 5},
		},
		Measures: Measures("v"),
	})
}

func TestSelect(t *testing.T) {
	s := seriesStore(t)
	rows, err := s.Select(D("r"))
	if err != nil {
		t.Fatal(err)
	}
	var keys []interface{}
	for _, r := range rows {
		keys = append(keys, r.Key)
	}
	if want := []interface{}{"a1", "a10", "a2"}; !de(want, keys) {
		t.Errorf("keys: want %v, got %v", want, keys)
	}
	if got, err := rows[1].Agg("v", Sum); err != nil || got != 6.0 {
		t.Errorf("a10 sum: want 6, got %v, %v", got, err)
	}
	if got, _ := rows[0].Agg("c", Value); got != nil {
		t.Errorf("a1 c: want nil for two values, got %v", got)
	}
	if got, _ := rows[1].Agg("c", Value); got != 1.0 {
		t.Errorf("a10 c: want 1, got %v", got)
	}
}

func TestSelectXYArray(t *testing.T) {
	s := seriesStore(t)
	xs, ys, err := s.SelectXYArray(D("c"), "v", Min, "v", Max)
	if err != nil {
		t.Fatal(err)
	}
	if want := []interface{}{1.0, 2.0}; !de(want, xs) {
		t.Errorf("xs: want %v, got %v", want, xs)
	}
	if want := []interface{}{5.0, 4.0}; !de(want, ys) {
		t.Errorf("ys: want %v, got %v", want, ys)
	}
	if _, _, err := s.SelectXYArray(D("c"), "v", Min, "w", Max); err == nil {
		t.Errorf("unknown y column: want error")
	}
}

func TestSelectFloats(t *testing.T) {
	s := seriesStore(t)
	got, err := s.SelectFloats(D("r"), "v", Var)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 0.5 || got[1] != 8 || !math.IsNaN(got[2]) {
		t.Errorf("want [0.5 8 NaN], got %v", got)
	}
}

func TestSelectSeriesArray(t *testing.T) {
	s := seriesStore(t)
	got, err := s.SelectSeriesArray(D("r"), D("c"), "v", Sum)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]interface{}{
		{3.0, 4.0},
		{nil, 2.0},
		{6.0, nil},
	}
	if !de(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}

	// Filters apply to the series.
	s.FilterExact(D("c"), 2)
	got, err = s.SelectSeriesArray(D("r"), D("c"), "v", Sum)
	if err != nil {
		t.Fatal(err)
	}
	want = [][]interface{}{{4.0}, {2.0}}
	if !de(want, got) {
		t.Errorf("filtered: want %v, got %v", want, got)
	}
}

func TestSelectSeries(t *testing.T) {
	s := seriesStore(t)
	rows, err := s.SelectSeries(D("c"), D("r"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	for i, row := range rows {
		if len(row) != 3 {
			t.Fatalf("row %d: want 3 columns, got %d", i, len(row))
		}
	}
	// Row c=1, columns a1, a2, a10.
	if rows[0][1] != nil {
		t.Errorf("c=1, r=a2 should be missing, got %v", rows[0][1])
	}
	if got, _ := rows[0][2].Agg("*", Count); got != 2.0 {
		t.Errorf("c=1, r=a10 count: want 2, got %v", got)
	}
	if _, err := s.SelectSeries(D("c"), nil); err == nil {
		t.Errorf("missing column dimension: want error")
	}
}

func TestSeriesShape(t *testing.T) {
	s := mustNew(t, Config{Records: testRecords(rand.New(rand.NewSource(4)), 200), Measures: Measures("v")})
	rowKeys, _ := s.Members(D("g"))
	colKeys, _ := s.Members(D("h"))
	m, err := s.SelectSeriesArray(D("g"), D("h"), "v", Count)
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != len(rowKeys) {
		t.Fatalf("want %d rows, got %d", len(rowKeys), len(m))
	}
	for i := range m {
		if len(m[i]) != len(colKeys) {
			t.Fatalf("row %d: want %d columns, got %d", i, len(colKeys), len(m[i]))
		}
	}
	counts := make(map[[2]interface{}]float64)
	for _, rec := range s.Records() {
		counts[[2]interface{}{rec["g"], float64(rec["h"].(int))}]++
	}
	for i, rk := range rowKeys {
		for j, ck := range colKeys {
			want, ok := counts[[2]interface{}{rk, ck}]
			switch {
			case !ok && m[i][j] != nil:
				t.Errorf("%v,%v: want missing, got %v", rk, ck, m[i][j])
			case ok && m[i][j] != want:
				t.Errorf("%v,%v: want %v, got %v", rk, ck, want, m[i][j])
			}
		}
	}
}

func TestSeriesNullAndEmptyKeys(t *testing.T) {
	s := mustNew(t, Config{Records: []Record{
		{"r": nil, "c": "x"},
		{"r": "", "c": "y"},
		{"r": "a", "c": "x"},
		{"r": 1, "c": "x"},
		{"r": "1", "c": "y"},
	}})
	rows, err := s.Members(D("r"))
	if err != nil {
		t.Fatal(err)
	}
	if want := []interface{}{nil, 1.0, "", "1", "a"}; !de(want, rows) {
		t.Fatalf("members: want %v, got %v", want, rows)
	}
	got, err := s.SelectSeriesArray(D("r"), D("c"), "*", Count)
	if err != nil {
		t.Fatal(err)
	}
	// Natural order puts nil and "" first, then 1 and "1".
	want := [][]interface{}{
		{1.0, nil},
		{nil, 1.0},
		{1.0, nil},
		{nil, 1.0},
		{1.0, nil},
	}
	if !de(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestSeriesNaturalOrderWithNull(t *testing.T) {
	s := mustNew(t, Config{Records: []Record{
		{"r": "a10", "c": 1},
		{"r": nil, "c": 1},
		{"r": "a2", "c": 1},
	}})
	got, err := s.SelectSeries(D("r"), D("c"))
	if err != nil {
		t.Fatal(err)
	}
	var keys []interface{}
	for _, row := range got {
		keys = append(keys, row[0].Key)
	}
	want := []interface{}{
		"" + Delimiter + "1",
		"a2" + Delimiter + "1",
		"a10" + Delimiter + "1",
	}
	if !de(want, keys) {
		t.Errorf("want %q, got %q", want, keys)
	}
}

func TestAggregateErrorsWithNoGroups(t *testing.T) {
	s := seriesStore(t)
	if err := s.FilterExact(D("r"), "zzz"); err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		name string
		f    func() error
		want error
	}{
		{"SelectArray", func() error {
			_, err := s.SelectArray(D("r"), "v", "BOGUS")
			return err
		}, ErrUnknownAggregate},
		{"SelectArray unsupported", func() error {
			_, err := s.SelectArray(D("r"), "r", Sum)
			return err
		}, ErrUnsupportedAggregate},
		{"SelectXYArray", func() error {
			_, _, err := s.SelectXYArray(D("r"), "v", Sum, "v", "BOGUS")
			return err
		}, ErrUnknownAggregate},
		{"SelectSeriesArray", func() error {
			_, err := s.SelectSeriesArray(D("r"), D("c"), "v", "BOGUS")
			return err
		}, ErrUnknownAggregate},
		{"SeriesTable", func() error {
			_, err := s.SeriesTable(D("r"), D("c"), "*", Sum)
			return err
		}, ErrUnsupportedAggregate},
	} {
		if err := test.f(); !errors.Is(err, test.want) {
			t.Errorf("%s: want %v, got %v", test.name, test.want, err)
		}
	}
}
