// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"
)

func mustNew(t *testing.T, cfg Config) *Store {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func aggOf(t *testing.T, s *Store, aggs []Aggregator, col string, agg Aggregate) interface{} {
	t.Helper()
	c := s.Column(col)
	if c == nil {
		t.Fatalf("no column %s", col)
	}
	v, err := aggregate(aggs[c.Index], col, agg)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestNewColumns(t *testing.T) {
	s := mustNew(t, Config{
		Records:  []Record{{"b": 1, "a": "x", "skip": 2}},
		Measures: Measures("b"),
		Skip:     []string{"skip"},
	})
	var got []string
	for _, c := range s.Columns() {
		got = append(got, fmt.Sprintf("%s:%s", c.Name, c.Kind))
	}
	want := []string{"*:count-star", "a:unique-value", "b:collect-non-null", "skip:none"}
	if !de(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
	if s.Format() != FormatSimple {
		t.Errorf("want simple format, got %v", s.Format())
	}
	if got := s.Records()[0][RowNumberColumn]; got != 0 {
		t.Errorf("row number: want 0, got %v", got)
	}
}

func TestConfigErrors(t *testing.T) {
	recs := []Record{{"g": "a", "v": 1}}
	if _, err := New(Config{Records: recs, Measures: Measures("w")}); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("unknown measure: want ErrColumnNotFound, got %v", err)
	}
	s := mustNew(t, Config{Records: recs, Measures: Measures("v")})
	if _, err := s.Dimension(D("nope")); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("unknown dimension: want ErrColumnNotFound, got %v", err)
	}
	if _, err := s.Dimension(D("")); err == nil {
		t.Errorf("empty column name: want error")
	}
	if _, err := s.SelectArray(D("g"), "nope", Sum); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("unknown column: want ErrColumnNotFound, got %v", err)
	}
	if _, err := s.SelectArray(D("g"), "v", "MODE"); !errors.Is(err, ErrUnknownAggregate) {
		t.Errorf("unknown aggregate: want ErrUnknownAggregate, got %v", err)
	}
	if _, err := s.SelectArray(D("g"), "g", Sum); !errors.Is(err, ErrUnsupportedAggregate) {
		t.Errorf("SUM of plain column: want ErrUnsupportedAggregate, got %v", err)
	}
}

func TestNoRecords(t *testing.T) {
	s := mustNew(t, Config{Measures: Measures("v")})
	if s.Format() != FormatUnknown {
		t.Errorf("want unknown format, got %v", s.Format())
	}
	g, err := s.Group(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Dispose()
	if got := aggOf(t, s, g.Total(), "*", Count); got != 0.0 {
		t.Errorf("count: want 0, got %v", got)
	}
}

func TestDimensionCache(t *testing.T) {
	s := mustNew(t, Config{
		Records:    []Record{{"a": 1, "b": 2}},
		Dimensions: []Dim{D("a", "b")},
	})
	d1, _ := s.Dimension(D("a", "b"))
	d2, _ := s.Dimension(D("a", "b"))
	if d1 != d2 {
		t.Errorf("same dimension was not cached")
	}
	star, err := s.Dimension(D("*"))
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{RowNumberColumn}; !de(want, star.Columns()) {
		t.Errorf("want %v, got %v", want, star.Columns())
	}
}

func TestCountStarTotal(t *testing.T) {
	var recs []Record
	for i := 0; i < 5; i++ {
		recs = append(recs, Record{"x": i})
	}
	s := mustNew(t, Config{Records: recs})
	g, err := s.Group(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Dispose()
	if got := aggOf(t, s, g.Total(), "*", Count); got != 5.0 {
		t.Errorf("want 5, got %v", got)
	}
	if g.Size() != 1 {
		t.Errorf("want 1 group, got %d", g.Size())
	}
}

func TestUniqueDivergence(t *testing.T) {
	s := mustNew(t, Config{Records: []Record{
		{"g": "a", "v": "X", "n": 0},
		{"g": "a", "v": "x", "n": 1},
		{"g": "a", "v": "Y", "n": 2},
	}})
	if err := s.Filter(D("n"), 0, 2); err != nil {
		t.Fatal(err)
	}
	g, err := s.Group(D("g"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Dispose()
	value := func() interface{} {
		t.Helper()
		all := g.All()
		if len(all) != 1 {
			t.Fatalf("want 1 group, got %d", len(all))
		}
		return aggOf(t, s, all[0].Aggs, "v", Value)
	}

	if got := value(); got != "X" {
		t.Errorf("want X, got %v", got)
	}
	s.FilterAll(D("n"))
	if got := value(); got != nil {
		t.Errorf("after adding Y: want nil, got %v", got)
	}
	s.Filter(D("n"), 0, 2)
	if got := value(); got != nil {
		t.Errorf("after removing Y: want nil, got %v", got)
	}
}

func TestGroupKeyFunc(t *testing.T) {
	s := mustNew(t, Config{Records: []Record{{"x": 1}, {"x": 2}, {"x": 3}, {"x": 4}, {"x": 5}}})
	g, err := s.Group(D("x"), func(k interface{}) interface{} {
		return k.(float64) < 3
	})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Dispose()
	got := map[interface{}]interface{}{}
	for _, e := range g.All() {
		got[e.Key] = aggOf(t, s, e.Aggs, "*", Count)
	}
	if want := map[interface{}]interface{}{false: 3.0, true: 2.0}; !de(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
}

func testRecords(rng *rand.Rand, n int) []Record {
	var recs []Record
	for i := 0; i < n; i++ {
		recs = append(recs, Record{
			"g": fmt.Sprintf("g%d", rng.Intn(5)),
			"h": rng.Intn(4),
			"v": float64(rng.Intn(100)),
		})
	}
	return recs
}

// sameResult reports whether two aggregate results are equal,
// treating NaNs as equal and floats as equal up to rounding.
func sameResult(a, b interface{}) bool {
	fa, ok1 := a.(float64)
	fb, ok2 := b.(float64)
	if ok1 && ok2 {
		return (math.IsNaN(fa) && math.IsNaN(fb)) || near(fa, fb)
	}
	return de(a, b)
}

func TestIncremental(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := mustNew(t, Config{Records: testRecords(rng, 300), Measures: Measures("v")})
	live, err := s.Group(D("g"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer live.Dispose()

	check := func(step int) {
		t.Helper()
		fresh, err := s.Group(D("g"), nil)
		if err != nil {
			t.Fatal(err)
		}
		defer fresh.Dispose()
		la, fa := live.All(), fresh.All()
		if len(la) != len(fa) {
			t.Fatalf("step %d: want %d groups, got %d", step, len(fa), len(la))
		}
		for i := range la {
			if la[i].Key != fa[i].Key {
				t.Fatalf("step %d: want key %v, got %v", step, fa[i].Key, la[i].Key)
			}
			for _, c := range []struct {
				col string
				agg Aggregate
			}{{"*", Count}, {"v", Count}, {"v", Sum}, {"v", Mean}, {"v", Var}, {"v", Max}, {"v", Values}} {
				want := aggOf(t, s, fa[i].Aggs, c.col, c.agg)
				got := aggOf(t, s, la[i].Aggs, c.col, c.agg)
				if !sameResult(want, got) {
					t.Errorf("step %d: %v %s %s: want %v, got %v", step, la[i].Key, c.agg, c.col, want, got)
				}
			}
		}
	}

	check(-1)
	for step := 0; step < 60; step++ {
		switch rng.Intn(5) {
		case 0:
			s.FilterExact(D("h"), rng.Intn(4))
		case 1:
			lo := rng.Intn(4)
			s.Filter(D("h"), lo, lo+rng.Intn(3))
		case 2:
			s.FilterIn(D("g"), fmt.Sprintf("g%d", rng.Intn(5)), fmt.Sprintf("g%d", rng.Intn(5)))
		case 3:
			s.FilterAll(D("h"))
		case 4:
			s.FilterAll(D("g"))
		}
		check(step)
	}
}

func TestGroupingCompleteness(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	s := mustNew(t, Config{Records: testRecords(rng, 100), Measures: Measures("v")})
	s.Filter(D("h"), 1, 3)
	counts, err := s.SelectFloats(D("g", "h"), "*", Count)
	if err != nil {
		t.Fatal(err)
	}
	total := 0.0
	for _, c := range counts {
		total += c
	}
	want := 0
	for _, rec := range s.Records() {
		if h := rec["h"].(int); h >= 1 && h < 3 {
			want++
		}
	}
	if total != float64(want) {
		t.Errorf("want %d records across groups, got %v", want, total)
	}
}

func TestGroupNaNKeys(t *testing.T) {
	s := mustNew(t, Config{Records: []Record{
		{"k": math.NaN(), "f": 0},
		{"k": math.NaN(), "f": 1},
		{"k": 1, "f": 2},
	}})
	g, err := s.Group(D("k"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Dispose()

	counts := func() []interface{} {
		var out []interface{}
		for _, e := range g.All() {
			out = append(out, aggOf(t, s, e.Aggs, "*", Count))
		}
		return out
	}
	if want := []interface{}{2.0, 1.0}; !de(want, counts()) {
		t.Errorf("want %v, got %v", want, counts())
	}
	if err := s.Filter(D("f"), 1, 3); err != nil {
		t.Fatal(err)
	}
	if want := []interface{}{1.0, 1.0}; !de(want, counts()) {
		t.Errorf("after Filter: want %v, got %v", want, counts())
	}
	if err := s.FilterIn(D("k"), math.NaN()); err != nil {
		t.Fatal(err)
	}
	if want := []interface{}{1.0}; !de(want, counts()) {
		t.Errorf("after FilterIn(NaN): want %v, got %v", want, counts())
	}
}

func TestMembers(t *testing.T) {
	s := mustNew(t, Config{Records: []Record{
		{"r": "a10", "c": 1},
		{"r": "a2", "c": 2},
		{"r": "a1", "c": 1},
		{"r": "a1", "c": 2},
	}})
	got, err := s.Members(D("r"))
	if err != nil {
		t.Fatal(err)
	}
	if want := []interface{}{"a1", "a10", "a2"}; !de(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
	got, _ = s.Members(D("r", "c"))
	want := []interface{}{
		[]string{"a10", "1"}, []string{"a1", "1"}, []string{"a1", "2"}, []string{"a2", "2"},
	}
	if !de(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
	s.FilterIn(D("r"), "a2", "a10")
	got, _ = s.Members(D("c"))
	if want := []interface{}{1.0, 2.0}; !de(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
	s.FilterExact(D("c"), 2)
	got, _ = s.Members(D("r"))
	if want := []interface{}{"a2"}; !de(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
	s.FilterFunc(D("r"), func(k interface{}) bool { return k == "a1" })
	got, _ = s.Members(D("r"))
	if want := []interface{}{"a1"}; !de(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestKeyRoundTrip(t *testing.T) {
	for _, parts := range [][]string{
		{"a"},
		{"a", "b", "c"},
		{"", "x", ""},
		{"with|pipe", "and space"},
	} {
		if got := SplitKey(JoinKey(parts)); !de(parts, got) {
			t.Errorf("want %q, got %q", parts, got)
		}
	}
}

func TestObjectFormat(t *testing.T) {
	s := mustNew(t, Config{
		Records: []Record{
			{"g": map[string]interface{}{"value": "a", "url": "/a"}, "v": map[string]interface{}{"value": 2}},
			{"g": map[string]interface{}{"value": "a"}, "v": map[string]interface{}{"value": 4}},
			{"g": "b", "v": 6},
		},
		Measures: Measures("v"),
	})
	if s.Format() != FormatObject {
		t.Fatalf("want object format, got %v", s.Format())
	}
	got, err := s.SelectArray(D("g"), "v", Mean)
	if err != nil {
		t.Fatal(err)
	}
	if want := []interface{}{3.0, 6.0}; !de(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
}
