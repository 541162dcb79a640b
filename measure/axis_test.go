// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import "testing"

func TestAxisStore(t *testing.T) {
	s := mustNew(t, Config{
		Records: []Record{
			{"pop": "cd4", "subject": "s1", "count": 10},
			{"pop": "cd8", "subject": "s1", "count": 20},
			{"pop": "cd4", "subject": "s2", "count": 30},
			{"pop": "cd8", "subject": "s3", "count": 40},
		},
		Measures: Measures("count"),
	})
	var a AxisStore
	a.SetMeasure(AxisX, s, "count", AxisFilter{D("pop"), []interface{}{"cd4"}})
	a.SetMeasure(AxisY, s, "count", AxisFilter{D("pop"), []interface{}{"cd8"}})
	rows, err := a.Select(D("subject"))
	if err != nil {
		t.Fatal(err)
	}

	type xy struct {
		subject interface{}
		x, y    interface{}
	}
	var got []xy
	for _, r := range rows {
		e := xy{subject: r.Dims["subject"]}
		if agg := r.Get(AxisX); agg != nil {
			e.x = agg.ValueOf()
		}
		if agg := r.Get(AxisY); agg != nil {
			e.y = agg.ValueOf()
		}
		if r.Get(AxisZ) != nil {
			t.Errorf("z axis should be unset")
		}
		got = append(got, e)
	}
	want := []xy{
		{"s1", 10.0, 20.0},
		{"s2", 30.0, nil},
		{"s3", nil, 40.0},
	}
	if !de(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}

	// Axis filters are cleared after the select.
	pops, _ := s.Members(D("pop"))
	if want := []interface{}{"cd4", "cd8"}; !de(want, pops) {
		t.Errorf("pop members: want %v, got %v", want, pops)
	}
}

func TestAxisStoreComposite(t *testing.T) {
	s := mustNew(t, Config{
		Records: []Record{
			{"a": "x", "b": 1, "v": 2},
			{"a": "x", "b": 2, "v": 4},
		},
		Measures: Measures("v"),
	})
	var a AxisStore
	a.SetMeasure(AxisY, s, "v")
	rows, err := a.Select(D("a", "b"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	if want := map[string]interface{}{"a": "x", "b": "2"}; !de(want, rows[1].Dims) {
		t.Errorf("want %v, got %v", want, rows[1].Dims)
	}

	a.SetMeasure(AxisX, s, "w")
	if _, err := a.Select(D("a")); err == nil {
		t.Errorf("unknown measure: want error")
	}
	shouldPanic(t, "bad axis", func() { a.SetMeasure(Axis(5), s, "v") })
}
