// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bench

import (
	"sort"
	"time"

	"github.com/aclements/go-measure/measure"
)

const (
	// NameColumn holds the benchmark name in records.
	NameColumn = "name"

	// IterationsColumn holds the iteration count in records.
	IterationsColumn = "iterations"
)

// Records returns one measure record per benchmark. Each record has
// the benchmark name, every config key, the iteration count, and a
// column per result unit. Benchmarks without a result for some unit
// have nil in that column.
//
// Config values are used as parsed by ParseValues, with durations in
// seconds. Unparsed values are raw strings.
func Records(bs []*Benchmark) []measure.Record {
	configKeys, units := keys(bs)
	recs := make([]measure.Record, len(bs))
	for i, b := range bs {
		rec := make(measure.Record, 2+len(configKeys)+len(units))
		rec[NameColumn] = b.Name
		rec[IterationsColumn] = b.Iterations
		for _, k := range configKeys {
			c := b.Config[k]
			if c == nil {
				rec[k] = nil
				continue
			}
			rec[k] = configValue(c)
		}
		for _, u := range units {
			if v, ok := b.Result[u]; ok {
				rec[u] = v
			} else {
				rec[u] = nil
			}
		}
		recs[i] = rec
	}
	return recs
}

func configValue(c *Config) interface{} {
	switch v := c.Value.(type) {
	case nil:
		return c.RawValue
	case time.Duration:
		return v.Seconds()
	}
	return c.Value
}

// Columns returns the columns of Records(bs) in display order: the
// name, config keys, iterations, then result units.
func Columns(bs []*Benchmark) []string {
	configKeys, units := keys(bs)
	cols := []string{NameColumn}
	cols = append(cols, configKeys...)
	cols = append(cols, IterationsColumn)
	return append(cols, units...)
}

// Measures returns a measure for each result unit in bs, with the
// standard units first.
func Measures(bs []*Benchmark) []measure.Measure {
	_, units := keys(bs)
	return measure.Measures(units...)
}

// keys returns the sorted config keys and result units of bs.
func keys(bs []*Benchmark) (configKeys, units []string) {
	cs, us := map[string]bool{}, map[string]bool{}
	for _, b := range bs {
		for k := range b.Config {
			cs[k] = true
		}
		for u := range b.Result {
			us[u] = true
		}
	}
	for k := range cs {
		if k == NameColumn || k == IterationsColumn {
			continue
		}
		configKeys = append(configKeys, k)
	}
	for u := range us {
		units = append(units, u)
	}
	sort.Strings(configKeys)
	sort.Sort(resultKeySorter(units))
	return
}

var fixedKeys = map[string]int{
	"ns/op": -2,
	"MB/s":  -1,
}

type resultKeySorter []string

func (s resultKeySorter) Len() int {
	return len(s)
}

func (s resultKeySorter) Less(i, j int) bool {
	if fixedKeys[s[i]] != fixedKeys[s[j]] {
		return fixedKeys[s[i]] < fixedKeys[s[j]]
	}
	return s[i] < s[j]
}

func (s resultKeySorter) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}
