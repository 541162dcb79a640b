// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/aclements/go-measure/bench"
	"github.com/aclements/go-measure/measure"
	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

// parseMeasure parses a -m flag: a measure name optionally followed by
// comma-separated key=column pairs naming pre-aggregated columns.
func parseMeasure(s string) (measure.Measure, error) {
	parts := strings.Split(s, ",")
	m := measure.Measure{Name: parts[0]}
	if m.Name == "" {
		return m, fmt.Errorf("measure %q has no name", s)
	}
	for _, part := range parts[1:] {
		i := strings.Index(part, "=")
		if i < 0 {
			return m, fmt.Errorf("measure %q: want key=column, got %q", s, part)
		}
		k, col := part[:i], part[i+1:]
		switch k {
		case "count":
			m.CountColumn = col
		case "sum":
			m.SumColumn = col
		case "sumsq":
			m.SumOfSquaresColumn = col
		case "min":
			m.MinColumn = col
		case "max":
			m.MaxColumn = col
		default:
			return m, fmt.Errorf("measure %q: unknown key %q", s, k)
		}
	}
	return m, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return ioutil.ReadAll(os.Stdin)
	}
	return ioutil.ReadFile(path)
}

// load reads and decodes paths concurrently and returns a store over
// all of their records.
func load(format string, paths []string, measures []measure.Measure, log logr.Logger) (*measure.Store, error) {
	var decode func(data []byte) (*measure.Store, error)
	switch format {
	case "bench":
		return loadBench(paths, measures, log)
	case "selectrows":
		decode = func(data []byte) (*measure.Store, error) {
			return measure.FromSelectRows(data, measures)
		}
	case "getdata":
		var gms []measure.GetDataMeasure
		for _, m := range measures {
			var gm measure.GetDataMeasure
			gm.Measure.Alias = m.Name
			gm.Measure.IsMeasure = true
			gms = append(gms, gm)
		}
		decode = func(data []byte) (*measure.Store, error) {
			return measure.FromGetData(data, gms)
		}
	case "cellset":
		decode = func(data []byte) (*measure.Store, error) {
			return measure.FromCellSet(data, measures)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}

	stores := make([]*measure.Store, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			data, err := readInput(path)
			if err != nil {
				return err
			}
			s, err := decode(data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			log.V(1).Info("loaded input", "path", path, "records", len(s.Records()))
			stores[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return merge(stores, log)
}

// merge returns a store over the records of stores, with the union
// of their columns and measures.
func merge(stores []*measure.Store, log logr.Logger) (*measure.Store, error) {
	var cfg measure.Config
	seen := make(map[string]bool)
	for _, s := range stores {
		cfg.Records = append(cfg.Records, s.Records()...)
		for _, col := range s.Columns()[1:] {
			if seen[col.Name] {
				continue
			}
			seen[col.Name] = true
			cfg.Columns = append(cfg.Columns, col.Name)
			if col.Measure != nil {
				cfg.Measures = append(cfg.Measures, *col.Measure)
			}
		}
	}
	if len(stores) > 0 {
		cfg.ResponseMetadata = stores[0].ResponseMetadata()
	}
	cfg.Logger = log
	return measure.New(cfg)
}

func loadBench(paths []string, measures []measure.Measure, log logr.Logger) (*measure.Store, error) {
	results := make([][]*bench.Benchmark, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			data, err := readInput(path)
			if err != nil {
				return err
			}
			bs, err := bench.Parse(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			log.V(1).Info("loaded benchmarks", "path", path, "benchmarks", len(bs))
			results[i] = bs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var bs []*bench.Benchmark
	for _, r := range results {
		bs = append(bs, r...)
	}
	bench.ParseValues(bs, nil)
	if measures == nil {
		measures = bench.Measures(bs)
	}
	return measure.New(measure.Config{
		Columns:  bench.Columns(bs),
		Measures: measures,
		Records:  bench.Records(bs),
		Logger:   log,
	})
}
