// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-measure/measure"
	"github.com/kballard/go-shellquote"
)

// A runner runs query scripts against a store.
type runner struct {
	s   *measure.Store
	w   io.Writer
	tsv bool
}

func (r *runner) run(script string) error {
	for i, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		args, err := shellquote.Split(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		if err := r.command(args); err != nil {
			return fmt.Errorf("line %d: %s: %w", i+1, args[0], err)
		}
	}
	return nil
}

func (r *runner) command(args []string) error {
	cmd, args := args[0], args[1:]
	nargs := func(min, max int) error {
		if len(args) < min || (max >= 0 && len(args) > max) {
			return fmt.Errorf("wrong number of arguments")
		}
		return nil
	}
	switch cmd {
	case "columns":
		if err := nargs(0, 0); err != nil {
			return err
		}
		return r.columns()

	case "filter":
		if err := nargs(2, -1); err != nil {
			return err
		}
		// Numeric arguments match both numbers and strings.
		var vals []interface{}
		for _, a := range args[1:] {
			vals = append(vals, a)
			if v, ok := parseValue(a).(float64); ok {
				vals = append(vals, v)
			}
		}
		return r.s.FilterIn(parseDim(args[0]), vals...)

	case "range":
		if err := nargs(3, 3); err != nil {
			return err
		}
		return r.s.Filter(parseDim(args[0]), parseValue(args[1]), parseValue(args[2]))

	case "clear":
		if err := nargs(1, 1); err != nil {
			return err
		}
		return r.s.FilterAll(parseDim(args[0]))

	case "members":
		if err := nargs(1, 1); err != nil {
			return err
		}
		ms, err := r.s.Members(parseDim(args[0]))
		if err != nil {
			return err
		}
		for _, m := range ms {
			if parts, ok := m.([]string); ok {
				m = strings.Join(parts, ",")
			}
			fmt.Fprintln(r.w, m)
		}
		return nil

	case "select":
		if err := nargs(3, -1); err != nil {
			return err
		}
		aggs, err := parseAggs(args[2:])
		if err != nil {
			return err
		}
		tab, err := r.s.SelectTable(parseDim(args[0]), args[1], aggs...)
		if err != nil {
			return err
		}
		return r.print(tab)

	case "series":
		if err := nargs(4, 4); err != nil {
			return err
		}
		agg, err := measure.ParseAggregate(args[3])
		if err != nil {
			return err
		}
		tab, err := r.s.SeriesTable(parseDim(args[0]), parseDim(args[1]), args[2], agg)
		if err != nil {
			return err
		}
		return r.print(tab)
	}
	return fmt.Errorf("unknown command")
}

func (r *runner) columns() error {
	var names, kinds []string
	for _, c := range r.s.Columns() {
		names = append(names, c.Name)
		kinds = append(kinds, c.Kind.String())
	}
	tab := new(table.Builder).
		Add("column", names).
		Add("kind", kinds).
		Done()
	return r.print(tab)
}

func (r *runner) print(tab *table.Table) error {
	if r.tsv {
		return writeTSV(r.w, tab)
	}
	return table.Fprint(r.w, tab)
}

func parseDim(s string) measure.Dim {
	return measure.Dim(strings.Split(s, ","))
}

// parseValue returns s as a number if it is one, or else as a string.
func parseValue(s string) interface{} {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func parseAggs(args []string) ([]measure.Aggregate, error) {
	aggs := make([]measure.Aggregate, len(args))
	for i, a := range args {
		agg, err := measure.ParseAggregate(a)
		if err != nil {
			return nil, err
		}
		aggs[i] = agg
	}
	return aggs, nil
}

// writeTSV writes tab to w as tab-separated values with a header row.
func writeTSV(w io.Writer, tab *table.Table) (err error) {
	buf := bufio.NewWriter(w)
	defer func() {
		if ferr := buf.Flush(); err == nil {
			err = ferr
		}
	}()

	cols := tab.Columns()
	fmt.Fprintf(buf, "%s\n", strings.Join(cols, "\t"))
	vs := make([]reflect.Value, len(cols))
	for i, name := range cols {
		vs[i] = reflect.ValueOf(tab.MustColumn(name))
	}
	for i := 0; i < tab.Len(); i++ {
		for j, v := range vs {
			if j > 0 {
				buf.WriteString("\t")
			}
			fmt.Fprint(buf, v.Index(i))
		}
		buf.WriteString("\n")
	}
	return nil
}
