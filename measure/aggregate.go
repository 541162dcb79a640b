// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"errors"
	"fmt"
	"strings"
)

// An Aggregate names a reader of an Aggregator.
type Aggregate string

const (
	Values        Aggregate = "VALUES"
	Value         Aggregate = "VALUE"
	Count         Aggregate = "COUNT"
	Sum           Aggregate = "SUM"
	Mean          Aggregate = "MEAN"
	Median        Aggregate = "MEDIAN"
	Var           Aggregate = "VAR"
	StdDev        Aggregate = "STDDEV"
	StdErr        Aggregate = "STDERR"
	Min           Aggregate = "MIN"
	Max           Aggregate = "MAX"
	CountDistinct Aggregate = "COUNT_DISTINCT"
)

// Aggregates lists every known Aggregate.
var Aggregates = []Aggregate{
	Values, Value, Count, Sum, Mean, Median, Var, StdDev, StdErr, Min, Max, CountDistinct,
}

var (
	// ErrColumnNotFound is returned when a dimension or measure
	// names a column that is not in the data.
	ErrColumnNotFound = errors.New("column not found")

	// ErrUnknownAggregate is returned for an aggregate name that
	// is not one of Aggregates.
	ErrUnknownAggregate = errors.New("unknown aggregate")

	// ErrUnsupportedAggregate is returned when a column's
	// aggregator has no reader for the requested aggregate.
	ErrUnsupportedAggregate = errors.New("unsupported aggregate")
)

// Known reports whether a is one of Aggregates.
func (a Aggregate) Known() bool {
	for _, k := range Aggregates {
		if a == k {
			return true
		}
	}
	return false
}

// ParseAggregate returns the Aggregate named s, ignoring case.
// "COUNTDISTINCT" is accepted for CountDistinct.
func ParseAggregate(s string) (Aggregate, error) {
	a := Aggregate(strings.ToUpper(s))
	if a == "COUNTDISTINCT" {
		a = CountDistinct
	}
	if !a.Known() {
		return "", fmt.Errorf("%w %q", ErrUnknownAggregate, s)
	}
	return a, nil
}
