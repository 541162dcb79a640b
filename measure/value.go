// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aclements/go-measure/internal/xfilter"
)

// A Record is one input row, mapping column names to values.
//
// A value may be a bare scalar or, in the "enriched" row format
// returned by some query APIs, a map with a "value" key holding the
// scalar. Both are read the same way. Numbers of any Go numeric type
// are read as float64.
type Record map[string]interface{}

// RowNumberColumn is the column the store adds to every record,
// holding the record's index in the store.
const RowNumberColumn = "__rownumber__"

// Delimiter separates the component keys of a composite dimension
// key. Component values must not contain it.
const Delimiter = "|\uFFFF|"

// A Format is the shape of the records in a store, decided once from
// the first record.
type Format int

const (
	// FormatUnknown means the store has no records to inspect.
	FormatUnknown Format = iota
	// FormatSimple records hold bare values: {"x": 4}.
	FormatSimple
	// FormatObject records hold wrapped values: {"x": {"value": 4}}.
	FormatObject
)

func (f Format) String() string {
	switch f {
	case FormatSimple:
		return "simple"
	case FormatObject:
		return "object"
	}
	return "unknown"
}

func detectFormat(recs []Record) Format {
	if len(recs) == 0 {
		return FormatUnknown
	}
	for _, v := range recs[0] {
		if isWrapped(v) {
			return FormatObject
		}
	}
	return FormatSimple
}

func isWrapped(v interface{}) bool {
	switch v.(type) {
	case map[string]interface{}, Record:
		return true
	}
	return false
}

// simpleValue reads column name of a FormatSimple record.
func simpleValue(rec Record, name string) interface{} {
	return normalize(rec[name])
}

// wrappedValue reads column name of a record whose values may be
// wrapped.
func wrappedValue(rec Record, name string) interface{} {
	switch v := rec[name].(type) {
	case map[string]interface{}:
		return normalize(v["value"])
	case Record:
		return normalize(v["value"])
	case nil:
		return nil
	default:
		return normalize(v)
	}
}

// normalize converts numeric values to float64 so that equal numbers
// are equal keys regardless of their Go type.
func normalize(v interface{}) interface{} {
	switch v := v.(type) {
	case nil, string, float64, bool:
		return v
	case interface{ Float64() (float64, error) }:
		// json.Number
		if f, err := v.Float64(); err == nil {
			return f
		}
		return fmt.Sprint(v)
	}
	if f, ok := xfilter.Float(v); ok {
		return f
	}
	return v
}

// toFloat returns v as a float64, or NaN if v is not a number.
func toFloat(v interface{}) float64 {
	if f, ok := xfilter.Float(v); ok {
		return f
	}
	return math.NaN()
}

func isNumber(v interface{}) bool {
	_, ok := xfilter.Float(v)
	return ok
}

// keyString formats one component of a composite key.
func keyString(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	if f, ok := xfilter.Float(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// JoinKey joins the components of a composite key.
func JoinKey(parts []string) string {
	return strings.Join(parts, Delimiter)
}

// SplitKey splits a composite key into its components. SplitKey
// undoes JoinKey for components that do not contain Delimiter.
func SplitKey(key string) []string {
	return strings.Split(key, Delimiter)
}
