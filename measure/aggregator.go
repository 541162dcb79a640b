// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"fmt"
	"math"
	"strings"

	"github.com/aclements/go-measure/internal/xfilter"
	"github.com/aclements/go-moremath/stats"
)

// An Aggregator accumulates the values of one column over the records
// of one group. RemoveFrom must exactly undo AddTo for the same value
// and record.
//
// Readers that have no defined result (for example, the mean of no
// values) return NaN for numeric results and nil otherwise.
type Aggregator interface {
	// AddTo incorporates value, read from rec, into the aggregate.
	AddTo(value interface{}, rec Record)

	// RemoveFrom retracts value, read from rec, from the aggregate.
	RemoveFrom(value interface{}, rec Record)

	// ValueOf returns the default scalar result of the aggregate.
	ValueOf() interface{}

	// Values returns the values collected by the aggregate.
	Values() []interface{}

	// Supports returns the aggregates that are meaningful for
	// this aggregator and the data it has seen.
	Supports() []Aggregate

	// Aggregate returns the result of reader agg. ok is false if
	// this kind of aggregator has no such reader.
	Aggregate(agg Aggregate) (v interface{}, ok bool)
}

// A Kind is an aggregation strategy.
type Kind int

const (
	// KindNone columns are not aggregated.
	KindNone Kind = iota
	// KindCountStar counts records. Only the "*" column uses it.
	KindCountStar
	// KindUniqueValue tracks whether a column has a single value.
	KindUniqueValue
	// KindCollectNonNull collects every non-null value.
	KindCollectNonNull
	// KindPreAggregated combines partial aggregates carried by
	// each record.
	KindPreAggregated
)

func (k Kind) String() string {
	switch k {
	case KindCountStar:
		return "count-star"
	case KindUniqueValue:
		return "unique-value"
	case KindCollectNonNull:
		return "collect-non-null"
	case KindPreAggregated:
		return "pre-aggregated"
	}
	return "none"
}

// CountStar counts the records in a group and collects their row
// numbers.
type CountStar struct {
	count int
	rows  []interface{}
}

func (a *CountStar) AddTo(value interface{}, rec Record) {
	a.count++
	if value != nil {
		a.rows = xfilter.Insert(a.rows, value)
	}
}

func (a *CountStar) RemoveFrom(value interface{}, rec Record) {
	a.count--
	if value != nil {
		a.rows, _ = xfilter.Remove(a.rows, value)
	}
}

func (a *CountStar) ValueOf() interface{} { return float64(a.count) }
func (a *CountStar) Values() []interface{} { return a.rows }
func (a *CountStar) Count() int { return a.count }
func (a *CountStar) Supports() []Aggregate { return []Aggregate{Count} }

func (a *CountStar) Aggregate(agg Aggregate) (interface{}, bool) {
	switch agg {
	case Count:
		return float64(a.count), true
	case Values:
		return a.Values(), true
	}
	return nil, false
}

// UniqueValue tracks whether every non-null value of a column in a
// group is the same. Strings that are equal ignoring case count as the
// same value, and the first one seen is kept.
//
// Once a group has seen two different values it stays non-unique,
// even if one of them is later removed.
type UniqueValue struct {
	set      bool
	diverged bool
	value    interface{}
	values   []interface{}
}

// foldKey returns a key that is equal for values UniqueValue treats
// as the same.
func foldKey(v interface{}) interface{} {
	if s, ok := v.(string); ok {
		return strings.ToUpper(s)
	}
	return xfilter.Canonical(v)
}

func (a *UniqueValue) AddTo(value interface{}, rec Record) {
	if value == nil {
		return
	}
	a.values = xfilter.Insert(a.values, value)
	if a.diverged {
		return
	}
	if !a.set {
		a.value, a.set = value, true
		return
	}
	if foldKey(a.value) == foldKey(value) {
		return
	}
	a.diverged = true
	a.value = nil
}

func (a *UniqueValue) RemoveFrom(value interface{}, rec Record) {
	if value == nil {
		return
	}
	a.values, _ = xfilter.Remove(a.values, value)
}

// Value returns the group's single value, or nil if the group has
// seen no value or more than one.
func (a *UniqueValue) Value() interface{} {
	if a.set && !a.diverged {
		return a.value
	}
	return nil
}

// Unique reports whether the group has seen exactly one value.
func (a *UniqueValue) Unique() bool {
	return a.set && !a.diverged
}

func (a *UniqueValue) ValueOf() interface{} { return a.Value() }

// Values returns the distinct values in the group in sorted order.
// Strings are compared ignoring case, as for Value, so of "X" and "x"
// only the first in sorted order ("X") is returned.
func (a *UniqueValue) Values() []interface{} {
	out := []interface{}{}
	seen := make(map[interface{}]bool)
	for _, v := range a.values {
		k := foldKey(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

func (a *UniqueValue) Supports() []Aggregate { return []Aggregate{Value} }

func (a *UniqueValue) Aggregate(agg Aggregate) (interface{}, bool) {
	switch agg {
	case Value:
		return a.Value(), true
	case Values:
		return a.Values(), true
	}
	return nil, false
}

// CollectNonNull collects every non-null value of a measure in a group
// and computes statistics over them on demand.
type CollectNonNull struct {
	values []interface{} // sorted

	sum      float64
	sumValid bool
}

func (a *CollectNonNull) AddTo(value interface{}, rec Record) {
	if value == nil {
		return
	}
	a.values = xfilter.Insert(a.values, value)
	if a.sumValid {
		a.sum += toFloat(value)
	}
}

// RemoveFrom panics if value was never added, since that means the
// group and its records are out of sync.
func (a *CollectNonNull) RemoveFrom(value interface{}, rec Record) {
	if value == nil {
		return
	}
	var ok bool
	a.values, ok = xfilter.Remove(a.values, value)
	if !ok {
		panic(fmt.Sprintf("measure: removing value %v that is not in the aggregate", value))
	}
	a.sumValid = false
}

func (a *CollectNonNull) ValueOf() interface{} { return a.Mean() }
func (a *CollectNonNull) Values() []interface{} { return a.values }
func (a *CollectNonNull) Count() int { return len(a.values) }

func (a *CollectNonNull) floats() []float64 {
	xs := make([]float64, len(a.values))
	for i, v := range a.values {
		xs[i] = toFloat(v)
	}
	return xs
}

func (a *CollectNonNull) Sum() float64 {
	if len(a.values) == 0 {
		return math.NaN()
	}
	if !a.sumValid {
		sum := 0.0
		for _, v := range a.values {
			sum += toFloat(v)
		}
		a.sum, a.sumValid = sum, true
	}
	return a.sum
}

func (a *CollectNonNull) Mean() float64 {
	n := len(a.values)
	if n == 0 {
		return math.NaN()
	}
	return a.Sum() / float64(n)
}

// Variance returns the sample variance, or NaN for fewer than two
// values.
func (a *CollectNonNull) Variance() float64 {
	if len(a.values) < 2 {
		return math.NaN()
	}
	return stats.Variance(a.floats())
}

func (a *CollectNonNull) StdDev() float64 {
	return math.Sqrt(a.Variance())
}

func (a *CollectNonNull) StdErr() float64 {
	return a.StdDev() / math.Sqrt(float64(len(a.values)))
}

func (a *CollectNonNull) Median() float64 {
	n := len(a.values)
	switch {
	case n == 0:
		return math.NaN()
	case n%2 == 1:
		return toFloat(a.values[(n-1)/2])
	}
	return (toFloat(a.values[n/2-1]) + toFloat(a.values[n/2])) / 2
}

func (a *CollectNonNull) Min() interface{} {
	if len(a.values) == 0 {
		return nil
	}
	return a.values[0]
}

func (a *CollectNonNull) Max() interface{} {
	if len(a.values) == 0 {
		return nil
	}
	return a.values[len(a.values)-1]
}

func (a *CollectNonNull) CountDistinct() int {
	if len(a.values) <= 1 {
		return len(a.values)
	}
	n := 1
	for i := 1; i < len(a.values); i++ {
		if xfilter.Compare(a.values[i-1], a.values[i]) != 0 {
			n++
		}
	}
	return n
}

func (a *CollectNonNull) Supports() []Aggregate {
	if len(a.values) > 0 && !isNumber(a.values[0]) {
		return []Aggregate{Count, Min, Max}
	}
	return []Aggregate{Count, Sum, Mean, Median, Min, Max, Var, StdDev, StdErr, CountDistinct}
}

func (a *CollectNonNull) Aggregate(agg Aggregate) (interface{}, bool) {
	switch agg {
	case Values:
		return a.Values(), true
	case Count:
		return float64(a.Count()), true
	case Sum:
		return a.Sum(), true
	case Mean:
		return a.Mean(), true
	case Median:
		return a.Median(), true
	case Var:
		return a.Variance(), true
	case StdDev:
		return a.StdDev(), true
	case StdErr:
		return a.StdErr(), true
	case Min:
		return a.Min(), true
	case Max:
		return a.Max(), true
	case CountDistinct:
		return float64(a.CountDistinct()), true
	}
	return nil, false
}

// PreAggregated combines partial aggregates that each record already
// carries, such as the COUNT, SUM, and sum of squares of a measure
// computed by a server-side GROUP BY. Which readers are available
// depends on which columns the Measure names.
type PreAggregated struct {
	m     Measure
	value func(Record, string) interface{}

	count, sum, sumOfSquares float64

	// mins and maxes are the sorted per-record minimums and
	// maximums, kept so they can be retracted.
	mins, maxes []interface{}
	values      []interface{}
}

// NewPreAggregated returns an empty PreAggregated for m that reads
// partial aggregates from records using value.
func NewPreAggregated(m Measure, value func(Record, string) interface{}) *PreAggregated {
	return &PreAggregated{m: m, value: value}
}

func (a *PreAggregated) AddTo(value interface{}, rec Record) {
	if f, ok := a.float(rec, a.m.CountColumn); ok {
		a.count += f
	}
	if f, ok := a.float(rec, a.m.SumColumn); ok {
		a.sum += f
	}
	if f, ok := a.float(rec, a.m.SumOfSquaresColumn); ok {
		a.sumOfSquares += f
	}
	if v := a.get(rec, a.m.MinColumn); v != nil {
		a.mins = xfilter.Insert(a.mins, v)
	}
	if v := a.get(rec, a.m.MaxColumn); v != nil {
		a.maxes = xfilter.Insert(a.maxes, v)
	}
	if value != nil {
		a.values = xfilter.Insert(a.values, value)
	}
}

func (a *PreAggregated) RemoveFrom(value interface{}, rec Record) {
	if f, ok := a.float(rec, a.m.CountColumn); ok {
		a.count -= f
	}
	if f, ok := a.float(rec, a.m.SumColumn); ok {
		a.sum -= f
	}
	if f, ok := a.float(rec, a.m.SumOfSquaresColumn); ok {
		a.sumOfSquares -= f
	}
	if v := a.get(rec, a.m.MinColumn); v != nil {
		a.mins, _ = xfilter.Remove(a.mins, v)
	}
	if v := a.get(rec, a.m.MaxColumn); v != nil {
		a.maxes, _ = xfilter.Remove(a.maxes, v)
	}
	if value != nil {
		a.values, _ = xfilter.Remove(a.values, value)
	}
}

func (a *PreAggregated) get(rec Record, col string) interface{} {
	if col == "" {
		return nil
	}
	return a.value(rec, col)
}

func (a *PreAggregated) float(rec Record, col string) (float64, bool) {
	return xfilter.Float(a.get(rec, col))
}

func (a *PreAggregated) hasCount() bool { return a.m.CountColumn != "" }
func (a *PreAggregated) hasSum() bool { return a.m.SumColumn != "" }
func (a *PreAggregated) hasSumSq() bool { return a.m.SumOfSquaresColumn != "" }
func (a *PreAggregated) hasMeanCols() bool { return a.hasCount() && a.hasSum() }

// ValueOf returns the mean if both count and sum are configured, and
// otherwise the sum.
func (a *PreAggregated) ValueOf() interface{} {
	if a.hasMeanCols() {
		return a.Mean()
	}
	return a.Sum()
}

func (a *PreAggregated) Values() []interface{} { return a.values }

func (a *PreAggregated) Count() float64 {
	if !a.hasCount() {
		return math.NaN()
	}
	return a.count
}

func (a *PreAggregated) Sum() float64 {
	if !a.hasSum() {
		return math.NaN()
	}
	return a.sum
}

func (a *PreAggregated) Mean() float64 {
	if !a.hasMeanCols() || a.count == 0 {
		return math.NaN()
	}
	return a.sum / a.count
}

// Variance returns the sample variance computed from the count, sum,
// and sum of squares.
func (a *PreAggregated) Variance() float64 {
	if !a.hasMeanCols() || !a.hasSumSq() || a.count < 2 {
		return math.NaN()
	}
	n, s1, s2 := a.count, a.sum, a.sumOfSquares
	return (n*s2 - s1*s1) / (n * (n - 1))
}

func (a *PreAggregated) StdDev() float64 {
	return math.Sqrt(a.Variance())
}

func (a *PreAggregated) StdErr() float64 {
	return a.StdDev() / math.Sqrt(a.Count())
}

func (a *PreAggregated) Min() interface{} {
	if len(a.mins) == 0 {
		return nil
	}
	return a.mins[0]
}

func (a *PreAggregated) Max() interface{} {
	if len(a.maxes) == 0 {
		return nil
	}
	return a.maxes[len(a.maxes)-1]
}

func (a *PreAggregated) Supports() []Aggregate {
	var out []Aggregate
	if a.hasCount() {
		out = append(out, Count)
	}
	if a.hasSum() {
		out = append(out, Sum)
	}
	if a.hasMeanCols() {
		out = append(out, Mean)
		if a.hasSumSq() {
			out = append(out, StdDev, Var, StdErr)
		}
	}
	if a.m.MinColumn != "" {
		out = append(out, Min)
	}
	if a.m.MaxColumn != "" {
		out = append(out, Max)
	}
	return out
}

func (a *PreAggregated) Aggregate(agg Aggregate) (interface{}, bool) {
	switch agg {
	case Values:
		return a.Values(), true
	case Count:
		return a.Count(), true
	case Sum:
		return a.Sum(), true
	case Mean:
		return a.Mean(), true
	case Var:
		return a.Variance(), true
	case StdDev:
		return a.StdDev(), true
	case StdErr:
		return a.StdErr(), true
	case Min:
		return a.Min(), true
	case Max:
		return a.Max(), true
	}
	return nil, false
}
