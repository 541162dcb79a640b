// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xfilter

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
)

// A Key is a dimension value or group key. Keys of different kinds
// are ordered by Compare.
type Key = interface{}

const (
	rankNil = iota
	rankBool
	rankNumber
	rankString
	rankOther
)

func rank(k Key) int {
	switch k.(type) {
	case nil:
		return rankNil
	case bool:
		return rankBool
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return rankNumber
	case string:
		return rankString
	}
	return rankOther
}

// Float returns k as a float64 if k is any Go numeric type.
func Float(k Key) (float64, bool) {
	switch k := k.(type) {
	case float64:
		return k, true
	case float32:
		return float64(k), true
	case int:
		return float64(k), true
	case int8:
		return float64(k), true
	case int16:
		return float64(k), true
	case int32:
		return float64(k), true
	case int64:
		return float64(k), true
	case uint:
		return float64(k), true
	case uint8:
		return float64(k), true
	case uint16:
		return float64(k), true
	case uint32:
		return float64(k), true
	case uint64:
		return float64(k), true
	}
	return 0, false
}

// Compare returns -1, 0, or 1 depending on whether a sorts before,
// the same as, or after b.
//
// Keys are ordered first by kind: nil, then bools (false before
// true), then numbers (NaN first), then strings (in byte order), then
// anything else, ordered by its fmt.Sprint representation. Numbers of
// different Go types compare by value.
func Compare(a, b Key) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case rankNil:
		return 0
	case rankBool:
		x, y := a.(bool), b.(bool)
		if x == y {
			return 0
		} else if !x {
			return -1
		}
		return 1
	case rankNumber:
		x, _ := Float(a)
		y, _ := Float(b)
		switch xn, yn := math.IsNaN(x), math.IsNaN(y); {
		case xn && yn:
			return 0
		case xn:
			return -1
		case yn:
			return 1
		}
		if x < y {
			return -1
		} else if x > y {
			return 1
		}
		return 0
	case rankString:
		return strings.Compare(a.(string), b.(string))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// Canonical returns a representation of k that is usable as a map key
// and equal (==) to the canonical form of every key that Compares
// equal to k. Numbers become float64, every NaN maps to a single key,
// and values of incomparable types become their fmt.Sprint
// representation. A canonical NaN is for lookups only and is not
// itself ordered by Compare.
func Canonical(k Key) Key {
	k = normalKey(k)
	if f, ok := k.(float64); ok && math.IsNaN(f) {
		return nanKey{}
	}
	return k
}

// nanKey is the canonical form of NaN, which is not equal to itself.
type nanKey struct{}

// normalKey is like Canonical, but leaves NaN as a float64.
func normalKey(k Key) Key {
	if k == nil {
		return nil
	}
	if f, ok := Float(k); ok {
		return f
	}
	if !reflect.TypeOf(k).Comparable() {
		return fmt.Sprint(k)
	}
	return k
}

// BisectLeft returns the index of the first element of the sorted
// slice a that is not less than k.
func BisectLeft(a []Key, k Key) int {
	return sort.Search(len(a), func(i int) bool {
		return Compare(a[i], k) >= 0
	})
}

// BisectRight returns the index of the first element of the sorted
// slice a that is greater than k.
func BisectRight(a []Key, k Key) int {
	return sort.Search(len(a), func(i int) bool {
		return Compare(a[i], k) > 0
	})
}

// Insert inserts k into the sorted slice a after any elements equal
// to k and returns the updated slice.
func Insert(a []Key, k Key) []Key {
	i := BisectRight(a, k)
	a = append(a, nil)
	copy(a[i+1:], a[i:])
	a[i] = k
	return a
}

// Remove removes one element equal to k from the sorted slice a. It
// returns the updated slice and whether such an element was found.
func Remove(a []Key, k Key) ([]Key, bool) {
	i := BisectLeft(a, k)
	if i == len(a) || Compare(a[i], k) != 0 {
		return a, false
	}
	copy(a[i:], a[i+1:])
	a[len(a)-1] = nil
	return a[:len(a)-1], true
}

// IsSorted reports whether a is sorted by Compare.
func IsSorted(a []Key) bool {
	for i := 1; i < len(a); i++ {
		if Compare(a[i-1], a[i]) > 0 {
			return false
		}
	}
	return true
}
