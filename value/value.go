// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package value implements the tagged-sum Value type shared by the
// template, query, filter and predicate packages. Every query result,
// template substitution and filter input/output is a Value.
package value

import (
	"fmt"
	"regexp"
	"sort"
	"time"
)

// Kind discriminates the concrete type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindFloat64
	KindString
	KindBytes
	KindList
	KindObject
	KindDate
	KindRegex
	KindUnit
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt64:
		return "number"
	case KindFloat64:
		return "number"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	case KindDate:
		return "date"
	case KindRegex:
		return "regex"
	case KindUnit:
		return "unit"
	}
	return "unknown"
}

// Value is the tagged-sum runtime representation used across the
// template/query/filter/predicate pipeline (see spec Design Notes,
// "Tagged sums over inheritance").
type Value interface {
	Kind() Kind
	// Render renders the value the way it must appear when substituted
	// into plain text (the Text context of the template evaluator).
	Render() string
}

// Null is the absence of a value.
type Null struct{}

func (Null) Kind() Kind      { return KindNull }
func (Null) Render() string  { return "" }

// Bool wraps a boolean.
type Bool bool

func (Bool) Kind() Kind        { return KindBool }
func (b Bool) Render() string  { return fmt.Sprintf("%t", bool(b)) }

// Int64 wraps an integer. Hurl keeps integers and floats distinct even
// though both render as "number" queries/predicates (see spec's numeric
// widening policy design note).
type Int64 int64

func (Int64) Kind() Kind       { return KindInt64 }
func (i Int64) Render() string { return fmt.Sprintf("%d", int64(i)) }

// Float64 wraps a floating point number.
type Float64 float64

func (Float64) Kind() Kind       { return KindFloat64 }
func (f Float64) Render() string { return fmt.Sprintf("%g", float64(f)) }

// String wraps a UTF-8 string.
type String string

func (String) Kind() Kind       { return KindString }
func (s String) Render() string { return string(s) }

// Bytes wraps an opaque byte sequence (binary bodies, decoded base64/hex
// literals).
type Bytes []byte

func (Bytes) Kind() Kind       { return KindBytes }
func (b Bytes) Render() string { return string(b) }

// List is an ordered sequence of Values.
type List []Value

func (List) Kind() Kind { return KindList }
func (l List) Render() string {
	out := "["
	for i, v := range l {
		if i > 0 {
			out += ", "
		}
		out += v.Render()
	}
	return out + "]"
}

// Object is a string-keyed map of Values with stable iteration via Keys.
type Object map[string]Value

func (Object) Kind() Kind { return KindObject }
func (o Object) Render() string {
	keys := o.Keys()
	out := "{"
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += k + ": " + o[k].Render()
	}
	return out + "}"
}

// Keys returns the object's keys in sorted order, for deterministic
// rendering/iteration.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Date wraps a time.Time, produced by the toDate filter and consumed by
// the daysAfterNow/daysBeforeNow filters.
type Date time.Time

func (Date) Kind() Kind       { return KindDate }
func (d Date) Render() string { return time.Time(d).Format(time.RFC3339) }

// Regex wraps a compiled regular expression literal.
type Regex struct {
	*regexp.Regexp
}

func (Regex) Kind() Kind       { return KindRegex }
func (r Regex) Render() string { return r.String() }

// Unit is the value of an operation with no meaningful result. No query
// or filter in this module currently returns it.
type Unit struct{}

func (Unit) Kind() Kind      { return KindUnit }
func (Unit) Render() string  { return "" }

// Truthy reports whether v counts as true: false for Null, Unit, false,
// empty strings, lists and objects, true otherwise.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case Null, Unit:
		return false
	case Bool:
		return bool(t)
	case List:
		return len(t) > 0
	case Object:
		return len(t) > 0
	case String:
		return t != ""
	}
	return true
}

// Equal reports whether a and b are equal under Hurl's numeric-widening
// policy: Int64 and Float64 compare by numeric value, everything else
// compares structurally.
func Equal(a, b Value) bool {
	if an, aok := asNumber(a); aok {
		if bn, bok := asNumber(b); bok {
			return an == bn
		}
	}
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Unit:
		_, ok := b.(Unit)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Bytes:
		bv, ok := b.(Bytes)
		return ok && string(av) == string(bv)
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			ov, ok := bv[k]
			if !ok || !Equal(v, ov) {
				return false
			}
		}
		return true
	case Date:
		bv, ok := b.(Date)
		return ok && time.Time(av).Equal(time.Time(bv))
	}
	return false
}

func asNumber(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int64:
		return float64(n), true
	case Float64:
		return float64(n), true
	}
	return 0, false
}

// Compare orders a against b numerically or lexicographically, returning
// -1, 0 or 1. It returns an error if a and b are not comparable types
// (grounded on ht/condition.go's GreaterThan/LessThan handling, which only
// ever compares numbers and strings).
func Compare(a, b Value) (int, error) {
	if an, aok := asNumber(a); aok {
		if bn, bok := asNumber(b); bok {
			switch {
			case an < bn:
				return -1, nil
			case an > bn:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if as, aok := a.(String); aok {
		if bs, bok := b.(String); bok {
			switch {
			case as < bs:
				return -1, nil
			case as > bs:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	return 0, fmt.Errorf("value: %s and %s are not comparable", a.Kind(), b.Kind())
}
