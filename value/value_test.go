// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import "testing"

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Null{}, false},
		{Unit{}, false},
		{Bool(true), true},
		{Bool(false), false},
		{String(""), false},
		{String("x"), true},
		{List{}, false},
		{List{Int64(1)}, true},
		{Object{}, false},
		{Int64(0), true}, // numbers are always truthy, unlike strings/collections
	}
	for _, c := range cases {
		if got := Truthy(c.v); got != c.want {
			t.Errorf("Truthy(%#v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestEqualNumericWidening(t *testing.T) {
	if !Equal(Int64(5), Float64(5.0)) {
		t.Error("Equal(Int64(5), Float64(5.0)) = false, want true")
	}
	if Equal(Int64(5), Float64(5.1)) {
		t.Error("Equal(Int64(5), Float64(5.1)) = true, want false")
	}
}

func TestEqualStructural(t *testing.T) {
	a := List{String("a"), Int64(1)}
	b := List{String("a"), Int64(1)}
	c := List{String("a"), Int64(2)}
	if !Equal(a, b) {
		t.Error("Equal(a, b) = false, want true for identical lists")
	}
	if Equal(a, c) {
		t.Error("Equal(a, c) = true, want false for differing lists")
	}
}

func TestEqualObjects(t *testing.T) {
	a := Object{"x": Int64(1), "y": String("z")}
	b := Object{"x": Int64(1), "y": String("z")}
	if !Equal(a, b) {
		t.Error("Equal(a, b) = false, want true for identical objects")
	}
	if Equal(a, Object{"x": Int64(1)}) {
		t.Error("Equal with differing key count = true, want false")
	}
}

func TestCompareNumbersAndStrings(t *testing.T) {
	cmp, err := Compare(Int64(3), Float64(5))
	if err != nil || cmp != -1 {
		t.Errorf("Compare(3, 5.0) = (%d, %v), want (-1, nil)", cmp, err)
	}
	cmp, err = Compare(String("b"), String("a"))
	if err != nil || cmp != 1 {
		t.Errorf("Compare(%q, %q) = (%d, %v), want (1, nil)", "b", "a", cmp, err)
	}
}

func TestCompareIncomparable(t *testing.T) {
	if _, err := Compare(Bool(true), Int64(1)); err == nil {
		t.Error("Compare(bool, int) want error, got nil")
	}
}

func TestScopeCopyIsIndependent(t *testing.T) {
	s := Scope{"a": Int64(1)}
	cpy := s.Copy()
	cpy.Set("a", Int64(2))
	if s["a"] != Int64(1) {
		t.Errorf("original scope mutated by copy: s[a] = %v", s["a"])
	}
}

func TestScopeNewOuterWins(t *testing.T) {
	outer := Scope{"name": String("outer")}
	inner := Scope{"name": String("inner"), "only-inner": Int64(1)}
	merged := New(outer, inner)
	if merged["name"] != String("outer") {
		t.Errorf("New() outer binding = %v, want outer to win", merged["name"])
	}
	if merged["only-inner"] != Int64(1) {
		t.Errorf("New() dropped an inner-only binding: %v", merged["only-inner"])
	}
}

func TestNextCounterMonotonic(t *testing.T) {
	a := NextCounter()
	b := NextCounter()
	if b <= a {
		t.Errorf("NextCounter() not monotonic: %d then %d", a, b)
	}
}
