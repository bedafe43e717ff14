// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package filter

import (
	"testing"

	"github.com/vdobler/hurl/value"
)

func TestCount(t *testing.T) {
	cases := []struct {
		in   value.Value
		want int64
	}{
		{value.String("hello"), 5},
		{value.List{value.Int64(1), value.Int64(2), value.Int64(3)}, 3},
		{value.Object{"a": value.Int64(1)}, 1},
	}
	for _, c := range cases {
		got, err := Apply("count", c.in, nil)
		if err != nil {
			t.Fatalf("count(%v): %s", c.in, err)
		}
		if got != value.Int64(c.want) {
			t.Errorf("count(%v) = %v, want %d", c.in, got, c.want)
		}
	}
}

func TestCountRejectsScalar(t *testing.T) {
	if _, err := Apply("count", value.Int64(5), nil); err == nil {
		t.Error("count(int) want error, got nil")
	}
}

func TestRegexFilter(t *testing.T) {
	got, err := Apply("regex", value.String("order-4821"), []string{`(\d+)`})
	if err != nil {
		t.Fatalf("regex: %s", err)
	}
	if got != value.String("4821") {
		t.Errorf("regex() = %v, want 4821", got)
	}
}

func TestReplace(t *testing.T) {
	got, err := Apply("replace", value.String("hello world"), []string{"world", "there"})
	if err != nil {
		t.Fatalf("replace: %s", err)
	}
	if got != value.String("hello there") {
		t.Errorf("replace() = %v, want %q", got, "hello there")
	}
}

func TestSplit(t *testing.T) {
	got, err := Apply("split", value.String("a,b,c"), []string{","})
	if err != nil {
		t.Fatalf("split: %s", err)
	}
	lst, ok := got.(value.List)
	if !ok || len(lst) != 3 {
		t.Fatalf("split() = %v, want a 3-element list", got)
	}
	if lst[1] != value.String("b") {
		t.Errorf("split()[1] = %v, want b", lst[1])
	}
}

func TestNth(t *testing.T) {
	lst := value.List{value.String("x"), value.String("y"), value.String("z")}
	got, err := Apply("nth", lst, []string{"1"})
	if err != nil {
		t.Fatalf("nth: %s", err)
	}
	if got != value.String("y") {
		t.Errorf("nth(1) = %v, want y", got)
	}

	if _, err := Apply("nth", lst, []string{"9"}); err == nil {
		t.Error("nth(9) out of range: want error, got nil")
	}
}

func TestToIntAndToFloat(t *testing.T) {
	got, err := Apply("toInt", value.String("42"), nil)
	if err != nil {
		t.Fatalf("toInt: %s", err)
	}
	if got != value.Int64(42) {
		t.Errorf("toInt() = %v, want 42", got)
	}

	got, err = Apply("toFloat", value.String("3.5"), nil)
	if err != nil {
		t.Fatalf("toFloat: %s", err)
	}
	if got != value.Float64(3.5) {
		t.Errorf("toFloat() = %v, want 3.5", got)
	}
}

func TestUrlEncodeDecode(t *testing.T) {
	got, err := Apply("urlEncode", value.String("a b&c"), nil)
	if err != nil {
		t.Fatalf("urlEncode: %s", err)
	}
	back, err := Apply("urlDecode", got, nil)
	if err != nil {
		t.Fatalf("urlDecode: %s", err)
	}
	if back != value.String("a b&c") {
		t.Errorf("urlDecode(urlEncode(x)) = %v, want original", back)
	}
}

func TestHtmlEscapeUnescape(t *testing.T) {
	got, err := Apply("htmlEscape", value.String(`<a href="x">&y</a>`), nil)
	if err != nil {
		t.Fatalf("htmlEscape: %s", err)
	}
	back, err := Apply("htmlUnescape", got, nil)
	if err != nil {
		t.Fatalf("htmlUnescape: %s", err)
	}
	if back != value.String(`<a href="x">&y</a>`) {
		t.Errorf("htmlUnescape(htmlEscape(x)) = %v, want original", back)
	}
}

func TestApplyUnknownFilter(t *testing.T) {
	if _, err := Apply("noSuchFilter", value.String("x"), nil); err == nil {
		t.Error("Apply(unknown): want error, got nil")
	}
}

func TestJSONPathFilter(t *testing.T) {
	got, err := Apply("jsonpath", value.Bytes(`{"items": [1, 2, 3]}`), []string{"$.items[1]"})
	if err != nil {
		t.Fatalf("jsonpath: %s", err)
	}
	if got != value.Int64(2) {
		t.Errorf("jsonpath() = %v, want 2", got)
	}
}
