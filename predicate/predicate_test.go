// Copyright 2015 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vdobler/hurl/hurlfile"
	"github.com/vdobler/hurl/value"
)

func TestEvalEquality(t *testing.T) {
	cases := []struct {
		name    string
		kind    hurlfile.PredicateKind
		not     bool
		actual  value.Value
		operand value.Value
		wantErr bool
	}{
		{"equal match", hurlfile.PredEqual, false, value.Int64(200), value.Int64(200), false},
		{"equal mismatch", hurlfile.PredEqual, false, value.Int64(200), value.Int64(404), true},
		{"not-equal satisfied", hurlfile.PredEqual, true, value.Int64(200), value.Int64(404), false},
		{"not-equal violated", hurlfile.PredEqual, true, value.Int64(200), value.Int64(200), true},
		{"string equal", hurlfile.PredEqual, false, value.String("ok"), value.String("ok"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pred := hurlfile.Predicate{Kind: c.kind, Not: c.not}
			err := Eval(pred, c.actual, c.operand)
			if c.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvalComparison(t *testing.T) {
	pred := hurlfile.Predicate{Kind: hurlfile.PredGreaterThan}
	require.NoError(t, Eval(pred, value.Int64(10), value.Int64(5)))
	require.Error(t, Eval(pred, value.Int64(4), value.Int64(5)))
}

func TestEvalStringPredicates(t *testing.T) {
	require.NoError(t, Eval(hurlfile.Predicate{Kind: hurlfile.PredStartsWith}, value.String("hello world"), value.String("hello")))
	require.NoError(t, Eval(hurlfile.Predicate{Kind: hurlfile.PredEndsWith}, value.String("hello world"), value.String("world")))
	require.NoError(t, Eval(hurlfile.Predicate{Kind: hurlfile.PredContains}, value.String("hello world"), value.String("lo wo")))
	require.Error(t, Eval(hurlfile.Predicate{Kind: hurlfile.PredContains}, value.String("hello world"), value.String("nope")))
}

func TestEvalMatches(t *testing.T) {
	pred := hurlfile.Predicate{Kind: hurlfile.PredMatches}
	require.NoError(t, Eval(pred, value.String("abc123"), value.String(`^[a-z]+\d+$`)))
	require.Error(t, Eval(pred, value.String("123abc"), value.String(`^[a-z]+\d+$`)))
}

func TestEvalExistsAndIsEmpty(t *testing.T) {
	require.NoError(t, Eval(hurlfile.Predicate{Kind: hurlfile.PredExists}, value.String("x"), nil))
	require.Error(t, Eval(hurlfile.Predicate{Kind: hurlfile.PredExists}, value.Null{}, nil))

	require.NoError(t, Eval(hurlfile.Predicate{Kind: hurlfile.PredIsEmpty}, value.String(""), nil))
	require.Error(t, Eval(hurlfile.Predicate{Kind: hurlfile.PredIsEmpty}, value.String("x"), nil))
}

func TestEvalTypeTests(t *testing.T) {
	require.NoError(t, Eval(hurlfile.Predicate{Kind: hurlfile.PredIsInteger}, value.Int64(1), nil))
	require.Error(t, Eval(hurlfile.Predicate{Kind: hurlfile.PredIsInteger}, value.String("1"), nil))

	require.NoError(t, Eval(hurlfile.Predicate{Kind: hurlfile.PredIsString}, value.String("x"), nil))
	require.NoError(t, Eval(hurlfile.Predicate{Kind: hurlfile.PredIsBoolean}, value.Bool(true), nil))
	require.NoError(t, Eval(hurlfile.Predicate{Kind: hurlfile.PredIsCollection}, value.List{value.Int64(1)}, nil))
}

func TestEvalIsIsoDate(t *testing.T) {
	require.NoError(t, Eval(hurlfile.Predicate{Kind: hurlfile.PredIsIsoDate}, value.String("2023-01-15T10:00:00Z"), nil))
	require.Error(t, Eval(hurlfile.Predicate{Kind: hurlfile.PredIsIsoDate}, value.String("not a date"), nil))
}
