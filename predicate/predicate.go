// Copyright 2015 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package predicate implements the Hurl predicate engine (spec §4.E):
// evaluating an actual value.Value against a predicate and its (typed,
// templated) operand.
//
// Grounded on the teacher's ht/condition.go, whose Condition.Fulfilled is
// the central string-predicate evaluator and whose ValidationMap dispatch
// table (name -> govalidator function) grounds the type-test/isIsoDate
// predicates here.
package predicate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"github.com/vdobler/hurl/hurlfile"
	"github.com/vdobler/hurl/value"
)

// Error reports a predicate evaluation failure (a false predicate, not a
// usage error).
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// Eval evaluates pred against actual, where operand is already the
// rendered value.Value of pred.Operand (rendered by the caller through
// the template package, since the operand may itself be a template
// expression or quoted literal). For predicates without an operand
// (exists/isEmpty/type tests), operand is nil.
func Eval(pred hurlfile.Predicate, actual value.Value, operand value.Value) error {
	ok, err := evalRaw(pred.Kind, actual, operand)
	if err != nil {
		return err
	}
	if pred.Not {
		ok = !ok
	}
	if !ok {
		return &Error{Msg: describe(pred, actual, operand)}
	}
	return nil
}

func evalRaw(kind hurlfile.PredicateKind, actual, operand value.Value) (bool, error) {
	switch kind {
	case hurlfile.PredEqual:
		return value.Equal(actual, operand), nil
	case hurlfile.PredNotEqual:
		return !value.Equal(actual, operand), nil
	case hurlfile.PredGreaterThan, hurlfile.PredGreaterOrEqual, hurlfile.PredLessThan, hurlfile.PredLessOrEqual:
		cmp, err := value.Compare(actual, operand)
		if err != nil {
			return false, err
		}
		switch kind {
		case hurlfile.PredGreaterThan:
			return cmp > 0, nil
		case hurlfile.PredGreaterOrEqual:
			return cmp >= 0, nil
		case hurlfile.PredLessThan:
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}
	case hurlfile.PredStartsWith:
		a, aok := asStringOrBytes(actual)
		b, bok := asStringOrBytes(operand)
		if !aok || !bok {
			return false, fmt.Errorf("startsWith: operands must be string or bytes")
		}
		return strings.HasPrefix(a, b), nil
	case hurlfile.PredEndsWith:
		a, aok := asStringOrBytes(actual)
		b, bok := asStringOrBytes(operand)
		if !aok || !bok {
			return false, fmt.Errorf("endsWith: operands must be string or bytes")
		}
		return strings.HasSuffix(a, b), nil
	case hurlfile.PredContains:
		a, aok := asStringOrBytes(actual)
		b, bok := asStringOrBytes(operand)
		if !aok || !bok {
			return false, fmt.Errorf("contains: operands must be string or bytes")
		}
		return strings.Contains(a, b), nil
	case hurlfile.PredMatches:
		a, aok := asStringOrBytes(actual)
		pat, pok := asStringOrBytes(operand)
		if !aok || !pok {
			return false, fmt.Errorf("matches: operands must be string or bytes")
		}
		re, err := regexp.Compile(pat)
		if err != nil {
			return false, fmt.Errorf("matches: %s", err)
		}
		return re.MatchString(a), nil
	case hurlfile.PredIncludes:
		lst, ok := actual.(value.List)
		if !ok {
			return false, fmt.Errorf("includes: actual value is not a list")
		}
		for _, v := range lst {
			if value.Equal(v, operand) {
				return true, nil
			}
		}
		return false, nil
	case hurlfile.PredExists:
		_, isNull := actual.(value.Null)
		return !isNull, nil
	case hurlfile.PredIsEmpty:
		switch v := actual.(type) {
		case value.String:
			return len(v) == 0, nil
		case value.Bytes:
			return len(v) == 0, nil
		case value.List:
			return len(v) == 0, nil
		case value.Object:
			return len(v) == 0, nil
		}
		return false, fmt.Errorf("isEmpty: actual value has no length")
	case hurlfile.PredIsBoolean:
		return actual.Kind() == value.KindBool, nil
	case hurlfile.PredIsCollection:
		return actual.Kind() == value.KindList || actual.Kind() == value.KindObject, nil
	case hurlfile.PredIsFloat:
		return actual.Kind() == value.KindFloat64, nil
	case hurlfile.PredIsInteger:
		return actual.Kind() == value.KindInt64, nil
	case hurlfile.PredIsNumber:
		return actual.Kind() == value.KindInt64 || actual.Kind() == value.KindFloat64, nil
	case hurlfile.PredIsString:
		return actual.Kind() == value.KindString, nil
	case hurlfile.PredIsDate:
		return actual.Kind() == value.KindDate, nil
	case hurlfile.PredIsIsoDate:
		s, ok := asStringOrBytes(actual)
		if !ok {
			if _, isDate := actual.(value.Date); isDate {
				return true, nil
			}
			return false, nil
		}
		return govalidator.IsRFC3339(s) || isRFC3339Fallback(s), nil
	}
	return false, fmt.Errorf("unknown predicate kind %d", kind)
}

// isRFC3339Fallback covers the common "no timezone offset" ISO-8601 form
// that govalidator.IsRFC3339 rejects, matching practical test-fixture
// date strings (e.g. "2024-01-02T15:04:05").
func isRFC3339Fallback(s string) bool {
	_, err := time.Parse("2006-01-02T15:04:05", s)
	return err == nil
}

func asStringOrBytes(v value.Value) (string, bool) {
	switch t := v.(type) {
	case value.String:
		return string(t), true
	case value.Bytes:
		return string(t), true
	}
	return "", false
}

func describe(pred hurlfile.Predicate, actual, operand value.Value) string {
	neg := ""
	if pred.Not {
		neg = "not "
	}
	if operand == nil {
		return fmt.Sprintf("predicate %sfailed on value %s", neg, actual.Render())
	}
	return fmt.Sprintf("predicate %sfailed: got %s, want %s", neg, actual.Render(), operand.Render())
}
