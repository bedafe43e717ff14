// Copyright 2017 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package template implements the Hurl template evaluator (spec §4.B):
// rendering "{{ name filter... }}" expressions against a variable scope,
// either preserving the result's runtime type (Position context) or
// stringifying it (Text context).
//
// Grounded on the teacher's variables.go (substituteVariables,
// NewReplacer), generalized from string-only substitution to typed
// value.Value substitution with a filter pipeline.
package template

import (
	"fmt"
	"strings"

	"github.com/vdobler/hurl/filter"
	"github.com/vdobler/hurl/value"
)

// Context selects how a rendered Value is used: Position contexts (a
// JSON literal body, a predicate operand, a duration/integer option)
// keep the Value's runtime type; Text contexts (a URL, a header, plain
// multiline text) stringify it.
type Context int

const (
	Position Context = iota
	Text
)

// Error is returned for template rendering failures, carrying the raw
// expression for diagnostics.
type Error struct {
	Expr string
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("template %q: %s", e.Expr, e.Msg) }

// Render evaluates a single "name filter..." expression against scope.
func Render(expr string, scope value.Scope, ctx Context) (value.Value, error) {
	name, filters, err := split(expr)
	if err != nil {
		return nil, &Error{Expr: expr, Msg: err.Error()}
	}
	v, ok := scope.Get(name)
	if !ok {
		return nil, &Error{Expr: expr, Msg: fmt.Sprintf("undefined variable %q", name)}
	}
	for _, f := range filters {
		v, err = filter.Apply(f.name, v, f.args)
		if err != nil {
			return nil, &Error{Expr: expr, Msg: err.Error()}
		}
	}
	if ctx == Position {
		return v, nil
	}
	switch v.(type) {
	case value.List, value.Object:
		return nil, &Error{Expr: expr, Msg: fmt.Sprintf("cannot serialize %s in text context", v.Kind())}
	}
	return value.String(v.Render()), nil
}

// RenderText renders expr and returns its Text-context string form; a
// convenience wrapper for the common case of URL/header substitution.
func RenderText(expr string, scope value.Scope) (string, error) {
	v, err := Render(expr, scope, Text)
	if err != nil {
		return "", err
	}
	return v.Render(), nil
}

type filterRef struct {
	name string
	args []string
}

// split parses "name (sp filter)*" into a variable name and its filter
// chain (spec §4.B). The expression is split on whitespace, so a filter
// argument is a single bare or double-quoted word: the surrounding quotes
// are removed, escapes are not decoded, and a quoted argument cannot
// contain spaces.
func split(expr string) (name string, filters []filterRef, err error) {
	fields := strings.Fields(expr)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty expression")
	}
	name = fields[0]
	i := 1
	for i < len(fields) {
		f := filterRef{name: fields[i]}
		i++
		argc := filterArgCount(f.name)
		for a := 0; a < argc && i < len(fields); a++ {
			f.args = append(f.args, unquote(fields[i]))
			i++
		}
		filters = append(filters, f)
	}
	return name, filters, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func filterArgCount(name string) int {
	switch name {
	case "decode", "format", "jsonpath", "nth", "regex", "split", "toDate", "xpath":
		return 1
	case "replace":
		return 2
	}
	return 0
}

// ApplyTemplateString substitutes all "{{expr}}" occurrences in s with
// their Text-context rendering, used for URL/header/multiline-text
// substitution in the runner (spec §4.H step 3a).
func ApplyTemplateString(s string, scope value.Scope) (string, error) {
	var b strings.Builder
	for {
		start := strings.Index(s, "{{")
		if start < 0 {
			b.WriteString(s)
			break
		}
		end := strings.Index(s[start:], "}}")
		if end < 0 {
			return "", &Error{Expr: s, Msg: "unterminated template, missing '}}'"}
		}
		b.WriteString(s[:start])
		expr := strings.TrimSpace(s[start+2 : start+end])
		rendered, err := RenderText(expr, scope)
		if err != nil {
			return "", err
		}
		b.WriteString(rendered)
		s = s[start+end+2:]
	}
	return b.String(), nil
}
